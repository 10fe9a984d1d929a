package logging

// Standardized field names for structured logging.
const (
	FieldFile       = "file_path"
	FieldBackend    = "backend"
	FieldCategory   = "category"
	FieldPath       = "path"
	FieldLevel      = "taxonomy_level"
	FieldNodeID     = "node_id"
	FieldNewName    = "new_name"
	FieldRegion     = "region"
	FieldCollection = "collection"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldStrategy   = "strategy"
	FieldOperation  = "operation"
	FieldReason     = "reason"
	FieldError      = "error"
	FieldCount      = "count"
	FieldAttempt    = "attempt"
	FieldRate       = "conversion_rate"
	FieldDelimiter  = "delimiter"
)
