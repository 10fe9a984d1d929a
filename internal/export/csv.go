// Package export flattens a ledger snapshot into a single CSV table and reads
// such tables back for import.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/snapshot"
)

// Record type labels written to the Type column.
const (
	TypeHomeExpense    = "Home Expense"
	TypeForeignExpense = "Foreign Expense"
	TypeIncome         = "Income"
	TypeInvestment     = "Investment"
	TypeReturn         = "Return"
)

// Row is one line of the export.
type Row struct {
	Date           string `csv:"Date"`
	Type           string `csv:"Type"`
	Category       string `csv:"Category"`
	Subcategory    string `csv:"Subcategory"`
	SubSubcategory string `csv:"Sub-Subcategory"`
	Amount         string `csv:"Amount"`
	Currency       string `csv:"Currency"`
	Details        string `csv:"Details"`
}

// Options configures an Exporter.
type Options struct {
	Delimiter       rune
	HomeCurrency    string
	ForeignCurrency string
	Logger          logging.Logger
}

// Exporter converts between snapshots and CSV rows.
type Exporter struct {
	delimiter rune
	home      string
	foreign   string
	logger    logging.Logger
}

// New creates an exporter. Zero options default to a comma delimiter and
// EUR/BDT currency codes.
func New(opts Options) *Exporter {
	e := &Exporter{
		delimiter: opts.Delimiter,
		home:      opts.HomeCurrency,
		foreign:   opts.ForeignCurrency,
		logger:    logging.OrDefault(opts.Logger),
	}
	if e.delimiter == 0 {
		e.delimiter = ','
	}
	if e.home == "" {
		e.home = "EUR"
	}
	if e.foreign == "" {
		e.foreign = "BDT"
	}
	return e
}

// Flatten lists every record of snap as rows: home expenses, foreign
// expenses, income, investments, returns.
func (e *Exporter) Flatten(snap *snapshot.Snapshot) []Row {
	rows := make([]Row, 0, snap.Records())
	for _, x := range snap.HomeExpenses {
		rows = append(rows, e.expenseRow(x, TypeHomeExpense, e.home))
	}
	for _, x := range snap.ForeignExpenses {
		rows = append(rows, e.expenseRow(x, TypeForeignExpense, e.foreign))
	}
	for _, r := range snap.Income {
		rows = append(rows, Row{
			Date:        r.Date.String(),
			Type:        TypeIncome,
			Category:    TypeIncome,
			Subcategory: r.Source,
			Amount:      r.Amount.String(),
			Currency:    e.home,
		})
	}
	for _, r := range snap.Investments {
		rows = append(rows, Row{
			Date:     r.Date.String(),
			Type:     TypeInvestment,
			Category: r.Category,
			Amount:   r.Amount.String(),
			Currency: e.home,
			Details:  r.Description,
		})
	}
	for _, r := range snap.Returns {
		rows = append(rows, Row{
			Date:     r.Date.String(),
			Type:     TypeReturn,
			Category: r.Category,
			Amount:   r.Amount.String(),
			Currency: e.home,
			Details:  r.Kind,
		})
	}
	return rows
}

func (e *Exporter) expenseRow(x models.Expense, typ, currency string) Row {
	return Row{
		Date:           x.Date.String(),
		Type:           typ,
		Category:       x.Category,
		Subcategory:    x.Subcategory,
		SubSubcategory: x.Subsubcategory,
		Amount:         x.Amount.String(),
		Currency:       currency,
		Details:        x.Location,
	}
}

// Write encodes rows with a header line.
func (e *Exporter) Write(w io.Writer, rows []Row) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = e.delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// Read decodes rows. The header must name the export columns.
func (e *Exporter) Read(r io.Reader) ([]Row, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = e.delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	var rows []Row
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// WriteFile exports snap to path.
func (e *Exporter) WriteFile(path string, snap *snapshot.Snapshot) (int, error) {
	rows := e.Flatten(snap)
	log := e.logger.WithFields(
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(rows)),
		logging.F(logging.FieldDelimiter, string(e.delimiter)))

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := e.Write(file, rows); err != nil {
		return 0, err
	}
	log.Info("Exported ledger to CSV")
	return len(rows), nil
}

// ReadFile reads rows from path and converts them to a records-only
// snapshot. Rows that cannot be converted are skipped and counted.
func (e *Exporter) ReadFile(path string) (*snapshot.Snapshot, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer file.Close()

	rows, err := e.Read(file)
	if err != nil {
		return nil, 0, err
	}
	snap, skipped := e.ToSnapshot(rows)
	e.logger.Info("Read CSV import",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, snap.Records()))
	return snap, skipped, nil
}

// ToSnapshot converts rows back into records. Legacy labels "Euro Expense"
// and "BD Expense" map to home and foreign expenses.
func (e *Exporter) ToSnapshot(rows []Row) (*snapshot.Snapshot, int) {
	snap := &snapshot.Snapshot{}
	skipped := 0
	for i, row := range rows {
		if err := e.appendRow(snap, row); err != nil {
			skipped++
			e.logger.WithError(err).Warn("Skipping CSV row",
				logging.F("row", i+2),
				logging.F(logging.FieldReason, err.Error()))
		}
	}
	return snap, skipped
}

func (e *Exporter) appendRow(snap *snapshot.Snapshot, row Row) error {
	date, err := models.ParseDate(strings.TrimSpace(row.Date))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	amount, err := models.ParseAmount(row.Amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	switch normalizeType(row.Type) {
	case TypeHomeExpense, TypeForeignExpense:
		x := models.Expense{
			Region:         models.RegionHome,
			Category:       strings.TrimSpace(row.Category),
			Subcategory:    strings.TrimSpace(row.Subcategory),
			Subsubcategory: strings.TrimSpace(row.SubSubcategory),
			Amount:         amount,
			Date:           date,
			Location:       row.Details,
		}
		if normalizeType(row.Type) == TypeForeignExpense {
			x.Region = models.RegionForeign
			snap.ForeignExpenses = append(snap.ForeignExpenses, x)
		} else {
			snap.HomeExpenses = append(snap.HomeExpenses, x)
		}
	case TypeIncome:
		snap.Income = append(snap.Income, models.IncomeEntry{
			Source: strings.TrimSpace(row.Subcategory),
			Amount: amount,
			Date:   date,
		})
	case TypeInvestment:
		snap.Investments = append(snap.Investments, models.InvestmentEntry{
			Category:    strings.TrimSpace(row.Category),
			Amount:      amount,
			Date:        date,
			Description: row.Details,
		})
	case TypeReturn:
		snap.Returns = append(snap.Returns, models.ReturnEntry{
			Category: strings.TrimSpace(row.Category),
			Kind:     row.Details,
			Amount:   amount,
			Date:     date,
		})
	default:
		return fmt.Errorf("unknown record type %q", row.Type)
	}
	return nil
}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "home expense", "euro expense":
		return TypeHomeExpense
	case "foreign expense", "bd expense":
		return TypeForeignExpense
	case "income":
		return TypeIncome
	case "investment":
		return TypeInvestment
	case "return":
		return TypeReturn
	default:
		return ""
	}
}

// BackupHook returns a post-save hook that rewrites the CSV backup at path.
func (e *Exporter) BackupHook(path string) func(context.Context, *snapshot.Snapshot) error {
	return func(ctx context.Context, snap *snapshot.Snapshot) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := e.WriteFile(path, snap)
		return err
	}
}
