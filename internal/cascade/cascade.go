// Package cascade propagates taxonomy edits into the expense collections.
// A rename rewrites the stored names of every affected record and a delete
// removes them, in both currency regions.
package cascade

import (
	"fmt"
	"strings"

	"github.com/msahsan119/finman/internal/ledger"
	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/taxonomy"
)

// Strategy selects how affected records are found.
type Strategy string

const (
	// StrategyIndex uses the node identifiers recorded on each expense.
	StrategyIndex Strategy = "index"
	// StrategyScan compares stored names against the edited path.
	StrategyScan Strategy = "scan"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyIndex, "":
		return StrategyIndex, nil
	case StrategyScan:
		return StrategyScan, nil
	default:
		return "", fmt.Errorf("unknown cascade strategy %q (want index or scan)", s)
	}
}

var regions = []models.Region{models.RegionHome, models.RegionForeign}

// Result summarizes the effect of one event on the ledger.
type Result struct {
	Kind     taxonomy.EventKind
	Path     taxonomy.Path
	NewName  string
	Renamed  map[models.Region]int
	Removed  map[models.Region]int
	Adopted  int
	Strategy Strategy
}

// Touched returns the number of records renamed or removed.
func (r *Result) Touched() int {
	n := 0
	for _, c := range r.Renamed {
		n += c
	}
	for _, c := range r.Removed {
		n += c
	}
	return n
}

// Engine applies taxonomy events to a ledger store.
type Engine struct {
	store    *ledger.Store
	strategy Strategy
	logger   logging.Logger
}

// NewEngine creates an engine. A nil logger falls back to the package default.
func NewEngine(store *ledger.Store, strategy Strategy, logger logging.Logger) *Engine {
	if strategy == "" {
		strategy = StrategyIndex
	}
	return &Engine{store: store, strategy: strategy, logger: logging.OrDefault(logger)}
}

// Strategy returns the active strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Apply dispatches ev. A nil event, as returned for a no-op rename, yields
// an empty result.
func (e *Engine) Apply(ev *taxonomy.Event) (*Result, error) {
	if ev == nil {
		return &Result{Strategy: e.strategy}, nil
	}
	switch ev.Kind {
	case taxonomy.EventAdded:
		return e.OnAdd(ev), nil
	case taxonomy.EventRenamed:
		return e.OnRename(ev), nil
	case taxonomy.EventDeleted:
		return e.OnDelete(ev), nil
	default:
		return nil, fmt.Errorf("unknown taxonomy event %q", ev.Kind)
	}
}

// OnAdd attaches records that already carried the new node's name.
func (e *Engine) OnAdd(ev *taxonomy.Event) *Result {
	res := &Result{Kind: ev.Kind, Path: ev.Path, Strategy: e.strategy}
	res.Adopted = e.store.Adopt(ev.ParentID, int(ev.Level), ev.Path.Name())
	if res.Adopted > 0 {
		e.logger.WithFields(
			logging.F(logging.FieldPath, ev.Path.String()),
			logging.F(logging.FieldCount, res.Adopted),
		).Info("Attached existing records to new taxonomy node")
	}
	return res
}

// OnRename rewrites the name at the event's level for every affected record.
// The tree must already carry the new name.
func (e *Engine) OnRename(ev *taxonomy.Event) *Result {
	res := &Result{
		Kind:     ev.Kind,
		Path:     ev.Path,
		NewName:  ev.NewName,
		Renamed:  make(map[models.Region]int, len(regions)),
		Strategy: e.strategy,
	}
	level := int(ev.Level)
	for _, region := range regions {
		affected := e.affected(region, ev)
		for _, rec := range affected {
			rec.SetField(level, ev.NewName)
		}
		res.Renamed[region] = len(affected)
	}
	res.Adopted = e.store.Adopt(ev.ParentID, level, ev.NewName)

	e.logger.WithFields(
		logging.F(logging.FieldPath, ev.Path.String()),
		logging.F(logging.FieldNewName, ev.NewName),
		logging.F(logging.FieldLevel, ev.Level.String()),
		logging.F(logging.FieldStrategy, string(e.strategy)),
		logging.F(logging.FieldCount, res.Touched()),
	).Info("Cascaded taxonomy rename")
	return res
}

// OnDelete removes every record filed under the deleted node or below it.
func (e *Engine) OnDelete(ev *taxonomy.Event) *Result {
	res := &Result{
		Kind:     ev.Kind,
		Path:     ev.Path,
		Removed:  make(map[models.Region]int, len(regions)),
		Strategy: e.strategy,
	}
	for _, region := range regions {
		affected := e.affected(region, ev)
		if len(affected) == 0 {
			res.Removed[region] = 0
			continue
		}
		doomed := make(map[*models.Expense]struct{}, len(affected))
		for _, rec := range affected {
			doomed[rec] = struct{}{}
		}
		res.Removed[region] = e.store.Expenses(region).RemoveWhere(func(rec *models.Expense) bool {
			_, ok := doomed[rec]
			return ok
		})
	}

	e.logger.WithFields(
		logging.F(logging.FieldPath, ev.Path.String()),
		logging.F(logging.FieldLevel, ev.Level.String()),
		logging.F(logging.FieldStrategy, string(e.strategy)),
		logging.F(logging.FieldCount, res.Touched()),
	).Info("Cascaded taxonomy delete")
	return res
}

func (e *Engine) affected(region models.Region, ev *taxonomy.Event) []*models.Expense {
	if e.strategy == StrategyScan {
		return Scan(e.store.Expenses(region), ev.Path)
	}
	return e.store.Attached(region, ev.Subtree)
}

// Scan returns the records whose stored names begin with path.
func Scan(c *ledger.Collection[*models.Expense], path taxonomy.Path) []*models.Expense {
	var out []*models.Expense
	for rec := range c.Filter(func(rec *models.Expense) bool { return Matches(rec, path) }) {
		out = append(out, rec)
	}
	return out
}

// Matches reports whether the record's names at levels 1..len(path) equal
// path.
func Matches(rec *models.Expense, path taxonomy.Path) bool {
	if len(path) == 0 {
		return false
	}
	for i, name := range path {
		if rec.Field(i+1) != name {
			return false
		}
	}
	return true
}
