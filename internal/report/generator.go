// Package report renders aggregation and balance results as text tables,
// JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/msahsan119/finman/internal/logging"
)

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "", "table":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", s)
	}
}

// Table is a rendered-agnostic report: a header, body rows and footer rows
// such as Total and Average.
type Table struct {
	Title   string     `json:"title" yaml:"title"`
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
	Footer  [][]string `json:"footer,omitempty" yaml:"footer,omitempty"`
}

// Options configures a Generator.
type Options struct {
	HomePlaces    int32
	ForeignPlaces int32
	Logger        logging.Logger
}

// Generator builds and renders report tables.
type Generator struct {
	homePlaces    int32
	foreignPlaces int32
	logger        logging.Logger

	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	footer lipgloss.Style
}

// NewGenerator creates a generator.
func NewGenerator(opts Options) *Generator {
	return &Generator{
		homePlaces:    opts.HomePlaces,
		foreignPlaces: opts.ForeignPlaces,
		logger:        logging.OrDefault(opts.Logger).WithField("component", "ReportGenerator"),
		title:         lipgloss.NewStyle().Bold(true),
		header:        lipgloss.NewStyle().Bold(true).Padding(0, 1),
		cell:          lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right),
		footer:        lipgloss.NewStyle().Bold(true).Padding(0, 1).Align(lipgloss.Right),
	}
}

// Render encodes t in format.
func (g *Generator) Render(t *Table, format Format) ([]byte, error) {
	switch format {
	case FormatText, "":
		return []byte(g.renderText(t)), nil
	case FormatJSON:
		out, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			g.logger.WithError(err).Error("Failed to marshal JSON report")
			return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		out, err := yaml.Marshal(t)
		if err != nil {
			g.logger.WithError(err).Error("Failed to marshal YAML report")
			return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *Generator) renderText(t *Table) string {
	body := len(t.Rows)
	rows := make([][]string, 0, body+len(t.Footer))
	rows = append(rows, t.Rows...)
	rows = append(rows, t.Footer...)

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return g.header
			case row >= body:
				return g.footer
			case col == 0:
				return g.cell.Align(lipgloss.Left)
			default:
				return g.cell
			}
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(g.title.Render(t.Title))
		b.WriteByte('\n')
	}
	b.WriteString(tbl.String())
	b.WriteByte('\n')
	return b.String()
}
