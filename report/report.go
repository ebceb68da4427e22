package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
)

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// ReportGenerator defines the methods for generating reports.
type ReportGenerator interface {
	GenerateReport(res *core.Result) ([]byte, error)
	SaveReportToFile(res *core.Result, filePath string) error
}

// Formats lists the supported report formats.
var Formats = []string{"text", "json", "html", "markdown"}

// New returns the generator for format. maxRows limits the rows shown per
// table in the text, markdown and HTML formats; zero shows all.
func New(format string, maxRows int) (ReportGenerator, error) {
	switch format {
	case "text", "":
		return &TextReportGenerator{MaxRows: maxRows}, nil
	case "json":
		return &JSONReportGenerator{}, nil
	case "html":
		return &HTMLReportGenerator{MaxRows: maxRows}, nil
	case "markdown", "md":
		return &MarkdownReportGenerator{MaxRows: maxRows}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %q", format)
	}
}

// NewReporter adapts the generator for format to core.Reporter.
func NewReporter(format string, maxRows int) (core.Reporter, error) {
	gen, err := New(format, maxRows)
	if err != nil {
		return nil, err
	}
	return reporter{gen: gen}, nil
}

type reporter struct {
	gen ReportGenerator
}

func (r reporter) Report(ctx context.Context, res *core.Result) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.gen.GenerateReport(res)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func saveToFile(gen ReportGenerator, res *core.Result, filePath string) error {
	data, err := gen.GenerateReport(res)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// -----------------------------
// Report View
// -----------------------------

// section is one titled table of a report.
type section struct {
	Title   string
	Headers []string
	Rows    [][]string
	Hidden  int
}

// view is the format independent content of a report.
type view struct {
	Title    string
	Empty    bool
	Summary  [][2]string
	Warnings []string
	Sections []section
}

func newView(res *core.Result, maxRows int) view {
	v := view{
		Title: fmt.Sprintf("Comparison of %s and %s", res.LabelA, res.LabelB),
		Empty: res.Empty,
	}
	if res.Empty {
		return v
	}

	s := res.Summary
	v.Summary = [][2]string{
		{"Key columns", strings.Join(res.KeyColumns, ", ")},
		{"Compared columns", strings.Join(res.CompareColumns, ", ")},
		{"Rows in " + res.LabelA, fmt.Sprint(s.RowsA)},
		{"Rows in " + res.LabelB, fmt.Sprint(s.RowsB)},
		{"Cell differences", fmt.Sprint(s.CellDifferences)},
	}
	columns := make([]string, 0, len(s.Columns))
	for name := range s.Columns {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	for _, name := range columns {
		v.Summary = append(v.Summary, [2]string{"Differences in " + name, fmt.Sprint(s.Columns[name])})
	}

	if len(s.UncomparedA) > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%s: %d columns not in comparison: %s",
			res.LabelA, len(s.UncomparedA), strings.Join(s.UncomparedA, ", ")))
	}
	if len(s.UncomparedB) > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%s: %d columns not in comparison: %s",
			res.LabelB, len(s.UncomparedB), strings.Join(s.UncomparedB, ", ")))
	}
	for _, m := range s.TypeMismatches {
		role := "column"
		if m.Key {
			role = "id column"
		}
		v.Warnings = append(v.Warnings, fmt.Sprintf("%s %s has type %s in %s and %s in %s",
			role, m.Column, m.TypeA, res.LabelA, m.TypeB, res.LabelB))
	}
	if s.DuplicatesA > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%s: %d duplicates on id column(s): %s",
			res.LabelA, s.DuplicatesA, strings.Join(res.KeyColumns, ", ")))
	}
	if s.DuplicatesB > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%s: %d duplicates on id column(s): %s",
			res.LabelB, s.DuplicatesB, strings.Join(res.KeyColumns, ", ")))
	}

	v.Sections = append(v.Sections,
		datasetSection(fmt.Sprintf("%d row(s) only in %s", res.OnlyInA.NumRows(), res.LabelA), res.OnlyInA, maxRows),
		datasetSection(fmt.Sprintf("%d row(s) only in %s", res.OnlyInB.NumRows(), res.LabelB), res.OnlyInB, maxRows),
		differenceSection(res, maxRows),
	)
	return v
}

func datasetSection(title string, d *table.Dataset, maxRows int) section {
	sec := section{Title: title, Headers: d.ColumnNames()}
	n := limit(d.NumRows(), maxRows)
	for i := 0; i < n; i++ {
		row := d.Row(i)
		cells := make([]string, len(row))
		for c, val := range row {
			cells[c] = val.String()
		}
		sec.Rows = append(sec.Rows, cells)
	}
	sec.Hidden = d.NumRows() - n
	return sec
}

func differenceSection(res *core.Result, maxRows int) section {
	sec := section{
		Title:   fmt.Sprintf("%d row(s) in both with difference", res.Summary.RowsWithDifferences),
		Headers: []string{strings.Join(res.KeyColumns, ", "), "column", res.LabelA, res.LabelB},
	}
	n := limit(len(res.Differences), maxRows)
	for _, r := range res.Differences[:n] {
		sec.Rows = append(sec.Rows, []string{r.Key.String(), r.Column, r.ValueA.String(), r.ValueB.String()})
	}
	sec.Hidden = len(res.Differences) - n
	return sec
}

func limit(n, maxRows int) int {
	if maxRows > 0 && n > maxRows {
		return maxRows
	}
	return n
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator generates JSON reports holding the full result.
type JSONReportGenerator struct{}

// GenerateReport serializes the result to JSON.
func (j *JSONReportGenerator) GenerateReport(res *core.Result) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}

// SaveReportToFile saves the JSON report to a file.
func (j *JSONReportGenerator) SaveReportToFile(res *core.Result, filePath string) error {
	return saveToFile(j, res, filePath)
}

// ReportFromFilePath loads a result saved as a JSON report.
func ReportFromFilePath(filePath string) (*core.Result, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var res core.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLReportGenerator generates HTML reports.
type HTMLReportGenerator struct {
	MaxRows int
}

// HTML template for the report.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { border-collapse: collapse; margin-top: 10px; }
        th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; }
        th { background-color: #f4f4f4; }
        .warning { color: #b36b00; }
        .muted { color: #777; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    {{if .Empty}}
    <p>No comparison: one or both datasets are missing.</p>
    {{else}}
    <table>
        {{range .Summary}}<tr><th>{{index . 0}}</th><td>{{index . 1}}</td></tr>
        {{end}}
    </table>
    {{range .Warnings}}<p class="warning">{{.}}</p>
    {{end}}
    {{range .Sections}}
    <h2>{{.Title}}</h2>
    {{if .Rows}}
    <table>
        <tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
        {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
        {{end}}
    </table>
    {{if .Hidden}}<p class="muted">{{.Hidden}} more row(s) not shown</p>{{end}}
    {{end}}
    {{end}}
    {{end}}
</body>
</html>
`

var htmlReport = template.Must(template.New("report").Parse(htmlTemplate))

// GenerateReport renders the result as an HTML page.
func (h *HTMLReportGenerator) GenerateReport(res *core.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlReport.Execute(&buf, newView(res, h.MaxRows)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveReportToFile saves the HTML report to a file.
func (h *HTMLReportGenerator) SaveReportToFile(res *core.Result, filePath string) error {
	return saveToFile(h, res, filePath)
}

// -----------------------------
// Markdown Report Generator
// -----------------------------

// MarkdownReportGenerator generates Markdown reports.
type MarkdownReportGenerator struct {
	MaxRows int
}

// GenerateReport renders the result as Markdown.
func (m *MarkdownReportGenerator) GenerateReport(res *core.Result) ([]byte, error) {
	v := newView(res, m.MaxRows)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Title)
	if v.Empty {
		b.WriteString("No comparison: one or both datasets are missing.\n")
		return []byte(b.String()), nil
	}

	writeMarkdownTable(&b, []string{"", ""}, summaryRows(v.Summary))
	for _, w := range v.Warnings {
		fmt.Fprintf(&b, "> **Warning:** %s\n\n", escapeMarkdown(w))
	}
	for _, sec := range v.Sections {
		fmt.Fprintf(&b, "## %s\n\n", sec.Title)
		if len(sec.Rows) == 0 {
			continue
		}
		writeMarkdownTable(&b, sec.Headers, sec.Rows)
		if sec.Hidden > 0 {
			fmt.Fprintf(&b, "_%d more row(s) not shown_\n\n", sec.Hidden)
		}
	}
	return []byte(b.String()), nil
}

// SaveReportToFile saves the Markdown report to a file.
func (m *MarkdownReportGenerator) SaveReportToFile(res *core.Result, filePath string) error {
	return saveToFile(m, res, filePath)
}

func writeMarkdownTable(b *strings.Builder, headers []string, rows [][]string) {
	b.WriteString("|")
	for _, h := range headers {
		fmt.Fprintf(b, " %s |", escapeMarkdown(h))
	}
	b.WriteString("\n|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("|")
		for _, cell := range row {
			fmt.Fprintf(b, " %s |", escapeMarkdown(cell))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func summaryRows(summary [][2]string) [][]string {
	rows := make([][]string, len(summary))
	for i, kv := range summary {
		rows[i] = []string{kv[0], kv[1]}
	}
	return rows
}

// -----------------------------
// Text Report Generator
// -----------------------------

// TextReportGenerator renders reports as terminal tables.
type TextReportGenerator struct {
	MaxRows int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// GenerateReport renders the result as text tables.
func (t *TextReportGenerator) GenerateReport(res *core.Result) ([]byte, error) {
	v := newView(res, t.MaxRows)

	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Title))
	b.WriteString("\n\n")
	if v.Empty {
		b.WriteString("No comparison: one or both datasets are missing.\n")
		return []byte(b.String()), nil
	}

	b.WriteString(renderTable(nil, summaryRows(v.Summary)))
	b.WriteString("\n")
	for _, w := range v.Warnings {
		b.WriteString(warningStyle.Render("! " + w))
		b.WriteString("\n")
	}
	for _, sec := range v.Sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.Title))
		b.WriteString("\n")
		if len(sec.Rows) == 0 {
			continue
		}
		b.WriteString(renderTable(sec.Headers, sec.Rows))
		b.WriteString("\n")
		if sec.Hidden > 0 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("%d more row(s) not shown", sec.Hidden)))
			b.WriteString("\n")
		}
	}
	return []byte(b.String()), nil
}

// SaveReportToFile saves the text report to a file.
func (t *TextReportGenerator) SaveReportToFile(res *core.Result, filePath string) error {
	return saveToFile(t, res, filePath)
}

func renderTable(headers []string, rows [][]string) string {
	tbl := lgtable.New().
		Border(lipgloss.NormalBorder()).
		Rows(rows...)
	if len(headers) > 0 {
		tbl = tbl.Headers(headers...)
	}
	return tbl.Render()
}
