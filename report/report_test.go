package report

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
)

func createTestResult(t *testing.T) *core.Result {
	t.Helper()
	onlyA, err := table.FromRows([]string{"id", "name"}, [][]table.Value{
		{table.Int(1), table.Text("Alice")},
	})
	if err != nil {
		t.Fatal(err)
	}
	onlyB, err := table.FromRows([]string{"id", "name"}, [][]table.Value{
		{table.Int(4), table.Text("Dan|Danny")},
		{table.Int(5), table.Text("Eve")},
	})
	if err != nil {
		t.Fatal(err)
	}
	return &core.Result{
		LabelA:         "a.csv",
		LabelB:         "b.xlsx.[Q2]",
		KeyColumns:     []string{"id"},
		CompareColumns: []string{"amount"},
		OnlyInA:        onlyA,
		OnlyInB:        onlyB,
		Differences: []core.DifferenceRecord{{
			DatasetA:   "a.csv",
			DatasetB:   "b.xlsx.[Q2]",
			KeyColumns: []string{"id"},
			Key:        table.Key{table.Int(5)},
			Column:     "amount",
			ValueA:     table.Int(100),
			ValueB:     table.Int(105),
			Delta:      core.Delta{Value: 5, Valid: true},
		}},
		Summary: core.Summary{
			RowsA:               2,
			RowsB:               3,
			OnlyInA:             1,
			OnlyInB:             2,
			RowsWithDifferences: 1,
			CellDifferences:     1,
			Columns:             map[string]int64{"amount": 1},
			DuplicatesB:         2,
			UncomparedA:         []string{"note", "email"},
		},
	}
}

func TestJSONReportGenerator_GenerateReport(t *testing.T) {
	generator := &JSONReportGenerator{}

	data, err := generator.GenerateReport(createTestResult(t))
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Generated invalid JSON: %v", err)
	}
	if decoded["label_b"] != "b.xlsx.[Q2]" {
		t.Errorf("Expected label_b 'b.xlsx.[Q2]', got %v", decoded["label_b"])
	}
	if strings.Contains(string(data), "Delta") {
		t.Errorf("numeric delta must not be reported: %s", data)
	}
}

func TestJSONReportGenerator_SaveAndLoad(t *testing.T) {
	generator := &JSONReportGenerator{}
	filePath := filepath.Join(t.TempDir(), "report.json")

	if err := generator.SaveReportToFile(createTestResult(t), filePath); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	loaded, err := ReportFromFilePath(filePath)
	if err != nil {
		t.Fatalf("Failed to load report: %v", err)
	}
	if loaded.OnlyInB.NumRows() != 2 {
		t.Errorf("Expected 2 rows only in B, got %d", loaded.OnlyInB.NumRows())
	}
	if len(loaded.Differences) != 1 || !loaded.Differences[0].Key.Equal(table.Key{table.Int(5)}) {
		t.Errorf("Unexpected differences: %+v", loaded.Differences)
	}
}

func TestHTMLReportGenerator_GenerateReport(t *testing.T) {
	generator := &HTMLReportGenerator{}

	data, err := generator.GenerateReport(createTestResult(t))
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	html := string(data)
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Comparison of a.csv and b.xlsx.[Q2]",
		"1 row(s) only in a.csv",
		"2 row(s) only in b.xlsx.[Q2]",
		"1 row(s) in both with difference",
		"2 columns not in comparison: note, email",
		"2 duplicates on id column(s): id",
		"<td>105</td>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML report missing %q", want)
		}
	}
}

func TestMarkdownReportGenerator(t *testing.T) {
	generator := &MarkdownReportGenerator{MaxRows: 1}

	data, err := generator.GenerateReport(createTestResult(t))
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	md := string(data)
	if !strings.HasPrefix(md, "# Comparison of a.csv and b.xlsx.[Q2]\n") {
		t.Errorf("unexpected heading: %q", md)
	}
	if !strings.Contains(md, `| 4 | Dan\|Danny |`) {
		t.Errorf("pipe in cell not escaped:\n%s", md)
	}
	if !strings.Contains(md, "_1 more row(s) not shown_") {
		t.Errorf("row limit note missing:\n%s", md)
	}
	if !strings.Contains(md, "| 5 | amount | 100 | 105 |") {
		t.Errorf("difference row missing:\n%s", md)
	}
}

func TestTextReportGenerator(t *testing.T) {
	generator := &TextReportGenerator{}

	data, err := generator.GenerateReport(createTestResult(t))
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	text := string(data)
	for _, want := range []string{"1 row(s) only in a.csv", "1 row(s) in both with difference", "Alice", "105"} {
		if !strings.Contains(text, want) {
			t.Errorf("text report missing %q:\n%s", want, text)
		}
	}
}

func TestEmptyResult(t *testing.T) {
	res := &core.Result{LabelA: "a", LabelB: "b", Empty: true}
	for _, format := range []string{"text", "markdown", "html"} {
		gen, err := New(format, 0)
		if err != nil {
			t.Fatalf("New(%s): %v", format, err)
		}
		data, err := gen.GenerateReport(res)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !strings.Contains(string(data), "No comparison") {
			t.Errorf("%s report should state that no comparison ran", format)
		}
	}
}

func TestNewReporter(t *testing.T) {
	if _, err := New("pdf", 0); err == nil {
		t.Fatal("expected an error for an unknown format")
	}

	rep, err := NewReporter("markdown", 0)
	if err != nil {
		t.Fatal(err)
	}
	r, err := rep.Report(context.Background(), createTestResult(t))
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "2 row(s) only in b.xlsx.[Q2]") {
		t.Errorf("unexpected report:\n%s", data)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rep.Report(ctx, createTestResult(t)); err == nil {
		t.Error("expected an error for a canceled context")
	}
}
