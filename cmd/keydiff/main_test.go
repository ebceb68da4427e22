package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TFMV/keydiff/config"
	"github.com/TFMV/keydiff/logger"
	"github.com/TFMV/keydiff/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the root command with file logging disabled.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(logger.ResetLogger)

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--log-file", ""}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func fixtures(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "id,name,amount,note\n1,Alice,10,x\n2,Bob,20,y\n3,Carol,30,z\n")
	b := writeFile(t, dir, "b.csv", "id,name,amount\n2,Bob,25\n3,Carol,30\n4,Dan,40\n")
	return dir, a, b
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "keydiff "), out)
}

func TestDiffCommandTextReport(t *testing.T) {
	_, a, b := fixtures(t)

	out, err := run(t, "diff", a, b, "--key", "id")
	require.NoError(t, err)

	assert.Contains(t, out, "Comparison of a.csv and b.csv")
	assert.Contains(t, out, "1 row(s) only in a.csv")
	assert.Contains(t, out, "1 row(s) only in b.csv")
	assert.Contains(t, out, "1 row(s) in both with difference")
	assert.Contains(t, out, "a.csv: 1 columns not in comparison: note")
}

func TestDiffCommandOutputsAndMetrics(t *testing.T) {
	dir, a, b := fixtures(t)
	outDir := filepath.Join(dir, "out")
	metricsPath := filepath.Join(dir, "run.json")
	reportPath := filepath.Join(dir, "report.md")

	out, err := run(t, "diff", a, b,
		"-k", "id", "--compare", "name,amount",
		"--output", outDir, "--format", "csv",
		"--report", "markdown", "--report-file", reportPath,
		"--metrics", metricsPath)
	require.NoError(t, err)
	assert.Empty(t, out, "report goes to the file, not stdout")

	for _, name := range []string{"only_in_a.csv", "only_in_b.csv", "differences.csv"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	data, err := os.ReadFile(filepath.Join(outDir, "differences.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "amount")

	md, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Comparison of a.csv and b.csv"))

	run2, err := metrics.Load(metricsPath)
	require.NoError(t, err)
	assert.NotEmpty(t, run2.Run.RunID)
	assert.Equal(t, int64(1), run2.ValueResult.CellDifferences)
	assert.Equal(t, int64(1), run2.RowCountResult.OnlyInA)
	assert.False(t, run2.Passed())
}

func TestDiffCommandFailOnDiff(t *testing.T) {
	_, a, b := fixtures(t)

	_, err := run(t, "diff", a, b, "--key", "id", "--fail-on-diff")
	assert.ErrorIs(t, err, errDifferences)

	_, err = run(t, "diff", a, a, "--key", "id", "--fail-on-diff")
	assert.NoError(t, err)
}

func TestDiffCommandErrors(t *testing.T) {
	dir, a, b := fixtures(t)

	_, err := run(t, "diff", a, b)
	assert.ErrorContains(t, err, "key column")

	_, err = run(t, "diff", a, b, "--key", "missing")
	assert.ErrorContains(t, err, "missing")

	_, err = run(t, "diff", a, filepath.Join(dir, "nope.csv"), "--key", "id")
	assert.Error(t, err)

	_, err = run(t, "diff", a, b, "--key", "id", "--report", "pdf")
	assert.Error(t, err)
}

func TestDiffCommandConfigFile(t *testing.T) {
	dir, a, b := fixtures(t)
	job := writeFile(t, dir, "job.yaml", "left:\n  path: "+a+"\nright:\n  path: "+b+"\nkeys: [id]\ncompare: [name]\nreport:\n  format: json\n")

	out, err := run(t, "diff", "--config", job)
	require.NoError(t, err)
	assert.Contains(t, out, `"label_a": "a.csv"`)
	assert.Contains(t, out, `"cell_differences": 0`)

	// flags override the job file
	out, err = run(t, "diff", "--config", job, "--compare", "amount")
	require.NoError(t, err)
	assert.Contains(t, out, `"cell_differences": 1`)
}

func writeBook(t *testing.T, dir string) string {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]interface{}{"id", "v"}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &[]interface{}{1, 10}))
	_, err := wb.NewSheet("Q2")
	require.NoError(t, err)
	require.NoError(t, wb.SetSheetRow("Q2", "A1", &[]interface{}{"id", "v"}))
	require.NoError(t, wb.SetSheetRow("Q2", "A2", &[]interface{}{1, 11}))
	path := filepath.Join(dir, "book.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

func TestDiffCommandSheets(t *testing.T) {
	book := writeBook(t, t.TempDir())

	out, err := run(t, "diff", book, book, "--sheet-b", "Q2", "--key", "id", "--report", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"label_a": "book.xlsx.[Sheet1]"`)
	assert.Contains(t, out, `"label_b": "book.xlsx.[Q2]"`)
	assert.Contains(t, out, `"cell_differences": 1`)
}

func TestSheetsCommand(t *testing.T) {
	dir := t.TempDir()
	book := writeBook(t, dir)

	out, err := run(t, "sheets", book)
	require.NoError(t, err)
	assert.Equal(t, "Sheet1\nQ2\n", out)

	_, err = run(t, "sheets", writeFile(t, dir, "x.csv", "a\n"))
	assert.Error(t, err)
}

func TestColumnsCommand(t *testing.T) {
	_, a, b := fixtures(t)

	out, err := run(t, "columns", a, b)
	require.NoError(t, err)
	assert.Equal(t, "amount\nid\nname\n", out)
}

func TestSameSource(t *testing.T) {
	dir := t.TempDir()
	book := writeBook(t, dir)
	_, a, b := fixtures(t)

	assert.True(t, sameSource(srcOf(a, ""), srcOf(a, "")))
	assert.False(t, sameSource(srcOf(a, ""), srcOf(b, "")))
	assert.True(t, sameSource(srcOf(book, ""), srcOf(book, "Sheet1")))
	assert.False(t, sameSource(srcOf(book, ""), srcOf(book, "Q2")))
}

func srcOf(path, sheet string) config.SourceConfig {
	return config.SourceConfig{Path: path, Sheet: sheet}
}

func TestSchemaCommand(t *testing.T) {
	dir, a, b := fixtures(t)

	out, err := run(t, "schema", a, b, "--key", "id")
	require.NoError(t, err)
	assert.Contains(t, out, "  amount: int64 NULL\n")
	assert.Contains(t, out, "Fields only in a.csv: note")
	assert.Contains(t, out, "None")

	c := writeFile(t, dir, "c.csv", "id,name,amount\nx1,Bob,25\n")
	out, err = run(t, "schema", a, c, "--key", "id")
	assert.Error(t, err)
	assert.Contains(t, out, "key column id: int64 vs utf8")

	_, err = run(t, "schema", a, b, "--level", "loose")
	assert.Error(t, err)
}
