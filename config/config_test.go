package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobYAML = `
left:
  path: data/a.csv
right:
  path: data/b.xlsx
  sheet: Q2
keys: [id, region]
compare: [amount]
tolerance: 0.001
parallel: true
output:
  dir: out
  format: parquet
report:
  format: markdown
`

func writeJob(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeJob(t, jobYAML))
	require.NoError(t, err)

	assert.Equal(t, "data/a.csv", cfg.Left.Path)
	assert.Equal(t, "Q2", cfg.Right.Sheet)
	assert.Equal(t, []string{"id", "region"}, cfg.Keys)
	assert.Equal(t, []string{"amount"}, cfg.Compare)
	assert.InDelta(t, 0.001, cfg.Tolerance, 1e-12)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.Equal(t, "markdown", cfg.Report.Format)

	// defaults fill what the file leaves out
	assert.Equal(t, 20, cfg.Report.MaxRows)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.LogLevel)

	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("KEYDIFF_TOLERANCE", "0.5")
	t.Setenv("KEYDIFF_OUTPUT_FORMAT", "json")

	cfg, err := LoadConfig(writeJob(t, jobYAML))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cfg.Tolerance, 1e-12)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "text", cfg.Report.Format)
	assert.Empty(t, cfg.Keys)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Left:   SourceConfig{Path: "a.csv"},
			Right:  SourceConfig{Path: "b.parquet"},
			Keys:   []string{"id"},
			Output: OutputConfig{Dir: "out", Format: "csv"},
			Report: ReportConfig{Format: "text"},
		}
	}
	assert.NoError(t, ValidateConfig(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing left path", func(c *Config) { c.Left.Path = "" }},
		{"unknown right type", func(c *Config) { c.Right.Type = "orc" }},
		{"duckdb without query", func(c *Config) { c.Right = SourceConfig{Path: "w.duckdb"} }},
		{"no keys", func(c *Config) { c.Keys = nil }},
		{"blank key", func(c *Config) { c.Keys = []string{" "} }},
		{"negative tolerance", func(c *Config) { c.Tolerance = -1 }},
		{"bad output format", func(c *Config) { c.Output.Format = "xml" }},
		{"bad report format", func(c *Config) { c.Report.Format = "pdf" }},
		{"negative max rows", func(c *Config) { c.Report.MaxRows = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

func TestSourceConfigValidate(t *testing.T) {
	src := SourceConfig{Path: "w.duckdb", Table: "orders"}
	assert.NoError(t, src.Validate())

	// an output directory is optional, so no format check applies without one
	out := OutputConfig{Format: "xml"}
	assert.NoError(t, out.Validate())
}

func TestConversions(t *testing.T) {
	cfg := &Config{
		Left:      SourceConfig{Path: "a.xlsx", Sheet: "S", Driver: "/lib/x.so"},
		Keys:      []string{"id"},
		Compare:   []string{"v"},
		Tolerance: 0.1,
		Parallel:  true,
	}
	rc := cfg.Left.ReaderConfig()
	assert.Equal(t, "a.xlsx", rc.Path)
	assert.Equal(t, "S", rc.Sheet)
	assert.Equal(t, "/lib/x.so", rc.DriverPath)

	opts := cfg.CompareOptions("a", "b")
	assert.Equal(t, "a", opts.LabelA)
	assert.Equal(t, []string{"id"}, opts.KeyColumns)
	assert.Equal(t, []string{"v"}, opts.CompareColumns)
	assert.True(t, opts.Parallel)
}
