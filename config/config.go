package config

import (
	"fmt"
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/readers"
	"github.com/TFMV/keydiff/pkg/writers"
	"github.com/TFMV/keydiff/report"
	"github.com/spf13/viper"
)

// --- Configuration Structs ---

// SourceConfig describes one side of a comparison.
type SourceConfig struct {
	Path   string `mapstructure:"path"`
	Type   string `mapstructure:"type"`
	Sheet  string `mapstructure:"sheet"`
	Query  string `mapstructure:"query"`
	Table  string `mapstructure:"table"`
	Driver string `mapstructure:"driver"`
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

type ReportConfig struct {
	Format  string `mapstructure:"format"`
	File    string `mapstructure:"file"`
	MaxRows int    `mapstructure:"max_rows"`
}

type ServerConfig struct {
	Port    int  `mapstructure:"port"`
	Prefork bool `mapstructure:"prefork"`
}

// Config is a comparison job.
type Config struct {
	Left      SourceConfig `mapstructure:"left"`
	Right     SourceConfig `mapstructure:"right"`
	Keys      []string     `mapstructure:"keys"`
	Compare   []string     `mapstructure:"compare"`
	Tolerance float64      `mapstructure:"tolerance"`
	Parallel  bool         `mapstructure:"parallel"`
	Output    OutputConfig `mapstructure:"output"`
	Report    ReportConfig `mapstructure:"report"`
	Server    ServerConfig `mapstructure:"server"`
	LogLevel  string       `mapstructure:"log_level"`
}

// EnvPrefix prefixes environment overrides, e.g. KEYDIFF_TOLERANCE or
// KEYDIFF_OUTPUT_DIR.
const EnvPrefix = "KEYDIFF"

var defaults = map[string]any{
	"left.path":       "",
	"left.type":       "",
	"left.sheet":      "",
	"left.query":      "",
	"left.table":      "",
	"left.driver":     "",
	"right.path":      "",
	"right.type":      "",
	"right.sheet":     "",
	"right.query":     "",
	"right.table":     "",
	"right.driver":    "",
	"keys":            []string{},
	"compare":         []string{},
	"tolerance":       0.0,
	"parallel":        false,
	"output.dir":      "",
	"output.format":   "csv",
	"report.format":   "text",
	"report.file":     "",
	"report.max_rows": 20,
	"server.port":     8080,
	"server.prefork":  false,
	"log_level":       "info",
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// --- Load Configuration ---

// Default returns the configuration built from defaults and environment
// overrides only.
func Default() (*Config, error) {
	var cfg Config
	if err := newViper().Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads a YAML job file. Environment variables override file
// values.
func LoadConfig(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ReaderConfig converts a source into the reader configuration used to
// load it.
func (s SourceConfig) ReaderConfig() core.ReaderConfig {
	return core.ReaderConfig{
		Type:       s.Type,
		Path:       s.Path,
		Sheet:      s.Sheet,
		Table:      s.Table,
		Query:      s.Query,
		DriverPath: s.Driver,
	}
}

// CompareOptions converts the job into comparison options.
func (c *Config) CompareOptions(labelA, labelB string) core.CompareOptions {
	return core.CompareOptions{
		LabelA:         labelA,
		LabelB:         labelB,
		KeyColumns:     c.Keys,
		CompareColumns: c.Compare,
		Tolerance:      c.Tolerance,
		Parallel:       c.Parallel,
	}
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Left.Validate(); err != nil {
		return fmt.Errorf("left validation failed: %w", err)
	}
	if err := c.Right.Validate(); err != nil {
		return fmt.Errorf("right validation failed: %w", err)
	}
	if err := validate(len(c.Keys) > 0, "at least one key column is required"); err != nil {
		return err
	}
	for _, k := range c.Keys {
		if err := validate(strings.TrimSpace(k) != "", "key column names must not be blank"); err != nil {
			return err
		}
	}
	if err := validate(c.Tolerance >= 0, "tolerance must not be negative, got %v", c.Tolerance); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output configuration error: %w", err)
	}
	return c.Report.Validate()
}

func (s *SourceConfig) Validate() error {
	if err := validate(s.Path != "", "path is required"); err != nil {
		return err
	}
	typ := s.Type
	if typ == "" {
		typ = readers.DetectType(s.Path)
	}
	if err := validate(readers.DefaultFactory.Supports(typ), "unsupported source type %q", typ); err != nil {
		return err
	}
	if readers.IsQuerySource(typ) {
		return validate(s.Query != "" || s.Table != "", "%s sources need a query or a table", typ)
	}
	return nil
}

func (o *OutputConfig) Validate() error {
	if o.Dir == "" {
		return nil
	}
	return validate(writers.DefaultFactory.Supports(o.Format), "unsupported output format %q", o.Format)
}

func (r *ReportConfig) Validate() error {
	if _, err := report.New(r.Format, r.MaxRows); err != nil {
		return err
	}
	return validate(r.MaxRows >= 0, "report max_rows must not be negative")
}

// ValidateConfig validates a complete job.
func ValidateConfig(cfg *Config) error {
	return cfg.Validate()
}
