// Package readers provides implementations of dataset readers for various data sources.
package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/apache/arrow-go/v18/arrow"
)

// Factory creates a reader based on the given configuration.
type Factory struct {
	// registered readers by type
	readers map[string]Creator
}

// Creator is a function that creates a reader from a configuration.
type Creator func(config core.ReaderConfig) (core.DatasetReader, error)

// NewFactory creates a new reader factory.
func NewFactory() *Factory {
	return &Factory{
		readers: make(map[string]Creator),
	}
}

// Register registers a creator for a reader type.
func (f *Factory) Register(typ string, creator Creator) {
	f.readers[typ] = creator
}

// Create creates a reader based on the given configuration. An empty type
// is detected from the path's extension.
func (f *Factory) Create(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Type == "" {
		config.Type = DetectType(config.Path)
	}
	creator, ok := f.readers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported reader type: %q", config.Type)
	}
	return creator(config)
}

// Types returns the registered reader types.
func (f *Factory) Types() []string {
	out := make([]string, 0, len(f.readers))
	for typ := range f.readers {
		out = append(out, typ)
	}
	return out
}

// Supports reports whether a reader is registered for typ.
func (f *Factory) Supports(typ string) bool {
	_, ok := f.readers[typ]
	return ok
}

// DefaultFactory is the default reader factory with built-in reader types.
var DefaultFactory = NewFactory()

// init registers built-in reader types.
func init() {
	DefaultFactory.Register("csv", NewCSVReader)
	DefaultFactory.Register("parquet", NewParquetReader)
	DefaultFactory.Register("arrow", NewArrowReader)
	DefaultFactory.Register("xlsx", NewXLSXReader)
	DefaultFactory.Register("duckdb", NewDuckDBReader)
	DefaultFactory.Register("postgres", NewPostgresReader)
}

// DetectType maps a file extension to a reader type. PostgreSQL URIs map
// to "postgres" and unknown extensions map to "csv".
func DetectType(path string) string {
	if IsDatabaseURI(path) {
		return "postgres"
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return "parquet"
	case ".arrow", ".ipc", ".feather", ".arrows":
		return "arrow"
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".duckdb", ".db":
		return "duckdb"
	default:
		return "csv"
	}
}

// IsDatabaseURI reports whether path is a PostgreSQL connection URI.
func IsDatabaseURI(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}

// IsQuerySource reports whether readers of typ need a query or a table.
func IsQuerySource(typ string) bool {
	return typ == "duckdb" || typ == "postgres"
}

// IsSpreadsheet reports whether path names a workbook with selectable sheets.
func IsSpreadsheet(path string) bool {
	return DetectType(path) == "xlsx"
}

// Label names a dataset in reports: the file name, followed by the sheet
// in brackets for workbooks with more than one sheet. An empty sheet
// resolves to the first one.
func Label(path, sheet string) string {
	if IsDatabaseURI(path) {
		if u, err := url.Parse(path); err == nil {
			return u.Host + u.Path
		}
		return "postgres"
	}
	name := filepath.Base(path)
	if !IsSpreadsheet(path) {
		return name
	}
	sheets, err := SheetNames(path)
	if err != nil || len(sheets) < 2 {
		return name
	}
	if sheet == "" {
		sheet = sheets[0]
	}
	return fmt.Sprintf("%s.[%s]", name, sheet)
}

// Load reads the dataset described by config in full.
func Load(ctx context.Context, config core.ReaderConfig) (*table.Dataset, error) {
	return DefaultFactory.Load(ctx, config)
}

// Load reads the dataset described by config in full.
func (f *Factory) Load(ctx context.Context, config core.ReaderConfig) (*table.Dataset, error) {
	reader, err := f.Create(config)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	all, ok := reader.(interface {
		ReadAll(context.Context) (arrow.Record, error)
	})
	if !ok {
		return nil, fmt.Errorf("reader type %q cannot load a full dataset", config.Type)
	}

	rec, err := all.ReadAll(ctx)
	if errors.Is(err, io.EOF) {
		return table.FromRecords(reader.Schema(), nil)
	}
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return table.FromRecord(rec)
}
