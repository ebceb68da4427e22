// Package core provides the core types and interfaces for the keydiff dataset comparison tool.
package core

import (
	"context"
	"io"

	"github.com/TFMV/keydiff/pkg/schema"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/apache/arrow-go/v18/arrow"
)

// DatasetReader defines an interface for reading data from various sources.
type DatasetReader interface {
	// Read returns a record batch and an error if any.
	// Returns io.EOF when there are no more batches.
	Read(ctx context.Context) (arrow.Record, error)

	// Schema returns the schema of the dataset.
	Schema() *arrow.Schema

	// Close closes the reader and releases resources.
	Close() error
}

// DatasetWriter defines an interface for writing data to various destinations.
type DatasetWriter interface {
	// Write writes a record to the destination.
	Write(ctx context.Context, record arrow.Record) error

	// Close closes the writer and flushes any pending data.
	Close() error
}

// Delta is the absolute numeric difference between two cell values.
// Valid is false when either value is not numeric.
type Delta struct {
	Value float64
	Valid bool
}

// DifferenceRecord describes one cell that differs between two rows sharing
// a key.
type DifferenceRecord struct {
	DatasetA   string      `json:"dataset_a_label"`
	DatasetB   string      `json:"dataset_b_label"`
	KeyColumns []string    `json:"key_column_names"`
	Key        table.Key   `json:"key_value"`
	Column     string      `json:"column_name"`
	ValueA     table.Value `json:"value_a"`
	ValueB     table.Value `json:"value_b"`

	// Delta is |ValueA-ValueB| for numeric pairs. It is computed for every
	// record but is not part of the emitted record shape: it is never
	// serialized, written or reported.
	Delta Delta `json:"-"`
}

// Summary aggregates a comparison.
type Summary struct {
	// RowsA and RowsB are the row counts of the two inputs.
	RowsA int64 `json:"rows_a"`
	RowsB int64 `json:"rows_b"`

	// OnlyInA and OnlyInB count rows whose key is absent from the other side.
	OnlyInA int64 `json:"only_in_a"`
	OnlyInB int64 `json:"only_in_b"`

	// RowsWithDifferences is the number of distinct keys with at least one
	// differing cell.
	RowsWithDifferences int64 `json:"rows_with_differences"`

	// CellDifferences is the number of difference records.
	CellDifferences int64 `json:"cell_differences"`

	// Columns maps a compared column to its number of differing cells.
	Columns map[string]int64 `json:"columns"`

	// DuplicatesA and DuplicatesB count rows whose key occurs more than once.
	DuplicatesA int64 `json:"duplicates_a"`
	DuplicatesB int64 `json:"duplicates_b"`

	// UncomparedA and UncomparedB list columns neither keyed nor compared.
	UncomparedA []string `json:"uncompared_a"`
	UncomparedB []string `json:"uncompared_b"`

	// TypeMismatches lists key and compared columns whose types differ
	// between the datasets.
	TypeMismatches []schema.Mismatch `json:"type_mismatches"`
}

// Result is the outcome of one comparison.
type Result struct {
	LabelA         string   `json:"label_a"`
	LabelB         string   `json:"label_b"`
	KeyColumns     []string `json:"key_columns"`
	CompareColumns []string `json:"compare_columns"`

	// Empty is set when either input was absent. No rows or differences are
	// reported in that case, which is distinct from a comparison that found
	// nothing.
	Empty bool `json:"empty"`

	// OnlyInA holds the rows of A whose key is not in B; OnlyInB the reverse.
	OnlyInA *table.Dataset `json:"only_in_a"`
	OnlyInB *table.Dataset `json:"only_in_b"`

	// Differences holds one record per (key, differing column).
	Differences []DifferenceRecord `json:"differences"`

	Summary Summary `json:"summary"`
}

// CompareOptions provides options for a comparison.
type CompareOptions struct {
	// LabelA and LabelB name the datasets in difference records.
	LabelA string
	LabelB string

	// KeyColumns specifies the columns used to align rows. Required.
	KeyColumns []string

	// CompareColumns specifies the columns whose values are compared. When
	// empty every common non-key column is compared.
	CompareColumns []string

	// Tolerance is the relative tolerance for floating point comparisons.
	// Zero means exact equality.
	Tolerance float64

	// Parallel aligns both datasets concurrently.
	Parallel bool
}

// ReaderConfig provides configuration for creating a reader.
type ReaderConfig struct {
	// Type is the type of the reader.
	Type string

	// Path is the path to the file or directory.
	Path string

	// Sheet selects a worksheet for spreadsheet readers. Empty selects the first.
	Sheet string

	// ConnectionString is the connection string for a database.
	ConnectionString string

	// DriverPath is the location of a native ADBC driver library.
	DriverPath string

	// Table is the table name for a database.
	Table string

	// Query is the query to execute for a database.
	Query string

	// BatchSize is the size of batches to read.
	BatchSize int64
}

// WriterConfig provides configuration for creating a writer.
type WriterConfig struct {
	// Type is the type of the writer.
	Type string

	// Path is the path to the file.
	Path string
}

// Differ defines an interface for computing differences between datasets.
type Differ interface {
	// Diff computes the difference between two datasets.
	Diff(ctx context.Context, source, target DatasetReader, options CompareOptions) (*Result, error)
}

// Reporter defines an interface for generating reports from comparison results.
type Reporter interface {
	// Report generates a report from a comparison result.
	Report(ctx context.Context, result *Result) (io.Reader, error)
}
