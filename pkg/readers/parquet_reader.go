package readers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ParquetReader implements a reader for Parquet files.
type ParquetReader struct {
	batchReader
	totalRows int64
}

// NewParquetReader creates a new Parquet reader.
func NewParquetReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet reader")
	}

	// Set default batch size if not specified
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 10000
	}

	// Open the file
	f, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}

	// Closing the parquet reader closes f as well
	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Parquet file reader: %w", err)
	}

	alloc := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: batchSize,
	}, alloc)
	if err != nil {
		parquetReader.Close()
		return nil, fmt.Errorf("failed to create Arrow reader: %w", err)
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		parquetReader.Close()
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	records, err := arrowReader.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		parquetReader.Close()
		return nil, fmt.Errorf("failed to create record reader: %w", err)
	}

	r := &ParquetReader{totalRows: parquetReader.NumRows()}
	r.alloc = alloc
	r.schema = schema
	r.next = iterate(records)
	r.onClose(parquetReader.Close)
	r.onClose(func() error {
		records.Release()
		return nil
	})
	return r, nil
}

// NumRows returns the row count recorded in the file footer.
func (r *ParquetReader) NumRows() int64 {
	return r.totalRows
}
