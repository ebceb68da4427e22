package readers

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// CSVReader implements a reader for CSV files with a header row.
//
// The file is read whole on open. Column types are inferred over every
// row: a column becomes int64, float64 or bool when all of its present
// values parse as such, and string otherwise.
type CSVReader struct {
	batchReader
}

// NewCSVReader creates a new CSV reader.
func NewCSVReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV reader")
	}

	// Open the file
	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	alloc := memory.NewGoAllocator()
	rec, err := readCSV(file, alloc, config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file %s: %w", config.Path, err)
	}

	r := &CSVReader{}
	r.alloc = alloc
	r.schema = rec.Schema()
	r.next = single(rec)
	r.onClose(func() error {
		rec.Release()
		return nil
	})
	return r, nil
}

// readCSV reads every row of src as text, then types the columns.
func readCSV(src io.ReadSeeker, alloc memory.Allocator, batchSize int64) (arrow.Record, error) {
	header, err := stdcsv.NewReader(src).Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("no columns to parse from file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	names := headerNames(header, len(header))
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	// Set default chunk size if not specified
	chunkSize := batchSize
	if chunkSize <= 0 {
		chunkSize = 10000
	}

	reader := csv.NewReader(
		src,
		schema,
		csv.WithChunk(int(chunkSize)),
		csv.WithHeader(true),
		csv.WithNullReader(true, nullStrings...),
		csv.WithAllocator(alloc),
	)
	defer reader.Release()

	var records []arrow.Record
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}

	text, err := concatRecords(alloc, schema, records)
	if err != nil {
		return nil, err
	}
	defer text.Release()

	return typeTextRecord(alloc, text, names), nil
}
