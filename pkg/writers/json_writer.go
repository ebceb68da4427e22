package writers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/apache/arrow-go/v18/arrow"
)

// JSONWriter implements a writer for JSON files. The file holds one array
// with an object per row; object keys follow the column order.
type JSONWriter struct {
	file     *os.File
	firstRow bool
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for JSON writer")
	}

	// Create file
	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON file: %w", err)
	}

	// Write opening bracket for array
	if _, err := file.WriteString("["); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write opening bracket: %w", err)
	}

	return &JSONWriter{
		file:     file,
		firstRow: true,
	}, nil
}

// Write writes a record to the file.
func (w *JSONWriter) Write(ctx context.Context, record arrow.Record) error {
	// Check if context is canceled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ds, err := table.FromRecord(record)
	if err != nil {
		return fmt.Errorf("failed to convert record: %w", err)
	}
	names := ds.ColumnNames()

	for i := 0; i < ds.NumRows(); i++ {
		row, err := marshalRow(names, ds.Row(i))
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}

		sep := ",\n  "
		if w.firstRow {
			sep = "\n  "
			w.firstRow = false
		}
		if _, err := w.file.WriteString(sep); err != nil {
			return fmt.Errorf("failed to write separator: %w", err)
		}
		if _, err := w.file.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

// marshalRow encodes one row as a JSON object with keys in column order.
func marshalRow(names []string, values []table.Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := values[i].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Close closes the writer and flushes any pending data.
func (w *JSONWriter) Close() error {
	if w.file == nil {
		return nil
	}

	closing := "\n]\n"
	if w.firstRow {
		closing = "]\n"
	}
	_, err := w.file.WriteString(closing)

	// Close the file
	if closeErr := w.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	w.file = nil
	return err
}
