package readers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/xuri/excelize/v2"
)

// XLSXReader implements a reader for one worksheet of an Excel workbook.
// The first row holds the column names. Cells are read unformatted and
// typed per column the same way as CSV.
type XLSXReader struct {
	batchReader
	sheet string
}

// NewXLSXReader creates a reader for config.Sheet, or the first sheet of the
// workbook when no sheet is named.
func NewXLSXReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for XLSX reader")
	}

	wb, err := excelize.OpenFile(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	sheet, err := pickSheet(wb.GetSheetList(), config.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.Path, err)
	}

	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	alloc := memory.NewGoAllocator()
	rec, err := sheetRecord(alloc, rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	r := &XLSXReader{sheet: sheet}
	r.alloc = alloc
	r.schema = rec.Schema()
	r.next = single(rec)
	r.onClose(func() error {
		rec.Release()
		return nil
	})
	return r, nil
}

// Sheet returns the name of the worksheet being read.
func (r *XLSXReader) Sheet() string {
	return r.sheet
}

// SheetNames lists the worksheets of the workbook at path in order.
func SheetNames(path string) ([]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()
	return wb.GetSheetList(), nil
}

func pickSheet(sheets []string, want string) (string, error) {
	if len(sheets) == 0 {
		return "", errors.New("workbook has no sheets")
	}
	if want == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == want {
			return s, nil
		}
	}
	return "", fmt.Errorf("worksheet %q not found, available: %s", want, strings.Join(sheets, ", "))
}

// sheetRecord builds a typed record from worksheet rows. Short rows are
// padded with missing values and header cells are named by headerNames.
func sheetRecord(alloc memory.Allocator, rows [][]string) (arrow.Record, error) {
	if len(rows) == 0 {
		return nil, errors.New("no columns to parse from sheet")
	}

	header := rows[0]
	width := len(header)
	for _, row := range rows[1:] {
		width = max(width, len(row))
	}

	names := headerNames(header, width)
	fields := make([]arrow.Field, width)
	for i := range names {
		fields[i] = arrow.Field{Name: names[i], Type: arrow.BinaryTypes.String, Nullable: true}
	}

	cols := make([]arrow.Array, width)
	defer func() {
		for _, col := range cols {
			if col != nil {
				col.Release()
			}
		}
	}()
	for c := 0; c < width; c++ {
		b := array.NewStringBuilder(alloc)
		for _, row := range rows[1:] {
			if c >= len(row) || isNullString(row[c]) {
				b.AppendNull()
				continue
			}
			b.Append(row[c])
		}
		cols[c] = b.NewArray()
		b.Release()
	}

	text := array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(len(rows)-1))
	defer text.Release()
	return typeTextRecord(alloc, text, names), nil
}
