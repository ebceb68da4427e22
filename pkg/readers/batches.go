package readers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// batchReader serves record batches pulled from next. Records returned by
// Read belong to the reader and stay valid until the following Read or
// Close; callers Retain what they keep.
type batchReader struct {
	schema  *arrow.Schema
	alloc   memory.Allocator
	next    func(ctx context.Context) (arrow.Record, error)
	closers []func() error
	closed  bool
}

// Read returns the next batch of records, or io.EOF when exhausted.
func (r *batchReader) Read(ctx context.Context) (arrow.Record, error) {
	// Check if context is canceled
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.closed || r.next == nil {
		return nil, io.EOF
	}
	return r.next(ctx)
}

// ReadAll drains the remaining batches into one record. The caller must
// Release it. An exhausted reader yields a record with no rows.
func (r *batchReader) ReadAll(ctx context.Context) (arrow.Record, error) {
	var records []arrow.Record
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	for {
		rec, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec.Retain()
		records = append(records, rec)
	}

	return concatRecords(r.alloc, r.schema, records)
}

// Schema returns the schema of the dataset.
func (r *batchReader) Schema() *arrow.Schema {
	return r.schema
}

// Close releases the reader's resources in reverse order of acquisition.
func (r *batchReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// onClose registers fn to run when the reader is closed.
func (r *batchReader) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

// single yields rec once, then io.EOF.
func single(rec arrow.Record) func(context.Context) (arrow.Record, error) {
	done := false
	return func(context.Context) (arrow.Record, error) {
		if done {
			return nil, io.EOF
		}
		done = true
		return rec, nil
	}
}

// iterate adapts an array.RecordReader to a next function.
func iterate(rr array.RecordReader) func(context.Context) (arrow.Record, error) {
	return func(context.Context) (arrow.Record, error) {
		if rr.Next() {
			return rr.Record(), nil
		}
		if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, io.EOF
	}
}

// concatRecords joins batches sharing schema into a single record owned by
// the caller.
func concatRecords(alloc memory.Allocator, schema *arrow.Schema, records []arrow.Record) (arrow.Record, error) {
	if schema == nil {
		if len(records) == 0 {
			return nil, io.EOF
		}
		schema = records[0].Schema()
	}
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}

	if len(records) == 1 {
		records[0].Retain()
		return records[0], nil
	}

	var rows int64
	for _, rec := range records {
		rows += rec.NumRows()
	}

	cols := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, col := range cols {
			if col != nil {
				col.Release()
			}
		}
	}()

	for c := range cols {
		if len(records) == 0 {
			cols[c] = array.MakeArrayOfNull(alloc, schema.Field(c).Type, 0)
			continue
		}
		chunks := make([]arrow.Array, len(records))
		for i, rec := range records {
			chunks[i] = rec.Column(c)
		}
		arr, err := array.Concatenate(chunks, alloc)
		if err != nil {
			return nil, fmt.Errorf("failed to combine column %q: %w", schema.Field(c).Name, err)
		}
		cols[c] = arr
	}

	return array.NewRecord(schema, cols, rows), nil
}
