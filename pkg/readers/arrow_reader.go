package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowReader implements a reader for Arrow IPC data. Files in the random
// access file format are read through the footer; anything else is read as
// an IPC stream.
type ArrowReader struct {
	batchReader
	stream bool
}

// NewArrowReader creates a new Arrow IPC reader.
func NewArrowReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow reader")
	}

	f, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Arrow file: %w", err)
	}

	alloc := memory.NewGoAllocator()
	r := &ArrowReader{}
	r.alloc = alloc
	r.onClose(f.Close)

	fileReader, err := ipc.NewFileReader(f, ipc.WithAllocator(alloc))
	if err == nil {
		r.schema = fileReader.Schema()
		r.next = func(context.Context) (arrow.Record, error) {
			return fileReader.Read()
		}
		r.onClose(fileReader.Close)
		return r, nil
	}

	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rewind Arrow file: %w", serr)
	}
	streamReader, serr := ipc.NewReader(f, ipc.WithAllocator(alloc))
	if serr != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Arrow reader: %w", errors.Join(err, serr))
	}
	r.stream = true
	r.schema = streamReader.Schema()
	r.next = iterate(streamReader)
	r.onClose(func() error {
		streamReader.Release()
		return nil
	})
	return r, nil
}

// IsStream reports whether the data was read in the IPC stream format.
func (r *ArrowReader) IsStream() bool {
	return r.stream
}
