package writers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/diff"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Result file base names inside an output directory.
const (
	OnlyInAName      = "only_in_a"
	OnlyInBName      = "only_in_b"
	DifferencesName  = "differences"
	defaultExtension = "csv"
)

// WriteDataset writes d to the destination described by config.
func WriteDataset(ctx context.Context, config core.WriterConfig, d *table.Dataset) error {
	if d == nil {
		return errors.New("no dataset to write")
	}
	w, err := DefaultFactory.Create(config)
	if err != nil {
		return err
	}

	rec := table.ToRecord(memory.NewGoAllocator(), d)
	defer rec.Release()

	if err := w.Write(ctx, rec); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// WriteResult writes the three parts of a comparison into dir as
// only_in_a.<format>, only_in_b.<format> and differences.<format>, and
// returns the paths written. An empty result writes nothing.
func WriteResult(ctx context.Context, dir, format string, res *core.Result) ([]string, error) {
	if res == nil || res.Empty {
		return nil, nil
	}
	if format == "" {
		format = defaultExtension
	}
	if !DefaultFactory.Supports(format) {
		return nil, fmt.Errorf("unsupported writer type: %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	parts := []struct {
		name string
		data *table.Dataset
	}{
		{OnlyInAName, res.OnlyInA},
		{OnlyInBName, res.OnlyInB},
		{DifferencesName, diff.DifferencesTable(res.Differences)},
	}

	var written []string
	for _, p := range parts {
		path := filepath.Join(dir, p.name+"."+format)
		if err := WriteDataset(ctx, core.WriterConfig{Type: format, Path: path}, p.data); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
