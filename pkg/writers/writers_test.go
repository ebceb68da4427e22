package writers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/readers"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *table.Dataset {
	t.Helper()
	ds, err := table.FromRows([]string{"id", "name", "score"}, [][]table.Value{
		{table.Int(1), table.Text("Alice"), table.Float(1.5)},
		{table.Int(2), table.Missing(), table.Float(2.25)},
	})
	require.NoError(t, err)
	return ds
}

func TestWriteDatasetRoundTrip(t *testing.T) {
	for _, format := range []string{"csv", "parquet", "arrow"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out."+format)
			require.NoError(t, WriteDataset(context.Background(), core.WriterConfig{Type: format, Path: path}, sample(t)))

			got, err := readers.Load(context.Background(), core.ReaderConfig{Path: path})
			require.NoError(t, err)
			require.Equal(t, 2, got.NumRows())
			assert.Equal(t, []string{"id", "name", "score"}, got.ColumnNames())
			assert.True(t, got.Value(0, 0).Equal(table.Int(1)))
			assert.Equal(t, "Alice", got.Value(0, 1).String())
			assert.True(t, got.Value(1, 1).IsMissing())
			assert.True(t, got.Value(1, 2).Equal(table.Float(2.25)))
		})
	}
}

func TestJSONWriterKeepsColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteDataset(context.Background(), core.WriterConfig{Type: "json", Path: path}, sample(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"[\n  {\"id\":1,\"name\":\"Alice\",\"score\":1.5},\n  {\"id\":2,\"name\":null,\"score\":2.25}\n]\n",
		string(data))
}

func TestJSONWriterEmpty(t *testing.T) {
	empty, err := table.New(table.Column{Name: "id"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteDataset(context.Background(), core.WriterConfig{Type: "json", Path: path}, empty))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestWriteDatasetErrors(t *testing.T) {
	err := WriteDataset(context.Background(), core.WriterConfig{Type: "xml", Path: "x"}, sample(t))
	assert.Error(t, err)

	err = WriteDataset(context.Background(), core.WriterConfig{Type: "csv"}, sample(t))
	assert.Error(t, err)

	err = WriteDataset(context.Background(), core.WriterConfig{Type: "csv", Path: "x"}, nil)
	assert.Error(t, err)
}

func TestWriteResult(t *testing.T) {
	onlyA, err := table.FromRows([]string{"id", "name"}, [][]table.Value{{table.Int(1), table.Text("a")}})
	require.NoError(t, err)
	onlyB, err := table.FromRows([]string{"id", "name"}, nil)
	require.NoError(t, err)

	res := &core.Result{
		LabelA:  "a.csv",
		LabelB:  "b.csv",
		OnlyInA: onlyA,
		OnlyInB: onlyB,
		Differences: []core.DifferenceRecord{{
			DatasetA:   "a.csv",
			DatasetB:   "b.csv",
			KeyColumns: []string{"id"},
			Key:        table.Key{table.Int(5)},
			Column:     "amount",
			ValueA:     table.Int(100),
			ValueB:     table.Int(105),
		}},
	}

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteResult(context.Background(), dir, "csv", res)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "only_in_a.csv"),
		filepath.Join(dir, "only_in_b.csv"),
		filepath.Join(dir, "differences.csv"),
	}, paths)

	data, err := os.ReadFile(filepath.Join(dir, "differences.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"dataset_a_label,dataset_b_label,key_column_names,key_value,column_name,value_a,value_b\n"+
			"a.csv,b.csv,id,5,amount,100,105\n",
		string(data))

	data, err = os.ReadFile(filepath.Join(dir, "only_in_b.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,name\n", string(data))
}

func TestWriteResultFormatsReadBack(t *testing.T) {
	onlyA, err := table.FromRows([]string{"id", "name"}, [][]table.Value{{table.Int(1), table.Text("a")}})
	require.NoError(t, err)
	onlyB, err := table.FromRows([]string{"id", "name"}, [][]table.Value{
		{table.Int(7), table.Text("g")},
		{table.Int(8), table.Missing()},
	})
	require.NoError(t, err)
	res := &core.Result{
		LabelA:  "a.csv",
		LabelB:  "b.csv",
		OnlyInA: onlyA,
		OnlyInB: onlyB,
		Differences: []core.DifferenceRecord{{
			DatasetA:   "a.csv",
			DatasetB:   "b.csv",
			KeyColumns: []string{"id"},
			Key:        table.Key{table.Int(5)},
			Column:     "amount",
			ValueA:     table.Int(100),
			ValueB:     table.Int(105),
		}},
	}

	for _, format := range []string{"csv", "parquet", "arrow"} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			paths, err := WriteResult(context.Background(), dir, format, res)
			require.NoError(t, err)
			require.Len(t, paths, 3)

			got, err := readers.Load(context.Background(), core.ReaderConfig{Path: paths[1]})
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "name"}, got.ColumnNames())
			require.Equal(t, 2, got.NumRows())
			assert.True(t, got.Value(0, 0).Equal(table.Int(7)))
			assert.True(t, got.Value(1, 1).IsMissing())

			diffs, err := readers.Load(context.Background(), core.ReaderConfig{Path: paths[2]})
			require.NoError(t, err)
			require.Equal(t, 1, diffs.NumRows())
			col := diffs.ColumnIndex("value_b")
			require.GreaterOrEqual(t, col, 0)
			assert.True(t, diffs.Value(0, col).Equal(table.Int(105)))
			assert.Equal(t, "5", diffs.Value(0, diffs.ColumnIndex("key_value")).String())
		})
	}
}

func TestWriteResultEmptyAndUnsupported(t *testing.T) {
	paths, err := WriteResult(context.Background(), t.TempDir(), "csv", &core.Result{Empty: true})
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = WriteResult(context.Background(), t.TempDir(), "xml", &core.Result{})
	assert.Error(t, err)
}
