package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/google/uuid"
)

// -----------------------------
// Run Metadata
// -----------------------------

// RunMetadata captures high-level context for a comparison run.
type RunMetadata struct {
	RunID          string        `json:"run_id"`
	LabelA         string        `json:"label_a"`
	LabelB         string        `json:"label_b"`
	KeyColumns     []string      `json:"key_columns"`
	CompareColumns []string      `json:"compare_columns"`
	Version        string        `json:"version"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	Thresholds     Thresholds    `json:"thresholds"`
}

// Thresholds defines numeric tolerances applied during the run.
type Thresholds struct {
	NumericDifferenceTolerance float64 `json:"numeric_difference_tolerance"`
}

// PhaseTimings records how long each stage of a run took.
type PhaseTimings struct {
	Load    time.Duration `json:"load"`
	Compare time.Duration `json:"compare"`
	Write   time.Duration `json:"write"`
}

// -----------------------------
// Result Types
// -----------------------------

// RowCountResult holds row count metrics.
type RowCountResult struct {
	CountA     int64 `json:"count_a"`
	CountB     int64 `json:"count_b"`
	Difference int64 `json:"difference"`
	OnlyInA    int64 `json:"only_in_a"`
	OnlyInB    int64 `json:"only_in_b"`
	Status     bool  `json:"status"`
}

// ColumnResult holds the difference count of one compared column.
type ColumnResult struct {
	ColumnName  string `json:"column_name"`
	Differences int64  `json:"differences"`
	Status      bool   `json:"status"`
}

// ValueResult holds cell-level comparison metrics.
type ValueResult struct {
	ColumnsCompared []string `json:"columns_compared"`
	MismatchedRows  int64    `json:"mismatched_rows"`
	CellDifferences int64    `json:"cell_differences"`
	Status          bool     `json:"status"`
}

// SchemaResult captures data quality notes about the inputs.
type SchemaResult struct {
	UncomparedA    []string `json:"uncompared_a"`
	UncomparedB    []string `json:"uncompared_b"`
	DuplicatesA    int64    `json:"duplicates_a"`
	DuplicatesB    int64    `json:"duplicates_b"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         bool     `json:"status"`
}

// RunReport aggregates the metrics of one comparison run.
type RunReport struct {
	Run            RunMetadata    `json:"run"`
	Timings        PhaseTimings   `json:"timings"`
	Empty          bool           `json:"empty"`
	RowCountResult RowCountResult `json:"row_count_result"`
	ColumnResults  []ColumnResult `json:"column_results"`
	ValueResult    ValueResult    `json:"value_result"`
	SchemaResult   SchemaResult   `json:"schema_result"`
}

// Passed reports whether the inputs matched: no rows on one side only and
// no differing cells.
func (r RunReport) Passed() bool {
	return r.RowCountResult.Status && r.ValueResult.Status
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// NewRunReport builds the metrics of a finished comparison.
func NewRunReport(runID string, res *core.Result, tolerance float64, start, end time.Time) RunReport {
	if runID == "" {
		runID = NewRunID()
	}
	report := RunReport{
		Run: RunMetadata{
			RunID:          runID,
			LabelA:         res.LabelA,
			LabelB:         res.LabelB,
			KeyColumns:     res.KeyColumns,
			CompareColumns: res.CompareColumns,
			StartTime:      start,
			EndTime:        end,
			Duration:       end.Sub(start),
			Thresholds:     Thresholds{NumericDifferenceTolerance: tolerance},
		},
		Empty:         res.Empty,
		ColumnResults: []ColumnResult{},
	}

	s := res.Summary
	report.RowCountResult = RowCountResult{
		CountA:     s.RowsA,
		CountB:     s.RowsB,
		Difference: s.RowsA - s.RowsB,
		OnlyInA:    s.OnlyInA,
		OnlyInB:    s.OnlyInB,
		Status:     s.OnlyInA == 0 && s.OnlyInB == 0,
	}
	report.ValueResult = ValueResult{
		ColumnsCompared: res.CompareColumns,
		MismatchedRows:  s.RowsWithDifferences,
		CellDifferences: s.CellDifferences,
		Status:          s.CellDifferences == 0,
	}
	report.SchemaResult = SchemaResult{
		UncomparedA: s.UncomparedA,
		UncomparedB: s.UncomparedB,
		DuplicatesA: s.DuplicatesA,
		DuplicatesB: s.DuplicatesB,
		Status:      s.DuplicatesA == 0 && s.DuplicatesB == 0 && len(s.TypeMismatches) == 0,
	}
	for _, m := range s.TypeMismatches {
		report.SchemaResult.TypeMismatches = append(report.SchemaResult.TypeMismatches, m.String())
	}

	for _, name := range res.CompareColumns {
		n := s.Columns[name]
		report.ColumnResults = append(report.ColumnResults, ColumnResult{
			ColumnName:  name,
			Differences: n,
			Status:      n == 0,
		})
	}
	sort.SliceStable(report.ColumnResults, func(i, j int) bool {
		return report.ColumnResults[i].Differences > report.ColumnResults[j].Differences
	})
	return report
}

// -----------------------------
// Metrics Storage
// -----------------------------

// MetricsStore abstracts run metrics storage.
type MetricsStore interface {
	Save(run RunReport) error
	SaveWithContext(ctx context.Context, run RunReport) error
}

// JSONMetricsStore stores run metrics as JSON. With no FilePath the JSON
// goes to Out, or stdout when Out is nil.
type JSONMetricsStore struct {
	FilePath string
	Out      io.Writer
}

func (j *JSONMetricsStore) Save(run RunReport) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	if j.FilePath != "" {
		return os.WriteFile(j.FilePath, data, 0644)
	}
	out := j.Out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func (j *JSONMetricsStore) SaveWithContext(ctx context.Context, run RunReport) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return j.Save(run)
	}
}

// Load reads a run report previously saved as JSON.
func Load(path string) (RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunReport{}, err
	}
	var run RunReport
	if err := json.Unmarshal(data, &run); err != nil {
		return RunReport{}, fmt.Errorf("invalid run report %s: %w", path, err)
	}
	return run, nil
}
