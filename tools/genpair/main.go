// Command genpair writes a pair of datasets with a known number of rows on
// one side only and of changed rows, for exercising keydiff on large inputs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/TFMV/keydiff/pkg/writers"
	"github.com/google/uuid"
)

const (
	defaultRows   = 100000
	defaultOutDir = "test_data"
	defaultSeed   = 42

	firstNames   = "John,Jane,Bob,Mary,Alice,David,Emma,Michael,Olivia,James,Sophia,William,Ava,Benjamin,Mia,Daniel"
	lastNames    = "Smith,Johnson,Williams,Jones,Brown,Davis,Miller,Wilson,Moore,Taylor,Anderson,Thomas,Jackson,White"
	domains      = "gmail.com,yahoo.com,example.com,company.com,business.org,school.edu"
	statusValues = "active,inactive,pending,suspended"
	stateValues  = "AL,AK,AZ,CA,CO,FL,GA,IL,MA,NY,OH,OR,TX,WA"
)

// Config for the data generator
type Config struct {
	rowCount      int
	outputDir     string
	sourceFile    string
	targetFile    string
	format        string
	randomSeed    int64
	onlyRate      float64
	diffRate      float64
	nullRate      float64
	targetNewCols bool
}

// Expected holds the counts a comparison of the pair on "id" must report.
type Expected struct {
	OnlyInSource int
	OnlyInTarget int
	Changed      int
}

var columns = []string{"id", "first_name", "last_name", "email", "state", "status", "amount", "quantity"}

func main() {
	config := parseFlags()

	if err := os.MkdirAll(config.outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	source, target, want, err := generatePair(config)
	if err != nil {
		log.Fatalf("Failed to generate datasets: %v", err)
	}

	ctx := context.Background()
	for _, out := range []struct {
		name string
		data *table.Dataset
	}{{config.sourceFile, source}, {config.targetFile, target}} {
		path := filepath.Join(config.outputDir, out.name)
		if err := writers.WriteDataset(ctx, core.WriterConfig{Type: config.format, Path: path}, out.data); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		log.Printf("Wrote %s (%d rows)", path, out.data.NumRows())
	}
	log.Printf("Expected: %d only in source, %d only in target, %d changed",
		want.OnlyInSource, want.OnlyInTarget, want.Changed)
}

// parseFlags parses command-line arguments and returns a Config
func parseFlags() Config {
	rowCount := flag.Int("rows", defaultRows, "Number of rows in the source dataset")
	outputDir := flag.String("outdir", defaultOutDir, "Output directory for generated files")
	format := flag.String("format", "parquet", "Output format (csv, json, parquet, arrow)")
	seed := flag.Int64("seed", defaultSeed, "Random seed for data generation")
	onlyRate := flag.Float64("only", 0.01, "Share of rows present on one side only (0.0-1.0)")
	diffRate := flag.Float64("diffs", 0.1, "Share of shared rows with a changed value (0.0-1.0)")
	nullRate := flag.Float64("nulls", 0.05, "Rate of missing emails (0.0-1.0)")
	targetNewCols := flag.Bool("target-new-cols", true, "Whether target should have an additional column")
	flag.Parse()

	return Config{
		rowCount:      *rowCount,
		outputDir:     *outputDir,
		sourceFile:    "source." + *format,
		targetFile:    "target." + *format,
		format:        *format,
		randomSeed:    *seed,
		onlyRate:      *onlyRate,
		diffRate:      *diffRate,
		nullRate:      *nullRate,
		targetNewCols: *targetNewCols,
	}
}

// generatePair builds the source dataset, then derives the target by
// dropping rows, adding rows and changing amount or status on others.
func generatePair(config Config) (*table.Dataset, *table.Dataset, Expected, error) {
	rnd := rand.New(rand.NewSource(config.randomSeed))

	source := make([][]table.Value, config.rowCount)
	for i := range source {
		row, err := randomRow(rnd, config.nullRate)
		if err != nil {
			return nil, nil, Expected{}, err
		}
		source[i] = row
	}

	var want Expected
	var target [][]table.Value
	for _, row := range source {
		if rnd.Float64() < config.onlyRate {
			want.OnlyInSource++
			continue
		}
		changed := append([]table.Value(nil), row...)
		if rnd.Float64() < config.diffRate {
			want.Changed++
			if rnd.Intn(2) == 0 {
				amount, _ := row[6].Float64()
				changed[6] = table.Float(round2(amount + 1 + rnd.Float64()*10))
			} else {
				changed[5] = table.Text(nextStatus(row[5].String()))
			}
		}
		target = append(target, changed)
	}
	extra := int(float64(config.rowCount) * config.onlyRate)
	for i := 0; i < extra; i++ {
		row, err := randomRow(rnd, config.nullRate)
		if err != nil {
			return nil, nil, Expected{}, err
		}
		target = append(target, row)
		want.OnlyInTarget++
	}
	rnd.Shuffle(len(target), func(i, j int) { target[i], target[j] = target[j], target[i] })

	src, err := table.FromRows(columns, source)
	if err != nil {
		return nil, nil, Expected{}, err
	}

	targetColumns := columns
	if config.targetNewCols {
		targetColumns = append(append([]string(nil), columns...), "updated_at")
		for i := range target {
			day := fmt.Sprintf("2025-01-%02d", 1+rnd.Intn(28))
			target[i] = append(target[i], table.Text(day))
		}
	}
	tgt, err := table.FromRows(targetColumns, target)
	if err != nil {
		return nil, nil, Expected{}, err
	}
	return src, tgt, want, nil
}

func randomRow(rnd *rand.Rand, nullRate float64) ([]table.Value, error) {
	id, err := uuid.NewRandomFromReader(rnd)
	if err != nil {
		return nil, err
	}
	first := randomItem(firstNames, rnd)
	last := randomItem(lastNames, rnd)
	email := table.Text(strings.ToLower(first+"."+last) + "@" + randomItem(domains, rnd))
	if rnd.Float64() < nullRate {
		email = table.Missing()
	}
	return []table.Value{
		table.Text(id.String()),
		table.Text(first),
		table.Text(last),
		email,
		table.Text(randomItem(stateValues, rnd)),
		table.Text(randomItem(statusValues, rnd)),
		table.Float(round2(rnd.Float64() * 1000)),
		table.Int(int64(rnd.Intn(100))),
	}, nil
}

func randomItem(list string, rnd *rand.Rand) string {
	items := strings.Split(list, ",")
	return items[rnd.Intn(len(items))]
}

func nextStatus(s string) string {
	items := strings.Split(statusValues, ",")
	for i, item := range items {
		if item == s {
			return items[(i+1)%len(items)]
		}
	}
	return items[0]
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
