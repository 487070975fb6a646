package datasets

import (
	"bufio"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// writeLines writes each line followed by a newline to path.
func writeLines(t *testing.T, path string, lines []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			t.Fatalf("failed to write line: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("failed to flush %s: %v", path, err)
	}
}

// intLine joins raw intensities into one record line.
func intLine(values ...int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

// rampLines returns n lines of width tokens where line i starts at i and
// counts up modulo 256, so every line is distinct and easy to check.
func rampLines(n, width int) []string {
	lines := make([]string, n)
	for i := range n {
		vals := make([]int, width)
		for j := range vals {
			vals[j] = (i + j) % 256
		}
		lines[i] = intLine(vals...)
	}
	return lines
}

// writePartitions writes <dir>/<prefix>_<name>.txt for the three partitions
// with the given number of ramp lines each.
func writePartitions(t *testing.T, dir, prefix string, width int, lengths Lengths) {
	t.Helper()
	for _, name := range partitionNames {
		n, _ := lengths.Of(name)
		writeLines(t, filepath.Join(dir, prefix+"_"+name+".txt"), rampLines(n, width))
	}
}

// smallConfig is a 4+4 wide dataset with partitions of 5, 3 and 2 records.
func smallConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.InputSize = 4
	cfg.TargetSize = 4
	cfg.Lengths = Lengths{Train: 5, Valid: 3, Test: 2}
	writePartitions(t, dir, cfg.Prefix, 8, cfg.Lengths)
	return cfg
}

// sliceCollection is a Collection over fixed records for tests that need
// shapes the codec would never produce.
type sliceCollection struct {
	records    []Record
	inputSize  int
	targetSize int
	err        error
}

func (s *sliceCollection) Name() string { return "slice" }

func (s *sliceCollection) Len() int { return len(s.records) }

func (s *sliceCollection) Shape() (int, int) { return s.inputSize, s.targetSize }

func (s *sliceCollection) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range s.records {
			if !yield(r, nil) {
				return
			}
		}
		if s.err != nil {
			yield(Record{}, s.err)
		}
	}
}

// endlessCollection yields the same record until its consumer stops.
type endlessCollection struct{}

func (endlessCollection) Name() string { return "endless" }

func (endlessCollection) Len() int { return -1 }

func (endlessCollection) Shape() (int, int) { return 1, 1 }

func (endlessCollection) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for yield(Record{Input: []float64{0}, Target: []float64{1}}, nil) {
		}
	}
}
