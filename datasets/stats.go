package datasets

import (
	"math"
)

// VectorStats summarizes the values of one side (inputs or targets) of a
// collection.
type VectorStats struct {
	Min  float64
	Max  float64
	Mean float64
}

// Summary describes a collection after one full pass.
type Summary struct {
	Count  int
	Input  VectorStats
	Target VectorStats

	// OccludedFraction is the share of pixels where the input differs from
	// the target.
	OccludedFraction float64
}

type accumulator struct {
	min, max, sum float64
	n             int
}

func newAccumulator() accumulator {
	return accumulator{min: math.Inf(1), max: math.Inf(-1)}
}

func (a *accumulator) add(vs []float64) {
	for _, v := range vs {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
		a.sum += v
	}
	a.n += len(vs)
}

func (a *accumulator) stats() VectorStats {
	if a.n == 0 {
		return VectorStats{}
	}
	return VectorStats{Min: a.min, Max: a.max, Mean: a.sum / float64(a.n)}
}

// Summarize reads c once and reports value ranges and how much of each image
// is occluded. Pixels are compared position by position up to the shorter of
// the two vectors.
func Summarize(c Collection) (Summary, error) {
	in, tg := newAccumulator(), newAccumulator()
	var s Summary
	var differing, compared int
	for rec, err := range c.All() {
		if err != nil {
			return Summary{}, err
		}
		s.Count++
		in.add(rec.Input)
		tg.add(rec.Target)
		n := min(len(rec.Input), len(rec.Target))
		for i := range n {
			if rec.Input[i] != rec.Target[i] {
				differing++
			}
		}
		compared += n
	}
	s.Input = in.stats()
	s.Target = tg.stats()
	if compared > 0 {
		s.OccludedFraction = float64(differing) / float64(compared)
	}
	return s, nil
}
