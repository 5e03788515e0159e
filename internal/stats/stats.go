// Package stats reduces a batch of trial metrics to distribution summaries.
//
// Percentiles use nearest-rank-from-start indexing: the value at
// floor(len*p/100) of the sorted batch, clamped to the last element. No
// interpolation is done between neighbouring ranks.
package stats

import (
	"errors"
	"math"
	"slices"
)

// ErrEmptyBatch is returned when statistics are requested over zero trials.
var ErrEmptyBatch = errors.New("empty batch")

// DefaultPercentiles are the percentiles every report prints.
var DefaultPercentiles = []float64{5, 25, 50, 75, 95}

// Point is one percentile of a Summary.
type Point struct {
	P     float64 `json:"p"`
	Value float64 `json:"value"`
}

// Summary is the aggregate statistics record of one metric over a batch.
type Summary struct {
	Count       int          `json:"count"`
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	Sum         float64      `json:"sum"`
	Mean        float64      `json:"mean"`
	Mode        float64      `json:"mode"`
	ModeCount   int          `json:"mode_count"`
	Percentiles []Point      `json:"percentiles"`

	sorted []float64
}

// Summarize sorts a copy of values and derives the summary. When no
// percentiles are given DefaultPercentiles is used.
func Summarize(values []float64, percentiles ...float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrEmptyBatch
	}
	if len(percentiles) == 0 {
		percentiles = DefaultPercentiles
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mode, modeCount := modeOf(sorted)

	s := Summary{
		Count:       len(sorted),
		Min:         sorted[0],
		Max:         sorted[len(sorted)-1],
		Sum:         sum,
		Mean:        sum / float64(len(sorted)),
		Mode:        mode,
		ModeCount:   modeCount,
		Percentiles: make([]Point, 0, len(percentiles)),
		sorted:      sorted,
	}
	for _, p := range percentiles {
		s.Percentiles = append(s.Percentiles, Point{P: p, Value: sorted[rankIndex(len(sorted), p)]})
	}
	return s, nil
}

// At returns the value of percentile p, computing it from the sorted batch
// when p was not among the requested percentiles.
func (s Summary) At(p float64) float64 {
	for _, pc := range s.Percentiles {
		if pc.P == p {
			return pc.Value
		}
	}
	if len(s.sorted) == 0 {
		return math.NaN()
	}
	return s.sorted[rankIndex(len(s.sorted), p)]
}

// Sorted returns a copy of the sorted batch.
func (s Summary) Sorted() []float64 {
	return slices.Clone(s.sorted)
}

// Percentile returns the nearest-rank percentile of an ascending slice.
func Percentile(sorted []float64, p float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, ErrEmptyBatch
	}
	return sorted[rankIndex(len(sorted), p)], nil
}

func rankIndex(n int, p float64) int {
	idx := int(math.Floor(float64(n) * p / 100))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

// Mode returns the most frequent value and its count. Values are counted over
// a sorted copy, so among equally frequent values the smallest wins.
func Mode(values []float64) (float64, int, error) {
	if len(values) == 0 {
		return 0, 0, ErrEmptyBatch
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mode, count := modeOf(sorted)
	return mode, count, nil
}

func modeOf(sorted []float64) (float64, int) {
	best, bestCount := sorted[0], 0
	run := 0
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			run++
		} else {
			run = 1
		}
		if run > bestCount {
			best, bestCount = v, run
		}
	}
	return best, bestCount
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyBatch
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Bin is one distinct value of a histogram and how often it occurred.
type Bin struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Histogram counts occurrences of each distinct value, ascending by value.
func Histogram(values []float64) []Bin {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	bins := []Bin{{Value: sorted[0]}}
	for _, v := range sorted {
		last := &bins[len(bins)-1]
		if v != last.Value {
			bins = append(bins, Bin{Value: v})
			last = &bins[len(bins)-1]
		}
		last.Count++
	}
	return bins
}
