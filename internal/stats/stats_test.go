package stats

import (
	"errors"
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"zeroth is first element", 0, 10},
		{"fifth floors to index 0", 5, 10},
		{"twenty-fifth floors to index 2", 25, 30},
		{"median is index 5", 50, 60},
		{"ninety-fifth floors to index 9", 95, 100},
		{"hundredth clamps to last", 100, 100},
		{"beyond hundred clamps to last", 150, 100},
		{"negative clamps to first", -5, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Percentile(sorted, tt.p)
			if err != nil {
				t.Fatalf("Percentile error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentileIsNotInterpolated(t *testing.T) {
	// floor(4*50/100) = 2, so the median of four values is the third value,
	// not the average of the middle two.
	got, _ := Percentile([]float64{1, 2, 3, 4}, 50)
	if got != 3 {
		t.Errorf("Percentile([1 2 3 4], 50) = %v, want 3", got)
	}
}

func TestPercentileEmpty(t *testing.T) {
	if _, err := Percentile(nil, 50); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Percentile(nil) error = %v, want ErrEmptyBatch", err)
	}
}

func TestMode(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		wantMode  float64
		wantCount int
	}{
		{"single value", []float64{7}, 7, 1},
		{"clear winner", []float64{3, 1, 3, 2, 3}, 3, 3},
		{"tie resolves to smallest", []float64{5, 2, 5, 2}, 2, 2},
		{"all distinct picks smallest", []float64{9, 4, 6}, 4, 1},
		{"winner at the end", []float64{1, 8, 8, 8, 2, 2}, 8, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, count, err := Mode(tt.values)
			if err != nil {
				t.Fatalf("Mode error: %v", err)
			}
			if mode != tt.wantMode || count != tt.wantCount {
				t.Errorf("Mode() = (%v, %d), want (%v, %d)", mode, count, tt.wantMode, tt.wantCount)
			}
		})
	}

	if _, _, err := Mode(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Mode(nil) error = %v, want ErrEmptyBatch", err)
	}
}

func TestMean(t *testing.T) {
	got, err := Mean([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Mean error: %v", err)
	}
	if got != 2.5 {
		t.Errorf("Mean() = %v, want 2.5", got)
	}
	if _, err := Mean(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Mean(nil) error = %v, want ErrEmptyBatch", err)
	}
}

func TestSummarize(t *testing.T) {
	values := []float64{42, 7, 19, 7, 100, 3, 55, 7, 19, 61}
	s, err := Summarize(values)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}

	if s.Count != 10 {
		t.Errorf("Count = %d, want 10", s.Count)
	}
	if s.Min != 3 || s.Max != 100 {
		t.Errorf("Min/Max = %v/%v, want 3/100", s.Min, s.Max)
	}
	if s.Sum != 320 || s.Mean != 32 {
		t.Errorf("Sum/Mean = %v/%v, want 320/32", s.Sum, s.Mean)
	}
	if s.Mode != 7 || s.ModeCount != 3 {
		t.Errorf("Mode = %v x%d, want 7 x3", s.Mode, s.ModeCount)
	}

	// sorted: 3 7 7 7 19 19 42 55 61 100
	want := map[float64]float64{5: 3, 25: 7, 50: 19, 75: 55, 95: 100}
	if len(s.Percentiles) != len(DefaultPercentiles) {
		t.Fatalf("got %d percentiles, want %d", len(s.Percentiles), len(DefaultPercentiles))
	}
	for _, pc := range s.Percentiles {
		if pc.Value != want[pc.P] {
			t.Errorf("P%v = %v, want %v", pc.P, pc.Value, want[pc.P])
		}
	}
	if got := s.At(90); got != 100 {
		t.Errorf("At(90) = %v, want 100", got)
	}
	if got := s.At(0); got != 3 {
		t.Errorf("At(0) = %v, want 3", got)
	}

	// the input must not be reordered
	if values[0] != 42 || values[len(values)-1] != 61 {
		t.Error("Summarize mutated its input")
	}
}

func TestSummarizeCustomPercentiles(t *testing.T) {
	s, err := Summarize([]float64{1, 2, 3, 4, 5}, 0, 100)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if len(s.Percentiles) != 2 || s.Percentiles[0].Value != 1 || s.Percentiles[1].Value != 5 {
		t.Errorf("Percentiles = %+v, want P0=1 P100=5", s.Percentiles)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if _, err := Summarize(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Summarize(nil) error = %v, want ErrEmptyBatch", err)
	}
	var zero Summary
	if !math.IsNaN(zero.At(50)) {
		t.Error("At on a zero Summary should be NaN")
	}
}

func TestSortedReturnsCopy(t *testing.T) {
	s, _ := Summarize([]float64{3, 1, 2})
	sorted := s.Sorted()
	sorted[0] = 99
	if s.Sorted()[0] != 1 {
		t.Error("Sorted exposed the summary's internal slice")
	}
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{4, 2, 4, 9, 2, 4})
	want := []Bin{{2, 2}, {4, 3}, {9, 1}}
	if len(bins) != len(want) {
		t.Fatalf("Histogram() = %+v, want %+v", bins, want)
	}
	for i := range want {
		if bins[i] != want[i] {
			t.Errorf("bin %d = %+v, want %+v", i, bins[i], want[i])
		}
	}
	if Histogram(nil) != nil {
		t.Error("Histogram(nil) should be nil")
	}
}

func TestSummaryPointsMatchPercentile(t *testing.T) {
	s, err := Summarize([]float64{9, 1, 8, 2, 7, 3, 6, 4, 5}, 10, 50, 90)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	sorted := s.Sorted()
	for _, pt := range s.Percentiles {
		want, err := Percentile(sorted, pt.P)
		if err != nil {
			t.Fatalf("Percentile error: %v", err)
		}
		if pt.Value != want {
			t.Errorf("Point P%v = %v, Percentile = %v", pt.P, pt.Value, want)
		}
	}
}
