package Geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

func candidate(cx, cy, dx, dy float64) EdgeRecord {
	d := r2.Point{X: dx, Y: dy}
	return EdgeRecord{Center: r2.Point{X: cx, Y: cy}, Dir: d.Normalize(), Length: 1, Index: -1, Valid: true}
}

func TestSelectBest(t *testing.T) {
	target := candidate(0, 0, 1, 0)
	aligned := candidate(0.1, 0, 1, 0)
	perpendicular := candidate(0, 0.05, 0, 1)
	opposed := candidate(0.2, 0, -1, 0)
	tilted := candidate(0, 0.1, 0.7, math.Sqrt(1-0.49))
	straight := candidate(0, 0.3, 1, 0)

	tests := []struct {
		name       string
		candidates []EdgeRecord
		scoring    Scoring
		want       r2.Point
	}{
		{"alignment beats distance", []EdgeRecord{perpendicular, opposed, aligned}, ByDistance, aligned.Center},
		{"antiparallel counts as aligned", []EdgeRecord{perpendicular, opposed}, ByDistance, opposed.Center},
		{"distance among aligned", []EdgeRecord{straight, tilted}, ByDistance, tilted.Center},
		{"combined score", []EdgeRecord{straight, tilted}, ByCombined, straight.Center},
		{"relaxed threshold", []EdgeRecord{candidate(0, 0.5, 0.3, 1)}, ByDistance, r2.Point{Y: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultProximityOptions()
			opts.Scoring = tt.scoring
			got, err := NewProximitySelector(tt.candidates, opts).SelectBest(target)
			if err != nil {
				t.Fatal(err)
			}
			if !samePoint(got.Center, tt.want) {
				t.Errorf("selected %v, want center %v", got, tt.want)
			}
		})
	}
}

func TestSelectBestExhausted(t *testing.T) {
	target := candidate(0, 0, 1, 0)
	invalid := candidate(0, 0, 1, 0)
	invalid.Valid = false

	tests := []struct {
		name       string
		candidates []EdgeRecord
	}{
		{"empty", nil},
		{"only invalid", []EdgeRecord{invalid}},
		{"below floor", []EdgeRecord{candidate(0, 0.1, 0.1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProximitySelector(tt.candidates, DefaultProximityOptions()).SelectBest(target)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v", err)
			}
		})
	}
}
