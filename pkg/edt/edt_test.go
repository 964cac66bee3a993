package edt

import (
	"errors"
	"math/rand"
	"testing"
)

// bruteForceDistance computes the squared EDT by exhaustive search
// over all foreground cells. It is the defining oracle for the
// separable algorithm on small grids.
func bruteForceDistance(mask []float64, rows, cols int) []float64 {
	bound := Bound(rows, cols)
	dist := make([]float64, rows*cols)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			best := bound
			for fr := 0; fr < rows; fr++ {
				for fc := 0; fc < cols; fc++ {
					if mask[fr*cols+fc] != 1 {
						continue
					}
					d := float64((r-fr)*(r-fr) + (c-fc)*(c-fc))
					if d < best {
						best = d
					}
				}
			}
			dist[r*cols+c] = best
		}
	}

	return dist
}

// randomMask generates a reproducible binary mask with the given
// foreground density.
func randomMask(rng *rand.Rand, rows, cols int, density float64) []float64 {
	mask := make([]float64, rows*cols)
	for i := range mask {
		if rng.Float64() < density {
			mask[i] = 1
		}
	}
	return mask
}

func TestValidateMaskRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name       string
		mask       []float64
		rows, cols int
	}{
		{"zero rows", []float64{}, 0, 5},
		{"zero cols", []float64{}, 3, 0},
		{"negative dimensions", []float64{}, -1, -1},
		{"length mismatch", []float64{0, 1, 0}, 2, 2},
		{"value outside domain", []float64{0, 1, 2, 0}, 2, 2},
		{"negative value", []float64{0, -1, 1, 0}, 2, 2},
		{"fractional value", []float64{0, 0.5, 1, 0}, 2, 2},
	}

	for _, tc := range cases {
		err := ValidateMask(tc.mask, tc.rows, tc.cols)
		if err == nil {
			t.Errorf("%s: expected validation error, got nil", tc.name)
			continue
		}

		var maskErr *InvalidMaskError
		if !errors.As(err, &maskErr) {
			t.Errorf("%s: expected *InvalidMaskError, got %T", tc.name, err)
		}
	}
}

func TestValidateMaskAcceptsDegenerateMasks(t *testing.T) {
	// All-background and all-foreground grids are valid input and
	// must not raise.
	allZero := make([]float64, 9)
	if err := ValidateMask(allZero, 3, 3); err != nil {
		t.Errorf("all-background mask rejected: %v", err)
	}

	allOne := []float64{1, 1, 1, 1}
	if err := ValidateMask(allOne, 2, 2); err != nil {
		t.Errorf("all-foreground mask rejected: %v", err)
	}
}

func TestValidateMaskIsIdempotent(t *testing.T) {
	mask := []float64{0, 1, 1, 0, 0, 1}

	for i := 0; i < 3; i++ {
		if err := ValidateMask(mask, 2, 3); err != nil {
			t.Fatalf("validation pass %d raised on a valid mask: %v", i, err)
		}
	}
}

func TestInvalidMaskErrorReportsOffendingValue(t *testing.T) {
	_, err := NewTransform().DistanceMap([]float64{0, 7, 1, 0}, 2, 2)
	if err == nil {
		t.Fatal("expected error for out-of-domain pixel value")
	}

	var maskErr *InvalidMaskError
	if !errors.As(err, &maskErr) {
		t.Fatalf("expected *InvalidMaskError, got %T", err)
	}
	if maskErr.Value != 7 {
		t.Errorf("Expected offending value 7, got %g", maskErr.Value)
	}
	if maskErr.Index != 1 {
		t.Errorf("Expected offending index 1, got %d", maskErr.Index)
	}
}

func TestSingleCenterPixel(t *testing.T) {
	// 5x5 grid with one foreground pixel in the center.
	mask := make([]float64, 25)
	mask[2*5+2] = 1

	dist, err := NewTransform().DistanceMap(mask, 5, 5)
	if err != nil {
		t.Fatalf("DistanceMap failed: %v", err)
	}

	// Corner, center and edge-midpoint distances.
	if dist[0] != 8 {
		t.Errorf("Expected distance 8 at (0,0), got %g", dist[0])
	}
	if dist[2*5+2] != 0 {
		t.Errorf("Expected distance 0 at the center, got %g", dist[2*5+2])
	}
	if dist[2] != 4 {
		t.Errorf("Expected distance 4 at (0,2), got %g", dist[2])
	}
}

func TestSingleRowProfiles(t *testing.T) {
	cases := []struct {
		name string
		mask []float64
		want []float64
	}{
		{
			"single foreground pixel",
			[]float64{0, 0, 1, 0, 0},
			[]float64{4, 1, 0, 1, 4},
		},
		{
			"two foreground pixels at the ends",
			[]float64{1, 0, 0, 0, 1},
			[]float64{0, 1, 4, 1, 0},
		},
	}

	for _, tc := range cases {
		dist, err := NewTransform().DistanceMap(tc.mask, 1, 5)
		if err != nil {
			t.Fatalf("%s: DistanceMap failed: %v", tc.name, err)
		}
		for i, want := range tc.want {
			if dist[i] != want {
				t.Errorf("%s: Expected distance %g at column %d, got %g",
					tc.name, want, i, dist[i])
			}
		}
	}
}

func TestAllForegroundIsZero(t *testing.T) {
	mask := make([]float64, 6*4)
	for i := range mask {
		mask[i] = 1
	}

	dist, err := NewTransform().DistanceMap(mask, 6, 4)
	if err != nil {
		t.Fatalf("DistanceMap failed: %v", err)
	}
	for i, d := range dist {
		if d != 0 {
			t.Fatalf("Expected distance 0 at index %d of all-foreground mask, got %g", i, d)
		}
	}
}

func TestAllBackgroundIsSentinel(t *testing.T) {
	rows, cols := 4, 7
	mask := make([]float64, rows*cols)

	dist, err := NewTransform().DistanceMap(mask, rows, cols)
	if err != nil {
		t.Fatalf("DistanceMap failed: %v", err)
	}

	want := Bound(rows, cols)
	for i, d := range dist {
		if d != want {
			t.Fatalf("Expected sentinel %g at index %d of all-background mask, got %g", want, i, d)
		}
	}
}

func TestForegroundCellsMapToZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	mask := randomMask(rng, 16, 16, 0.2)
	mask[5*16+9] = 1 // Guarantee at least one source.

	dist, err := NewTransform().DistanceMap(mask, 16, 16)
	if err != nil {
		t.Fatalf("DistanceMap failed: %v", err)
	}
	for i := range mask {
		if mask[i] == 1 && dist[i] != 0 {
			t.Errorf("Expected distance 0 at foreground index %d, got %g", i, dist[i])
		}
	}
}

// TestBruteForceOracle compares the separable transform against the
// exhaustive all-pairs definition across a spread of shapes and
// foreground densities, including fully degenerate masks.
func TestBruteForceOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	transform := NewTransform()

	shapes := []struct{ rows, cols int }{
		{1, 1}, {1, 9}, {9, 1}, {2, 2}, {3, 8}, {8, 3},
		{5, 5}, {13, 7}, {16, 16}, {32, 32},
	}
	densities := []float64{0, 0.02, 0.1, 0.5, 0.9, 1}

	for _, shape := range shapes {
		for _, density := range densities {
			mask := randomMask(rng, shape.rows, shape.cols, density)

			got, err := transform.DistanceMap(mask, shape.rows, shape.cols)
			if err != nil {
				t.Fatalf("DistanceMap failed for %dx%d: %v", shape.rows, shape.cols, err)
			}

			want := bruteForceDistance(mask, shape.rows, shape.cols)
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("%dx%d density %.2f: Expected distance %g at index %d, got %g",
						shape.rows, shape.cols, density, want[i], i, got[i])
				}
			}
		}
	}
}

// rotate180 reverses a grid in both axes.
func rotate180(grid []float64) []float64 {
	out := make([]float64, len(grid))
	for i, v := range grid {
		out[len(grid)-1-i] = v
	}
	return out
}

func TestRotationSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	rows, cols := 12, 17
	mask := randomMask(rng, rows, cols, 0.15)

	transform := NewTransform()
	dist, err := transform.DistanceMap(mask, rows, cols)
	if err != nil {
		t.Fatalf("DistanceMap failed: %v", err)
	}

	rotated, err := transform.DistanceMap(rotate180(mask), rows, cols)
	if err != nil {
		t.Fatalf("DistanceMap of rotated mask failed: %v", err)
	}

	// Transforming a rotated mask must equal rotating the transform.
	wantRotated := rotate180(dist)
	for i := range rotated {
		if rotated[i] != wantRotated[i] {
			t.Fatalf("Rotation symmetry violated at index %d: expected %g, got %g",
				i, wantRotated[i], rotated[i])
		}
	}
}

func TestDistanceMapLeavesMaskUntouched(t *testing.T) {
	mask := []float64{0, 1, 0, 0, 0, 1, 0, 0, 0}
	original := make([]float64, len(mask))
	copy(original, mask)

	if _, err := NewTransform().DistanceMap(mask, 3, 3); err != nil {
		t.Fatalf("DistanceMap failed: %v", err)
	}
	for i := range mask {
		if mask[i] != original[i] {
			t.Fatalf("Input mask mutated at index %d: expected %g, got %g",
				i, original[i], mask[i])
		}
	}
}
