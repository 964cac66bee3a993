// Package edt implements the exact squared Euclidean distance transform
// of a 2D binary mask, the core operation behind region-of-interest
// handling in radiochromic film analysis.
//
// The transform replaces the naive all-pairs O((rows*cols)^2) search
// with two separable linear passes over the grid:
//
//  1. A column pass that turns every column into its exact 1D squared
//     distance profile using the odd-step recurrence (the differences
//     of consecutive squares are 1, 3, 5, ...).
//  2. A row pass that combines the column profiles into the 2D result
//     by computing the lower envelope of one upward parabola per
//     column with a monotonic stack.
//
// The result holds, for every cell, the squared Euclidean distance to
// the nearest foreground cell. No square root is applied: callers that
// need metric distances should compare against squared radii instead.
package edt

import (
	"fmt"
	"math"
)

// InvalidMaskError reports a mask that failed shape or value-domain
// validation. It is the only error kind the transform can return;
// once a mask validates, the passes cannot fail.
type InvalidMaskError struct {
	// Rows and Cols are the dimensions the caller supplied.
	Rows, Cols int

	// Index and Value identify the first offending pixel when the
	// failure is a value-domain violation. Index is -1 for shape
	// failures.
	Index int
	Value float64

	// Reason is a short human-readable description of the failure.
	Reason string
}

// Error implements the error interface.
func (e *InvalidMaskError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid mask (%dx%d): %s (value %g at index %d)",
			e.Rows, e.Cols, e.Reason, e.Value, e.Index)
	}
	return fmt.Sprintf("invalid mask (%dx%d): %s", e.Rows, e.Cols, e.Reason)
}

// Transform computes squared Euclidean distance maps of binary masks.
// Create instances with NewTransform or NewParallelTransform.
type Transform struct {
	// workers is the number of goroutines used per pass. With one
	// worker both passes run sequentially on the calling goroutine.
	workers int
}

// NewTransform creates a sequential transform instance.
func NewTransform() *Transform {
	return &Transform{workers: 1}
}

// Bound returns the sentinel distance used for cells that have no
// foreground pixel anywhere in the mask. It exceeds every realizable
// in-grid squared distance, so it is never selected as a minimum when
// at least one foreground pixel exists.
func Bound(rows, cols int) float64 {
	return float64(rows*rows + cols*cols)
}

// ValidateMask checks that mask is a non-empty rows x cols grid in
// row-major order containing only the values 0 and 1. It returns a
// *InvalidMaskError describing the first violation, or nil. The check
// has no side effects and may be repeated on the same mask freely.
func ValidateMask(mask []float64, rows, cols int) error {
	if rows < 1 || cols < 1 {
		return &InvalidMaskError{
			Rows:   rows,
			Cols:   cols,
			Index:  -1,
			Reason: "dimensions must be at least 1x1",
		}
	}
	if len(mask) != rows*cols {
		return &InvalidMaskError{
			Rows:   rows,
			Cols:   cols,
			Index:  -1,
			Reason: fmt.Sprintf("grid has %d elements, want %d", len(mask), rows*cols),
		}
	}
	for i, v := range mask {
		if v != 0 && v != 1 {
			return &InvalidMaskError{
				Rows:   rows,
				Cols:   cols,
				Index:  i,
				Value:  v,
				Reason: "pixel values must be 0 or 1",
			}
		}
	}
	return nil
}

// DistanceMap computes the exact squared Euclidean distance transform
// of the given binary mask. The mask is read-only; the returned grid
// is freshly allocated with the same rows x cols shape.
//
// Foreground cells (value 1) map to exactly 0. If the mask contains no
// foreground at all, every cell holds the sentinel Bound(rows, cols).
func (t *Transform) DistanceMap(mask []float64, rows, cols int) ([]float64, error) {
	if err := ValidateMask(mask, rows, cols); err != nil {
		return nil, err
	}

	bound := Bound(rows, cols)

	// Pre-distance buffer: 0 at foreground, sentinel elsewhere.
	dist := make([]float64, rows*cols)
	for i, v := range mask {
		if v == 0 {
			dist[i] = bound
		}
	}

	// Pass 1: every column becomes its exact 1D squared distance
	// profile. Pass 2: rows reduce the profiles to the 2D result.
	// Lines within a pass are independent, so both passes fan out
	// across workers when the transform is parallel.
	t.runPass(cols, func(lo, hi int) {
		propagateColumns(dist, rows, cols, lo, hi)
	})
	t.runPass(rows, func(lo, hi int) {
		reduceRows(dist, rows, cols, bound, lo, hi)
	})

	return dist, nil
}

// propagateColumns computes, for each column in [lo, hi), the exact 1D
// squared distance from every cell to the nearest foreground cell in
// that column.
//
// Each column gets two linear sweeps. The step counter walks the odd
// numbers 1, 3, 5, ... which are exactly the successive differences of
// squared integers, so accumulating it from the nearest foreground
// cell reconstructs the squared distance to that cell. A failed
// relaxation means a nearer source takes over at the current cell, so
// the counter resets to 1. The upward sweep is required because a
// source can lie on either side of a cell.
func propagateColumns(dist []float64, rows, cols int, lo, hi int) {
	for c := lo; c < hi; c++ {
		step := 1.0
		for i := 1; i < rows; i++ {
			idx := i*cols + c
			if dist[idx] > dist[idx-cols]+step {
				dist[idx] = dist[idx-cols] + step
				step += 2
			} else {
				step = 1
			}
		}

		step = 1
		for i := rows - 2; i >= 0; i-- {
			idx := i*cols + c
			if dist[idx] > dist[idx+cols]+step {
				dist[idx] = dist[idx+cols] + step
				step += 2
			} else {
				step = 1
			}
		}
	}
}

// reduceRows computes the final squared distances for each row in
// [lo, hi) from the column-pass profiles.
//
// The true distance at (row, x) is min over columns k of
// profile[k] + (x-k)^2. Each term is an upward parabola centered at k,
// so the minimum over all columns is the lower envelope of the
// parabola family, sampled at every x. Because two parabolas of equal
// curvature intersect exactly once, each parabola dominates at most
// one contiguous interval and a monotonic stack computes the envelope
// in a single scan.
func reduceRows(dist []float64, rows, cols int, bound float64, lo, hi int) {
	// Scratch is owned by this call, so concurrent range reductions
	// never share state.
	env := newEnvelope(cols, rows)
	profile := make([]float64, cols)

	for r := lo; r < hi; r++ {
		row := dist[r*cols : (r+1)*cols]
		copy(profile, row)
		env.reset()

		for m := 1; m < cols; m++ {
			// Sentinel columns carry no source information and
			// cannot contribute to the envelope.
			if profile[m] == bound {
				continue
			}

			j := intersect(profile, m, env.topContributor())
			for j <= env.topBoundary() {
				// The new parabola starts dominating before the
				// stack top does, so the top is fully hidden.
				env.pop()
				j = intersect(profile, m, env.topContributor())
			}
			if j < cols {
				if j < 0 {
					j = 0
				}
				env.push(m, j)
			}
		}

		// Sample the envelope. The first interval is forced to start
		// at column 0 and the last one is closed at cols. A row whose
		// profile is entirely sentinel keeps only the dummy seed,
		// which correctly fills the row with the sentinel bound.
		env.boundaries[0] = 0
		for n, k := range env.contributors {
			start := env.boundaries[n]
			end := cols
			if n+1 < len(env.boundaries) {
				end = env.boundaries[n+1]
			}
			fk := profile[k]
			if fk == bound {
				// Only the dummy seed can carry the sentinel, and it
				// only owns cells when the entire mask is background;
				// such cells hold the bound itself, not a parabola.
				for x := start; x < end; x++ {
					row[x] = bound
				}
				continue
			}
			for x := start; x < end; x++ {
				d := float64(x - k)
				row[x] = fk + d*d
			}
		}
	}
}

// intersect returns the first column index at which the parabola
// centered at column m starts dominating the one centered at column k
// (m > k). The ceiling biases the boundary toward the later
// contributor on exact ties, which the source algorithm relies on for
// bit-for-bit reproducibility at boundary pixels.
func intersect(profile []float64, m, k int) int {
	num := profile[m] - profile[k] + float64(m*m-k*k)
	return int(math.Ceil(num / float64(2*(m-k))))
}

// envelope is the monotonic stack describing the lower envelope of
// column parabolas for one row: contributors[n] is the column whose
// parabola owns the interval starting at boundaries[n]. Boundaries are
// strictly increasing and the depth never exceeds the column count.
type envelope struct {
	contributors []int
	boundaries   []int

	// seedBoundary is the effectively negative-infinite boundary of
	// the dummy seed entry; no real intersection can reach below it.
	seedBoundary int
}

func newEnvelope(cols, rows int) *envelope {
	return &envelope{
		contributors: make([]int, 1, cols),
		boundaries:   make([]int, 1, cols),
		seedBoundary: -(rows*rows + cols*cols),
	}
}

// reset restores the stack to the single dummy seed entry: column 0
// with a boundary below any reachable intersection. The seed makes
// the scan total even when column 0 holds no source.
func (e *envelope) reset() {
	e.contributors = e.contributors[:1]
	e.boundaries = e.boundaries[:1]
	e.contributors[0] = 0
	e.boundaries[0] = e.seedBoundary
}

func (e *envelope) push(contributor, boundary int) {
	e.contributors = append(e.contributors, contributor)
	e.boundaries = append(e.boundaries, boundary)
}

// pop removes the top entry. The dummy seed is never popped because
// every computed intersection lies strictly above its boundary.
func (e *envelope) pop() {
	n := len(e.contributors) - 1
	e.contributors = e.contributors[:n]
	e.boundaries = e.boundaries[:n]
}

func (e *envelope) topContributor() int {
	return e.contributors[len(e.contributors)-1]
}

func (e *envelope) topBoundary() int {
	return e.boundaries[len(e.boundaries)-1]
}
