// Package phantom generates synthetic film phantoms: dose maps with
// known ground-truth masks. Phantoms drive the test suite and the CLI
// demo mode, replacing physical film when none is at hand.
package phantom

import (
	"fmt"
	"math/rand"
)

// Params controls phantom generation.
type Params struct {
	// Rows and Cols are the grid dimensions in pixels.
	Rows, Cols int

	// Noise is the standard deviation of additive Gaussian noise on
	// the dose map. Zero produces a clean phantom.
	Noise float64

	// Seed makes the noise reproducible.
	Seed int64
}

// Phantom couples a synthetic dose map with its ground-truth binary
// mask. The mask always validates under the distance transform's
// strict {0,1} check.
type Phantom struct {
	// Dose is the simulated dose readout, 1 inside the field plus
	// noise.
	Dose []float64

	// Mask is the exact exposed region, 1 for foreground.
	Mask []float64

	Rows, Cols int
}

// Disk generates a phantom with a filled circular field. A pixel
// belongs to the field when its center lies within radius of the
// given center coordinates.
func Disk(p Params, centerRow, centerCol, radius float64) (*Phantom, error) {
	if err := checkDims(p); err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, fmt.Errorf("disk radius must be positive, got %g", radius)
	}

	return build(p, func(r, c int) bool {
		dr := float64(r) - centerRow
		dc := float64(c) - centerCol
		return dr*dr+dc*dc <= radius*radius
	})
}

// Rectangle generates a phantom with a filled axis-aligned field,
// bounds inclusive.
func Rectangle(p Params, r0, c0, r1, c1 int) (*Phantom, error) {
	if err := checkDims(p); err != nil {
		return nil, err
	}
	if r0 > r1 || c0 > c1 {
		return nil, fmt.Errorf("degenerate rectangle (%d,%d)-(%d,%d)", r0, c0, r1, c1)
	}
	if r0 < 0 || c0 < 0 || r1 >= p.Rows || c1 >= p.Cols {
		return nil, fmt.Errorf("rectangle (%d,%d)-(%d,%d) outside %dx%d grid",
			r0, c0, r1, c1, p.Rows, p.Cols)
	}

	return build(p, func(r, c int) bool {
		return r >= r0 && r <= r1 && c >= c0 && c <= c1
	})
}

// FieldEdge generates a half-exposed phantom: columns at or beyond
// edgeCol belong to the field. The step is the classic test object for
// penumbra and alignment studies.
func FieldEdge(p Params, edgeCol int) (*Phantom, error) {
	if err := checkDims(p); err != nil {
		return nil, err
	}
	if edgeCol < 0 || edgeCol >= p.Cols {
		return nil, fmt.Errorf("edge column %d outside %d columns", edgeCol, p.Cols)
	}

	return build(p, func(r, c int) bool {
		return c >= edgeCol
	})
}

// build fills mask and dose from the field membership predicate.
func build(p Params, inField func(r, c int) bool) (*Phantom, error) {
	ph := &Phantom{
		Dose: make([]float64, p.Rows*p.Cols),
		Mask: make([]float64, p.Rows*p.Cols),
		Rows: p.Rows,
		Cols: p.Cols,
	}

	rng := rand.New(rand.NewSource(p.Seed))
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			i := r*p.Cols + c
			if inField(r, c) {
				ph.Mask[i] = 1
				ph.Dose[i] = 1
			}
			if p.Noise > 0 {
				ph.Dose[i] += rng.NormFloat64() * p.Noise
			}
		}
	}

	return ph, nil
}

func checkDims(p Params) error {
	if p.Rows < 1 || p.Cols < 1 {
		return fmt.Errorf("phantom dimensions must be at least 1x1, got %dx%d", p.Rows, p.Cols)
	}
	if p.Noise < 0 {
		return fmt.Errorf("noise sigma must be non-negative, got %g", p.Noise)
	}
	return nil
}
