// Package visualization renders distance fields and masks as
// grayscale images for visual inspection of the processing steps.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
)

// Renderer converts a 2D float grid into a normalized 16-bit
// grayscale image.
type Renderer struct {
	// data holds the grid values in row-major order
	data []float64

	// dimensions of the grid
	rows int
	cols int
}

// NewRenderer creates a renderer for the given grid.
func NewRenderer(data []float64, rows, cols int) (*Renderer, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid dimensions must be at least 1x1, got %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("grid has %d elements, want %d", len(data), rows*cols)
	}

	return &Renderer{
		data: data,
		rows: rows,
		cols: cols,
	}, nil
}

// Render produces the grayscale image, scaling the grid so its
// maximum maps to white. A constant grid renders as black.
func (r *Renderer) Render() image.Image {
	img := image.NewGray16(image.Rect(0, 0, r.cols, r.rows))

	maxVal := floats.Max(r.data)
	if maxVal <= 0 {
		return img
	}

	for y := 0; y < r.rows; y++ {
		for x := 0; x < r.cols; x++ {
			v := r.data[y*r.cols+x] / maxVal
			if v < 0 {
				v = 0
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v * 65535.0)})
		}
	}

	return img
}

// Save renders the grid and writes it as a PNG file, creating parent
// directories as needed.
func (r *Renderer) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, r.Render())
}
