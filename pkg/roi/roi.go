// Package roi converts binary film masks into regions of interest.
// It is the primary consumer of the squared Euclidean distance
// transform: margins, erosion and dilation are all expressed through
// squared distance fields, so no square root is ever taken.
package roi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"filmdose/pkg/edt"
)

// Point2D represents a single foreground pixel in grid coordinates.
type Point2D struct {
	Row, Col float64
}

// Compare implements the kdtree.Comparable interface
func (p Point2D) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Point2D)
	switch d {
	case 0:
		return p.Row - q.Row
	case 1:
		return p.Col - q.Col
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p Point2D) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points
func (p Point2D) Distance(c kdtree.Comparable) float64 {
	q := c.(Point2D)
	dr := p.Row - q.Row
	dc := p.Col - q.Col
	return dr*dr + dc*dc // Return squared distance for efficiency
}

// Points2D is a collection of Point2D that satisfies kdtree.Interface
type Points2D []Point2D

func (p Points2D) Index(i int) kdtree.Comparable         { return p[i] }
func (p Points2D) Len() int                              { return len(p) }
func (p Points2D) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Points2D) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{Points2D: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{Points2D: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for Points2D
type pointPlane struct {
	Points2D
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Points2D[i].Row < p.Points2D[j].Row
	case 1:
		return p.Points2D[i].Col < p.Points2D[j].Col
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{Points2D: p.Points2D[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.Points2D[i], p.Points2D[j] = p.Points2D[j], p.Points2D[i]
}

// ROI describes the foreground region of a validated binary mask
// together with its squared distance fields.
type ROI struct {
	mask []float64
	rows int
	cols int

	// dist holds the squared distance from every cell to the nearest
	// foreground cell.
	dist []float64

	// inner holds the squared distance from every cell to the nearest
	// background cell. It is computed lazily because only erosion
	// needs it.
	inner []float64

	// tree indexes the foreground pixels for nearest-source lookups.
	// Built lazily on first use.
	tree *kdtree.Tree
}

// FromMask builds a region of interest from a binary mask. The mask is
// validated and transformed once; the ROI keeps its own copy.
func FromMask(mask []float64, rows, cols int) (*ROI, error) {
	transform := edt.NewTransform()
	dist, err := transform.DistanceMap(mask, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("mask rejected: %w", err)
	}

	owned := make([]float64, len(mask))
	copy(owned, mask)

	return &ROI{
		mask: owned,
		rows: rows,
		cols: cols,
		dist: dist,
	}, nil
}

// Rows returns the grid height in pixels.
func (r *ROI) Rows() int { return r.rows }

// Cols returns the grid width in pixels.
func (r *ROI) Cols() int { return r.cols }

// DistanceField returns a copy of the squared distance field.
func (r *ROI) DistanceField() []float64 {
	out := make([]float64, len(r.dist))
	copy(out, r.dist)
	return out
}

// SquaredDistance returns the squared Euclidean distance from the
// given cell to the nearest foreground pixel.
func (r *ROI) SquaredDistance(row, col int) (float64, error) {
	if row < 0 || row >= r.rows || col < 0 || col >= r.cols {
		return 0, fmt.Errorf("cell (%d,%d) outside %dx%d grid", row, col, r.rows, r.cols)
	}
	return r.dist[row*r.cols+col], nil
}

// Area returns the number of foreground pixels.
func (r *ROI) Area() int {
	area := 0
	for _, v := range r.mask {
		if v == 1 {
			area++
		}
	}
	return area
}

// BoundingBox returns the inclusive row/column extents of the
// foreground. ok is false when the mask has no foreground at all.
func (r *ROI) BoundingBox() (minRow, minCol, maxRow, maxCol int, ok bool) {
	minRow, minCol = r.rows, r.cols
	maxRow, maxCol = -1, -1

	for row := 0; row < r.rows; row++ {
		for col := 0; col < r.cols; col++ {
			if r.mask[row*r.cols+col] != 1 {
				continue
			}
			if row < minRow {
				minRow = row
			}
			if row > maxRow {
				maxRow = row
			}
			if col < minCol {
				minCol = col
			}
			if col > maxCol {
				maxCol = col
			}
		}
	}

	if maxRow < 0 {
		return 0, 0, 0, 0, false
	}
	return minRow, minCol, maxRow, maxCol, true
}

// Centroid returns the mean foreground coordinate. ok is false when
// the mask has no foreground.
func (r *ROI) Centroid() (row, col float64, ok bool) {
	rowsCoords, colsCoords := r.foregroundCoords()
	if len(rowsCoords) == 0 {
		return 0, 0, false
	}
	return stat.Mean(rowsCoords, nil), stat.Mean(colsCoords, nil), true
}

// Orientation returns the angle of the foreground's major principal
// axis in radians, measured from the row axis toward the column axis
// in the range (-pi/2, pi/2]. The axis comes from the eigenvectors of
// the 2x2 coordinate covariance matrix. ok is false when fewer than
// two foreground pixels exist or when the region is isotropic and no
// axis is preferred.
func (r *ROI) Orientation() (angle float64, ok bool) {
	rowsCoords, colsCoords := r.foregroundCoords()
	if len(rowsCoords) < 2 {
		return 0, false
	}

	cov := mat.NewSymDense(2, []float64{
		stat.Variance(rowsCoords, nil), stat.Covariance(rowsCoords, colsCoords, nil),
		stat.Covariance(rowsCoords, colsCoords, nil), stat.Variance(colsCoords, nil),
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return 0, false
	}

	// Eigenvalues come back in ascending order; the major axis is the
	// eigenvector of the larger one.
	values := eig.Values(nil)
	if values[1]-values[0] < 1e-12 {
		return 0, false
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	angle = math.Atan2(vectors.At(1, 1), vectors.At(0, 1))

	// Eigenvectors are defined up to sign; fold into (-pi/2, pi/2].
	if angle > math.Pi/2 {
		angle -= math.Pi
	} else if angle <= -math.Pi/2 {
		angle += math.Pi
	}
	return angle, true
}

// Dilate grows the foreground by the given Euclidean radius: the
// result marks every cell whose squared distance to the nearest
// foreground pixel is at most radius squared.
func (r *ROI) Dilate(radius float64) ([]float64, error) {
	if radius < 0 {
		return nil, fmt.Errorf("dilation radius must be non-negative, got %g", radius)
	}

	limit := radius * radius
	out := make([]float64, len(r.mask))
	for i, d := range r.dist {
		if d <= limit {
			out[i] = 1
		}
	}
	return out, nil
}

// Erode shrinks the foreground by the given Euclidean radius: the
// result keeps only foreground cells whose squared distance to the
// nearest background cell exceeds radius squared.
func (r *ROI) Erode(radius float64) ([]float64, error) {
	if radius < 0 {
		return nil, fmt.Errorf("erosion radius must be non-negative, got %g", radius)
	}
	if err := r.ensureInnerField(); err != nil {
		return nil, err
	}

	limit := radius * radius
	out := make([]float64, len(r.mask))
	for i, v := range r.mask {
		if v == 1 && r.inner[i] > limit {
			out[i] = 1
		}
	}
	return out, nil
}

// ensureInnerField computes the squared distance to the nearest
// background cell by transforming the complement mask.
func (r *ROI) ensureInnerField() error {
	if r.inner != nil {
		return nil
	}

	complement := make([]float64, len(r.mask))
	for i, v := range r.mask {
		complement[i] = 1 - v
	}

	inner, err := edt.NewTransform().DistanceMap(complement, r.rows, r.cols)
	if err != nil {
		return fmt.Errorf("complement mask rejected: %w", err)
	}
	r.inner = inner
	return nil
}

// NearestForeground returns the coordinates of the foreground pixel
// closest to the given cell. The distance field alone cannot answer
// this (it holds only distances), so the lookup is served by a KD-tree
// over the foreground pixels. ok is false when no foreground exists.
func (r *ROI) NearestForeground(row, col int) (nearestRow, nearestCol int, ok bool) {
	if r.tree == nil {
		points := make(Points2D, 0, r.Area())
		for pr := 0; pr < r.rows; pr++ {
			for pc := 0; pc < r.cols; pc++ {
				if r.mask[pr*r.cols+pc] == 1 {
					points = append(points, Point2D{Row: float64(pr), Col: float64(pc)})
				}
			}
		}
		if len(points) == 0 {
			return 0, 0, false
		}
		r.tree = kdtree.New(points, true)
	}

	got, _ := r.tree.Nearest(Point2D{Row: float64(row), Col: float64(col)})
	p := got.(Point2D)
	return int(p.Row), int(p.Col), true
}

// foregroundCoords collects the row and column coordinates of all
// foreground pixels.
func (r *ROI) foregroundCoords() (rowsCoords, colsCoords []float64) {
	for row := 0; row < r.rows; row++ {
		for col := 0; col < r.cols; col++ {
			if r.mask[row*r.cols+col] == 1 {
				rowsCoords = append(rowsCoords, float64(row))
				colsCoords = append(colsCoords, float64(col))
			}
		}
	}
	return rowsCoords, colsCoords
}
