package models

import (
	"image"
)

// Scan represents a digitized radiochromic film sheet with metadata
type Scan struct {
	// Image is the decoded scan data
	Image image.Image

	// Filename is the original filename of the scan
	Filename string

	// Rows and Cols are the scan dimensions in pixels
	Rows int
	Cols int

	// DPI is the scanner resolution in dots per inch, 0 when unknown
	DPI float64
}
