// Package filmio loads and saves digitized film scans and converts
// them between image and float-grid form. Film scans are archived as
// TIFF; PNG and JPEG are accepted for processed or exported data.
package filmio

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"filmdose/internal/models"
)

// LoadScan loads a film scan image from disk. The format is selected
// by file extension: .png, .jpg/.jpeg or .tif/.tiff.
func LoadScan(path string) (*models.Scan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		img, err = png.Decode(file)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
	case ".tif", ".tiff":
		img, err = tiff.Decode(file)
	default:
		return nil, fmt.Errorf("unsupported scan format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %v", path, err)
	}

	bounds := img.Bounds()
	return &models.Scan{
		Image:    img,
		Filename: filepath.Base(path),
		Rows:     bounds.Dy(),
		Cols:     bounds.Dx(),
	}, nil
}

// ToFloat converts an image to a row-major float grid in the 0-1
// range, returning the grid and its rows x cols shape.
func ToFloat(img image.Image) ([]float64, int, int) {
	bounds := img.Bounds()
	cols := bounds.Dx()
	rows := bounds.Dy()
	result := make([]float64, rows*cols)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Convert 16-bit color to float64 (0-1 range)
			result[y*cols+x] = float64(r) / 65535.0
		}
	}

	return result, rows, cols
}

// FromFloat converts a 0-1 float grid back to a 16-bit grayscale
// image. Values outside the range are clamped.
func FromFloat(data []float64, rows, cols int) image.Image {
	img := image.NewGray16(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := data[y*cols+x]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			// Round rather than truncate so ToFloat round-trips exactly.
			img.SetGray16(x, y, color.Gray16{Y: uint16(v*65535.0 + 0.5)})
		}
	}

	return img
}

// SaveImage writes an image to disk in the format selected by the
// file extension, creating parent directories as needed.
func SaveImage(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode(file, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	case ".tif", ".tiff":
		return tiff.Encode(file, img, nil)
	default:
		return fmt.Errorf("unsupported output format: %s", filepath.Ext(path))
	}
}

// BinaryMask thresholds an intensity grid into a {0,1} mask: pixels
// at or above the threshold become foreground. The result always
// passes the distance transform's mask validation.
func BinaryMask(data []float64, rows, cols int, threshold float64) ([]float64, error) {
	if rows < 1 || cols < 1 || len(data) != rows*cols {
		return nil, fmt.Errorf("grid shape %dx%d does not match %d elements", rows, cols, len(data))
	}

	mask := make([]float64, len(data))
	for i, v := range data {
		if v >= threshold {
			mask[i] = 1
		}
	}
	return mask, nil
}
