// Package visual verifies that a cleansed document still looks exactly like
// the original. Raster formats are compared pixel by pixel; page-based
// formats are rendered to a canonical raster form and fingerprinted.
package visual

import (
	"bytes"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"
)

// RasterIdentical reports whether two encoded images decode to exactly the
// same pixels. There is no tolerance: a single differing pixel fails.
func RasterIdentical(a, b []byte) (bool, error) {
	imgA, _, err := image.Decode(bytes.NewReader(a))
	if err != nil {
		return false, fmt.Errorf("failed to decode first image: %w", err)
	}
	imgB, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return false, fmt.Errorf("failed to decode second image: %w", err)
	}

	boundsA, boundsB := imgA.Bounds(), imgB.Bounds()
	if boundsA.Dx() != boundsB.Dx() || boundsA.Dy() != boundsB.Dy() {
		return false, nil
	}

	for y := 0; y < boundsA.Dy(); y++ {
		for x := 0; x < boundsA.Dx(); x++ {
			rA, gA, bA, aA := imgA.At(boundsA.Min.X+x, boundsA.Min.Y+y).RGBA()
			rB, gB, bB, aB := imgB.At(boundsB.Min.X+x, boundsB.Min.Y+y).RGBA()
			if rA != rB || gA != gB || bA != bB || aA != aB {
				return false, nil
			}
		}
	}
	return true, nil
}
