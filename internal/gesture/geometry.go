package gesture

import "fmt"

// Geometry is the surface size captured when a recognizer is built.
type Geometry struct {
	Width  int
	Height int
}

// Validate reports whether the surface has a usable size.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("surface geometry must be positive, got %dx%d", g.Width, g.Height)
	}
	return nil
}

// ToSurface maps normalized coordinates onto surface units.
func (g Geometry) ToSurface(xn, yn float64) (float64, float64) {
	return normToSurface(xn, g.Width), normToSurface(yn, g.Height)
}

// normToSurface scales a normalized value across span units.
func normToSurface(norm float64, span int) float64 {
	if span <= 1 {
		return 0
	}
	return clamp01(norm) * float64(span-1)
}

// clamp01 bounds a float to the [0..1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
