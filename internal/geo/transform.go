package geo

import "fmt"

// singularTolerance is the minimum absolute determinant a geotransform's
// linear part may have before it is rejected as non-invertible.
const singularTolerance = 1e-10

// Transform is a 6-coefficient affine map between pixel (u, v) and
// geographic/projected (x, y) coordinates:
//
//	x = C0 + A*u + B*v
//	y = F0 + D*u + E*v
type Transform struct {
	C0, A, B, F0, D, E float64
}

// NewTransform builds a Transform and verifies it is invertible.
func NewTransform(c0, a, b, f0, d, e float64) (Transform, error) {
	t := Transform{C0: c0, A: a, B: b, F0: f0, D: d, E: e}
	if _, err := t.det(); err != nil {
		return Transform{}, err
	}
	return t, nil
}

func (t Transform) det() (float64, error) {
	det := t.A*t.E - t.B*t.D
	if det < singularTolerance && det > -singularTolerance {
		return 0, fmt.Errorf("geotransform: near-singular determinant %g", det)
	}
	return det, nil
}

// Forward maps pixel coordinates to geographic/projected coordinates.
func (t Transform) Forward(u, v float64) (x, y float64) {
	x = t.C0 + t.A*u + t.B*v
	y = t.F0 + t.D*u + t.E*v
	return
}

// Inverse maps geographic/projected coordinates back to pixel coordinates.
// It returns an error if the transform is (or has become) singular.
func (t Transform) Inverse(x, y float64) (u, v float64, err error) {
	det, err := t.det()
	if err != nil {
		return 0, 0, err
	}
	dx := x - t.C0
	dy := y - t.F0
	u = (t.E*dx - t.B*dy) / det
	v = (t.A*dy - t.D*dx) / det
	return u, v, nil
}
