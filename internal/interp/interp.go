// Package interp blends animation property vectors.
package interp

import (
	"fmt"
	"math"

	"github.com/kyupark/xctid/internal/txerr"
)

// Interpolate blends from and to element-wise at factor f.
func Interpolate(from, to []float64, f float64) ([]float64, error) {
	if len(from) != len(to) {
		return nil, fmt.Errorf("%w: %d vs %d values", txerr.ErrLengthMismatch, len(from), len(to))
	}
	out := make([]float64, len(from))
	for i := range from {
		out[i] = from[i]*(1-f) + to[i]*f
	}
	return out, nil
}

// InterpolateBool steps from from to to once f reaches one half.
func InterpolateBool(from, to []bool, f float64) ([]bool, error) {
	if len(from) != len(to) {
		return nil, fmt.Errorf("%w: %d vs %d values", txerr.ErrLengthMismatch, len(from), len(to))
	}
	out := make([]bool, len(from))
	if f < 0.5 {
		copy(out, from)
	} else {
		copy(out, to)
	}
	return out, nil
}

// RotationMatrix returns the row-major 2x2 rotation matrix for an angle
// given in degrees.
func RotationMatrix(degrees float64) [4]float64 {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return [4]float64{cos, -sin, sin, cos}
}
