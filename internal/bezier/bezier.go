// Package bezier evaluates CSS-style cubic-bezier easing curves.
package bezier

import (
	"fmt"
	"math"

	"github.com/kyupark/xctid/internal/protocol"
	"github.com/kyupark/xctid/internal/txerr"
)

// maxBisections bounds the search even for control sets whose x-curve is
// not monotonic; a double interval collapses long before this.
const maxBisections = 2048

// Cubic is a bezier curve anchored at (0,0) and (1,1) with interior
// control points (c[0], c[1]) and (c[2], c[3]).
type Cubic struct {
	c [4]float64
}

// New builds a curve from exactly four control values.
func New(controls []float64) (*Cubic, error) {
	if len(controls) != 4 {
		return nil, fmt.Errorf("%w: need 4 curve controls, got %d", txerr.ErrInvalidFrameRow, len(controls))
	}
	var c Cubic
	copy(c.c[:], controls)
	return &c, nil
}

// Value maps x-progress t to the eased y value. Outside [0,1] the curve
// is extended linearly along its end tangents.
func (c *Cubic) Value(t float64) float64 {
	if t <= 0 {
		var gradient float64
		if c.c[0] > 0 {
			gradient = c.c[1] / c.c[0]
		} else if c.c[0] == 0 && c.c[2] > 0 {
			gradient = c.c[3] / c.c[2]
		}
		return gradient * t
	}

	if t >= 1 {
		var gradient float64
		if c.c[2] < 1 {
			gradient = (c.c[3] - 1) / (c.c[2] - 1)
		} else if c.c[2] == 1 && c.c[0] < 1 {
			gradient = (c.c[1] - 1) / (c.c[0] - 1)
		}
		return 1 + gradient*(t-1)
	}

	start, mid, end := 0.0, 0.0, 1.0
	for i := 0; i < maxBisections && start < end; i++ {
		mid = (start + end) / 2
		x := Basis(c.c[0], c.c[2], mid)
		if math.Abs(t-x) < protocol.BezierTolerance {
			return Basis(c.c[1], c.c[3], mid)
		}
		if mid == start || mid == end {
			break
		}
		if x < t {
			start = mid
		} else {
			end = mid
		}
	}
	return Basis(c.c[1], c.c[3], mid)
}

// Basis is one coordinate of an endpoint-anchored cubic bezier at
// parameter m, given that coordinate of the two interior control points.
func Basis(a, b, m float64) float64 {
	return 3*a*(1-m)*(1-m)*m + 3*b*(1-m)*m*m + m*m*m
}
