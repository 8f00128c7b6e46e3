package art

import (
	"fmt"
	"math"
)

// Point is an anchor position in pixel coordinates.
type Point struct {
	X, Y float64
}

// Layout places cfg.Anchors points on the boundary of the working region.
//
// Circle shape: anchor k sits at angle 2*pi*k/N on the circle of radius S/2
// centered at (S/2, S/2), rounded to the nearest pixel. Anchor 0 is at
// angle 0.
//
// Square shape: anchors walk the four edges of the S x S square, one corner
// to the next, evenly spaced. Intended for debugging layouts.
func Layout(cfg Config) ([]Point, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Anchors
	s := float64(cfg.Size)
	pts := make([]Point, n)

	switch cfg.Shape {
	case ShapeCircle:
		for k := 0; k < n; k++ {
			angle := float64(k) * 2 * math.Pi / float64(n)
			pts[k] = Point{
				X: math.Round(s/2 + math.Cos(angle)*s/2),
				Y: math.Round(s/2 + math.Sin(angle)*s/2),
			}
		}
	case ShapeSquare:
		q := n / 4
		for k := 0; k < q; k++ {
			step := float64(k) * s / float64(q)
			pts[k] = Point{X: step, Y: s}
			pts[k+q] = Point{X: s, Y: s - step}
			pts[k+2*q] = Point{X: s - step, Y: 0}
			pts[k+3*q] = Point{X: 0, Y: step}
		}
	default:
		return nil, fmt.Errorf("unknown shape: %q", cfg.Shape)
	}

	return pts, nil
}
