package art

import "gonum.org/v1/gonum/floats"

// Grid is a square field of float64 values stored in a single contiguous
// row-major buffer. Values follow the convention 0 = blank, increasing =
// more thread coverage; the target grid stays within [0, 1] while the
// working grid only ever grows.
type Grid struct {
	Side int
	Pix  []float64
}

// NewGrid allocates a zeroed Side x Side grid.
func NewGrid(side int) *Grid {
	return &Grid{
		Side: side,
		Pix:  make([]float64, side*side),
	}
}

// At returns the value at pixel (x, y).
func (g *Grid) At(x, y int) float64 {
	return g.Pix[y*g.Side+x]
}

// Set writes the value at pixel (x, y).
func (g *Grid) Set(x, y int, v float64) {
	g.Pix[y*g.Side+x] = v
}

// Accumulate adds m into g element-wise. Both grids must share the same side.
func (g *Grid) Accumulate(m *Grid) {
	floats.Add(g.Pix, m.Pix)
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	out := NewGrid(g.Side)
	copy(out.Pix, g.Pix)
	return out
}

// Zero resets every value to 0.
func (g *Grid) Zero() {
	for i := range g.Pix {
		g.Pix[i] = 0
	}
}

// Loss is the sum of squared per-pixel differences between the target and
// working grids.
func Loss(target, working *Grid) float64 {
	diff := make([]float64, len(target.Pix))
	floats.SubTo(diff, target.Pix, working.Pix)
	return floats.Dot(diff, diff)
}
