package art

import "fmt"

// Shape selects how anchors are laid out on the boundary of the working region.
type Shape string

const (
	ShapeCircle Shape = "circle"
	ShapeSquare Shape = "square"
)

// Mode selects the candidate enumeration strategy of the greedy loop.
type Mode string

const (
	// ModeFast considers only chords starting at the current anchor, so the
	// accepted chords form a single continuous thread.
	ModeFast Mode = "fast"

	// ModeSlow considers all admissible anchor pairs every step. Slower per
	// step but reaches a lower final loss.
	ModeSlow Mode = "slow"
)

// Config holds the immutable parameters of a fitting run. It is built once
// at startup and threaded through the anchor layout, the chord rasterizer
// and the selector loop.
type Config struct {
	// Size is the side length of the square grid in pixels.
	Size int

	// Anchors is the number of anchor points on the region boundary.
	Anchors int

	// Shape is the boundary the anchors are placed on. The circle shape also
	// masks out pixels outside the inscribed disk.
	Shape Shape

	// Mode selects fast (connected thread) or slow (free pairs) search.
	Mode Mode

	// Tolerance is the stall tolerance T: the loop stops once the best
	// candidate fails prevLoss - loss >= -T. Small loss increases within T
	// are tolerated to avoid premature stalls.
	Tolerance float64

	// StartAnchor is the first anchor of the thread in fast mode.
	StartAnchor int
}

// DefaultConfig returns the canonical run parameters.
func DefaultConfig() Config {
	return Config{
		Size:      300,
		Anchors:   271,
		Shape:     ShapeCircle,
		Mode:      ModeFast,
		Tolerance: 0.5,
	}
}

// MinSep is the minimum circular separation between chord endpoints.
// Chords between near-neighbour anchors are forbidden: their contribution
// is a tiny arc dominated by numerical noise.
func (c Config) MinSep() int {
	return c.Anchors / 15
}

// Validate checks the configuration at startup. All violations are fatal
// configuration errors.
func (c Config) Validate() error {
	if c.Size < 2 {
		return fmt.Errorf("size must be at least 2, got %d", c.Size)
	}
	if c.Anchors < 2 {
		return fmt.Errorf("anchors must be at least 2, got %d", c.Anchors)
	}
	switch c.Shape {
	case ShapeCircle:
	case ShapeSquare:
		if c.Anchors%4 != 0 {
			return fmt.Errorf("square shape requires anchors to be a multiple of 4, got %d", c.Anchors)
		}
	default:
		return fmt.Errorf("unknown shape: %q", c.Shape)
	}
	switch c.Mode {
	case ModeFast, ModeSlow:
	default:
		return fmt.Errorf("unknown mode: %q", c.Mode)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %g", c.Tolerance)
	}
	if c.StartAnchor < 0 || c.StartAnchor >= c.Anchors {
		return fmt.Errorf("start anchor %d out of range [0, %d)", c.StartAnchor, c.Anchors)
	}
	return nil
}

// Admissible reports whether the chord {i, j} may be drawn: the endpoints
// must be separated by more than MinSep positions around the boundary.
func (c Config) Admissible(i, j int) bool {
	if i == j {
		return false
	}
	d := i - j
	if d < 0 {
		d = -d
	}
	if c.Anchors-d < d {
		d = c.Anchors - d
	}
	return d > c.MinSep()
}
