package art

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	assert.Equal(t, 0.05, profile(0), "on the line the ceiling applies")
	assert.Equal(t, 0.05, profile(0.55), "within the capped core")
	assert.InDelta(t, 0.04, profile(0.56), 1e-12, "linear falloff past the cap")
	assert.Equal(t, 0.0, profile(0.6), "contribution ends at the reach")
	assert.Equal(t, 0.0, profile(2.0))
	assert.Equal(t, profile(0.3), profile(-0.3), "profile is symmetric")
}

func TestChordMaskVerticalChord(t *testing.T) {
	cfg := Config{Size: 20, Anchors: 8, Shape: ShapeSquare, Mode: ModeFast, Tolerance: 0.5}
	anchors := []Point{{X: 10, Y: 0}, {X: 10, Y: 20}}
	mask := NewGrid(cfg.Size)

	energy := ChordMask(cfg, anchors, 0, 1, mask)
	assert.InDelta(t, 1.0, energy, 1e-12, "20 centerline pixels at the ceiling")

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			v := mask.At(x, y)
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "pixel (%d,%d) is not finite", x, y)
			if x == 10 {
				assert.Equal(t, 0.05, v, "pixel (%d,%d) sits on the chord", x, y)
			} else {
				assert.Equal(t, 0.0, v, "pixel (%d,%d) is more than the reach away", x, y)
			}
		}
	}
}

func TestChordMaskCoincidentAnchors(t *testing.T) {
	cfg := Config{Size: 10, Anchors: 8, Shape: ShapeSquare, Mode: ModeFast, Tolerance: 0.5}
	anchors := []Point{{X: 5, Y: 5}, {X: 5, Y: 5}}

	mask := NewGrid(cfg.Size)
	for k := range mask.Pix {
		mask.Pix[k] = 0.7 // stale contents must be overwritten
	}

	energy := ChordMask(cfg, anchors, 0, 1, mask)

	assert.Equal(t, 0.0, energy)
	for k, v := range mask.Pix {
		require.Equal(t, 0.0, v, "pixel %d", k)
	}
}

func TestChordMaskEdgeAlignedSquareChordHasNoEnergy(t *testing.T) {
	cfg := Config{Size: 20, Anchors: 16, Shape: ShapeSquare, Mode: ModeSlow, Tolerance: 0.5}
	anchors, err := Layout(cfg)
	require.NoError(t, err)

	// Anchors 0 and 2 both sit on the line y=S, a full pixel below every
	// pixel center, so the chord between them contributes nothing.
	mask := NewGrid(cfg.Size)
	energy := ChordMask(cfg, anchors, 0, 2, mask)

	assert.Equal(t, 0.0, energy)
	for k, v := range mask.Pix {
		require.Equal(t, 0.0, v, "pixel %d", k)
	}
}

func TestChordMaskCeiling(t *testing.T) {
	cfg := Config{Size: 30, Anchors: 8, Shape: ShapeCircle, Mode: ModeFast, Tolerance: 0.5}
	anchors, err := Layout(cfg)
	require.NoError(t, err)

	mask := NewGrid(cfg.Size)
	ChordMask(cfg, anchors, 0, 4, mask)

	for k, v := range mask.Pix {
		require.GreaterOrEqual(t, v, 0.0, "pixel %d", k)
		require.LessOrEqual(t, v, 0.05, "pixel %d", k)
	}
}

func TestChordMaskDiskCutoff(t *testing.T) {
	cfg := Config{Size: 20, Anchors: 8, Shape: ShapeCircle, Mode: ModeFast, Tolerance: 0.5}
	anchors, err := Layout(cfg)
	require.NoError(t, err)

	mask := NewGrid(cfg.Size)
	// Chord from (20,10) to (0,10): the horizontal diameter. Its line passes
	// through the corners' rows only far from them, but corner pixels are
	// outside the inscribed disk and must stay zero regardless.
	ChordMask(cfg, anchors, 0, 4, mask)

	assert.Equal(t, 0.0, mask.At(0, 0))
	assert.Equal(t, 0.0, mask.At(19, 0))
	assert.Equal(t, 0.0, mask.At(0, 19))
	assert.Equal(t, 0.0, mask.At(19, 19))
	assert.Equal(t, 0.05, mask.At(10, 10), "center sits on the diameter")
}

func TestChordMaskQuarterTurnSymmetry(t *testing.T) {
	cfg := Config{Size: 20, Anchors: 8, Shape: ShapeCircle, Mode: ModeFast, Tolerance: 0.5}
	anchors, err := Layout(cfg)
	require.NoError(t, err)

	// The horizontal diameter (anchors 0-4) and the vertical diameter
	// (anchors 2-6) are each other's transpose.
	horizontal := NewGrid(cfg.Size)
	vertical := NewGrid(cfg.Size)
	ChordMask(cfg, anchors, 0, 4, horizontal)
	ChordMask(cfg, anchors, 2, 6, vertical)

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			require.InDelta(t, horizontal.At(x, y), vertical.At(y, x), 1e-12,
				"pixel (%d,%d)", x, y)
		}
	}
}
