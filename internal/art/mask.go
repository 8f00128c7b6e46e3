package art

import "math"

// Chord contribution profile. The linear falloff gives an anti-aliased edge
// roughly one pixel wide; the ceiling caps how much a single chord may
// darken a pixel, forcing the greedy loop to layer many chords to reach the
// target value, which is what produces the string-art look.
const (
	profileReach   = 0.6
	profileCeiling = 0.05
)

func profile(d float64) float64 {
	v := profileReach - math.Abs(d)
	if v < 0 {
		return 0
	}
	if v > profileCeiling {
		return profileCeiling
	}
	return v
}

// ChordMask writes the additive contribution of the chord between anchors
// i and j into dst, overwriting its previous contents, and returns the total
// contribution written. A zero return means the chord touches no pixel
// center: coincident endpoints, or a chord running along the x=S or y=S
// boundary of a square layout, more than the profile reach from every pixel.
//
// The chord is treated as the infinite line through the two anchor points.
// Per-pixel distance uses the two-point form
//
//	|(y2-y1)*x - (x2-x1)*y + x2*y1 - y2*x1| / hypot(x2-x1, y2-y1)
//
// which stays finite for vertical chords. For the circle shape, pixels
// outside the inscribed disk get no contribution.
func ChordMask(cfg Config, anchors []Point, i, j int, dst *Grid) float64 {
	p1, p2 := anchors[i], anchors[j]
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	length := math.Hypot(dx, dy)

	if length == 0 {
		dst.Zero()
		return 0
	}

	side := cfg.Size
	half := float64(side) / 2
	r2 := half * half
	disk := cfg.Shape == ShapeCircle
	c := p2.X*p1.Y - p2.Y*p1.X

	var energy float64
	for y := 0; y < side; y++ {
		fy := float64(y)
		row := y * side
		for x := 0; x < side; x++ {
			fx := float64(x)
			if disk {
				cx := fx - half
				cy := fy - half
				if cx*cx+cy*cy > r2 {
					dst.Pix[row+x] = 0
					continue
				}
			}
			d := math.Abs(dy*fx-dx*fy+c) / length
			v := profile(d)
			dst.Pix[row+x] = v
			energy += v
		}
	}
	return energy
}
