package server

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/cwbudde/stringart/internal/art"
	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// previewScale is the integer upscale factor of the live preview frame.
const previewScale = 2

// renderPreview upscales the working grid with nearest-neighbour sampling
// (the thread texture should stay crisp, not smoothed) and overlays the
// anchor positions.
func renderPreview(working *art.Grid, anchors []art.Point, scale int) image.Image {
	src := art.Encode(working)
	side := working.Side * scale

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	dc := gg.NewContextForRGBA(dst)
	dc.SetRGBA(0.9, 0.3, 0.15, 0.9)
	f := float64(scale)
	for _, p := range anchors {
		dc.DrawCircle(p.X*f, p.Y*f, f)
	}
	dc.Fill()

	return dc.Image()
}

// renderDiff creates a false-color difference image between the target and
// the working grid: black = no difference, red = high difference.
func renderDiff(target, working *art.Grid) *image.NRGBA {
	side := target.Side
	diff := image.NewNRGBA(image.Rect(0, 0, side, side))

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			d := math.Abs(target.At(x, y) - working.At(x, y))
			if d > 1 {
				d = 1
			}
			diff.SetNRGBA(x, y, color.NRGBA{uint8(math.Round(d * 255)), 0, 0, 255})
		}
	}

	return diff
}

// writePNG encodes an image as PNG to the given writer.
func writePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
