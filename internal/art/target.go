package art

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/disintegration/imaging"
)

// LoadTarget reads an image file and prepares the target grid from it.
func LoadTarget(path string, cfg Config) (*Grid, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input image: %w", err)
	}
	return PrepareTarget(img, cfg), nil
}

// PrepareTarget converts a decoded image into the target grid: resize to
// Size x Size with nearest-neighbour filtering, grayscale, values scaled to
// [0, 1]. For the circle shape, pixels outside the inscribed disk are
// zeroed so chords are only judged against the disk interior.
func PrepareTarget(img image.Image, cfg Config) *Grid {
	resized := imaging.Resize(img, cfg.Size, cfg.Size, imaging.NearestNeighbor)
	gray := imaging.Grayscale(resized)

	g := NewGrid(cfg.Size)
	half := float64(cfg.Size) / 2
	r2 := half * half
	disk := cfg.Shape == ShapeCircle

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			if disk {
				dx := float64(x) - half
				dy := float64(y) - half
				if dx*dx+dy*dy > r2 {
					continue
				}
			}
			g.Set(x, y, float64(gray.NRGBAAt(x, y).R)/255)
		}
	}
	return g
}

// Encode maps the grid to an 8-bit single-channel raster: value v becomes
// pixel round(min(v, 1) * 255).
func Encode(g *Grid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Side, g.Side))
	for y := 0; y < g.Side; y++ {
		for x := 0; x < g.Side; x++ {
			v := g.At(x, y)
			if v > 1 {
				v = 1
			}
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round(v * 255))})
		}
	}
	return img
}

// SavePNG writes the grid to a single-channel PNG file.
func SavePNG(g *Grid, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, Encode(g)); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
