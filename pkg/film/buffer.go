package film

import (
	"image"
	"image/color"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

// Buffer is an immutable copy of the film, handed to image writers
type Buffer struct {
	Width, Height int
	Color         []core.Vec3 // mean radiance
	Alpha         []float64   // surface coverage
	Normal        []core.Vec3 // mean first-hit normal
	Background    []core.Vec3 // mean directly seen sky
	Counts        []int       // samples per pixel
	Clamped       int64       // clamped sample components
}

// At returns the mean radiance at (x, y)
func (b *Buffer) At(x, y int) core.Vec3 {
	return b.Color[y*b.Width+x]
}

// RGBA tone-maps the colour channel with the given gamma into an 8-bit image
func (b *Buffer) RGBA(gamma float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := b.Color[y*b.Width+x].GammaCorrect(gamma).Clamp(0.0, 1.0)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(255 * c.X),
				G: uint8(255 * c.Y),
				B: uint8(255 * c.Z),
				A: 255,
			})
		}
	}
	return img
}

// RGBA64 is RGBA at 16 bits per channel, with alpha from the coverage AOV
// when withAlpha is set
func (b *Buffer) RGBA64(gamma float64, withAlpha bool) *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			i := y*b.Width + x
			c := b.Color[i].GammaCorrect(gamma).Clamp(0.0, 1.0)
			a := 1.0
			if withAlpha {
				a = min(max(b.Alpha[i], 0), 1)
				c = c.Multiply(a) // premultiplied
			}
			img.SetRGBA64(x, y, color.RGBA64{
				R: uint16(65535 * c.X),
				G: uint16(65535 * c.Y),
				B: uint16(65535 * c.Z),
				A: uint16(65535 * a),
			})
		}
	}
	return img
}

// NormalImage maps the normal AOV from [-1, 1] to an 8-bit image
func (b *Buffer) NormalImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, n := range b.Normal {
		c := n.Multiply(0.5).Add(core.NewVec3(0.5, 0.5, 0.5)).Clamp(0, 1)
		img.SetRGBA(i%b.Width, i/b.Width, color.RGBA{R: uint8(255 * c.X), G: uint8(255 * c.Y), B: uint8(255 * c.Z), A: 255})
	}
	return img
}

// TotalSamples sums the per-pixel sample counts
func (b *Buffer) TotalSamples() int {
	total := 0
	for _, c := range b.Counts {
		total += c
	}
	return total
}
