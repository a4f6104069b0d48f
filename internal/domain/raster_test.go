package domain

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// testBounds is the reference box used throughout: a 0.1 degree square with
// its center at (52.05, 13.05).
var testBounds = BoundingBox{West: 13.0, South: 52.0, East: 13.1, North: 52.1}

func blankSample() (RasterSample, *image.NRGBA) {
	img := image.NewNRGBA(image.Rect(0, 0, RasterSize, RasterSize))
	return NewRasterSample(TierHigh, testBounds, img), img
}

func TestRasterSample_IsFlooded(t *testing.T) {
	t.Run("center point maps to pixel 400,400 and transparent is dry", func(t *testing.T) {
		sample, img := blankSample()
		img.SetNRGBA(400, 400, color.NRGBA{})
		assert.False(t, sample.IsFlooded(52.05, 13.05))
	})

	t.Run("colored opaque pixel at center is flooded", func(t *testing.T) {
		sample, img := blankSample()
		img.SetNRGBA(400, 400, color.NRGBA{R: 120, G: 180, B: 255, A: 200})
		assert.True(t, sample.IsFlooded(52.05, 13.05))

		// The neighboring pixel stays dry: the mapping really is 400,400.
		assert.False(t, sample.IsFlooded(52.05, 13.05+0.1/RasterSize))
	})

	t.Run("alpha at noise threshold is dry", func(t *testing.T) {
		sample, img := blankSample()
		img.SetNRGBA(400, 400, color.NRGBA{R: 255, G: 255, B: 255, A: 10})
		assert.False(t, sample.IsFlooded(52.05, 13.05))
	})

	t.Run("opaque but near-black pixel is dry", func(t *testing.T) {
		sample, img := blankSample()
		img.SetNRGBA(400, 400, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
		assert.False(t, sample.IsFlooded(52.05, 13.05))
	})

	t.Run("single channel above threshold is flooded", func(t *testing.T) {
		sample, img := blankSample()
		img.SetNRGBA(400, 400, color.NRGBA{B: 11, A: 11})
		assert.True(t, sample.IsFlooded(52.05, 13.05))
	})

	t.Run("premultiplied source image recovers raw channels", func(t *testing.T) {
		// An alpha-premultiplied image stores B=255,A=20 as B=20; the
		// classifier must compare the raw value, not the stored one.
		img := image.NewRGBA(image.Rect(0, 0, RasterSize, RasterSize))
		img.Set(400, 400, color.NRGBA{B: 255, A: 20})
		sample := NewRasterSample(TierHigh, testBounds, img)

		assert.True(t, sample.IsFlooded(52.05, 13.05))
	})

	t.Run("points outside the box are dry", func(t *testing.T) {
		sample, img := blankSample()
		for x := 0; x < RasterSize; x++ {
			for y := 0; y < RasterSize; y++ {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			}
		}

		assert.True(t, sample.IsFlooded(52.05, 13.05))
		assert.False(t, sample.IsFlooded(52.05, 12.99), "west of box")
		assert.False(t, sample.IsFlooded(52.05, 13.11), "east of box")
		assert.False(t, sample.IsFlooded(51.99, 13.05), "south of box")
		assert.False(t, sample.IsFlooded(52.11, 13.05), "north of box")
	})

	t.Run("pure function of inputs", func(t *testing.T) {
		sample, img := blankSample()
		img.SetNRGBA(123, 456, color.NRGBA{R: 60, G: 60, B: 200, A: 255})

		lat := testBounds.North - (456.5/RasterSize)*0.1
		lng := testBounds.West + (123.5/RasterSize)*0.1

		first := sample.IsFlooded(lat, lng)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, sample.IsFlooded(lat, lng))
		}
		assert.True(t, first)
	})
}
