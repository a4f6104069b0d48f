package domain

import (
	"image"
	"image/color"
	"math"
)

// RasterSize is the fixed pixel edge length of hazard rasters requested from
// the WMS; the service renders hazard zones into an 800×800 image per
// bounding box.
const RasterSize = 800

// channelNoiseThreshold filters anti-aliased near-transparent edge pixels.
// A pixel counts as a hazard zone only when its alpha AND at least one color
// channel exceed this value.
const channelNoiseThreshold = 10

// RasterSample is a decoded hazard image pinned to the geographic bounding
// box it was rendered for. It is built once per tier per analysis and
// read-only afterward.
type RasterSample struct {
	Tier   HazardTier
	Bounds BoundingBox
	Image  image.Image
	Width  int
	Height int
}

// NewRasterSample wraps a decoded image with its geographic extent.
func NewRasterSample(tier HazardTier, bounds BoundingBox, img image.Image) RasterSample {
	b := img.Bounds()
	return RasterSample{
		Tier:   tier,
		Bounds: bounds,
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}

// IsFlooded maps the coordinate linearly onto pixel space and inspects the
// pixel. Points outside the raster are not flooded. Pure: the same inputs
// always produce the same answer.
func (s RasterSample) IsFlooded(lat, lng float64) bool {
	spanX := s.Bounds.East - s.Bounds.West
	spanY := s.Bounds.North - s.Bounds.South
	if spanX <= 0 || spanY <= 0 || !s.Bounds.Contains(lat, lng) {
		return false
	}

	px := int(math.Floor((lng - s.Bounds.West) / spanX * float64(s.Width)))
	py := int(math.Floor((s.Bounds.North - lat) / spanY * float64(s.Height)))
	// Kept as a float-rounding backstop; Contains already excluded points
	// off the raster.
	if px < 0 || px >= s.Width || py < 0 || py >= s.Height {
		return false
	}

	min := s.Image.Bounds().Min
	// The threshold rule is defined on raw channel values as decoded from
	// the PNG. Color.RGBA() premultiplies by alpha, which would erase color
	// channels of low-alpha pixels; NRGBAModel recovers the raw values.
	c := color.NRGBAModel.Convert(s.Image.At(min.X+px, min.Y+py)).(color.NRGBA)

	if c.A <= channelNoiseThreshold {
		return false
	}
	return c.R > channelNoiseThreshold ||
		c.G > channelNoiseThreshold ||
		c.B > channelNoiseThreshold
}
