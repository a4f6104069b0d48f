package domain

import (
	"fmt"
	"math"
)

// mercatorExtent is the half-width of the Web-Mercator plane in meters,
// i.e. Earth's equatorial circumference / 2. Upstream services (hazard WMS,
// biotope WFS, census dataset) all deliver EPSG:3857 geometry derived from
// this exact constant, so the projection below must match it bit-for-bit.
const mercatorExtent = 20037508.34

// earthRadiusKm is the mean Earth radius used for haversine distances.
const earthRadiusKm = 6371.0

// LatLng is a WGS-84 coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MercatorPoint is a projected EPSG:3857 coordinate pair in meters.
type MercatorPoint struct {
	X float64
	Y float64
}

// Project converts a WGS-84 coordinate to Web-Mercator meters using the
// closed-form spherical formula. Behavior at |lat| >= 90 is undefined;
// callers must not pass pole coordinates.
func Project(lat, lng float64) MercatorPoint {
	x := lng * mercatorExtent / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	return MercatorPoint{X: x, Y: y * mercatorExtent / 180}
}

// Unproject inverts Project, converting Web-Mercator meters back to WGS-84
// degrees.
func Unproject(p MercatorPoint) LatLng {
	lng := p.X * 180 / mercatorExtent
	lat := math.Atan(math.Exp(p.Y*math.Pi/mercatorExtent))*360/math.Pi - 90
	return LatLng{Lat: lat, Lng: lng}
}

// Haversine returns the great-circle distance between two coordinates in
// kilometers.
func Haversine(a, b LatLng) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*sinLng*sinLng

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// BoundingBox is a geographic extent in WGS-84 degrees.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Contains reports whether the point lies inside the box (west/south edges
// inclusive, east/north exclusive, matching raster pixel mapping).
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lng >= b.West && lng < b.East && lat > b.South && lat <= b.North
}

// AnalysisArea is the user-selected region: a closed ring of WGS-84
// coordinates. The first and last vertex are logically identical; Ring
// tolerates input with or without the explicit closing vertex.
type AnalysisArea struct {
	Vertices []LatLng
}

// NewAnalysisArea validates and constructs an area from a vertex ring.
// The ring must contain at least three distinct vertices.
func NewAnalysisArea(vertices []LatLng) (AnalysisArea, error) {
	distinct := make(map[LatLng]struct{}, len(vertices))
	for _, v := range vertices {
		distinct[v] = struct{}{}
	}
	if len(distinct) < 3 {
		return AnalysisArea{}, &GeometryError{
			Reason: fmt.Sprintf("polygon needs at least 3 distinct vertices, got %d", len(distinct)),
		}
	}
	return AnalysisArea{Vertices: vertices}, nil
}

// Ring returns the vertex ring with an explicit closing vertex.
func (a AnalysisArea) Ring() []LatLng {
	if len(a.Vertices) == 0 {
		return nil
	}
	if a.Vertices[0] == a.Vertices[len(a.Vertices)-1] {
		return a.Vertices
	}
	ring := make([]LatLng, 0, len(a.Vertices)+1)
	ring = append(ring, a.Vertices...)
	return append(ring, a.Vertices[0])
}

// Bounds returns the smallest bounding box enclosing the area.
func (a AnalysisArea) Bounds() BoundingBox {
	b := BoundingBox{West: math.Inf(1), South: math.Inf(1), East: math.Inf(-1), North: math.Inf(-1)}
	for _, v := range a.Vertices {
		b.West = math.Min(b.West, v.Lng)
		b.East = math.Max(b.East, v.Lng)
		b.South = math.Min(b.South, v.Lat)
		b.North = math.Max(b.North, v.Lat)
	}
	return b
}

// AreaKm2 returns the approximate area in square kilometers, computed with
// the shoelace formula over the Web-Mercator projection and corrected for
// the Mercator scale factor at the area's mean latitude.
func (a AnalysisArea) AreaKm2() float64 {
	ring := a.Ring()
	if len(ring) < 4 {
		return 0
	}

	var sum, meanLat float64
	for i := 0; i < len(ring)-1; i++ {
		p := Project(ring[i].Lat, ring[i].Lng)
		q := Project(ring[i+1].Lat, ring[i+1].Lng)
		sum += p.X*q.Y - q.X*p.Y
		meanLat += ring[i].Lat
	}
	meanLat /= float64(len(ring) - 1)

	scale := math.Cos(meanLat * math.Pi / 180)
	return math.Abs(sum) / 2 * scale * scale / 1e6
}
