package domain

// Node is a single coordinate-bearing element of a fetched element graph.
type Node struct {
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags,omitempty"`
}

// Way is an ordered list of node references carrying a tag map.
type Way struct {
	ID    int64             `json:"id"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// ElementGraph is the flat node/way collection returned by the vector
// feature source for one analysis area.
type ElementGraph struct {
	Nodes []Node
	Ways  []Way
}

// BuildingCategory is the derived classification of a building type tag.
type BuildingCategory string

const (
	CategoryResidential    BuildingCategory = "Residential"
	CategoryCommercial     BuildingCategory = "Commercial"
	CategoryIndustrial     BuildingCategory = "Industrial"
	CategoryPublic         BuildingCategory = "Public"
	CategoryInfrastructure BuildingCategory = "Infrastructure"
	CategoryOther          BuildingCategory = "Other"
)

// Building is an areal feature represented by the unweighted mean of its
// boundary node coordinates. The mean is deliberately not a true polygon
// centroid; it only has to land inside the right hazard pixel.
type Building struct {
	ID       int64
	Type     string // raw building tag value, e.g. "residential", "yes"
	Category BuildingCategory
	Centroid LatLng
	Name     string
	Risk     BuildingRisk
}

// SamplePoints returns the single classification point for the building.
func (b Building) SamplePoints() []LatLng { return []LatLng{b.Centroid} }

// RoadSegment is a linear feature: the resolved, ordered coordinates of one
// way carrying a road-class tag.
type RoadSegment struct {
	ID       int64
	Class    string // raw highway tag value, e.g. "primary"
	Name     string
	IsBridge bool
	IsTunnel bool
	Points   []LatLng
	Risk     RoadRisk
}

// SamplePoints returns the original vertices; the tagger resamples between
// them at a fixed interval.
func (r RoadSegment) SamplePoints() []LatLng { return r.Points }

// LandParcel is a classified land-cover polygon reduced to a representative
// point.
type LandParcel struct {
	ID          string
	TypeCode    string
	Description string
	Category    string // one of the nine biotope categories, or "other"
	Centroid    LatLng
	Risk        ParcelRisk
}

// SamplePoints returns the single classification point for the parcel.
func (p LandParcel) SamplePoints() []LatLng { return []LatLng{p.Centroid} }

// Feature is the capability shared by all taggable feature kinds: produce
// the points the raster classifier should inspect.
type Feature interface {
	SamplePoints() []LatLng
}
