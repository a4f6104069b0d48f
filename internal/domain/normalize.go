package domain

// buildingCategories maps raw building tag values to derived categories.
// Matching is case-sensitive and exact; anything unlisted is CategoryOther.
var buildingCategories = map[string]BuildingCategory{
	"residential": CategoryResidential,
	"house":       CategoryResidential,
	"apartments":  CategoryResidential,
	"detached":    CategoryResidential,
	"terrace":     CategoryResidential,
	"semidetached_house": CategoryResidential,
	"dormitory":         CategoryResidential,

	"commercial":  CategoryCommercial,
	"retail":      CategoryCommercial,
	"office":      CategoryCommercial,
	"supermarket": CategoryCommercial,
	"hotel":       CategoryCommercial,
	"kiosk":       CategoryCommercial,

	"industrial": CategoryIndustrial,
	"warehouse":  CategoryIndustrial,
	"factory":    CategoryIndustrial,
	"manufacture": CategoryIndustrial,

	"school":       CategoryPublic,
	"kindergarten": CategoryPublic,
	"university":   CategoryPublic,
	"hospital":     CategoryPublic,
	"church":       CategoryPublic,
	"chapel":       CategoryPublic,
	"civic":        CategoryPublic,
	"public":       CategoryPublic,
	"government":   CategoryPublic,
	"fire_station": CategoryPublic,

	"train_station":  CategoryInfrastructure,
	"transportation": CategoryInfrastructure,
	"parking":        CategoryInfrastructure,
	"bridge":         CategoryInfrastructure,
	"water_tower":    CategoryInfrastructure,
	"transformer_tower": CategoryInfrastructure,
}

// ClassifyBuildingType resolves a raw building tag value to its category.
func ClassifyBuildingType(buildingType string) BuildingCategory {
	if c, ok := buildingCategories[buildingType]; ok {
		return c
	}
	return CategoryOther
}

// biotopeCategories maps the two-character prefix of a biotope type code to
// one of the nine land-cover categories. Unmatched prefixes map to "other".
var biotopeCategories = map[string]string{
	"01": "water",
	"02": "wetland",
	"03": "ruderal",
	"05": "grassland",
	"06": "barren",
	"07": "shrubs",
	"08": "forest",
	"09": "agriculture",
	"12": "urban",
}

// ClassifyBiotopeCode resolves a biotope type code by its 2-character prefix.
func ClassifyBiotopeCode(code string) string {
	if len(code) < 2 {
		return "other"
	}
	if c, ok := biotopeCategories[code[:2]]; ok {
		return c
	}
	return "other"
}

// NormalizeBuildings resolves every way carrying a building tag into a
// Building with a mean-of-vertices centroid. Ways whose node references
// cannot all be resolved keep the nodes that do resolve; a way left without
// any resolvable node is dropped. Missing references are a data-quality
// tolerance, not an error.
func NormalizeBuildings(graph ElementGraph) []Building {
	nodes := indexNodes(graph.Nodes)

	buildings := make([]Building, 0, len(graph.Ways))
	for _, way := range graph.Ways {
		typ, ok := way.Tags["building"]
		if !ok {
			continue
		}

		var sumLat, sumLng float64
		var count int
		for _, ref := range way.Nodes {
			n, ok := nodes[ref]
			if !ok {
				continue
			}
			sumLat += n.Lat
			sumLng += n.Lon
			count++
		}
		if count == 0 {
			continue
		}

		buildings = append(buildings, Building{
			ID:       way.ID,
			Type:     typ,
			Category: ClassifyBuildingType(typ),
			Centroid: LatLng{Lat: sumLat / float64(count), Lng: sumLng / float64(count)},
			Name:     way.Tags["name"],
		})
	}
	return buildings
}

// NormalizeRoads resolves every way carrying a highway tag into a
// RoadSegment. Ways with fewer than two resolvable nodes are dropped
// silently.
func NormalizeRoads(graph ElementGraph) []RoadSegment {
	nodes := indexNodes(graph.Nodes)

	roads := make([]RoadSegment, 0, len(graph.Ways))
	for _, way := range graph.Ways {
		class, ok := way.Tags["highway"]
		if !ok {
			continue
		}

		points := make([]LatLng, 0, len(way.Nodes))
		for _, ref := range way.Nodes {
			n, ok := nodes[ref]
			if !ok {
				continue
			}
			points = append(points, LatLng{Lat: n.Lat, Lng: n.Lon})
		}
		if len(points) < 2 {
			continue
		}

		roads = append(roads, RoadSegment{
			ID:       way.ID,
			Class:    class,
			Name:     way.Tags["name"],
			IsBridge: way.Tags["bridge"] != "" && way.Tags["bridge"] != "no",
			IsTunnel: way.Tags["tunnel"] != "" && way.Tags["tunnel"] != "no",
			Points:   points,
		})
	}
	return roads
}

func indexNodes(nodes []Node) map[int64]Node {
	idx := make(map[int64]Node, len(nodes))
	for _, n := range nodes {
		idx[n.ID] = n
	}
	return idx
}
