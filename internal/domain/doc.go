// Package domain models flood-hazard exposure of map features inside a
// user-drawn analysis area.
//
// # Hazard Data
//
// Flood extents come from a state hydrology WMS that renders three hazard
// recurrence classes as raster layers: HQ-extrem, HQ-hoch, and HQ-mittel,
// mapped here to the tiers extreme, high, and medium (severity order
// extreme > high > medium). The service renders hazard zones as colored,
// partially transparent pixels over a transparent background, so a pixel
// belongs to a hazard zone when both its alpha channel and at least one
// color channel exceed a small noise threshold. The threshold guards
// against anti-aliased edge pixels that are technically non-transparent but
// carry no hazard information.
//
// # Vector Features
//
// Buildings and roads arrive as an OpenStreetMap-style element graph: nodes
// with coordinates and ways referencing ordered node IDs. Conventions:
//
//	building=<type>   areal feature; type values like "residential",
//	                  "retail", or the generic "yes" for an untyped
//	                  building. Category derivation is an exact,
//	                  case-sensitive table lookup.
//	highway=<class>   linear feature; class values like "primary" or
//	                  "residential".
//	bridge / tunnel   any value except "no" marks the segment as critical
//	                  infrastructure for the majority-flooded report.
//
// Missing node references are filtered out rather than reported: upstream
// extracts clipped to a polygon routinely omit nodes just outside the
// boundary. A way reduced below its minimum vertex count is dropped.
//
// # Biotope Codes
//
// Land parcels carry a numeric biotope type code from an ecological survey
// dataset. The first two characters select the land-cover category:
//
//	01 water | 02 wetland | 03 ruderal | 05 grassland | 06 barren
//	07 shrubs | 08 forest | 09 agriculture | 12 urban
//
// Anything else, including truncated codes, is "other".
//
// # Projection
//
// Hazard tiles, biotope parcels, and commune polygons are all delivered in
// Web-Mercator (EPSG:3857) derived from the half-circumference constant
// 20037508.34. Project implements the matching closed-form spherical
// formula; reimplementing it with a different Earth model would shift
// parcel and commune geometry by tens of meters.
package domain
