// Package export writes and parses the tabular building artifact. The CSV
// is the analysis product handed to downstream GIS tooling, so the schema
// is stable: one row per building, coordinates at six decimal places, one
// flood flag per hazard tier plus the derived highest tier.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/floodscope/flood-exposure-service/internal/domain"
)

var header = []string{
	"id", "name", "type", "category",
	"lat", "lon",
	"flooded_extreme", "flooded_high", "flooded_medium",
	"highest_tier",
}

// WriteBuildings writes the tagged buildings as CSV, header first.
func WriteBuildings(w io.Writer, buildings []domain.Building) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, b := range buildings {
		row := []string{
			strconv.FormatInt(b.ID, 10),
			b.Name,
			b.Type,
			string(b.Category),
			strconv.FormatFloat(b.Centroid.Lat, 'f', 6, 64),
			strconv.FormatFloat(b.Centroid.Lng, 'f', 6, 64),
			strconv.FormatBool(b.Risk.Extreme),
			strconv.FormatBool(b.Risk.High),
			strconv.FormatBool(b.Risk.Medium),
			string(b.Risk.Highest()),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write building %d: %w", b.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadBuildings parses a CSV previously produced by WriteBuildings. The
// highest_tier column is derived on write and ignored on read; it is
// recomputed from the three flags.
func ReadBuildings(r io.Reader) ([]domain.Building, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: missing header")
	}

	buildings := make([]domain.Building, 0, len(records)-1)
	for i, rec := range records[1:] {
		b, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		buildings = append(buildings, b)
	}
	return buildings, nil
}

func parseRow(rec []string) (domain.Building, error) {
	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return domain.Building{}, fmt.Errorf("id: %w", err)
	}
	lat, err := strconv.ParseFloat(rec[4], 64)
	if err != nil {
		return domain.Building{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(rec[5], 64)
	if err != nil {
		return domain.Building{}, fmt.Errorf("lon: %w", err)
	}

	var risk domain.BuildingRisk
	for _, f := range []struct {
		col  int
		dest *bool
	}{
		{6, &risk.Extreme},
		{7, &risk.High},
		{8, &risk.Medium},
	} {
		v, err := strconv.ParseBool(rec[f.col])
		if err != nil {
			return domain.Building{}, fmt.Errorf("%s: %w", header[f.col], err)
		}
		*f.dest = v
	}

	return domain.Building{
		ID:       id,
		Name:     rec[1],
		Type:     rec[2],
		Category: domain.BuildingCategory(rec[3]),
		Centroid: domain.LatLng{Lat: lat, Lng: lon},
		Risk:     risk,
	}, nil
}
