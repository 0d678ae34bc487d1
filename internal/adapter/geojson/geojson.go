// Package geojson renders geocoded site locations as a GeoJSON
// FeatureCollection for mapping tools.
package geojson

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/tmc-data-etl/internal/domain"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string                 `json:"type"`
	Geometry   geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // lon, lat
}

// Marshal renders every geocoded site as a point feature. Sites without
// coordinates are skipped; the report's warnings already flag them.
func Marshal(r *domain.Report) ([]byte, error) {
	fc := featureCollection{Type: "FeatureCollection", Features: []feature{}}

	for _, site := range r.Sites {
		if site.Geo == nil {
			continue
		}
		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			Geometry: geometry{
				Type:        "Point",
				Coordinates: [2]float64{site.Geo.Lon, site.Geo.Lat},
			},
			Properties: map[string]interface{}{
				"location_id":   site.Meta.LocationID,
				"location_name": site.Meta.Name,
				"date":          r.Date.Format("2006-01-02"),
				"am_peak":       site.PeakText(domain.AM),
				"pm_peak":       site.PeakText(domain.PM),
			},
		})
	}

	return json.MarshalIndent(fc, "", "  ")
}

// WriteFile marshals the report's geocoded sites to a GeoJSON file.
func WriteFile(path string, r *domain.Report) error {
	data, err := Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write geojson %s: %w", path, err)
	}
	return nil
}
