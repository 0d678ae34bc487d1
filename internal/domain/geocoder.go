package domain

import "context"

// Geo is a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Geo              Geo
	FormattedAddress string
}

// Geocoder resolves a free-text location query to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (GeocodingResult, error)
}
