package geocoding

import (
	"fmt"
	"strconv"

	"github.com/pricewise/backend/internal/domain"
)

// searchResult is one element of the search API response. Coordinates arrive as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// mapToPlace converts a search result to our domain Place
func mapToPlace(r searchResult) (*domain.Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad latitude %q", domain.ErrGeocoderFailure, r.Lat)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad longitude %q", domain.ErrGeocoderFailure, r.Lon)
	}

	loc := domain.GeoPoint{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeocoderFailure, err)
	}

	return &domain.Place{DisplayName: r.DisplayName, Location: loc}, nil
}
