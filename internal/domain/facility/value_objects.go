package facility

import "strings"

type Coordinate struct {
	lat float64
	lng float64
}

func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Coordinate{}, ErrInvalidCoordinate
	}
	return Coordinate{lat: lat, lng: lng}, nil
}

func (c Coordinate) Lat() float64 { return c.lat }
func (c Coordinate) Lng() float64 { return c.lng }

// KnownCities are the cities offered by the city picker.
var KnownCities = []string{"Nairobi", "Mombasa", "Machakos", "Nakuru", "Kisumu"}

// MatchesCity reports whether a facility city passes the filter. An empty filter matches everything.
func MatchesCity(city, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(city), filter)
}
