package redisom

import (
	"fmt"
	"strconv"
	"strings"
)

// GeoPoint is a longitude/latitude pair. It serializes to the store's
// native "lon,lat" string form so GEO index attributes can match it.
type GeoPoint struct {
	Longitude float64
	Latitude  float64
}

// String renders the point as "lon,lat".
func (p GeoPoint) String() string {
	return strconv.FormatFloat(p.Longitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Latitude, 'f', -1, 64)
}

// MarshalJSON encodes the point as a "lon,lat" JSON string.
func (p GeoPoint) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON decodes a "lon,lat" JSON string.
func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("geo point must be a string: %w", err)
	}
	lonStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return fmt.Errorf("geo point %q: want \"lon,lat\"", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return fmt.Errorf("geo point longitude %q: %w", lonStr, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return fmt.Errorf("geo point latitude %q: %w", latStr, err)
	}
	p.Longitude = lon
	p.Latitude = lat
	return nil
}

// GeoUnit is a distance unit accepted by radius queries.
type GeoUnit string

const (
	Meters     GeoUnit = "m"
	Kilometers GeoUnit = "km"
	Miles      GeoUnit = "mi"
	Feet       GeoUnit = "ft"
)

func (u GeoUnit) valid() bool {
	switch u {
	case Meters, Kilometers, Miles, Feet:
		return true
	}
	return false
}
