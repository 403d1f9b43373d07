package model

import (
	"strings"

	"github.com/skypies/geo"
)

// Coordinate is a WGS-84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Latlong converts to the geo package's point type.
func (c Coordinate) Latlong() geo.Latlong {
	return geo.Latlong{Lat: c.Lat, Long: c.Lon}
}

// FlightRecord is one airline serving one linked destination.
type FlightRecord struct {
	Airline         string `json:"airline"`
	DestinationName string `json:"destination_name"`
	DestinationKey  string `json:"destination_key"` // canonical title of the linked article
}

// RouteRecord is a single origin→destination line carrying every airline
// that serves the destination.
type RouteRecord struct {
	Origin           Coordinate `json:"origin"`
	Destination      Coordinate `json:"destination"`
	DisplayLongitude float64    `json:"display_lon"` // destination lon shifted to cross the date line the short way
	DestinationName  string     `json:"destination_name"`
	DestinationKey   string     `json:"destination_key"`
	Airlines         []string   `json:"airlines"`
	DistanceKM       float64    `json:"distance_km"`
}

// Label is the tooltip text for a route, e.g. "Qantas, Jetstar: Melbourne".
func (r RouteRecord) Label() string {
	return strings.Join(r.Airlines, ", ") + ": " + r.DestinationName
}

// PageCoordinates is what the primary source knows about one resolved page.
type PageCoordinates struct {
	Title        string
	Coordinate   *Coordinate
	WikibaseItem string // cross-reference key, set when known
}

// PageBatch is the primary source's answer for one batch of identifiers.
type PageBatch struct {
	Pages []PageCoordinates

	// Normalized and Redirects map a queried (or normalized) title to the
	// title the source actually answered for.
	Normalized map[string]string
	Redirects  map[string]string
}
