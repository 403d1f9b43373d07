// Package routes joins extracted flights with resolved coordinates into one
// drawable route per destination.
package routes

import (
	"fmt"
	"slices"

	"github.com/dgallion1/wikiroutes/internal/model"
)

// Assembly is the renderable outcome of one search.
type Assembly struct {
	Routes       []model.RouteRecord `json:"routes"`
	Unlocated    []string            `json:"unlocated"`    // destination keys with no coordinate
	Destinations int                 `json:"destinations"` // distinct destination keys
}

// Summary reports unlocated destinations, or "" when every destination
// was placed.
func (a Assembly) Summary() string {
	if len(a.Unlocated) == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d destinations could not be located.", len(a.Unlocated), a.Destinations)
}

// DestinationKeys returns the distinct destination keys in first-seen order.
func DestinationKeys(flights []model.FlightRecord) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, f := range flights {
		if f.DestinationKey == "" || seen[f.DestinationKey] {
			continue
		}
		seen[f.DestinationKey] = true
		keys = append(keys, f.DestinationKey)
	}
	return keys
}

type group struct {
	key      string
	name     string
	airlines []string
}

// Assemble groups flights by destination key, unions the airlines serving
// each destination, and attaches coordinates. Groups without a coordinate
// are reported in Unlocated instead of Routes.
func Assemble(origin model.Coordinate, flights []model.FlightRecord, coords map[string]model.Coordinate) Assembly {
	var groups []*group
	byKey := make(map[string]*group)
	for _, f := range flights {
		if f.DestinationKey == "" {
			continue
		}
		g, ok := byKey[f.DestinationKey]
		if !ok {
			g = &group{key: f.DestinationKey, name: f.DestinationName}
			byKey[f.DestinationKey] = g
			groups = append(groups, g)
		}
		if !slices.Contains(g.airlines, f.Airline) {
			g.airlines = append(g.airlines, f.Airline)
		}
	}

	a := Assembly{
		Routes:       []model.RouteRecord{},
		Unlocated:    []string{},
		Destinations: len(groups),
	}
	for _, g := range groups {
		dest, ok := coords[g.key]
		if !ok {
			a.Unlocated = append(a.Unlocated, g.key)
			continue
		}
		a.Routes = append(a.Routes, model.RouteRecord{
			Origin:           origin,
			Destination:      dest,
			DisplayLongitude: DisplayLongitude(origin.Lon, dest.Lon),
			DestinationName:  g.name,
			DestinationKey:   g.key,
			Airlines:         g.airlines,
			DistanceKM:       origin.Latlong().DistKM(dest.Latlong()),
		})
	}
	return a
}

// DisplayLongitude shifts destLon by a full turn when that puts it within
// 180° of originLon, so a straight line on a flat map takes the short way
// across the antimeridian.
func DisplayLongitude(originLon, destLon float64) float64 {
	switch diff := destLon - originLon; {
	case diff > 180:
		return destLon - 360
	case diff < -180:
		return destLon + 360
	}
	return destLon
}
