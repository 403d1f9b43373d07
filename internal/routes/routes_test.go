package routes

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/dgallion1/wikiroutes/internal/model"
)

var sydney = model.Coordinate{Lat: -33.9461, Lon: 151.1772}

func sampleFlights() []model.FlightRecord {
	return []model.FlightRecord{
		{Airline: "Qantas", DestinationName: "Melbourne", DestinationKey: "Melbourne Airport"},
		{Airline: "Jetstar", DestinationName: "Melbourne", DestinationKey: "Melbourne Airport"},
		{Airline: "Qantas", DestinationName: "Auckland", DestinationKey: "Auckland Airport"},
		{Airline: "Qantas", DestinationName: "Melbourne–Tullamarine", DestinationKey: "Melbourne Airport"},
		{Airline: "Air Niugini", DestinationName: "Port Moresby", DestinationKey: "Jacksons International Airport"},
	}
}

func sampleCoords() map[string]model.Coordinate {
	return map[string]model.Coordinate{
		"Melbourne Airport": {Lat: -37.669, Lon: 144.841},
		"Auckland Airport":  {Lat: -37.008, Lon: 174.792},
	}
}

func TestAssemble_GroupsByDestinationKey(t *testing.T) {
	a := Assemble(sydney, sampleFlights(), sampleCoords())

	if a.Destinations != 3 {
		t.Errorf("expected 3 destinations, got %d", a.Destinations)
	}
	if len(a.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(a.Routes))
	}
	mel := a.Routes[0]
	if mel.DestinationKey != "Melbourne Airport" || mel.DestinationName != "Melbourne" {
		t.Errorf("unexpected first route %+v", mel)
	}
	if !slices.Equal(mel.Airlines, []string{"Qantas", "Jetstar"}) {
		t.Errorf("expected first-seen airline order, got %v", mel.Airlines)
	}
	if mel.Label() != "Qantas, Jetstar: Melbourne" {
		t.Errorf("unexpected label %q", mel.Label())
	}
	if mel.Origin != sydney {
		t.Errorf("expected origin carried through, got %+v", mel.Origin)
	}
	if mel.DistanceKM < 650 || mel.DistanceKM > 760 {
		t.Errorf("expected SYD-MEL roughly 705km, got %f", mel.DistanceKM)
	}
}

func TestAssemble_UnlocatedCounted(t *testing.T) {
	a := Assemble(sydney, sampleFlights(), sampleCoords())
	if !slices.Equal(a.Unlocated, []string{"Jacksons International Airport"}) {
		t.Errorf("unexpected unlocated %v", a.Unlocated)
	}
	if got := a.Summary(); got != "1 of 3 destinations could not be located." {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestAssemble_AllLocatedHasNoSummary(t *testing.T) {
	a := Assemble(sydney, sampleFlights()[:3], sampleCoords())
	if a.Summary() != "" {
		t.Errorf("expected empty summary, got %q", a.Summary())
	}
}

func TestAssemble_ReorderingKeepsAirlineSets(t *testing.T) {
	base := Assemble(sydney, sampleFlights(), sampleCoords())
	want := map[string][]string{}
	for _, r := range base.Routes {
		want[r.DestinationKey] = slices.Sorted(slices.Values(r.Airlines))
	}

	for i := range 20 {
		flights := sampleFlights()
		rng := rand.New(rand.NewPCG(uint64(i), 7))
		rng.Shuffle(len(flights), func(a, b int) { flights[a], flights[b] = flights[b], flights[a] })

		got := Assemble(sydney, flights, sampleCoords())
		if len(got.Routes) != len(base.Routes) {
			t.Fatalf("shuffle %d: expected %d routes, got %d", i, len(base.Routes), len(got.Routes))
		}
		for _, r := range got.Routes {
			if !slices.Equal(slices.Sorted(slices.Values(r.Airlines)), want[r.DestinationKey]) {
				t.Errorf("shuffle %d: %s airlines %v, want %v", i, r.DestinationKey, r.Airlines, want[r.DestinationKey])
			}
			if r.Destination != sampleCoords()[r.DestinationKey] {
				t.Errorf("shuffle %d: %s coordinate changed", i, r.DestinationKey)
			}
		}
	}
}

func TestAssemble_EmptyInput(t *testing.T) {
	a := Assemble(sydney, nil, nil)
	if a.Routes == nil || len(a.Routes) != 0 || a.Destinations != 0 {
		t.Errorf("expected empty non-nil routes, got %+v", a)
	}
}

func TestDisplayLongitude(t *testing.T) {
	tests := []struct {
		origin, dest, want float64
	}{
		{170, -170, 190},
		{-170, 170, -190},
		{151, 144, 144},
		{0, 180, 180},
	}
	for _, tt := range tests {
		if got := DisplayLongitude(tt.origin, tt.dest); got != tt.want {
			t.Errorf("DisplayLongitude(%v, %v) = %v, want %v", tt.origin, tt.dest, got, tt.want)
		}
	}
}

func TestDestinationKeys_FirstSeenOrder(t *testing.T) {
	got := DestinationKeys(sampleFlights())
	want := []string{"Melbourne Airport", "Auckland Airport", "Jacksons International Airport"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
