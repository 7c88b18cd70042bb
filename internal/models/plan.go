package models

import (
	"github.com/twpayne/go-polyline"

	"combiroute.fr/internal/network"
	"combiroute.fr/internal/resolver"
	"combiroute.fr/internal/routing"
)

// PlatformRef identifies one member platform of a city suggestion.
type PlatformRef struct {
	ID       string  `json:"id"`
	City     string  `json:"city,omitempty"`
	Operator string  `json:"operator,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RailYard bool    `json:"railYard,omitempty"`
}

// CitySuggestion is the autocomplete payload for one resolved city. Exactly
// one ranking signal is serialized: score for text matches, distanceKm for
// geocoded ones.
type CitySuggestion struct {
	City       string        `json:"city"`
	Lat        float64       `json:"lat"`
	Lon        float64       `json:"lon"`
	Country    string        `json:"country,omitempty"`
	Department string        `json:"department,omitempty"`
	ResolvedBy string        `json:"resolvedBy"`
	Score      *int          `json:"score,omitempty"`
	DistanceKm *float64      `json:"distanceKm,omitempty"`
	Platforms  []PlatformRef `json:"platforms"`
}

// NewCitySuggestion converts a resolver candidate into its API shape.
func NewCitySuggestion(s resolver.CitySuggestion) CitySuggestion {
	out := CitySuggestion{
		City:       s.City,
		Lat:        s.Lat,
		Lon:        s.Lon,
		Country:    s.Country,
		Department: s.Department,
		ResolvedBy: string(s.Resolution),
		Platforms:  make([]PlatformRef, 0, len(s.Platforms)),
	}
	switch s.Resolution {
	case resolver.ResolvedByText:
		score := s.BestScore
		out.Score = &score
	case resolver.ResolvedByGeocode:
		km := s.DistanceKm
		out.DistanceKm = &km
	}
	for _, p := range s.Platforms {
		out.Platforms = append(out.Platforms, PlatformRef{
			ID:       p.ID,
			City:     p.City,
			Operator: p.Operator,
			Lat:      p.Lat,
			Lon:      p.Lon,
			RailYard: p.RailYard,
		})
	}
	return out
}

// NewCitySuggestions converts a resolver result list. It always returns a
// non-nil slice so "nothing found" serializes as an empty JSON array.
func NewCitySuggestions(suggestions []resolver.CitySuggestion) []CitySuggestion {
	out := make([]CitySuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, NewCitySuggestion(s))
	}
	return out
}

// Departure is one weekly service realizing a leg.
type Departure struct {
	Operator      string   `json:"operator"`
	DepartureDay  string   `json:"departureDay"`
	DepartureTime string   `json:"departureTime"`
	ArrivalDay    string   `json:"arrivalDay"`
	ArrivalTime   string   `json:"arrivalTime"`
	CargoUnits    []string `json:"cargoUnits"`
}

// Leg is one operator-homogeneous hop of a found route.
type Leg struct {
	FromID          string      `json:"fromId"`
	FromLat         float64     `json:"fromLat"`
	FromLon         float64     `json:"fromLon"`
	ToID            string      `json:"toId"`
	ToLat           float64     `json:"toLat"`
	ToLon           float64     `json:"toLon"`
	Operator        string      `json:"operator"`
	WeeklyFrequency int         `json:"weeklyFrequency"`
	Departures      []Departure `json:"departures"`
}

// FoundRoute is one ranked itinerary. Polyline carries the leg coordinate
// sequence in Google encoded-polyline form for the map highlighter.
type FoundRoute struct {
	Kind            string   `json:"kind"`
	WeeklyFrequency int      `json:"weeklyFrequency"`
	Operators       []string `json:"operators"`
	DetourRatio     float64  `json:"detourRatio,omitempty"`
	Legs            []Leg    `json:"legs"`
	Polyline        string   `json:"polyline"`
}

// NewFoundRoute converts an engine route into its API shape.
func NewFoundRoute(r routing.FoundRoute) FoundRoute {
	out := FoundRoute{
		Kind:            string(r.Kind),
		WeeklyFrequency: r.WeeklyFreq,
		Operators:       r.Operators,
		Legs:            make([]Leg, 0, len(r.Legs)),
	}
	if r.Kind == routing.KindTransfer {
		out.DetourRatio = r.DetourRatio
	}

	coords := make([][]float64, 0, len(r.Legs)+1)
	for i, leg := range r.Legs {
		if i == 0 {
			coords = append(coords, []float64{leg.OriginLat, leg.OriginLon})
		}
		coords = append(coords, []float64{leg.DestinationLat, leg.DestinationLon})

		departures := make([]Departure, 0, len(leg.Services))
		for _, s := range leg.Services {
			departures = append(departures, newDeparture(s))
		}
		out.Legs = append(out.Legs, Leg{
			FromID:          leg.OriginID,
			FromLat:         leg.OriginLat,
			FromLon:         leg.OriginLon,
			ToID:            leg.DestinationID,
			ToLat:           leg.DestinationLat,
			ToLon:           leg.DestinationLon,
			Operator:        leg.Operator,
			WeeklyFrequency: leg.WeeklyFreq,
			Departures:      departures,
		})
	}
	out.Polyline = string(polyline.EncodeCoords(coords))
	return out
}

// NewFoundRoutes converts an engine result list, always non-nil.
func NewFoundRoutes(routes []routing.FoundRoute) []FoundRoute {
	out := make([]FoundRoute, 0, len(routes))
	for _, r := range routes {
		out = append(out, NewFoundRoute(r))
	}
	return out
}

func newDeparture(s *network.Service) Departure {
	units := make([]string, 0, len(network.AllCargoUnits))
	for _, u := range network.AllCargoUnits {
		if s.Accepts(u) {
			units = append(units, string(u))
		}
	}
	return Departure{
		Operator:      s.Operator,
		DepartureDay:  s.DepartureDay.String(),
		DepartureTime: s.DepartureTime,
		ArrivalDay:    s.ArrivalDay.String(),
		ArrivalTime:   s.ArrivalTime,
		CargoUnits:    units,
	}
}
