// Package network holds the canonical entity lists the planner consumes: the
// intermodal platforms of the rail/river network and the weekly-recurring
// scheduled services between them. Both are supplied wholesale by the upstream
// ingestion pipeline and are immutable for the duration of a search.
package network

import (
	"time"

	"github.com/tidwall/rtree"

	"combiroute.fr/internal/geo"
)

// CargoUnit identifies one kind of intermodal loading unit (UTI).
type CargoUnit string

const (
	CargoSwapBody            CargoUnit = "swap_body"
	CargoContainer           CargoUnit = "container"
	CargoCraneableTrailer    CargoUnit = "craneable_trailer"
	CargoNonCraneableTrailer CargoUnit = "non_craneable_trailer"
	CargoP400Trailer         CargoUnit = "p400_trailer"
)

// AllCargoUnits lists every known cargo-unit kind, in display order.
var AllCargoUnits = []CargoUnit{
	CargoSwapBody,
	CargoContainer,
	CargoCraneableTrailer,
	CargoNonCraneableTrailer,
	CargoP400Trailer,
}

// ParseCargoUnit maps a wire name to a CargoUnit. The bool reports whether
// the name is known.
func ParseCargoUnit(s string) (CargoUnit, bool) {
	for _, u := range AllCargoUnits {
		if string(u) == s {
			return u, true
		}
	}
	return "", false
}

// Platform is one physical interchange point of the network. Its ID is
// globally unique and its coordinates are always present; platforms without
// coordinates are excluded upstream.
type Platform struct {
	ID         string
	City       string
	Operator   string
	Department string
	Country    string
	Lat        float64
	Lon        float64
	RailYard   bool
}

// Service is one weekly-recurring scheduled departure between two platforms.
// Origin == Destination is not expected but must be tolerated.
type Service struct {
	Operator      string
	OriginID      string
	DestinationID string

	DepartureDay  time.Weekday
	DepartureTime string // "15:04"
	ArrivalDay    time.Weekday
	ArrivalTime   string

	// Independent acceptance flags, one per cargo-unit kind.
	AcceptsSwapBody            bool
	AcceptsContainer           bool
	AcceptsCraneableTrailer    bool
	AcceptsNonCraneableTrailer bool
	AcceptsP400Trailer         bool
}

// Accepts reports whether the service carries the given cargo-unit kind.
func (s *Service) Accepts(u CargoUnit) bool {
	switch u {
	case CargoSwapBody:
		return s.AcceptsSwapBody
	case CargoContainer:
		return s.AcceptsContainer
	case CargoCraneableTrailer:
		return s.AcceptsCraneableTrailer
	case CargoNonCraneableTrailer:
		return s.AcceptsNonCraneableTrailer
	case CargoP400Trailer:
		return s.AcceptsP400Trailer
	}
	return false
}

// AcceptsAll reports whether the service individually accepts every requested
// kind. This is a conjunction: it is never sufficient that a route offers the
// requested kinds spread across different services. An empty filter always
// qualifies.
func (s *Service) AcceptsAll(units []CargoUnit) bool {
	for _, u := range units {
		if !s.Accepts(u) {
			return false
		}
	}
	return true
}

// PlatformDistance pairs a platform with its distance from a reference point.
type PlatformDistance struct {
	Platform *Platform
	Km       float64
}

// Dataset is an immutable, query-ready view of the network: platform lookup
// by ID plus a spatial index for radius searches. Build one per canonical
// entity snapshot and share it freely across concurrent queries.
type Dataset struct {
	platforms []*Platform
	services  []*Service
	byID      map[string]*Platform
	spatial   rtree.RTreeG[*Platform]
}

// NewDataset indexes the given entity lists. The slices are retained; callers
// must not mutate them afterwards.
func NewDataset(platforms []*Platform, services []*Service) *Dataset {
	ds := &Dataset{
		platforms: platforms,
		services:  services,
		byID:      make(map[string]*Platform, len(platforms)),
	}
	for _, p := range platforms {
		ds.byID[p.ID] = p
		ds.spatial.Insert([2]float64{p.Lon, p.Lat}, [2]float64{p.Lon, p.Lat}, p)
	}
	return ds
}

// Platforms returns every platform in the dataset.
func (ds *Dataset) Platforms() []*Platform {
	return ds.platforms
}

// Services returns every scheduled service in the dataset.
func (ds *Dataset) Services() []*Service {
	return ds.services
}

// PlatformByID returns the platform with the given ID, or nil.
func (ds *Dataset) PlatformByID(id string) *Platform {
	return ds.byID[id]
}

// PlatformsWithinKm returns every platform within radiusKm of (lat, lon),
// with its exact great-circle distance. The spatial index narrows candidates
// to a bounding box; each hit is re-checked against the true distance.
func (ds *Dataset) PlatformsWithinKm(lat, lon, radiusKm float64) []PlatformDistance {
	bounds := geo.CalculateBounds(lat, lon, radiusKm)

	var result []PlatformDistance
	ds.spatial.Search(
		[2]float64{bounds.MinLon, bounds.MinLat},
		[2]float64{bounds.MaxLon, bounds.MaxLat},
		func(_, _ [2]float64, p *Platform) bool {
			km := geo.DistanceKm(lat, lon, p.Lat, p.Lon)
			if km <= radiusKm {
				result = append(result, PlatformDistance{Platform: p, Km: km})
			}
			return true
		},
	)
	return result
}
