// Package resolver turns a free-text origin or destination into ranked
// city-level candidates, each carrying its member platforms. Text matching is
// tried first; when nothing matches strongly enough the geocoding gateway
// provides a coordinate to search around.
package resolver

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"combiroute.fr/internal/geo"
	"combiroute.fr/internal/geocode"
	"combiroute.fr/internal/network"
	"combiroute.fr/internal/textmatch"
)

const (
	// MetroMergeRadiusKm pulls textually-unmatched platforms into a matched
	// city's group when they sit within a metro area of it.
	MetroMergeRadiusKm = 15.0

	// GeocodeRadiusKm is the initial radius searched around a geocoded point.
	GeocodeRadiusKm = 50.0

	// GeocodeWideRadiusKm is the widened radius tried when the initial one
	// finds nothing.
	GeocodeWideRadiusKm = 150.0
)

// Resolution tags which ranking signal a suggestion carries.
type Resolution string

const (
	// ResolvedByText means BestScore is meaningful and DistanceKm is not.
	ResolvedByText Resolution = "text"
	// ResolvedByGeocode means DistanceKm is meaningful and BestScore is not.
	ResolvedByGeocode Resolution = "geocode"
)

// CitySuggestion is a resolved cluster of platforms sharing a city identity.
// Exactly one ranking signal is populated: BestScore on the text path,
// DistanceKm on the geocode path. The member platform list is never empty.
type CitySuggestion struct {
	City       string
	Lat        float64
	Lon        float64
	Country    string
	Department string
	Platforms  []*network.Platform
	Resolution Resolution
	BestScore  int
	DistanceKm float64
}

// Resolver resolves free-text queries against one dataset snapshot.
type Resolver struct {
	dataset *network.Dataset
	gateway geocode.Gateway
	logger  *slog.Logger
}

// New creates a resolver over the given dataset. The gateway may be nil, in
// which case the geocode fallback simply finds nothing.
func New(dataset *network.Dataset, gateway geocode.Gateway, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		dataset: dataset,
		gateway: gateway,
		logger:  logger.With(slog.String("component", "city_resolver")),
	}
}

// Resolve returns ranked city candidates for the query. An empty result means
// "not found" and is never an error: a failed or empty geocode lookup
// degrades to an empty list. The context bounds the gateway call; a caller
// superseding this query cancels it to discard the stale in-flight lookup.
func (r *Resolver) Resolve(ctx context.Context, query string) []CitySuggestion {
	if textmatch.Normalize(query) == "" {
		return nil
	}

	if suggestions := r.resolveByText(query); len(suggestions) > 0 {
		return suggestions
	}
	return r.resolveByGeocode(ctx, query)
}

type cityGroup struct {
	key          string
	platforms    []*network.Platform
	scores       map[string]int // platform ID -> match score; merged members absent
	bestScore    int
	minDistKm    float64
	bestPlatform *network.Platform
}

// resolveByText scores every platform, keeps strong matches, groups them by
// city and absorbs nearby unmatched platforms into each group.
func (r *Resolver) resolveByText(query string) []CitySuggestion {
	groups := make(map[string]*cityGroup)
	var matched []*network.Platform
	scores := make(map[string]int)

	for _, p := range r.dataset.Platforms() {
		score := textmatch.MatchScore(query, p)
		if !textmatch.IsStrong(score) {
			continue
		}
		matched = append(matched, p)
		scores[p.ID] = score

		key := groupKey(p)
		g, ok := groups[key]
		if !ok {
			g = &cityGroup{key: key, scores: make(map[string]int)}
			groups[key] = g
		}
		g.platforms = append(g.platforms, p)
		g.scores[p.ID] = score
		if score > g.bestScore {
			g.bestScore = score
		}
	}

	if len(groups) == 0 {
		return nil
	}

	r.mergeMetroNeighbors(groups, matched, scores)

	ordered := make([]*cityGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].bestScore != ordered[j].bestScore {
			return ordered[i].bestScore > ordered[j].bestScore
		}
		return ordered[i].key < ordered[j].key
	})

	suggestions := make([]CitySuggestion, 0, len(ordered))
	for _, g := range ordered {
		suggestions = append(suggestions, g.toSuggestion(ResolvedByText))
	}
	return suggestions
}

// mergeMetroNeighbors silently adds every unmatched platform within
// MetroMergeRadiusKm of a matched platform into that platform's city group.
// This picks up metro-area sites whose own labels do not textually match the
// queried city. When several matched platforms are in range, the nearest wins.
func (r *Resolver) mergeMetroNeighbors(groups map[string]*cityGroup, matched []*network.Platform, scores map[string]int) {
	for _, candidate := range r.dataset.Platforms() {
		if _, ok := scores[candidate.ID]; ok {
			continue
		}

		var nearest *network.Platform
		nearestKm := MetroMergeRadiusKm
		for _, m := range matched {
			km := geo.DistanceKm(candidate.Lat, candidate.Lon, m.Lat, m.Lon)
			if km <= nearestKm {
				nearest = m
				nearestKm = km
			}
		}
		if nearest == nil {
			continue
		}
		g := groups[groupKey(nearest)]
		g.platforms = append(g.platforms, candidate)
	}
}

// resolveByGeocode asks the gateway for a coordinate and collects platforms
// around it, widening the radius once before giving up. Gateway failure means
// an empty result, never an error.
func (r *Resolver) resolveByGeocode(ctx context.Context, query string) []CitySuggestion {
	if r.gateway == nil {
		return nil
	}

	point, ok := r.gateway.Resolve(ctx, query)
	if !ok {
		r.logger.Debug("geocode fallback found no result", slog.String("query", query))
		return nil
	}

	hits := r.dataset.PlatformsWithinKm(point.Lat, point.Lon, GeocodeRadiusKm)
	if len(hits) == 0 {
		hits = r.dataset.PlatformsWithinKm(point.Lat, point.Lon, GeocodeWideRadiusKm)
	}
	if len(hits) == 0 {
		return nil
	}

	groups := make(map[string]*cityGroup)
	for _, hit := range hits {
		key := groupKey(hit.Platform)
		g, ok := groups[key]
		if !ok {
			g = &cityGroup{key: key, scores: make(map[string]int), minDistKm: hit.Km, bestPlatform: hit.Platform}
			groups[key] = g
		}
		g.platforms = append(g.platforms, hit.Platform)
		if hit.Km < g.minDistKm {
			g.minDistKm = hit.Km
			g.bestPlatform = hit.Platform
		}
	}

	ordered := make([]*cityGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].minDistKm != ordered[j].minDistKm {
			return ordered[i].minDistKm < ordered[j].minDistKm
		}
		return ordered[i].key < ordered[j].key
	})

	suggestions := make([]CitySuggestion, 0, len(ordered))
	for _, g := range ordered {
		suggestions = append(suggestions, g.toSuggestion(ResolvedByGeocode))
	}
	return suggestions
}

// groupKey is the city label, or the leading segment of the platform ID
// before a separator when the label is absent.
func groupKey(p *network.Platform) string {
	if p.City != "" {
		return p.City
	}
	id := p.ID
	if i := strings.IndexAny(id, "-/ "); i > 0 {
		return id[:i]
	}
	return id
}

// toSuggestion collapses a group into its public shape. The representative
// coordinates and labels come from the best-ranked member: the best-scoring
// platform on the text path, the closest one on the geocode path.
func (g *cityGroup) toSuggestion(res Resolution) CitySuggestion {
	best := g.bestPlatform
	if res == ResolvedByText {
		bestScore := -1
		for _, p := range g.platforms {
			if s, ok := g.scores[p.ID]; ok && s > bestScore {
				best = p
				bestScore = s
			}
		}
	}
	if best == nil {
		best = g.platforms[0]
	}

	s := CitySuggestion{
		City:       g.key,
		Lat:        best.Lat,
		Lon:        best.Lon,
		Country:    best.Country,
		Department: best.Department,
		Platforms:  g.platforms,
		Resolution: res,
	}
	if res == ResolvedByText {
		s.BestScore = g.bestScore
	} else {
		s.DistanceKm = g.minDistKm
	}
	return s
}
