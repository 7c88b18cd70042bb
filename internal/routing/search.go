package routing

import (
	"sort"
	"strings"

	"combiroute.fr/internal/geo"
	"combiroute.fr/internal/network"
)

// RouteKind tags a found route as direct or single-transfer.
type RouteKind string

const (
	KindDirect   RouteKind = "direct"
	KindTransfer RouteKind = "transfer"
)

const (
	// minDetourBaselineKm guards the detour ratio against division blow-up
	// when origin and destination are nearly colocated.
	minDetourBaselineKm = 1.0

	// detourTieBreakThreshold is the detour-ratio difference above which the
	// straighter transfer route outranks a more frequent one.
	detourTieBreakThreshold = 0.5

	// DefaultMaxTransferCandidates caps per-query transfer expansion before
	// deduplication, so a pathological hub platform cannot blow up result
	// assembly.
	DefaultMaxTransferCandidates = 500
)

// Leg is one operator-homogeneous hop between two platforms, carrying the
// services realizing it.
type Leg struct {
	OriginID       string
	OriginLat      float64
	OriginLon      float64
	DestinationID  string
	DestinationLat float64
	DestinationLon float64
	Operator       string
	Services       []*network.Service
	WeeklyFreq     int
}

// FoundRoute is a complete itinerary: one leg for direct routes, two
// contiguous legs for single-transfer routes.
type FoundRoute struct {
	Kind        RouteKind
	Legs        []Leg
	WeeklyFreq  int
	Operators   []string
	DetourRatio float64
}

// Signature identifies the route by its ordered (origin, destination,
// operator) leg tuples. Two routes with equal signatures are equivalent for
// deduplication.
func (r *FoundRoute) Signature() string {
	parts := make([]string, 0, len(r.Legs))
	for _, leg := range r.Legs {
		parts = append(parts, leg.OriginID+">"+leg.DestinationID+"@"+leg.Operator)
	}
	return strings.Join(parts, "|")
}

// Options tunes one search invocation.
type Options struct {
	// CargoUnits, when non-empty, keeps only services individually accepting
	// every requested kind.
	CargoUnits []network.CargoUnit

	// MaxTransferCandidates bounds transfer-route expansion; zero means
	// DefaultMaxTransferCandidates.
	MaxTransferCandidates int
}

// Search finds direct and single-transfer itineraries from any origin
// candidate to any destination candidate, ranked and deduplicated. Either
// candidate set being empty yields an empty result, not an error, as does an
// exhausted graph. Services referencing platforms absent from the dataset are
// skipped.
func Search(ds *network.Dataset, origins, destinations []*network.Platform, opts Options) []FoundRoute {
	if len(origins) == 0 || len(destinations) == 0 {
		return nil
	}

	maxTransfers := opts.MaxTransferCandidates
	if maxTransfers <= 0 {
		maxTransfers = DefaultMaxTransferCandidates
	}

	services := filterServices(ds.Services(), opts.CargoUnits)
	graph := BuildGraph(services)

	destinationSet := make(map[string]bool, len(destinations))
	for _, d := range destinations {
		destinationSet[d.ID] = true
	}

	var routes []FoundRoute
	transferCount := 0

	for _, origin := range origins {
		for _, edge := range graph.Outgoing(origin.ID) {
			if destinationSet[edge.DestinationID] {
				leg, ok := buildLeg(ds, origin.ID, edge)
				if !ok {
					continue
				}
				routes = append(routes, FoundRoute{
					Kind:        KindDirect,
					Legs:        []Leg{leg},
					WeeklyFreq:  leg.WeeklyFreq,
					Operators:   []string{leg.Operator},
					DetourRatio: 1,
				})
				continue
			}

			// Degenerate rows can loop an edge back onto its own origin;
			// never treat the origin as its own transfer platform.
			if edge.DestinationID == origin.ID {
				continue
			}

			// The edge ends at a potential transfer platform; look one hop
			// further.
			for _, second := range graph.Outgoing(edge.DestinationID) {
				if !destinationSet[second.DestinationID] || second.DestinationID == origin.ID {
					continue
				}
				if transferCount >= maxTransfers {
					break
				}
				first, ok := buildLeg(ds, origin.ID, edge)
				if !ok {
					break
				}
				connecting, ok := buildLeg(ds, edge.DestinationID, second)
				if !ok {
					continue
				}
				routes = append(routes, newTransferRoute(first, connecting))
				transferCount++
			}
		}
	}

	sortRoutes(routes)
	return dedupRoutes(routes)
}

// filterServices applies the cargo-unit conjunction: a service qualifies only
// if it individually accepts every requested kind. An empty filter keeps
// everything.
func filterServices(services []*network.Service, units []network.CargoUnit) []*network.Service {
	if len(units) == 0 {
		return services
	}
	kept := make([]*network.Service, 0, len(services))
	for _, s := range services {
		if s.AcceptsAll(units) {
			kept = append(kept, s)
		}
	}
	return kept
}

// buildLeg materializes an edge into a leg with endpoint coordinates. It
// reports false when either endpoint is missing from the dataset; such
// dangling references are upstream data defects and must not abort the
// search.
func buildLeg(ds *network.Dataset, originID string, edge *Edge) (Leg, bool) {
	origin := ds.PlatformByID(originID)
	destination := ds.PlatformByID(edge.DestinationID)
	if origin == nil || destination == nil {
		return Leg{}, false
	}
	return Leg{
		OriginID:       origin.ID,
		OriginLat:      origin.Lat,
		OriginLon:      origin.Lon,
		DestinationID:  destination.ID,
		DestinationLat: destination.Lat,
		DestinationLon: destination.Lon,
		Operator:       edge.Operator,
		Services:       edge.Services,
		WeeklyFreq:     edge.WeeklyFrequency(),
	}, true
}

func newTransferRoute(first, second Leg) FoundRoute {
	// A transfer cannot occur more often than its less-frequent leg allows.
	freq := first.WeeklyFreq
	if second.WeeklyFreq < freq {
		freq = second.WeeklyFreq
	}

	operators := []string{first.Operator}
	if second.Operator != first.Operator {
		operators = append(operators, second.Operator)
	}

	return FoundRoute{
		Kind:        KindTransfer,
		Legs:        []Leg{first, second},
		WeeklyFreq:  freq,
		Operators:   operators,
		DetourRatio: detourRatio(first, second),
	}
}

// detourRatio compares the travelled two-leg path length against the
// straight-line origin-to-destination distance. Baselines under 1 km are
// treated as no penalty.
func detourRatio(first, second Leg) float64 {
	travelled := geo.DistanceKm(first.OriginLat, first.OriginLon, first.DestinationLat, first.DestinationLon) +
		geo.DistanceKm(second.OriginLat, second.OriginLon, second.DestinationLat, second.DestinationLon)
	direct := geo.DistanceKm(first.OriginLat, first.OriginLon, second.DestinationLat, second.DestinationLon)

	if direct < minDetourBaselineKm {
		return 1
	}
	return travelled / direct
}

// sortRoutes orders direct routes before transfers. Among transfers, a
// clearly straighter route (detour-ratio gap above the threshold) wins;
// otherwise higher weekly frequency wins, as it does between routes of the
// same kind generally.
func sortRoutes(routes []FoundRoute) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.Kind != b.Kind {
			return a.Kind == KindDirect
		}
		if a.Kind == KindTransfer {
			diff := a.DetourRatio - b.DetourRatio
			if diff > detourTieBreakThreshold {
				return false
			}
			if diff < -detourTieBreakThreshold {
				return true
			}
		}
		return a.WeeklyFreq > b.WeeklyFreq
	})
}

// dedupRoutes keeps the first (best-ranked) route per signature. Running it
// on an already-deduplicated list is a no-op.
func dedupRoutes(routes []FoundRoute) []FoundRoute {
	if len(routes) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(routes))
	kept := routes[:0]
	for _, r := range routes {
		sig := r.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		kept = append(kept, r)
	}
	return kept
}
