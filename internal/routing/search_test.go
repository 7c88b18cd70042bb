package routing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"combiroute.fr/internal/network"
)

func platform(id string, lat, lon float64) *network.Platform {
	return &network.Platform{ID: id, City: id, Country: "FR", Lat: lat, Lon: lon}
}

// nServices produces n weekly departures for the same edge.
func nServices(operator, originID, destinationID string, n int) []*network.Service {
	services := make([]*network.Service, 0, n)
	for i := 0; i < n; i++ {
		services = append(services, &network.Service{
			Operator:         operator,
			OriginID:         originID,
			DestinationID:    destinationID,
			AcceptsContainer: true,
			AcceptsSwapBody:  true,
		})
	}
	return services
}

func triangleDataset() (*network.Dataset, *network.Platform, *network.Platform, *network.Platform) {
	a := platform("A", 48.0, 2.0)
	b := platform("B", 45.0, 4.0)
	c := platform("C", 43.0, 5.0)

	services := append(nServices("X", "A", "B", 5), nServices("Y", "B", "C", 3)...)
	ds := network.NewDataset([]*network.Platform{a, b, c}, services)
	return ds, a, b, c
}

func TestBuildGraph(t *testing.T) {
	services := append(nServices("X", "A", "B", 5), nServices("Y", "B", "C", 3)...)
	services = append(services, nServices("Z", "A", "B", 2)...)

	g := BuildGraph(services)

	edgesFromA := g.Outgoing("A")
	require.Len(t, edgesFromA, 2, "same destination under two operators must stay two edges")

	byOperator := map[string]*Edge{}
	for _, e := range edgesFromA {
		byOperator[e.Operator] = e
	}
	require.Contains(t, byOperator, "X")
	require.Contains(t, byOperator, "Z")
	assert.Equal(t, 5, byOperator["X"].WeeklyFrequency())
	assert.Equal(t, 2, byOperator["Z"].WeeklyFrequency())

	assert.Len(t, g.Outgoing("B"), 1)
	assert.Empty(t, g.Outgoing("C"))
	assert.Empty(t, g.Outgoing("unknown"))
}

func TestSearchDirect(t *testing.T) {
	ds, a, b, _ := triangleDataset()

	routes := Search(ds, []*network.Platform{a}, []*network.Platform{b}, Options{})

	require.Len(t, routes, 1)
	route := routes[0]
	assert.Equal(t, KindDirect, route.Kind)
	assert.Equal(t, 5, route.WeeklyFreq)
	assert.Equal(t, []string{"X"}, route.Operators)
	require.Len(t, route.Legs, 1)
	assert.Equal(t, "A", route.Legs[0].OriginID)
	assert.Equal(t, "B", route.Legs[0].DestinationID)
	assert.Equal(t, 48.0, route.Legs[0].OriginLat)
}

func TestSearchSingleTransfer(t *testing.T) {
	ds, a, _, c := triangleDataset()

	routes := Search(ds, []*network.Platform{a}, []*network.Platform{c}, Options{})

	require.Len(t, routes, 1)
	route := routes[0]
	assert.Equal(t, KindTransfer, route.Kind)
	assert.Equal(t, 3, route.WeeklyFreq, "transfer frequency is the minimum of the two legs")
	assert.Equal(t, []string{"X", "Y"}, route.Operators)
	require.Len(t, route.Legs, 2)
	assert.Equal(t, route.Legs[0].DestinationID, route.Legs[1].OriginID, "legs must be contiguous")
	assert.Greater(t, route.DetourRatio, 1.0)
}

func TestSearchEmptyCandidateSets(t *testing.T) {
	ds, a, _, c := triangleDataset()

	assert.Empty(t, Search(ds, nil, []*network.Platform{c}, Options{}))
	assert.Empty(t, Search(ds, []*network.Platform{a}, nil, Options{}))
	assert.Empty(t, Search(ds, nil, nil, Options{}))
}

func TestSearchNoPath(t *testing.T) {
	ds, _, b, c := triangleDataset()

	// Nothing departs from C at all.
	assert.Empty(t, Search(ds, []*network.Platform{c}, []*network.Platform{b}, Options{}))
}

func TestSearchCargoUnitConjunction(t *testing.T) {
	a := platform("A", 48.0, 2.0)
	b := platform("B", 45.0, 4.0)

	// Accepts containers but not P400 trailers.
	containerOnly := &network.Service{
		Operator: "X", OriginID: "A", DestinationID: "B",
		AcceptsContainer: true,
	}
	ds := network.NewDataset([]*network.Platform{a, b}, []*network.Service{containerOnly})

	origins := []*network.Platform{a}
	destinations := []*network.Platform{b}

	routes := Search(ds, origins, destinations, Options{CargoUnits: []network.CargoUnit{network.CargoContainer}})
	assert.Len(t, routes, 1, "the service qualifies for a container-only filter")

	routes = Search(ds, origins, destinations, Options{
		CargoUnits: []network.CargoUnit{network.CargoContainer, network.CargoP400Trailer},
	})
	assert.Empty(t, routes,
		"requesting {container, P400} must exclude a service that accepts containers but not P400")
}

func TestSearchTransferFilterAppliesPerService(t *testing.T) {
	// First leg accepts containers only, second leg P400 only. The route as a
	// whole "offers" both, but no single service satisfies {container, p400},
	// so a conjunctive filter must kill the itinerary.
	a := platform("A", 48.0, 2.0)
	b := platform("B", 45.0, 4.0)
	c := platform("C", 43.0, 5.0)

	ds := network.NewDataset(
		[]*network.Platform{a, b, c},
		[]*network.Service{
			{Operator: "X", OriginID: "A", DestinationID: "B", AcceptsContainer: true},
			{Operator: "Y", OriginID: "B", DestinationID: "C", AcceptsP400Trailer: true},
		},
	)

	routes := Search(ds, []*network.Platform{a}, []*network.Platform{c}, Options{
		CargoUnits: []network.CargoUnit{network.CargoContainer, network.CargoP400Trailer},
	})
	assert.Empty(t, routes)
}

func TestSearchDirectSortsBeforeTransfer(t *testing.T) {
	// A reaches C directly (infrequently) and via B (frequently).
	a := platform("A", 48.0, 2.0)
	b := platform("B", 45.0, 4.0)
	c := platform("C", 43.0, 5.0)

	services := nServices("X", "A", "C", 1)
	services = append(services, nServices("X", "A", "B", 9)...)
	services = append(services, nServices("Y", "B", "C", 9)...)
	ds := network.NewDataset([]*network.Platform{a, b, c}, services)

	routes := Search(ds, []*network.Platform{a}, []*network.Platform{c}, Options{})

	require.Len(t, routes, 2)
	assert.Equal(t, KindDirect, routes[0].Kind,
		"a direct route must outrank a transfer regardless of frequency")
	assert.Equal(t, KindTransfer, routes[1].Kind)
}

func TestSearchTransferRankingDetourVsFrequency(t *testing.T) {
	// Two transfer paths from A to D: via B (nearly straight) and via C (a
	// huge dog-leg). The straight one is less frequent but its detour
	// advantage exceeds the threshold, so it must still rank first.
	a := platform("A", 48.0, 2.0)
	b := platform("B", 46.0, 3.0) // roughly on the A-D line
	c := platform("C", 49.5, 8.0) // far off to the side
	d := platform("D", 44.0, 4.0)

	services := nServices("X", "A", "B", 2)
	services = append(services, nServices("Y", "B", "D", 2)...)
	services = append(services, nServices("X", "A", "C", 8)...)
	services = append(services, nServices("Z", "C", "D", 8)...)
	ds := network.NewDataset([]*network.Platform{a, b, c, d}, services)

	routes := Search(ds, []*network.Platform{a}, []*network.Platform{d}, Options{})

	require.Len(t, routes, 2)
	assert.Equal(t, "B", routes[0].Legs[0].DestinationID,
		"the straighter path must win when the detour gap is decisive")
	assert.Less(t, routes[0].DetourRatio, routes[1].DetourRatio)
	assert.Greater(t, routes[1].DetourRatio-routes[0].DetourRatio, 0.5)
}

func TestSearchTransferRankingFrequencyWhenDetourClose(t *testing.T) {
	// Two transfer paths with nearly identical geometry: frequency decides.
	a := platform("A", 48.0, 2.0)
	b1 := platform("B1", 46.0, 3.0)
	b2 := platform("B2", 46.05, 3.05)
	d := platform("D", 44.0, 4.0)

	services := nServices("X", "A", "B1", 2)
	services = append(services, nServices("Y", "B1", "D", 2)...)
	services = append(services, nServices("X", "A", "B2", 7)...)
	services = append(services, nServices("Y", "B2", "D", 7)...)
	ds := network.NewDataset([]*network.Platform{a, b1, b2, d}, services)

	routes := Search(ds, []*network.Platform{a}, []*network.Platform{d}, Options{})

	require.Len(t, routes, 2)
	assert.Equal(t, "B2", routes[0].Legs[0].DestinationID,
		"with comparable detours the more frequent transfer must rank first")
	assert.Equal(t, 7, routes[0].WeeklyFreq)
}

func TestSearchDeduplicatesAcrossCandidateOverlap(t *testing.T) {
	// Origin set and destination set both produced from fuzzy resolution may
	// overlap in ways that emit the same (origin, destination, operator) path
	// more than once; only the first-ranked copy survives.
	ds, a, b, _ := triangleDataset()

	routes := Search(ds, []*network.Platform{a, a}, []*network.Platform{b}, Options{})
	assert.Len(t, routes, 1)
}

func TestSearchSkipsDanglingServiceReferences(t *testing.T) {
	a := platform("A", 48.0, 2.0)
	b := platform("B", 45.0, 4.0)

	services := []*network.Service{
		{Operator: "X", OriginID: "A", DestinationID: "B", AcceptsContainer: true},
		{Operator: "X", OriginID: "A", DestinationID: "GHOST", AcceptsContainer: true},
		{Operator: "X", OriginID: "GHOST", DestinationID: "B", AcceptsContainer: true},
	}
	ds := network.NewDataset([]*network.Platform{a, b}, services)

	routes := Search(ds, []*network.Platform{a}, []*network.Platform{b}, Options{})

	require.Len(t, routes, 1, "dangling references must be skipped, not crash the search")
	assert.Equal(t, KindDirect, routes[0].Kind)
}

func TestSearchDegenerateSelfLoopTolerated(t *testing.T) {
	a := platform("A", 48.0, 2.0)
	b := platform("B", 45.0, 4.0)

	services := []*network.Service{
		{Operator: "X", OriginID: "A", DestinationID: "A"}, // degenerate row
		{Operator: "X", OriginID: "A", DestinationID: "B"},
	}
	ds := network.NewDataset([]*network.Platform{a, b}, services)

	routes := Search(ds, []*network.Platform{a}, []*network.Platform{b}, Options{})
	require.Len(t, routes, 1)
	assert.Equal(t, "B", routes[0].Legs[0].DestinationID)
}

func TestSearchTransferCandidateCap(t *testing.T) {
	// A hub fan-out larger than the cap must not blow up result assembly.
	platforms := []*network.Platform{
		platform("A", 48.0, 2.0),
		platform("HUB", 46.0, 3.0),
	}
	var services []*network.Service
	services = append(services, nServices("X", "A", "HUB", 1)...)

	var destinations []*network.Platform
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("D%02d", i)
		p := platform(id, 44.0, 4.0+float64(i)*0.01)
		platforms = append(platforms, p)
		destinations = append(destinations, p)
		services = append(services, nServices("Y", "HUB", id, 1)...)
	}
	ds := network.NewDataset(platforms, services)

	routes := Search(ds, []*network.Platform{platforms[0]}, destinations, Options{MaxTransferCandidates: 5})
	assert.Len(t, routes, 5)

	routes = Search(ds, []*network.Platform{platforms[0]}, destinations, Options{})
	assert.Len(t, routes, 20)
}

func TestDedupIdempotence(t *testing.T) {
	ds, a, _, c := triangleDataset()

	routes := Search(ds, []*network.Platform{a}, []*network.Platform{c}, Options{})
	once := dedupRoutes(routes)
	twice := dedupRoutes(once)
	assert.Equal(t, once, twice, "deduplication must be idempotent")
}

func TestFoundRouteSignature(t *testing.T) {
	r := FoundRoute{Legs: []Leg{
		{OriginID: "A", DestinationID: "B", Operator: "X"},
		{OriginID: "B", DestinationID: "C", Operator: "Y"},
	}}
	assert.Equal(t, "A>B@X|B>C@Y", r.Signature())
}
