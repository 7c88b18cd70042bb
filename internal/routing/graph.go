// Package routing builds the weekly timetable graph and searches it for
// direct and single-transfer itineraries between candidate platform sets.
package routing

import (
	"combiroute.fr/internal/network"
)

// Edge groups every scheduled service realizing one exact
// (operator, origin, destination) triple.
type Edge struct {
	Operator      string
	DestinationID string
	Services      []*network.Service
}

// WeeklyFrequency is the number of weekly departures on this edge.
func (e *Edge) WeeklyFrequency() int {
	return len(e.Services)
}

type edgeKey struct {
	operator      string
	destinationID string
}

// Graph indexes scheduled services for O(1) neighbor lookup by origin
// platform. It holds no state beyond the adjacency structure; callers rebuild
// it whenever they need a filtered view of the timetable.
type Graph struct {
	adjacency map[string]map[edgeKey]*Edge
}

// BuildGraph indexes the given services by origin platform and
// (operator, destination) pair. Degenerate rows with identical origin and
// destination are indexed like any other; the search layer never follows
// them into a useful itinerary.
func BuildGraph(services []*network.Service) *Graph {
	g := &Graph{adjacency: make(map[string]map[edgeKey]*Edge)}
	for _, s := range services {
		edges, ok := g.adjacency[s.OriginID]
		if !ok {
			edges = make(map[edgeKey]*Edge)
			g.adjacency[s.OriginID] = edges
		}

		key := edgeKey{operator: s.Operator, destinationID: s.DestinationID}
		edge, ok := edges[key]
		if !ok {
			edge = &Edge{Operator: s.Operator, DestinationID: s.DestinationID}
			edges[key] = edge
		}
		edge.Services = append(edge.Services, s)
	}
	return g
}

// Outgoing returns every edge leaving the given platform. The order is not
// deterministic; callers sort final results themselves.
func (g *Graph) Outgoing(originID string) []*Edge {
	edges := g.adjacency[originID]
	if len(edges) == 0 {
		return nil
	}
	out := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, e)
	}
	return out
}
