package restapi

import (
	"net/http"
	"strings"

	"combiroute.fr/internal/models"
	"combiroute.fr/internal/network"
	"combiroute.fr/internal/resolver"
	"combiroute.fr/internal/routing"
)

// routesHandler resolves both endpoints and searches the timetable for
// direct and single-transfer itineraries. Unresolvable endpoints and empty
// searches are a 200 with an empty list, never an error.
func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	fieldErrors := map[string][]string{}
	if from == "" {
		fieldErrors["from"] = []string{"must not be empty"}
	}
	if to == "" {
		fieldErrors["to"] = []string{"must not be empty"}
	}

	cargoUnits, unknown := parseCargoUnits(r.URL.Query().Get("uti"))
	if len(unknown) > 0 {
		fieldErrors["uti"] = []string{"unknown cargo unit(s): " + strings.Join(unknown, ", ")}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	ctx := r.Context()
	origins := candidatePlatforms(api.Resolver.Resolve(ctx, from))
	destinations := candidatePlatforms(api.Resolver.Resolve(ctx, to))

	routes := routing.Search(api.Dataset, origins, destinations, routing.Options{
		CargoUnits:            cargoUnits,
		MaxTransferCandidates: api.Config.MaxTransferCandidates,
	})
	api.Metrics.ObserveSearch(len(routes))

	response := models.NewListResponse(models.NewFoundRoutes(routes), api.Clock)
	api.sendResponse(w, r, response)
}

// candidatePlatforms flattens every suggestion's members into one candidate
// set. Resolution already ranked the groups; search reranks by route quality,
// so the flattening order is irrelevant.
func candidatePlatforms(suggestions []resolver.CitySuggestion) []*network.Platform {
	var platforms []*network.Platform
	seen := make(map[string]bool)
	for _, s := range suggestions {
		for _, p := range s.Platforms {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			platforms = append(platforms, p)
		}
	}
	return platforms
}

// parseCargoUnits splits a comma-separated uti parameter into cargo-unit
// kinds, reporting any unknown names.
func parseCargoUnits(raw string) ([]network.CargoUnit, []string) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var units []network.CargoUnit
	var unknown []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		unit, ok := network.ParseCargoUnit(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		units = append(units, unit)
	}
	return units, unknown
}
