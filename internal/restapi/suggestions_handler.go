package restapi

import (
	"net/http"
	"strings"

	"combiroute.fr/internal/models"
)

// suggestionsHandler resolves a free-text place query into ranked city
// candidates for the query-input autocomplete. "Nothing found" is a 200 with
// an empty list; the request context cancels the geocoding fallback when the
// client abandons a stale query.
func (api *RestAPI) suggestionsHandler(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.URL.Query().Get("input"))
	if input == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"input": {"must not be empty"},
		})
		return
	}

	suggestions := api.Resolver.Resolve(r.Context(), input)

	response := models.NewListResponse(models.NewCitySuggestions(suggestions), api.Clock)
	api.sendResponse(w, r, response)
}
