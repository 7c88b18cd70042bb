package restapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"combiroute.fr/internal/app"
	"combiroute.fr/internal/appconf"
	"combiroute.fr/internal/clock"
	"combiroute.fr/internal/geocode"
	"combiroute.fr/internal/metrics"
	"combiroute.fr/internal/models"
	"combiroute.fr/internal/network"
	"combiroute.fr/internal/resolver"
)

// testDataset builds a small but realistic slice of the French network:
// a direct Lyon-Marseille rail service plus a Lyon-Avignon-Marseille pair
// usable as a single-transfer alternative, and an isolated Paris terminal.
func testDataset() *network.Dataset {
	platforms := []*network.Platform{
		{ID: "Lyon-Vénissieux", City: "Lyon", Operator: "Naviland Cargo", Department: "Rhône", Country: "FR", Lat: 45.7060, Lon: 4.8790},
		{ID: "Marseille-Canet", City: "Marseille", Operator: "Intramar", Department: "Bouches-du-Rhône", Country: "FR", Lat: 43.3320, Lon: 5.3630},
		{ID: "Avignon-Courtine", City: "Avignon", Operator: "T3M", Department: "Vaucluse", Country: "FR", Lat: 43.9210, Lon: 4.7830},
		{ID: "Paris-Valenton", City: "Paris", Operator: "Novatrans", Department: "Val-de-Marne", Country: "FR", Lat: 48.7620, Lon: 2.4560},
	}

	services := []*network.Service{
		{
			Operator: "Naviland Cargo", OriginID: "Lyon-Vénissieux", DestinationID: "Marseille-Canet",
			DepartureDay: time.Monday, DepartureTime: "18:30", ArrivalDay: time.Tuesday, ArrivalTime: "04:10",
			AcceptsSwapBody: true, AcceptsContainer: true,
		},
		{
			Operator: "Naviland Cargo", OriginID: "Lyon-Vénissieux", DestinationID: "Marseille-Canet",
			DepartureDay: time.Thursday, DepartureTime: "18:30", ArrivalDay: time.Friday, ArrivalTime: "04:10",
			AcceptsSwapBody: true, AcceptsContainer: true,
		},
		{
			Operator: "T3M", OriginID: "Lyon-Vénissieux", DestinationID: "Avignon-Courtine",
			DepartureDay: time.Wednesday, DepartureTime: "20:00", ArrivalDay: time.Thursday, ArrivalTime: "02:30",
			AcceptsContainer: true, AcceptsP400Trailer: true,
		},
		{
			Operator: "Greenmodal", OriginID: "Avignon-Courtine", DestinationID: "Marseille-Canet",
			DepartureDay: time.Thursday, DepartureTime: "09:00", ArrivalDay: time.Thursday, ArrivalTime: "13:45",
			AcceptsContainer: true, AcceptsP400Trailer: true,
		},
		{
			Operator: "Novatrans", OriginID: "Paris-Valenton", DestinationID: "Lyon-Vénissieux",
			DepartureDay: time.Friday, DepartureTime: "21:15", ArrivalDay: time.Saturday, ArrivalTime: "05:40",
			AcceptsContainer: true, AcceptsCraneableTrailer: true,
		},
	}

	return network.NewDataset(platforms, services)
}

func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiWithClock(t, clock.NewMockClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
}

func createTestApiWithClock(t *testing.T, clk clock.Clock) *RestAPI {
	t.Helper()

	dataset := testDataset()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gateway := geocode.Static{Points: map[string]geocode.Point{
		"mallemort": {Lat: 43.7320, Lon: 5.1810},
	}}

	application := &app.Application{
		Config: appconf.Config{
			Env:     appconf.Test,
			ApiKeys: []string{"TEST"},
		},
		Logger:   logger,
		Dataset:  dataset,
		Resolver: resolver.New(dataset, gateway, logger),
		Clock:    clk,
		Metrics:  metrics.New(),
	}

	return NewRestAPI(application)
}

// serveApiAndRetrieveEndpoint performs a GET through the full route table and
// decodes the standard response envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, path string) (*http.Response, models.ResponseModel) {
	t.Helper()

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var model models.ResponseModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&model))

	return resp, model
}

func serveAndRetrieveEndpoint(t *testing.T, path string) (*RestAPI, *http.Response, models.ResponseModel) {
	t.Helper()

	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, path)
	return api, resp, model
}

// responseList extracts the "list" payload from a list-response envelope.
func responseList(t *testing.T, model models.ResponseModel) []any {
	t.Helper()

	data, ok := model.Data.(map[string]any)
	require.True(t, ok, "response data should be an object")
	list, ok := data["list"].([]any)
	require.True(t, ok, "response data should hold a list")
	return list
}
