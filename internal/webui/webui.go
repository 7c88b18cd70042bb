// Package webui serves the operator-facing debug pages. It is not part of
// the public API surface and is disabled in production.
package webui

import (
	"net/http"

	"combiroute.fr/internal/app"
)

// WebUI wires the application into the debug page handlers.
type WebUI struct {
	*app.Application
}

// NewWebUI creates the debug UI over the given application.
func NewWebUI(application *app.Application) *WebUI {
	return &WebUI{Application: application}
}

// SetRoutes registers the debug endpoints on the mux.
func (webUI *WebUI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
}
