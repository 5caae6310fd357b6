// Package httpapi is the transport boundary: it decodes tool calls, routes
// them through the tool registry, and maps pipeline failures onto HTTP
// statuses.
package httpapi

import (
	"net/http"

	"github.com/scadtools/scadrender/internal/toolreg"
)

const (
	// DefaultMaxRequestBodyBytes bounds tool-call bodies; scripts are text
	// and never legitimately approach this.
	DefaultMaxRequestBodyBytes int64 = 4 << 20
)

type handlers struct {
	registry     *toolreg.Registry
	dataDir      string
	maxBodyBytes int64
}

// NewRouter builds the API routes on top of a tool registry and the archive
// data directory.
func NewRouter(registry *toolreg.Registry, dataDir string) http.Handler {
	h := &handlers{
		registry:     registry,
		dataDir:      dataDir,
		maxBodyBytes: DefaultMaxRequestBodyBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/tools", h.handleToolIndex)
	mux.HandleFunc("POST /v1/tools/{tool}", h.handleToolCall)
	mux.HandleFunc("GET /v1/views", h.handleViews)
	mux.HandleFunc("GET /v1/renders/{name}/{view}", h.handleLatestRender)
	return mux
}
