package httpapi

import (
	"net/http"
	"os"

	"github.com/scadtools/scadrender/internal/render"
	"github.com/scadtools/scadrender/internal/scadview"
	"github.com/scadtools/scadrender/internal/toolreg"
	"github.com/scadtools/scadrender/internal/toolset"
)

type toolCallResponse struct {
	Tool   string `json:"tool"`
	Result any    `json:"result"`
}

type toolIndexResponse struct {
	Tools []toolset.Definition `json:"tools"`
}

type viewsResponse struct {
	Views       []string `json:"views"`
	DefaultView string   `json:"default_view"`
}

func (h *handlers) handleToolCall(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	arguments, err := decodeArguments(r)
	if err != nil {
		writeMappedError(w, err)
		return
	}

	result, err := h.registry.Execute(r.Context(), toolreg.Call{
		Name:      r.PathValue("tool"),
		Arguments: arguments,
	})
	if err != nil {
		writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toolCallResponse{
		Tool:   result.Name,
		Result: result.Payload,
	})
}

func (h *handlers) handleToolIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toolIndexResponse{Tools: toolset.Definitions()})
}

func (h *handlers) handleViews(w http.ResponseWriter, _ *http.Request) {
	views := scadview.All()
	names := make([]string, 0, len(views))
	for _, view := range views {
		names = append(names, string(view))
	}
	writeJSON(w, http.StatusOK, viewsResponse{
		Views:       names,
		DefaultView: string(scadview.View3D),
	})
}

// handleLatestRender serves the archived "latest render" for external
// monitors polling a base name and view.
func (h *handlers) handleLatestRender(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	view := scadview.View(r.PathValue("view"))

	if !render.ValidBaseName(name) {
		writeMappedError(w, invalidRequestError("invalid render name"))
		return
	}
	if _, err := scadview.Lookup(view); err != nil {
		writeMappedError(w, err)
		return
	}

	data, err := os.ReadFile(render.ArchivedImagePath(h.dataDir, name, view))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, errorCodeNotFound, "no archived render for this name and view")
			return
		}
		writeMappedError(w, &render.IOError{Op: "read archived render", Path: name, Err: err})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
