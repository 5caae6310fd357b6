package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/scadtools/scadrender/internal/render"
	"github.com/scadtools/scadrender/internal/scadview"
	"github.com/scadtools/scadrender/internal/toolreg"
	"github.com/scadtools/scadrender/internal/toolset"
)

const (
	errorCodeInvalidRequest = "invalid_request"
	errorCodeNotFound       = "not_found"
	errorCodeRenderTimeout  = "render_timeout"
	errorCodeRendererFailed = "renderer_failed"
	errorCodeDecodeFailed   = "decode_failed"
	errorCodeIOFailure      = "io_failure"
	errorCodeRuntime        = "runtime_error"
)

var errInvalidRequest = errors.New("invalid request")

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

func writeMappedError(w http.ResponseWriter, err error) {
	status, code := mapPipelineError(err)
	writeError(w, status, code, err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiErrorResponse{
		Error: apiError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeArguments(r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return nil, invalidRequestError("request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	arguments := map[string]any{}
	if err := decoder.Decode(&arguments); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, invalidRequestError(fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit))
		}
		if errors.Is(err, io.EOF) {
			return nil, invalidRequestError("request body is required")
		}
		return nil, invalidRequestError(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, invalidRequestError("request body must contain exactly one JSON object")
	}

	return arguments, nil
}

// mapPipelineError translates pipeline failure kinds into HTTP status and
// error codes. The upstream tool's captured diagnostics stay in the message.
func mapPipelineError(err error) (int, string) {
	var toolErr *render.ToolError
	if errors.As(err, &toolErr) {
		return http.StatusBadGateway, errorCodeRendererFailed
	}
	var decodeErr *render.DecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusInternalServerError, errorCodeDecodeFailed
	}

	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, toolset.ErrArgumentInvalid),
		errors.Is(err, scadview.ErrInvalidView),
		errors.Is(err, render.ErrScriptEmpty),
		errors.Is(err, render.ErrBaseNameInvalid),
		errors.Is(err, render.ErrImageSizeInvalid),
		errors.Is(err, toolreg.ErrToolNameEmpty):
		return http.StatusBadRequest, errorCodeInvalidRequest
	case errors.Is(err, toolreg.ErrToolUnregistered):
		return http.StatusNotFound, errorCodeNotFound
	case errors.Is(err, render.ErrRenderTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorCodeRenderTimeout
	case errors.Is(err, render.ErrIO):
		return http.StatusInternalServerError, errorCodeIOFailure
	default:
		return http.StatusInternalServerError, errorCodeRuntime
	}
}

func invalidRequestError(message string) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, message)
}
