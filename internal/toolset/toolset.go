// Package toolset implements the tool handlers exposed over the tool-call
// interface, backed by the render pipeline.
package toolset

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/scadtools/scadrender/internal/render"
	"github.com/scadtools/scadrender/internal/toolreg"
)

const (
	ToolRender = "render"
)

// ErrArgumentInvalid is returned when a tool argument is missing or has the
// wrong type.
var ErrArgumentInvalid = errors.New("tool arguments are invalid")

// Definition declares a callable tool exposed to clients.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

var toolDefinitions = []Definition{
	{
		Name:        ToolRender,
		Description: "Render an OpenSCAD script to a PNG image in one of four fixed camera views.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"script":     map[string]any{"type": "string"},
				"name":       map[string]any{"type": "string", "default": render.DefaultBaseName},
				"view":       map[string]any{"type": "string", "enum": []any{"top", "front", "left", "3d"}, "default": "3d"},
				"image_size": map[string]any{"type": "string", "default": render.DefaultImageSize.String()},
			},
			"required": []any{"script"},
		},
	},
}

// Definitions returns the declared tool surface.
func Definitions() []Definition {
	out := make([]Definition, len(toolDefinitions))
	copy(out, toolDefinitions)
	return out
}

// Executor wires tool handlers to the render pipeline.
type Executor struct {
	renderer *render.Renderer
	logger   *slog.Logger
}

func NewExecutor(renderer *render.Renderer, logger *slog.Logger) (*Executor, error) {
	if renderer == nil {
		return nil, errors.New("new tool executor: nil renderer")
	}
	if logger == nil {
		return nil, errors.New("new tool executor: nil logger")
	}
	return &Executor{renderer: renderer, logger: logger}, nil
}

// RegisterAll installs every tool handler into a registry.
func (e *Executor) RegisterAll(registry *toolreg.Registry) {
	registry.Register(ToolRender, e.executeRender)
}

func stringArgument(arguments map[string]any, key string) (string, error) {
	raw, ok := arguments[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrArgumentInvalid, key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrArgumentInvalid, key)
	}
	return value, nil
}

func optionalStringArgument(arguments map[string]any, key, fallback string) (string, error) {
	raw, ok := arguments[key]
	if !ok {
		return fallback, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrArgumentInvalid, key)
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}
