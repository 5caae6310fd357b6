// Package toolreg stores named tool handlers and dispatches tool calls to
// them. The HTTP boundary routes every tool invocation through one Registry
// so the tool surface can grow without touching the router.
package toolreg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrToolUnregistered = errors.New("tool is not registered")
	ErrNilHandler       = errors.New("tool handler is nil")
	ErrToolNameEmpty    = errors.New("tool name is empty")
)

// Handler executes one tool call using parsed arguments and returns a
// JSON-encodable payload.
type Handler func(ctx context.Context, arguments map[string]any) (any, error)

// Call names a tool and carries its parsed arguments.
type Call struct {
	Name      string
	Arguments map[string]any
}

// Result is the normalized output of a completed tool call.
type Result struct {
	Name    string
	Payload any
}

// Registry stores handlers by tool name and executes tool calls. Safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func New(initial map[string]Handler) *Registry {
	handlers := make(map[string]Handler, len(initial))
	for name, handler := range initial {
		handlers[name] = handler
	}
	return &Registry{handlers: handlers}
}

func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Execute(ctx context.Context, call Call) (Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	if call.Name == "" {
		return Result{}, ErrToolNameEmpty
	}

	r.mu.RLock()
	handler, ok := r.handlers[call.Name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrToolUnregistered, call.Name)
	}
	if handler == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrNilHandler, call.Name)
	}

	payload, err := handler(ctx, call.Arguments)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Name:    call.Name,
		Payload: payload,
	}, nil
}
