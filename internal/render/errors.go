package render

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrScriptEmpty is returned when a request carries no script text.
	ErrScriptEmpty = errors.New("script is empty")
	// ErrBaseNameInvalid is returned when a base name is not filesystem-safe.
	ErrBaseNameInvalid = errors.New("base name is not filesystem-safe")
	// ErrImageSizeInvalid is returned when an image size cannot be parsed or
	// falls outside the accepted bounds.
	ErrImageSizeInvalid = errors.New("image size is invalid")
	// ErrRenderTimeout matches any TimeoutError via errors.Is.
	ErrRenderTimeout = errors.New("render timed out")
	// ErrIO matches any IOError via errors.Is.
	ErrIO = errors.New("filesystem operation failed")
)

// TimeoutError reports a renderer invocation that exceeded its wall-clock
// budget. The process is killed; no partial output is trusted.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("renderer timed out after %s", e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrRenderTimeout
}

// ToolError reports a failed renderer invocation: either a non-zero exit, or
// a zero exit that produced no output file. The two cases stay
// distinguishable through MissingOutput.
type ToolError struct {
	ExitCode      int
	Stderr        string
	MissingOutput bool
}

func (e *ToolError) Error() string {
	if e.MissingOutput {
		return "renderer succeeded but produced no output file"
	}
	msg := fmt.Sprintf("renderer exited with code %d", e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// DecodeError reports an output file that exists but is not a well-formed
// image of the declared format.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode render output %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IOError reports a staging or archiving filesystem failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}
