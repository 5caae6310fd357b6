package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/scadtools/scadrender/internal/scadview"
)

const (
	// DefaultBaseName is used when a caller supplies no base name; external
	// monitors poll the archive paths derived from it.
	DefaultBaseName = "current"

	// MaxImageDim bounds each axis of a requested image size.
	MaxImageDim = 4096
)

var baseNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidBaseName reports whether a base name is safe to use in archive
// filenames: no separators, no leading dot, no shell surprises.
func ValidBaseName(name string) bool {
	return baseNamePattern.MatchString(name)
}

// Request describes one render invocation. It is constructed per call,
// validated, consumed, and discarded.
type Request struct {
	Script    string
	BaseName  string
	View      scadview.View
	ImageSize ImageSize
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Script) == "" {
		return ErrScriptEmpty
	}
	if !ValidBaseName(r.BaseName) {
		return fmt.Errorf("%w: %q", ErrBaseNameInvalid, r.BaseName)
	}
	if err := r.ImageSize.validate(); err != nil {
		return err
	}
	_, err := scadview.Lookup(r.View)
	return err
}

// ImageSize is a width/height pair in pixels.
type ImageSize struct {
	Width  uint
	Height uint
}

// DefaultImageSize matches the renderer's conventional 800x600 output.
var DefaultImageSize = ImageSize{Width: 800, Height: 600}

// ParseImageSize parses the wire "W,H" form.
func ParseImageSize(input string) (ImageSize, error) {
	parts := strings.Split(strings.TrimSpace(input), ",")
	if len(parts) != 2 {
		return ImageSize{}, fmt.Errorf("%w: %q (want \"W,H\")", ErrImageSizeInvalid, input)
	}
	width, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return ImageSize{}, fmt.Errorf("%w: width %q", ErrImageSizeInvalid, parts[0])
	}
	height, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return ImageSize{}, fmt.Errorf("%w: height %q", ErrImageSizeInvalid, parts[1])
	}
	size := ImageSize{Width: uint(width), Height: uint(height)}
	if err := size.validate(); err != nil {
		return ImageSize{}, err
	}
	return size, nil
}

// String renders the size in the renderer's "W,H" argv form.
func (s ImageSize) String() string {
	return fmt.Sprintf("%d,%d", s.Width, s.Height)
}

func (s ImageSize) validate() error {
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("%w: %s (dimensions must be > 0)", ErrImageSizeInvalid, s)
	}
	if s.Width > MaxImageDim || s.Height > MaxImageDim {
		return fmt.Errorf("%w: %s (max %d per axis)", ErrImageSizeInvalid, s, MaxImageDim)
	}
	return nil
}
