// Package scadview holds the fixed camera presets used to render a script.
package scadview

import (
	"errors"
	"fmt"
	"strings"
)

// View selects one of the fixed camera presets.
type View string

const (
	ViewTop   View = "top"
	ViewFront View = "front"
	ViewLeft  View = "left"
	View3D    View = "3d"
)

// ErrInvalidView is returned when a view name is not in the preset table.
var ErrInvalidView = errors.New("invalid view")

// Projection is the renderer's projection mode flag value.
type Projection string

const (
	ProjectionOrtho       Projection = "ortho"
	ProjectionPerspective Projection = "perspective"
)

// Camera is an immutable camera pose plus projection mode. EyeCenter is
// pre-encoded in the renderer's six-float argv format:
// eye_x,eye_y,eye_z,center_x,center_y,center_z.
type Camera struct {
	EyeCenter  string
	Projection Projection
}

var cameras = map[View]Camera{
	ViewTop:   {EyeCenter: "0,0,100,0,0,0", Projection: ProjectionOrtho},
	ViewFront: {EyeCenter: "0,-100,0,0,0,0", Projection: ProjectionOrtho},
	ViewLeft:  {EyeCenter: "-100,0,0,0,0,0", Projection: ProjectionOrtho},
	View3D:    {EyeCenter: "70,70,50,0,0,0", Projection: ProjectionPerspective},
}

// All returns every defined view in stable order.
func All() []View {
	return []View{ViewTop, ViewFront, ViewLeft, View3D}
}

// Lookup returns the camera preset for a view, or ErrInvalidView naming the
// rejected value and the allowed set.
func Lookup(view View) (Camera, error) {
	camera, ok := cameras[view]
	if !ok {
		return Camera{}, fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidView, view, allowedViews())
	}
	return camera, nil
}

func allowedViews() string {
	names := make([]string, 0, len(cameras))
	for _, view := range All() {
		names = append(names, string(view))
	}
	return strings.Join(names, ", ")
}
