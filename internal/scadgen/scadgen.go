// Package scadgen builds OpenSCAD source programmatically: primitives,
// boolean operations, and transforms compose into a node tree that emits
// deterministic script text. All geometry evaluation happens in the external
// renderer; this package only generates source.
package scadgen

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSegments is the curve resolution applied when a primitive does not
// specify one.
const DefaultSegments = 50

// Node is one element of a model tree.
type Node interface {
	emit(w *sourceWriter)
}

// Vec3 is an x/y/z triple used by transforms and box sizes.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) String() string {
	return fmt.Sprintf("[%s, %s, %s]", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
}

// Cube returns a cube primitive with equal sides.
func Cube(size float64, center bool) Node {
	return statement{fmt.Sprintf("cube(size = %s, center = %t);", formatFloat(size), center)}
}

// Box returns a rectangular cuboid primitive.
func Box(size Vec3, center bool) Node {
	return statement{fmt.Sprintf("cube(size = %s, center = %t);", size, center)}
}

// Sphere returns a sphere primitive. A non-positive segments value falls back
// to DefaultSegments.
func Sphere(radius float64, segments int) Node {
	return statement{fmt.Sprintf("sphere(r = %s, $fn = %d);", formatFloat(radius), normalizeSegments(segments))}
}

// Cylinder returns a straight cylinder primitive.
func Cylinder(height, radius float64, center bool, segments int) Node {
	return statement{fmt.Sprintf(
		"cylinder(h = %s, r = %s, center = %t, $fn = %d);",
		formatFloat(height), formatFloat(radius), center, normalizeSegments(segments),
	)}
}

// Cone returns a truncated cone primitive; r2 = 0 gives a point.
func Cone(height, r1, r2 float64, center bool, segments int) Node {
	return statement{fmt.Sprintf(
		"cylinder(h = %s, r1 = %s, r2 = %s, center = %t, $fn = %d);",
		formatFloat(height), formatFloat(r1), formatFloat(r2), center, normalizeSegments(segments),
	)}
}

// Union combines nodes.
func Union(nodes ...Node) Node {
	return group{head: "union()", children: nodes}
}

// Difference subtracts nodes from a base node.
func Difference(base Node, subtract ...Node) Node {
	return group{head: "difference()", children: append([]Node{base}, subtract...)}
}

// Intersection keeps only the overlap of nodes.
func Intersection(nodes ...Node) Node {
	return group{head: "intersection()", children: nodes}
}

// Translate moves a node by a vector.
func Translate(v Vec3, node Node) Node {
	return group{head: "translate(" + v.String() + ")", children: []Node{node}}
}

// Rotate rotates a node by per-axis angles in degrees.
func Rotate(angles Vec3, node Node) Node {
	return group{head: "rotate(" + angles.String() + ")", children: []Node{node}}
}

// Scale scales a node by per-axis factors.
func Scale(factors Vec3, node Node) Node {
	return group{head: "scale(" + factors.String() + ")", children: []Node{node}}
}

// Color applies a named color to a node.
func Color(name string, node Node) Node {
	return group{head: fmt.Sprintf("color(%q)", name), children: []Node{node}}
}

// Source emits the OpenSCAD text for a model tree.
func Source(node Node) string {
	w := &sourceWriter{}
	node.emit(w)
	return w.b.String()
}

type statement struct {
	text string
}

func (s statement) emit(w *sourceWriter) {
	w.line(s.text)
}

type group struct {
	head     string
	children []Node
}

func (g group) emit(w *sourceWriter) {
	w.line(g.head + " {")
	w.indent++
	for _, child := range g.children {
		child.emit(w)
	}
	w.indent--
	w.line("}")
}

type sourceWriter struct {
	b      strings.Builder
	indent int
}

func (w *sourceWriter) line(text string) {
	for i := 0; i < w.indent; i++ {
		w.b.WriteString("  ")
	}
	w.b.WriteString(text)
	w.b.WriteByte('\n')
}

func normalizeSegments(segments int) int {
	if segments <= 0 {
		return DefaultSegments
	}
	return segments
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
