package scadgen

// DefaultExample is a cube with a spherical cutout.
func DefaultExample() Node {
	cube := Cube(10, true)
	sphere := Sphere(6.5, 100)
	return Color("orange", Difference(cube, sphere))
}

// ComplexExample is a hollowed cube with corner sphere cutouts and a
// decorative ring.
func ComplexExample() Node {
	outerCube := Cube(20, true)
	innerSphere := Sphere(13, 100)

	var cornerSpheres []Node
	for _, x := range []float64{-10, 10} {
		for _, y := range []float64{-10, 10} {
			for _, z := range []float64{-10, 10} {
				sphere := Translate(Vec3{X: x, Y: y, Z: z}, Sphere(5, 50))
				cornerSpheres = append(cornerSpheres, sphere)
			}
		}
	}

	allCutouts := Union(append([]Node{innerSphere}, cornerSpheres...)...)
	model := Color("lightblue", Difference(outerCube, allCutouts))

	ring := Difference(
		Cylinder(5, 15, true, 0),
		Cylinder(6, 12, true, 0),
	)
	ring = Color("gold", Rotate(Vec3{X: 90}, ring))

	return Union(model, ring)
}

// GearExample is a simple 12-tooth parametric gear.
func GearExample() Node {
	base := Cylinder(10, 20, true, 0)

	const numTeeth = 12
	var teeth []Node
	for i := 0; i < numTeeth; i++ {
		angle := float64(i) * 360 / numTeeth
		tooth := Box(Vec3{X: 8, Y: 4, Z: 10}, true)
		tooth = Translate(Vec3{X: 20}, tooth)
		tooth = Rotate(Vec3{Z: angle}, tooth)
		teeth = append(teeth, tooth)
	}

	hole := Cylinder(11, 5, true, 0)
	gear := Difference(Union(append([]Node{base}, teeth...)...), hole)
	return Color("darkgreen", gear)
}

// Examples maps CLI example names to model constructors.
var Examples = map[string]func() Node{
	"complex": ComplexExample,
	"gear":    GearExample,
}
