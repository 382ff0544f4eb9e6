package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestGeometryConstructors(t *testing.T) {
	pose := NewPoseFromPoint(r3.Vector{Z: 0.1})

	box, err := NewBox(pose, r3.Vector{X: 1, Y: 2, Z: 3}, "base")
	test.That(t, err, test.ShouldBeNil)
	dims, err := box.Dimensions()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dims, test.ShouldResemble, []float64{1, 2, 3})

	_, err = NewBox(pose, r3.Vector{X: -1}, "")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "box")

	sphere, err := NewSphere(pose, 0.5, "")
	test.That(t, err, test.ShouldBeNil)
	dims, err = sphere.Dimensions()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dims, test.ShouldResemble, []float64{0.5})
	_, err = NewSphere(pose, -1, "")
	test.That(t, err, test.ShouldNotBeNil)

	cyl, err := NewCylinder(pose, 0.05, 0.3, "")
	test.That(t, err, test.ShouldBeNil)
	dims, err = cyl.Dimensions()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dims, test.ShouldResemble, []float64{0.05, 0.3})
	_, err = NewCylinder(pose, 0.05, -0.3, "")
	test.That(t, err, test.ShouldNotBeNil)

	mesh, err := NewMesh(pose, "meshes/link1.stl", r3.Vector{}, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mesh.MeshScale, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})
	_, err = NewMesh(pose, "", r3.Vector{}, "")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = (&GeometryConfig{Type: "cone"}).Dimensions()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, errGeometryTypeUnsupported.Error())
}

func TestGeometryTransform(t *testing.T) {
	box, err := NewBox(NewPoseFromPoint(r3.Vector{X: 1}), r3.Vector{X: 1, Y: 1, Z: 1}, "")
	test.That(t, err, test.ShouldBeNil)

	moved := box.Transform(NewPoseFromPoint(r3.Vector{Z: 2}))
	test.That(t, moved.Pose.Point(), test.ShouldResemble, r3.Vector{X: 1, Z: 2})
	// the original is untouched
	test.That(t, box.Pose.Point(), test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, moved.X, test.ShouldEqual, box.X)
}
