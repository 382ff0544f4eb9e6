package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// represent a 45 degree rotation around the x axis in all the representations
var (
	th    = math.Pi / 4.
	q45x  = quat.Number{Real: math.Cos(th / 2.), Imag: math.Sin(th / 2.)} // in quaternion representation
	aa45x = &R4AA{th, 1., 0., 0.}                                           // in axis-angle representation
	ea45x = &EulerAngles{Roll: th, Pitch: 0, Yaw: 0}                        // in euler angle representation
)

func TestZeroOrientation(t *testing.T) {
	zero := NewZeroOrientation()
	test.That(t, zero.AxisAngles().Theta, test.ShouldEqual, 0)
	test.That(t, zero.Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, zero.EulerAngles(), test.ShouldResemble, NewEulerAngles())
	test.That(t, zero.RotationMatrix(), test.ShouldResemble, mgl64.Ident3())
}

func TestQuaternions(t *testing.T) {
	qq45x := quaternion(q45x)
	test.That(t, qq45x.AxisAngles().Theta, test.ShouldAlmostEqual, aa45x.Theta)
	test.That(t, qq45x.AxisAngles().RX, test.ShouldAlmostEqual, aa45x.RX)
	test.That(t, qq45x.AxisAngles().RY, test.ShouldAlmostEqual, aa45x.RY)
	test.That(t, qq45x.AxisAngles().RZ, test.ShouldAlmostEqual, aa45x.RZ)
	test.That(t, qq45x.EulerAngles().Roll, test.ShouldAlmostEqual, ea45x.Roll)
	test.That(t, qq45x.EulerAngles().Pitch, test.ShouldAlmostEqual, ea45x.Pitch)
	test.That(t, qq45x.EulerAngles().Yaw, test.ShouldAlmostEqual, ea45x.Yaw)
	test.That(t, OrientationAlmostEqual(&qq45x, aa45x), test.ShouldBeTrue)
}

func TestEulerAngles(t *testing.T) {
	test.That(t, ea45x.Quaternion().Real, test.ShouldAlmostEqual, q45x.Real)
	test.That(t, ea45x.Quaternion().Imag, test.ShouldAlmostEqual, q45x.Imag)
	test.That(t, ea45x.Quaternion().Jmag, test.ShouldAlmostEqual, q45x.Jmag)
	test.That(t, ea45x.Quaternion().Kmag, test.ShouldAlmostEqual, q45x.Kmag)
	test.That(t, OrientationAlmostEqual(ea45x, aa45x), test.ShouldBeTrue)

	// rpy is fixed-axis: roll about X first, then yaw about the original Z
	ea := &EulerAngles{Roll: math.Pi / 2, Yaw: math.Pi / 2}
	rm := ea.RotationMatrix()
	y := rm.Mul3x1(mgl64.Vec3{0, 1, 0})
	test.That(t, y.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9), test.ShouldBeTrue)
	x := rm.Mul3x1(mgl64.Vec3{1, 0, 0})
	test.That(t, x.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9), test.ShouldBeTrue)

	// the matrix and quaternion paths agree
	ea = &EulerAngles{Roll: 0.3, Pitch: -0.7, Yaw: 1.9}
	test.That(t, QuatToRotationMatrix(ea.Quaternion()).ApproxEqualThreshold(ea.RotationMatrix(), 1e-9), test.ShouldBeTrue)

	back := QuatToEulerAngles(ea.Quaternion())
	test.That(t, back.Roll, test.ShouldAlmostEqual, ea.Roll)
	test.That(t, back.Pitch, test.ShouldAlmostEqual, ea.Pitch)
	test.That(t, back.Yaw, test.ShouldAlmostEqual, ea.Yaw)
}

func TestR4AA(t *testing.T) {
	aa := &R4AA{Theta: math.Pi / 2, RZ: 2}
	test.That(t, aa.Axis(), test.ShouldResemble, r3.Vector{Z: 1})
	x := aa.RotationMatrix().Mul3x1(mgl64.Vec3{1, 0, 0})
	test.That(t, x.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(aa, &quaternion{Real: 1}), test.ShouldBeFalse)
	q := aa.Quaternion()
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Sqrt2/2)
	test.That(t, q.Kmag, test.ShouldAlmostEqual, math.Sqrt2/2)

	back := R3ToR4(aa.ToR3())
	test.That(t, back.Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, back.RZ, test.ShouldAlmostEqual, 1)
	test.That(t, R3ToR4(r3.Vector{}), test.ShouldResemble, NewR4AA())

	// no axis, no rotation
	zero := &R4AA{Theta: 1}
	test.That(t, zero.RotationMatrix(), test.ShouldResemble, mgl64.Ident3())
	test.That(t, zero.Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
}
