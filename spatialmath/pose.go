// Package spatialmath defines spatial mathematical operations.
// Poses are rigid transforms stored as a single 4x4 homogeneous matrix so they compose with one
// multiplication and can be handed to a renderer without conversion.
package spatialmath

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// defaultPrecision is the tolerance used by the AlmostEqual helpers.
const defaultPrecision = 1e-6

// Pose represents a rigid transform: a rotation followed by a translation, expressed in the parent frame.
// The zero value is not a valid pose; use NewZeroPose for the identity.
type Pose struct {
	mat mgl64.Mat4
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return Pose{mat: mgl64.Ident4()}
}

// NewPose returns a pose with the given translation and orientation. A nil orientation means no rotation.
func NewPose(point r3.Vector, o Orientation) Pose {
	m := mgl64.Ident4()
	if o != nil {
		m = o.RotationMatrix().Mat4()
	}
	m.Set(0, 3, point.X)
	m.Set(1, 3, point.Y)
	m.Set(2, 3, point.Z)
	return Pose{mat: m}
}

// NewPoseFromPoint returns a pure translation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return Pose{mat: mgl64.Translate3D(point.X, point.Y, point.Z)}
}

// NewPoseFromOrientation returns a pure rotation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// NewPoseFromMatrix wraps a homogeneous matrix. The caller is responsible for it being rigid.
func NewPoseFromMatrix(m mgl64.Mat4) Pose {
	return Pose{mat: m}
}

// Point returns the translation component.
func (p Pose) Point() r3.Vector {
	return r3.Vector{X: p.mat.At(0, 3), Y: p.mat.At(1, 3), Z: p.mat.At(2, 3)}
}

// Orientation returns the rotation component.
func (p Pose) Orientation() Orientation {
	rm := rotationMatrix(p.mat.Mat3())
	return &rm
}

// Matrix returns the underlying column-major homogeneous matrix.
func (p Pose) Matrix() mgl64.Mat4 {
	return p.mat
}

// Float32 returns the matrix in single precision, the layout expected by GPU uniform buffers.
func (p Pose) Float32() mgl32.Mat4 {
	var out mgl32.Mat4
	for i, v := range p.mat {
		out[i] = float32(v)
	}
	return out
}

// String renders the translation and the rpy angles.
func (p Pose) String() string {
	pt := p.Point()
	ea := p.Orientation().EulerAngles()
	return fmt.Sprintf("{X:%.6f Y:%.6f Z:%.6f Roll:%.6f Pitch:%.6f Yaw:%.6f}", pt.X, pt.Y, pt.Z, ea.Roll, ea.Pitch, ea.Yaw)
}

// Compose returns a pose equal to applying b in the frame of a, i.e. the matrix product a * b.
func Compose(a, b Pose) Pose {
	return Pose{mat: a.mat.Mul4(b.mat)}
}

// PoseInverse returns the inverse of a rigid pose.
func PoseInverse(p Pose) Pose {
	rt := p.mat.Mat3().Transpose()
	t := rt.Mul3x1(mgl64.Vec3{p.mat.At(0, 3), p.mat.At(1, 3), p.mat.At(2, 3)})
	m := rt.Mat4()
	m.Set(0, 3, -t[0])
	m.Set(1, 3, -t[1])
	m.Set(2, 3, -t[2])
	return Pose{mat: m}
}

// PoseBetween returns the pose that takes a to b, such that Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseAlmostEqual returns whether two poses are equal up to floating point imprecision.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, defaultPrecision)
}

// PoseAlmostEqualEps compares every matrix element of two poses against the given tolerance.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return a.mat.ApproxEqualThreshold(b.mat, epsilon)
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return a.Sub(b).Abs().X < epsilon && a.Sub(b).Abs().Y < epsilon && a.Sub(b).Abs().Z < epsilon
}
