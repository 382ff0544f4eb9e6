package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// R4AA is a rotation of Theta radians about the axis (RX, RY, RZ). The axis need not be unit length; it is
// normalized on use and a zero axis means no rotation.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA returns the zero rotation about +Z.
func NewR4AA() *R4AA {
	return &R4AA{RZ: 1}
}

// NewR4AAFromAxis rotates theta radians about axis.
func NewR4AAFromAxis(theta float64, axis r3.Vector) *R4AA {
	return &R4AA{Theta: theta, RX: axis.X, RY: axis.Y, RZ: axis.Z}
}

// Axis returns the unit rotation axis, or the zero vector when there is none.
func (r4 *R4AA) Axis() r3.Vector {
	v := r3.Vector{X: r4.RX, Y: r4.RY, Z: r4.RZ}
	if v.Norm2() == 0 {
		return r3.Vector{}
	}
	return v.Normalize()
}

// AxisAngles returns the orientation in axis angle representation.
func (r4 *R4AA) AxisAngles() *R4AA {
	return r4
}

// Quaternion returns the unit quaternion cos(theta/2) + sin(theta/2)*axis.
func (r4 *R4AA) Quaternion() quat.Number {
	axis := r4.Axis()
	if axis.Norm2() == 0 {
		return quat.Number{Real: 1}
	}
	s, c := math.Sincos(r4.Theta / 2)
	return quat.Number{Real: c, Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// EulerAngles returns orientation in Euler angle representation.
func (r4 *R4AA) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(r4.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (r4 *R4AA) RotationMatrix() mgl64.Mat3 {
	axis := r4.Axis()
	if axis.Norm2() == 0 {
		return mgl64.Ident3()
	}
	return mgl64.HomogRotate3D(r4.Theta, mgl64.Vec3{axis.X, axis.Y, axis.Z}).Mat3()
}

// ToR3 returns the rotation vector theta*axis.
func (r4 *R4AA) ToR3() r3.Vector {
	return r4.Axis().Mul(r4.Theta)
}

// R3ToR4 converts a rotation vector back to an axis and angle.
func R3ToR4(aa r3.Vector) *R4AA {
	theta := aa.Norm()
	if theta == 0 {
		return NewR4AA()
	}
	return NewR4AAFromAxis(theta, aa.Mul(1/theta))
}
