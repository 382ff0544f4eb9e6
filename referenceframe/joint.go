package referenceframe

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/armviz/spatialmath"
)

// JointType is the kind of motion a joint allows. The set is closed.
type JointType string

// The supported joint types.
const (
	FixedJoint      = JointType("fixed")
	RevoluteJoint   = JointType("revolute")
	ContinuousJoint = JointType("continuous")
	PrismaticJoint  = JointType("prismatic")
)

// Movable reports whether a joint of this type owns a slot in the joint state.
func (t JointType) Movable() bool {
	return t == RevoluteJoint || t == ContinuousJoint || t == PrismaticJoint
}

// Valid reports whether t is one of the supported joint types.
func (t JointType) Valid() bool {
	return t == FixedJoint || t.Movable()
}

// Limit represents the limits of motion for a joint. Revolute limits are in radians, prismatic limits in meters.
type Limit struct {
	Min float64
	Max float64
}

// Clamp returns v restricted to [Min, Max].
func (l Limit) Clamp(v float64) float64 {
	return math.Max(l.Min, math.Min(l.Max, v))
}

// Contains reports whether v is within [Min, Max].
func (l Limit) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

func (l Limit) String() string {
	return fmt.Sprintf("[%g, %g]", l.Min, l.Max)
}

// Joint connects exactly one parent link to exactly one child link.
type Joint struct {
	Name string
	Type JointType
	// Axis is a unit vector in the joint frame. It is the zero vector for fixed joints.
	Axis r3.Vector
	// Limit is nil when the joint is unbounded. Continuous joints never have one.
	Limit *Limit
	// Origin is the pose of the joint frame in the frame of the parent link.
	Origin spatialmath.Pose
	// Parent and Child index Model.Links.
	Parent int
	Child  int
	// Index is the dense joint state index, or -1 for fixed joints.
	Index int
}

// Movable reports whether the joint has a joint state slot.
func (j *Joint) Movable() bool {
	return j.Index >= 0
}

// Motion returns the pose of the child frame relative to the joint frame for the joint value q.
// Revolute and continuous joints rotate q radians about Axis; prismatic joints translate q meters along it.
func (j *Joint) Motion(q Input) spatialmath.Pose {
	switch j.Type {
	case FixedJoint:
		return spatialmath.NewZeroPose()
	case RevoluteJoint, ContinuousJoint:
		return spatialmath.NewPoseFromOrientation(spatialmath.NewR4AAFromAxis(q, j.Axis))
	case PrismaticJoint:
		return spatialmath.NewPoseFromPoint(j.Axis.Mul(q))
	default:
		// models only contain validated joint types
		panic(NewUnsupportedJointTypeError(string(j.Type)))
	}
}

// Transform returns origin * motion, the pose of the child link in the frame of the parent link.
func (j *Joint) Transform(q Input) spatialmath.Pose {
	return spatialmath.Compose(j.Origin, j.Motion(q))
}
