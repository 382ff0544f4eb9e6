package referenceframe

import (
	"gonum.org/v1/gonum/mat"

	"go.viam.com/armviz/spatialmath"
)

// Inertial holds the mass properties of a link. They are carried through for consumers; forward kinematics
// does not use them.
type Inertial struct {
	Mass float64
	// Origin is the pose of the center of mass in the link frame.
	Origin spatialmath.Pose
	// Inertia is the 3x3 rotational inertia tensor about the center of mass.
	Inertia *mat.SymDense
}

// NewInertial builds the inertial block from the six independent tensor entries.
func NewInertial(mass float64, origin spatialmath.Pose, ixx, ixy, ixz, iyy, iyz, izz float64) *Inertial {
	return &Inertial{
		Mass:   mass,
		Origin: origin,
		Inertia: mat.NewSymDense(3, []float64{
			ixx, ixy, ixz,
			ixy, iyy, iyz,
			ixz, iyz, izz,
		}),
	}
}

// Visual is a shape drawn for a link together with the name of its material.
type Visual struct {
	Name     string
	Geometry *spatialmath.GeometryConfig
	Material string
}

// Link is a rigid body in the kinematic tree.
type Link struct {
	Name       string
	Inertial   *Inertial
	Visuals    []Visual
	Collisions []*spatialmath.GeometryConfig
}
