package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// GeometryType defines what geometry creator representations are known.
type GeometryType string

// The set of allowed representations for a primitive shape.
const (
	UnknownType  = GeometryType("")
	BoxType      = GeometryType("box")
	SphereType   = GeometryType("sphere")
	CylinderType = GeometryType("cylinder")
	MeshType     = GeometryType("mesh")
)

var errGeometryTypeUnsupported = errors.New("unsupported Geometry type")

func newBadGeometryDimensionsError(t GeometryType) error {
	return fmt.Errorf("invalid dimension(s) for geometry type %s", t)
}

// GeometryConfig describes a shape attached to a link. It is a descriptor only: tessellating
// primitives and loading meshes is left to whoever draws it.
type GeometryConfig struct {
	Type GeometryType `json:"type"`

	// box full extents
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	Z float64 `json:"z,omitempty"`

	// sphere and cylinder
	R float64 `json:"r,omitempty"`
	// cylinder length along its local Z axis
	L float64 `json:"l,omitempty"`

	MeshFile  string    `json:"mesh_file,omitempty"`
	MeshScale r3.Vector `json:"mesh_scale,omitempty"`

	// Pose of the shape in the frame of its link.
	Pose  Pose   `json:"-"`
	Label string `json:"label,omitempty"`
}

// NewBox describes a box of the given full dimensions centered on pose.
func NewBox(pose Pose, dims r3.Vector, label string) (*GeometryConfig, error) {
	// Negative dimensions not allowed. Zero dimensions are allowed for flat plates.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError(BoxType)
	}
	return &GeometryConfig{Type: BoxType, X: dims.X, Y: dims.Y, Z: dims.Z, Pose: pose, Label: label}, nil
}

// NewSphere describes a sphere of the given radius centered on pose.
func NewSphere(pose Pose, radius float64, label string) (*GeometryConfig, error) {
	if radius < 0 {
		return nil, newBadGeometryDimensionsError(SphereType)
	}
	return &GeometryConfig{Type: SphereType, R: radius, Pose: pose, Label: label}, nil
}

// NewCylinder describes a cylinder centered on pose whose axis is the local Z axis.
func NewCylinder(pose Pose, radius, length float64, label string) (*GeometryConfig, error) {
	if radius < 0 || length < 0 {
		return nil, newBadGeometryDimensionsError(CylinderType)
	}
	return &GeometryConfig{Type: CylinderType, R: radius, L: length, Pose: pose, Label: label}, nil
}

// NewMesh describes a mesh file placed at pose. A zero scale is treated as unit scale.
func NewMesh(pose Pose, filename string, scale r3.Vector, label string) (*GeometryConfig, error) {
	if filename == "" {
		return nil, errors.New("mesh geometry requires a filename")
	}
	if scale == (r3.Vector{}) {
		scale = r3.Vector{X: 1, Y: 1, Z: 1}
	}
	return &GeometryConfig{Type: MeshType, MeshFile: filename, MeshScale: scale, Pose: pose, Label: label}, nil
}

// Transform returns a copy of the geometry moved by pose, i.e. pose is applied in the parent frame of the
// geometry's current placement.
func (g *GeometryConfig) Transform(pose Pose) *GeometryConfig {
	moved := *g
	moved.Pose = Compose(pose, g.Pose)
	return &moved
}

// Dimensions returns the parameters of the shape in a fixed order per type, which is what a mesher needs.
func (g *GeometryConfig) Dimensions() ([]float64, error) {
	switch g.Type {
	case BoxType:
		return []float64{g.X, g.Y, g.Z}, nil
	case SphereType:
		return []float64{g.R}, nil
	case CylinderType:
		return []float64{g.R, g.L}, nil
	case MeshType:
		return []float64{g.MeshScale.X, g.MeshScale.Y, g.MeshScale.Z}, nil
	case UnknownType:
		fallthrough
	default:
		return nil, fmt.Errorf("%w %s", errGeometryTypeUnsupported, g.Type)
	}
}
