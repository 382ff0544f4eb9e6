package urdf

import (
	"encoding/xml"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/armviz/referenceframe"
	"go.viam.com/armviz/spatialmath"
)

// robot is the document root. It is only used for writing; reading walks the token stream so that every
// element can be reported with its line.
type robot struct {
	XMLName   xml.Name   `xml:"robot"`
	Name      string     `xml:"name,attr"`
	Materials []material `xml:"material"`
	Links     []link     `xml:"link"`
	Joints    []joint    `xml:"joint"`
}

type link struct {
	XMLName    xml.Name    `xml:"link"`
	Name       string      `xml:"name,attr"`
	Inertial   *inertial   `xml:"inertial,omitempty"`
	Visuals    []visual    `xml:"visual"`
	Collisions []collision `xml:"collision"`
}

type inertial struct {
	Origin  *pose    `xml:"origin,omitempty"`
	Mass    *mass    `xml:"mass,omitempty"`
	Inertia *inertia `xml:"inertia,omitempty"`
}

type mass struct {
	Value string `xml:"value,attr"` // kg
}

type inertia struct {
	Ixx string `xml:"ixx,attr"`
	Ixy string `xml:"ixy,attr"`
	Ixz string `xml:"ixz,attr"`
	Iyy string `xml:"iyy,attr"`
	Iyz string `xml:"iyz,attr"`
	Izz string `xml:"izz,attr"`
}

type visual struct {
	Name     string    `xml:"name,attr,omitempty"`
	Origin   *pose     `xml:"origin,omitempty"`
	Geometry *geometry `xml:"geometry"`
	Material *material `xml:"material,omitempty"`
}

type collision struct {
	Name     string    `xml:"name,attr,omitempty"`
	Origin   *pose     `xml:"origin,omitempty"`
	Geometry *geometry `xml:"geometry"`
}

// geometry keeps every shape child so that a block with more than one can be rejected.
type geometry struct {
	Boxes     []box      `xml:"box"`
	Cylinders []cylinder `xml:"cylinder"`
	Spheres   []sphere   `xml:"sphere"`
	Meshes    []mesh     `xml:"mesh"`
}

type box struct {
	Size string `xml:"size,attr"` // "x y z" format, in meters
}

type cylinder struct {
	Radius string `xml:"radius,attr"`
	Length string `xml:"length,attr"`
}

type sphere struct {
	Radius string `xml:"radius,attr"` // in meters
}

type mesh struct {
	Filename string `xml:"filename,attr"`
	Scale    string `xml:"scale,attr,omitempty"`
}

type material struct {
	Name    string   `xml:"name,attr"`
	Color   *color   `xml:"color,omitempty"`
	Texture *texture `xml:"texture,omitempty"`
}

type color struct {
	RGBA string `xml:"rgba,attr"`
}

type texture struct {
	Filename string `xml:"filename,attr"`
}

type frame struct {
	Link string `xml:"link,attr"`
}

type axis struct {
	XYZ string `xml:"xyz,attr"`
}

type limit struct {
	Lower string `xml:"lower,attr,omitempty"` // translation limits are in meters, revolute limits are in radians
	Upper string `xml:"upper,attr,omitempty"`
}

type joint struct {
	XMLName xml.Name `xml:"joint"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Origin  *pose    `xml:"origin,omitempty"`
	Parent  *frame   `xml:"parent"`
	Child   *frame   `xml:"child"`
	Axis    *axis    `xml:"axis,omitempty"`
	Limit   *limit   `xml:"limit,omitempty"`
}

type pose struct {
	XYZ string `xml:"xyz,attr,omitempty"` // "x y z" format, in meters
	RPY string `xml:"rpy,attr,omitempty"` // fixed frame angle "r p y" format, in radians
}

func (j *joint) toConfig(line int) (referenceframe.JointConfig, error) {
	var jc referenceframe.JointConfig
	where := fmt.Sprintf("line %d: joint %q", line, j.Name)
	if j.Name == "" {
		return jc, missingField(fmt.Sprintf("line %d: <joint>", line), "name")
	}
	if j.Type == "" {
		return jc, missingField(where, "type")
	}
	jType := referenceframe.JointType(j.Type)
	if !jType.Valid() {
		return jc, newParseError(where, referenceframe.NewUnsupportedJointTypeError(j.Type))
	}
	if j.Parent == nil || j.Parent.Link == "" {
		return jc, missingField(where, "<parent link>")
	}
	if j.Child == nil || j.Child.Link == "" {
		return jc, missingField(where, "<child link>")
	}
	jc = referenceframe.JointConfig{ID: j.Name, Type: jType, Parent: j.Parent.Link, Child: j.Child.Link}

	if j.Origin != nil {
		origin, err := j.Origin.parse(where + " <origin>")
		if err != nil {
			return jc, err
		}
		jc.Origin = &origin
	}
	if !jType.Movable() {
		return jc, nil
	}

	jc.Axis = r3.Vector{X: 1}
	if j.Axis != nil {
		v, err := parseTriple(where+" <axis>", "xyz", j.Axis.XYZ)
		if err != nil {
			return jc, err
		}
		if v.Norm() == 0 {
			return jc, newParseError(where+" <axis>", errors.Wrap(ErrInvalidValue, "axis has zero length"))
		}
		jc.Axis = v.Normalize()
	}

	if j.Limit != nil && jType != referenceframe.ContinuousJoint {
		lower, err := parseScalar(where+" <limit>", "lower", j.Limit.Lower, 0)
		if err != nil {
			return jc, err
		}
		upper, err := parseScalar(where+" <limit>", "upper", j.Limit.Upper, 0)
		if err != nil {
			return jc, err
		}
		if lower > upper {
			return jc, newParseError(where+" <limit>",
				errors.Wrapf(ErrInvalidValue, "lower limit %g is above upper limit %g", lower, upper))
		}
		jc.Limit = &referenceframe.Limit{Min: lower, Max: upper}
	}
	return jc, nil
}

func (l *link) toConfig(line int, dir string) (referenceframe.LinkConfig, error) {
	var lc referenceframe.LinkConfig
	if l.Name == "" {
		return lc, missingField(fmt.Sprintf("line %d: <link>", line), "name")
	}
	where := fmt.Sprintf("line %d: link %q", line, l.Name)
	lc.ID = l.Name

	if l.Inertial != nil {
		in, err := l.Inertial.parse(where + " <inertial>")
		if err != nil {
			return lc, err
		}
		lc.Inertial = in
	}
	for i, v := range l.Visuals {
		vwhere := fmt.Sprintf("%s <visual %d>", where, i)
		g, err := parseGeometry(vwhere, v.Origin, v.Geometry, v.Name, dir)
		if err != nil {
			return lc, err
		}
		vis := referenceframe.Visual{Name: v.Name, Geometry: g}
		if v.Material != nil {
			vis.Material = v.Material.Name
		}
		lc.Visuals = append(lc.Visuals, vis)
	}
	for i, c := range l.Collisions {
		g, err := parseGeometry(fmt.Sprintf("%s <collision %d>", where, i), c.Origin, c.Geometry, c.Name, dir)
		if err != nil {
			return lc, err
		}
		lc.Collisions = append(lc.Collisions, g)
	}
	return lc, nil
}

func (in *inertial) parse(where string) (*referenceframe.Inertial, error) {
	origin := spatialmath.NewZeroPose()
	if in.Origin != nil {
		var err error
		if origin, err = in.Origin.parse(where + " <origin>"); err != nil {
			return nil, err
		}
	}
	var m float64
	if in.Mass != nil {
		var err error
		if m, err = parseScalar(where+" <mass>", "value", in.Mass.Value, 0); err != nil {
			return nil, err
		}
	}
	var tensor [6]float64
	if in.Inertia != nil {
		attrs := []struct{ name, value string }{
			{"ixx", in.Inertia.Ixx}, {"ixy", in.Inertia.Ixy}, {"ixz", in.Inertia.Ixz},
			{"iyy", in.Inertia.Iyy}, {"iyz", in.Inertia.Iyz}, {"izz", in.Inertia.Izz},
		}
		for i, a := range attrs {
			v, err := parseScalar(where+" <inertia>", a.name, a.value, 0)
			if err != nil {
				return nil, err
			}
			tensor[i] = v
		}
	}
	return referenceframe.NewInertial(m, origin, tensor[0], tensor[1], tensor[2], tensor[3], tensor[4], tensor[5]), nil
}

func parseGeometry(where string, origin *pose, g *geometry, label, dir string) (*spatialmath.GeometryConfig, error) {
	placement := spatialmath.NewZeroPose()
	if origin != nil {
		var err error
		if placement, err = origin.parse(where + " <origin>"); err != nil {
			return nil, err
		}
	}
	if g == nil {
		return nil, missingField(where, "<geometry>")
	}
	if n := len(g.Boxes) + len(g.Cylinders) + len(g.Spheres) + len(g.Meshes); n != 1 {
		return nil, newParseError(where+" <geometry>", errors.Wrapf(ErrInvalidValue, "want exactly one shape, found %d", n))
	}
	gwhere := where + " <geometry>"

	var cfg *spatialmath.GeometryConfig
	var err error
	switch {
	case len(g.Boxes) == 1:
		if g.Boxes[0].Size == "" {
			return nil, missingField(gwhere+" <box>", "size")
		}
		dims, perr := parseTriple(gwhere+" <box>", "size", g.Boxes[0].Size)
		if perr != nil {
			return nil, perr
		}
		cfg, err = spatialmath.NewBox(placement, dims, label)
	case len(g.Cylinders) == 1:
		c := g.Cylinders[0]
		r, perr := requiredScalar(gwhere+" <cylinder>", "radius", c.Radius)
		if perr != nil {
			return nil, perr
		}
		length, perr := requiredScalar(gwhere+" <cylinder>", "length", c.Length)
		if perr != nil {
			return nil, perr
		}
		cfg, err = spatialmath.NewCylinder(placement, r, length, label)
	case len(g.Spheres) == 1:
		r, perr := requiredScalar(gwhere+" <sphere>", "radius", g.Spheres[0].Radius)
		if perr != nil {
			return nil, perr
		}
		cfg, err = spatialmath.NewSphere(placement, r, label)
	default:
		m := g.Meshes[0]
		if m.Filename == "" {
			return nil, missingField(gwhere+" <mesh>", "filename")
		}
		scale := r3.Vector{X: 1, Y: 1, Z: 1}
		if m.Scale != "" {
			var perr error
			if scale, perr = parseTriple(gwhere+" <mesh>", "scale", m.Scale); perr != nil {
				return nil, perr
			}
		}
		cfg, err = spatialmath.NewMesh(placement, resolveMeshPath(m.Filename, dir), scale, label)
	}
	if err != nil {
		return nil, newParseError(gwhere, errors.Wrap(ErrInvalidValue, err.Error()))
	}
	return cfg, nil
}

// resolveMeshPath maps package:// URIs and relative filenames onto dir. Without a dir the filename is kept as
// written.
func resolveMeshPath(filename, dir string) string {
	if dir == "" {
		return filename
	}
	if strings.HasPrefix(filename, "package://") {
		// drop the package name, the rest is relative to the description
		rest := strings.TrimPrefix(filename, "package://")
		if idx := strings.Index(rest, "/"); idx != -1 {
			rest = rest[idx+1:]
		}
		return filepath.Join(dir, rest)
	}
	if strings.Contains(filename, "://") || filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(dir, filename)
}

func (m *material) toMaterial(line int) (referenceframe.Material, error) {
	var out referenceframe.Material
	if m.Name == "" {
		return out, missingField(fmt.Sprintf("line %d: <material>", line), "name")
	}
	where := fmt.Sprintf("line %d: material %q", line, m.Name)
	out.Name = m.Name
	if m.Color != nil {
		fields := strings.Fields(m.Color.RGBA)
		if len(fields) != 4 {
			return out, newParseError(where+" <color>",
				errors.Wrapf(ErrInvalidValue, "rgba %q: want 4 components, got %d", m.Color.RGBA, len(fields)))
		}
		for i, f := range fields {
			v, err := parseFloat(f)
			if err != nil {
				return out, newParseError(where+" <color>", errors.Wrapf(err, "rgba %q", m.Color.RGBA))
			}
			out.RGBA[i] = v
		}
	}
	if m.Texture != nil {
		out.Texture = m.Texture.Filename
	}
	return out, nil
}

func (p *pose) parse(where string) (spatialmath.Pose, error) {
	var xyz, rpy r3.Vector
	var err error
	if p.XYZ != "" {
		if xyz, err = parseTriple(where, "xyz", p.XYZ); err != nil {
			return spatialmath.Pose{}, err
		}
	}
	if p.RPY != "" {
		if rpy, err = parseTriple(where, "rpy", p.RPY); err != nil {
			return spatialmath.Pose{}, err
		}
	}
	return spatialmath.NewPose(xyz, &spatialmath.EulerAngles{Roll: rpy.X, Pitch: rpy.Y, Yaw: rpy.Z}), nil
}

// parseTriple parses a space delimited "x y z" attribute. Exactly three finite numbers are accepted.
func parseTriple(where, attr, s string) (r3.Vector, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return r3.Vector{}, newParseError(where,
			errors.Wrapf(ErrInvalidValue, "%s %q: want 3 components, got %d", attr, s, len(fields)))
	}
	var v [3]float64
	for i, f := range fields {
		var err error
		if v[i], err = parseFloat(f); err != nil {
			return r3.Vector{}, newParseError(where, errors.Wrapf(err, "%s %q", attr, s))
		}
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

// parseScalar parses a single number, returning def when the attribute is absent.
func parseScalar(where, attr, s string, def float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return 0, newParseError(where, errors.Wrapf(err, "%s %q", attr, s))
	}
	return v, nil
}

func requiredScalar(where, attr, s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, missingField(where, attr)
	}
	return parseScalar(where, attr, s, 0)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidValue, err.Error())
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrInvalidValue, "%s is not finite", s)
	}
	return v, nil
}

// newPose formats a pose for writing. Angles come back through roll, pitch, yaw.
func newPose(p spatialmath.Pose) *pose {
	pt := p.Point()
	o := p.Orientation().EulerAngles()
	return &pose{
		XYZ: formatTriple(pt.X, pt.Y, pt.Z),
		RPY: formatTriple(o.Roll, o.Pitch, o.Yaw),
	}
}

func formatTriple(a, b, c float64) string {
	return strings.Join([]string{formatFloat(a), formatFloat(b), formatFloat(c)}, " ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func newGeometry(g *spatialmath.GeometryConfig) (*pose, *geometry, error) {
	out := &geometry{}
	switch g.Type {
	case spatialmath.BoxType:
		out.Boxes = []box{{Size: formatTriple(g.X, g.Y, g.Z)}}
	case spatialmath.CylinderType:
		out.Cylinders = []cylinder{{Radius: formatFloat(g.R), Length: formatFloat(g.L)}}
	case spatialmath.SphereType:
		out.Spheres = []sphere{{Radius: formatFloat(g.R)}}
	case spatialmath.MeshType:
		out.Meshes = []mesh{{Filename: g.MeshFile, Scale: formatTriple(g.MeshScale.X, g.MeshScale.Y, g.MeshScale.Z)}}
	case spatialmath.UnknownType:
		fallthrough
	default:
		return nil, nil, errors.Errorf("cannot write geometry of type %q", g.Type)
	}
	return newPose(g.Pose), out, nil
}
