// Package urdf reads Unified Robot Description Format documents into the raw records a
// referenceframe.Model is built from.
package urdf

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"go.viam.com/armviz/referenceframe"
)

// Extension is the file extension associated with URDF files.
const Extension string = "urdf"

// UnmarshalModelXML parses a URDF document into raw link and joint records, in document order. Nothing is
// cross checked beyond what a single element needs; that is left to ModelConfig.ParseConfig. modelName
// overrides the robot name in the document when it is not empty.
//
// Every failure is a *ParseError. The first problem aborts parsing.
func UnmarshalModelXML(data []byte, modelName string) (*referenceframe.ModelConfig, error) {
	return decode(data, modelName, "")
}

// ReadModelXMLFile reads and parses the URDF file at filename. Relative and package:// mesh filenames are
// resolved against the directory of the file.
func ReadModelXMLFile(filename, modelName string) (*referenceframe.ModelConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	dir, err := filepath.Abs(filepath.Dir(filename))
	if err != nil {
		return nil, err
	}
	mc, err := decode(data, modelName, dir)
	if err != nil {
		return nil, err
	}
	mc.OriginalFile = &referenceframe.ModelFile{Bytes: data, Extension: Extension, Dir: dir}
	return mc, nil
}

// ParseModelXMLFile reads the URDF file at filename and builds the validated model.
func ParseModelXMLFile(filename, modelName string) (*referenceframe.Model, error) {
	mc, err := ReadModelXMLFile(filename, modelName)
	if err != nil {
		return nil, err
	}
	return mc.ParseConfig(modelName)
}

// ParseModelXML parses a URDF document and builds the validated model.
func ParseModelXML(data []byte, modelName string) (*referenceframe.Model, error) {
	mc, err := UnmarshalModelXML(data, modelName)
	if err != nil {
		return nil, err
	}
	return mc.ParseConfig(modelName)
}

func decode(data []byte, modelName, dir string) (*referenceframe.ModelConfig, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true

	var root xml.StartElement
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil, newParseError("", referenceframe.ErrNoModelInformation)
		}
		if err != nil {
			return nil, syntaxError(d, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			root = se
			break
		}
	}
	line, _ := d.InputPos()
	if root.Name.Local != "robot" {
		return nil, newParseError(fmt.Sprintf("line %d", line),
			errors.Errorf("root element is <%s>, want <robot>", root.Name.Local))
	}

	mc := &referenceframe.ModelConfig{Name: modelName, Materials: map[string]referenceframe.Material{}}
	if mc.Name == "" {
		for _, a := range root.Attr {
			if a.Name.Local == "name" {
				mc.Name = a.Value
			}
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, syntaxError(d, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := d.InputPos()
			if err := decodeElement(d, &t, line, dir, mc); err != nil {
				return nil, err
			}
		case xml.EndElement:
			// the decoder matches tags, so this closes <robot>
			if err := checkTrailing(d); err != nil {
				return nil, err
			}
			return mc, nil
		default:
		}
	}
}

// checkTrailing reads the rest of the document. Only whitespace, comments and processing instructions may
// follow the root element.
func checkTrailing(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return syntaxError(d, err)
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				line, _ := d.InputPos()
				return newParseError(fmt.Sprintf("line %d", line), errors.New("text after the root element"))
			}
		case xml.StartElement:
			line, _ := d.InputPos()
			return newParseError(fmt.Sprintf("line %d", line),
				errors.Errorf("element <%s> after the root element", t.Name.Local))
		default:
			line, _ := d.InputPos()
			return newParseError(fmt.Sprintf("line %d", line), errors.New("unexpected markup after the root element"))
		}
	}
}

func decodeElement(d *xml.Decoder, start *xml.StartElement, line int, dir string, mc *referenceframe.ModelConfig) error {
	switch start.Name.Local {
	case "link":
		var l link
		if err := d.DecodeElement(&l, start); err != nil {
			return syntaxError(d, err)
		}
		lc, err := l.toConfig(line, dir)
		if err != nil {
			return err
		}
		mc.Links = append(mc.Links, lc)
	case "joint":
		var j joint
		if err := d.DecodeElement(&j, start); err != nil {
			return syntaxError(d, err)
		}
		jc, err := j.toConfig(line)
		if err != nil {
			return err
		}
		mc.Joints = append(mc.Joints, jc)
	case "material":
		var m material
		if err := d.DecodeElement(&m, start); err != nil {
			return syntaxError(d, err)
		}
		mat, err := m.toMaterial(line)
		if err != nil {
			return err
		}
		mc.Materials[mat.Name] = mat
	default:
		// transmission, gazebo and other extension blocks
		if err := d.Skip(); err != nil {
			return syntaxError(d, err)
		}
	}
	return nil
}

func syntaxError(d *xml.Decoder, err error) *ParseError {
	var serr *xml.SyntaxError
	if errors.As(err, &serr) {
		return newParseError(fmt.Sprintf("line %d", serr.Line), err)
	}
	line, _ := d.InputPos()
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return newParseError(fmt.Sprintf("line %d", line), err)
}

// MarshalModelXML writes a model back out as a URDF document. Links keep their traversal order and joints
// their declaration order. Materials of the source description are written when the model still carries
// its raw records.
func MarshalModelXML(m *referenceframe.Model) ([]byte, error) {
	doc := robot{Name: m.Name()}
	if cfg := m.Config(); cfg != nil {
		names := make([]string, 0, len(cfg.Materials))
		for name := range cfg.Materials {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			mat := cfg.Materials[name]
			out := material{Name: mat.Name, Color: &color{RGBA: fmt.Sprintf("%s %s %s %s",
				formatFloat(mat.RGBA[0]), formatFloat(mat.RGBA[1]), formatFloat(mat.RGBA[2]), formatFloat(mat.RGBA[3]))}}
			if mat.Texture != "" {
				out.Texture = &texture{Filename: mat.Texture}
			}
			doc.Materials = append(doc.Materials, out)
		}
	}

	for _, l := range m.Links() {
		out := link{Name: l.Name}
		if in := l.Inertial; in != nil {
			out.Inertial = &inertial{
				Origin: newPose(in.Origin),
				Mass:   &mass{Value: formatFloat(in.Mass)},
			}
			if in.Inertia != nil {
				out.Inertial.Inertia = &inertia{
					Ixx: formatFloat(in.Inertia.At(0, 0)), Ixy: formatFloat(in.Inertia.At(0, 1)), Ixz: formatFloat(in.Inertia.At(0, 2)),
					Iyy: formatFloat(in.Inertia.At(1, 1)), Iyz: formatFloat(in.Inertia.At(1, 2)), Izz: formatFloat(in.Inertia.At(2, 2)),
				}
			}
		}
		for _, v := range l.Visuals {
			origin, g, err := newGeometry(v.Geometry)
			if err != nil {
				return nil, errors.Wrapf(err, "link %q", l.Name)
			}
			vis := visual{Name: v.Name, Origin: origin, Geometry: g}
			if v.Material != "" {
				vis.Material = &material{Name: v.Material}
			}
			out.Visuals = append(out.Visuals, vis)
		}
		for _, c := range l.Collisions {
			origin, g, err := newGeometry(c)
			if err != nil {
				return nil, errors.Wrapf(err, "link %q", l.Name)
			}
			out.Collisions = append(out.Collisions, collision{Name: c.Label, Origin: origin, Geometry: g})
		}
		doc.Links = append(doc.Links, out)
	}

	links := m.Links()
	for _, j := range m.Joints() {
		out := joint{
			Name:   j.Name,
			Type:   string(j.Type),
			Origin: newPose(j.Origin),
			Parent: &frame{Link: links[j.Parent].Name},
			Child:  &frame{Link: links[j.Child].Name},
		}
		if j.Type.Movable() {
			out.Axis = &axis{XYZ: formatTriple(j.Axis.X, j.Axis.Y, j.Axis.Z)}
		}
		if j.Limit != nil {
			out.Limit = &limit{Lower: formatFloat(j.Limit.Min), Upper: formatFloat(j.Limit.Max)}
		}
		doc.Joints = append(doc.Joints, out)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
