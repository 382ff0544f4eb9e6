package referenceframe

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"go.viam.com/armviz/spatialmath"
)

// ModelConfig is the raw, unvalidated content of a robot description: links and joints in the order
// they were written, referring to each other by name.
type ModelConfig struct {
	Name      string
	Links     []LinkConfig
	Joints    []JointConfig
	Materials map[string]Material
	// OriginalFile is the description the records were read from, if any.
	OriginalFile *ModelFile
}

// ModelFile is a struct that stores the raw bytes of the file used to create the model as well as its extension,
// which is useful for knowing how to unmarshal it.
type ModelFile struct {
	Bytes     []byte
	Extension string
	// Dir is the directory the file was read from, used to resolve relative mesh paths.
	Dir string
}

// Material is a named color declared at the top level of a description. Resolving it onto visuals is left to
// the renderer.
type Material struct {
	Name    string
	RGBA    [4]float64
	Texture string
}

// LinkConfig is a raw link record.
type LinkConfig struct {
	ID         string
	Inertial   *Inertial
	Visuals    []Visual
	Collisions []*spatialmath.GeometryConfig
}

// JointConfig is a raw joint record.
type JointConfig struct {
	ID     string
	Type   JointType
	Parent string
	Child  string
	// Origin is the pose of the joint frame in the parent link frame. Nil means identity.
	Origin *spatialmath.Pose
	// Axis need not be unit length; it is normalized when the model is built. The zero vector means the default (1, 0, 0).
	Axis  r3.Vector
	Limit *Limit
}

// toJoint validates the record and converts it to a joint with unresolved link indices.
func (jc *JointConfig) toJoint() (Joint, error) {
	j := Joint{Name: jc.ID, Type: jc.Type, Origin: spatialmath.NewZeroPose(), Parent: -1, Child: -1, Index: -1}
	if jc.Origin != nil {
		j.Origin = *jc.Origin
	}
	if !jc.Type.Valid() {
		return j, NewUnsupportedJointTypeError(string(jc.Type))
	}
	if !jc.Type.Movable() {
		return j, nil
	}

	axis := jc.Axis
	if axis == (r3.Vector{}) {
		axis = r3.Vector{X: 1}
	}
	j.Axis = axis.Normalize()

	if jc.Type != ContinuousJoint && jc.Limit != nil {
		if jc.Limit.Min > jc.Limit.Max {
			return j, NewInvalidJointError(jc.ID, fmt.Sprintf("lower limit %g is above upper limit %g", jc.Limit.Min, jc.Limit.Max))
		}
		lim := *jc.Limit
		j.Limit = &lim
	}
	return j, nil
}

// ParseConfig validates the records and builds the kinematic tree. modelName overrides the name in the
// config when it is not empty.
//
// Links are ordered by a depth first traversal from the root that visits children in the order their joints
// were declared, so every link comes after its parent. Movable joints receive dense indices in the same order.
func (cfg *ModelConfig) ParseConfig(modelName string) (*Model, error) {
	if modelName == "" {
		modelName = cfg.Name
	}

	// name -> record index
	linkByName := make(map[string]int, len(cfg.Links))
	for i, lc := range cfg.Links {
		if _, ok := linkByName[lc.ID]; ok {
			return nil, NewDuplicateNameError("link", lc.ID)
		}
		linkByName[lc.ID] = i
	}
	jointByName := make(map[string]int, len(cfg.Joints))
	for i, jc := range cfg.Joints {
		if _, ok := jointByName[jc.ID]; ok {
			return nil, NewDuplicateNameError("joint", jc.ID)
		}
		jointByName[jc.ID] = i
	}

	joints := make([]Joint, len(cfg.Joints))
	for i := range cfg.Joints {
		jc := &cfg.Joints[i]
		j, err := jc.toJoint()
		if err != nil {
			return nil, err
		}
		var ok bool
		if j.Parent, ok = linkByName[jc.Parent]; !ok {
			return nil, NewDanglingReferenceError(jc.ID, "parent", jc.Parent)
		}
		if j.Child, ok = linkByName[jc.Child]; !ok {
			return nil, NewDanglingReferenceError(jc.ID, "child", jc.Child)
		}
		joints[i] = j
	}

	// per link: the joint naming it as child, and the joints naming it as parent in declaration order
	parentJoint := make([]int, len(cfg.Links))
	for i := range parentJoint {
		parentJoint[i] = -1
	}
	children := make([][]int, len(cfg.Links))
	for i, j := range joints {
		if prev := parentJoint[j.Child]; prev >= 0 {
			return nil, NewMultipleParentsError(cfg.Links[j.Child].ID, joints[prev].Name, j.Name)
		}
		parentJoint[j.Child] = i
		children[j.Parent] = append(children[j.Parent], i)
	}

	var roots []int
	for i, pj := range parentJoint {
		if pj < 0 {
			roots = append(roots, i)
		}
	}
	switch {
	case len(cfg.Links) == 0:
		return nil, NewNoRootError("description has no links")
	case len(roots) == 0:
		return nil, NewNoRootError("every link is the child of a joint")
	case len(roots) > 1:
		names := make([]string, 0, len(roots))
		for _, r := range roots {
			names = append(names, cfg.Links[r].ID)
		}
		return nil, NewMultipleRootsError(names)
	}

	// pre-order depth first traversal from the root
	order := make([]int, 0, len(cfg.Links))
	visited := make([]bool, len(cfg.Links))
	stack := []int{roots[0]}
	for len(stack) > 0 {
		l := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[l] {
			continue
		}
		visited[l] = true
		order = append(order, l)
		kids := children[l]
		for k := len(kids) - 1; k >= 0; k-- {
			stack = append(stack, joints[kids[k]].Child)
		}
	}
	if len(order) < len(cfg.Links) {
		return nil, NewCycleDetectedError(cycleNames(cfg, joints, visited))
	}

	model := NewModel(modelName)
	model.config = cfg
	position := make([]int, len(cfg.Links))
	for pos, rec := range order {
		position[rec] = pos
		lc := cfg.Links[rec]
		model.links = append(model.links, Link{
			Name:       lc.ID,
			Inertial:   lc.Inertial,
			Visuals:    lc.Visuals,
			Collisions: lc.Collisions,
		})
		model.linkIndex[lc.ID] = pos
	}
	for i := range joints {
		joints[i].Parent = position[joints[i].Parent]
		joints[i].Child = position[joints[i].Child]
	}
	model.joints = joints
	for name, i := range jointByName {
		model.jointIndex[name] = i
	}

	model.parentJoint = make([]int, len(order))
	for pos, rec := range order {
		pj := parentJoint[rec]
		model.parentJoint[pos] = pj
		if pj >= 0 && joints[pj].Type.Movable() {
			joints[pj].Index = len(model.movable)
			model.movable = append(model.movable, pj)
		}
	}
	return model, nil
}

// cycleNames returns the links of one cycle among the links the traversal never reached. With a single root
// and at most one parent per link, following parents from any unreached link can only loop.
func cycleNames(cfg *ModelConfig, joints []Joint, visited []bool) []string {
	g := simple.NewDirectedGraph()
	for i, seen := range visited {
		if !seen {
			g.AddNode(simple.Node(i))
		}
	}
	var names []string
	for _, j := range joints {
		if visited[j.Parent] || visited[j.Child] {
			continue
		}
		if j.Parent == j.Child {
			// simple graphs reject self edges
			return []string{cfg.Links[j.Child].ID}
		}
		g.SetEdge(g.NewEdge(simple.Node(j.Parent), simple.Node(j.Child)))
	}
	if cycles := topo.DirectedCyclesIn(g); len(cycles) > 0 {
		seen := map[int64]bool{}
		for _, n := range cycles[0] {
			if !seen[n.ID()] {
				seen[n.ID()] = true
				names = append(names, cfg.Links[n.ID()].ID)
			}
		}
		return names
	}
	for i, seen := range visited {
		if !seen {
			names = append(names, cfg.Links[i].ID)
		}
	}
	return names
}
