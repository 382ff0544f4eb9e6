package referenceframe

import (
	"math"
	"math/rand"

	"go.viam.com/armviz/spatialmath"
)

// Model is a validated kinematic tree. It is immutable once built and safe to share between goroutines.
//
// Links are stored parents first. Every movable joint owns a dense index into the joint state; fixed joints
// own none.
type Model struct {
	name   string
	links  []Link
	joints []Joint

	linkIndex  map[string]int
	jointIndex map[string]int
	// parentJoint[i] is the index into joints of the joint whose child is link i, -1 for the root.
	parentJoint []int
	// movable[k] is the index into joints of the joint with dense index k.
	movable []int

	config *ModelConfig
}

// NewModel constructs an empty model. Use ModelConfig.ParseConfig to build a populated one.
func NewModel(name string) *Model {
	return &Model{
		name:       name,
		linkIndex:  map[string]int{},
		jointIndex: map[string]int{},
	}
}

// Name returns the name of this model.
func (m *Model) Name() string {
	return m.name
}

// ChangeName changes the name of this model.
func (m *Model) ChangeName(name string) {
	m.name = name
}

// Config returns the raw records the model was built from.
func (m *Model) Config() *ModelConfig {
	return m.config
}

// Root returns the root link. It is always the first link.
func (m *Model) Root() *Link {
	if len(m.links) == 0 {
		return nil
	}
	return &m.links[0]
}

// Links returns the links in traversal order. The slice must not be modified.
func (m *Model) Links() []Link {
	return m.links
}

// Joints returns the joints in the order they were declared. The slice must not be modified.
func (m *Model) Joints() []Joint {
	return m.joints
}

// Link looks up a link by name.
func (m *Model) Link(name string) (*Link, bool) {
	i, ok := m.linkIndex[name]
	if !ok {
		return nil, false
	}
	return &m.links[i], true
}

// LinkIndex returns the position of the named link in Links.
func (m *Model) LinkIndex(name string) (int, bool) {
	i, ok := m.linkIndex[name]
	return i, ok
}

// Joint looks up a joint by name.
func (m *Model) Joint(name string) (*Joint, bool) {
	i, ok := m.jointIndex[name]
	if !ok {
		return nil, false
	}
	return &m.joints[i], true
}

// ParentJoint returns the joint whose child is the link at index i, or nil for the root.
func (m *Model) ParentJoint(i int) *Joint {
	if pj := m.parentJoint[i]; pj >= 0 {
		return &m.joints[pj]
	}
	return nil
}

// Children returns the indices of the links directly attached below the link at index i.
func (m *Model) Children(i int) []int {
	var kids []int
	for _, j := range m.joints {
		if j.Parent == i {
			kids = append(kids, j.Child)
		}
	}
	return kids
}

// MovableJoints returns the movable joints ordered by their dense index.
func (m *Model) MovableJoints() []*Joint {
	out := make([]*Joint, 0, len(m.movable))
	for _, ji := range m.movable {
		out = append(out, &m.joints[ji])
	}
	return out
}

// JointNames returns the names of the movable joints ordered by their dense index.
func (m *Model) JointNames() []string {
	out := make([]string, 0, len(m.movable))
	for _, ji := range m.movable {
		out = append(out, m.joints[ji].Name)
	}
	return out
}

// DoF returns the limits of each movable joint ordered by dense index. Unbounded joints report infinite limits.
func (m *Model) DoF() []Limit {
	limits := make([]Limit, 0, len(m.movable))
	for _, ji := range m.movable {
		if l := m.joints[ji].Limit; l != nil {
			limits = append(limits, *l)
		} else {
			limits = append(limits, Limit{Min: math.Inf(-1), Max: math.Inf(1)})
		}
	}
	return limits
}

// ComputePoses computes the world pose of every link for the given joint state, ordered like Links. The root is
// placed at base. out is reused when it has the right length, otherwise a new slice is allocated. A nil state
// puts every joint at zero.
func (m *Model) ComputePoses(state *JointState, base spatialmath.Pose, out []spatialmath.Pose) []spatialmath.Pose {
	if len(out) != len(m.links) {
		out = make([]spatialmath.Pose, len(m.links))
	}
	if len(out) == 0 {
		return out
	}
	out[0] = base
	for i := 1; i < len(m.links); i++ {
		j := &m.joints[m.parentJoint[i]]
		var q Input
		if j.Index >= 0 && state != nil {
			q = state.values[j.Index]
		}
		// parents precede children, so out[j.Parent] is final
		out[i] = spatialmath.Compose(out[j.Parent], j.Transform(q))
	}
	return out
}

// LinkPoses returns the world pose of every link keyed by name, with the root at the origin.
func (m *Model) LinkPoses(values []Input) (map[string]spatialmath.Pose, error) {
	state := NewJointState(m)
	if err := state.SetAll(values, false); err != nil {
		return nil, err
	}
	poses := m.ComputePoses(state, spatialmath.NewZeroPose(), nil)
	out := make(map[string]spatialmath.Pose, len(poses))
	for i, p := range poses {
		out[m.links[i].Name] = p
	}
	return out, nil
}

// GenerateRandomJointPositions generates joint values that are random but within the limits of each joint.
// Unbounded joints draw from [-pi, pi].
func GenerateRandomJointPositions(m *Model, randSeed *rand.Rand) []Input {
	limits := m.DoF()
	jointPos := make([]Input, 0, len(limits))
	for _, l := range limits {
		if math.IsInf(l.Min, 0) || math.IsInf(l.Max, 0) {
			l = Limit{Min: -math.Pi, Max: math.Pi}
		}
		jRange := math.Abs(l.Max - l.Min)
		jointPos = append(jointPos, randSeed.Float64()*jRange+l.Min)
	}
	return jointPos
}
