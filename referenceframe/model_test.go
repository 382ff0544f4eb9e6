package referenceframe

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	spatial "go.viam.com/armviz/spatialmath"
)

func posePtr(p spatial.Pose) *spatial.Pose {
	return &p
}

func linkConfigs(names ...string) []LinkConfig {
	links := make([]LinkConfig, 0, len(names))
	for _, n := range names {
		links = append(links, LinkConfig{ID: n})
	}
	return links
}

// gripperConfig is a small branching tree: an arm with one revolute joint ending in a fixed
// mount that carries two prismatic fingers.
func gripperConfig() *ModelConfig {
	return &ModelConfig{
		Name:  "gripper",
		Links: linkConfigs("right", "left", "mount", "arm", "base"),
		Joints: []JointConfig{
			{
				ID: "shoulder", Type: RevoluteJoint, Parent: "base", Child: "arm",
				Origin: posePtr(spatial.NewPoseFromPoint(r3.Vector{Z: 1})),
				Axis:   r3.Vector{Z: 1}, Limit: &Limit{Min: -1, Max: 1},
			},
			{
				ID: "mount_joint", Type: FixedJoint, Parent: "arm", Child: "mount",
				Origin: posePtr(spatial.NewPoseFromPoint(r3.Vector{X: 0.5})),
			},
			{ID: "left_joint", Type: PrismaticJoint, Parent: "mount", Child: "left", Axis: r3.Vector{Y: 2}},
			{ID: "right_joint", Type: PrismaticJoint, Parent: "mount", Child: "right", Axis: r3.Vector{Y: -1}},
		},
	}
}

func TestParseConfigOrder(t *testing.T) {
	m, err := gripperConfig().ParseConfig("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, "gripper")
	test.That(t, m.Root().Name, test.ShouldEqual, "base")

	var order []string
	for _, l := range m.Links() {
		order = append(order, l.Name)
	}
	test.That(t, order, test.ShouldResemble, []string{"base", "arm", "mount", "left", "right"})
	test.That(t, m.JointNames(), test.ShouldResemble, []string{"shoulder", "left_joint", "right_joint"})

	for i := range m.Links() {
		if pj := m.ParentJoint(i); pj != nil {
			test.That(t, pj.Parent, test.ShouldBeLessThan, i)
			test.That(t, pj.Child, test.ShouldEqual, i)
		}
	}

	mount, ok := m.LinkIndex("mount")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, m.Children(mount), test.ShouldResemble, []int{3, 4})

	fixed, ok := m.Joint("mount_joint")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, fixed.Movable(), test.ShouldBeFalse)
	test.That(t, fixed.Index, test.ShouldEqual, -1)

	left, ok := m.Joint("left_joint")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, left.Index, test.ShouldEqual, 1)
	test.That(t, left.Axis, test.ShouldResemble, r3.Vector{Y: 1})
	test.That(t, left.Limit, test.ShouldBeNil)

	dof := m.DoF()
	test.That(t, len(dof), test.ShouldEqual, 3)
	test.That(t, dof[0], test.ShouldResemble, Limit{Min: -1, Max: 1})
	test.That(t, math.IsInf(dof[1].Max, 1), test.ShouldBeTrue)

	_, ok = m.Link("nope")
	test.That(t, ok, test.ShouldBeFalse)

	m, err = gripperConfig().ParseConfig("foo")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, "foo")
}

func TestParseConfigDefaultAxis(t *testing.T) {
	cfg := &ModelConfig{
		Links:  linkConfigs("a", "b", "c"),
		Joints: []JointConfig{
			{ID: "j1", Type: ContinuousJoint, Parent: "a", Child: "b", Limit: &Limit{Min: -1, Max: 1}},
			{ID: "j2", Type: RevoluteJoint, Parent: "b", Child: "c", Axis: r3.Vector{X: 3, Y: 4}},
		},
	}
	m, err := cfg.ParseConfig("")
	test.That(t, err, test.ShouldBeNil)
	j1, _ := m.Joint("j1")
	test.That(t, j1.Axis, test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, j1.Limit, test.ShouldBeNil)
	test.That(t, spatial.NewPose(r3.Vector{}, nil).Matrix(), test.ShouldResemble, j1.Origin.Matrix())
	j2, _ := m.Joint("j2")
	test.That(t, spatial.R3VectorAlmostEqual(j2.Axis, r3.Vector{X: 0.6, Y: 0.8}, 1e-12), test.ShouldBeTrue)
}

func TestParseConfigRejects(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cfg      *ModelConfig
		sentinel error
		mention  string
	}{
		{
			name: "duplicate link",
			cfg: &ModelConfig{
				Links:  linkConfigs("a", "b", "a"),
				Joints: []JointConfig{{ID: "j", Type: FixedJoint, Parent: "a", Child: "b"}},
			},
			sentinel: ErrDuplicateName,
			mention:  `link "a"`,
		},
		{
			name: "duplicate joint",
			cfg: &ModelConfig{
				Links: linkConfigs("a", "b", "c"),
				Joints: []JointConfig{
					{ID: "j", Type: FixedJoint, Parent: "a", Child: "b"},
					{ID: "j", Type: FixedJoint, Parent: "b", Child: "c"},
				},
			},
			sentinel: ErrDuplicateName,
			mention:  `joint "j"`,
		},
		{
			name: "dangling parent",
			cfg: &ModelConfig{
				Links:  linkConfigs("a", "b"),
				Joints: []JointConfig{{ID: "j", Type: FixedJoint, Parent: "ghost", Child: "b"}},
			},
			sentinel: ErrDanglingReference,
			mention:  `"ghost"`,
		},
		{
			name: "dangling child",
			cfg: &ModelConfig{
				Links:  linkConfigs("a"),
				Joints: []JointConfig{{ID: "j", Type: FixedJoint, Parent: "a", Child: "ghost"}},
			},
			sentinel: ErrDanglingReference,
			mention:  `joint "j" child link "ghost"`,
		},
		{
			name: "multiple parents",
			cfg: &ModelConfig{
				Links: linkConfigs("a", "b", "c"),
				Joints: []JointConfig{
					{ID: "j1", Type: FixedJoint, Parent: "a", Child: "c"},
					{ID: "j2", Type: FixedJoint, Parent: "b", Child: "c"},
				},
			},
			sentinel: ErrMultipleParents,
			mention:  `link "c"`,
		},
		{
			name:     "no links",
			cfg:      &ModelConfig{},
			sentinel: ErrNoRoot,
		},
		{
			name: "no root",
			cfg: &ModelConfig{
				Links: linkConfigs("a", "b"),
				Joints: []JointConfig{
					{ID: "j1", Type: FixedJoint, Parent: "a", Child: "b"},
					{ID: "j2", Type: FixedJoint, Parent: "b", Child: "a"},
				},
			},
			sentinel: ErrNoRoot,
		},
		{
			name: "multiple roots",
			cfg: &ModelConfig{
				Links:  linkConfigs("a", "b", "c"),
				Joints: []JointConfig{{ID: "j", Type: FixedJoint, Parent: "a", Child: "b"}},
			},
			sentinel: ErrMultipleRoots,
			mention:  `["a", "c"]`,
		},
		{
			name: "cycle",
			cfg: &ModelConfig{
				Links: linkConfigs("root", "a", "c", "b"),
				Joints: []JointConfig{
					{ID: "j0", Type: FixedJoint, Parent: "root", Child: "a"},
					{ID: "j1", Type: FixedJoint, Parent: "b", Child: "c"},
					{ID: "j2", Type: FixedJoint, Parent: "c", Child: "b"},
				},
			},
			sentinel: ErrCycleDetected,
			mention:  `["b", "c"]`,
		},
		{
			name: "self loop",
			cfg: &ModelConfig{
				Links:  linkConfigs("root", "x"),
				Joints: []JointConfig{{ID: "j", Type: FixedJoint, Parent: "x", Child: "x"}},
			},
			sentinel: ErrCycleDetected,
			mention:  `["x"]`,
		},
		{
			name: "unsupported type",
			cfg: &ModelConfig{
				Links:  linkConfigs("a", "b"),
				Joints: []JointConfig{{ID: "j", Type: JointType("floating"), Parent: "a", Child: "b"}},
			},
			sentinel: ErrUnsupportedJointType,
			mention:  `"floating"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := tc.cfg.ParseConfig("")
			test.That(t, m, test.ShouldBeNil)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, tc.sentinel), test.ShouldBeTrue)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.mention)
		})
	}
}

func TestParseConfigInvertedLimit(t *testing.T) {
	cfg := &ModelConfig{
		Links:  linkConfigs("a", "b"),
		Joints: []JointConfig{{ID: "j", Type: RevoluteJoint, Parent: "a", Child: "b", Limit: &Limit{Min: 1, Max: -1}}},
	}
	_, err := cfg.ParseConfig("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `invalid joint "j"`)
}

func TestGenerateRandomJointPositions(t *testing.T) {
	m, err := gripperConfig().ParseConfig("")
	test.That(t, err, test.ShouldBeNil)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		pos := GenerateRandomJointPositions(m, rng)
		test.That(t, len(pos), test.ShouldEqual, 3)
		test.That(t, pos[0], test.ShouldBeBetweenOrEqual, -1, 1)
		test.That(t, pos[1], test.ShouldBeBetweenOrEqual, -math.Pi, math.Pi)
	}
}
