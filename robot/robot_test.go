package robot

import (
	"math"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/armviz/logging"
	"go.viam.com/armviz/referenceframe"
	"go.viam.com/armviz/spatialmath"
	"go.viam.com/armviz/utils"
)

var xarm6 = utils.ResolveFile("referenceframe/testurdf/xarm6.urdf")

func TestNewRobotFromFile(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	r, err := NewRobotFromFile(xarm6, "", logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Name(), test.ShouldEqual, "xarm6")
	test.That(t, len(r.Model().Links()), test.ShouldEqual, 11)

	loaded := logs.FilterMessage("loaded robot").All()
	test.That(t, len(loaded), test.ShouldEqual, 1)
	test.That(t, loaded[0].ContextMap()["dof"], test.ShouldEqual, int64(8))

	_, err = NewRobotFromFile("/does/not/exist.urdf", "", logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, logs.FilterMessage("failed to load robot").Len(), test.ShouldEqual, 1)
}

func TestBuildLifecycle(t *testing.T) {
	r, err := NewRobotFromFile(xarm6, "", logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, r.Transforms(), test.ShouldBeNil)
	_, err = r.LinkTransform("link1")
	test.That(t, errors.Is(err, ErrNotBuilt), test.ShouldBeTrue)
	_, err = r.WorldVisuals()
	test.That(t, errors.Is(err, ErrNotBuilt), test.ShouldBeTrue)
	test.That(t, r.Dirty(), test.ShouldBeTrue)

	test.That(t, r.Build(), test.ShouldBeTrue)
	test.That(t, r.Dirty(), test.ShouldBeFalse)
	test.That(t, r.Build(), test.ShouldBeFalse)
	test.That(t, r.Generation(), test.ShouldEqual, uint64(1))
	test.That(t, len(r.Transforms()), test.ShouldEqual, 11)

	// writing the same values is not a change
	test.That(t, r.SetJointPositions(make([]referenceframe.Input, 8), false), test.ShouldBeNil)
	test.That(t, r.Dirty(), test.ShouldBeFalse)
	test.That(t, r.Build(), test.ShouldBeFalse)

	values := []referenceframe.Input{math.Pi / 2, 0, 0, 0, 0, 0, 0, 0}
	test.That(t, r.SetJointPositions(values, false), test.ShouldBeNil)
	test.That(t, r.Dirty(), test.ShouldBeTrue)

	// the cached poses are untouched until Build
	link1, err := r.LinkTransform("link1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(link1, spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.267})), test.ShouldBeTrue)

	test.That(t, r.Build(), test.ShouldBeTrue)
	test.That(t, r.Generation(), test.ShouldEqual, uint64(2))
	link1, err = r.LinkTransform("link1")
	test.That(t, err, test.ShouldBeNil)
	x := spatialmath.Compose(link1, spatialmath.NewPoseFromPoint(r3.Vector{X: 1}))
	test.That(t, spatialmath.R3VectorAlmostEqual(x.Point(), r3.Vector{Y: 1, Z: 0.267}, 1e-9), test.ShouldBeTrue)

	_, err = r.LinkTransform("nope")
	test.That(t, err, test.ShouldNotBeNil)

	r.ForceBuild()
	test.That(t, r.Generation(), test.ShouldEqual, uint64(3))
}

func TestSetJointPositions(t *testing.T) {
	r, err := NewRobotFromFile(xarm6, "", logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	r.Build()

	err = r.SetJointPositions([]referenceframe.Input{1, 2, 3}, true)
	test.That(t, errors.Is(err, referenceframe.ErrArityMismatch), test.ShouldBeTrue)
	test.That(t, r.JointPositions(), test.ShouldResemble, make([]referenceframe.Input, 8))
	test.That(t, r.Dirty(), test.ShouldBeFalse)

	err = r.SetJointPositions(make([]referenceframe.Input, 9), false)
	test.That(t, errors.Is(err, referenceframe.ErrArityMismatch), test.ShouldBeTrue)
	test.That(t, r.JointPositions(), test.ShouldResemble, make([]referenceframe.Input, 8))
	test.That(t, r.Dirty(), test.ShouldBeFalse)

	test.That(t, r.SetJointPosition("joint2", 5, true), test.ShouldBeNil)
	test.That(t, r.JointPositions()[1], test.ShouldEqual, 2.0944)
	test.That(t, r.SetJointPosition("joint2", 5, false), test.ShouldBeNil)
	test.That(t, r.JointPositions()[1], test.ShouldEqual, 5.0)
	test.That(t, r.SetJointPosition("tcp_joint", 1, false), test.ShouldNotBeNil)

	err = r.Update(func(state *referenceframe.JointState) error {
		if err := state.Set(6, 0.01); err != nil {
			return err
		}
		return state.Set(7, 0.01)
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Dirty(), test.ShouldBeTrue)
	r.Build()

	left, err := r.LinkTransform("left_finger")
	test.That(t, err, test.ShouldBeNil)
	right, err := r.LinkTransform("right_finger")
	test.That(t, err, test.ShouldBeNil)
	// each finger moved 1cm outwards from its 2cm offset
	test.That(t, left.Point().Sub(right.Point()).Norm(), test.ShouldAlmostEqual, 0.06, 1e-9)
}

func TestBasePose(t *testing.T) {
	logger := logging.NewTestLogger(t)
	loaded, err := NewRobotFromFile(xarm6, "", logger)
	test.That(t, err, test.ShouldBeNil)

	base := spatialmath.NewPose(r3.Vector{X: 1, Y: 2}, &spatialmath.EulerAngles{Yaw: math.Pi})
	r := NewRobot(loaded.Model(), WithBasePose(base))
	r.Build()
	root, err := r.LinkTransform("base_link")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(root, base), test.ShouldBeTrue)
	test.That(t, spatialmath.PoseAlmostEqual(r.BasePose(), base), test.ShouldBeTrue)

	r.SetBasePose(spatialmath.NewZeroPose())
	test.That(t, r.Dirty(), test.ShouldBeTrue)
	test.That(t, r.Build(), test.ShouldBeTrue)
	root, err = r.LinkTransform("base_link")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(root, spatialmath.NewZeroPose()), test.ShouldBeTrue)
}

func TestVisuals(t *testing.T) {
	r, err := NewRobotFromFile(xarm6, "", logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	visuals := r.Visuals()
	test.That(t, len(visuals), test.ShouldEqual, 11)
	test.That(t, visuals[0][0].Geometry.Type, test.ShouldEqual, spatialmath.CylinderType)

	r.Build()
	world, err := r.WorldVisuals()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(world), test.ShouldEqual, 9)
	// the base cylinder sits on the floor
	test.That(t, spatialmath.R3VectorAlmostEqual(world[0].Pose.Point(), r3.Vector{Z: 0.0635}, 1e-12), test.ShouldBeTrue)

	out := make([]spatialmath.Pose, 11)
	got := r.TransformsInto(out)
	test.That(t, &got[0] == &out[0], test.ShouldBeTrue)
}

func TestConcurrentReadersSeeWholeFrames(t *testing.T) {
	cfg := &referenceframe.ModelConfig{
		Links: []referenceframe.LinkConfig{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Joints: []referenceframe.JointConfig{
			{ID: "j", Type: referenceframe.ContinuousJoint, Parent: "a", Child: "b", Axis: r3.Vector{Z: 1}},
			{ID: "k", Type: referenceframe.PrismaticJoint, Parent: "b", Child: "c", Axis: r3.Vector{X: 1}},
		},
	}
	m, err := cfg.ParseConfig("")
	test.That(t, err, test.ShouldBeNil)
	r := NewRobot(m)
	r.Build()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			q := float64(i) * 0.01
			// both joints always hold the same value
			if err := r.SetJointPositions([]referenceframe.Input{q, q}, false); err != nil {
				t.Error(err)
				return
			}
			r.Build()
		}
	}()

	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var buf []spatialmath.Pose
			for i := 0; i < 500; i++ {
				buf = r.TransformsInto(buf)
				// the prismatic offset of c must match the rotation of b from the same frame
				q := buf[2].Point().Norm()
				rot := buf[1].Matrix()
				if math.Abs(rot.At(0, 0)-math.Cos(q)) > 1e-9 || math.Abs(rot.At(1, 0)-math.Sin(q)) > 1e-9 {
					t.Errorf("torn frame: rotation %v, offset %v", rot, q)
					return
				}
			}
		}()
	}
	wg.Wait()
}
