package referenceframe

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func singleJointModel(t *testing.T, jType JointType, lim *Limit) *Model {
	t.Helper()
	cfg := &ModelConfig{
		Links:  linkConfigs("a", "b"),
		Joints: []JointConfig{{ID: "j", Type: jType, Parent: "a", Child: "b", Axis: r3.Vector{Z: 1}, Limit: lim}},
	}
	m, err := cfg.ParseConfig("")
	test.That(t, err, test.ShouldBeNil)
	return m
}

func TestJointStateClamping(t *testing.T) {
	m := singleJointModel(t, RevoluteJoint, &Limit{Min: -1, Max: 1})

	state := NewJointState(m)
	test.That(t, state.SetAll([]Input{5.0}, true), test.ShouldBeNil)
	v, err := state.Get(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 1.0)

	test.That(t, state.SetAll([]Input{5.0}, false), test.ShouldBeNil)
	v, err = state.Get(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 5.0)

	test.That(t, state.SetByName("j", -3, true), test.ShouldBeNil)
	test.That(t, state.Values(), test.ShouldResemble, []Input{-1})

	// continuous joints never clamp
	m = singleJointModel(t, ContinuousJoint, &Limit{Min: -1, Max: 1})
	state = NewJointState(m)
	test.That(t, state.SetAll([]Input{5.0}, true), test.ShouldBeNil)
	test.That(t, state.Values(), test.ShouldResemble, []Input{5.0})
}

func TestJointStateArity(t *testing.T) {
	m, err := gripperConfig().ParseConfig("")
	test.That(t, err, test.ShouldBeNil)
	state := NewJointState(m)
	test.That(t, state.SetAll([]Input{0.1, 0.2, 0.3}, false), test.ShouldBeNil)
	state.MarkClean()

	err = state.SetAll([]Input{1, 2}, false)
	test.That(t, errors.Is(err, ErrArityMismatch), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "got 2 values, model has 3 movable joints")
	test.That(t, state.Values(), test.ShouldResemble, []Input{0.1, 0.2, 0.3})
	test.That(t, state.Dirty(), test.ShouldBeFalse)

	err = state.SetAll([]Input{1, 2, 3, 4}, false)
	test.That(t, errors.Is(err, ErrArityMismatch), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "got 4 values, model has 3 movable joints")
	test.That(t, state.Values(), test.ShouldResemble, []Input{0.1, 0.2, 0.3})
	test.That(t, state.Dirty(), test.ShouldBeFalse)

	err = state.SetAll(nil, true)
	test.That(t, errors.Is(err, ErrArityMismatch), test.ShouldBeTrue)
}

func TestJointStateNonFinite(t *testing.T) {
	m, err := gripperConfig().ParseConfig("")
	test.That(t, err, test.ShouldBeNil)
	state := NewJointState(m)
	test.That(t, state.SetAll([]Input{0.1, 0.2, 0.3}, false), test.ShouldBeNil)
	state.MarkClean()

	for _, clamp := range []bool{false, true} {
		err = state.SetAll([]Input{0.5, math.NaN(), 0.3}, clamp)
		test.That(t, errors.Is(err, ErrNonFiniteJointValue), test.ShouldBeTrue)
		err = state.SetAll([]Input{math.Inf(1), 0.2, 0.3}, clamp)
		test.That(t, errors.Is(err, ErrNonFiniteJointValue), test.ShouldBeTrue)
	}
	test.That(t, errors.Is(state.Set(0, math.Inf(-1)), ErrNonFiniteJointValue), test.ShouldBeTrue)
	test.That(t, errors.Is(state.SetByName("shoulder", math.NaN(), true), ErrNonFiniteJointValue), test.ShouldBeTrue)
	test.That(t, state.Values(), test.ShouldResemble, []Input{0.1, 0.2, 0.3})
	test.That(t, state.Dirty(), test.ShouldBeFalse)
}

func TestJointStateDirty(t *testing.T) {
	m, err := gripperConfig().ParseConfig("")
	test.That(t, err, test.ShouldBeNil)
	state := NewJointState(m)
	test.That(t, state.Model(), test.ShouldEqual, m)
	test.That(t, state.Dirty(), test.ShouldBeTrue)
	state.MarkClean()

	test.That(t, state.SetAll([]Input{0, 0, 0}, false), test.ShouldBeNil)
	test.That(t, state.Dirty(), test.ShouldBeFalse)

	test.That(t, state.Set(2, 0), test.ShouldBeNil)
	test.That(t, state.Dirty(), test.ShouldBeFalse)

	test.That(t, state.Set(2, 0.01), test.ShouldBeNil)
	test.That(t, state.Dirty(), test.ShouldBeTrue)
	state.MarkClean()

	test.That(t, state.SetAll([]Input{0, 0, 0.02}, false), test.ShouldBeNil)
	test.That(t, state.Dirty(), test.ShouldBeTrue)
}

func TestJointStateIndexing(t *testing.T) {
	m, err := gripperConfig().ParseConfig("")
	test.That(t, err, test.ShouldBeNil)
	state := NewJointState(m)

	_, err = state.Get(3)
	test.That(t, errors.Is(err, ErrJointIndexOutOfRange), test.ShouldBeTrue)
	test.That(t, errors.Is(state.Set(-1, 0), ErrJointIndexOutOfRange), test.ShouldBeTrue)

	// Set stores verbatim even outside the declared limits
	test.That(t, state.Set(0, 4), test.ShouldBeNil)
	v, err := state.Get(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 4.0)

	test.That(t, state.SetByName("left_joint", 0.03, false), test.ShouldBeNil)
	test.That(t, state.Values(), test.ShouldResemble, []Input{4, 0.03, 0})

	err = state.SetByName("mount_joint", 1, false)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "fixed joints have no value")
	test.That(t, state.SetByName("elbow", 1, false), test.ShouldNotBeNil)

	values := state.Values()
	values[0] = 100
	test.That(t, state.Values()[0], test.ShouldEqual, 4.0)
}

func TestInterpolateValues(t *testing.T) {
	jp1 := []Input{0, 4}
	jp2 := []Input{8, -8}
	test.That(t, InterpolateInputs(jp1, jp2, 0.5), test.ShouldResemble, []Input{4, -2})
	test.That(t, InterpolateInputs(jp1, jp2, 0.25), test.ShouldResemble, []Input{2, 1})
	test.That(t, InputsL2Distance(jp1, jp2), test.ShouldAlmostEqual, math.Sqrt(64+144))
}
