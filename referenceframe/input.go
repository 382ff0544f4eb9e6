package referenceframe

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Input is the value of one movable joint: an angle in radians for revolute and continuous joints, a
// displacement in meters for prismatic joints.
type Input = float64

// JointState holds one value per movable joint of a model, indexed by the joint's dense index. It starts at
// all zeros and dirty so the first pose computation always runs.
//
// A JointState is not safe for concurrent use.
type JointState struct {
	model  *Model
	values []Input
	dirty  bool
}

// NewJointState returns a zeroed joint state sized for m.
func NewJointState(m *Model) *JointState {
	return &JointState{
		model:  m,
		values: make([]Input, len(m.movable)),
		dirty:  true,
	}
}

// Model returns the model the state belongs to.
func (s *JointState) Model() *Model {
	return s.model
}

// Len returns the number of movable joints.
func (s *JointState) Len() int {
	return len(s.values)
}

// Get returns the value of the joint with dense index i.
func (s *JointState) Get(i int) (Input, error) {
	if i < 0 || i >= len(s.values) {
		return 0, NewJointIndexOutOfRangeError(i, len(s.values))
	}
	return s.values[i], nil
}

// Set stores v verbatim for the joint with dense index i. NaN and infinite values are rejected.
func (s *JointState) Set(i int, v Input) error {
	if i < 0 || i >= len(s.values) {
		return NewJointIndexOutOfRangeError(i, len(s.values))
	}
	if !finite(v) {
		return NewNonFiniteJointValueError(i, v)
	}
	if s.values[i] != v {
		s.values[i] = v
		s.dirty = true
	}
	return nil
}

// SetByName stores v for the named movable joint, clamped to its limits when clampToLimits is set.
func (s *JointState) SetByName(name string, v Input, clampToLimits bool) error {
	j, ok := s.model.Joint(name)
	if !ok {
		return NewJointNotFoundError(name)
	}
	if !j.Movable() {
		return NewInvalidJointError(name, "fixed joints have no value")
	}
	if clampToLimits && j.Limit != nil {
		v = j.Limit.Clamp(v)
	}
	return s.Set(j.Index, v)
}

// SetAll replaces every joint value. values must have exactly one entry per movable joint, otherwise the state
// is left untouched, and so is it when any value is NaN or infinite. With clampToLimits set, values outside a
// joint's limits are clamped to the nearest bound; otherwise they are stored verbatim.
func (s *JointState) SetAll(values []Input, clampToLimits bool) error {
	if len(values) != len(s.values) {
		return NewArityMismatchError(len(values), len(s.values))
	}
	for i, v := range values {
		if !finite(v) {
			return NewNonFiniteJointValueError(i, v)
		}
	}
	next := make([]Input, len(values))
	copy(next, values)
	if clampToLimits {
		for k, ji := range s.model.movable {
			if l := s.model.joints[ji].Limit; l != nil {
				next[k] = l.Clamp(next[k])
			}
		}
	}
	if !floats.Equal(next, s.values) {
		s.values = next
		s.dirty = true
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Values returns a copy of the joint values.
func (s *JointState) Values() []Input {
	out := make([]Input, len(s.values))
	copy(out, s.values)
	return out
}

// Dirty reports whether a value changed since the last MarkClean.
func (s *JointState) Dirty() bool {
	return s.dirty
}

// MarkClean clears the dirty flag once poses have been recomputed from the current values.
func (s *JointState) MarkClean() {
	s.dirty = false
}

// InputsL2Distance returns the L2 norm of the difference between two joint value vectors.
func InputsL2Distance(from, to []Input) float64 {
	return floats.Distance(from, to, 2)
}

// InterpolateInputs returns the joint values a fraction by of the way from one vector to another.
func InterpolateInputs(from, to []Input, by float64) []Input {
	out := make([]Input, 0, len(from))
	for i, v := range from {
		out = append(out, v+(to[i]-v)*by)
	}
	return out
}
