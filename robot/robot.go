// Package robot holds a loaded robot model together with its joint values and the world poses computed from
// them. Poses are only recomputed by an explicit Build, so several joint updates can be batched into one
// forward kinematics pass.
package robot

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/armviz/logging"
	"go.viam.com/armviz/referenceframe"
	"go.viam.com/armviz/referenceframe/urdf"
	"go.viam.com/armviz/spatialmath"
)

// ErrNotBuilt is returned when poses are requested before the first Build.
var ErrNotBuilt = errors.New("robot poses have not been built")

// Option configures a Robot.
type Option func(*Robot)

// WithBasePose places the root link at base instead of the world origin.
func WithBasePose(base spatialmath.Pose) Option {
	return func(r *Robot) {
		r.base = base
	}
}

// Robot is safe for concurrent use. Writers of joint values and Build serialize on one lock; readers of the
// computed poses copy from the front of two pose buffers and never observe a partially written frame.
type Robot struct {
	model *referenceframe.Model

	mu    sync.Mutex
	state *referenceframe.JointState
	base  spatialmath.Pose
	// baseDirty is set when the base pose changes, since it is not part of the joint state.
	baseDirty bool
	buffers   [2][]spatialmath.Pose
	front     int
	built     bool

	// frontMu is held for reading while a front buffer is copied and for writing while buffers swap.
	frontMu sync.RWMutex

	generation atomic.Uint64
	dirty      atomic.Bool
}

// NewRobot wraps a model with a zeroed joint state.
func NewRobot(m *referenceframe.Model, opts ...Option) *Robot {
	r := &Robot{
		model: m,
		state: referenceframe.NewJointState(m),
		base:  spatialmath.NewZeroPose(),
		front: -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.dirty.Store(true)
	return r
}

// NewRobotFromFile parses the URDF file at path. name overrides the robot name when not empty.
func NewRobotFromFile(path, name string, logger logging.Logger, opts ...Option) (*Robot, error) {
	m, err := urdf.ParseModelXMLFile(path, name)
	if err != nil {
		logger.Errorw("failed to load robot", "path", path, "error", err)
		return nil, err
	}
	logger.Infow("loaded robot",
		"name", m.Name(),
		"links", len(m.Links()),
		"joints", len(m.Joints()),
		"dof", len(m.DoF()),
	)
	return NewRobot(m, opts...), nil
}

// Model returns the immutable kinematic tree.
func (r *Robot) Model() *referenceframe.Model {
	return r.model
}

// Name returns the model name.
func (r *Robot) Name() string {
	return r.model.Name()
}

// BasePose returns the pose of the root link.
func (r *Robot) BasePose() spatialmath.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.base
}

// SetBasePose moves the root link. Like joint updates, it takes effect on the next Build.
func (r *Robot) SetBasePose(base spatialmath.Pose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base = base
	r.baseDirty = true
	r.dirty.Store(true)
}

// SetJointPositions replaces every joint value, ordered by dense joint index. When clampToLimits is set,
// values outside a joint's limits are clamped; otherwise they are stored as given. A wrong number of values
// is rejected and leaves the joint state unchanged.
func (r *Robot) SetJointPositions(values []referenceframe.Input, clampToLimits bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.state.SetAll(values, clampToLimits); err != nil {
		return err
	}
	r.syncDirty()
	return nil
}

// SetJointPosition sets a single named joint.
func (r *Robot) SetJointPosition(name string, v referenceframe.Input, clampToLimits bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.state.SetByName(name, v, clampToLimits); err != nil {
		return err
	}
	r.syncDirty()
	return nil
}

// Update runs fn with exclusive access to the joint state, for drivers that write several joints at once.
func (r *Robot) Update(fn func(state *referenceframe.JointState) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.syncDirty()
	return fn(r.state)
}

// JointPositions returns a copy of the current joint values.
func (r *Robot) JointPositions() []referenceframe.Input {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Values()
}

// Dirty reports whether joint values or the base pose changed since the last Build.
func (r *Robot) Dirty() bool {
	return r.dirty.Load()
}

// Generation counts completed recomputations. It changes exactly when Transforms would return new poses.
func (r *Robot) Generation() uint64 {
	return r.generation.Load()
}

// Build recomputes world poses if anything changed since the last Build, or if poses were never built. It
// reports whether a recomputation happened.
func (r *Robot) Build() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built && !r.state.Dirty() && !r.baseDirty {
		return false
	}
	r.recompute()
	return true
}

// ForceBuild recomputes world poses unconditionally.
func (r *Robot) ForceBuild() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recompute()
}

// recompute must be called with mu held.
func (r *Robot) recompute() {
	back := 0
	if r.front == 0 {
		back = 1
	}
	r.buffers[back] = r.model.ComputePoses(r.state, r.base, r.buffers[back])

	r.frontMu.Lock()
	r.front = back
	r.frontMu.Unlock()

	r.state.MarkClean()
	r.baseDirty = false
	r.built = true
	r.dirty.Store(false)
	r.generation.Inc()
}

func (r *Robot) syncDirty() {
	r.dirty.Store(r.state.Dirty() || r.baseDirty || !r.built)
}

// Transforms returns a copy of the world pose of every link, ordered like Model().Links(). It returns nil
// before the first Build.
func (r *Robot) Transforms() []spatialmath.Pose {
	return r.TransformsInto(nil)
}

// TransformsInto is like Transforms but reuses out when it has the right length.
func (r *Robot) TransformsInto(out []spatialmath.Pose) []spatialmath.Pose {
	r.frontMu.RLock()
	defer r.frontMu.RUnlock()
	if r.front < 0 {
		return nil
	}
	src := r.buffers[r.front]
	if len(out) != len(src) {
		out = make([]spatialmath.Pose, len(src))
	}
	copy(out, src)
	return out
}

// LinkTransform returns the world pose of the named link as of the last Build.
func (r *Robot) LinkTransform(name string) (spatialmath.Pose, error) {
	i, ok := r.model.LinkIndex(name)
	if !ok {
		return spatialmath.Pose{}, referenceframe.NewLinkNotFoundError(name)
	}
	r.frontMu.RLock()
	defer r.frontMu.RUnlock()
	if r.front < 0 {
		return spatialmath.Pose{}, ErrNotBuilt
	}
	return r.buffers[r.front][i], nil
}

// Visuals returns the visual shapes of every link in link order. Shapes are placed in their link's frame.
func (r *Robot) Visuals() [][]referenceframe.Visual {
	links := r.model.Links()
	out := make([][]referenceframe.Visual, 0, len(links))
	for _, l := range links {
		out = append(out, l.Visuals)
	}
	return out
}

// WorldVisuals returns every visual shape placed in the world frame as of the last Build.
func (r *Robot) WorldVisuals() ([]*spatialmath.GeometryConfig, error) {
	poses := r.Transforms()
	if poses == nil {
		return nil, ErrNotBuilt
	}
	var out []*spatialmath.GeometryConfig
	for i, l := range r.model.Links() {
		for _, v := range l.Visuals {
			out = append(out, v.Geometry.Transform(poses[i]))
		}
	}
	return out, nil
}
