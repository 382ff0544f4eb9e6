package sim

import (
	"math"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/armviz/config"
	"go.viam.com/armviz/referenceframe"
	"go.viam.com/armviz/utils"
)

// Driver produces the joint values of each frame. Update receives the frame number and the current values
// ordered by dense joint index, and returns the values to apply.
type Driver interface {
	Update(frame uint64, current []referenceframe.Input) ([]referenceframe.Input, error)
}

// DriverConstructor builds a driver for a model from free form attributes.
type DriverConstructor func(m *referenceframe.Model, attrs config.AttributeMap) (Driver, error)

// The built in driver types.
const (
	StaticDriverType    = "static"
	SweepDriverType     = "sweep"
	KeyframesDriverType = "keyframes"
)

var drivers = map[string]DriverConstructor{
	StaticDriverType:    newStaticDriver,
	SweepDriverType:     newSweepDriver,
	KeyframesDriverType: newKeyframesDriver,
}

// RegisterDriver makes a driver type available to NewDriver.
func RegisterDriver(name string, constructor DriverConstructor) {
	if _, ok := drivers[name]; ok {
		panic(errors.Errorf("driver %q already registered", name))
	}
	drivers[name] = constructor
}

// DriverTypes lists the registered driver types.
func DriverTypes() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDriver builds the driver named by cfg. A nil cfg yields the static driver.
func NewDriver(m *referenceframe.Model, cfg *config.AnimationConfig) (Driver, error) {
	if cfg == nil {
		return newStaticDriver(m, nil)
	}
	constructor, ok := drivers[cfg.Type]
	if !ok {
		return nil, errors.Errorf("unknown animation type %q, expected one of %v", cfg.Type, DriverTypes())
	}
	d, err := constructor(m, cfg.Attributes)
	if err != nil {
		return nil, errors.Wrapf(err, "animation %q", cfg.Type)
	}
	return d, nil
}

// decodeAttributes fills out from attrs using the json field names.
func decodeAttributes(attrs config.AttributeMap, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]interface{}(attrs))
}

type staticDriver struct{}

func newStaticDriver(*referenceframe.Model, config.AttributeMap) (Driver, error) {
	return staticDriver{}, nil
}

func (staticDriver) Update(_ uint64, current []referenceframe.Input) ([]referenceframe.Input, error) {
	return current, nil
}

// SweepConfig swings joints back and forth: every frame the phase advances by Step radians and each listed
// joint is set to Sign * Amplitude * cos(phase).
type SweepConfig struct {
	Step      float64   `json:"step"`
	Amplitude float64   `json:"amplitude"`
	Joints    []string  `json:"joints"`
	Signs     []float64 `json:"signs"`
}

type sweepDriver struct {
	cfg     SweepConfig
	indices []int
	phase   float64
}

func newSweepDriver(m *referenceframe.Model, attrs config.AttributeMap) (Driver, error) {
	cfg := SweepConfig{Step: 0.02, Amplitude: 1}
	if err := decodeAttributes(attrs, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Joints) == 0 {
		cfg.Joints = m.JointNames()
	}
	if cfg.Signs == nil {
		cfg.Signs = make([]float64, len(cfg.Joints))
		for i := range cfg.Signs {
			cfg.Signs[i] = 1
		}
	}
	if len(cfg.Signs) != len(cfg.Joints) {
		return nil, errors.Errorf("got %d signs for %d joints", len(cfg.Signs), len(cfg.Joints))
	}
	d := &sweepDriver{cfg: cfg}
	for _, name := range cfg.Joints {
		j, ok := m.Joint(name)
		if !ok {
			return nil, referenceframe.NewJointNotFoundError(name)
		}
		if !j.Movable() {
			return nil, referenceframe.NewInvalidJointError(name, "fixed joints cannot be animated")
		}
		d.indices = append(d.indices, j.Index)
	}
	return d, nil
}

func (d *sweepDriver) Update(_ uint64, current []referenceframe.Input) ([]referenceframe.Input, error) {
	d.phase = utils.WrapAngle(d.phase + d.cfg.Step)
	out := append([]referenceframe.Input(nil), current...)
	for i, idx := range d.indices {
		if idx >= len(out) {
			return nil, referenceframe.NewJointIndexOutOfRangeError(idx, len(out))
		}
		out[idx] = d.cfg.Signs[i] * d.cfg.Amplitude * math.Cos(d.phase)
	}
	return out, nil
}

// KeyframesConfig moves through a list of full joint vectors, spending FramesPerSegment frames interpolating
// between consecutive keyframes and wrapping back to the first.
type KeyframesConfig struct {
	Keyframes        [][]float64 `json:"keyframes"`
	FramesPerSegment int         `json:"frames_per_segment"`
}

type keyframesDriver struct {
	cfg KeyframesConfig
}

func newKeyframesDriver(m *referenceframe.Model, attrs config.AttributeMap) (Driver, error) {
	cfg := KeyframesConfig{FramesPerSegment: 60}
	if err := decodeAttributes(attrs, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Keyframes) == 0 {
		return nil, errors.New("at least one keyframe is required")
	}
	if cfg.FramesPerSegment <= 0 {
		return nil, errors.Errorf("frames_per_segment must be positive, got %d", cfg.FramesPerSegment)
	}
	dof := len(m.DoF())
	for i, kf := range cfg.Keyframes {
		if len(kf) != dof {
			return nil, errors.Wrapf(referenceframe.NewArityMismatchError(len(kf), dof), "keyframe %d", i)
		}
	}
	return &keyframesDriver{cfg: cfg}, nil
}

func (d *keyframesDriver) Update(frame uint64, _ []referenceframe.Input) ([]referenceframe.Input, error) {
	n := uint64(len(d.cfg.Keyframes))
	per := uint64(d.cfg.FramesPerSegment)
	segment := (frame / per) % n
	by := float64(frame%per) / float64(per)
	from := d.cfg.Keyframes[segment]
	to := d.cfg.Keyframes[(segment+1)%n]
	return referenceframe.InterpolateInputs(from, to, by), nil
}
