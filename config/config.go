// Package config defines the viewer configuration file.
package config

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/armviz/logging"
	"go.viam.com/armviz/spatialmath"
)

// DefaultFrameRateHz is used when a config does not set frame_rate_hz.
const DefaultFrameRateHz = 60.0

// AttributeMap is a free form set of attributes, decoded by whoever consumes it.
type AttributeMap map[string]interface{}

// Config describes a robot to load and how to drive it.
type Config struct {
	// URDF is the robot description. Relative paths are relative to the config file.
	URDF string `json:"urdf"`
	// Name overrides the robot name in the description.
	Name     string      `json:"name,omitempty"`
	BasePose *PoseConfig `json:"base_pose,omitempty"`
	// ClampToLimits is applied to every joint update.
	ClampToLimits    bool               `json:"clamp_to_limits"`
	FrameRateHz      float64            `json:"frame_rate_hz,omitempty"`
	InitialPositions map[string]float64 `json:"initial_positions,omitempty"`
	Animation        *AnimationConfig   `json:"animation,omitempty"`
	LogLevel         string             `json:"log_level,omitempty"`
	// LogFile also writes logs to this file, rotated by size. Relative paths are relative to the config file.
	LogFile string `json:"log_file,omitempty"`

	ConfigFilePath string `json:"-"`
}

// PoseConfig is a pose written as a translation in meters and roll, pitch, yaw in radians.
type PoseConfig struct {
	XYZ [3]float64 `json:"xyz"`
	RPY [3]float64 `json:"rpy"`
}

// Pose converts the config to a pose.
func (pc *PoseConfig) Pose() spatialmath.Pose {
	if pc == nil {
		return spatialmath.NewZeroPose()
	}
	return spatialmath.NewPose(
		r3.Vector{X: pc.XYZ[0], Y: pc.XYZ[1], Z: pc.XYZ[2]},
		&spatialmath.EulerAngles{Roll: pc.RPY[0], Pitch: pc.RPY[1], Yaw: pc.RPY[2]},
	)
}

// AnimationConfig selects the driver that writes joint values every frame.
type AnimationConfig struct {
	Type       string       `json:"type"`
	Attributes AttributeMap `json:"attributes,omitempty"`
}

// Validate returns every problem with the config, combined.
func (c *Config) Validate(path string) error {
	var errs error
	if c.URDF == "" {
		errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(path, "urdf"))
	}
	if c.FrameRateHz < 0 || math.IsNaN(c.FrameRateHz) || math.IsInf(c.FrameRateHz, 0) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			errors.Errorf("frame_rate_hz must be a positive number, got %v", c.FrameRateHz)))
	}
	if c.BasePose != nil {
		for i, v := range append(c.BasePose.XYZ[:], c.BasePose.RPY[:]...) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				errs = multierr.Append(errs, goutils.NewConfigValidationError(fmt.Sprintf("%s.base_pose", path),
					errors.Errorf("component %d is not finite", i)))
			}
		}
	}
	for name, v := range c.InitialPositions {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = multierr.Append(errs, goutils.NewConfigValidationError(
				fmt.Sprintf("%s.initial_positions.%s", path, name), errors.New("value is not finite")))
		}
	}
	if c.Animation != nil && c.Animation.Type == "" {
		errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(fmt.Sprintf("%s.animation", path), "type"))
	}
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, err))
	}
	return errs
}

// Level returns the configured log level, INFO when unset.
func (c *Config) Level() logging.Level {
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}
