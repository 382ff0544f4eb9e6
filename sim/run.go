package sim

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/armviz/config"
	"go.viam.com/armviz/logging"
	"go.viam.com/armviz/robot"
)

// NewRobotFromConfig loads the robot a config describes and applies its base pose and initial positions.
func NewRobotFromConfig(cfg *config.Config, logger logging.Logger) (*robot.Robot, error) {
	var opts []robot.Option
	if cfg.BasePose != nil {
		opts = append(opts, robot.WithBasePose(cfg.BasePose.Pose()))
	}
	r, err := robot.NewRobotFromFile(cfg.URDF, cfg.Name, logger, opts...)
	if err != nil {
		return nil, err
	}
	for name, v := range cfg.InitialPositions {
		if err := r.SetJointPosition(name, v, cfg.ClampToLimits); err != nil {
			return nil, errors.Wrap(err, "initial_positions")
		}
	}
	r.Build()
	return r, nil
}

// Run loads the robot in cfg and animates it into renderer until ctx is done or opts.MaxFrames frames are drawn.
func Run(ctx context.Context, cfg *config.Config, renderer Renderer, logger logging.Logger, opts Options) error {
	r, err := NewRobotFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	driver, err := NewDriver(r.Model(), cfg.Animation)
	if err != nil {
		return err
	}
	if opts.FrameRateHz == 0 {
		opts.FrameRateHz = cfg.FrameRateHz
	}
	opts.ClampToLimits = opts.ClampToLimits || cfg.ClampToLimits
	loop, err := NewLoop(r, driver, renderer, logger, opts)
	if err != nil {
		return err
	}
	loop.Start(ctx)
	defer loop.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-loop.Done():
		return nil
	}
}
