package sim

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/armviz/config"
	"go.viam.com/armviz/logging"
	"go.viam.com/armviz/robot"
	"go.viam.com/armviz/spatialmath"
	"go.viam.com/armviz/utils"
)

// Options tune a Loop.
type Options struct {
	FrameRateHz   float64
	ClampToLimits bool
	// MaxFrames stops the loop after that many frames, counting frames whose update or draw failed. Zero runs
	// until Stop.
	MaxFrames uint64
	// Clock drives the frame ticker. Defaults to the wall clock.
	Clock clock.Clock
}

// Loop runs update, build and draw once per tick.
type Loop struct {
	robot    *robot.Robot
	driver   Driver
	renderer Renderer
	logger   logging.Logger
	opts     Options

	stepMu sync.Mutex
	poses  []spatialmath.Pose
	mats   []mgl32.Mat4

	frames  atomic.Uint64
	workers *utils.StoppableWorkers
	done    chan struct{}
}

// NewLoop sets up renderer with the links of r. The loop does not run until Start.
func NewLoop(r *robot.Robot, driver Driver, renderer Renderer, logger logging.Logger, opts Options) (*Loop, error) {
	if opts.FrameRateHz <= 0 {
		opts.FrameRateHz = config.DefaultFrameRateHz
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	visuals := r.Visuals()
	handles := make([]LinkHandle, 0, len(visuals))
	for i, l := range r.Model().Links() {
		handles = append(handles, LinkHandle{Name: l.Name, Index: i, Visuals: visuals[i]})
	}
	if err := renderer.Setup(handles); err != nil {
		return nil, errors.Wrap(err, "renderer setup")
	}
	return &Loop{
		robot:    r,
		driver:   driver,
		renderer: renderer,
		logger:   logger,
		opts:     opts,
		done:     make(chan struct{}),
	}, nil
}

// Period is the time between frames.
func (l *Loop) Period() time.Duration {
	return time.Duration(float64(time.Second) / l.opts.FrameRateHz)
}

// Frames returns how many frames have been stepped, including failed ones.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Step runs a single frame. A driver error leaves the joint values untouched and the previous poses are drawn.
// The frame sequence advances whether or not the draw succeeds.
func (l *Loop) Step(ctx context.Context) error {
	l.stepMu.Lock()
	defer l.stepMu.Unlock()

	seq := l.frames.Load()
	var updateErr error
	values, err := l.driver.Update(seq, l.robot.JointPositions())
	if err == nil {
		err = l.robot.SetJointPositions(values, l.opts.ClampToLimits)
	}
	if err != nil {
		updateErr = errors.Wrapf(err, "frame %d update", seq)
	}
	l.robot.Build()

	l.poses = l.robot.TransformsInto(l.poses)
	if cap(l.mats) < len(l.poses) {
		l.mats = make([]mgl32.Mat4, len(l.poses))
	}
	l.mats = l.mats[:len(l.poses)]
	for i, p := range l.poses {
		l.mats[i] = p.Float32()
	}
	frame := Frame{Seq: seq, Generation: l.robot.Generation(), Transforms: l.mats}
	drawErr := l.renderer.Draw(ctx, frame)
	l.frames.Inc()
	if drawErr != nil {
		return errors.Wrapf(drawErr, "frame %d draw", seq)
	}
	return updateErr
}

// Start runs the loop in the background.
func (l *Loop) Start(ctx context.Context) {
	l.logger.Infow("starting loop", "robot", l.robot.Name(), "frame_rate_hz", l.opts.FrameRateHz)
	l.workers = utils.NewStoppableWorkersWithContext(ctx, l.run)
}

// Done is closed when the loop has drawn MaxFrames frames.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Stop ends the loop and waits for the current frame to finish.
func (l *Loop) Stop() {
	if l.workers == nil {
		return
	}
	l.workers.Stop()
	l.logger.Infow("loop stopped", "frames", l.Frames())
}

func (l *Loop) run(ctx context.Context) {
	ticker := l.opts.Clock.Ticker(l.Period())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := l.Step(ctx); err != nil {
			l.logger.Errorw("frame failed", "error", err)
		}
		if l.opts.MaxFrames > 0 && l.Frames() >= l.opts.MaxFrames {
			close(l.done)
			return
		}
	}
}
