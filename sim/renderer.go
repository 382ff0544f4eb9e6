// Package sim runs the per frame update and render cycle of the viewer: a Driver writes joint values, the
// robot recomputes its poses, and a Renderer draws them.
package sim

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"

	"go.viam.com/armviz/logging"
	"go.viam.com/armviz/referenceframe"
)

// LinkHandle describes one link to a renderer: what to draw and where its transform sits in every Frame.
type LinkHandle struct {
	Name    string
	Index   int
	Visuals []referenceframe.Visual
}

// Frame is one rendered frame. Transforms holds the world transform of every link in link order, in the
// single precision column major layout GPU uniform buffers take. It is only valid during Draw.
type Frame struct {
	Seq        uint64
	Generation uint64
	Transforms []mgl32.Mat4
}

// Renderer draws frames. Setup is called once before the first Draw.
type Renderer interface {
	Setup(links []LinkHandle) error
	Draw(ctx context.Context, frame Frame) error
}

// LogRenderer is a Renderer that logs link positions at debug level instead of drawing them.
type LogRenderer struct {
	logger logging.Logger
	links  []LinkHandle
	// Every limits output to one frame in Every; zero logs every frame.
	Every uint64
}

// NewLogRenderer returns a LogRenderer writing to logger.
func NewLogRenderer(logger logging.Logger) *LogRenderer {
	return &LogRenderer{logger: logger}
}

// Setup records the links and logs a summary.
func (lr *LogRenderer) Setup(links []LinkHandle) error {
	lr.links = links
	shapes := 0
	for _, l := range links {
		shapes += len(l.Visuals)
	}
	lr.logger.Infow("renderer ready", "links", len(links), "shapes", shapes)
	return nil
}

// Draw logs the translation of every link.
func (lr *LogRenderer) Draw(ctx context.Context, frame Frame) error {
	if lr.Every > 1 && frame.Seq%lr.Every != 0 {
		return nil
	}
	positions := make(map[string][3]float32, len(lr.links))
	for _, l := range lr.links {
		col := frame.Transforms[l.Index].Col(3)
		positions[l.Name] = [3]float32{col.X(), col.Y(), col.Z()}
	}
	lr.logger.Debugw("frame", "seq", frame.Seq, "generation", frame.Generation, "positions", positions)
	return nil
}
