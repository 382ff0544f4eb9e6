package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/armviz/config"
	"go.viam.com/armviz/logging"
	"go.viam.com/armviz/referenceframe"
	"go.viam.com/armviz/referenceframe/urdf"
	"go.viam.com/armviz/robot"
	"go.viam.com/armviz/sim"
	"go.viam.com/armviz/utils"
)

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("armviz")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(logging.INFO)
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	return logger
}

// InspectAction prints every link with the joint that attaches it to its parent.
func InspectAction(c *cli.Context) error {
	m, err := urdf.ParseModelXMLFile(c.Path(flagURDF), c.String(flagName))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s: %d links, %d joints, %d degrees of freedom",
		m.Name(), len(m.Links()), len(m.Joints()), len(m.DoF()))

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Link", "Parent", "Joint", "Type", "Index", "Axis", "Limits", "Visuals"})
	for i, l := range m.Links() {
		row := table.Row{i, l.Name, "", "", "", "", "", "", len(l.Visuals)}
		if j := m.ParentJoint(i); j != nil {
			row[2] = m.Links()[j.Parent].Name
			row[3] = j.Name
			row[4] = string(j.Type)
			if j.Movable() {
				row[5] = j.Index
				row[6] = fmt.Sprintf("%.3g %.3g %.3g", j.Axis.X, j.Axis.Y, j.Axis.Z)
				row[7] = "unbounded"
				if j.Limit != nil {
					row[7] = j.Limit.String()
				}
			}
		}
		t.AppendRow(row)
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// PoseAction computes forward kinematics once and prints the world pose of every link.
func PoseAction(c *cli.Context) error {
	logger := newLogger(c)
	r, err := robot.NewRobotFromFile(c.Path(flagURDF), "", logger)
	if err != nil {
		return err
	}
	m := r.Model()
	degrees := c.Bool(flagDegrees)

	values := make([]referenceframe.Input, len(m.DoF()))
	if raw := strings.TrimSpace(c.String(flagJoints)); raw != "" {
		values, err = utils.ParseFloatList(raw)
		if err != nil {
			return errors.Wrapf(err, "--%s", flagJoints)
		}
	}
	if degrees {
		joints := m.MovableJoints()
		for i := range values {
			if i < len(joints) && joints[i].Type != referenceframe.PrismaticJoint {
				values[i] = utils.DegToRad(values[i])
			}
		}
	}
	if err := r.SetJointPositions(values, c.Bool(flagClamp)); err != nil {
		return err
	}
	r.Build()

	angle := func(rad float64) float64 { return rad }
	unit := "rad"
	if degrees {
		angle = utils.RadToDeg
		unit = "deg"
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Link", "X (m)", "Y (m)", "Z (m)", "Roll (" + unit + ")", "Pitch (" + unit + ")", "Yaw (" + unit + ")"})
	for i, p := range r.Transforms() {
		pt := p.Point()
		ea := p.Orientation().EulerAngles()
		t.AppendRow(table.Row{
			m.Links()[i].Name,
			fmt.Sprintf("%.4f", pt.X),
			fmt.Sprintf("%.4f", pt.Y),
			fmt.Sprintf("%.4f", pt.Z),
			fmt.Sprintf("%.4f", angle(ea.Roll)),
			fmt.Sprintf("%.4f", angle(ea.Pitch)),
			fmt.Sprintf("%.4f", angle(ea.Yaw)),
		})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// RunAction animates the robot described by a config file until interrupted or the frame count is reached.
func RunAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := config.Read(c.Path(flagConfig), logger)
	if err != nil {
		return err
	}
	if !c.Bool(flagDebug) && cfg.LogLevel != "" {
		logger.SetLevel(cfg.Level())
	}
	if cfg.LogFile != "" {
		file := logging.NewFileAppender(cfg.LogFile)
		logger.AddAppender(file)
		defer goutils.UncheckedErrorFunc(file.Close)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	err = sim.Run(ctx, cfg, sim.NewLogRenderer(logger.Sublogger("renderer")), logger, sim.Options{
		FrameRateHz: c.Float64(flagFrameRate),
		MaxFrames:   c.Uint64(flagFrames),
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
