// Package cli contains the armviz command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// Flags.
const (
	flagDebug     = "debug"
	flagURDF      = "urdf"
	flagName      = "name"
	flagJoints    = "joints"
	flagDegrees   = "degrees"
	flagClamp     = "clamp"
	flagConfig    = "config"
	flagFrames    = "frames"
	flagFrameRate = "frame-rate"
)

var app = &cli.App{
	Name:            "armviz",
	Usage:           "load robot descriptions and compute their link poses",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "inspect",
			Usage:  "print the kinematic tree of a URDF file",
			Action: InspectAction,
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     flagURDF,
					Required: true,
					Usage:    "robot description `FILE`",
				},
				&cli.StringFlag{
					Name:  flagName,
					Usage: "override the robot name",
				},
			},
		},
		{
			Name:      "pose",
			Usage:     "print the world pose of every link for a set of joint values",
			UsageText: "armviz pose --urdf <file> [--joints <values>] [other options]",
			Action:    PoseAction,
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     flagURDF,
					Required: true,
					Usage:    "robot description `FILE`",
				},
				&cli.StringFlag{
					Name:  flagJoints,
					Usage: "comma separated values for every movable joint, in joint index order. Defaults to all zeros",
				},
				&cli.BoolFlag{
					Name:  flagDegrees,
					Usage: "read revolute and continuous joint values, and print orientations, in degrees",
				},
				&cli.BoolFlag{
					Name:  flagClamp,
					Usage: "clamp joint values to their limits",
				},
			},
		},
		{
			Name:   "run",
			Usage:  "animate the robot from a config file, logging each frame",
			Action: RunAction,
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     flagConfig,
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "load configuration from `FILE`",
				},
				&cli.Uint64Flag{
					Name:  flagFrames,
					Usage: "stop after this many frames. Runs until interrupted when zero",
				},
				&cli.Float64Flag{
					Name:  flagFrameRate,
					Usage: "override the configured frame rate",
				},
			},
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
