package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mcellckpt-go/internal/config"
	"github.com/yndnr/mcellckpt-go/internal/infra/buildinfo"
	"github.com/yndnr/mcellckpt-go/internal/telemetry/logger"
	"github.com/yndnr/mcellckpt-go/internal/telemetry/metric"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "mcellckpt",
		Usage:   "Run, checkpoint and inspect particle reaction-diffusion simulations",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SimulateCommand(),
			InspectCommand(),
			VerifyCommand(),
			ListCommand(),
			PruneCommand(),
			WatchCommand(),
		},
		Before: setup,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"MCELLCKPT_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "checkpoint-dir",
			Aliases: []string{"d"},
			Usage:   "Checkpoint directory (overrides checkpoint.dir)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Shorthand for --log-level debug",
		},
	}
}

// env is the state shared by every command of one invocation.
type env struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metric.Registry
}

// overrides maps set flags onto configuration keys.
func overrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	if c.IsSet("checkpoint-dir") {
		m["checkpoint.dir"] = c.String("checkpoint-dir")
	}
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	if c.Bool("verbose") {
		m["log.level"] = "debug"
	}
	if c.IsSet("log-format") {
		m["log.format"] = c.String("log-format")
	}
	return m
}

func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), overrides(c))
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), 2)
	}
	logCfg := cfg.Log
	logCfg.Output = c.App.ErrWriter
	log := logger.New(logCfg)
	logger.SetDefault(log)

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[envKey] = &env{
		cfg:     cfg,
		log:     log,
		metrics: metric.NewRegistry(),
	}
	return nil
}

func envFrom(c *cli.Context) *env {
	if e, ok := c.App.Metadata[envKey].(*env); ok {
		return e
	}
	// Before did not run (direct Action calls in tests).
	return &env{cfg: config.Default(), log: logger.Discard(), metrics: metric.NewRegistry()}
}
