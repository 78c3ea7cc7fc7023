package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/nickng/perforator/config"
	"github.com/nickng/perforator/internal/logging"
	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/lower"
	"github.com/nickng/perforator/ssa"
	"github.com/nickng/perforator/ssa/build"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const rootLong = `perforate is a tool for loop perforation of Go source code.

Each function is lowered from SSA to a small IR, its loop nest is found
from the dominator tree, and the passes of a pipeline run over it. Loop
perforation widens the step of induction variables of selected loops
from 1 to 2, so that the loops skip every other iteration.

Settings are read from .perforate.yaml (current or home directory),
PERFORATE_* environment variables and flags, in increasing priority.`

// app is the state shared by the subcommands.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *logging.Logger

	cfgFile  string
	buildLog string
	closers  []io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.Init(a.v)

	cmd := &cobra.Command{
		Use:          "perforate",
		Short:        "Loop perforation for Go",
		Long:         rootLong,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.teardown()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default .perforate.yaml in . or $HOME)")
	flags.StringVar(&a.buildLog, "build-log", "", "write the SSA build log to file (use '-' for stderr)")
	flags.String(config.PassesKey, config.DefaultPasses, "comma-separated pass pipeline")
	flags.String(config.SelectKey, "top-level", "loops to perforate: top-level or leaves")
	flags.StringSliceP(config.FuncsKey, "f", nil, "functions to process, e.g. main.sum (default: all)")
	flags.IntP(config.JobsKey, "j", 0, "functions processed concurrently (default: number of CPUs)")
	flags.String(config.FormatKey, config.DefaultFormat, "summary format: text, table or yaml")
	flags.Bool(config.PrintIRKey, false, "print the IR after the passes")
	flags.String("log-file", "", "also write logs to a rotated file")
	flags.Bool("debug", false, "debug logging")

	for flag, key := range map[string]string{
		config.PassesKey:  config.PassesKey,
		config.SelectKey:  config.SelectKey,
		config.FuncsKey:   config.FuncsKey,
		config.JobsKey:    config.JobsKey,
		config.FormatKey:  config.FormatKey,
		config.PrintIRKey: config.PrintIRKey,
		"log-file":        config.LogFileKey,
		"debug":           config.LogDebugKey,
	} {
		bindFlagToConfig(a.v, flags.Lookup(flag), key)
	}

	cmd.AddCommand(
		newRunCmd(a),
		newCountCmd(a),
		newViewCmd(a),
		newBenchCmd(a),
		newPassesCmd(),
	)
	return cmd
}

// bindFlagToConfig wires a flag to a config key so file and environment
// values feed the flag.
func bindFlagToConfig(v *viper.Viper, flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}
	cobra.CheckErr(v.BindPFlag(key, flag))
}

func (a *app) setup() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logger, err := logging.New(logging.Options{
		Debug:      cfg.Log.Debug,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) teardown() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// build builds SSA from files.
func (a *app) build(files []string) (*ssa.Info, error) {
	conf := build.FromFiles(files).Default()
	switch a.buildLog {
	case "":
	case "-":
		conf = conf.WithBuildLog(os.Stderr, log.LstdFlags)
	default:
		f, err := os.Create(a.buildLog)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot create build log %s", a.buildLog)
		}
		a.closers = append(a.closers, f)
		conf = conf.WithBuildLog(f, log.LstdFlags)
	}
	info, err := conf.Build()
	if err != nil {
		return nil, errors.Wrap(err, "cannot build SSA from files")
	}
	return info, nil
}

// lower builds files and lowers the configured functions.
func (a *app) lower(files []string) ([]*ir.Function, error) {
	info, err := a.build(files)
	if err != nil {
		return nil, err
	}
	fns, err := info.FindFuncs(a.cfg.Funcs...)
	if err != nil {
		return nil, err
	}
	if len(fns) == 0 {
		return nil, lower.ErrNoFuncs
	}
	lowered := make([]*ir.Function, len(fns))
	for i, fn := range fns {
		lowered[i] = lower.FuncWithLog(fn, a.logger)
	}
	return lowered, nil
}
