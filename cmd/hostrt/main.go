// Command hostrt runs a demo application, on either the headless host, or
// the terminal host.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/go-hostrt/internal/config"
	"github.com/joeycumines/logiface"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config    string
	logLevel  string
	logOutput string
	ticks     int64
	interval  string
	frameRate int64
	workers   int64
	single    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:          `hostrt`,
		Short:        `Host-driven cooperative runtime demo`,
		Long:         `hostrt runs a demo application on the hostrt scheduling core, using either a headless host, or a terminal host.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.config, `config`, `c`, ``, `configuration file (.toml, .yaml or .yml)`)
	pf.StringVar(&flags.logLevel, `log-level`, ``, `log level (trace, debug, info, warning, err, disabled)`)
	pf.StringVar(&flags.logOutput, `log-output`, ``, `log output (stderr, stdout, or a file path)`)
	pf.Int64Var(&flags.ticks, `ticks`, 0, `number of ticks before exiting, 0 for unlimited`)
	pf.StringVar(&flags.interval, `interval`, ``, `time between ticks`)
	pf.Int64Var(&flags.frameRate, `frame-rate`, 0, `target frames per second`)
	pf.Int64Var(&flags.workers, `workers`, 0, `background workers started per tick`)
	pf.BoolVar(&flags.single, `single-task-slot`, false, `use the single task slot store`)

	root.AddCommand(
		newRunCmd(&flags),
		newTUICmd(&flags),
	)

	return root
}

// loadConfig loads the configuration file, if any, and applies the flags
// that were set.
func (x *rootFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c := config.Default()
	if x.config != `` {
		var err error
		if c, err = config.Load(x.config); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed(`log-level`) {
		c.Log.Level = x.logLevel
	}
	if changed(`log-output`) {
		c.Log.Output = x.logOutput
	}
	if changed(`ticks`) {
		c.Demo.Ticks = x.ticks
	}
	if changed(`interval`) {
		if err := c.Demo.Interval.UnmarshalText([]byte(x.interval)); err != nil {
			return nil, fmt.Errorf(`invalid --interval: %w`, err)
		}
	}
	if changed(`frame-rate`) {
		c.Demo.FrameRate = x.frameRate
	}
	if changed(`workers`) {
		c.Demo.Workers = x.workers
	}
	if changed(`single-task-slot`) {
		c.Runtime.SingleTaskSlot = x.single
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// newLogger builds the logger for the configured output. The returned
// closer must be called once the logger is no longer used.
func newLogger(cmd *cobra.Command, c *config.Config) (*logiface.Logger[logiface.Event], io.Closer, error) {
	var (
		w      io.Writer
		closer io.Closer = io.NopCloser(nil)
	)
	switch c.Log.Output {
	case `stderr`:
		w = cmd.ErrOrStderr()
	case `stdout`:
		w = cmd.OutOrStdout()
	default:
		f, err := os.OpenFile(c.Log.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf(`failed to open log output: %w`, err)
		}
		w, closer = f, f
	}
	return hostrt.NewLogger(w, c.Level(), hostrt.DefaultLogRates), closer, nil
}
