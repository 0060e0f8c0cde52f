package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/go-hostrt/app"
	"github.com/joeycumines/go-hostrt/internal/config"
	"github.com/joeycumines/go-hostrt/teahost"
	"github.com/joeycumines/logiface"
	"github.com/spf13/cobra"
)

func newTUICmd(flags *rootFlags) *cobra.Command {
	var altScreen bool

	cmd := &cobra.Command{
		Use:   `tui`,
		Short: `Run the demo on the terminal host`,
		Long: `Run the demo on the terminal host, rendering to the terminal. Logs are disabled, unless written
to a file, via --log-output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			if c.Log.Output == `stderr` || c.Log.Output == `stdout` {
				c.Log.Level = logiface.LevelDisabled.String()
			}
			logger, closer, err := newLogger(cmd, c)
			if err != nil {
				return err
			}
			defer closer.Close()

			options := []tea.ProgramOption{
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			}
			if altScreen {
				options = append(options, tea.WithAltScreen())
			}
			return runTUI(cmd.Context(), c, logger, options...)
		},
	}

	cmd.Flags().BoolVar(&altScreen, `alt-screen`, true, `use the alternate screen buffer`)

	return cmd
}

// runTUI runs the demo on the terminal host, until it exits.
func runTUI(ctx context.Context, c *config.Config, logger *logiface.Logger[logiface.Event], options ...tea.ProgramOption) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	attrs, err := c.WindowAttributes()
	if err != nil {
		return err
	}
	maxBatch, err := c.MaxBatch()
	if err != nil {
		return err
	}

	var holder demoHolder
	host, err := teahost.New(
		teahost.WithLogger(logger),
		teahost.WithMaxBatch(maxBatch),
		teahost.WithRenderer(&holder),
	)
	if err != nil {
		return err
	}

	initApp, err := newDemoInit(ctx, c, io.Discard, &holder)
	if err != nil {
		return err
	}
	mount := app.NewMount(attrs, initApp, logger)

	router, err := hostrt.NewRouter(host, mount, append(c.Options(), hostrt.WithLogger(logger))...)
	if err != nil {
		return err
	}

	if err := host.Run(ctx, router, options...); err != nil {
		return err
	}
	return mount.Err()
}
