package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/go-hostrt/app"
	"github.com/joeycumines/go-hostrt/hostloop"
	"github.com/joeycumines/go-hostrt/internal/config"
	"github.com/joeycumines/logiface"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the wait for Exiting to be delivered, after a signal
const shutdownTimeout = 5 * time.Second

func newRunCmd(flags *rootFlags) *cobra.Command {
	var stdin bool

	cmd := &cobra.Command{
		Use:   `run`,
		Short: `Run the demo on the headless host`,
		Long: `Run the demo on the headless host, printing events to stdout. With --stdin, each line read is
delivered as a key press, and the window is closed at EOF.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, closer, err := newLogger(cmd, c)
			if err != nil {
				return err
			}
			defer closer.Close()

			var in io.Reader
			if stdin {
				in = cmd.InOrStdin()
			}
			return runHeadless(cmd.Context(), c, logger, cmd.OutOrStdout(), in)
		},
	}

	cmd.Flags().BoolVar(&stdin, `stdin`, false, `read key presses from stdin, one per line`)

	return cmd
}

// runHeadless runs the demo until it exits, or a signal is received. If in
// is not nil, each line is delivered as a key press.
func runHeadless(ctx context.Context, c *config.Config, logger *logiface.Logger[logiface.Event], out io.Writer, in io.Reader) error {
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

	options := []hostloop.Option{
		hostloop.WithLogger(logger),
		hostloop.WithMaxBatch(maxBatch),
	}
	var source chan hostrt.Notification
	if in != nil {
		source = make(chan hostrt.Notification)
		options = append(options, hostloop.WithSource(source))
	}
	loop, err := hostloop.New(options...)
	if err != nil {
		return err
	}

	initApp, err := newDemoInit(ctx, c, out, nil)
	if err != nil {
		return err
	}
	mount := app.NewMount(attrs, initApp, logger)

	router, err := hostrt.NewRouter(loop, mount, append(c.Options(), hostrt.WithLogger(logger))...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// cancels the other members, once exited
		defer cancel()
		return loop.Run(gctx, router)
	})

	g.Go(func() error {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signals)
		select {
		case s := <-signals:
			logger.Notice().
				Str(`signal`, s.String()).
				Log(`hostrt: shutting down`)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			return loop.Shutdown(shutdownCtx)
		case <-gctx.Done():
			return nil
		}
	})

	if in != nil {
		// not part of the group, reads can't be interrupted
		go readKeys(gctx, in, source)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if err := mount.Err(); err != nil {
		return err
	}
	return nil
}

// readKeys sends each line as a key press, to the first window created by
// the headless host, closing source at EOF.
func readKeys(ctx context.Context, in io.Reader, source chan<- hostrt.Notification) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		key := strings.TrimSpace(scanner.Text())
		if key == `` {
			continue
		}
		select {
		case source <- hostrt.WindowEvent{Window: 1, Data: hostrt.KeyPressed{Key: key}}:
		case <-ctx.Done():
			return
		}
	}
	close(source)
}
