package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/go-hostrt/app"
	"github.com/joeycumines/go-hostrt/internal/config"
)

// maxResults is the number of worker results kept for rendering
const maxResults = 5

type (
	// demo is a small application, that ticks on a user timeout, starting
	// background workers on each tick, and redrawing at the frame rate.
	demo struct {
		ctx           context.Context
		out           io.Writer
		holder        *demoHolder
		ticks         int64
		interval      time.Duration
		frameInterval time.Duration
		workers       int

		tick    int64
		timer   uuid.UUID
		pending map[hostrt.TaskID]int64
		results []string
		frames  int
		width   int
		height  int
		keys    []string
	}

	// finished is dispatched after the last tick
	finished struct {
		ticks int64
	}

	// demoHolder exposes the mounted demo to a renderer.
	demoHolder struct {
		d *demo
	}
)

var (
	// compile time assertions

	_ app.App   = (*demo)(nil)
	_ io.Closer = (*demo)(nil)

	tickColor   = color.New(color.FgCyan, color.Bold)
	resultColor = color.New(color.FgGreen)
	eventColor  = color.New(color.FgYellow)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(`5`))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(`8`))
)

// newDemoInit returns the init func that constructs the demo, in the
// background. The holder, if not nil, is set once the demo has mounted,
// on the control thread.
func newDemoInit(ctx context.Context, c *config.Config, out io.Writer, holder *demoHolder) (app.InitFunc, error) {
	frameInterval, err := c.FrameInterval()
	if err != nil {
		return nil, err
	}
	workers, err := safecast.Conv[int](c.Demo.Workers)
	if err != nil {
		return nil, err
	}
	d := &demo{
		ctx:           ctx,
		out:           out,
		holder:        holder,
		ticks:         c.Demo.Ticks,
		interval:      time.Duration(c.Demo.Interval),
		frameInterval: frameInterval,
		workers:       workers,
		pending:       make(map[hostrt.TaskID]int64),
	}
	if d.out == nil {
		d.out = io.Discard
	}
	return func(cx *app.Ctx) hostrt.Task {
		return hostrt.Go(ctx, func(ctx context.Context) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return d, nil
		})
	}, nil
}

// Event implements app.App.
func (x *demo) Event(cx *app.Ctx, ev hostrt.Event) {
	switch ev := ev.(type) {
	case hostrt.Resumed:
		if x.holder != nil {
			x.holder.d = x
		}
		x.schedule(cx)

	case hostrt.TimerFired:
		if ev.Owner.ID != x.timer {
			return
		}
		x.onTick(cx)

	case hostrt.TaskReady:
		tick, ok := x.pending[ev.ID]
		if !ok {
			return
		}
		delete(x.pending, ev.ID)
		x.onResult(cx, tick, ev.Output)

	case hostrt.WindowEvent:
		switch data := ev.Data.(type) {
		case hostrt.Resized:
			x.width, x.height = data.Width, data.Height
		case hostrt.RedrawRequested:
			x.frames++
		case hostrt.KeyPressed:
			x.onKey(cx, data.Key)
		case hostrt.CloseRequested:
			_, _ = eventColor.Fprintln(x.out, `close requested`)
		}

	case hostrt.UserEvent:
		if v, ok := ev.Payload.(finished); ok {
			_, _ = eventColor.Fprintf(x.out, "finished after %d ticks\n", v.ticks)
			cx.Exit()
		}
	}
}

// Close implements io.Closer, and is called once unmounted.
func (x *demo) Close() error {
	_, _ = fmt.Fprintf(x.out, "done: %d ticks, %d frames, %d workers pending\n", x.tick, x.frames, len(x.pending))
	return nil
}

func (x *demo) schedule(cx *app.Ctx) {
	id, err := cx.SetTimeout(x.interval)
	if err != nil {
		cx.Logger().Err().
			Err(err).
			Log(`demo: failed to schedule tick`)
		cx.Exit()
		return
	}
	x.timer = id
}

func (x *demo) onTick(cx *app.Ctx) {
	x.tick++
	_, _ = tickColor.Fprintf(x.out, "tick %d\n", x.tick)

	for i := 0; i < x.workers; i++ {
		if id := cx.Spawn(worker(x.ctx, i)); id != hostrt.InvalidTaskID {
			x.pending[id] = x.tick
		}
	}

	// paced, relative to the last frame
	next := cx.FrameTime()
	if next.IsZero() {
		next = cx.Now()
	}
	if err := cx.RequestFrame(next.Add(x.frameInterval)); err != nil && !errors.Is(err, hostrt.ErrDisabled) {
		cx.Logger().Warning().
			Err(err).
			Log(`demo: frame request failed`)
	}

	if x.ticks > 0 && x.tick >= x.ticks {
		if err := cx.Dispatch(finished{ticks: x.tick}); err != nil {
			cx.Exit()
		}
		return
	}
	x.schedule(cx)
}

func (x *demo) onResult(cx *app.Ctx, tick int64, output any) {
	var s string
	switch v := output.(type) {
	case hostrt.Result:
		if v.Err != nil {
			s = fmt.Sprintf(`tick %d: error: %v`, tick, v.Err)
		} else {
			s = fmt.Sprintf(`tick %d: %v`, tick, v.Value)
		}
	default:
		s = fmt.Sprintf(`tick %d: %v`, tick, v)
	}
	_, _ = resultColor.Fprintln(x.out, s)
	x.results = append(x.results, s)
	if len(x.results) > maxResults {
		x.results = x.results[len(x.results)-maxResults:]
	}
	_ = cx.RequestRedraw()
}

func (x *demo) onKey(cx *app.Ctx, key string) {
	switch key {
	case `q`, `esc`:
		cx.Exit()
	default:
		x.keys = append(x.keys, key)
		if len(x.keys) > 10 {
			x.keys = x.keys[1:]
		}
		_, _ = eventColor.Fprintf(x.out, "key %q\n", key)
		_ = cx.RequestRedraw()
	}
}

// render draws the demo, for the terminal host
func (x *demo) render(width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf(`tick %d`, x.tick)))
	if x.ticks > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf(` / %d`, x.ticks)))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "frames: %d  size: %dx%d  pending: %d\n", x.frames, x.width, x.height, len(x.pending))
	for _, s := range x.results {
		if width > 0 && len(s) > width {
			s = s[:width]
		}
		b.WriteString(s)
		b.WriteString("\n")
	}
	if len(x.keys) != 0 {
		b.WriteString(dimStyle.Render(`keys: ` + strings.Join(x.keys, ` `)))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(`press q to quit`))
	return b.String()
}

// Render implements teahost.Renderer.
func (x *demoHolder) Render(_ hostrt.WindowID, width, _ int) string {
	if x.d == nil {
		return dimStyle.Render(`mounting...`)
	}
	return x.d.render(width)
}

// worker simulates background work, on another goroutine
func worker(ctx context.Context, n int) hostrt.Task {
	return hostrt.Go(ctx, func(ctx context.Context) (any, error) {
		d := time.Duration(rand.IntN(5)+1) * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
		return fmt.Sprintf(`worker %d finished in %s`, n, d), nil
	})
}
