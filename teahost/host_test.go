package teahost

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joeycumines/go-hostrt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []hostrt.Notification
	fn  func(n hostrt.Notification)
}

func (x *recorder) Notify(n hostrt.Notification) {
	x.got = append(x.got, n)
	if x.fn != nil {
		x.fn(n)
	}
}

func newModel(t *testing.T, options ...Option) (*Host, *model, *recorder) {
	t.Helper()
	h, err := New(options...)
	require.NoError(t, err)
	r := new(recorder)
	h.receiver = r
	return h, &model{h: h}, r
}

func TestModel_Update_resumedFirst(t *testing.T) {
	h, m, r := newModel(t)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, []hostrt.Notification{hostrt.Resumed{}}, r.got)

	m.Update(startMsg{})
	assert.Len(t, r.got, 1)

	window, err := h.CreateWindow(hostrt.WindowAttributes{Title: `demo`, Width: 10, Height: 10})
	require.NoError(t, err)
	assert.Equal(t, hostrt.WindowID(1), window)
	_, err = h.CreateWindow(hostrt.WindowAttributes{})
	assert.ErrorIs(t, err, ErrWindowExists)

	m.Update(signalMsg{})
	assert.Equal(t, []hostrt.Notification{
		hostrt.Resumed{},
		hostrt.WindowEvent{Window: 1, Data: hostrt.Resized{Width: 100, Height: 30}},
	}, r.got)
}

func TestModel_Update_input(t *testing.T) {
	h, m, r := newModel(t)
	m.Update(startMsg{})

	// no window, input is dropped
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	assert.Len(t, r.got, 1)

	_, err := h.CreateWindow(hostrt.WindowAttributes{Width: 80, Height: 24})
	require.NoError(t, err)
	r.got = nil

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.Equal(t, []hostrt.Notification{
		hostrt.WindowEvent{Window: 1, Data: hostrt.KeyPressed{Key: `a`}},
		hostrt.WindowEvent{Window: 1, Data: hostrt.KeyPressed{Key: `enter`}},
		hostrt.WindowEvent{Window: 1, Data: hostrt.Resized{Width: 40, Height: 12}},
		hostrt.WindowEvent{Window: 1, Data: hostrt.CloseRequested{}},
	}, r.got)
	assert.False(t, h.exited)
}

func TestModel_Update_ctrlCWithoutWindow(t *testing.T) {
	h, m, r := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, h.exited)
	assert.Equal(t, []hostrt.Notification{hostrt.Resumed{}, hostrt.Exiting{}}, r.got)
	assert.ErrorIs(t, h.Inject(hostrt.UserEvent{}), hostrt.ErrHostClosed)

	// nothing is delivered after exit
	m.Update(startMsg{})
	assert.Len(t, r.got, 2)
}

func TestModel_Update_batches(t *testing.T) {
	h, m, r := newModel(t, WithMaxBatch(2))
	m.Update(startMsg{})
	for i := 0; i < 5; i++ {
		require.NoError(t, h.Inject(hostrt.UserEvent{Payload: i}))
	}
	r.got = nil

	m.Update(signalMsg{})
	assert.Len(t, r.got, 2)
	m.Update(signalMsg{})
	assert.Len(t, r.got, 4)
	m.Update(signalMsg{})
	require.Len(t, r.got, 5)
	for i, n := range r.got {
		assert.Equal(t, hostrt.UserEvent{Payload: i}, n)
	}
}

func TestModel_Update_exitDuringBatch(t *testing.T) {
	h, m, r := newModel(t)
	r.fn = func(n hostrt.Notification) {
		if n == (hostrt.UserEvent{Payload: 1}) {
			h.Exit()
		}
	}
	m.Update(startMsg{})
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Inject(hostrt.UserEvent{Payload: i}))
	}
	m.Update(signalMsg{})
	assert.Equal(t, []hostrt.Notification{
		hostrt.Resumed{},
		hostrt.UserEvent{Payload: 0},
		hostrt.UserEvent{Payload: 1},
		hostrt.Exiting{},
	}, r.got)
}

func TestModel_Update_policy(t *testing.T) {
	now := time.Unix(1000, 0)
	h, m, r := newModel(t, WithClock(func() time.Time { return now }))
	m.Update(startMsg{})
	assert.True(t, h.armed)

	h.SetWaitPolicy(hostrt.WaitUntil(now.Add(time.Second)))
	m.Update(startMsg{})
	gen := h.armedGen
	assert.Equal(t, h.policyGen, gen)

	// stale generation
	m.Update(policyMsg{gen: gen - 1})
	assert.Len(t, r.got, 1)

	// not yet due
	m.Update(policyMsg{gen: gen})
	assert.Len(t, r.got, 1)
	assert.True(t, h.armed)

	now = now.Add(time.Second)
	r.fn = func(n hostrt.Notification) {
		if _, ok := n.(hostrt.TimeReached); ok {
			h.SetWaitPolicy(hostrt.WaitIndefinitely())
		}
	}
	m.Update(policyMsg{gen: gen})
	assert.Equal(t, []hostrt.Notification{hostrt.Resumed{}, hostrt.TimeReached{}}, r.got)
	assert.False(t, h.stale)
	assert.Equal(t, h.policyGen, h.armedGen)

	// poll, without a policy update, re-arms
	h.SetWaitPolicy(hostrt.WaitPoll())
	r.fn = nil
	m.Update(startMsg{})
	gen = h.armedGen
	m.Update(policyMsg{gen: gen})
	assert.Len(t, r.got, 3)
	assert.True(t, h.armed)
	assert.Equal(t, gen, h.armedGen)
}

func TestModel_Update_redraw(t *testing.T) {
	h, m, r := newModel(t)
	m.Update(startMsg{})

	h.RequestRedraw(1)
	assert.False(t, h.redraw)

	_, err := h.CreateWindow(hostrt.WindowAttributes{Width: 1, Height: 1})
	require.NoError(t, err)
	h.RequestRedraw(1)
	assert.True(t, h.redraw)
	m.Update(startMsg{})
	assert.False(t, h.redraw)

	m.Update(redrawMsg{})
	assert.Equal(t, hostrt.WindowEvent{Window: 1, Data: hostrt.RedrawRequested{}}, r.got[len(r.got)-1])
}

func TestModel_View(t *testing.T) {
	h, m, _ := newModel(t, WithRenderer(RenderFunc(func(window hostrt.WindowID, width, height int) string {
		return fmt.Sprintf(`%v %dx%d`, window, width, height)
	})))
	assert.Empty(t, m.View())

	m.Update(startMsg{})
	_, err := h.CreateWindow(hostrt.WindowAttributes{Title: `my title`, Width: 40, Height: 10})
	require.NoError(t, err)

	view := m.View()
	assert.Contains(t, view, `my title`)
	assert.Contains(t, view, `window#1 38x7`)
	assert.Contains(t, view, `╭`)
}

func TestNew_invalidOptions(t *testing.T) {
	for _, opt := range []Option{WithClock(nil), WithMaxBatch(0)} {
		_, err := New(opt)
		assert.Error(t, err)
	}
}

func programOptions() []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	}
}

func TestHost_Run_router(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	var events []string
	r, err := hostrt.NewRouter(h, hostrt.HandlerFunc(func(cx *hostrt.Ctx, ev hostrt.Event) {
		switch ev := ev.(type) {
		case hostrt.Resumed:
			events = append(events, `resumed`)
			cx.Spawn(cx.Sleep(10 * time.Millisecond))
		case hostrt.TaskReady:
			events = append(events, fmt.Sprintf(`ready %v`, ev.Output))
			cx.Exit()
		case hostrt.Exit:
			events = append(events, `exit`)
		}
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Run(ctx, r, programOptions()...))
	assert.Equal(t, []string{`resumed`, `ready <nil>`, `exit`}, events)
}

func TestHost_Run_canceled(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	r := &recorder{fn: func(n hostrt.Notification) {
		if _, ok := n.(hostrt.Resumed); ok {
			cancel()
		}
	}}
	assert.Error(t, h.Run(ctx, r, programOptions()...))
	require.NotEmpty(t, r.got)
	assert.Equal(t, hostrt.Resumed{}, r.got[0])
	assert.Equal(t, hostrt.Exiting{}, r.got[len(r.got)-1])
}
