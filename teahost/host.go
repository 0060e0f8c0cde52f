// Package teahost implements a hostrt.Host on top of a bubbletea program,
// presenting the terminal as a single window.
//
// The program's event loop is the control thread: the receiver is only ever
// notified from within Update (or, for Exiting, from Run, after the program
// stops). Injected notifications are queued, and picked up by a command
// that waits on the queue, so Inject never blocks, and never calls
// Program.Send.
package teahost

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/go-hostrt/internal/ingress"
	"github.com/joeycumines/logiface"
)

// ErrWindowExists is returned by CreateWindow, if the terminal window has
// already been created.
var ErrWindowExists = errors.New(`teahost: terminal window already exists`)

// retryDelay bounds the spin if a TimeReached notification didn't advance
// the wait policy.
const retryDelay = time.Millisecond

type (
	// Receiver is implemented by *hostrt.Router.
	Receiver interface {
		Notify(n hostrt.Notification)
	}

	// Renderer renders the content of the terminal window.
	Renderer interface {
		Render(window hostrt.WindowID, width, height int) string
	}

	// RenderFunc adapts a function to the Renderer interface.
	RenderFunc func(window hostrt.WindowID, width, height int) string

	// Host is a terminal host. It must be run using Run, exactly once.
	Host struct {
		queue    *ingress.Queue[hostrt.Notification]
		logger   *logiface.Logger[logiface.Event]
		clock    func() time.Time
		renderer Renderer
		styles   Styles
		maxBatch int
		done     chan struct{}

		receiver Receiver
		started  bool
		exit     bool
		exited   bool

		policy    hostrt.WaitPolicy
		policyGen uint64
		armedGen  uint64
		armed     bool
		stale     bool

		window        hostrt.WindowID
		title         string
		width, height int
		redraw        bool
	}

	// Styles are applied to the rendered window.
	Styles struct {
		Title lipgloss.Style
		Frame lipgloss.Style
	}

	model struct {
		h *Host
	}

	startMsg  struct{}
	signalMsg struct{}
	redrawMsg struct{}
	policyMsg struct{ gen uint64 }
)

var (
	// compile time assertions

	_ hostrt.Host       = (*Host)(nil)
	_ hostrt.WindowHost = (*Host)(nil)
	_ hostrt.Redrawer   = (*Host)(nil)
	_ Renderer          = RenderFunc(nil)
	_ tea.Model         = (*model)(nil)
)

// Render implements Renderer.
func (x RenderFunc) Render(window hostrt.WindowID, width, height int) string {
	return x(window, width, height)
}

// DefaultStyles returns the default window styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(`6`)).Padding(0, 1),
		Frame: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(`8`)),
	}
}

// New constructs a Host.
func New(options ...Option) (*Host, error) {
	cfg, err := resolveOptions(options)
	if err != nil {
		return nil, err
	}
	return &Host{
		queue:     ingress.NewQueue[hostrt.Notification](),
		logger:    cfg.logger,
		clock:     cfg.clock,
		renderer:  cfg.renderer,
		styles:    cfg.styles,
		maxBatch:  cfg.maxBatch,
		done:      make(chan struct{}),
		policy:    hostrt.WaitIndefinitely(),
		policyGen: 1,
	}, nil
}

// Inject implements hostrt.Injector. It never blocks.
func (h *Host) Inject(n hostrt.Notification) error {
	if err := h.queue.Push(n); err != nil {
		return hostrt.ErrHostClosed
	}
	return nil
}

// SetWaitPolicy implements hostrt.Host.
func (h *Host) SetWaitPolicy(policy hostrt.WaitPolicy) {
	h.policy = policy
	h.policyGen++
}

// Exit implements hostrt.Host.
func (h *Host) Exit() { h.exit = true }

// CreateWindow implements hostrt.WindowHost. Only one window may be created,
// which is sized to the terminal, or to the requested size until the
// terminal size is known.
func (h *Host) CreateWindow(attrs hostrt.WindowAttributes) (hostrt.WindowID, error) {
	if h.window != 0 {
		return 0, ErrWindowExists
	}
	if h.width == 0 && h.height == 0 {
		h.width, h.height = attrs.Width, attrs.Height
	}
	if err := h.Inject(hostrt.WindowEvent{Window: 1, Data: hostrt.Resized{Width: h.width, Height: h.height}}); err != nil {
		return 0, err
	}
	h.window = 1
	h.title = attrs.Title
	return h.window, nil
}

// RequestRedraw implements hostrt.Redrawer.
func (h *Host) RequestRedraw(window hostrt.WindowID) {
	if window == h.window && window != 0 {
		h.redraw = true
	}
}

// Run runs the bubbletea program, until exit is requested, or the program
// stops, then delivers Exiting. Additional program options may be provided,
// e.g. to configure input and output.
func (h *Host) Run(ctx context.Context, r Receiver, options ...tea.ProgramOption) error {
	if r == nil {
		panic(`teahost: nil receiver`)
	}
	if h.receiver != nil {
		panic(`teahost: already run`)
	}
	h.receiver = r

	defer close(h.done)

	_, err := tea.NewProgram(&model{h: h}, append([]tea.ProgramOption{tea.WithContext(ctx)}, options...)...).Run()

	h.queue.Close()
	if !h.exited {
		h.exited = true
		h.notify(hostrt.Exiting{})
	}

	if err != nil && h.exit && errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}
	return err
}

func (h *Host) notify(n hostrt.Notification) {
	h.logger.Trace().
		Any(`notification`, n).
		Log(`teahost: notify`)
	h.receiver.Notify(n)
}

func (h *Host) windowEvent(data hostrt.WindowData) {
	if h.window == 0 {
		return
	}
	h.notify(hostrt.WindowEvent{Window: h.window, Data: data})
}

// listen waits for the queue to be signaled.
func (h *Host) listen() tea.Msg {
	select {
	case <-h.queue.Signal():
		return signalMsg{}
	case <-h.done:
		return nil
	}
}

// commands returns the commands that follow the delivery of notifications.
func (h *Host) commands() tea.Cmd {
	if h.exit {
		h.exited = true
		h.queue.Close()
		h.notify(hostrt.Exiting{})
		return tea.Quit
	}

	var cmds []tea.Cmd

	if h.redraw {
		h.redraw = false
		cmds = append(cmds, func() tea.Msg { return redrawMsg{} })
	}

	if !h.armed || h.armedGen != h.policyGen {
		h.armed = true
		h.armedGen = h.policyGen
		msg := policyMsg{gen: h.policyGen}
		switch h.policy.Mode {
		case hostrt.WaitPollMode:
			cmds = append(cmds, func() tea.Msg { return msg })
		case hostrt.WaitUntilMode:
			d := h.policy.Until.Sub(h.clock())
			if h.stale && d < retryDelay {
				d = retryDelay
			}
			cmds = append(cmds, tea.Tick(max(d, 0), func(time.Time) tea.Msg { return msg }))
		}
	}
	h.stale = false

	return tea.Batch(cmds...)
}

// Init implements tea.Model.
func (m *model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startMsg{} },
		m.h.listen,
	)
}

// Update implements tea.Model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	h := m.h
	if h.exited {
		return m, nil
	}

	// Resumed is always first, e.g. the initial size may arrive earlier
	if !h.started {
		h.started = true
		h.notify(hostrt.Resumed{})
	}

	var listen, more bool

	switch msg := msg.(type) {
	case startMsg:

	case signalMsg:
		listen = true
		for _, n := range h.queue.Drain(nil, h.maxBatch) {
			h.notify(n)
			if h.exit {
				break
			}
		}
		if !h.exit && h.queue.Len() != 0 {
			// the remainder is delivered in a later batch
			listen = false
			more = true
		}

	case policyMsg:
		if msg.gen != h.armedGen || msg.gen != h.policyGen {
			return m, nil
		}
		h.armed = false
		if h.policy.Mode == hostrt.WaitUntilMode && h.clock().Before(h.policy.Until) {
			break
		}
		h.notify(hostrt.TimeReached{})
		if h.policyGen == msg.gen {
			h.stale = true
		}

	case redrawMsg:
		h.windowEvent(hostrt.RedrawRequested{})

	case tea.WindowSizeMsg:
		h.width, h.height = msg.Width, msg.Height
		h.windowEvent(hostrt.Resized{Width: msg.Width, Height: msg.Height})

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			h.windowEvent(hostrt.CloseRequested{})
			if h.window == 0 {
				h.exit = true
			}
		} else {
			h.windowEvent(hostrt.KeyPressed{Key: msg.String()})
		}

	case tea.MouseMsg:
		h.windowEvent(hostrt.OtherWindowEvent{Value: msg})
	}

	cmd := h.commands()
	if !h.exited {
		if listen {
			cmd = tea.Batch(cmd, h.listen)
		} else if more {
			cmd = tea.Batch(cmd, func() tea.Msg { return signalMsg{} })
		}
	}
	return m, cmd
}

// View implements tea.Model.
func (m *model) View() string {
	h := m.h
	if h.window == 0 || h.renderer == nil || h.exited {
		return ``
	}
	title := h.styles.Title.Render(h.title)
	frame := h.styles.Frame
	width := h.width - frame.GetHorizontalFrameSize()
	height := h.height - frame.GetVerticalFrameSize() - lipgloss.Height(title)
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	body := h.renderer.Render(h.window, width, height)
	return lipgloss.JoinVertical(lipgloss.Left, title, frame.Width(width).Render(body))
}
