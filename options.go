package hostrt

import (
	"errors"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

type (
	// config holds the resolved options for a Router (or Executor).
	config struct {
		logger           *logiface.Logger[logiface.Event]
		clock            func() time.Time
		staleWakeRates   map[time.Duration]int
		tableMinCapacity int
		singleTaskSlot   bool
		timersDisabled   bool
		framesDisabled   bool
	}

	// Option configures a Router, see also NewRouter.
	Option interface {
		apply(*config) error
	}

	optionImpl struct {
		applyFunc func(*config) error
	}
)

func (o *optionImpl) apply(c *config) error {
	return o.applyFunc(c)
}

// WithLogger sets the logger, which may be nil (the default), disabling
// logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(c *config) error {
		c.logger = logger
		return nil
	}}
}

// WithClock overrides time.Now, e.g. for testing.
func WithClock(clock func() time.Time) Option {
	return &optionImpl{func(c *config) error {
		if clock == nil {
			return errors.New(`hostrt: nil clock`)
		}
		c.clock = clock
		return nil
	}}
}

// WithSingleTaskSlot selects the single slot task store, which holds at
// most one task, always using SingleSlotID. Spawning while a task is live
// (including from within that task's poll) is refused, see TrySpawn.
func WithSingleTaskSlot(enabled bool) Option {
	return &optionImpl{func(c *config) error {
		c.singleTaskSlot = enabled
		return nil
	}}
}

// WithTableMinCapacity sets the floor for task table and timer queue
// compaction. Defaults to DefaultTableMinCapacity.
func WithTableMinCapacity(n int) Option {
	return &optionImpl{func(c *config) error {
		if n <= 0 {
			return errors.New(`hostrt: table min capacity must be positive`)
		}
		c.tableMinCapacity = n
		return nil
	}}
}

// WithStaleWakeRates sets the per-task rate limits for logging polls of
// tasks that do not exist. A nil or empty map disables the limit. Defaults
// to DefaultStaleWakeRates.
func WithStaleWakeRates(rates map[time.Duration]int) Option {
	return &optionImpl{func(c *config) error {
		if len(rates) != 0 && !validRates(rates) {
			return errors.New(`hostrt: invalid stale wake rates`)
		}
		c.staleWakeRates = rates
		return nil
	}}
}

// WithTimers enables or disables the timer queue (enabled by default). If
// disabled, timer operations return ErrDisabled, and the host is never
// sent a wait policy.
func WithTimers(enabled bool) Option {
	return &optionImpl{func(c *config) error {
		c.timersDisabled = !enabled
		return nil
	}}
}

// WithFramePacing enables or disables frame pacing (enabled by default).
// Frame pacing requires the timer queue.
func WithFramePacing(enabled bool) Option {
	return &optionImpl{func(c *config) error {
		c.framesDisabled = !enabled
		return nil
	}}
}

// validRates reports whether catrate will accept the rates
func validRates(rates map[time.Duration]int) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	catrate.NewLimiter(rates)
	return true
}

func resolveOptions(opts []Option) (*config, error) {
	cfg := &config{
		clock:            time.Now,
		staleWakeRates:   DefaultStaleWakeRates,
		tableMinCapacity: DefaultTableMinCapacity,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.timersDisabled {
		cfg.framesDisabled = true
	}
	return cfg, nil
}
