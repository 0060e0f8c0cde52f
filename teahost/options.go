package teahost

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
)

type (
	// Option configures a Host.
	Option interface {
		apply(c *config) error
	}

	optionImpl struct {
		applyFunc func(c *config) error
	}

	config struct {
		logger   *logiface.Logger[logiface.Event]
		clock    func() time.Time
		renderer Renderer
		styles   Styles
		maxBatch int
	}
)

func (o *optionImpl) apply(c *config) error { return o.applyFunc(c) }

// WithLogger sets the logger, which may be nil (the default).
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(c *config) error {
		c.logger = logger
		return nil
	}}
}

// WithClock overrides time.Now. It must be the same clock the router uses.
func WithClock(clock func() time.Time) Option {
	return &optionImpl{func(c *config) error {
		if clock == nil {
			return errors.New(`teahost: nil clock`)
		}
		c.clock = clock
		return nil
	}}
}

// WithRenderer sets the renderer for the window content. Nothing is
// rendered, without one.
func WithRenderer(renderer Renderer) Option {
	return &optionImpl{func(c *config) error {
		c.renderer = renderer
		return nil
	}}
}

// WithStyles overrides DefaultStyles.
func WithStyles(styles Styles) Option {
	return &optionImpl{func(c *config) error {
		c.styles = styles
		return nil
	}}
}

// WithMaxBatch sets the maximum number of injected notifications delivered
// per update. Defaults to 64.
func WithMaxBatch(n int) Option {
	return &optionImpl{func(c *config) error {
		if n <= 0 {
			return errors.New(`teahost: max batch must be positive`)
		}
		c.maxBatch = n
		return nil
	}}
}

func resolveOptions(opts []Option) (*config, error) {
	c := &config{
		clock:    time.Now,
		styles:   DefaultStyles(),
		maxBatch: 64,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
