package hostloop

import (
	"errors"
	"time"

	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/logiface"
)

// loopOptions holds configuration options for Loop creation.
type loopOptions struct {
	logger   *logiface.Logger[logiface.Event]
	clock    func() time.Time
	source   <-chan hostrt.Notification
	maxBatch int
}

// Option configures a Loop instance.
type Option interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements Option.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLogger sets the logger, which may be nil (the default).
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithClock overrides time.Now. It must be the same clock the router uses,
// or due timeouts may be missed.
func WithClock(clock func() time.Time) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if clock == nil {
			return errors.New(`hostloop: nil clock`)
		}
		opts.clock = clock
		return nil
	}}
}

// WithSource sets an external source of notifications, e.g. input events,
// which are delivered in batches of up to the max batch size. Once the
// source is closed, every window is sent CloseRequested (or, if there are
// no windows, the loop exits).
func WithSource(source <-chan hostrt.Notification) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.source = source
		return nil
	}}
}

// WithMaxBatch sets the maximum number of queued (or source) notifications
// delivered before the wait policy is re-evaluated. Defaults to 64.
func WithMaxBatch(n int) Option {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if n <= 0 {
			return errors.New(`hostloop: max batch must be positive`)
		}
		opts.maxBatch = n
		return nil
	}}
}

// resolveLoopOptions applies Option instances to loopOptions.
func resolveLoopOptions(opts []Option) (*loopOptions, error) {
	cfg := &loopOptions{
		clock:    time.Now,
		maxBatch: 64,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
