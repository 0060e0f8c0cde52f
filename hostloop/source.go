package hostloop

import (
	"context"
	"errors"

	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/go-longpoll"
)

var errStop = errors.New(`hostloop: stop`)

// drainSource delivers up to limit notifications already buffered on the
// source, without blocking. It returns io.EOF if the source was closed, and
// errStop if the loop began stopping part way through.
func (l *Loop) drainSource(ctx context.Context, r Receiver, limit int) error {
	if limit <= 0 {
		// a zero MaxSize would be the longpoll default
		return nil
	}
	return longpoll.Channel(ctx, &longpoll.ChannelConfig{
		MaxSize:        limit,
		MinSize:        -1,
		PartialTimeout: -1,
	}, l.source, func(n hostrt.Notification) error {
		if l.stopping() {
			return errStop
		}
		l.notify(r, n)
		return nil
	})
}
