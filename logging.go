package hostrt

import (
	"io"
	"os"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// DefaultLogRates are the caller category rate limits used by NewLogger,
// applied to the log calls that opt in (via Limit), e.g. dropped wakes.
var DefaultLogRates = map[time.Duration]int{
	time.Second:      5,
	time.Minute:      60,
	time.Minute * 10: 300,
}

// NewLogger builds a JSON logger, backed by stumpy, writing to w (stderr if
// nil). Rates may be nil, to disable rate limiting, see DefaultLogRates.
func NewLogger(w io.Writer, level logiface.Level, rates map[time.Duration]int) *logiface.Logger[logiface.Event] {
	if w == nil {
		w = os.Stderr
	}
	options := []logiface.Option[*stumpy.Event]{
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	}
	if len(rates) != 0 {
		options = append(options, stumpy.L.WithCategoryRateLimits(rates))
	}
	return stumpy.L.New(options...).Logger()
}
