package mid

import (
	"context"
	"expvar"
	"net/http"
	"runtime"

	"github.com/blockforge/ledger/foundation/web"
)

// counters maintains the set of expvar counters for the service. The
// expvar package is already based on a singleton for the different
// metrics that are registered with the package so there isn't much
// choice here.
type counters struct {
	goroutines *expvar.Int
	requests   *expvar.Int
	errors     *expvar.Int
	panics     *expvar.Int
}

// AddPanics increments the panics metric by 1.
func (c *counters) AddPanics(ctx context.Context) {
	c.panics.Add(1)
}

// metrics holds the single instance of the counters needed for
// collecting metrics.
var metrics = counters{
	goroutines: expvar.NewInt("goroutines"),
	requests:   expvar.NewInt("requests"),
	errors:     expvar.NewInt("errors"),
	panics:     expvar.NewInt("panics"),
}

// Metrics updates program counters.
func Metrics() web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			metrics.requests.Add(1)

			if metrics.requests.Value()%100 == 0 {
				metrics.goroutines.Set(int64(runtime.NumGoroutine()))
			}

			if err != nil {
				metrics.errors.Add(1)
			}

			return err
		}

		return h
	}

	return m
}
