package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker serves liveness and readiness endpoints. It satisfies
// handlers.Mountable so it mounts like any feature handler.
type Checker struct {
	log       *slog.Logger
	pinger    Pinger
	opTimeout time.Duration
}

func New(log *slog.Logger, p Pinger, opTimeout time.Duration) *Checker {
	return &Checker{log: log, pinger: p, opTimeout: opTimeout}
}

func (c *Checker) Mount(r chi.Router) {
	// Liveness: process is up
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Readiness: dependencies are reachable
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.opTimeout)
		defer cancel()

		if err := c.pinger.Ping(ctx); err != nil {
			if c.log != nil {
				c.log.Warn("readiness failed", "err", err)
			}
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}
