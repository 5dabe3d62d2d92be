// Package probe pings a batch of game servers concurrently.
package probe

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
	"github.com/woozymasta/zenit-dash/internal/game"
	"golang.org/x/time/rate"
)

// Pinger queries the live state of one server.
type Pinger interface {
	Ping(ctx context.Context, ip string, port int) (*game.Info, error)
}

// Result is the outcome of pinging one node.
type Result struct {
	Info *game.Info        `json:"info,omitempty" yaml:"info,omitempty"`
	Err  error             `json:"-" yaml:"-"`
	Key  dashboard.NodeKey `json:"node" yaml:"node"`
}

// Online reports whether the node answered.
func (r Result) Online() bool {
	return r.Err == nil && r.Info != nil
}

// Sweeper runs pings through a bounded worker pool under a shared rate limit.
type Sweeper struct {
	pinger  Pinger
	limiter *rate.Limiter
	workers int
}

// New creates a Sweeper. A non-positive perSecond disables rate limiting.
func New(pinger Pinger, workers int, perSecond float64) *Sweeper {
	if workers < 1 {
		workers = 1
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &Sweeper{
		pinger:  pinger,
		limiter: rate.NewLimiter(limit, workers),
		workers: workers,
	}
}

type job struct {
	key   dashboard.NodeKey
	index int
}

// Sweep pings every key and returns results in the order of keys.
// Keys not reached before ctx is done carry ctx's error.
func (s *Sweeper) Sweep(ctx context.Context, keys []dashboard.NodeKey) []Result {
	results := make([]Result, len(keys))
	jobs := make(chan job, len(keys))
	var wg sync.WaitGroup

	workers := min(s.workers, len(keys))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = s.ping(ctx, j.key)
			}
		}()
	}

	for i, k := range keys {
		jobs <- job{key: k, index: i}
	}
	close(jobs)

	wg.Wait()

	return results
}

func (s *Sweeper) ping(ctx context.Context, key dashboard.NodeKey) Result {
	res := Result{Key: key}
	if err := s.limiter.Wait(ctx); err != nil {
		res.Err = err
		return res
	}

	res.Info, res.Err = s.pinger.Ping(ctx, key.IP, key.Port)

	logCtx := log.With().
		Str("app", key.Application).
		Str("ip", key.IP).
		Int("port", key.Port).
		Logger()
	if res.Err != nil {
		logCtx.Debug().Err(res.Err).Msg("Server unreachable")
	} else {
		logCtx.Trace().Dur("ping", res.Info.Latency).Msg("Server answered")
	}

	return res
}
