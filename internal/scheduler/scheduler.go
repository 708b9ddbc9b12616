// Package scheduler drives C2: a ticker-based fetch loop that polls due
// RSS/Atom feeds through a bounded worker pool, with a per-host circuit
// breaker and rate limiter guarding outbound requests.
//
// # Architecture
//
// The scheduler ticks on a configurable interval (FETCH_INTERVAL, default
// 300s, shorter than the default 30-minute poll_interval_minutes) and on each tick asks the
// store which feeds are due. Due feeds are dispatched onto a bounded pool
// of worker goroutines; a goroutine per feed would let a slow host stall
// the whole fleet, so work queues onto SchedulerWorkers (default 4) fixed
// workers instead.
//
// # Per-host protection
//
// Every feed URL's host gets its own golang.org/x/time/rate limiter
// (PerHostMinInterval between requests) and its own gobreaker.CircuitBreaker
// (opens after 5 consecutive failures, half-opens after 30s), so one
// misbehaving outlet cannot starve or repeatedly hang the shared pool.
//
// # Shutdown
//
// Stop cancels the scheduler's context and waits up to ShutdownDrain for
// in-flight fetches to finish before returning, closing the teacher's gap
// where Stop() did not wait for in-flight dossier generations.
package scheduler

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
	"github.com/mkolb22/k8s-news-engine/internal/store"
)

// Ingester fetches one feed's entries and persists new articles. C3
// implements this; the scheduler only knows the interface so it never
// depends on goquery/gofeed directly.
type Ingester interface {
	FetchFeed(ctx context.Context, feed models.Feed) (articlesFound int, err error)
}

// Service is the C2 fetch scheduler.
type Service struct {
	store    *store.Store
	ingest   Ingester
	log      zerolog.Logger
	tick     time.Duration
	workers  int
	minHostInterval time.Duration
	drain    time.Duration

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	hostMu     sync.Mutex
	limiters   map[string]*rate.Limiter
	breakers   map[string]*gobreaker.CircuitBreaker
}

// NewService builds a scheduler. tick is how often the loop checks for due
// feeds; workers bounds concurrent fetches; minHostInterval is the minimum
// spacing between two requests to the same host; drain bounds how long
// Stop waits for in-flight fetches.
func NewService(st *store.Store, ingest Ingester, log zerolog.Logger, tick time.Duration, workers int, minHostInterval, drain time.Duration) *Service {
	if workers <= 0 {
		workers = 4
	}
	return &Service{
		store:           st,
		ingest:          ingest,
		log:             log.With().Str("component", "scheduler").Logger(),
		tick:            tick,
		workers:         workers,
		minHostInterval: minHostInterval,
		drain:           drain,
		limiters:        make(map[string]*rate.Limiter),
		breakers:        make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Start begins the ticker loop in a background goroutine. Idempotent.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Warn().Msg("scheduler already running")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	jobs := make(chan models.Feed, s.workers*2)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(loopCtx, jobs)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(jobs)

		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.dispatchDue(loopCtx, jobs)
			}
		}
	}()

	s.log.Info().Dur("tick", s.tick).Int("workers", s.workers).Msg("scheduler started")
}

// Stop cancels the loop and waits up to drain for in-flight fetches.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info().Msg("scheduler stopped cleanly")
	case <-time.After(s.drain):
		s.log.Warn().Dur("drain", s.drain).Msg("scheduler stop timed out waiting for in-flight fetches")
	}
}

func (s *Service) dispatchDue(ctx context.Context, jobs chan<- models.Feed) {
	feeds, err := s.store.ListActiveFeeds(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing active feeds")
		return
	}
	due := store.DueFeeds(feeds, time.Now().UTC())
	if len(due) > 0 {
		s.log.Debug().Int("due", len(due)).Int("active", len(feeds)).Msg("dispatching due feeds")
	}
	for _, f := range due {
		select {
		case jobs <- f:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) worker(ctx context.Context, jobs <-chan models.Feed) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case feed, ok := <-jobs:
			if !ok {
				return
			}
			s.fetchOne(ctx, feed)
		}
	}
}

func (s *Service) fetchOne(ctx context.Context, feed models.Feed) {
	host := hostOf(feed.URL)
	limiter := s.limiterFor(host)
	breaker := s.breakerFor(host)

	if err := limiter.Wait(ctx); err != nil {
		return
	}

	start := time.Now()
	_, err := breaker.Execute(func() (interface{}, error) {
		n, err := s.ingest.FetchFeed(ctx, feed)
		return n, err
	})

	markErr := s.store.MarkFeedFetched(ctx, feed.ID, time.Now().UTC())
	if markErr != nil {
		s.log.Error().Err(markErr).Int64("feed_id", feed.ID).Msg("marking feed fetched")
	}

	logEvt := s.log.Info()
	if err != nil {
		logEvt = s.log.Warn()
	}
	logEvt.Int64("feed_id", feed.ID).Str("outlet", feed.OutletName).
		Dur("elapsed", time.Since(start)).Err(err).Msg("feed fetch complete")

	if err != nil && !errs.IsRetryable(err) {
		s.log.Error().Err(err).Int64("feed_id", feed.ID).Msg("non-retryable fetch error")
	}
}

func (s *Service) limiterFor(host string) *rate.Limiter {
	s.hostMu.Lock()
	defer s.hostMu.Unlock()
	l, ok := s.limiters[host]
	if !ok {
		interval := s.minHostInterval
		if interval <= 0 {
			interval = 2 * time.Second
		}
		l = rate.NewLimiter(rate.Every(interval), 1)
		s.limiters[host] = l
	}
	return l
}

func (s *Service) breakerFor(host string) *gobreaker.CircuitBreaker {
	s.hostMu.Lock()
	defer s.hostMu.Unlock()
	b, ok := s.breakers[host]
	if !ok {
		settings := gobreaker.Settings{
			Name:        host,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}
		b = gobreaker.NewCircuitBreaker(settings)
		s.breakers[host] = b
	}
	return b
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
