package detail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/gh-user-sync/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	detailsFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usersync_details_fetched_total",
		Help: "Total user profiles fetched by the batch fetcher by result",
	}, []string{"result"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "usersync_detail_batch_duration_seconds",
		Help:    "Duration of batch profile fetches in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests.
	// Unauthenticated clients get 60 requests per hour, so keep this small.
	MaxConcurrency int

	// Timeout per profile fetch.
	Timeout time.Duration
}

// DefaultConfig returns the default batch configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Timeout:        15 * time.Second,
	}
}

// DetailFetcher fetches a single user profile.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, login string) (*client.UserDetail, error)
}

// Result is the outcome for a single login.
type Result struct {
	Login  string
	Detail *client.UserDetail
	Err    error
}

// LoginError records the failure for one login.
type LoginError struct {
	Login string
	Err   error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Login, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// BatchFetcher fetches many profiles with a bounded worker pool.
type BatchFetcher struct {
	fetcher DetailFetcher
	config  Config
	logger  zerolog.Logger
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(fetcher DetailFetcher, config Config) *BatchFetcher {
	if fetcher == nil {
		panic("detail fetcher cannot be nil")
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "detail-batch").Logger(),
	}
}

// FetchAll fetches the profile of every login. Blank and repeated logins are
// skipped. The returned map holds every profile that was fetched; the error
// joins one *LoginError per failed login, or is the context error when ctx
// ends before the queue is drained.
func (bf *BatchFetcher) FetchAll(ctx context.Context, logins []string) (map[string]*client.UserDetail, error) {
	start := time.Now()
	defer func() {
		batchDuration.Observe(time.Since(start).Seconds())
	}()

	queue := dedupe(logins)
	profiles := make(map[string]*client.UserDetail, len(queue))
	if len(queue) == 0 {
		return profiles, nil
	}

	workers := min(bf.config.MaxConcurrency, len(queue))

	bf.logger.Info().
		Int("logins", len(queue)).
		Int("workers", workers).
		Msg("Starting batch profile fetch")

	jobs := make(chan string)
	results := make(chan Result, len(queue))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, i, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for _, login := range queue {
			select {
			case jobs <- login:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs []error
	for res := range results {
		if res.Err != nil {
			detailsFetchedTotal.WithLabelValues("error").Inc()
			errs = append(errs, &LoginError{Login: res.Login, Err: res.Err})
			continue
		}
		detailsFetchedTotal.WithLabelValues("ok").Inc()
		profiles[res.Login] = res.Detail
	}

	if err := ctx.Err(); err != nil && len(profiles)+len(errs) < len(queue) {
		bf.logger.Warn().
			Err(err).
			Int("fetched", len(profiles)).
			Int("total", len(queue)).
			Msg("Batch cancelled - returning partial results")
		errs = append(errs, err)
	}

	bf.logger.Info().
		Int("fetched", len(profiles)).
		Int("failed", len(errs)).
		Dur("duration", time.Since(start)).
		Msg("Batch profile fetch complete")

	return profiles, errors.Join(errs...)
}

func (bf *BatchFetcher) worker(ctx context.Context, id int, jobs <-chan string, results chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()
	processed := 0

	for login := range jobs {
		if ctx.Err() != nil {
			bf.logger.Debug().
				Int("worker_id", id).
				Int("processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		d, err := bf.fetcher.FetchDetail(reqCtx, login)
		cancel()

		results <- Result{Login: login, Detail: d, Err: err}
		processed++
	}

	bf.logger.Debug().
		Int("worker_id", id).
		Int("processed", processed).
		Msg("Worker completed")
}

func dedupe(logins []string) []string {
	seen := make(map[string]struct{}, len(logins))
	out := make([]string, 0, len(logins))
	for _, l := range logins {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
