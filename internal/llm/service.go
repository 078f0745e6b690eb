package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/aviation-bay/internal/capture"
	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/observability"
	"github.com/Veraticus/aviation-bay/internal/service"
	"github.com/jonboulle/clockwork"
)

// Service wraps a provider Client with caching, rate limiting, retries and
// metrics. It implements Client itself.
type Service struct {
	client      Client
	cache       *detectionCache
	rateLimiter *rateLimiter
	metrics     *observability.Metrics
	clock       clockwork.Clock
	logger      *slog.Logger
	retryOpts   service.RetryOptions
}

// NewService decorates client. metrics and clock may be nil.
func NewService(client Client, cfg Config, metrics *observability.Metrics, clock clockwork.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = common.DiscardLogger()
	}

	retryOpts := common.DefaultRetryOptions()
	if cfg.MaxRetries > 0 {
		retryOpts.MaxAttempts = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		retryOpts.InitialDelay = cfg.RetryDelay
	}

	return &Service{
		client:      client,
		cache:       newDetectionCache(cfg.CacheTTL, clock),
		rateLimiter: newRateLimiter(cfg.RateLimit, clock),
		metrics:     metrics,
		clock:       clock,
		logger:      logger,
		retryOpts:   retryOpts,
	}
}

// Provider returns the wrapped provider's name.
func (s *Service) Provider() string {
	return s.client.Provider()
}

// AnalyzeImage returns the aircraft detected in img. Results are cached by
// image digest; an empty result is not cached so it can be retried.
func (s *Service) AnalyzeImage(ctx context.Context, img capture.Image) ([]model.DetectedJet, error) {
	if img.Empty() {
		return nil, common.ErrEmptyCapture
	}

	digest := img.Digest()
	if jets, found := s.cache.get(digest); found {
		s.metrics.ObserveCache(true)
		s.logger.Debug("analysis cache hit", "digest", digest[:12], "jets", len(jets))
		return jets, nil
	}
	s.metrics.ObserveCache(false)

	s.logger.Info("sending jet image for analysis",
		"provider", s.client.Provider(),
		"size_kb", img.SizeKB(),
		"mime_type", img.MIMEType)

	start := s.clock.Now()
	var jets []model.DetectedJet
	err := common.WithRetry(ctx, func() error {
		if err := s.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		var callErr error
		jets, callErr = s.client.AnalyzeImage(ctx, img)
		return callErr
	}, s.retryOpts)
	elapsed := s.clock.Since(start)

	if err != nil {
		s.metrics.ObserveAnalysis(s.client.Provider(), observability.OutcomeError, elapsed)
		s.logger.Error("image analysis failed", "provider", s.client.Provider(), "error", err)
		return nil, analysisError(err)
	}

	if len(jets) == 0 {
		s.metrics.ObserveAnalysis(s.client.Provider(), observability.OutcomeEmpty, elapsed)
		s.logger.Info("no jets detected", "provider", s.client.Provider())
		return jets, nil
	}

	s.metrics.ObserveAnalysis(s.client.Provider(), observability.OutcomeSuccess, elapsed)
	s.cache.set(digest, jets)
	s.logger.Info("jets detected",
		"provider", s.client.Provider(),
		"count", len(jets),
		"duration", elapsed)

	return jets, nil
}

// AnalyzeBatch analyzes several images concurrently. Results are in input
// order. The first failure cancels the images still in flight and is the
// error returned. onDone, if set, runs after each image finishes and may be
// called from several goroutines.
func (s *Service) AnalyzeBatch(ctx context.Context, images []capture.Image, onDone func()) ([][]model.DetectedJet, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]model.DetectedJet, len(images))

	const maxWorkers = 4
	sem := make(chan struct{}, maxWorkers)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(idx int, err error) {
		once.Do(func() {
			firstErr = fmt.Errorf("image %d: %w", idx+1, err)
			cancel()
		})
	}

	for i, img := range images {
		wg.Add(1)
		go func(idx int, img capture.Image) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				fail(idx, ctx.Err())
				return
			}
			if err := ctx.Err(); err != nil {
				fail(idx, err)
				return
			}

			jets, err := s.AnalyzeImage(ctx, img)
			if err != nil {
				fail(idx, err)
				return
			}
			results[idx] = jets
			if onDone != nil {
				onDone()
			}
		}(i, img)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// Reply forwards a conversation to the provider. Chat is not retried so that
// the spotter sees failures promptly.
func (s *Service) Reply(ctx context.Context, turns []model.Turn) (model.Turn, error) {
	if err := s.rateLimiter.wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return model.Turn{}, fmt.Errorf("%w: %w", common.ErrRateLimit, err)
		}
		return model.Turn{}, err
	}

	start := s.clock.Now()
	turn, err := s.client.Reply(ctx, turns)
	if err != nil {
		s.logger.Warn("chat reply failed", "provider", s.client.Provider(), "error", err)
		return model.Turn{}, err
	}

	turn.At = s.clock.Now()
	s.logger.Debug("chat reply received",
		"provider", s.client.Provider(),
		"context_turns", len(turns),
		"duration", turn.At.Sub(start))
	return turn, nil
}

// Ping checks connectivity with the provider.
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
