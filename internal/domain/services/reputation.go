package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"phalanx/internal/domain/models"
	"phalanx/internal/infrastructure/cache"
	"phalanx/internal/intel"
	"phalanx/internal/streaming"
	"phalanx/pkg/logger"
)

const reputationCacheTTL = 24 * time.Hour

// ReputationChecker is one external threat-intelligence service.
type ReputationChecker interface {
	Service() string
	CheckURL(ctx context.Context, url string) (*models.ReputationResult, error)
}

// EventPublisher receives side-channel events from the aggregator. Satisfied
// by streaming.EventBus.
type EventPublisher interface {
	Publish(ctx context.Context, event *streaming.AnalysisEvent) error
}

// ReputationAggregator fans a URL out to every configured checker
// concurrently and joins all of them before returning. A checker failure
// never blocks a verdict: it yields a non-malicious result annotated with the
// error.
type ReputationAggregator struct {
	checkers []ReputationChecker
	store    KVStore
	bus      EventPublisher
	log      *logger.Logger
}

// NewReputationAggregator creates an aggregator. store and bus may be nil.
func NewReputationAggregator(checkers []ReputationChecker, store KVStore, bus EventPublisher, log *logger.Logger) *ReputationAggregator {
	return &ReputationAggregator{
		checkers: checkers,
		store:    store,
		bus:      bus,
		log:      log.WithComponent("reputation_aggregator"),
	}
}

// Check queries every configured service for the URL. The result list always
// has one entry per checker; ordering follows the checker configuration, not
// completion order.
func (a *ReputationAggregator) Check(ctx context.Context, url string) []models.ReputationResult {
	results := make([]models.ReputationResult, len(a.checkers))

	var wg sync.WaitGroup
	for i, checker := range a.checkers {
		wg.Add(1)
		go func(i int, checker ReputationChecker) {
			defer wg.Done()
			results[i] = a.checkOne(ctx, checker, url)
		}(i, checker)
	}
	wg.Wait()

	return results
}

// checkOne consults the 24-hour cache before the network and converts
// failures into annotated non-malicious results.
func (a *ReputationAggregator) checkOne(ctx context.Context, checker ReputationChecker, url string) models.ReputationResult {
	service := checker.Service()
	cacheKey := reputationCacheKey(service, url)

	if a.store != nil {
		var cached models.ReputationResult
		if err := a.store.GetJSON(ctx, cacheKey, &cached); err == nil && cached.Service != "" {
			return cached
		}
	}

	result, err := checker.CheckURL(ctx, url)
	if err != nil {
		var quotaErr *intel.QuotaError
		if errors.As(err, &quotaErr) && a.bus != nil {
			a.log.Warn().Str("service", service).Msg("reputation service quota exceeded")
			if pubErr := a.bus.Publish(ctx, streaming.NewQuotaExceededEvent(service)); pubErr != nil {
				a.log.Warn().Err(pubErr).Msg("failed to publish quota event")
			}
		} else {
			a.log.Warn().Err(err).Str("service", service).Str("url", url).Msg("reputation check failed")
		}
		return models.ReputationResult{
			Malicious: false,
			Service:   service,
			Metadata:  map[string]string{"error": err.Error()},
			CheckedAt: time.Now().UTC(),
		}
	}

	if a.store != nil {
		if err := a.store.SetJSON(ctx, cacheKey, result, reputationCacheTTL); err != nil {
			a.log.Warn().Err(err).Str("service", service).Msg("failed to cache reputation result")
		}
	}
	return *result
}

func reputationCacheKey(service, url string) string {
	sum := sha256.Sum256([]byte(url))
	return cache.KeyReputationPrefix + service + ":" + hex.EncodeToString(sum[:])[:16]
}
