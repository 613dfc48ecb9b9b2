package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"phalanx/internal/domain/models"
	"phalanx/internal/intel"
	"phalanx/internal/streaming"
)

// jsonKV is an in-memory KVStore backed by marshaled JSON.
type jsonKV struct {
	data map[string][]byte
}

func newJSONKV() *jsonKV {
	return &jsonKV{data: make(map[string][]byte)}
}

func (s *jsonKV) GetJSON(ctx context.Context, key string, dest any) error {
	raw, ok := s.data[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(raw, dest)
}

func (s *jsonKV) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return nil
}

// fakeChecker is a scriptable ReputationChecker.
type fakeChecker struct {
	name   string
	result *models.ReputationResult
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (c *fakeChecker) Service() string { return c.name }

func (c *fakeChecker) CheckURL(ctx context.Context, url string) (*models.ReputationResult, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return nil, c.err
	}
	r := *c.result
	return &r, nil
}

func maliciousResult(service string) *models.ReputationResult {
	return &models.ReputationResult{
		Malicious:  true,
		ThreatType: "SOCIAL_ENGINEERING",
		Service:    service,
		CheckedAt:  time.Now().UTC(),
	}
}

func cleanResult(service string) *models.ReputationResult {
	return &models.ReputationResult{Service: service, CheckedAt: time.Now().UTC()}
}

func TestCheckOneResultPerChecker(t *testing.T) {
	checkers := []ReputationChecker{
		&fakeChecker{name: "alpha", result: maliciousResult("alpha"), delay: 20 * time.Millisecond},
		&fakeChecker{name: "beta", result: cleanResult("beta")},
		&fakeChecker{name: "gamma", err: errors.New("connection refused")},
	}
	a := NewReputationAggregator(checkers, nil, nil, testLogger())

	results := a.Check(context.Background(), "https://example.com")
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	// Ordering follows checker configuration, not completion order.
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if results[i].Service != want {
			t.Errorf("results[%d].Service = %q, want %q", i, results[i].Service, want)
		}
	}
	if !results[0].Malicious {
		t.Error("alpha result not malicious")
	}
	if results[1].Malicious {
		t.Error("beta result malicious")
	}
}

func TestCheckFailureYieldsAnnotatedResult(t *testing.T) {
	a := NewReputationAggregator([]ReputationChecker{
		&fakeChecker{name: "flaky", err: errors.New("dial tcp: connection refused")},
	}, nil, nil, testLogger())

	results := a.Check(context.Background(), "https://example.com")
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Malicious {
		t.Error("failed check reported malicious")
	}
	if results[0].Metadata["error"] == "" {
		t.Errorf("Metadata = %v, want error annotation", results[0].Metadata)
	}
}

func TestCheckQuotaExceededPublishesEvent(t *testing.T) {
	bus := &captureBus{}
	a := NewReputationAggregator([]ReputationChecker{
		&fakeChecker{name: "google_safebrowsing", err: &intel.QuotaError{Service: "google_safebrowsing", Status: 429}},
	}, nil, bus, testLogger())

	results := a.Check(context.Background(), "https://example.com")
	if results[0].Malicious {
		t.Error("quota failure reported malicious")
	}
	if len(bus.events) != 1 || bus.events[0].Type != streaming.EventTypeQuotaExceeded {
		t.Fatalf("events = %+v, want one quota_exceeded", bus.events)
	}
	if bus.events[0].Service != "google_safebrowsing" {
		t.Errorf("event service = %q", bus.events[0].Service)
	}
}

func TestCheckCacheHitSkipsNetwork(t *testing.T) {
	store := newJSONKV()
	cached := maliciousResult("alpha")
	if err := store.SetJSON(context.Background(), reputationCacheKey("alpha", "https://example.com"), cached, time.Hour); err != nil {
		t.Fatal(err)
	}

	checker := &fakeChecker{name: "alpha", result: cleanResult("alpha")}
	a := NewReputationAggregator([]ReputationChecker{checker}, store, nil, testLogger())

	results := a.Check(context.Background(), "https://example.com")
	if !results[0].Malicious {
		t.Error("cached malicious result not returned")
	}
	if checker.calls.Load() != 0 {
		t.Errorf("checker called %d times despite cache hit", checker.calls.Load())
	}
}

func TestCheckPopulatesCache(t *testing.T) {
	store := newJSONKV()
	checker := &fakeChecker{name: "alpha", result: maliciousResult("alpha")}
	a := NewReputationAggregator([]ReputationChecker{checker}, store, nil, testLogger())

	a.Check(context.Background(), "https://example.com")
	if _, ok := store.data[reputationCacheKey("alpha", "https://example.com")]; !ok {
		t.Error("successful result not written to cache")
	}

	// Second check must come from the cache.
	a.Check(context.Background(), "https://example.com")
	if checker.calls.Load() != 1 {
		t.Errorf("checker called %d times, want 1", checker.calls.Load())
	}
}

func TestCheckFailureNotCached(t *testing.T) {
	store := newJSONKV()
	checker := &fakeChecker{name: "alpha", err: errors.New("boom")}
	a := NewReputationAggregator([]ReputationChecker{checker}, store, nil, testLogger())

	a.Check(context.Background(), "https://example.com")
	if len(store.data) != 0 {
		t.Error("failed check was cached")
	}
}
