package streaming

import (
	"context"
	"testing"
	"time"

	"phalanx/internal/domain/models"
	"phalanx/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus(nil, testLogger())
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	event := NewQuotaExceededEvent("urlhaus")
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.Type != EventTypeQuotaExceeded || got.Service != "urlhaus" {
			t.Errorf("received %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(nil, testLogger())
	defer bus.Close()

	_, unsubscribe := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", bus.SubscriberCount())
	}

	unsubscribe()
	if bus.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d after unsubscribe, want 0", bus.SubscriberCount())
	}
	// Double unsubscribe must not panic.
	unsubscribe()
}

func TestEventBusFullSubscriberDoesNotBlock(t *testing.T) {
	bus := NewEventBus(nil, testLogger())
	defer bus.Close()

	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			bus.Publish(context.Background(), NewQuotaExceededEvent("svc"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a saturated subscriber")
	}
}

func TestEventBusCloseClosesChannels(t *testing.T) {
	bus := NewEventBus(nil, testLogger())
	ch, _ := bus.Subscribe()

	bus.Close()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel delivered an event after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestVerdictIssuedEvent(t *testing.T) {
	v := &models.Verdict{Level: models.VerdictRed, Score: 165}
	e := NewVerdictIssuedEvent(v)
	if e.Type != EventTypeVerdictIssued || e.Level != models.VerdictRed || e.Score != 165 {
		t.Errorf("event = %+v", e)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Error("event missing ID or timestamp")
	}
}
