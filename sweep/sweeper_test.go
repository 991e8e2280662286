package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/campuskit/guidancedesk/docstore"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *docstore.RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, docstore.NewRedisStore(client, "test")
}

func TestSweepOnceRemovesExpired(t *testing.T) {
	mr, store := newTestStore(t)
	defer mr.Close()

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	seed := func(collection string, expiresAt int64) string {
		doc, err := store.Create(ctx, collection, docstore.Fields{"expiresAt": expiresAt})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		return doc.ID
	}

	expiredOTP := seed("otps", now.Add(-time.Minute).Unix())
	liveOTP := seed("otps", now.Add(time.Minute).Unix())
	expiredSession := seed("sessions", now.Add(-time.Hour).Unix())
	liveSession := seed("sessions", now.Add(time.Hour).Unix())

	var reported int
	sweeper := New(store, time.Minute, nil, []string{"otps", "sessions"},
		WithClock(func() time.Time { return now }),
		WithOnRemoved(func(n int) { reported = n }),
	)

	removed, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if reported != 2 {
		t.Fatalf("expected callback with 2, got %d", reported)
	}

	for _, id := range []string{expiredOTP, expiredSession} {
		collection := "otps"
		if id == expiredSession {
			collection = "sessions"
		}
		if _, err := store.Get(ctx, collection, id); err == nil {
			t.Fatalf("expected %s/%s to be gone", collection, id)
		}
	}
	if _, err := store.Get(ctx, "otps", liveOTP); err != nil {
		t.Fatalf("live otp removed: %v", err)
	}
	if _, err := store.Get(ctx, "sessions", liveSession); err != nil {
		t.Fatalf("live session removed: %v", err)
	}
}

func TestSweepOnceNothingExpired(t *testing.T) {
	mr, store := newTestStore(t)
	defer mr.Close()

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	if _, err := store.Create(ctx, "otps", docstore.Fields{"expiresAt": now.Add(time.Minute).Unix()}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	callbackRan := false
	sweeper := New(store, time.Minute, nil, []string{"otps"},
		WithClock(func() time.Time { return now }),
		WithOnRemoved(func(int) { callbackRan = true }),
	)

	removed, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
	if callbackRan {
		t.Fatal("callback must not run on an empty sweep")
	}
}

func TestRunDisabledWithoutInterval(t *testing.T) {
	mr, store := newTestStore(t)
	defer mr.Close()

	sweeper := New(store, 0, nil, []string{"otps"})

	done := make(chan struct{})
	go func() {
		sweeper.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with interval 0 must return immediately")
	}
}

func TestRunStopsOnContextDone(t *testing.T) {
	mr, store := newTestStore(t)
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sweeper := New(store, time.Millisecond, nil, []string{"otps"})

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
