package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/neeravgigglesandgrins/giggles/pkg/logger"
	mw "github.com/neeravgigglesandgrins/giggles/pkg/middleware"
)

type memIdemStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemIdemStore() *memIdemStore {
	return &memIdemStore{entries: make(map[string]string)}
}

func (s *memIdemStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key], nil
}

func (s *memIdemStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

// countingHandler responds without calling WriteHeader, like most JSON
// handlers that rely on the implicit 200.
func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Write([]byte(`{"ok":true}`))
	})
}

func postAs(t *testing.T, h http.Handler, userID int64, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/reserve", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", key)
	req = req.WithContext(context.WithValue(req.Context(), logger.UserIDKey, userID))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysRepeatedRequest(t *testing.T) {
	store := newMemIdemStore()
	calls := 0
	h := mw.Idempotency(store)(countingHandler(&calls))

	first := postAs(t, h, 1, "key-1")
	second := postAs(t, h, 1, "key-1")

	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if len(store.entries) != 1 {
		t.Fatalf("store holds %d entries, want 1 (implicit 200 must be cached)", len(store.entries))
	}
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	store := newMemIdemStore()
	calls := 0
	h := mw.Idempotency(store)(countingHandler(&calls))

	postAs(t, h, 1, "shared-key")
	postAs(t, h, 2, "shared-key")

	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2: one user must never replay another's response", calls)
	}
}

func TestIdempotencySkipsRequestsWithoutKey(t *testing.T) {
	store := newMemIdemStore()
	calls := 0
	h := mw.Idempotency(store)(countingHandler(&calls))

	postAs(t, h, 1, "")
	postAs(t, h, 1, "")

	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
	if len(store.entries) != 0 {
		t.Fatalf("store holds %d entries, want 0", len(store.entries))
	}
}

func TestIdempotencyDoesNotCacheFailures(t *testing.T) {
	store := newMemIdemStore()
	calls := 0
	h := mw.Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"slot is full"}`))
	}))

	postAs(t, h, 1, "key-409")
	postAs(t, h, 1, "key-409")

	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2: error responses must not replay", calls)
	}
}
