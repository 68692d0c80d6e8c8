package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeIdempotencyStore struct {
	setIfNotExistsFn func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	getFn            func(ctx context.Context, key string) (string, error)
	setFn            func(ctx context.Context, key, value string, ttl time.Duration) error
}

func (s *fakeIdempotencyStore) SetIfNotExists(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.setIfNotExistsFn(ctx, key, ttl)
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	if s.getFn == nil {
		return "", nil
	}
	return s.getFn(ctx, key)
}

func (s *fakeIdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.setFn == nil {
		return nil
	}
	return s.setFn(ctx, key, value, ttl)
}

func TestIdempotencyMiddleware_FirstRequestStoresResponse(t *testing.T) {
	var storedKey, storedValue string
	store := &fakeIdempotencyStore{
		setIfNotExistsFn: func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
			return true, nil
		},
		setFn: func(ctx context.Context, key, value string, ttl time.Duration) error {
			storedKey = key
			storedValue = value
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "key-1")
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"txn-1"}`))
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if storedKey != "key-1" || storedValue != `{"id":"txn-1"}` {
		t.Fatalf("expected response to be cached, got key=%q value=%q", storedKey, storedValue)
	}
}

func TestIdempotencyMiddleware_ReplaysCachedResponse(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		setIfNotExistsFn: func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
			return false, nil
		},
		getFn: func(ctx context.Context, key string) (string, error) {
			return `{"id":"txn-1"}`, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "key-1")
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if called {
		t.Fatal("handler should not run when a cached response exists")
	}
	if rr.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatal("expected replay header")
	}
	if rr.Body.String() != `{"id":"txn-1"}` {
		t.Fatalf("expected cached body, got %q", rr.Body.String())
	}
}

func TestIdempotencyMiddleware_ConflictWhileProcessing(t *testing.T) {
	store := &fakeIdempotencyStore{
		setIfNotExistsFn: func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
			return false, nil
		},
		getFn: func(ctx context.Context, key string) (string, error) {
			return "", nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "key-1")
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run while the key is processing")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_SkipsReadsAndMissingKeys(t *testing.T) {
	store := &fakeIdempotencyStore{
		setIfNotExistsFn: func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
			t.Fatal("store should not be touched")
			return false, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	var calls int
	wrapped := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	get := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	get.Header.Set(IdempotencyKeyHeader, "key-1")
	wrapped.ServeHTTP(httptest.NewRecorder(), get)

	post := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewBufferString(`{}`))
	wrapped.ServeHTTP(httptest.NewRecorder(), post)

	if calls != 2 {
		t.Fatalf("expected both requests to pass through, got %d", calls)
	}
}

func TestIdempotencyMiddleware_DoesNotCacheFailures(t *testing.T) {
	store := &fakeIdempotencyStore{
		setIfNotExistsFn: func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
			return true, nil
		},
		setFn: func(ctx context.Context, key, value string, ttl time.Duration) error {
			t.Fatal("failed responses should not be cached")
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "key-1")
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
