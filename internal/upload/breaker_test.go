package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

type failingStore struct {
	err   error
	calls int
}

func (f *failingStore) Save(_ context.Context, name string, _ io.Reader) (Stored, error) {
	f.calls++
	if f.err != nil {
		return Stored{}, f.err
	}
	return Stored{Name: name, Path: "https://cdn.test/" + name, URL: "https://cdn.test/" + name}, nil
}

func TestBreakerStore_OpensAfterFailures(t *testing.T) {
	upstream := &failingStore{err: errors.New("502 from upstream")}
	store := NewBreakerStore("upload-test-open", upstream, BreakerSettings{MinRequests: 3, OpenTimeout: time.Hour}, zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := store.Save(context.Background(), "a.zip", strings.NewReader("x")); err == nil {
			t.Fatalf("expected upstream error on call %d", i+1)
		}
	}
	if store.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", store.State())
	}

	_, err := store.Save(context.Background(), "a.zip", strings.NewReader("x"))
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if upstream.calls != 3 {
		t.Fatalf("open breaker must not reach upstream, got %d calls", upstream.calls)
	}
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	store := NewBreakerStore("upload-test-ok", &failingStore{}, BreakerSettings{}, zap.NewNop())

	stored, err := store.Save(context.Background(), "b.zip", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored.URL != "https://cdn.test/b.zip" {
		t.Fatalf("unexpected stored %+v", stored)
	}
}

func TestBreakerStore_IgnoresCanceledUploads(t *testing.T) {
	upstream := &failingStore{err: context.Canceled}
	store := NewBreakerStore("upload-test-cancel", upstream, BreakerSettings{MinRequests: 2}, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, _ = store.Save(context.Background(), "c.zip", strings.NewReader("x"))
	}
	if store.State() != gobreaker.StateClosed {
		t.Fatalf("canceled uploads must not open the breaker, got %s", store.State())
	}
}
