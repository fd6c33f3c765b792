package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeServer struct {
	listenErr error
	stop      chan struct{}
	shutdowns atomic.Int32
}

func newFakeServer() *fakeServer { return &fakeServer{stop: make(chan struct{})} }

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return nil
}

func TestHTTPService_GracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("service did not stop")
	}
	if srv.shutdowns.Load() != 1 {
		t.Fatalf("expected one Shutdown call, got %d", srv.shutdowns.Load())
	}
}

func TestHTTPService_ListenFailure(t *testing.T) {
	srv := newFakeServer()
	srv.listenErr = errors.New("address already in use")

	err := NewHTTPService(srv, time.Second).Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Fatalf("expected wrapped listen error, got %v", err)
	}
}

// flaky fails on its first run and then blocks until canceled.
type flaky struct{ runs atomic.Int32 }

func (f *flaky) Serve(ctx context.Context) error {
	if f.runs.Add(1) == 1 {
		return errors.New("first run fails")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *flaky) String() string { return "flaky" }

func TestTree_RestartsFailedService(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tree := NewTree(zap.New(core), TreeConfig{FailureBackoff: 10 * time.Millisecond, ShutdownTimeout: time.Second})

	svc := &flaky{}
	tree.AddMessagingService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for svc.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if svc.runs.Load() < 2 {
		t.Fatalf("expected the service to be restarted, ran %d times", svc.runs.Load())
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() == 0 {
		t.Fatalf("expected the termination to be logged")
	}
}
