package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/event"
)

type captured struct {
	mu   sync.Mutex
	msgs []Message
}

func (c *captured) Broadcast(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return true
}

func (c *captured) snapshot() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.msgs...)
}

func TestRelay_ForwardsBusEvents(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	defer bus.Close()
	out := &captured{}
	relay := NewRelay(bus, out, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Serve(ctx)

	// wait until the relay subscription is live
	waitFor(t, func() bool {
		bus.Publish(ctx, event.Updated(event.EntitySettings, map[string]string{"appTitle": "probe"}))
		return len(out.snapshot()) > 0
	})
	before := len(out.snapshot())

	bus.Publish(ctx, event.Added(event.EntityCategory, map[string]string{"id": "c1", "name": "Crypto"}))
	bus.Publish(ctx, event.Deleted(event.EntityCategory, "c1"))

	waitFor(t, func() bool { return len(out.snapshot()) == before+2 })
	msgs := out.snapshot()[before:]
	if msgs[0].Event != "category-added" || msgs[1].Event != "category-deleted" {
		t.Fatalf("unexpected order %+v", msgs)
	}
	if string(msgs[1].Data) != `"c1"` {
		t.Fatalf("expected bare id for delete, got %s", msgs[1].Data)
	}
}

func TestRelay_StopsOnCancel(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	defer bus.Close()
	relay := NewRelay(bus, &captured{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- relay.Serve(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("relay did not stop")
	}
}
