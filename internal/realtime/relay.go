package realtime

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/event"
)

// Subscriber is the part of event.Bus the relay consumes.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// Broadcaster is the part of Hub the relay feeds.
type Broadcaster interface {
	Broadcast(msg Message) bool
}

// Relay is the single subscriber that turns domain events into realtime
// messages.
type Relay struct {
	bus Subscriber
	out Broadcaster
	log *zap.Logger
}

func NewRelay(bus Subscriber, out Broadcaster, log *zap.Logger) *Relay {
	return &Relay{bus: bus, out: out, log: log}
}

// Serve consumes events until ctx is canceled.
func (r *Relay) Serve(ctx context.Context) error {
	msgs, err := r.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			r.forward(msg)
		}
	}
}

func (r *Relay) String() string { return "realtime-relay" }

func (r *Relay) forward(msg *message.Message) {
	// acked either way: a malformed event is not worth redelivering
	defer msg.Ack()

	env, err := event.Decode(msg)
	if err != nil {
		r.log.Error("drop malformed event", zap.Error(err))
		return
	}
	r.out.Broadcast(Message{Event: env.Event, Data: env.Data})
}
