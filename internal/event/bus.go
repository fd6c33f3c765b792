package event

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Topic is the single in-process topic all store events travel on.
const Topic = "store.events"

// Envelope is the serialized form of an Event on the bus.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    time.Time       `json:"at"`
}

// Bus is an in-process pub/sub backed by watermill's Go channel transport.
// There is no persistence: events published while nobody is subscribed are
// dropped.
type Bus struct {
	pubsub *gochannel.GoChannel
	log    *zap.Logger
}

// NewBus creates a bus. Publish waits for the subscriber to ack so that a
// single subscriber observes events in publish order.
func NewBus(log *zap.Logger) *Bus {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            256,
		BlockPublishUntilSubscriberAck: true,
	}, NewWatermillLogger(log))
	return &Bus{pubsub: ps, log: log}
}

// Publish implements Publisher.
func (b *Bus) Publish(ctx context.Context, e Event) {
	body, err := Encode(e)
	if err != nil {
		b.log.Error("encode event", zap.String("event", e.Name()), zap.Error(err))
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(Topic, msg); err != nil {
		b.log.Warn("publish event", zap.String("event", e.Name()), zap.Error(err))
	}
}

// Subscribe returns the message stream; it is closed when ctx is done.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, Topic)
}

// Close stops the bus and closes all subscriptions.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// Encode serializes an event into an Envelope.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(Envelope{Event: e.Name(), Data: data, At: time.Now().UTC()})
}

// Decode parses a bus message back into its Envelope.
func Decode(msg *message.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope %s: %w", msg.UUID, err)
	}
	return env, nil
}
