package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "storefront-cart-events"

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageReader is the part of *kafka.Reader the relay uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func NewReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6,
	})
}

// KafkaSink forwards locally raised events to Kafka. Handle never blocks the
// publishing mutation: events are queued and written by Run, and dropped with a
// warning when the queue is full.
type KafkaSink struct {
	writer   MessageWriter
	instance string
	queue    chan CartUpdated
	timeout  time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

func NewKafkaSink(writer MessageWriter, instance string, queueSize int) *KafkaSink {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &KafkaSink{
		writer:   writer,
		instance: instance,
		queue:    make(chan CartUpdated, queueSize),
		timeout:  5 * time.Second,
		done:     make(chan struct{}),
	}
}

// Handle is a Bus handler.
func (s *KafkaSink) Handle(ev CartUpdated) {
	if ev.Origin != "" {
		// relayed from another instance
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	ev.Origin = s.instance
	select {
	case s.queue <- ev:
	default:
		log.Warn().Str("session", ev.SessionID).Str("reason", string(ev.Reason)).Msg("kafka sink queue full, dropping event")
	}
}

// Run writes queued events until ctx is cancelled or Close is called, then
// flushes what is still queued.
func (s *KafkaSink) Run(ctx context.Context) {
	for {
		select {
		case ev := <-s.queue:
			s.write(ev)
		case <-ctx.Done():
			s.drain()
			return
		case <-s.done:
			s.drain()
			return
		}
	}
}

func (s *KafkaSink) drain() {
	for {
		select {
		case ev := <-s.queue:
			s.write(ev)
		default:
			return
		}
	}
}

func (s *KafkaSink) write(ev CartUpdated) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal cart event")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(ev.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("cart_updated")},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		log.Warn().Err(err).Str("session", ev.SessionID).Msg("failed to publish cart event")
	}
}

func (s *KafkaSink) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.writer.Close()
}

// Relay republishes events written by other gateway instances onto the local
// bus, so SSE clients connected here see changes made through a peer.
type Relay struct {
	reader   MessageReader
	bus      Publisher
	instance string
}

func NewRelay(reader MessageReader, bus Publisher, instance string) *Relay {
	return &Relay{reader: reader, bus: bus, instance: instance}
}

func (r *Relay) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			log.Warn().Err(err).Msg("error reading cart event")
			time.Sleep(time.Second)
			continue
		}
		r.handle(m)
	}
}

func (r *Relay) handle(m kafka.Message) {
	var ev CartUpdated
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		log.Warn().Err(err).Msg("error parsing cart event")
		return
	}
	if ev.Origin == "" || ev.Origin == r.instance || ev.SessionID == "" {
		return
	}
	r.bus.Publish(ev)
}

func (r *Relay) Close() error {
	return r.reader.Close()
}
