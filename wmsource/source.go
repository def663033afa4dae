// Package wmsource connects a routekit Dispatcher to any watermill pub/sub.
//
// Updates travel as routekit.EncodeUpdate envelopes in the message payload.
// A Source subscribes to one topic and hands each decoded update to
// Dispatcher.Run; the message is acked once the dispatch succeeded and nacked
// when it failed. A Publisher does the reverse for producers.
//
//	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger)
//	src := wmsource.New(pubSub, "updates", wmsource.WithLogger(logger))
//	err := dispatcher.Run(ctx, src)
package wmsource

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/bjaus/routekit"
)

// KindMetadataKey is the message metadata entry holding the update kind.
const KindMetadataKey = "routekit_kind"

// DecodeErrorFunc is called for messages whose payload is not an update.
type DecodeErrorFunc func(msg *message.Message, err error)

// Source is a routekit.Source reading updates from a watermill subscriber.
type Source struct {
	sub    message.Subscriber
	topic  string
	logger watermill.LoggerAdapter

	onDecodeError   DecodeErrorFunc
	nackUndecodable bool
	ackFailed       bool
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger. Undecodable messages are logged at error level.
func WithLogger(l watermill.LoggerAdapter) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDecodeErrorHandler adds a callback for undecodable messages, for
// example to move them to a dead letter topic.
func WithDecodeErrorHandler(fn DecodeErrorFunc) Option {
	return func(s *Source) { s.onDecodeError = fn }
}

// WithNackUndecodable nacks undecodable messages instead of acking them. Only
// use it with brokers that stop redelivering eventually.
func WithNackUndecodable() Option {
	return func(s *Source) { s.nackUndecodable = true }
}

// WithAckFailed acks messages whose dispatch failed, so a failing handler does
// not cause redeliveries.
func WithAckFailed() Option {
	return func(s *Source) { s.ackFailed = true }
}

// New returns a Source subscribing to topic.
func New(sub message.Subscriber, topic string, opts ...Option) *Source {
	s := &Source{
		sub:    sub,
		topic:  topic,
		logger: watermill.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Receive implements routekit.Source.
func (s *Source) Receive(ctx context.Context) (<-chan routekit.Delivery, error) {
	msgs, err := s.sub.Subscribe(ctx, s.topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", s.topic, err)
	}

	out := make(chan routekit.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				dl, ok := s.delivery(msg)
				if !ok {
					continue
				}
				select {
				case out <- dl:
				case <-ctx.Done():
					msg.Nack()
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Source) delivery(msg *message.Message) (routekit.Delivery, bool) {
	fields := watermill.LogFields{"topic": s.topic, "message_uuid": msg.UUID}

	u, err := routekit.DecodeUpdate(msg.Payload)
	if err != nil {
		s.logger.Error("dropping undecodable message", err, fields)
		if s.onDecodeError != nil {
			s.onDecodeError(msg, err)
		}
		if s.nackUndecodable {
			msg.Nack()
		} else {
			msg.Ack()
		}
		return routekit.Delivery{}, false
	}

	return routekit.Delivery{
		Update: u,
		Done: func(err error) {
			if err != nil && !s.ackFailed {
				s.logger.Debug("nacking message", fields.Add(watermill.LogFields{"error": err.Error()}))
				msg.Nack()
				return
			}
			msg.Ack()
		},
	}, true
}

// Publisher publishes updates to a watermill topic.
type Publisher struct {
	pub   message.Publisher
	topic string
}

// NewPublisher returns a Publisher writing to topic.
func NewPublisher(pub message.Publisher, topic string) *Publisher {
	return &Publisher{pub: pub, topic: topic}
}

// Publish encodes and publishes updates in order.
func (p *Publisher) Publish(ctx context.Context, updates ...routekit.Update) error {
	msgs := make([]*message.Message, 0, len(updates))
	for _, u := range updates {
		raw, err := routekit.EncodeUpdate(u)
		if err != nil {
			return err
		}
		msg := message.NewMessage(watermill.NewUUID(), raw)
		msg.Metadata.Set(KindMetadataKey, u.Kind().String())
		msg.SetContext(ctx)
		msgs = append(msgs, msg)
	}
	if err := p.pub.Publish(p.topic, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}
