package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	defaultHandlerAttempts = 3
	defaultHandlerBackoff  = time.Second
)

// MessageHandler processes one fetched message.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

type Consumer struct {
	topic    string
	reader   *kafka.Reader
	log      logrus.FieldLogger
	attempts int
	backoff  time.Duration
}

type ConsumerOption func(*Consumer)

func WithConsumerLogger(log logrus.FieldLogger) ConsumerOption {
	return func(c *Consumer) {
		c.log = log
	}
}

// WithHandlerRetry sets how many times a message is handed to the handler and
// the base delay between tries. The delay grows linearly.
func WithHandlerRetry(attempts int, backoff time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

func NewConsumer(brokers []string, groupID, topic string, opts ...ConsumerOption) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          1,
		MaxBytes:          1 << 20,
		MaxWait:           time.Second,
		StartOffset:       kafka.FirstOffset,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	c := &Consumer{
		topic:    topic,
		reader:   kafka.NewReader(cfg),
		log:      logrus.StandardLogger(),
		attempts: defaultHandlerAttempts,
		backoff:  defaultHandlerBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Topic() string { return c.topic }

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume fetches messages until ctx ends. A message whose handler keeps failing
// is logged and committed so the rest of the topic keeps flowing. Cancellation
// returns nil; only fetch and commit failures end it early.
func (c *Consumer) Consume(ctx context.Context, handle MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return ignoreCanceled(ctx, err)
		}
		if err := c.deliver(ctx, handle, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.WithError(err).WithFields(logrus.Fields{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Error("dropping message after failed attempts")
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return ignoreCanceled(ctx, err)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, handle MessageHandler, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = handle(ctx, msg); err == nil {
			return nil
		}
		if attempt == c.attempts {
			break
		}
		c.log.WithError(err).WithFields(logrus.Fields{"topic": msg.Topic, "attempt": attempt}).Warn("message handler failed, retrying")
		if werr := wait(ctx, time.Duration(attempt)*c.backoff); werr != nil {
			return werr
		}
	}
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func ignoreCanceled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return nil
	}
	return err
}

// Decode unmarshals a message value into an event of type T.
func Decode[T any](msg kafka.Message) (T, error) {
	var v T
	err := json.Unmarshal(msg.Value, &v)
	return v, err
}
