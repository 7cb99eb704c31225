package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

var errNoBrokers = errors.New("kafka: no brokers configured")

// Producer writes JSON events. The topic is chosen per message so one writer
// serves every topic.
type Producer struct {
	brokers []string
	writer  *kafka.Writer
	log     *logrus.Logger
}

func NewProducer(brokers []string, log *logrus.Logger) *Producer {
	return &Producer{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           20 * time.Millisecond,
			WriteTimeout:           10 * time.Second,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		log: log,
	}
}

// Publish encodes payload and writes it keyed by key, so events for one
// booking or flight land on one partition.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("write %s event: %w", topic, err)
	}

	p.log.WithFields(logrus.Fields{"topic": topic, "key": key, "bytes": len(value)}).Debug("event published")
	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// CheckConnection dials the first broker and lists its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errNoBrokers
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.brokers[0], err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("list partitions: %w", err)
	}
	p.log.WithFields(logrus.Fields{"broker": p.brokers[0], "partitions": len(partitions)}).Info("kafka reachable")
	return nil
}

// Publisher is what services publish events through.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// Discard drops every event. It stands in when no brokers are configured.
type Discard struct{}

var (
	_ Publisher = (*Producer)(nil)
	_ Publisher = Discard{}
)

func (Discard) Publish(context.Context, string, string, interface{}) error { return nil }
