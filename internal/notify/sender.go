package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// Sender turns booking and flight events into customer notifications.
type Sender struct {
	publisher Publisher
	topic     string
	log       *logrus.Logger
}

func NewSender(publisher Publisher, topic string, log *logrus.Logger) *Sender {
	return &Sender{publisher: publisher, topic: topic, log: log}
}

func (s *Sender) SendBooking(ctx context.Context, event kafka.BookingEvent) error {
	n := kafka.Notification{
		ID:        uuid.NewString(),
		EventID:   event.ID,
		Recipient: event.Username,
		CreatedAt: time.Now().UTC(),
	}
	switch event.Type {
	case kafka.EventBookingCreated:
		n.Subject = fmt.Sprintf("Booking %s confirmed", event.PNR)
		n.Body = fmt.Sprintf("Your %s booking on %s for seats %s is confirmed. Total paid: %s via %s.",
			event.FareClass, event.Route, strings.Join(event.Seats, ", "), domain.FormatCents(event.TotalCents), event.PaymentMethod)
	case kafka.EventBookingCanceled:
		n.Subject = fmt.Sprintf("Booking %s canceled", event.PNR)
		n.Body = fmt.Sprintf("Your booking on %s has been canceled and seats %s were released.", event.Route, strings.Join(event.Seats, ", "))
	case kafka.EventBookingCheckedIn:
		n.Subject = fmt.Sprintf("Checked in for %s", event.PNR)
		n.Body = fmt.Sprintf("You are checked in on %s. Seats: %s.", event.Route, strings.Join(event.Seats, ", "))
	default:
		s.log.WithField("type", event.Type).Warn("skipping unknown booking event")
		return nil
	}
	return s.deliver(ctx, n)
}

func (s *Sender) SendFlightStatus(ctx context.Context, event kafka.FlightStatusEvent) error {
	n := kafka.Notification{
		ID:        uuid.NewString(),
		EventID:   event.ID,
		Recipient: "flight:" + event.Route,
		Subject:   fmt.Sprintf("Flight %s is now %s", event.Route, event.To),
		Body:      fmt.Sprintf("Flight %s status changed from %s to %s.", event.Route, event.From, event.To),
		CreatedAt: time.Now().UTC(),
	}
	return s.deliver(ctx, n)
}

func (s *Sender) deliver(ctx context.Context, n kafka.Notification) error {
	s.log.WithFields(logrus.Fields{"recipient": n.Recipient, "event_id": n.EventID}).Info(n.Subject)
	if s.publisher == nil || s.topic == "" {
		return nil
	}
	return s.publisher.Publish(ctx, s.topic, n.Recipient, n)
}

// BookingHandler adapts SendBooking to a kafka consumer. Undecodable messages are logged and skipped.
func (s *Sender) BookingHandler() kafka.MessageHandler {
	return func(ctx context.Context, msg kafkago.Message) error {
		event, err := kafka.Decode[kafka.BookingEvent](msg)
		if err != nil {
			s.log.WithError(err).WithField("topic", msg.Topic).Warn("skipping malformed booking event")
			return nil
		}
		return s.SendBooking(ctx, event)
	}
}

func (s *Sender) FlightStatusHandler() kafka.MessageHandler {
	return func(ctx context.Context, msg kafkago.Message) error {
		event, err := kafka.Decode[kafka.FlightStatusEvent](msg)
		if err != nil {
			s.log.WithError(err).WithField("topic", msg.Topic).Warn("skipping malformed flight status event")
			return nil
		}
		return s.SendFlightStatus(ctx, event)
	}
}
