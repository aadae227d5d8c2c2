package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/parking/internal/kafka"
	"go.uber.org/zap"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender turns parking events into messages. Delivery is a structured log
// line until an SMTP relay is configured.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{log: log.Named("email")}
}

func (s *Sender) Send(ctx context.Context, event kafka.ParkingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := Render(event)
	if err != nil {
		s.log.Warn("skip notification", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}

	s.log.Info("send email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("event_type", event.Type),
		zap.Int64("booking_id", event.BookingID),
	)
	return nil
}

// Render builds the message for event. Events without a recipient or of an
// unknown type are rejected.
func Render(event kafka.ParkingEvent) (Message, error) {
	if event.Email == "" {
		return Message{}, errors.New("event has no recipient")
	}

	greeting := "Hello"
	if event.Name != "" {
		greeting += " " + event.Name
	}

	switch event.Type {
	case kafka.EventSpotBooked:
		return Message{
			To:      event.Email,
			Subject: fmt.Sprintf("Spot %d reserved at %s", event.SpotID, event.LotName),
			Body: fmt.Sprintf("%s,\n\nSpot %d at %s is reserved for vehicle %s from %s.\n",
				greeting, event.SpotID, event.LotName, event.VehicleNumber, event.EntryTime.Format(time.RFC1123)),
		}, nil
	case kafka.EventSpotReleased:
		exit := "now"
		if event.ExitTime != nil {
			exit = event.ExitTime.Format(time.RFC1123)
		}
		return Message{
			To:      event.Email,
			Subject: fmt.Sprintf("Receipt for booking %d", event.BookingID),
			Body: fmt.Sprintf("%s,\n\nVehicle %s left spot %d at %s at %s.\nAmount charged: %s\n",
				greeting, event.VehicleNumber, event.SpotID, event.LotName, exit, FormatCents(event.CostCents)),
		}, nil
	default:
		return Message{}, fmt.Errorf("unknown event type %q", event.Type)
	}
}

func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
