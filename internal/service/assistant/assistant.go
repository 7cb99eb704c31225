package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/sirupsen/logrus"
)

type FlightLister interface {
	List(ctx context.Context, region domain.Region) ([]domain.Flight, error)
}

type BookingFinder interface {
	GetBooking(ctx context.Context, pnr string) (*domain.Booking, error)
}

type AssistantUseCase interface {
	Reply(ctx context.Context, userID int64, text string) string
}

// Assistant answers a fixed set of keyword commands about flights and bookings.
type Assistant struct {
	flights  FlightLister
	bookings BookingFinder
	log      *logrus.Logger
}

func NewAssistant(flights FlightLister, bookings BookingFinder, log *logrus.Logger) *Assistant {
	return &Assistant{flights: flights, bookings: bookings, log: log}
}

const (
	cmdFlightsTo     = "flights to"
	cmdBookingStatus = "booking status"
	cmdCancelBooking = "cancel booking"

	replyTrouble = "Sorry, I can't reach the reservation system right now. Please try again in a moment."
)

func (a *Assistant) Reply(ctx context.Context, userID int64, text string) string {
	input := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.HasPrefix(input, "hello"), strings.HasPrefix(input, "hi"):
		return "Hello there! How can I help you today?"
	case strings.Contains(input, cmdFlightsTo):
		return a.flightsTo(ctx, argAfter(input, cmdFlightsTo))
	case strings.HasPrefix(input, cmdBookingStatus):
		return a.bookingStatus(ctx, strings.ToUpper(argAfter(input, cmdBookingStatus)))
	case strings.HasPrefix(input, cmdCancelBooking):
		return a.cancelHint(ctx, userID, strings.ToUpper(argAfter(input, cmdCancelBooking)))
	case strings.Contains(input, "thank you"), strings.Contains(input, "thanks"):
		return "You're welcome! Is there anything else?"
	case strings.Contains(input, "help"):
		return "I can help you with:\n" +
			"   - Finding flights (e.g., 'flights to Tokyo')\n" +
			"   - Checking booking status (e.g., 'booking status ABC123')\n" +
			"   - Information on how to cancel bookings (e.g., 'cancel booking XYZ789')"
	}
	return "I'm sorry, I didn't quite understand that. Can you please rephrase or type 'help' for options?"
}

func argAfter(input, cmd string) string {
	i := strings.Index(input, cmd)
	return strings.TrimSpace(input[i+len(cmd):])
}

func (a *Assistant) flightsTo(ctx context.Context, destination string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Searching for flights to %s...\n", destination)

	found := false
	for _, region := range []domain.Region{domain.RegionLocal, domain.RegionInternational} {
		flights, err := a.flights.List(ctx, region)
		if err != nil {
			a.log.WithError(err).Warn("assistant failed to list flights")
			return replyTrouble
		}
		for _, f := range flights {
			if destination != "" && !strings.Contains(strings.ToLower(f.Route), destination) {
				continue
			}
			fmt.Fprintf(&b, "   - %s: %s (Base Fare: ₱%s, Status: %s)\n",
				regionLabel(region), f.Route, domain.FormatCents(f.BaseFareCents), f.Status)
			found = true
		}
	}
	if !found {
		fmt.Fprintf(&b, "   Sorry, no direct flights found for '%s' in our current list.", destination)
	}
	return strings.TrimRight(b.String(), "\n")
}

func regionLabel(r domain.Region) string {
	if r == domain.RegionInternational {
		return "International"
	}
	return "Local"
}

// find returns a nil booking and an empty reply when the PNR is unknown.
func (a *Assistant) find(ctx context.Context, pnr string) (*domain.Booking, string) {
	booking, err := a.bookings.GetBooking(ctx, pnr)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return nil, fmt.Sprintf("Sorry, PNR %s not found.", pnr)
	}
	if err != nil {
		a.log.WithError(err).WithField("pnr", pnr).Warn("assistant failed to load booking")
		return nil, replyTrouble
	}
	return booking, ""
}

func (a *Assistant) bookingStatus(ctx context.Context, pnr string) string {
	b, reply := a.find(ctx, pnr)
	if b == nil {
		return reply
	}
	checkedIn := "No"
	if b.CheckedIn {
		checkedIn = "Yes"
	}
	return fmt.Sprintf("Status for PNR %s:\n"+
		"   Flight: %s\n"+
		"   Seats: %s\n"+
		"   Total Price: ₱%s\n"+
		"   Checked In: %s\n"+
		"   Flight Status: %s",
		b.PNR, b.Flight.Route, strings.Join(b.Seats, ", "), domain.FormatCents(b.TotalCents), checkedIn, b.Flight.Status)
}

func (a *Assistant) cancelHint(ctx context.Context, userID int64, pnr string) string {
	b, reply := a.find(ctx, pnr)
	if b == nil {
		return reply
	}
	if b.UserID != userID {
		return "You can only manage your own bookings. Please ensure you are logged in with the correct account."
	}
	return fmt.Sprintf("To cancel booking PNR %s, please go to 'My Bookings' and use the cancel option. This ensures proper confirmation.", pnr)
}

var _ AssistantUseCase = (*Assistant)(nil)
