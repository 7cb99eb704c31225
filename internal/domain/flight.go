package domain

import (
	"strings"
	"time"
)

type FlightStatus string

const (
	FlightStatusOnTime   FlightStatus = "ON_TIME"
	FlightStatusDelayed  FlightStatus = "DELAYED"
	FlightStatusCanceled FlightStatus = "CANCELED"
)

func (s FlightStatus) Valid() bool {
	switch s {
	case FlightStatusOnTime, FlightStatusDelayed, FlightStatusCanceled:
		return true
	}
	return false
}

type Region string

const (
	RegionLocal         Region = "LOCAL"
	RegionInternational Region = "INTERNATIONAL"
)

// ParseRegion accepts the upper or lower case name. An empty string means all regions.
func ParseRegion(s string) (Region, bool) {
	switch Region(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return "", true
	case RegionLocal:
		return RegionLocal, true
	case RegionInternational:
		return RegionInternational, true
	}
	return "", false
}

// MaxTotalSeats bounds a flight's capacity. Any layout then numbers its rows
// with at most three digits.
const MaxTotalSeats = 900

type Flight struct {
	ID            int64
	Route         string
	Region        Region
	BaseFareCents int64
	TotalSeats    int
	Status        FlightStatus
	Occupied      SeatSet
	UpdatedAt     time.Time
}

func (f *Flight) Bookable() bool {
	return f != nil && f.Status != FlightStatusCanceled
}

// Endpoints splits a "MNL → CEB" style route into its departure and arrival codes.
func (f *Flight) Endpoints() (string, string) {
	return RouteEndpoints(f.Route)
}

func RouteEndpoints(route string) (string, string) {
	for _, sep := range []string{"→", "->", " - "} {
		if i := strings.Index(route, sep); i >= 0 {
			return strings.TrimSpace(route[:i]), strings.TrimSpace(route[i+len(sep):])
		}
	}
	parts := strings.Fields(route)
	if len(parts) >= 2 {
		return parts[0], parts[len(parts)-1]
	}
	return route, route
}
