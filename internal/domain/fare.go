package domain

import (
	"fmt"
	"strings"
)

type FareClass string

const (
	FareEconomy     FareClass = "Economy"
	FareEconomyPlus FareClass = "Economy Plus"
	FareBusiness    FareClass = "Business Class"
	FareFirst       FareClass = "First Class"
)

const (
	MinPersons = 1
	MaxPersons = 9
)

// Multipliers are kept in tenths so prices stay in integer cents.
var fareMultipliers = map[FareClass]int{
	FareEconomy:     10,
	FareEconomyPlus: 15,
	FareBusiness:    20,
	FareFirst:       30,
}

type Fare struct {
	Class            FareClass
	MultiplierTenths int
}

func (f Fare) Multiplier() float64 {
	return float64(f.MultiplierTenths) / 10
}

// Label renders the fare the way the booking screens show it, e.g. "Business Class (x2.0)".
func (f Fare) Label() string {
	return fmt.Sprintf("%s (x%.1f)", f.Class, f.Multiplier())
}

// ParseFareClass accepts a bare class name or a label with its multiplier suffix.
func ParseFareClass(s string) (Fare, error) {
	name := strings.TrimSpace(s)
	if i := strings.Index(name, " (x"); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	for class, tenths := range fareMultipliers {
		if strings.EqualFold(string(class), name) {
			return Fare{Class: class, MultiplierTenths: tenths}, nil
		}
	}
	return Fare{}, fmt.Errorf("%w: %q", ErrInvalidFareClass, s)
}

func FareClasses() []Fare {
	return []Fare{
		{Class: FareEconomy, MultiplierTenths: 10},
		{Class: FareEconomyPlus, MultiplierTenths: 15},
		{Class: FareBusiness, MultiplierTenths: 20},
		{Class: FareFirst, MultiplierTenths: 30},
	}
}

// PriceCents is baseFare × multiplier × persons. Half cents round up.
func PriceCents(baseFareCents int64, fare Fare, persons int) int64 {
	return (baseFareCents*int64(fare.MultiplierTenths)*int64(persons) + 5) / 10
}

// LoyaltyPoints is floor(price / 100) in currency units.
func LoyaltyPoints(totalCents int64) int {
	if totalCents <= 0 {
		return 0
	}
	return int(totalCents / 10000)
}

func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
