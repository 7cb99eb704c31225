package domain

import (
	"fmt"
	"sort"
	"strconv"
)

const (
	DefaultSeatsPerRow = 6
	DefaultAisleAfter  = 3
)

// SeatLayout maps seat ids of the form "<row><letter>" onto a flight's capacity.
// Rows start at 1, letters start at 'A'. The id format is stored as is in reserved_seats.
type SeatLayout struct {
	SeatsPerRow int
	AisleAfter  int
}

func DefaultSeatLayout() SeatLayout {
	return SeatLayout{SeatsPerRow: DefaultSeatsPerRow, AisleAfter: DefaultAisleAfter}
}

func (l SeatLayout) normalized() SeatLayout {
	if l.SeatsPerRow <= 0 || l.SeatsPerRow > 26 {
		l.SeatsPerRow = DefaultSeatsPerRow
	}
	if l.AisleAfter < 0 || l.AisleAfter >= l.SeatsPerRow {
		l.AisleAfter = 0
	}
	return l
}

func (l SeatLayout) SeatID(row, col int) string {
	return strconv.Itoa(row) + string(rune('A'+col))
}

// Parse returns the 1-based row and 0-based column of a seat id.
func (l SeatLayout) Parse(id string) (int, int, error) {
	l = l.normalized()
	if len(id) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeat, id)
	}
	digits, letter := id[:len(id)-1], id[len(id)-1]
	if digits[0] == '0' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeat, id)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeat, id)
		}
	}
	row, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeat, id)
	}
	col := int(letter) - 'A'
	if col < 0 || col >= l.SeatsPerRow {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeat, id)
	}
	return row, col, nil
}

// Number is the 1-based position of the seat in boarding order.
func (l SeatLayout) Number(id string) (int, error) {
	l = l.normalized()
	row, col, err := l.Parse(id)
	if err != nil {
		return 0, err
	}
	return (row-1)*l.SeatsPerRow + col + 1, nil
}

// Validate checks that every id is well formed and fits within capacity.
func (l SeatLayout) Validate(capacity int, ids []string) error {
	for _, id := range ids {
		n, err := l.Number(id)
		if err != nil {
			return err
		}
		if n > capacity {
			return fmt.Errorf("%w: %s exceeds capacity %d", ErrInvalidSeat, id, capacity)
		}
	}
	return nil
}

func (l SeatLayout) Rows(capacity int) int {
	l = l.normalized()
	return (capacity + l.SeatsPerRow - 1) / l.SeatsPerRow
}

type SeatCell struct {
	ID       string `json:"id"`
	Occupied bool   `json:"occupied"`
}

type SeatRow struct {
	Row        int        `json:"row"`
	Seats      []SeatCell `json:"seats"`
	AisleAfter int        `json:"aisle_after"`
}

type SeatMap struct {
	FlightID  int64     `json:"flight_id"`
	Capacity  int       `json:"capacity"`
	Available int       `json:"available"`
	Rows      []SeatRow `json:"rows"`
}

func (l SeatLayout) Map(flight *Flight) SeatMap {
	l = l.normalized()
	m := SeatMap{FlightID: flight.ID, Capacity: flight.TotalSeats}
	for r := 0; r < l.Rows(flight.TotalSeats); r++ {
		row := SeatRow{Row: r + 1, AisleAfter: l.AisleAfter}
		for c := 0; c < l.SeatsPerRow; c++ {
			if r*l.SeatsPerRow+c+1 > flight.TotalSeats {
				break
			}
			id := l.SeatID(r+1, c)
			occupied := flight.Occupied.Contains(id)
			if !occupied {
				m.Available++
			}
			row.Seats = append(row.Seats, SeatCell{ID: id, Occupied: occupied})
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

type SeatSet map[string]struct{}

func NewSeatSet(ids ...string) SeatSet {
	s := make(SeatSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SeatSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Overlap returns the ids that are already in the set, sorted.
func (s SeatSet) Overlap(ids []string) []string {
	var taken []string
	for _, id := range ids {
		if s.Contains(id) {
			taken = append(taken, id)
		}
	}
	sort.Strings(taken)
	return taken
}

func (s SeatSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// HasDuplicates reports whether ids repeats a seat.
func HasDuplicates(ids []string) bool {
	return len(NewSeatSet(ids...)) != len(ids)
}
