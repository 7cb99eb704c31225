package domain

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
	"time"
)

var PaymentMethods = []string{"Credit/Debit Card", "GCash", "Maya", "PayPal", "Bank Transfer"}

func ValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

type Booking struct {
	ID            int64
	PNR           string
	UserID        int64
	Username      string
	Flight        Flight
	Fare          Fare
	TotalCents    int64
	Seats         []string
	Persons       int
	PaymentMethod string
	CheckedIn     bool
	CreatedAt     time.Time
}

func (b *Booking) PointsEarned() int {
	return LoyaltyPoints(b.TotalCents)
}

const (
	PNRLength   = 6
	PNRAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func ValidPNR(pnr string) bool {
	if len(pnr) != PNRLength {
		return false
	}
	for i := 0; i < len(pnr); i++ {
		c := pnr[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// PNRGenerator draws uniformly random PNRs. It is safe for concurrent use.
type PNRGenerator struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewPNRGenerator uses rng when given, crypto/rand otherwise.
func NewPNRGenerator(rng *mrand.Rand) *PNRGenerator {
	return &PNRGenerator{rng: rng}
}

func (g *PNRGenerator) Next() string {
	buf := make([]byte, PNRLength)
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range buf {
		buf[i] = PNRAlphabet[g.intn(len(PNRAlphabet))]
	}
	return string(buf)
}

func (g *PNRGenerator) intn(n int) int {
	if g.rng != nil {
		return g.rng.Intn(n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return mrand.Intn(n)
	}
	return int(v.Int64())
}
