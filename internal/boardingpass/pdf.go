// Package boardingpass renders checked-in bookings as printable PDFs.
package boardingpass

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Render builds a one-page A4 boarding pass with the PNR encoded as a QR code.
func Render(b *domain.Booking, issuedAt time.Time) ([]byte, error) {
	if !b.CheckedIn {
		return nil, domain.ErrNotCheckedIn
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, "BOARDING PASS")
	pdf.Ln(18)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 62, "F")

	departure, arrival := b.Flight.Endpoints()
	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr(fmt.Sprintf("%s  to  %s", departure, arrival)))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []string{
		"PNR: " + b.PNR,
		"Passenger account: " + b.Username,
		"Class: " + b.Fare.Label(),
		"Seats: " + strings.Join(b.Seats, ", "),
		fmt.Sprintf("Persons: %d", b.Persons),
		"Flight status: " + string(b.Flight.Status),
	} {
		pdf.SetX(20)
		pdf.Cell(0, 8, tr(line))
		pdf.Ln(7)
	}

	qr, err := qrcode.Encode(b.PNR, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetY(yStart + 70)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Present this pass and a valid ID at the gate.")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, "PAYMENT", "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Total paid: %s via %s", domain.FormatCents(b.TotalCents), b.PaymentMethod)))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Booked: %s", b.CreatedAt.Format("2006-01-02 15:04")))

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, "Issued "+issuedAt.Format(time.RFC1123), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
