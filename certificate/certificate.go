// Package certificate renders proof-of-address certificates for verified
// requests.
package certificate

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"addressme/verification"
)

// ErrNotIssued signals a request that has no certificate yet.
var ErrNotIssued = errors.New("certificate: request is not verified")

const dateLayout = "02 January 2006"

// Data is everything printed on a certificate.
type Data struct {
	Number     string
	RequestID  string
	ResidentID string
	VerifierID string
	Latitude   float64
	Longitude  float64
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// FromRequest extracts certificate data from a verified request.
func FromRequest(req verification.AddressRequest) (Data, error) {
	if req.Status != verification.StatusVerified || req.Certificate == nil {
		return Data{}, ErrNotIssued
	}
	d := Data{
		Number:     req.Certificate.Number,
		RequestID:  req.ID,
		ResidentID: req.ResidentID,
		Latitude:   req.Coordinates.Latitude,
		Longitude:  req.Coordinates.Longitude,
		IssuedAt:   req.Certificate.IssuedAt,
		ExpiresAt:  req.Certificate.ExpiresAt,
	}
	if req.VerifierID != nil {
		d.VerifierID = *req.VerifierID
	}
	return d, nil
}

// Render writes a one-page A4 PDF certificate to w.
func Render(w io.Writer, d Data) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.SetAutoPageBreak(false, 20)
	pdf.SetTitle("Proof of Address "+d.Number, true)
	pdf.SetAuthor("AddressMe", true)
	pdf.SetCreationDate(d.IssuedAt)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-20)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, "Request "+d.RequestID, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 14, "Proof of Address", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 8, "Certificate "+d.Number, "", 1, "C", false, 0, "")
	pdf.Ln(12)

	rows := [][2]string{
		{"Resident", d.ResidentID},
		{"Latitude", fmt.Sprintf("%.6f", d.Latitude)},
		{"Longitude", fmt.Sprintf("%.6f", d.Longitude)},
		{"Verified by", d.VerifierID},
		{"Issued", d.IssuedAt.UTC().Format(dateLayout)},
		{"Valid until", d.ExpiresAt.UTC().Format(dateLayout)},
	}
	pdf.SetTextColor(0, 0, 0)
	for i, row := range rows {
		fill := i%2 == 0
		pdf.SetFillColor(242, 242, 242)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 9, row[0], "1", 0, "L", fill, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 9, row[1], "1", 1, "L", fill, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("certificate: layout: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("certificate: write pdf: %w", err)
	}
	return nil
}
