package service

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"

	"github.com/rva/egopass/internal/model"
)

const pdfDateLayout = "02 Jan 2006 15:04 MST"

// RenderPassPDF produces the printable A4 receipt for a pass: title,
// the QR code, and three labelled sections for pass, passenger and
// flight details. The creation date embedded in the document is pinned
// to the pass issue date so rendering the same pass twice yields
// byte-identical output, which is what lets the stored document act as
// a cache.
func RenderPassPDF(p *model.EGoPass) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(p.IssueDate.UTC())
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 14, "E-GOPASS", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 12)
	pdf.CellFormat(0, 8, tr("Reçu Officiel - République du Cameroun"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// QR code, centered. 55mm at 300dpi is comfortably scannable.
	pageW, _ := pdf.GetPageSize()
	const qrEdge = 55.0
	pdf.RegisterImageOptionsReader("pass-qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(p.QRCodeImage))
	pdf.ImageOptions("pass-qr", (pageW-qrEdge)/2, pdf.GetY(), qrEdge, qrEdge, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetY(pdf.GetY() + qrEdge + 6)

	section(pdf, tr, "Pass Information", [][2]string{
		{"Pass Number", p.PassNumber},
		{"Issue Date", p.IssueDate.UTC().Format(pdfDateLayout)},
		{"Expiry Date", p.ExpiryDate.UTC().Format(pdfDateLayout)},
	})
	section(pdf, tr, "Passenger", [][2]string{
		{"Full Name", p.Passenger.FullName()},
		{"Nationality", p.Passenger.Nationality},
		{"Passport Number", p.Passenger.PassportNumber},
		{"Email", p.Passenger.Email},
		{"Phone", p.Passenger.Phone},
	})
	section(pdf, tr, "Flight", [][2]string{
		{"Type", p.Flight.FlightType},
		{"Company", p.Flight.FlightCompany},
		{"Flight Number", p.Flight.FlightNumber},
		{"Origin", p.Flight.Origin},
		{"Destination", p.Flight.Destination},
	})

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(96, 96, 96)
	pdf.MultiCell(0, 5, tr("Ce reçu constitue une preuve officielle de paiement de la redevance eGoPass. Il doit être présenté à l'embarquement accompagné d'une pièce d'identité valide."), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Artifact: "pdf", Err: err}
	}
	return buf.Bytes(), nil
}

// section writes a titled two-column table. Labels take 30% of the
// usable width, values the rest.
func section(pdf *gofpdf.Fpdf, tr func(string) string, title string, rows [][2]string) {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right
	labelW := usable * 0.3
	valueW := usable - labelW

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(labelW, 7, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(valueW, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}
