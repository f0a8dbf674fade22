package service

import (
	"encoding/json"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/rva/egopass/internal/model"
)

// qrSize is the pixel edge of the generated PNG.
const qrSize = 300

// qrPayload is the JSON document encoded into the pass QR code. Gate
// scanners decode it offline, so it carries everything needed to
// identify the traveller without a database lookup.
type qrPayload struct {
	PassNumber    string `json:"passNumber"`
	PassengerName string `json:"passengerName"`
	Nationality   string `json:"nationality"`
	FlightNumber  string `json:"flightNumber"`
	FlightCompany string `json:"flightCompany"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	IssueDate     string `json:"issueDate"`
}

// EncodePassQR renders the QR PNG for a pass. Error correction is set
// to the highest level so partially damaged prints still scan.
func EncodePassQR(p *model.EGoPass) ([]byte, error) {
	body, err := json.Marshal(qrPayload{
		PassNumber:    p.PassNumber,
		PassengerName: p.Passenger.FullName(),
		Nationality:   p.Passenger.Nationality,
		FlightNumber:  p.Flight.FlightNumber,
		FlightCompany: p.Flight.FlightCompany,
		Origin:        p.Flight.Origin,
		Destination:   p.Flight.Destination,
		IssueDate:     p.IssueDate.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, &RenderError{Artifact: "qr", Err: err}
	}
	png, err := qrcode.Encode(string(body), qrcode.High, qrSize)
	if err != nil {
		return nil, &RenderError{Artifact: "qr", Err: err}
	}
	return png, nil
}
