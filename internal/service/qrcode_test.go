package service

import (
	"bytes"
	"encoding/json"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rva/egopass/internal/model"
)

func testPass() *model.EGoPass {
	return &model.EGoPass{
		PassNumber:    "EGP-1234ABCD56",
		ReservationID: 1,
		Passenger:     validPassenger(),
		Flight:        validFlight(),
		IssueDate:     time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		ExpiryDate:    time.Date(2026, 8, 4, 9, 30, 0, 0, time.UTC),
	}
}

func TestEncodePassQR(t *testing.T) {
	p := testPass()
	data, err := EncodePassQR(p)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestQRPayloadShape(t *testing.T) {
	p := testPass()
	body, err := json.Marshal(qrPayload{
		PassNumber:    p.PassNumber,
		PassengerName: p.Passenger.FullName(),
		Nationality:   p.Passenger.Nationality,
		FlightNumber:  p.Flight.FlightNumber,
		FlightCompany: p.Flight.FlightCompany,
		Origin:        p.Flight.Origin,
		Destination:   p.Flight.Destination,
		IssueDate:     p.IssueDate.Format(time.RFC3339),
	})
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "EGP-1234ABCD56", decoded["passNumber"])
	assert.Equal(t, "Amina Nkoulou", decoded["passengerName"])
	assert.Equal(t, "QC204", decoded["flightNumber"])
	assert.Equal(t, "2026-08-01T09:30:00Z", decoded["issueDate"])
}
