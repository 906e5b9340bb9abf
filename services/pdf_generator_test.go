package services

import (
	"context"
	"os"
	"testing"
	"time"

	"interview_booking_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPDFOptions(t *testing.T) {
	opts := DefaultPDFOptions()
	assert.Equal(t, "portrait", opts.PageOrientation)
	assert.Equal(t, "A4", opts.PageSize)
	assert.Equal(t, 36, opts.MarginTop)

	w, h := opts.paperSize()
	assert.InDelta(t, 8.27, w, 0.001)
	assert.InDelta(t, 11.69, h, 0.001)

	opts.PageSize = "letter"
	opts.PageOrientation = "landscape"
	w, h = opts.paperSize()
	assert.Equal(t, 11.0, w)
	assert.Equal(t, 8.5, h)
}

func TestRenderBookingConfirmationHTML(t *testing.T) {
	useClock(t, beforeMarch10, false)
	b := &models.Booking{
		ID:            "b-42",
		ClientName:    "Jane <Candidate>",
		ClientEmail:   "jane@example.com",
		ClientPhone:   strPtr("+1 555 0100"),
		InterviewDate: "2025-03-10",
		InterviewTime: "09:00",
		InterviewType: models.InterviewTypeOnline,
		Status:        models.BookingStatusConfirmed,
	}

	html, err := RenderBookingConfirmationHTML(b)
	require.NoError(t, err)
	assert.Contains(t, html, "Reference b-42")
	assert.Contains(t, html, "Jane &lt;Candidate&gt;")
	assert.Contains(t, html, "Monday, March 10, 2025")
	assert.Contains(t, html, "+1 555 0100")
	assert.NotContains(t, html, "Notes")
}

func TestGeneratePDFSmoke(t *testing.T) {
	if os.Getenv("CHROME_PATH") == "" {
		t.Skip("Skipping PDF generation test: CHROME_PATH not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pdf, err := GenerateBookingConfirmationPDF(ctx, &models.Booking{
		ID:            "b-1",
		ClientName:    "Jane",
		ClientEmail:   "jane@example.com",
		InterviewDate: "2025-03-10",
		InterviewTime: "09:00",
		InterviewType: models.InterviewTypeOnline,
		Status:        models.BookingStatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
