package services

import (
	"testing"

	"interview_booking_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportBookingsXLSX(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)
	addConfig(t, db, 1, "09:00", "12:00", 60, 1)

	in := guestBooking("2025-03-10", "10:00")
	in.ClientPhone = "+1 555 0100"
	_, err := CreateBooking(db, in)
	require.NoError(t, err)
	second, err := CreateBooking(db, guestBooking("2025-03-10", "09:00"))
	require.NoError(t, err)
	_, err = CancelBooking(db, second.ID, "Changed plans")
	require.NoError(t, err)

	buf, err := ExportBookingsXLSX(db, BookingFilters{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Bookings", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Reference", rows[0][0])
	// Ordered by interview time
	assert.Equal(t, "09:00", rows[1][2])
	assert.Equal(t, models.BookingStatusCancelled, rows[1][7])
	assert.Equal(t, "guest", rows[1][8])
	assert.Equal(t, "Changed plans", rows[1][10])
	assert.Equal(t, "+1 555 0100", rows[2][5])

	cancelled, err := f.GetCellValue("Summary", "B5")
	require.NoError(t, err)
	assert.Equal(t, "1", cancelled)

	filtered, err := ExportBookingsXLSX(db, BookingFilters{Status: models.BookingStatusPending})
	require.NoError(t, err)
	f2, err := excelize.OpenReader(filtered)
	require.NoError(t, err)
	defer f2.Close()
	rows, _ = f2.GetRows("Bookings")
	assert.Len(t, rows, 2)
}

func TestImportTimeSlotsXLSX(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)

	tmpl, err := GenerateTimeSlotImportTemplate()
	require.NoError(t, err)
	tf, err := excelize.OpenReader(tmpl)
	require.NoError(t, err)
	header, _ := tf.GetCellValue("TimeSlots", "A1")
	assert.Contains(t, header, "Date")
	tf.Close()

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Date", "Start", "End", "Capacity"},
		{"2025-03-10", "09:00", "10:00", "2"},
		{"2025-03-10", "10:00", "11:00", "1"},
		{"2025-03-10", "09:00", "10:00", "3"},
		{},
		{"2025-03-11", "11:00", "10:00", "1"},
		{"2025-03-11", "09:00", "10:00", "many"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result, err := ImportTimeSlotsXLSX(db, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Errors, 2)

	slots, err := ListTimeSlots(db, "2025-03-10", "2025-03-10")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 2, slots[0].MaxCapacity)
}
