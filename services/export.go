package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"interview_booking_app_go/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// MaxExportRows caps a single bookings export
const MaxExportRows = 10000

var bookingExportHeaders = []string{
	"Reference", "Date", "Time", "Candidate", "Email", "Phone",
	"Type", "Status", "Account", "Notes", "Cancellation reason", "Created at",
}

// ExportBookingsXLSX writes the filtered bookings to a workbook with a
// Bookings sheet and a per-status Summary sheet
func ExportBookingsXLSX(db *gorm.DB, filters BookingFilters) (*bytes.Buffer, error) {
	var bookings []models.Booking
	if err := filteredBookings(db, filters).
		Preload("User").
		Order("interview_date asc, interview_time asc").
		Limit(MaxExportRows).
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F2937"}, Pattern: 1},
	})
	for i, h := range bookingExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(bookingExportHeaders))
	f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "B", "C", 12)
	f.SetColWidth(sheet, "D", "E", 28)
	f.SetColWidth(sheet, "F", lastCol, 16)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	counts := map[string]int{}
	for i, b := range bookings {
		row := i + 2
		account := "guest"
		if b.User != nil {
			account = b.User.Email
		}
		values := []interface{}{
			b.ID,
			b.InterviewDate,
			b.InterviewTime,
			b.ClientName,
			b.ClientEmail,
			derefString(b.ClientPhone),
			b.InterviewType,
			b.Status,
			account,
			derefString(b.Notes),
			derefString(b.CancellationReason),
			b.CreatedAt.In(Location()).Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		counts[b.Status]++
	}
	if len(bookings) > 0 {
		f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, len(bookings)+1), nil)
	}

	const summary = "Summary"
	f.NewSheet(summary)
	f.SetCellValue(summary, "A1", "Status")
	f.SetCellValue(summary, "B1", "Bookings")
	f.SetCellStyle(summary, "A1", "B1", headerStyle)
	row := 2
	for _, status := range []string{models.BookingStatusPending, models.BookingStatusConfirmed, models.BookingStatusCompleted, models.BookingStatusCancelled} {
		f.SetCellValue(summary, fmt.Sprintf("A%d", row), status)
		f.SetCellValue(summary, fmt.Sprintf("B%d", row), counts[status])
		row++
	}
	f.SetCellValue(summary, fmt.Sprintf("A%d", row), "total")
	f.SetCellFormula(summary, fmt.Sprintf("B%d", row), fmt.Sprintf("SUM(B2:B%d)", row-1))
	f.SetColWidth(summary, "A", "B", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// TimeSlotImportResult summarizes a spreadsheet slot import
type TimeSlotImportResult struct {
	TotalProcessed int      `json:"total_processed"`
	Created        int      `json:"created"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
}

// GenerateTimeSlotImportTemplate returns an empty workbook with the import columns
func GenerateTimeSlotImportTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "TimeSlots"
	f.SetSheetName("Sheet1", sheet)
	header := []interface{}{"Date (YYYY-MM-DD)*", "Start (HH:MM)*", "End (HH:MM)*", "Capacity*"}
	example := []interface{}{Today(), "09:00", "10:00", 1}
	f.SetSheetRow(sheet, "A1", &header)
	f.SetSheetRow(sheet, "A2", &example)
	f.SetColWidth(sheet, "A", "D", 20)

	return f.WriteToBuffer()
}

// ImportTimeSlotsXLSX creates explicit slots from the first sheet of a
// workbook. Rows that fail validation are reported and skipped; a slot that
// already exists is skipped silently.
func ImportTimeSlotsXLSX(db *gorm.DB, r io.Reader) (*TimeSlotImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid xlsx file", ErrInvalidInput)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidInput)
	}

	active := true
	result := &TimeSlotImportResult{Errors: []string{}}
	for i, row := range rows[1:] {
		line := i + 2
		if isBlankRow(row) {
			continue
		}
		result.TotalProcessed++

		if len(row) < 4 {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: expected 4 columns", line))
			continue
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: capacity must be a number", line))
			continue
		}

		_, err = CreateTimeSlot(db, TimeSlotInput{
			Date:        strings.TrimSpace(row[0]),
			StartTime:   strings.TrimSpace(row[1]),
			EndTime:     strings.TrimSpace(row[2]),
			MaxCapacity: capacity,
			IsActive:    &active,
		})
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, ErrSlotExists):
			result.Skipped++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
		}
	}
	return result, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
