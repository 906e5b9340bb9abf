package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking status constants
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Interview types
const (
	InterviewTypeOnline   = "online"
	InterviewTypeInPerson = "in_person"
)

// ActiveBookingStatuses are the statuses that occupy slot capacity
var ActiveBookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed}

// bookingTransitions lists the allowed next statuses for each status.
// cancelled and completed are terminal.
var bookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCancelled: {},
	BookingStatusCompleted: {},
}

// Booking is a reservation of one seat in a time slot
type Booking struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Owner (nil for guest bookings)
	UserID *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	SlotID string    `gorm:"type:uuid;index;not null" json:"slot_id"`
	Slot   *TimeSlot `gorm:"foreignKey:SlotID" json:"slot,omitempty"`

	// Client info snapshot
	ClientName  string  `gorm:"size:200;not null" json:"client_name"`
	ClientEmail string  `gorm:"size:255;not null;index" json:"client_email"`
	ClientPhone *string `gorm:"size:30" json:"client_phone,omitempty"`

	// Schedule, in the configured application timezone
	InterviewDate string `gorm:"size:10;not null;index:idx_bookings_date_time" json:"interview_date"` // YYYY-MM-DD
	InterviewTime string `gorm:"size:5;not null;index:idx_bookings_date_time" json:"interview_time"`  // HH:MM
	InterviewType string `gorm:"size:20;not null;default:online" json:"interview_type"`

	Status             string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	Notes              *string    `gorm:"type:text" json:"notes,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `gorm:"type:text" json:"cancellation_reason,omitempty"`
	ReminderSentAt     *time.Time `json:"reminder_sent_at,omitempty"`
}

// BeforeCreate hook to generate UUID
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsValidBookingStatus checks if the status is valid
func IsValidBookingStatus(status string) bool {
	_, ok := bookingTransitions[status]
	return ok
}

// IsValidInterviewType checks if the interview type is valid
func IsValidInterviewType(t string) bool {
	return t == InterviewTypeOnline || t == InterviewTypeInPerson
}

// CanTransitionBooking reports whether a booking may move from one status to another
func CanTransitionBooking(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsActive reports whether the booking occupies slot capacity
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// IsCancellable checks if the booking can be cancelled
func (b *Booking) IsCancellable() bool {
	return CanTransitionBooking(b.Status, BookingStatusCancelled)
}

// IsEditable checks if the booking can be modified
func (b *Booking) IsEditable() bool {
	return b.IsActive()
}
