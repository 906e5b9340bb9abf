package services

import (
	"testing"

	"interview_booking_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)

	user, err := RegisterUser(db, RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "  Ada@Example.com ",
		Password:  "Analytical1",
	}, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.FullName())

	_, err = RegisterUser(db, RegisterInput{FirstName: "A", LastName: "L", Email: "ada@example.com", Password: "Analytical1"}, models.RoleUser)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = RegisterUser(db, RegisterInput{FirstName: "A", LastName: "L", Email: "weak@example.com", Password: "weak"}, models.RoleUser)
	assert.ErrorIs(t, err, ErrInvalidInput)

	logged, err := AuthenticateUser(db, "ADA@example.com", "Analytical1")
	require.NoError(t, err)
	assert.NotNil(t, logged.LastLoginAt)

	_, err = AuthenticateUser(db, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = AuthenticateUser(db, "nobody@example.com", "Analytical1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSetUserActive(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "user@example.com", models.RoleUser)

	_, err := SetUserActive(db, admin.ID, admin.ID, false)
	assert.ErrorIs(t, err, ErrCannotModifySelf)

	updated, err := SetUserActive(db, admin.ID, user.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = AuthenticateUser(db, "user@example.com", "Sup3rSecret!pass")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestDeleteUser_CancelsUpcomingBookings(t *testing.T) {
	db := setupTestDB(t)
	useClock(t, beforeMarch10, false)
	addConfig(t, db, 1, "09:00", "10:00", 60, 1)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "user@example.com", models.RoleUser)

	in := guestBooking("2025-03-10", "09:00")
	in.UserID = &user.ID
	b, err := CreateBooking(db, in)
	require.NoError(t, err)

	assert.ErrorIs(t, DeleteUser(db, admin.ID, admin.ID), ErrCannotModifySelf)
	require.NoError(t, DeleteUser(db, admin.ID, user.ID))

	_, err = GetUserByID(db, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	cancelled, err := GetBookingByID(db, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	day, err := GetAvailableSlots(db, AvailabilityQuery{Date: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 1, day.Slots[0].AvailableSpots)
}

func TestProfileAndPassword(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "user@example.com", models.RoleUser)

	updated, err := UpdateProfile(db, user.ID, ProfileInput{FirstName: strPtr("Grace"), Phone: strPtr("+1 555 0100")})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+1 555 0100", *updated.Phone)

	assert.ErrorIs(t, ChangePassword(db, user.ID, "wrong", "NewPassw0rd"), ErrInvalidCredentials)
	assert.ErrorIs(t, ChangePassword(db, user.ID, "Sup3rSecret!pass", "short"), ErrInvalidInput)
	require.NoError(t, ChangePassword(db, user.ID, "Sup3rSecret!pass", "NewPassw0rd"))

	_, err = AuthenticateUser(db, "user@example.com", "NewPassw0rd")
	assert.NoError(t, err)
}

func TestListUsersAndRecipients(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	createTestUser(t, db, "one@example.com", models.RoleUser)
	inactive := createTestUser(t, db, "two@example.com", models.RoleUser)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	users, total, err := ListUsers(db, UserFilters{Role: models.RoleUser}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	_, total, err = ListUsers(db, UserFilters{Search: "ONE@"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	recipients, err := GetActiveRecipients(db, models.RoleUser)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "one@example.com", recipients[0].Email)
}
