package services

import (
	"context"
	"testing"

	"interview_booking_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEmailTemplateCRUD(t *testing.T) {
	db := setupTestDB(t)

	tmpl, err := CreateEmailTemplate(db, EmailTemplateInput{
		Name:    "  Interview invite ",
		Subject: "Hi {{firstName}}",
		Body:    `<p onclick="steal()">Dear {{fullName}}, see {{link}}</p><script>x()</script>`,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Interview invite", tmpl.Name)
	assert.True(t, tmpl.IsActive)
	assert.Equal(t, "<p>Dear {{fullName}}, see {{link}}</p>", tmpl.Body)
	assert.Equal(t, []string{"firstName", "fullName", "link"}, tmpl.Variables)

	_, err = CreateEmailTemplate(db, EmailTemplateInput{Name: "Interview invite", Subject: "s", Body: "b"}, nil)
	assert.ErrorIs(t, err, ErrTemplateNameTaken)

	_, err = CreateEmailTemplate(db, EmailTemplateInput{Name: "Empty", Subject: "s"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	other, err := CreateEmailTemplate(db, EmailTemplateInput{Name: "Other", Subject: "s", Body: "b"}, nil)
	require.NoError(t, err)

	_, err = UpdateEmailTemplate(db, other.ID, EmailTemplateInput{Name: "Interview invite", Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrTemplateNameTaken)

	off := false
	updated, err := UpdateEmailTemplate(db, other.ID, EmailTemplateInput{Name: "Other", Subject: "New {{email}}", Body: "b", IsActive: &off})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []string{"email"}, updated.Variables)

	active, err := GetEmailTemplates(db, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, tmpl.ID, active[0].ID)

	all, err := GetEmailTemplates(db, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, DeleteEmailTemplate(db, other.ID))
	assert.ErrorIs(t, DeleteEmailTemplate(db, other.ID), ErrTemplateNotFound)
	_, err = GetEmailTemplateByID(db, other.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestSendTemplateTo(t *testing.T) {
	db := setupTestDB(t)
	m := new(MockMailer)
	var sent *Email
	m.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*Email) }).
		Return(nil)
	useMailer(t, m)

	tmpl, err := CreateEmailTemplate(db, EmailTemplateInput{Name: "Test", Subject: "Hi {{firstName}}", Body: "<p>{{lastName}}</p>"}, nil)
	require.NoError(t, err)

	err = SendTemplateTo(context.Background(), db, tmpl.ID, models.EmailRecipient{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, "Hi Ada", sent.Subject)
	assert.Equal(t, "<p>Lovelace</p>", sent.HTMLBody)

	logs, total, err := ListEmailLogs(db, EmailLogFilters{TemplateID: tmpl.ID}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "ada@example.com", logs[0].RecipientEmail)

	assert.ErrorIs(t, SendTemplateTo(context.Background(), db, "missing", models.EmailRecipient{Email: "a@example.com"}), ErrTemplateNotFound)
}

func TestEmailStatistics(t *testing.T) {
	db := setupTestDB(t)
	for _, status := range []string{models.EmailStatusSent, models.EmailStatusSent, models.EmailStatusOpened, models.EmailStatusFailed} {
		require.NoError(t, db.Create(&models.EmailLog{RecipientEmail: "x@example.com", Status: status}).Error)
	}

	stats, err := GetEmailStatistics(db)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Sent)
	assert.Equal(t, int64(1), stats.Opened)
	assert.Equal(t, int64(1), stats.Failed)
	assert.InDelta(t, 1.0/3.0, stats.OpenRate, 0.0001)
	assert.Equal(t, int64(4), stats.Last7Days)

	_, total, err := ListEmailLogs(db, EmailLogFilters{Status: models.EmailStatusSent}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
