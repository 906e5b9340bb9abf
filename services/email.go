package services

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"interview_booking_app_go/config"
	"interview_booking_app_go/templates"

	"github.com/resend/resend-go/v2"
	"gopkg.in/gomail.v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers a single email
type Mailer interface {
	Send(ctx context.Context, email *Email) error
}

// Mail is the process-wide mailer, set by InitMailer at startup
var Mail Mailer

// appURL prefixes links in system emails
var appURL string

// InitMailer selects the mailer from configuration
func InitMailer(cfg *config.Config) {
	Mail = NewMailer(cfg)
	appURL = strings.TrimRight(cfg.AppURL, "/")
}

// NewMailer returns the console mailer in test mode, otherwise SMTP or Resend by EMAIL_PROVIDER
func NewMailer(cfg *config.Config) Mailer {
	from := fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom)

	if cfg.EmailTestMode {
		return ConsoleMailer{}
	}
	if cfg.EmailProvider == "smtp" {
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPUseTLS, from)
	}
	return NewResendMailer(cfg.ResendAPIKey, from)
}

func currentMailer() Mailer {
	if Mail == nil {
		return ConsoleMailer{}
	}
	return Mail
}

// SendEmail delivers an email through the configured mailer
func SendEmail(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}
	return currentMailer().Send(ctx, email)
}

// SendEmailAsync sends an email in a goroutine so handlers never wait on delivery.
// onDone, when set, receives the delivery result.
func SendEmailAsync(email *Email, onDone func(error)) {
	// Copy to avoid races with the caller
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(email *Email) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := SendEmail(ctx, email)
		if err != nil {
			slog.Error("async email failed", "to", email.To, "subject", email.Subject, "error", err)
		}
		if onDone != nil {
			onDone(err)
		}
	}(emailCopy)
}

// ResendMailer sends through the Resend API
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) Send(ctx context.Context, email *Email) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	slog.Debug("email sent via Resend", "id", sent.Id, "to", email.To)
	return nil
}

// SMTPMailer sends through an SMTP relay
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password string, useTLS bool, from string) *SMTPMailer {
	d := gomail.NewDialer(host, port, username, password)
	d.SSL = useTLS
	return &SMTPMailer{dialer: d, from: from}
}

func (m *SMTPMailer) Send(ctx context.Context, email *Email) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	switch {
	case email.TextBody != "" && email.HTMLBody != "":
		msg.SetBody("text/plain", email.TextBody)
		msg.AddAlternative("text/html", email.HTMLBody)
	case email.HTMLBody != "":
		msg.SetBody("text/html", email.HTMLBody)
	default:
		msg.SetBody("text/plain", email.TextBody)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email via SMTP: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConsoleMailer logs emails instead of sending them (EMAIL_TEST_MODE)
type ConsoleMailer struct{}

func (ConsoleMailer) Send(_ context.Context, email *Email) error {
	slog.Info("email logged (test mode, not sent)",
		"to", email.To,
		"subject", email.Subject,
		"text", truncate(email.TextBody, 500),
	)
	return nil
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// loadTemplate renders the embedded templates/emails/<name>.html and .txt
func loadTemplate(templateName string, data interface{}) (html string, text string, err error) {
	htmlSrc, err := templates.Emails.ReadFile("emails/" + templateName + ".html")
	if err != nil {
		return "", "", fmt.Errorf("failed to read template %s.html: %w", templateName, err)
	}
	textSrc, err := templates.Emails.ReadFile("emails/" + templateName + ".txt")
	if err != nil {
		return "", "", fmt.Errorf("failed to read template %s.txt: %w", templateName, err)
	}

	htmlTmpl, err := htmltemplate.New(templateName).Parse(string(htmlSrc))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s.html: %w", templateName, err)
	}
	var hb bytes.Buffer
	if err := htmlTmpl.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s.html: %w", templateName, err)
	}

	textTmpl, err := texttemplate.New(templateName).Parse(string(textSrc))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s.txt: %w", templateName, err)
	}
	var tb bytes.Buffer
	if err := textTmpl.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s.txt: %w", templateName, err)
	}

	return hb.String(), tb.String(), nil
}

func buildEmail(templateName string, data interface{}, to, subject string) (*Email, error) {
	html, text, err := loadTemplate(templateName, data)
	if err != nil {
		return nil, err
	}
	return &Email{To: []string{to}, Subject: subject, HTMLBody: html, TextBody: text}, nil
}

// WelcomeEmailData contains data for the welcome email template
type WelcomeEmailData struct {
	UserName string
	LoginURL string
	AppName  string
}

// BuildWelcomeEmail creates a welcome email for new users
func BuildWelcomeEmail(userEmail, userName string) (*Email, error) {
	data := WelcomeEmailData{UserName: userName, LoginURL: appURL, AppName: "Interview Booking"}
	return buildEmail("welcome", data, userEmail, "Welcome to Interview Booking")
}

// PasswordResetEmailData contains data for the password reset template
type PasswordResetEmailData struct {
	UserName  string
	ResetLink string
	ExpiresAt string
	AppName   string
}

// BuildPasswordResetEmail creates the email carrying a reset link
func BuildPasswordResetEmail(userEmail, userName, token string, expiresAt time.Time) (*Email, error) {
	data := PasswordResetEmailData{
		UserName:  userName,
		ResetLink: strings.TrimRight(appURL, "/") + "/reset-password?token=" + url.QueryEscape(token),
		ExpiresAt: expiresAt.In(Location()).Format("January 2, 2006 at 3:04 PM MST"),
		AppName:   "Interview Booking",
	}
	return buildEmail("password_reset", data, userEmail, "Reset your password")
}
