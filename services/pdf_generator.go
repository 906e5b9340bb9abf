package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"sync"
	"time"

	"interview_booking_app_go/models"
	"interview_booking_app_go/templates"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var (
	chromePathMu sync.RWMutex
	chromePath   string
)

// ConfigurePDF sets the Chrome executable used for rendering (CHROME_PATH)
func ConfigurePDF(path string) {
	chromePathMu.Lock()
	chromePath = path
	chromePathMu.Unlock()
}

// getChromePath returns the configured Chrome path, falling back to the environment
func getChromePath() string {
	chromePathMu.RLock()
	defer chromePathMu.RUnlock()
	if chromePath != "" {
		return chromePath
	}
	return os.Getenv("CHROME_PATH")
}

// PDFOptions contains options for PDF generation
type PDFOptions struct {
	PageOrientation string // portrait, landscape
	PageSize        string // letter, A4
	MarginTop       int    // points (72 = 1 inch)
	MarginBottom    int
	MarginLeft      int
	MarginRight     int
}

// DefaultPDFOptions returns A4 portrait with half-inch margins
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageOrientation: "portrait",
		PageSize:        "A4",
		MarginTop:       36,
		MarginBottom:    36,
		MarginLeft:      36,
		MarginRight:     36,
	}
}

// paperSize returns width and height in inches
func (o PDFOptions) paperSize() (float64, float64) {
	w, h := 8.27, 11.69
	if o.PageSize == "letter" {
		w, h = 8.5, 11.0
	}
	if o.PageOrientation == "landscape" {
		w, h = h, w
	}
	return w, h
}

// GeneratePDF renders HTML content to PDF using headless Chrome
func GeneratePDF(ctx context.Context, htmlContent string, options PDFOptions) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if path := getChromePath(); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	paperWidth, paperHeight := options.paperSize()

	var pdfBuf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.Sleep(100*time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(float64(options.MarginTop) / 72.0).
				WithMarginBottom(float64(options.MarginBottom) / 72.0).
				WithMarginLeft(float64(options.MarginLeft) / 72.0).
				WithMarginRight(float64(options.MarginRight) / 72.0).
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return pdfBuf, nil
}

// bookingPDFData feeds templates/pdf/booking_confirmation.html
type bookingPDFData struct {
	BookingEmailData
	ClientEmail string
	ClientPhone string
	Notes       string
	IssuedAt    string
}

// RenderBookingConfirmationHTML renders the confirmation document for a booking
func RenderBookingConfirmationHTML(b *models.Booking) (string, error) {
	src, err := templates.PDF.ReadFile("pdf/booking_confirmation.html")
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation template: %w", err)
	}
	tmpl, err := template.New("booking_confirmation").Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("failed to parse confirmation template: %w", err)
	}

	data := bookingPDFData{
		BookingEmailData: bookingEmailData(b),
		ClientEmail:      b.ClientEmail,
		IssuedAt:         Now().Format("2006-01-02 15:04 MST"),
	}
	if b.ClientPhone != nil {
		data.ClientPhone = *b.ClientPhone
	}
	if b.Notes != nil {
		data.Notes = *b.Notes
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render confirmation template: %w", err)
	}
	return buf.String(), nil
}

// GenerateBookingConfirmationPDF renders a booking's confirmation to PDF
func GenerateBookingConfirmationPDF(ctx context.Context, b *models.Booking) ([]byte, error) {
	html, err := RenderBookingConfirmationHTML(b)
	if err != nil {
		return nil, err
	}
	return GeneratePDF(ctx, html, DefaultPDFOptions())
}
