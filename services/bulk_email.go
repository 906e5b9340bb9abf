package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"interview_booking_app_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bulk send defaults
const (
	DefaultBulkBatchSize = 50
	DefaultBulkDelay     = time.Second

	bulkSendTimeout = 30 * time.Second
)

// BulkEmailRequest is the content and audience of one bulk send
type BulkEmailRequest struct {
	Subject    string
	Body       string
	Recipients []models.EmailRecipient
	TemplateID *string
	CampaignID *string
}

// BulkEmailOptions controls batching. Zero values fall back to the defaults.
type BulkEmailOptions struct {
	BatchSize           int
	DelayBetweenBatches time.Duration
	TrackOpens          bool

	// StartBatch skips batches already delivered by an earlier run
	StartBatch int

	// OnBatchComplete is called after each batch with its index and outcome
	OnBatchComplete func(batch int, sent, failed int)
}

// FailedRecipient pairs a recipient with its delivery error
type FailedRecipient struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

// BulkEmailResult summarizes a bulk send
type BulkEmailResult struct {
	Sent             []string          `json:"sent"`
	Failed           []FailedRecipient `json:"failed"`
	Batches          int               `json:"batches"`
	CompletedBatches int               `json:"completed_batches"`
}

// BulkEmailDispatcher delivers personalized emails in throttled batches
type BulkEmailDispatcher struct {
	db      *gorm.DB
	mailer  Mailer
	baseURL string

	// sleep waits between batches; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBulkEmailDispatcher creates a dispatcher. A nil mailer uses the process mailer.
func NewBulkEmailDispatcher(db *gorm.DB, mailer Mailer, baseURL string) *BulkEmailDispatcher {
	if mailer == nil {
		mailer = currentMailer()
	}
	return &BulkEmailDispatcher{
		db:      db,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BatchCount returns how many batches n recipients split into
func BatchCount(n, batchSize int) int {
	if batchSize <= 0 {
		batchSize = DefaultBulkBatchSize
	}
	return (n + batchSize - 1) / batchSize
}

// Dispatch sends the request batch by batch. Sends within a batch run
// concurrently and a failed recipient never aborts the run. The pause is
// taken between batches only. Cancelling ctx stops before the next batch
// and returns the partial result together with ctx.Err(); a batch already
// started always finishes, so CompletedBatches only counts whole batches.
func (d *BulkEmailDispatcher) Dispatch(ctx context.Context, req BulkEmailRequest, opts BulkEmailOptions) (*BulkEmailResult, error) {
	if len(req.Recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("%w: subject and body are required", ErrInvalidInput)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBulkBatchSize
	}
	if opts.DelayBetweenBatches < 0 {
		opts.DelayBetweenBatches = 0
	}

	result := &BulkEmailResult{
		Sent:    []string{},
		Failed:  []FailedRecipient{},
		Batches: BatchCount(len(req.Recipients), opts.BatchSize),
	}
	if opts.StartBatch < 0 || opts.StartBatch > result.Batches {
		return nil, fmt.Errorf("%w: start batch out of range", ErrInvalidInput)
	}
	result.CompletedBatches = opts.StartBatch

	for batch := opts.StartBatch; batch < result.Batches; batch++ {
		if batch > opts.StartBatch {
			if err := d.sleep(ctx, opts.DelayBetweenBatches); err != nil {
				return result, err
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := batch * opts.BatchSize
		end := start + opts.BatchSize
		if end > len(req.Recipients) {
			end = len(req.Recipients)
		}

		sent, failed := d.sendBatch(ctx, req, req.Recipients[start:end], opts.TrackOpens)
		result.Sent = append(result.Sent, sent...)
		result.Failed = append(result.Failed, failed...)
		result.CompletedBatches = batch + 1

		slog.Info("bulk email batch complete",
			"batch", batch+1,
			"batches", result.Batches,
			"sent", len(sent),
			"failed", len(failed),
		)
		if opts.OnBatchComplete != nil {
			opts.OnBatchComplete(batch, len(sent), len(failed))
		}
	}

	return result, nil
}

type sendOutcome struct {
	email string
	err   error
}

func (d *BulkEmailDispatcher) sendBatch(ctx context.Context, req BulkEmailRequest, batch []models.EmailRecipient, trackOpens bool) ([]string, []FailedRecipient) {
	outcomes := make([]sendOutcome, len(batch))
	// cancellation applies between batches, not to sends in flight
	sendCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i, r := range batch {
		wg.Add(1)
		go func(i int, r models.EmailRecipient) {
			defer wg.Done()
			outcomes[i] = sendOutcome{email: r.Email, err: d.sendOne(sendCtx, req, r, trackOpens)}
		}(i, r)
	}
	wg.Wait()

	sent := make([]string, 0, len(batch))
	var failed []FailedRecipient
	for _, o := range outcomes {
		if o.err != nil {
			failed = append(failed, FailedRecipient{Recipient: o.email, Error: o.err.Error()})
			continue
		}
		sent = append(sent, o.email)
	}
	return sent, failed
}

func (d *BulkEmailDispatcher) sendOne(ctx context.Context, req BulkEmailRequest, r models.EmailRecipient, trackOpens bool) error {
	logID := uuid.New().String()
	vars := RecipientVariables(r.Email, r.FirstName, r.LastName, r.Variables)

	subject := RenderVariables(req.Subject, vars, false)
	body := RenderVariables(req.Body, vars, true)
	if trackOpens {
		body = appendTrackingPixel(body, d.baseURL+"/api/emails/track/"+logID)
	}

	var err error
	if strings.TrimSpace(r.Email) == "" {
		err = fmt.Errorf("recipient has no email address")
	} else {
		sendCtx, cancel := context.WithTimeout(ctx, bulkSendTimeout)
		err = d.mailer.Send(sendCtx, &Email{To: []string{r.Email}, Subject: subject, HTMLBody: body})
		cancel()
	}

	if d.db != nil {
		RecordEmailLog(d.db, emailLogEntry{
			ID:          logID,
			TemplateID:  req.TemplateID,
			CampaignID:  req.CampaignID,
			RecipientID: optionalString(r.UserID),
			Email:       r.Email,
			Subject:     subject,
			Err:         err,
		})
	}
	return err
}
