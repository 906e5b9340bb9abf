package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"interview_booking_app_go/models"

	"gorm.io/gorm"
)

// CreateCampaignInput describes a bulk send to persist and run
type CreateCampaignInput struct {
	TemplateID  *string
	Subject     string
	Body        string
	Recipients  []models.EmailRecipient
	BatchSize   int
	DelayMS     int
	TrackOpens  bool
	CreatedByID *string
}

// CampaignRunner runs persisted campaigns in background goroutines,
// one per campaign, and tracks them so they can be cancelled.
type CampaignRunner struct {
	db         *gorm.DB
	dispatcher *BulkEmailDispatcher

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewCampaignRunner creates a runner backed by the given dispatcher
func NewCampaignRunner(db *gorm.DB, dispatcher *BulkEmailDispatcher) *CampaignRunner {
	return &CampaignRunner{
		db:         db,
		dispatcher: dispatcher,
		running:    make(map[string]context.CancelFunc),
	}
}

// CreateCampaign validates and stores a pending campaign. When a template is
// given, its subject and body are used for any field left empty.
func CreateCampaign(db *gorm.DB, in CreateCampaignInput) (*models.EmailCampaign, error) {
	if len(in.Recipients) == 0 {
		return nil, ErrNoRecipients
	}

	if in.TemplateID != nil && *in.TemplateID != "" {
		tmpl, err := GetEmailTemplateByID(db, *in.TemplateID)
		if err != nil {
			return nil, err
		}
		if !tmpl.IsActive {
			return nil, ErrTemplateInactive
		}
		if strings.TrimSpace(in.Subject) == "" {
			in.Subject = tmpl.Subject
		}
		if strings.TrimSpace(in.Body) == "" {
			in.Body = tmpl.Body
		}
	} else {
		in.TemplateID = nil
	}

	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Body) == "" {
		return nil, fmt.Errorf("%w: subject and body are required", ErrInvalidInput)
	}

	recipients := dedupeRecipients(in.Recipients)
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	if in.BatchSize <= 0 {
		in.BatchSize = DefaultBulkBatchSize
	}
	if in.DelayMS < 0 {
		in.DelayMS = 0
	}

	campaign := &models.EmailCampaign{
		TemplateID:   in.TemplateID,
		Subject:      in.Subject,
		Body:         sanitizeEmailHTML(in.Body),
		Recipients:   recipients,
		Total:        len(recipients),
		BatchSize:    in.BatchSize,
		DelayMS:      in.DelayMS,
		TrackOpens:   in.TrackOpens,
		TotalBatches: BatchCount(len(recipients), in.BatchSize),
		Status:       models.CampaignStatusPending,
		CreatedByID:  in.CreatedByID,
	}
	if err := db.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

// dedupeRecipients drops blank and repeated addresses, keeping the first occurrence
func dedupeRecipients(in []models.EmailRecipient) []models.EmailRecipient {
	seen := make(map[string]bool, len(in))
	out := make([]models.EmailRecipient, 0, len(in))
	for _, r := range in {
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		if r.Email == "" || seen[r.Email] {
			continue
		}
		seen[r.Email] = true
		out = append(out, r)
	}
	return out
}

// GetCampaignByID returns a campaign with its recipients
func GetCampaignByID(db *gorm.DB, id string) (*models.EmailCampaign, error) {
	var campaign models.EmailCampaign
	if err := db.First(&campaign, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// IsRunning reports whether the campaign has a live goroutine in this process
func (r *CampaignRunner) IsRunning(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[id]
	return ok
}

// Start launches a campaign from its next unsent batch. Campaigns marked
// running without a live goroutine (after a restart) may be started again.
func (r *CampaignRunner) Start(id string) (*models.EmailCampaign, error) {
	campaign, err := GetCampaignByID(r.db, id)
	if err != nil {
		return nil, err
	}
	if campaign.IsFinished() {
		return nil, ErrCampaignFinished
	}

	r.mu.Lock()
	if _, ok := r.running[id]; ok {
		r.mu.Unlock()
		return nil, ErrCampaignRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.running[id] = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	now := time.Now()
	updates := map[string]interface{}{"status": models.CampaignStatusRunning}
	if campaign.StartedAt == nil {
		updates["started_at"] = now
		campaign.StartedAt = &now
	}
	if err := r.db.Model(campaign).Updates(updates).Error; err != nil {
		r.release(id)
		cancel()
		r.wg.Done()
		return nil, fmt.Errorf("failed to start campaign: %w", err)
	}
	campaign.Status = models.CampaignStatusRunning

	go r.run(ctx, *campaign)
	return campaign, nil
}

// Resume restarts a paused campaign. It is Start under the name the API exposes.
func (r *CampaignRunner) Resume(id string) (*models.EmailCampaign, error) {
	return r.Start(id)
}

// Cancel stops a campaign. A running campaign stops before its next batch.
func (r *CampaignRunner) Cancel(id string) (*models.EmailCampaign, error) {
	campaign, err := GetCampaignByID(r.db, id)
	if err != nil {
		return nil, err
	}
	if campaign.IsFinished() {
		return nil, ErrCampaignFinished
	}

	now := time.Now()
	if err := r.db.Model(campaign).Updates(map[string]interface{}{
		"status":      models.CampaignStatusCancelled,
		"finished_at": now,
	}).Error; err != nil {
		return nil, err
	}

	r.mu.Lock()
	cancel, ok := r.running[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}

	campaign.Status = models.CampaignStatusCancelled
	campaign.FinishedAt = &now
	return campaign, nil
}

// ResumeInterrupted restarts campaigns a previous process left running
func (r *CampaignRunner) ResumeInterrupted() int {
	var ids []string
	if err := r.db.Model(&models.EmailCampaign{}).
		Where("status = ?", models.CampaignStatusRunning).
		Pluck("id", &ids).Error; err != nil {
		slog.Error("failed to list interrupted campaigns", "error", err)
		return 0
	}

	resumed := 0
	for _, id := range ids {
		if r.IsRunning(id) {
			continue
		}
		if _, err := r.Start(id); err != nil {
			slog.Error("failed to resume campaign", "campaign_id", id, "error", err)
			continue
		}
		resumed++
	}
	if resumed > 0 {
		slog.Info("resumed interrupted campaigns", "count", resumed)
	}
	return resumed
}

// Wait blocks until all campaign goroutines have returned
func (r *CampaignRunner) Wait() {
	r.wg.Wait()
}

// Shutdown stops every running campaign between batches. Their status stays
// running so ResumeInterrupted picks them up on the next start.
// It returns when the goroutines exit or ctx ends.
func (r *CampaignRunner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	for _, cancel := range r.running {
		cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (r *CampaignRunner) release(id string) {
	r.mu.Lock()
	delete(r.running, id)
	r.mu.Unlock()
}

func (r *CampaignRunner) run(ctx context.Context, campaign models.EmailCampaign) {
	defer r.wg.Done()
	defer r.release(campaign.ID)

	logger := slog.With("campaign_id", campaign.ID)
	logger.Info("campaign started", "recipients", campaign.Total, "next_batch", campaign.NextBatch)

	result, err := r.dispatcher.Dispatch(ctx, BulkEmailRequest{
		Subject:    campaign.Subject,
		Body:       campaign.Body,
		Recipients: campaign.Recipients,
		TemplateID: campaign.TemplateID,
		CampaignID: &campaign.ID,
	}, BulkEmailOptions{
		BatchSize:           campaign.BatchSize,
		DelayBetweenBatches: time.Duration(campaign.DelayMS) * time.Millisecond,
		TrackOpens:          campaign.TrackOpens,
		StartBatch:          campaign.NextBatch,
		OnBatchComplete: func(batch, sent, failed int) {
			err := r.db.Model(&models.EmailCampaign{}).
				Where("id = ?", campaign.ID).
				Updates(map[string]interface{}{
					"next_batch":   batch + 1,
					"sent_count":   gorm.Expr("sent_count + ?", sent),
					"failed_count": gorm.Expr("failed_count + ?", failed),
				}).Error
			if err != nil {
				logger.Error("failed to persist campaign progress", "batch", batch, "error", err)
			}
		},
	})

	switch {
	case err == nil:
		now := time.Now()
		err := r.db.Model(&models.EmailCampaign{}).
			Where("id = ? AND status = ?", campaign.ID, models.CampaignStatusRunning).
			Updates(map[string]interface{}{
				"status":      models.CampaignStatusCompleted,
				"finished_at": now,
			}).Error
		if err != nil {
			logger.Error("failed to mark campaign completed", "error", err)
		}
		logger.Info("campaign completed", "sent", len(result.Sent), "failed", len(result.Failed))

	case errors.Is(err, context.Canceled):
		// Cancel already wrote cancelled; a shutdown leaves the row running
		logger.Info("campaign stopped", "completed_batches", result.CompletedBatches)

	default:
		logger.Error("campaign failed", "error", err)
		if err := r.db.Model(&models.EmailCampaign{}).
			Where("id = ? AND status = ?", campaign.ID, models.CampaignStatusRunning).
			Update("status", models.CampaignStatusPaused).Error; err != nil {
			logger.Error("failed to mark campaign paused", "error", err)
		}
	}
}
