package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"

	"newsdesk/portal/internal/email"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/storage"
	"newsdesk/portal/internal/utils"
)

// HandleEmailDeliveryTask renders a template and sends it.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email task without recipient: %w", asynq.SkipRetry)
	}

	locale := payload.Locale
	if locale == "" {
		locale = services.DefaultLocale
	}

	tmpl, err := p.templates.GetTemplate(ctx, payload.TemplateID, locale)
	if err != nil {
		logger.L().Errorw("Email template lookup failed", "template_id", payload.TemplateID, "locale", locale, "error", err)
		return fmt.Errorf("email template %s/%s not available: %w", payload.TemplateID, locale, asynq.SkipRetry)
	}

	data := make(map[string]interface{}, len(payload.Data)+1)
	data["appName"] = p.cfg.AppName
	for k, v := range payload.Data {
		data[k] = v
	}
	subject, body, err := email.Render(tmpl, data)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	from := p.cfg.SmtpFromAddress
	if from == "" {
		from = "noreply@example.com"
	}
	raw := email.BuildMessage(from, payload.To, subject, body, p.now())

	if err := p.emailSender.Send(ctx, []string{payload.To}, subject, raw); err != nil {
		logger.L().Warnw("Email delivery failed, will retry", "to", payload.To, "template_id", payload.TemplateID, "error", err)
		return err
	}

	logger.L().Infow("Email delivered", "to", payload.To, "template_id", payload.TemplateID)
	return nil
}

// HandleImageProcessTask normalises an uploaded image and records it on its owner.
// Images larger than the configured dimension are scaled down and re-encoded as JPEG
// in place.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	targetID, err := utils.ParseSixID(payload.TargetID)
	if err != nil {
		return fmt.Errorf("invalid target id %q: %w", payload.TargetID, asynq.SkipRetry)
	}
	if !strings.HasPrefix(payload.S3Key, "uploads/") {
		return fmt.Errorf("unexpected object key %q: %w", payload.S3Key, asynq.SkipRetry)
	}

	var setImage func(ctx context.Context, key string) error
	switch payload.Target {
	case ImageTargetNewspaper, ImageTargetBooklet:
		kind := models.CatalogKind(payload.Target)
		setImage = func(ctx context.Context, key string) error { return p.catalog.SetImage(ctx, kind, targetID, key) }
	case ImageTargetAgent:
		setImage = func(ctx context.Context, key string) error { return p.agents.SetImage(ctx, targetID, key) }
	default:
		return fmt.Errorf("unknown image target %q: %w", payload.Target, asynq.SkipRetry)
	}

	data, contentType, err := p.storage.GetObject(ctx, payload.S3Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("image %s not uploaded: %w", payload.S3Key, asynq.SkipRetry)
		}
		return err
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(data)) > maxSizeBytes {
		return fmt.Errorf("image %s exceeds %d bytes: %w", payload.S3Key, maxSizeBytes, asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unsupported or corrupt image %s: %w", payload.S3Key, asynq.SkipRetry)
	}

	maxDim := uint(p.cfg.ImageMaxDimension)
	bounds := img.Bounds()
	if uint(bounds.Dx()) > maxDim || uint(bounds.Dy()) > maxDim {
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode image %s: %w", payload.S3Key, err)
		}
		if int64(buf.Len()) > maxSizeBytes {
			return fmt.Errorf("resized image %s still exceeds %d bytes: %w", payload.S3Key, maxSizeBytes, asynq.SkipRetry)
		}
		if err := p.storage.PutObject(ctx, payload.S3Key, buf.Bytes(), "image/jpeg"); err != nil {
			return err
		}
		logger.L().Infow("Resized image",
			"key", payload.S3Key, "format", format,
			"from", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
			"to", fmt.Sprintf("%dx%d", resized.Bounds().Dx(), resized.Bounds().Dy()))
	} else {
		logger.L().Debugw("Image within limits", "key", payload.S3Key, "format", format, "content_type", contentType)
	}

	if err := setImage(ctx, payload.S3Key); err != nil {
		if services.IsNotFound(err) {
			return fmt.Errorf("%s %s no longer exists: %w", payload.Target, targetID, asynq.SkipRetry)
		}
		return err
	}
	logger.L().Infow("Image processed", "key", payload.S3Key, "target", payload.Target, "target_id", targetID)
	return nil
}

// previousMonth returns the calendar month before now.
func previousMonth(now time.Time) (year, month int) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}

// HandleBillingGenerateTask generates monthly bills for one agent or for every
// approved agent. Generation is idempotent, so a retry after a partial failure
// only touches what is still open.
func (p *TaskProcessor) HandleBillingGenerateTask(ctx context.Context, t *asynq.Task) error {
	var payload BillingGeneratePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal billing task payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	year, month := payload.Year, payload.Month
	if year == 0 {
		year, month = previousMonth(p.now().UTC())
	}

	var agentIDs []utils.SixID
	if payload.AgentID != "" {
		id, err := utils.ParseSixID(payload.AgentID)
		if err != nil {
			return fmt.Errorf("invalid agent id %q: %w", payload.AgentID, asynq.SkipRetry)
		}
		agentIDs = []utils.SixID{id}
	} else {
		ids, err := p.agents.ApprovedIDs(ctx)
		if err != nil {
			return err
		}
		agentIDs = ids
	}

	logger.L().Infow("Starting bill generation", "agents", len(agentIDs), "year", year, "month", month)
	var failed int
	var total services.GenerateResult
	for _, agentID := range agentIDs {
		res, err := p.billing.GenerateMonthlyBills(ctx, agentID, year, month)
		if err != nil {
			if errors.Is(err, services.ErrValidation) {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			logger.L().Errorw("Bill generation failed", "agent_id", agentID, "error", err)
			failed++
			continue
		}
		total.Created += res.Created
		total.Updated += res.Updated
		total.Skipped += res.Skipped
	}

	logger.L().Infow("Bill generation finished",
		"created", total.Created, "updated", total.Updated, "skipped", total.Skipped, "failed_agents", failed)
	if failed > 0 {
		return fmt.Errorf("bill generation failed for %d of %d agents", failed, len(agentIDs))
	}
	return nil
}
