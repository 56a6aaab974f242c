package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/models"
)

// DefaultLocale is used when a notification does not name one.
const DefaultLocale = "en-IN"

// Built-in templates, used when the database has no override.
var defaultEmailTemplates = map[string]models.EmailTemplate{
	models.TemplateAgentApproved: {
		TemplateID: models.TemplateAgentApproved,
		Subject:    "Your {{.appName}} agency account is approved",
		Body:       "Hello {{.name}},\n\n{{.agency}} can now sign in and start managing customers.\n",
	},
	models.TemplateAgentRejected: {
		TemplateID: models.TemplateAgentRejected,
		Subject:    "Your {{.appName}} agency application",
		Body:       "Hello {{.name}},\n\nWe could not approve {{.agency}} at this time. Please contact support.\n",
	},
	models.TemplatePayRequestAccepted: {
		TemplateID: models.TemplatePayRequestAccepted,
		Subject:    "Payment of {{.amount}} received",
		Body:       "Hello {{.name}},\n\nYour agent confirmed payment of {{.amount}} for bill {{.billId}}.\n",
	},
	models.TemplatePayRequestRejected: {
		TemplateID: models.TemplatePayRequestRejected,
		Subject:    "Payment request not confirmed",
		Body:       "Hello {{.name}},\n\nYour agent could not confirm the payment of {{.amount}} for bill {{.billId}}. The bill is still open.\n",
	},
	models.TemplateBillGenerated: {
		TemplateID: models.TemplateBillGenerated,
		Subject:    "Your bill for {{.period}}",
		Body:       "Hello {{.name}},\n\nYour bill for {{.period}} is {{.currency}} {{.amount}}.\n",
	},
}

// IEmailTemplateService defines the interface for email template operations.
type IEmailTemplateService interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
	SaveTemplate(ctx context.Context, tmpl *models.EmailTemplate) error
	DeleteTemplate(ctx context.Context, templateID, locale string) error
	ListTemplates(ctx context.Context) ([]models.EmailTemplate, error)
}

// EmailTemplateService handles operations related to email templates.
type EmailTemplateService struct {
	db *mongo.Database
}

// NewEmailTemplateService creates a new instance of EmailTemplateService.
func NewEmailTemplateService(db *mongo.Database) *EmailTemplateService {
	return &EmailTemplateService{db: db}
}

func (s *EmailTemplateService) coll() *mongo.Collection {
	return s.db.Collection(db.EmailTemplatesCollection)
}

// GetTemplate retrieves a template by ID and locale, falling back to the built-in default.
func (s *EmailTemplateService) GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	var tmpl models.EmailTemplate
	err := s.coll().FindOne(ctx, bson.M{"templateId": templateID, "locale": locale}).Decode(&tmpl)
	if err == nil {
		return &tmpl, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error retrieving template: %w", err)
	}
	if def, ok := defaultEmailTemplates[templateID]; ok {
		def.Locale = locale
		return &def, nil
	}
	return nil, fmt.Errorf("template not found: %s (locale: %s): %w", templateID, locale, mongo.ErrNoDocuments)
}

// SaveTemplate upserts a template keyed by ID and locale.
func (s *EmailTemplateService) SaveTemplate(ctx context.Context, tmpl *models.EmailTemplate) error {
	if tmpl.TemplateID == "" || tmpl.Subject == "" || tmpl.Body == "" {
		return fmt.Errorf("%w: templateId, subject and body are required", ErrValidation)
	}
	if tmpl.Locale == "" {
		tmpl.Locale = DefaultLocale
	}
	tmpl.GenIDIfEmpty()
	now := time.Now().UTC()
	tmpl.Touch(now)

	_, err := s.coll().UpdateOne(ctx,
		bson.M{"templateId": tmpl.TemplateID, "locale": tmpl.Locale},
		bson.M{
			"$set": bson.M{
				"subject":   tmpl.Subject,
				"body":      tmpl.Body,
				"updatedAt": now,
			},
			"$setOnInsert": bson.M{"_id": tmpl.ID, "createdAt": tmpl.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("error saving template: %w", err)
	}
	return nil
}

// DeleteTemplate removes an override; the built-in default applies again.
func (s *EmailTemplateService) DeleteTemplate(ctx context.Context, templateID, locale string) error {
	if locale == "" {
		locale = DefaultLocale
	}
	res, err := s.coll().DeleteOne(ctx, bson.M{"templateId": templateID, "locale": locale})
	if err != nil {
		return fmt.Errorf("error deleting template: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListTemplates returns stored overrides.
func (s *EmailTemplateService) ListTemplates(ctx context.Context) ([]models.EmailTemplate, error) {
	cursor, err := s.coll().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "templateId", Value: 1}, {Key: "locale", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing templates: %w", err)
	}
	templates := []models.EmailTemplate{}
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("error decoding templates: %w", err)
	}
	return templates, nil
}
