package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/email"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/storage"
	"newsdesk/portal/internal/utils"
)

// Task types.
const (
	TypeEmailDelivery   = "email:deliver"
	TypeImageProcess    = "image:process"
	TypeBillingGenerate = "billing:generate"
)

// Queues, by priority.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueImages   = "images"
)

// RedisOpt returns the asynq connection options for the configured Redis.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(RedisOpt(cfg))
}

// --- Task Server (Processing tasks) ---

// TemplateStore resolves email templates by ID and locale.
type TemplateStore interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
}

// CatalogImages records processed images of catalog items.
type CatalogImages interface {
	SetImage(ctx context.Context, kind models.CatalogKind, id utils.SixID, key string) error
}

// AgentDirectory is the part of the agent service used by background work.
type AgentDirectory interface {
	ApprovedIDs(ctx context.Context) ([]utils.SixID, error)
	SetImage(ctx context.Context, id utils.SixID, key string) error
}

// BillGenerator produces monthly bills for one agent.
type BillGenerator interface {
	GenerateMonthlyBills(ctx context.Context, agentID utils.SixID, year, month int) (*services.GenerateResult, error)
}

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	storage     storage.IS3Storage
	templates   TemplateStore
	catalog     CatalogImages
	agents      AgentDirectory
	billing     BillGenerator
	now         func() time.Time
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	storage storage.IS3Storage,
	templates TemplateStore,
	catalog CatalogImages,
	agents AgentDirectory,
	billing BillGenerator,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		storage:     storage,
		templates:   templates,
		catalog:     catalog,
		agents:      agents,
		billing:     billing,
		now:         time.Now,
	}
}

// SetupServer configures the asynq server and the handler mux. The caller starts
// and shuts down the server.
func SetupServer(cfg *config.Config, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		RedisOpt(cfg),
		asynq.Config{
			Queues: map[string]int{
				QueueCritical: 6,
				QueueImages:   4,
				QueueDefault:  3,
			},
			Logger: logger.L(),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.L().Errorw("Task failed", "type", task.Type(), "payload", string(task.Payload()), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
	mux.HandleFunc(TypeBillingGenerate, processor.HandleBillingGenerateTask)
	return srv, mux
}

// NewScheduler returns a scheduler that enqueues monthly bill generation on
// cfg.BillGenerationCron (UTC).
func NewScheduler(cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOpt(cfg), &asynq.SchedulerOpts{
		Logger:   logger.L(),
		Location: time.UTC,
	})
	task, err := NewBillingGenerateTask(BillingGeneratePayload{})
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(cfg.BillGenerationCron, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	if err != nil {
		return nil, fmt.Errorf("invalid BILL_GENERATION_CRON %q: %w", cfg.BillGenerationCron, err)
	}
	logger.L().Infow("Scheduled monthly bill generation", "cron", cfg.BillGenerationCron, "entry_id", entryID)
	return scheduler, nil
}

// --- Payloads ---

// EmailTaskPayload is the payload of TypeEmailDelivery.
type EmailTaskPayload struct {
	To         string                 `json:"to"`
	TemplateID string                 `json:"template_id"`
	Locale     string                 `json:"locale,omitempty"`
	Data       map[string]interface{} `json:"data"`
}

// Image targets.
const (
	ImageTargetNewspaper = "newspaper"
	ImageTargetBooklet   = "booklet"
	ImageTargetAgent     = "agent"
)

// ImageTaskPayload is the payload of TypeImageProcess.
type ImageTaskPayload struct {
	S3Key    string `json:"s3_key"`
	Target   string `json:"target"`
	TargetID string `json:"target_id"`
}

// BillingGeneratePayload is the payload of TypeBillingGenerate. A zero AgentID
// means every approved agent; a zero Year means the month before the task runs.
type BillingGeneratePayload struct {
	AgentID string `json:"agent_id,omitempty"`
	Year    int    `json:"year,omitempty"`
	Month   int    `json:"month,omitempty"`
}

func newTask(taskType string, payload interface{}) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, b), nil
}

func NewEmailDeliveryTask(p EmailTaskPayload) (*asynq.Task, error) {
	return newTask(TypeEmailDelivery, p)
}

func NewImageProcessTask(p ImageTaskPayload) (*asynq.Task, error) {
	return newTask(TypeImageProcess, p)
}

func NewBillingGenerateTask(p BillingGeneratePayload) (*asynq.Task, error) {
	return newTask(TypeBillingGenerate, p)
}
