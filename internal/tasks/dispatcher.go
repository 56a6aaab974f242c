package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/utils"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher enqueues background work on behalf of the API. It implements
// services.Notifier.
type Dispatcher struct {
	client Enqueuer
}

func NewDispatcher(client Enqueuer) *Dispatcher {
	return &Dispatcher{client: client}
}

// Notify queues a templated email.
func (d *Dispatcher) Notify(ctx context.Context, to, templateID string, data map[string]interface{}) error {
	task, err := NewEmailDeliveryTask(EmailTaskPayload{To: to, TemplateID: templateID, Data: data})
	if err != nil {
		return err
	}
	info, err := d.client.EnqueueContext(ctx, task, asynq.Queue(QueueCritical), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("failed to enqueue email %s: %w", templateID, err)
	}
	logger.L().Debugw("Queued email", "task_id", info.ID, "template_id", templateID)
	return nil
}

// EnqueueImage queues normalisation of an uploaded image for its owner.
func (d *Dispatcher) EnqueueImage(ctx context.Context, key, target string, targetID utils.SixID) error {
	task, err := NewImageProcessTask(ImageTaskPayload{S3Key: key, Target: target, TargetID: targetID.String()})
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(QueueImages), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue image %s: %w", key, err)
	}
	return nil
}
