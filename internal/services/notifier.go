package services

import "context"

// Notifier queues a templated email. The background worker renders and sends it.
type Notifier interface {
	Notify(ctx context.Context, to, templateID string, data map[string]interface{}) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string, map[string]interface{}) error { return nil }
