package email

import (
	"context"
	"errors"
	"fmt"

	"newsdesk/portal/internal/logger"
)

// CompositeEmailSender fans a message out to several senders.
type CompositeEmailSender struct {
	senders []Sender
}

func NewCompositeEmailSender(senders ...Sender) *CompositeEmailSender {
	return &CompositeEmailSender{senders: senders}
}

// AddSender appends sender; nil is ignored.
func (cs *CompositeEmailSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

// Send delivers through every sender, even after one fails. The returned error
// joins all failures.
func (cs *CompositeEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return errors.New("no email senders configured")
	}

	var errs []error
	for i, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			logger.L().Warnw("Email sender failed", "sender", fmt.Sprintf("%T", sender), "index", i, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
