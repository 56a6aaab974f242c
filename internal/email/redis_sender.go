package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"newsdesk/portal/internal/logger"
)

// MockEmailTTL is how long captured messages stay in Redis.
const MockEmailTTL = 30 * time.Minute

// MockEmailKey is the Redis list holding messages captured for a recipient, newest first.
func MockEmailKey(to string) string {
	return "mockemail:" + strings.ToLower(to)
}

// CapturedEmail is the JSON shape stored by RedisSender.
type CapturedEmail struct {
	To      []string  `json:"to"`
	From    string    `json:"from"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}

// RedisSender captures messages in Redis so integration tests and staging can read them.
type RedisSender struct {
	client redis.Cmdable
	from   string
}

// NewRedisSender creates a new RedisSender.
func NewRedisSender(client redis.Cmdable, from string) Sender {
	return &RedisSender{client: client, from: from}
}

// Send pushes the message onto each recipient's list.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	data, err := json.Marshal(CapturedEmail{
		To:      to,
		From:    s.from,
		Subject: subject,
		Message: string(rawMessage),
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	for _, rcpt := range to {
		key := MockEmailKey(rcpt)
		pipe := s.client.TxPipeline()
		pipe.LPush(ctx, key, data)
		pipe.Expire(ctx, key, MockEmailTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
		}
	}

	logger.L().Debugw("Mock email stored in Redis", "to", to, "subject", subject)
	return nil
}

// LatestCaptured returns the newest message captured for a recipient.
func LatestCaptured(ctx context.Context, client redis.Cmdable, to string) (*CapturedEmail, error) {
	raw, err := client.LIndex(ctx, MockEmailKey(to), 0).Bytes()
	if err != nil {
		return nil, fmt.Errorf("no captured email for %s: %w", to, err)
	}
	var ce CapturedEmail
	if err := json.Unmarshal(raw, &ce); err != nil {
		return nil, fmt.Errorf("failed to decode captured email: %w", err)
	}
	return &ce, nil
}
