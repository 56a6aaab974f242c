package db

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"newsdesk/portal/internal/logger"
)

// Operation performs one attempt of a write.
type Operation func() error

// IsDuplicateKeyError decides whether a failed attempt may be retried.
type IsDuplicateKeyError func(err error) bool

const DefaultMaxRetries = 3

// Try runs op, retrying on _id collisions. Collisions on any other unique index
// (email, mobile, pending pay request) are returned immediately since a fresh ID
// cannot resolve them.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsIDCollision)
}

// WithRetries runs op up to maxRetries+1 times while isDuplicateKey reports
// the failure as retryable, backing off a little more after each attempt.
func WithRetries(op Operation, maxRetries int, isDuplicateKey IsDuplicateKeyError) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !isDuplicateKey(err) {
			break
		}
		logger.L().Debugw("Duplicate key, retrying", "attempt", attempt+1, "error", err)
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	return len(duplicateKeyMessages(err)) > 0
}

// IsIDCollision reports a duplicate key on the _id index.
func IsIDCollision(err error) bool {
	for _, msg := range duplicateKeyMessages(err) {
		if strings.Contains(msg, "index: _id_") {
			return true
		}
	}
	return false
}

// IsDuplicateOnIndex reports a duplicate key on the named index.
func IsDuplicateOnIndex(err error, index string) bool {
	for _, msg := range duplicateKeyMessages(err) {
		if strings.Contains(msg, "index: "+index+" ") {
			return true
		}
	}
	return false
}

func duplicateKeyMessages(err error) []string {
	var msgs []string
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				msgs = append(msgs, e.Message)
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				msgs = append(msgs, e.Message)
			}
		}
	}
	return msgs
}
