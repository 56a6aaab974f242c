package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"newsdesk/portal/internal/logger"
)

// TxFunc is a unit of work. ctx is a session context when running inside a
// transaction and the caller's context otherwise, so fn must be safe to repeat.
type TxFunc func(ctx context.Context) error

// RunInTransaction runs fn inside a multi-document transaction. Standalone servers
// cannot run transactions; there fn runs once without one and must order its
// writes so that re-running it after a crash completes the work.
func RunInTransaction(ctx context.Context, client *mongo.Client, fn TxFunc) error {
	if client == nil {
		return fn(ctx)
	}

	session, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsTransactionUnsupported(err) {
		logger.L().Debugw("Transactions unsupported, running without one", "error", err)
		return fn(ctx)
	}
	return err
}

// IsTransactionUnsupported reports whether err means the deployment has no
// replica set (IllegalOperation, code 20).
func IsTransactionUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if ce.Code == 20 {
			return true
		}
	}
	return strings.Contains(err.Error(), "Transaction numbers are only allowed on a replica set member or mongos")
}
