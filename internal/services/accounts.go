package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/utils"
)

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeMobile strips spaces and dashes from a phone number.
func NormalizeMobile(mobile string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(mobile))
}

// ensureUnique fails with ErrDuplicateAccount when any of the given field values
// is already used by a document other than exclude. The unique indexes remain the final guard.
func ensureUnique(ctx context.Context, coll *mongo.Collection, exclude *utils.SixID, fields bson.M) error {
	var or bson.A
	for k, v := range fields {
		if v == "" {
			continue
		}
		or = append(or, bson.M{k: v})
	}
	if len(or) == 0 {
		return nil
	}
	filter := bson.M{"$or": or}
	if exclude != nil {
		filter["_id"] = bson.M{"$ne": *exclude}
	}
	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("error checking uniqueness in %s: %w", coll.Name(), err)
	}
	if count > 0 {
		return ErrDuplicateAccount
	}
	return nil
}

// insertAccount inserts doc, regenerating its ID on _id collisions.
// newDoc is called before every attempt.
func insertAccount(ctx context.Context, coll *mongo.Collection, newDoc func() interface{}) error {
	err := db.Try(func() error {
		_, err := coll.InsertOne(ctx, newDoc())
		return err
	})
	if err == nil {
		return nil
	}
	if db.IsDuplicateOnIndex(err, db.IndexEmailUnique) || db.IsDuplicateOnIndex(err, db.IndexMobileUnique) {
		return ErrDuplicateAccount
	}
	return fmt.Errorf("error inserting into %s: %w", coll.Name(), err)
}

// findOne decodes the first match into dst, passing mongo.ErrNoDocuments through.
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, dst interface{}) error {
	if err := coll.FindOne(ctx, filter).Decode(dst); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return mongo.ErrNoDocuments
		}
		return fmt.Errorf("error querying %s: %w", coll.Name(), err)
	}
	return nil
}

// checkPassword hides whether the account exists: a missing document and a
// wrong password both yield ErrInvalidCredentials.
func checkPassword(findErr error, password, hash string) error {
	if findErr != nil {
		if errors.Is(findErr, mongo.ErrNoDocuments) {
			return ErrInvalidCredentials
		}
		return findErr
	}
	if !auth.CheckPasswordHash(password, hash) {
		return ErrInvalidCredentials
	}
	return nil
}

func validatePassword(password string, minLength int) error {
	if len(password) < minLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minLength)
	}
	return nil
}
