package services

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Sentinel errors returned by services. Handlers map them to HTTP statuses;
// a missing document is reported as mongo.ErrNoDocuments.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotApproved = errors.New("account not approved")
	ErrDuplicateAccount   = errors.New("email or mobile already registered")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrPayRequestExists   = errors.New("a pending pay request already exists for this bill")
	ErrBillAlreadyPaid    = errors.New("bill already paid")
	ErrAllotmentExists    = errors.New("customer already has an active allotment")
	ErrBootstrapExpired   = errors.New("bootstrap password no longer accepted")
)

// ErrUnknownCollection is returned by exports for a collection the portal does not own.
var ErrUnknownCollection = errors.New("unknown collection")

// IsNotFound reports a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
