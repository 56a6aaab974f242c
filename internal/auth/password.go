package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"newsdesk/portal/internal/models"
)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BootstrapEligible reports whether a hoker may still log in with the bootstrap password:
// no password set, bootstrap not consumed, and the provisioning window still open.
func BootstrapEligible(h *models.Hoker, now time.Time) bool {
	if h.HasPassword() || h.BootstrapUsedAt != nil || h.BootstrapExpiresAt == nil {
		return false
	}
	return now.Before(*h.BootstrapExpiresAt)
}

// MatchBootstrap compares the supplied password with the configured bootstrap password
// in constant time. An empty bootstrap password never matches.
func MatchBootstrap(supplied, bootstrap string) bool {
	if bootstrap == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(bootstrap)) == 1
}
