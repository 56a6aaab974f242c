package models

import (
	"time"

	"newsdesk/portal/internal/utils"
)

// Base carries the identifier and audit timestamps shared by every document.
type Base struct {
	ID        utils.SixID `bson:"_id" json:"id"`
	CreatedAt time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// GenIDIfEmpty assigns a fresh ID when none is set.
func (m *Base) GenIDIfEmpty() {
	if m.ID.IsZero() {
		m.GenID()
	}
}

// GenID assigns a fresh ID, replacing any existing one. Used on duplicate-key retries.
func (m *Base) GenID() {
	m.ID = utils.NewSixID()
}

// Touch stamps UpdatedAt (and CreatedAt on first use).
func (m *Base) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// NewBase returns a Base with a fresh ID and both timestamps set to now.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{ID: utils.NewSixID(), CreatedAt: now, UpdatedAt: now}
}
