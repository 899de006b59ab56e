package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultEventID scopes assignments. The schema carries an event column so a
// group could in principle run more than one exchange, but this service keeps
// a single active event per group.
const DefaultEventID = "main"

// Assignment is one santa→recipient edge of a group's derangement. The
// (group, event, santa) unique index is the hard one-santa-one-recipient
// invariant; a re-shuffle replaces all rows for the (group, event) pair.
type Assignment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_assignments_event_santa;not null" json:"group_id"`
	EventID     string    `gorm:"size:36;uniqueIndex:idx_assignments_event_santa;not null" json:"event_id"`
	SantaID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_assignments_event_santa;not null" json:"santa_id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null" json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Acknowledgement records that a santa confirmed dispatch. At most one row per
// (group, santa, recipient) triple, enforced by the store.
type Acknowledgement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_acks_group_santa_recipient;not null" json:"group_id"`
	SantaID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_acks_group_santa_recipient;not null" json:"santa_id"`
	RecipientID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_acks_group_santa_recipient;not null" json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Acknowledgement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AssignmentResponse is what a santa sees once both approvals are done.
// The recipient's identity is never included; disclosure is content-only.
type AssignmentResponse struct {
	Wish    string `json:"wish"`
	Address string `json:"address"`
}
