package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Approval states shared by the wish and address tracks. REJECTED is part of
// the schema but no endpoint drives that transition yet; it is reachable only
// by direct administrative action pending a product decision.
const (
	StatusNone     = "NONE"
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Wish holds a recipient's encrypted gift wish for one group. One row per
// (group, recipient); once APPROVED the content is locked.
type Wish struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID       uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_wishes_group_user;not null" json:"group_id"`
	UserID        uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_wishes_group_user;not null" json:"user_id"`
	WishEncrypted string     `gorm:"not null" json:"-"`
	Status        string     `gorm:"not null;size:10;default:PENDING" json:"status"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
}

func (w *Wish) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Participation tracks a member's address track for one group. One row per
// (group, member), created empty on join and upserted afterwards.
type Participation struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID          uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_participations_group_user;not null" json:"group_id"`
	UserID           uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_participations_group_user;not null" json:"user_id"`
	Submitted        bool       `gorm:"default:false" json:"submitted"`
	AddressEncrypted string     `json:"-"`
	AddressStatus    string     `gorm:"not null;size:10;default:NONE" json:"address_status"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ApprovedBy       *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
}

func (p *Participation) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Request structs
type SubmitWishRequest struct {
	Wish string `json:"wish" binding:"required"`
}

type SubmitAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

// MemberStatus is the admin's per-member view of both approval tracks.
// Content fields are deliberately absent; statuses only.
type MemberStatus struct {
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	WishStatus    string    `json:"wish_status"`
	AddressStatus string    `json:"address_status"`
}
