package services

import (
	"errors"
	"fmt"
	"log"
	"secret-santa-backend/models"
	"secret-santa-backend/utils"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier delivers out-of-band messages after state transitions. Delivery
// failures are the implementation's problem to log; approvals are never
// rolled back because an email could not be sent.
type Notifier interface {
	NotifyShuffled(member models.User, group models.Group)
	NotifyWishApproved(recipient models.User, group models.Group)
	NotifyAssignmentReady(santa models.User, group models.Group, wish, address string)
}

// Orchestrator owns every status transition on wishes, addresses,
// assignments and acknowledgements. Handlers stay thin; all preconditions
// live here so illegal transitions surface as typed errors, never as
// silent no-ops.
type Orchestrator struct {
	db       *gorm.DB
	codec    *utils.Codec
	notifier Notifier
}

func NewOrchestrator(db *gorm.DB, codec *utils.Codec, notifier Notifier) *Orchestrator {
	return &Orchestrator{db: db, codec: codec, notifier: notifier}
}

// group loads a group or reports ErrNotFound.
func (o *Orchestrator) group(groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := o.db.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: group not found", ErrNotFound)
		}
		return nil, err
	}
	return &group, nil
}

// adminGroup loads a group and verifies the caller owns it.
func (o *Orchestrator) adminGroup(groupID, callerID uuid.UUID) (*models.Group, error) {
	group, err := o.group(groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != callerID {
		return nil, fmt.Errorf("%w: only the group admin can do this", ErrForbidden)
	}
	return group, nil
}

// Shuffle draws a fresh derangement over the group's members and replaces
// any previous assignment set for the event. Delete and insert run in one
// transaction so readers never observe a half-written (or empty) set.
func (o *Orchestrator) Shuffle(groupID, callerID uuid.UUID) (int, error) {
	group, err := o.adminGroup(groupID, callerID)
	if err != nil {
		return 0, err
	}

	var members []models.GroupMember
	if err := o.db.Where("group_id = ?", groupID).Order("joined_at").Find(&members).Error; err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}

	recipientOf, err := GenerateDerangement(ids)
	if err != nil {
		return 0, err
	}

	rows := make([]models.Assignment, 0, len(recipientOf))
	for santa, recipient := range recipientOf {
		rows = append(rows, models.Assignment{
			GroupID:     groupID,
			EventID:     models.DefaultEventID,
			SantaID:     santa,
			RecipientID: recipient,
		})
	}

	err = o.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ? AND event_id = ?", groupID, models.DefaultEventID).
			Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		// A row-level conflict should skip that row, not abort the draw.
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
	if err != nil {
		return 0, err
	}

	o.logActivity(groupID, callerID, "shuffled",
		fmt.Sprintf("Santas were drawn for \"%s\" (%d members)", group.Name, len(rows)))

	if o.notifier != nil {
		var users []models.User
		o.db.Where("id IN ?", ids).Find(&users)
		for _, u := range users {
			o.notifier.NotifyShuffled(u, *group)
		}
	}

	return len(rows), nil
}

// SubmitWish upserts the caller's wish as PENDING. Only someone who has a
// santa assigned may submit, and an APPROVED wish is locked.
func (o *Orchestrator) SubmitWish(groupID, callerID uuid.UUID, text string) error {
	if text == "" {
		return fmt.Errorf("%w: wish text is required", ErrValidation)
	}
	if _, err := o.group(groupID); err != nil {
		return err
	}

	var assigned int64
	o.db.Model(&models.Assignment{}).
		Where("group_id = ? AND event_id = ? AND recipient_id = ?", groupID, models.DefaultEventID, callerID).
		Count(&assigned)
	if assigned == 0 {
		return fmt.Errorf("%w: no santa has been assigned to you in this group", ErrForbidden)
	}

	encrypted, err := o.codec.Encrypt(text)
	if err != nil {
		return err
	}

	var wish models.Wish
	err = o.db.Where("group_id = ? AND user_id = ?", groupID, callerID).First(&wish).Error
	switch {
	case err == nil:
		if wish.Status == models.StatusApproved {
			return fmt.Errorf("%w: wish is already approved and can no longer be changed", ErrConflict)
		}
		// Resubmission while PENDING (or REJECTED) overwrites the content
		// and clears any stale approval metadata.
		wish.WishEncrypted = encrypted
		wish.Status = models.StatusPending
		wish.SubmittedAt = time.Now()
		wish.ApprovedAt = nil
		wish.ApprovedBy = nil
		if err := o.db.Save(&wish).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		wish = models.Wish{
			GroupID:       groupID,
			UserID:        callerID,
			WishEncrypted: encrypted,
			Status:        models.StatusPending,
			SubmittedAt:   time.Now(),
		}
		if err := o.db.Create(&wish).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: wish already submitted", ErrConflict)
			}
			return err
		}
	default:
		return err
	}

	o.logActivity(groupID, callerID, "wish_submitted", "A wish was submitted for approval")
	return nil
}

// ApproveWish moves a PENDING wish to APPROVED. Approving twice is a hard
// conflict so callers can tell "already done" from "just did it".
func (o *Orchestrator) ApproveWish(groupID, callerID, recipientID uuid.UUID) error {
	group, err := o.adminGroup(groupID, callerID)
	if err != nil {
		return err
	}

	var wish models.Wish
	if err := o.db.Where("group_id = ? AND user_id = ?", groupID, recipientID).First(&wish).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no wish submitted by this member", ErrNotFound)
		}
		return err
	}
	if wish.Status == models.StatusApproved {
		return fmt.Errorf("%w: wish is already approved", ErrConflict)
	}
	if wish.Status != models.StatusPending {
		return fmt.Errorf("%w: wish is not pending approval", ErrConflict)
	}

	now := time.Now()
	wish.Status = models.StatusApproved
	wish.ApprovedAt = &now
	wish.ApprovedBy = &callerID
	if err := o.db.Save(&wish).Error; err != nil {
		return err
	}

	o.logActivity(groupID, callerID, "wish_approved", "A wish was approved")

	if o.notifier != nil {
		var recipient models.User
		if err := o.db.First(&recipient, "id = ?", recipientID).Error; err == nil {
			o.notifier.NotifyWishApproved(recipient, *group)
		}
	}
	return nil
}

// SubmitAddress upserts the caller's mailing address as PENDING. The
// caller's own wish must already be APPROVED, and an APPROVED address is
// locked.
func (o *Orchestrator) SubmitAddress(groupID, callerID uuid.UUID, text string) error {
	if text == "" {
		return fmt.Errorf("%w: address text is required", ErrValidation)
	}
	if _, err := o.group(groupID); err != nil {
		return err
	}

	var wish models.Wish
	err := o.db.Where("group_id = ? AND user_id = ?", groupID, callerID).First(&wish).Error
	if err != nil || wish.Status != models.StatusApproved {
		return fmt.Errorf("%w: your wish must be approved before submitting an address", ErrForbidden)
	}

	encrypted, err := o.codec.Encrypt(text)
	if err != nil {
		return err
	}

	now := time.Now()
	var participation models.Participation
	err = o.db.Where("group_id = ? AND user_id = ?", groupID, callerID).First(&participation).Error
	switch {
	case err == nil:
		if participation.AddressStatus == models.StatusApproved {
			return fmt.Errorf("%w: address is already approved and can no longer be changed", ErrConflict)
		}
		participation.Submitted = true
		participation.AddressEncrypted = encrypted
		participation.AddressStatus = models.StatusPending
		participation.SubmittedAt = &now
		participation.ApprovedAt = nil
		participation.ApprovedBy = nil
		if err := o.db.Save(&participation).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// The join flow creates the row, but tolerate its absence.
		participation = models.Participation{
			GroupID:          groupID,
			UserID:           callerID,
			Submitted:        true,
			AddressEncrypted: encrypted,
			AddressStatus:    models.StatusPending,
			SubmittedAt:      &now,
		}
		if err := o.db.Create(&participation).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: address already submitted", ErrConflict)
			}
			return err
		}
	default:
		return err
	}

	o.logActivity(groupID, callerID, "address_submitted", "An address was submitted for approval")
	return nil
}

// ApproveAddress moves a PENDING address to APPROVED and then reveals the
// recipient's wish and address to every santa assigned to them. The
// approval is durable even when a notification fails; the plaintext never
// travels back to the admin.
func (o *Orchestrator) ApproveAddress(groupID, callerID, recipientID uuid.UUID) error {
	group, err := o.adminGroup(groupID, callerID)
	if err != nil {
		return err
	}

	var participation models.Participation
	if err := o.db.Where("group_id = ? AND user_id = ?", groupID, recipientID).First(&participation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no address submitted by this member", ErrNotFound)
		}
		return err
	}
	switch participation.AddressStatus {
	case models.StatusPending:
		// fall through to approval
	case models.StatusApproved:
		return fmt.Errorf("%w: address is already approved", ErrConflict)
	case models.StatusNone:
		return fmt.Errorf("%w: no address submitted by this member", ErrNotFound)
	default:
		return fmt.Errorf("%w: address is not pending approval", ErrConflict)
	}

	now := time.Now()
	participation.AddressStatus = models.StatusApproved
	participation.ApprovedAt = &now
	participation.ApprovedBy = &callerID
	if err := o.db.Save(&participation).Error; err != nil {
		return err
	}

	o.logActivity(groupID, callerID, "address_approved", "An address was approved")

	// Disclosure fan-out. Everything below is best-effort: the approval is
	// already durable.
	var wish models.Wish
	if err := o.db.Where("group_id = ? AND user_id = ?", groupID, recipientID).First(&wish).Error; err != nil {
		log.Printf("⚠️  Disclosure skipped for group %s: wish lookup failed: %v", groupID, err)
		return nil
	}
	if wish.Status != models.StatusApproved {
		return nil
	}

	wishText, err := o.codec.Decrypt(wish.WishEncrypted)
	if err != nil {
		log.Printf("⚠️  Disclosure skipped for group %s: wish decrypt failed: %v", groupID, err)
		return nil
	}
	addressText, err := o.codec.Decrypt(participation.AddressEncrypted)
	if err != nil {
		log.Printf("⚠️  Disclosure skipped for group %s: address decrypt failed: %v", groupID, err)
		return nil
	}

	var assignments []models.Assignment
	o.db.Where("group_id = ? AND event_id = ? AND recipient_id = ?", groupID, models.DefaultEventID, recipientID).
		Find(&assignments)
	for _, a := range assignments {
		var santa models.User
		if err := o.db.First(&santa, "id = ?", a.SantaID).Error; err != nil {
			log.Printf("⚠️  Disclosure skipped for santa %s: %v", a.SantaID, err)
			continue
		}
		if o.notifier != nil {
			o.notifier.NotifyAssignmentReady(santa, *group, wishText, addressText)
		}
	}

	return nil
}

// Assignment returns the decrypted wish/address pair for the caller's
// recipient, but only after both tracks are APPROVED. The recipient's
// identity is never part of the response.
func (o *Orchestrator) Assignment(groupID, callerID uuid.UUID) (*models.AssignmentResponse, error) {
	if _, err := o.group(groupID); err != nil {
		return nil, err
	}

	var assignment models.Assignment
	err := o.db.Where("group_id = ? AND event_id = ? AND santa_id = ?", groupID, models.DefaultEventID, callerID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: you have no assignment in this group", ErrNotFound)
		}
		return nil, err
	}

	var wish models.Wish
	err = o.db.Where("group_id = ? AND user_id = ?", groupID, assignment.RecipientID).First(&wish).Error
	if err != nil || wish.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: your recipient's wish has not been approved yet", ErrNotReady)
	}

	var participation models.Participation
	err = o.db.Where("group_id = ? AND user_id = ?", groupID, assignment.RecipientID).First(&participation).Error
	if err != nil || participation.AddressStatus != models.StatusApproved {
		return nil, fmt.Errorf("%w: your recipient's address has not been approved yet", ErrNotReady)
	}

	wishText, err := o.codec.Decrypt(wish.WishEncrypted)
	if err != nil {
		return nil, err
	}
	addressText, err := o.codec.Decrypt(participation.AddressEncrypted)
	if err != nil {
		return nil, err
	}

	return &models.AssignmentResponse{Wish: wishText, Address: addressText}, nil
}

// Acknowledge records that the caller dispatched their gift. Exactly one
// acknowledgement may exist per (group, santa, recipient); the unique index
// backs the explicit check against concurrent double-submission.
func (o *Orchestrator) Acknowledge(groupID, callerID uuid.UUID) error {
	if _, err := o.group(groupID); err != nil {
		return err
	}

	var assignment models.Assignment
	err := o.db.Where("group_id = ? AND event_id = ? AND santa_id = ?", groupID, models.DefaultEventID, callerID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: you have no assignment in this group", ErrForbidden)
		}
		return err
	}

	var existing int64
	o.db.Model(&models.Acknowledgement{}).
		Where("group_id = ? AND santa_id = ? AND recipient_id = ?", groupID, callerID, assignment.RecipientID).
		Count(&existing)
	if existing > 0 {
		return fmt.Errorf("%w: gift already acknowledged", ErrConflict)
	}

	ack := models.Acknowledgement{
		GroupID:     groupID,
		SantaID:     callerID,
		RecipientID: assignment.RecipientID,
	}
	if err := o.db.Create(&ack).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: gift already acknowledged", ErrConflict)
		}
		return err
	}

	o.logActivity(groupID, callerID, "gift_acknowledged", "A santa confirmed their gift was sent")
	return nil
}

// GroupStatus gives the admin a status-only view of every member's wish and
// address track, so there is something to approve against.
func (o *Orchestrator) GroupStatus(groupID, callerID uuid.UUID) ([]models.MemberStatus, error) {
	if _, err := o.adminGroup(groupID, callerID); err != nil {
		return nil, err
	}

	var members []models.GroupMember
	if err := o.db.Preload("User").Where("group_id = ?", groupID).Order("joined_at").Find(&members).Error; err != nil {
		return nil, err
	}

	statuses := make([]models.MemberStatus, 0, len(members))
	for _, m := range members {
		status := models.MemberStatus{
			UserID:        m.UserID,
			Name:          m.User.Name,
			WishStatus:    models.StatusNone,
			AddressStatus: models.StatusNone,
		}

		var wish models.Wish
		if err := o.db.Where("group_id = ? AND user_id = ?", groupID, m.UserID).First(&wish).Error; err == nil {
			status.WishStatus = wish.Status
		}
		var participation models.Participation
		if err := o.db.Where("group_id = ? AND user_id = ?", groupID, m.UserID).First(&participation).Error; err == nil {
			status.AddressStatus = participation.AddressStatus
		}

		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (o *Orchestrator) logActivity(groupID, userID uuid.UUID, kind, description string) {
	err := o.db.Create(&models.Activity{
		GroupID:     groupID,
		UserID:      userID,
		Type:        kind,
		Description: description,
	}).Error
	if err != nil {
		log.Printf("⚠️  Failed to log activity %q for group %s: %v", kind, groupID, err)
	}
}
