package services

import (
	"log"
	"secret-santa-backend/database"
	"secret-santa-backend/models"

	"github.com/google/uuid"
)

// InviteToGroup creates an invitation and emails the group's join code.
// Registered users are added to the group directly instead.
func InviteToGroup(groupID uuid.UUID, invitedBy uuid.UUID, email string) {
	var group models.Group
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		log.Printf("❌ Invitation failed, group %s not found: %v", groupID, err)
		return
	}

	// Check if invitation already exists
	var existing models.Invitation
	err := database.DB.Where("group_id = ? AND email = ? AND status = ?", groupID, email, "pending").
		First(&existing).Error
	if err == nil {
		log.Printf("⚠️  Invitation already exists for %s in group %s", email, groupID)
		return
	}

	// Check if the user is already registered
	var existingUser models.User
	if err := database.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		var existingMember models.GroupMember
		err := database.DB.Where("group_id = ? AND user_id = ?", groupID, existingUser.ID).
			First(&existingMember).Error
		if err != nil {
			database.DB.Create(&models.GroupMember{GroupID: groupID, UserID: existingUser.ID})
			database.DB.Create(&models.Participation{
				GroupID:       groupID,
				UserID:        existingUser.ID,
				AddressStatus: models.StatusNone,
			})
			log.Printf("✅ Added existing user %s to group %s", email, groupID)
		}
		return
	}

	invitation := models.Invitation{
		GroupID:   groupID,
		InvitedBy: invitedBy,
		Email:     email,
		Status:    "pending",
	}
	if err := database.DB.Create(&invitation).Error; err != nil {
		log.Printf("❌ Failed to create invitation: %v", err)
		return
	}

	var inviter models.User
	database.DB.First(&inviter, "id = ?", invitedBy)
	GetNotificationService().NotifyInvitation(email, inviter.Name, group)

	log.Printf("✅ Invitation sent to %s for group %s", email, groupID)
}

// AcceptPendingInvitations joins a freshly registered user into every group
// they were invited to by email.
func AcceptPendingInvitations(user models.User) {
	var invitations []models.Invitation
	database.DB.Where("email = ? AND status = ?", user.Email, "pending").Find(&invitations)

	for _, inv := range invitations {
		database.DB.Create(&models.GroupMember{GroupID: inv.GroupID, UserID: user.ID})
		database.DB.Create(&models.Participation{
			GroupID:       inv.GroupID,
			UserID:        user.ID,
			AddressStatus: models.StatusNone,
		})
		database.DB.Model(&inv).Update("status", "accepted")

		var group models.Group
		database.DB.First(&group, "id = ?", inv.GroupID)
		database.DB.Create(&models.Activity{
			GroupID:     inv.GroupID,
			UserID:      user.ID,
			Type:        "member_joined",
			Description: user.Name + " joined " + group.Name,
		})
	}
}
