package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"secret-santa-backend/database"
	"secret-santa-backend/models"
	"secret-santa-backend/services"
	"secret-santa-backend/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const groupCacheTTL = 5 * time.Minute

// POST /api/groups
func CreateGroup(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	group := models.Group{
		Name:      req.Name,
		CreatedBy: userID,
		JoinCode:  utils.GenerateJoinCode(8),
	}

	// Re-draw the join code on the rare collision; a (name, owner)
	// duplicate keeps failing and surfaces as a conflict.
	var err error
	for attempt := 0; attempt < 4; attempt++ {
		err = database.DB.Create(&group).Error
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		var clash int64
		database.DB.Model(&models.Group{}).Where("join_code = ?", group.JoinCode).Count(&clash)
		if clash == 0 {
			break
		}
		group.JoinCode = utils.GenerateJoinCode(8)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Conflict(c, "You already have a group with this name")
			return
		}
		utils.InternalError(c, "Failed to create group")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.GroupMember{GroupID: group.ID, UserID: userID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Participation{
			GroupID:       group.ID,
			UserID:        userID,
			AddressStatus: models.StatusNone,
		}).Error
	})
	if err != nil {
		utils.InternalError(c, "Failed to create group")
		return
	}

	var creator models.User
	database.DB.First(&creator, "id = ?", userID)
	database.DB.Create(&models.Activity{
		GroupID:     group.ID,
		UserID:      userID,
		Type:        "group_created",
		Description: fmt.Sprintf("%s created group \"%s\"", creator.Name, group.Name),
	})

	utils.SuccessResponse(c, http.StatusCreated, "Group created", buildGroupResponse(group.ID, userID))
}

// GET /api/groups
func GetGroups(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var memberships []models.GroupMember
	database.DB.Where("user_id = ?", userID).Find(&memberships)

	var groupIDs []uuid.UUID
	for _, m := range memberships {
		groupIDs = append(groupIDs, m.GroupID)
	}

	var groups []models.Group
	if len(groupIDs) > 0 {
		database.DB.Where("id IN ?", groupIDs).Order("created_at DESC").Find(&groups)
	}

	responses := make([]models.GroupResponse, 0, len(groups))
	for _, g := range groups {
		responses = append(responses, buildGroupResponse(g.ID, userID))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/groups/:id
func GetGroup(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	if !isMember(groupID, userID) {
		utils.Forbidden(c, "You are not a member of this group")
		return
	}

	if cached, ok := cachedGroupResponse(groupID, userID); ok {
		utils.SuccessResponse(c, http.StatusOK, "", cached)
		return
	}

	response := buildGroupResponse(groupID, userID)
	cacheGroupResponse(groupID, userID, response)
	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// POST /api/groups/join
func JoinGroup(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var group models.Group
	if err := database.DB.Where("join_code = ?", req.JoinCode).First(&group).Error; err != nil {
		utils.NotFound(c, "Invalid join code")
		return
	}

	if isMember(group.ID, userID) {
		utils.Conflict(c, "You are already a member of this group")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.GroupMember{GroupID: group.ID, UserID: userID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Participation{
			GroupID:       group.ID,
			UserID:        userID,
			AddressStatus: models.StatusNone,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Conflict(c, "You are already a member of this group")
			return
		}
		utils.InternalError(c, "Failed to join group")
		return
	}

	var joiner models.User
	database.DB.First(&joiner, "id = ?", userID)
	database.DB.Create(&models.Activity{
		GroupID:     group.ID,
		UserID:      userID,
		Type:        "member_joined",
		Description: fmt.Sprintf("%s joined %s", joiner.Name, group.Name),
	})

	invalidateGroupCache(group.ID)
	utils.SuccessResponse(c, http.StatusOK, "Joined group", buildGroupResponse(group.ID, userID))
}

// POST /api/groups/:id/invite
func InviteToGroupHandler(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	if !isMember(groupID, userID) {
		utils.Forbidden(c, "You are not a member of this group")
		return
	}

	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	go services.InviteToGroup(groupID, userID, req.Email)

	utils.SuccessResponse(c, http.StatusOK, "Invitation sent", nil)
}

// Helper: check group membership
func isMember(groupID, userID uuid.UUID) bool {
	var count int64
	database.DB.Model(&models.GroupMember{}).Where("group_id = ? AND user_id = ?", groupID, userID).Count(&count)
	return count > 0
}

// Helper: build full group response with members. The join code is only
// included for the group's admin.
func buildGroupResponse(groupID, viewerID uuid.UUID) models.GroupResponse {
	var group models.Group
	database.DB.First(&group, "id = ?", groupID)

	var members []models.GroupMember
	database.DB.Preload("User").Where("group_id = ?", groupID).Order("joined_at").Find(&members)

	memberResponses := make([]models.GroupMemberResponse, 0, len(members))
	for _, m := range members {
		memberResponses = append(memberResponses, models.GroupMemberResponse{
			UserID:   m.UserID,
			Name:     m.User.Name,
			Email:    m.User.Email,
			IsAdmin:  m.UserID == group.CreatedBy,
			JoinedAt: m.JoinedAt,
		})
	}

	response := models.GroupResponse{
		ID:        group.ID,
		Name:      group.Name,
		CreatedBy: group.CreatedBy,
		Members:   memberResponses,
		CreatedAt: group.CreatedAt,
	}
	if viewerID == group.CreatedBy {
		response.JoinCode = group.JoinCode
	}
	return response
}

// Cache-aside over Redis; everything degrades to DB reads when Redis is
// not around.
func groupCacheKey(groupID, viewerID uuid.UUID) string {
	return fmt.Sprintf("group:%s:viewer:%s", groupID, viewerID)
}

func cachedGroupResponse(groupID, viewerID uuid.UUID) (models.GroupResponse, bool) {
	var response models.GroupResponse
	if database.Redis == nil {
		return response, false
	}
	raw, err := database.Redis.Get(context.Background(), groupCacheKey(groupID, viewerID)).Result()
	if err != nil {
		return response, false
	}
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return response, false
	}
	return response, true
}

func cacheGroupResponse(groupID, viewerID uuid.UUID, response models.GroupResponse) {
	if database.Redis == nil {
		return
	}
	raw, err := json.Marshal(response)
	if err != nil {
		return
	}
	database.Redis.Set(context.Background(), groupCacheKey(groupID, viewerID), raw, groupCacheTTL)
}

func invalidateGroupCache(groupID uuid.UUID) {
	if database.Redis == nil {
		return
	}
	ctx := context.Background()
	iter := database.Redis.Scan(ctx, 0, fmt.Sprintf("group:%s:viewer:*", groupID), 100).Iterator()
	for iter.Next(ctx) {
		database.Redis.Del(ctx, iter.Val())
	}
}
