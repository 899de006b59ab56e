package handlers

import (
	"net/http"
	"secret-santa-backend/database"
	"secret-santa-backend/models"
	"secret-santa-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/groups/:id/activity
func GetGroupActivity(c *gin.Context) {
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

	var activities []models.Activity
	database.DB.Where("group_id = ?", groupID).Order("created_at DESC").Limit(50).Find(&activities)

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}
