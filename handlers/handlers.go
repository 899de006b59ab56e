package handlers

import (
	"errors"
	"secret-santa-backend/services"
	"secret-santa-backend/utils"

	"github.com/gin-gonic/gin"
)

var orch *services.Orchestrator

// Init wires the orchestrator the santa handlers call into. main builds it
// with the live database, codec and notifier; tests inject their own.
func Init(o *services.Orchestrator) {
	orch = o
}

// respondServiceError maps the orchestrator's error taxonomy onto HTTP
// statuses. NotReady shares 409 with Conflict but keeps its own message so
// clients can tell "blocked by state" from "already done".
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInsufficientParticipants):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrNotReady):
		utils.Conflict(c, err.Error())
	default:
		utils.InternalError(c, "Something went wrong")
	}
}
