package controller

import (
	"ludilearn_backend/internal/service"
	"ludilearn_backend/internal/util"
	"ludilearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventController receives the LMS webhook envelope. The shared-secret check
// happens in middleware; this controller only dispatches.
type EventController struct {
	RefreshService *service.RefreshService
}

func NewEventController(refreshService *service.RefreshService) *EventController {
	return &EventController{RefreshService: refreshService}
}

// Receive godoc
// @Summary LMS event webhook
// @Description Dispatches one LMS event (grading, completion, quiz attempts, structure changes, enrollment, restore)
// @Tags events
// @Accept json
// @Produce json
// @Param body body service.Event true "event envelope"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Router /api/lms/events [post]
func (c *EventController) Receive(ctx *gin.Context) {
	var event service.Event
	if err := ctx.ShouldBindJSON(&event); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.RefreshService.Dispatch(ctx.Request.Context(), event); err != nil {
		logger.Log.Error("event dispatch failed",
			zap.String("type", event.Type), zap.Uint("course", event.CourseRef), zap.Error(err))
		util.InternalServerError(ctx)
		return
	}
	util.Success(ctx, gin.H{"processed": true})
}
