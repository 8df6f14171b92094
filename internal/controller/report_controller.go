package controller

import (
	"errors"
	"strconv"

	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/service"
	"ludilearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	ReportService *service.ReportService
}

func NewReportController(reportService *service.ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// CourseReport godoc
// @Summary Course gamification report
// @Description Per learner and section: active variant, average progression and last access
// @Tags report
// @Produce json
// @Param courseId path int true "LMS course id"
// @Param filter query string false "game element type filter"
// @Param sort query string false "sort key (progression, lastaccess)"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/report [get]
func (c *ReportController) CourseReport(ctx *gin.Context) {
	courseRef := util.MustParseUint(ctx.Param("courseId"))
	if courseRef == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	query := service.ReportQuery{
		Filter: model.GameElementType(ctx.Query("filter")),
		Sort:   ctx.Query("sort"),
		Limit:  limit,
		Offset: offset,
	}

	rows, total, err := c.ReportService.CourseReport(ctx.Request.Context(), courseRef, query)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, util.PageResponse{
		List:   rows,
		Total:  int64(total),
		Limit:  limit,
		Offset: offset,
	})
}
