package controller

import (
	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/service"
	"ludilearn_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type QuestionnaireController struct {
	ProfileService *service.ProfileService
}

func NewQuestionnaireController(profileService *service.ProfileService) *QuestionnaireController {
	return &QuestionnaireController{ProfileService: profileService}
}

// AnswerItem is one questionnaire answer.
// swagger:model AnswerItem
type AnswerItem struct {
	QuestionID int `json:"questionId" binding:"required,min=1,max=12"`
	Answer     int `json:"answer" binding:"required,min=1,max=7"`
}

// QuestionnaireRequest is the full HEXAD submission.
// swagger:model QuestionnaireRequest
type QuestionnaireRequest struct {
	Answers []AnswerItem `json:"answers" binding:"required,min=1,dive"`
}

// Submit godoc
// @Summary Submit the HEXAD questionnaire
// @Description Stores the answers, computes the player profile and re-attributes the learner in automatic-policy courses
// @Tags questionnaire
// @Accept json
// @Produce json
// @Param body body QuestionnaireRequest true "answers"
// @Success 200 {object} util.Response{data=model.HexadProfile}
// @Failure 400 {object} util.Response
// @Router /api/questionnaire [post]
func (c *QuestionnaireController) Submit(ctx *gin.Context) {
	learnerID := util.GetLearnerID(ctx)
	if learnerID == 0 {
		util.Unauthorized(ctx)
		return
	}

	var req QuestionnaireRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answers := make([]model.HexadAnswer, 0, len(req.Answers))
	for _, item := range req.Answers {
		answers = append(answers, model.HexadAnswer{
			QuestionID: item.QuestionID,
			Answer:     item.Answer,
		})
	}

	profile, err := c.ProfileService.SubmitQuestionnaire(ctx.Request.Context(), learnerID, answers)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, profile)
}

// Profile godoc
// @Summary Current learner's HEXAD profile
// @Tags questionnaire
// @Produce json
// @Success 200 {object} util.Response{data=model.HexadProfile}
// @Failure 404 {object} util.Response
// @Router /api/profile [get]
func (c *QuestionnaireController) Profile(ctx *gin.Context) {
	learnerID := util.GetLearnerID(ctx)
	if learnerID == 0 {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.ProfileService.Profile(learnerID)
	if err == gorm.ErrRecordNotFound {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}
