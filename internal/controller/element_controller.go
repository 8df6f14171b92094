package controller

import (
	"errors"
	"net/http"

	"ludilearn_backend/internal/engine"
	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/service"
	"ludilearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ElementController struct {
	ElementService *service.ElementService
	StorageService *service.StorageService
}

func NewElementController(elementService *service.ElementService, storageService *service.StorageService) *ElementController {
	return &ElementController{ElementService: elementService, StorageService: storageService}
}

// GetGameElement godoc
// @Summary Section game element for the current learner
// @Description Resolves the learner's attributed element and returns its derived state; degrades to a "not gamified" view when nothing is attributed
// @Tags elements
// @Produce json
// @Param courseId path int true "LMS course id"
// @Param sectionId path int true "LMS section id"
// @Success 200 {object} util.Response{data=service.ElementView}
// @Failure 500 {object} util.Response
// @Router /api/courses/{courseId}/sections/{sectionId}/element [get]
func (c *ElementController) GetGameElement(ctx *gin.Context) {
	courseRef := util.MustParseUint(ctx.Param("courseId"))
	sectionRef := util.MustParseUint(ctx.Param("sectionId"))
	learnerID := util.GetLearnerID(ctx)
	if courseRef == 0 || sectionRef == 0 || learnerID == 0 {
		util.BadRequest(ctx, "invalid course, section or learner id")
		return
	}

	view, err := c.ElementService.GetGameElement(ctx.Request.Context(), courseRef, sectionRef, learnerID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// EquipRequest selects an owned avatar item for a slot.
// swagger:model EquipRequest
type EquipRequest struct {
	Theme int `json:"theme" binding:"required,min=1"`
	Slot  int `json:"slot" binding:"required,min=1"`
}

// EquipItem godoc
// @Summary Equip an avatar item
// @Description Equips an owned item in the given slot for the current learner
// @Tags elements
// @Accept json
// @Produce json
// @Param courseId path int true "LMS course id"
// @Param body body EquipRequest true "item to equip"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Router /api/courses/{courseId}/avatar/equip [post]
func (c *ElementController) EquipItem(ctx *gin.Context) {
	courseRef := util.MustParseUint(ctx.Param("courseId"))
	learnerID := util.GetLearnerID(ctx)
	if courseRef == 0 || learnerID == 0 {
		util.BadRequest(ctx, "invalid course or learner id")
		return
	}

	var req EquipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.ElementService.EquipItem(courseRef, learnerID, req.Theme, req.Slot)
	switch {
	case errors.Is(err, util.ErrCourseNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrItemNotOwned):
		util.Success(ctx, gin.H{"equipped": false})
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, gin.H{"equipped": true})
	}
}

// UpdateSectionParameter godoc
// @Summary Update a section-scoped element parameter
// @Tags settings
// @Accept json
// @Produce json
// @Param id path int true "game element id"
// @Param name path string true "parameter name"
// @Param body body ParamRequest true "new value"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Router /api/elements/{id}/params/{name} [put]
func (c *ElementController) UpdateSectionParameter(ctx *gin.Context) {
	elementID := util.MustParseUint(ctx.Param("id"))
	name := ctx.Param("name")

	var req ParamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.ElementService.UpdateSectionParameter(elementID, name, req.Value)
	writeParamResult(ctx, err)
}

// UpdateModuleParameter godoc
// @Summary Update a module-scoped element parameter
// @Tags settings
// @Accept json
// @Produce json
// @Param id path int true "game element id"
// @Param moduleId path int true "course module id"
// @Param name path string true "parameter name"
// @Param body body ParamRequest true "new value"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Router /api/elements/{id}/modules/{moduleId}/params/{name} [put]
func (c *ElementController) UpdateModuleParameter(ctx *gin.Context) {
	elementID := util.MustParseUint(ctx.Param("id"))
	moduleID := util.MustParseUint(ctx.Param("moduleId"))
	name := ctx.Param("name")

	var req ParamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.ElementService.UpdateModuleParameter(elementID, moduleID, name, req.Value)
	writeParamResult(ctx, err)
}

// ItemAsset is one avatar grid cell with its image location.
// swagger:model ItemAsset
type ItemAsset struct {
	Theme int    `json:"theme"`
	Slot  int    `json:"slot"`
	URL   string `json:"url"`
}

// WorldItems godoc
// @Summary Avatar item grid for a world
// @Description Enumerates every item of the world with its image URL
// @Tags elements
// @Produce json
// @Param world path string true "world name (school, professional, fantasy)"
// @Success 200 {object} util.Response{data=[]ItemAsset}
// @Router /api/worlds/{world}/items [get]
func (c *ElementController) WorldItems(ctx *gin.Context) {
	world := model.World(ctx.Param("world"))
	layout := engine.Layout(world)

	items := make([]ItemAsset, 0, layout.TotalItems())
	for theme := 1; theme <= layout.Themes; theme++ {
		for slot := 1; slot <= layout.Slots; slot++ {
			items = append(items, ItemAsset{
				Theme: theme,
				Slot:  slot,
				URL:   c.StorageService.ItemURL(world, theme, slot),
			})
		}
	}
	util.Success(ctx, items)
}

// UploadItemAsset godoc
// @Summary Replace an avatar item image
// @Tags elements
// @Accept mpfd
// @Produce json
// @Param world path string true "world name"
// @Param theme path int true "theme"
// @Param slot path int true "slot"
// @Param file formData file true "image"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Router /api/worlds/{world}/items/{theme}/{slot}/asset [put]
func (c *ElementController) UploadItemAsset(ctx *gin.Context) {
	world := model.World(ctx.Param("world"))
	theme := int(util.MustParseUint(ctx.Param("theme")))
	slot := int(util.MustParseUint(ctx.Param("slot")))
	if !engine.Layout(world).ValidItem(theme, slot) {
		util.BadRequest(ctx, "unknown item")
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	file, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	url, err := c.StorageService.UploadItemAsset(ctx.Request.Context(), world, theme, slot,
		file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

// ParamRequest carries one parameter value.
// swagger:model ParamRequest
type ParamRequest struct {
	Value string `json:"value" binding:"required"`
}

func writeParamResult(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrElementNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrUnknownParameter):
		util.Error(ctx, http.StatusBadRequest, "unknown parameter name")
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, gin.H{"updated": true})
	}
}
