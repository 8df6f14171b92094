package controller

import (
	"context"
	"errors"

	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/repository"
	"ludilearn_backend/internal/service"
	"ludilearn_backend/internal/util"
	"ludilearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettingsController owns the staff-facing course configuration: conversion,
// policy and world changes, per-section variant selection.
type SettingsController struct {
	CourseRepo  *repository.CourseRepository
	Attribution *service.AttributionService
	Refresh     *service.RefreshService
}

func NewSettingsController(attribution *service.AttributionService, refresh *service.RefreshService) *SettingsController {
	return &SettingsController{
		CourseRepo:  attribution.CourseRepo,
		Attribution: attribution,
		Refresh:     refresh,
	}
}

// SettingsRequest updates the course gamification settings. Empty fields keep
// their current value.
// swagger:model SettingsRequest
type SettingsRequest struct {
	Policy      string `json:"policy" binding:"omitempty,oneof=manual automatic bysection"`
	DefaultType string `json:"defaultType"`
	World       string `json:"world" binding:"omitempty,oneof=school professional fantasy"`
}

// UpdateSettings godoc
// @Summary Update course gamification settings
// @Description Changes policy, default element type or avatar world. Converts the course on first contact, then re-syncs attributions and recomputes progression.
// @Tags settings
// @Accept json
// @Produce json
// @Param courseId path int true "LMS course id"
// @Param body body SettingsRequest true "settings"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Router /api/courses/{courseId}/settings [put]
func (c *SettingsController) UpdateSettings(ctx *gin.Context) {
	courseRef := util.MustParseUint(ctx.Param("courseId"))
	if courseRef == 0 {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req SettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseRepo.FindByRef(courseRef)
	if err == gorm.ErrRecordNotFound {
		course, err = c.Attribution.ConvertCourse(courseRef,
			policyOrDefault(req.Policy), typeOrDefault(req.DefaultType), model.World(req.World))
		if err != nil {
			writeSettingsError(ctx, err)
			return
		}
		util.Created(ctx, course)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	if req.World != "" {
		course.World = model.World(req.World)
		if err := c.CourseRepo.Update(course); err != nil {
			util.LogInternalError(ctx, err)
			return
		}
	}

	policy := course.Policy
	if req.Policy != "" {
		policy = model.AssignmentPolicy(req.Policy)
	}
	if err := c.Attribution.PolicyChange(ctx.Request.Context(), course, policy, model.GameElementType(req.DefaultType)); err != nil {
		writeSettingsError(ctx, err)
		return
	}

	// Recompute derived state under the new settings in the background; the
	// settings change itself is already durable.
	go func(course model.Course) {
		if err := c.Refresh.RefreshAllProgression(context.Background(), &course); err != nil {
			logger.Log.Warn("refresh after settings change failed", zap.Uint("course", course.ID), zap.Error(err))
		}
	}(*course)

	util.Success(ctx, course)
}

// SectionTypeRequest selects the variant for one section under the bysection
// policy.
// swagger:model SectionTypeRequest
type SectionTypeRequest struct {
	Type string `json:"type" binding:"required"`
}

// SetSectionType godoc
// @Summary Select the game element variant for a section
// @Tags settings
// @Accept json
// @Produce json
// @Param courseId path int true "LMS course id"
// @Param sectionId path int true "LMS section id"
// @Param body body SectionTypeRequest true "variant"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Router /api/courses/{courseId}/sections/{sectionId}/type [put]
func (c *SettingsController) SetSectionType(ctx *gin.Context) {
	courseRef := util.MustParseUint(ctx.Param("courseId"))
	sectionRef := util.MustParseUint(ctx.Param("sectionId"))

	var req SectionTypeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseRepo.FindByRef(courseRef)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	section, err := c.CourseRepo.FindSection(course.ID, sectionRef)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	err = c.Attribution.SetSectionType(ctx.Request.Context(), course, section.ID, model.GameElementType(req.Type))
	if err != nil {
		writeSettingsError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": true})
}

func writeSettingsError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUnknownElementType):
		util.BadRequest(ctx, "unknown game element type")
	case errors.Is(err, util.ErrCourseRestoring):
		util.Error(ctx, 409, "course restore in progress")
	default:
		util.LogInternalError(ctx, err)
	}
}

func policyOrDefault(raw string) model.AssignmentPolicy {
	if raw == "" {
		return model.PolicyManual
	}
	return model.AssignmentPolicy(raw)
}

func typeOrDefault(raw string) model.GameElementType {
	if raw == "" {
		return model.TypeNoGamified
	}
	return model.GameElementType(raw)
}
