package service

import (
	"context"
	"fmt"

	"ludilearn_backend/internal/engine"
	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/repository"
	"ludilearn_backend/internal/util"
	"ludilearn_backend/pkg/logger"
	"ludilearn_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LMS event names accepted on the webhook route.
const (
	EventModuleGraded      = "module_graded"
	EventCompletionChanged = "completion_changed"
	EventAttemptSubmitted  = "quiz_attempt_submitted"
	EventAttemptUpdated    = "quiz_attempt_updated"
	EventAttemptDeleted    = "quiz_attempt_deleted"
	EventCourseReset       = "course_reset"
	EventSectionCreated    = "section_created"
	EventSectionDeleted    = "section_deleted"
	EventModuleCreated     = "module_created"
	EventModuleMoved       = "module_moved"
	EventModuleDeleted     = "module_deleted"
	EventModuleVisibility  = "module_visibility_changed"
	EventLearnerEnrolled   = "learner_enrolled"
	EventLearnerUnenrolled = "learner_unenrolled"
	EventRestoreStarted    = "restore_started"
	EventRestoreFinished   = "restore_finished"
	EventCourseDeleted     = "course_deleted"
)

// AttemptPayload carries the quiz attempt fields of an attempt event.
type AttemptPayload struct {
	TimeStart  int64   `json:"timestart"`
	TimeFinish int64   `json:"timefinish"`
	LostMarks  float64 `json:"lostmarks"`
}

// Event is the webhook envelope sent by the LMS plugin. Refs are the LMS-side
// identifiers; ids local to this service never cross the wire.
type Event struct {
	Type       string          `json:"type" binding:"required"`
	CourseRef  uint            `json:"courseid" binding:"required"`
	SectionRef uint            `json:"sectionid"`
	ModuleRef  uint            `json:"cmid"`
	LearnerID  uint            `json:"userid"`
	ModType    string          `json:"modtype"`
	Position   int             `json:"position"`
	Visible    bool            `json:"visible"`
	Attempt    *AttemptPayload `json:"attempt,omitempty"`
}

// RefreshService is the webhook-triggered orchestration layer: it maps LMS
// events to attribution changes and derived-state recomputations.
type RefreshService struct {
	CourseRepo      *repository.CourseRepository
	ElementRepo     *repository.GameElementRepository
	AttributionRepo *repository.AttributionRepository
	ParameterRepo   *repository.ParameterRepository
	Attribution     *AttributionService
	Elements        *ElementService
}

func NewRefreshService(
	courseRepo *repository.CourseRepository,
	elementRepo *repository.GameElementRepository,
	attributionRepo *repository.AttributionRepository,
	parameterRepo *repository.ParameterRepository,
	attribution *AttributionService,
	elements *ElementService,
) *RefreshService {
	return &RefreshService{
		CourseRepo:      courseRepo,
		ElementRepo:     elementRepo,
		AttributionRepo: attributionRepo,
		ParameterRepo:   parameterRepo,
		Attribution:     attribution,
		Elements:        elements,
	}
}

// Dispatch routes one event. Events for courses never converted to the
// gamified format are ignored; unknown event types are logged and dropped so
// a newer LMS plugin does not break the endpoint.
func (s *RefreshService) Dispatch(ctx context.Context, event Event) error {
	course, err := s.CourseRepo.FindByRef(event.CourseRef)
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	monitoring.RecordRefreshEvent(event.Type)

	switch event.Type {
	case EventModuleGraded, EventCompletionChanged:
		return s.refreshModule(ctx, course, event.ModuleRef, event.LearnerID)
	case EventAttemptSubmitted, EventAttemptUpdated:
		return s.foldAttempt(course, event)
	case EventAttemptDeleted:
		return s.removeAttempt(course, event)
	case EventCourseReset:
		return s.resetCourse(ctx, course)
	case EventSectionCreated:
		_, err := s.Attribution.SectionCreated(ctx, course, event.SectionRef, event.Position)
		return err
	case EventSectionDeleted:
		section, err := s.CourseRepo.FindSection(course.ID, event.SectionRef)
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return s.Attribution.SectionDeleted(section.ID)
	case EventModuleCreated:
		section, err := s.CourseRepo.FindSection(course.ID, event.SectionRef)
		if err != nil {
			return err
		}
		_, err = s.Attribution.ModuleCreated(section.ID, event.ModuleRef, event.ModType, event.Position)
		return err
	case EventModuleMoved:
		module, err := s.CourseRepo.FindModuleByRef(course.ID, event.ModuleRef)
		if err != nil {
			return err
		}
		section, err := s.CourseRepo.FindSection(course.ID, event.SectionRef)
		if err != nil {
			return err
		}
		return s.Attribution.ModuleMoved(module, section.ID, event.Position)
	case EventModuleDeleted:
		module, err := s.CourseRepo.FindModuleByRef(course.ID, event.ModuleRef)
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return s.Attribution.ModuleDeleted(module.ID)
	case EventModuleVisibility:
		module, err := s.CourseRepo.FindModuleByRef(course.ID, event.ModuleRef)
		if err != nil {
			return err
		}
		return s.CourseRepo.SetModuleVisible(module.ID, event.Visible)
	case EventLearnerEnrolled:
		return s.Attribution.EnrollLearner(course, event.LearnerID)
	case EventLearnerUnenrolled:
		return s.Attribution.UnenrollLearner(course, event.LearnerID)
	case EventRestoreStarted:
		return s.CourseRepo.SetRestoring(course.ID, true)
	case EventRestoreFinished:
		if err := s.CourseRepo.SetRestoring(course.ID, false); err != nil {
			return err
		}
		course.Restoring = false
		return s.Attribution.Reconcile(ctx, course)
	case EventCourseDeleted:
		return s.Attribution.CourseDeleted(course)
	default:
		logger.Log.Warn("unhandled lms event", zap.String("type", event.Type))
		return nil
	}
}

// refreshModule recomputes the derived state of the learner's attributed
// element in the module's section and persists the changed values.
func (s *RefreshService) refreshModule(ctx context.Context, course *model.Course, moduleRef, learnerID uint) error {
	module, err := s.CourseRepo.FindModuleByRef(course.ID, moduleRef)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrModuleNotFound
		}
		return err
	}
	return s.refreshLearner(ctx, course, module.SectionID, learnerID)
}

func (s *RefreshService) refreshLearner(ctx context.Context, course *model.Course, sectionID, learnerID uint) error {
	attribution, err := s.AttributionRepo.FindBySectionAndLearner(sectionID, learnerID)
	if err == gorm.ErrRecordNotFound {
		// Nothing attributed, nothing to refresh.
		return nil
	}
	if err != nil {
		return err
	}
	element, err := s.ElementRepo.FindByID(attribution.GameElementID)
	if err != nil {
		return err
	}
	_, err = s.Elements.computeState(ctx, course, sectionID, element, attribution, learnerID)
	return err
}

// foldAttempt merges a submitted or in-progress quiz attempt into the
// learner's persisted timer values. The data is kept even when the learner's
// current lens is not the timer, so a later supersede finds it in place.
func (s *RefreshService) foldAttempt(course *model.Course, event Event) error {
	module, attribution, params, err := s.attemptContext(course, event)
	if err != nil || attribution == nil {
		return err
	}

	prev, err := s.ParameterRepo.ModuleUserValues(attribution.ID)
	if err != nil {
		return err
	}
	updates := engine.FoldAttempt(prev[module.ID], engine.QuizAttempt{
		CourseModuleID: module.ID,
		TimeStart:      event.Attempt.TimeStart,
		TimeFinish:     event.Attempt.TimeFinish,
		LostMarks:      event.Attempt.LostMarks,
	}, params)

	written, err := s.Elements.persistUpdates(attribution.ID, updates)
	monitoring.RecordSkippedWrites(len(updates) - written)
	return err
}

// removeAttempt clears the stored best time when the deleted attempt was the
// one that produced it.
func (s *RefreshService) removeAttempt(course *model.Course, event Event) error {
	module, attribution, _, err := s.attemptContext(course, event)
	if err != nil || attribution == nil {
		return err
	}

	prev, err := s.ParameterRepo.ModuleUserValues(attribution.ID)
	if err != nil {
		return err
	}
	updates := engine.RemoveAttempt(prev[module.ID], engine.QuizAttempt{
		CourseModuleID: module.ID,
		TimeStart:      event.Attempt.TimeStart,
		TimeFinish:     event.Attempt.TimeFinish,
	})
	_, err = s.Elements.persistUpdates(attribution.ID, updates)
	return err
}

// attemptContext resolves the module, the learner's attribution and the timer
// section parameters for an attempt event. A nil attribution means the event
// concerns a learner this course never attributed.
func (s *RefreshService) attemptContext(course *model.Course, event Event) (*model.CourseModule, *model.Attribution, engine.Params, error) {
	if event.Attempt == nil {
		return nil, nil, nil, fmt.Errorf("attempt event %s without attempt payload", event.Type)
	}
	module, err := s.CourseRepo.FindModuleByRef(course.ID, event.ModuleRef)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil, util.ErrModuleNotFound
		}
		return nil, nil, nil, err
	}

	attribution, err := s.AttributionRepo.FindBySectionAndLearner(module.SectionID, event.LearnerID)
	if err == gorm.ErrRecordNotFound {
		return module, nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}

	timerElement, err := s.ElementRepo.FindBySectionAndType(module.SectionID, model.TypeTimer)
	if err != nil {
		return nil, nil, nil, err
	}
	params, err := s.ParameterRepo.ElementParams(timerElement.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return module, attribution, params, nil
}

// resetCourse drops every learner's attributions and values, then rebuilds
// attributions for the current roster from a clean slate.
func (s *RefreshService) resetCourse(ctx context.Context, course *model.Course) error {
	sections, err := s.CourseRepo.Sections(course.ID)
	if err != nil {
		return err
	}
	cleared := make(map[uint]bool)
	for _, section := range sections {
		learners, err := s.AttributionRepo.LearnersBySection(section.ID)
		if err != nil {
			return err
		}
		for _, learnerID := range learners {
			if cleared[learnerID] {
				continue
			}
			cleared[learnerID] = true
			if err := s.AttributionRepo.DeleteByLearner(course.ID, learnerID); err != nil {
				return err
			}
		}
	}
	return s.Attribution.Reconcile(ctx, course)
}

// RefreshAllProgression recomputes the derived state for every attributed
// learner in every section of the course. One learner's failure is logged and
// skipped so a bad row cannot stall the whole pass.
func (s *RefreshService) RefreshAllProgression(ctx context.Context, course *model.Course) error {
	sections, err := s.CourseRepo.Sections(course.ID)
	if err != nil {
		return err
	}
	for _, section := range sections {
		learners, err := s.AttributionRepo.LearnersBySection(section.ID)
		if err != nil {
			return err
		}
		for _, learnerID := range learners {
			if err := s.refreshLearner(ctx, course, section.ID, learnerID); err != nil {
				logger.Log.Warn("refresh failed",
					zap.Uint("section", section.ID), zap.Uint("learner", learnerID), zap.Error(err))
			}
		}
	}
	return nil
}
