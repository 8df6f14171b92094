package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ludilearn_backend/internal/engine"
	"ludilearn_backend/internal/lms"
	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/repository"
	"ludilearn_backend/internal/util"
	"ludilearn_backend/pkg/logger"
	"ludilearn_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const scoreboardTTL = 30 * time.Second

// ElementService is the read path: it assembles module states and stored
// values, runs the engine and returns the derived state for the learner's
// active element.
type ElementService struct {
	CourseRepo      *repository.CourseRepository
	ElementRepo     *repository.GameElementRepository
	AttributionRepo *repository.AttributionRepository
	ParameterRepo   *repository.ParameterRepository
	Attribution     *AttributionService
	Provider        lms.Provider
	Redis           *redis.Client
}

func NewElementService(
	courseRepo *repository.CourseRepository,
	elementRepo *repository.GameElementRepository,
	attributionRepo *repository.AttributionRepository,
	parameterRepo *repository.ParameterRepository,
	attribution *AttributionService,
	provider lms.Provider,
	rdb *redis.Client,
) *ElementService {
	return &ElementService{
		CourseRepo:      courseRepo,
		ElementRepo:     elementRepo,
		AttributionRepo: attributionRepo,
		ParameterRepo:   parameterRepo,
		Attribution:     attribution,
		Provider:        provider,
		Redis:           rdb,
	}
}

// ElementView is the payload returned to the rendering layer.
type ElementView struct {
	Element *model.GameElement   `json:"element,omitempty"`
	Type    model.GameElementType `json:"type"`
	World   model.World          `json:"world,omitempty"`
	State   *engine.DerivedState `json:"state"`
}

// GetGameElement resolves the learner's active element for a section and
// computes its derived state. Any resolution failure degrades to the
// "not gamified" fallback instead of erroring the page.
func (s *ElementService) GetGameElement(ctx context.Context, courseRef, sectionRef, learnerID uint) (*ElementView, error) {
	course, err := s.CourseRepo.FindByRef(courseRef)
	if err != nil {
		return s.fallbackView(nil)
	}
	section, err := s.CourseRepo.FindSection(course.ID, sectionRef)
	if err != nil {
		return s.fallbackView(nil)
	}

	attribution, err := s.AttributionRepo.FindBySectionAndLearner(section.ID, learnerID)
	if err == gorm.ErrRecordNotFound && !course.Restoring {
		// Lazy attribution on first view.
		if err := s.Attribution.EnrollLearner(course, learnerID); err != nil {
			logger.Log.Warn("lazy attribution failed", zap.Uint("learner", learnerID), zap.Error(err))
		}
		attribution, err = s.AttributionRepo.FindBySectionAndLearner(section.ID, learnerID)
	}
	if err != nil {
		states, _, statesErr := s.ModuleStates(ctx, section.ID, learnerID)
		if statesErr != nil {
			return nil, statesErr
		}
		return s.fallbackView(states)
	}

	element, err := s.ElementRepo.FindByID(attribution.GameElementID)
	if err != nil {
		// Integrity repair: the element vanished under the attribution.
		if delErr := s.AttributionRepo.Delete(attribution.ID); delErr != nil {
			return nil, delErr
		}
		return s.fallbackView(nil)
	}

	state, err := s.computeState(ctx, course, section.ID, element, attribution, learnerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ParameterRepo.SetElementUserValue(attribution.ID, engine.ValLastAccess,
		strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
		logger.Log.Warn("lastaccess write failed", zap.Error(err))
	}

	return &ElementView{Element: element, Type: element.Type, World: course.World, State: state}, nil
}

func (s *ElementService) computeState(ctx context.Context, course *model.Course, sectionID uint, element *model.GameElement, attribution *model.Attribution, learnerID uint) (*engine.DerivedState, error) {
	states, modules, err := s.ModuleStates(ctx, sectionID, learnerID)
	if err != nil {
		return nil, err
	}

	sectionParams, err := s.ParameterRepo.ElementParams(element.ID)
	if err != nil {
		return nil, err
	}
	moduleParams, err := s.ParameterRepo.ModuleParams(element.ID)
	if err != nil {
		return nil, err
	}
	userValues, err := s.ParameterRepo.ElementUserValues(attribution.ID)
	if err != nil {
		return nil, err
	}
	moduleUserValues, err := s.ParameterRepo.ModuleUserValues(attribution.ID)
	if err != nil {
		return nil, err
	}

	in := engine.Input{
		LearnerID:        learnerID,
		Modules:          states,
		SectionParams:    sectionParams,
		ModuleParams:     toEngineParams(moduleParams),
		UserValues:       userValues,
		ModuleUserValues: moduleUserValues,
		World:            course.World,
		Now:              time.Now().Unix(),
	}
	if element.Type == model.TypeRanking {
		scoreboard, err := s.scoreboard(ctx, element, modules)
		if err != nil {
			return nil, err
		}
		in.Scores = scoreboard
	}

	state, err := engine.Compute(element.Type, in)
	if err != nil {
		return nil, err
	}

	written, err := s.persistUpdates(attribution.ID, state.Updates)
	if err != nil {
		return nil, err
	}
	monitoring.RecordSkippedWrites(len(state.Updates) - written)
	return state, nil
}

// ModuleStates reads the raw grade/completion/availability state for every
// module of the section from the LMS collaborators.
func (s *ElementService) ModuleStates(ctx context.Context, sectionID, learnerID uint) ([]engine.ModuleState, []model.CourseModule, error) {
	modules, err := s.CourseRepo.Modules(sectionID)
	if err != nil {
		return nil, nil, err
	}

	states := make([]engine.ModuleState, 0, len(modules))
	for _, module := range modules {
		state := engine.ModuleState{
			CourseModuleID: module.ID,
			ModType:        module.ModType,
			Available:      module.Visible,
		}
		if module.Visible {
			available, err := s.Provider.Available(ctx, module.ModuleRef, learnerID)
			if err != nil {
				return nil, nil, fmt.Errorf("availability lookup for module %d: %w", module.ModuleRef, err)
			}
			state.Available = available
		}

		grade, err := s.Provider.GradeState(ctx, module.ModuleRef, learnerID)
		if err != nil {
			return nil, nil, fmt.Errorf("grade lookup for module %d: %w", module.ModuleRef, err)
		}
		state.Gradable = grade.Gradable
		state.Grade = grade.Grade
		state.GradeMax = grade.GradeMax

		completion, err := s.Provider.CompletionState(ctx, module.ModuleRef, learnerID)
		if err != nil {
			return nil, nil, fmt.Errorf("completion lookup for module %d: %w", module.ModuleRef, err)
		}
		state.CompletionEnabled = completion.TrackingEnabled
		state.Completed = completion.Completed

		states = append(states, state)
	}
	return states, modules, nil
}

// scoreboard snapshots every attributed learner's stored scores for the
// ranking element, cached briefly in redis; displayed ranks are eventually
// consistent by design.
func (s *ElementService) scoreboard(ctx context.Context, element *model.GameElement, modules []model.CourseModule) (*engine.Scoreboard, error) {
	cacheKey := fmt.Sprintf("ludilearn:scoreboard:%d", element.ID)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var board engine.Scoreboard
			if err := json.Unmarshal([]byte(cached), &board); err == nil {
				return &board, nil
			}
		}
	}

	board := &engine.Scoreboard{Modules: make(map[uint][]engine.LearnerScore)}
	sectionTotals := make(map[uint]float64)
	for _, module := range modules {
		scores, err := s.ParameterRepo.ScoresByModule(element.ID, module.ID)
		if err != nil {
			return nil, err
		}
		entries := make([]engine.LearnerScore, 0, len(scores))
		for learnerID, score := range scores {
			entries = append(entries, engine.LearnerScore{LearnerID: learnerID, Score: score})
			sectionTotals[learnerID] += score
		}
		board.Modules[module.ID] = entries
	}
	for learnerID, total := range sectionTotals {
		board.Section = append(board.Section, engine.LearnerScore{LearnerID: learnerID, Score: total})
	}

	if s.Redis != nil {
		if encoded, err := json.Marshal(board); err == nil {
			s.Redis.Set(ctx, cacheKey, encoded, scoreboardTTL)
		}
	}
	return board, nil
}

// persistUpdates applies the engine's pending writes and reports how many
// rows actually changed; failures on one value do not corrupt the others,
// writes are per-field upserts.
func (s *ElementService) persistUpdates(attributionID uint, updates []engine.ValueUpdate) (int, error) {
	written := 0
	var firstErr error
	for _, update := range updates {
		var wrote bool
		var err error
		if update.CourseModuleID == 0 {
			wrote, err = s.ParameterRepo.SetElementUserValue(attributionID, update.Name, update.Value)
		} else {
			wrote, err = s.ParameterRepo.SetModuleUserValue(attributionID, update.CourseModuleID, update.Name, update.Value)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if wrote {
			written++
		}
	}
	return written, firstErr
}

// EquipItem equips an owned avatar item in a slot. The flag is written to
// every avatar attribution the learner holds in the course so all sections
// render the same outfit.
func (s *ElementService) EquipItem(courseRef, learnerID uint, theme, slot int) error {
	course, err := s.CourseRepo.FindByRef(courseRef)
	if err != nil {
		return util.ErrCourseNotFound
	}
	layout := engine.Layout(course.World)
	if !layout.ValidItem(theme, slot) {
		return util.ErrItemNotOwned
	}

	elements, err := s.ElementRepo.FindByCourse(course.ID)
	if err != nil {
		return err
	}

	var attributions []*model.Attribution
	owned := false
	for _, element := range elements {
		if element.Type != model.TypeAvatar {
			continue
		}
		attribution, err := s.AttributionRepo.FindByElementAndLearner(element.ID, learnerID)
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return err
		}
		attributions = append(attributions, attribution)

		values, err := s.ParameterRepo.ElementUserValues(attribution.ID)
		if err != nil {
			return err
		}
		if values[engine.ItemOwnedKey(theme, slot)] == "1" {
			owned = true
		}
	}

	if !owned {
		return util.ErrItemNotOwned
	}

	for _, attribution := range attributions {
		if _, err := s.ParameterRepo.SetElementUserValue(attribution.ID,
			engine.ItemEquippedKey(slot), strconv.Itoa(theme)); err != nil {
			return err
		}
	}
	return nil
}

// UpdateSectionParameter validates and stores a section-scoped setting.
// Unknown keys are rejected at this boundary.
func (s *ElementService) UpdateSectionParameter(elementID uint, name, value string) error {
	element, err := s.ElementRepo.FindByID(elementID)
	if err != nil {
		return util.ErrElementNotFound
	}
	if !engine.KnownElementParam(element.Type, name) {
		return util.ErrUnknownParameter
	}
	return s.ParameterRepo.SetElementParam(element.ID, name, value)
}

// UpdateModuleParameter validates and stores a module-scoped setting, such
// as the editor's gamified toggle.
func (s *ElementService) UpdateModuleParameter(elementID, moduleID uint, name, value string) error {
	element, err := s.ElementRepo.FindByID(elementID)
	if err != nil {
		return util.ErrElementNotFound
	}
	if !engine.KnownModuleParam(element.Type, name) {
		return util.ErrUnknownParameter
	}
	return s.ParameterRepo.SetModuleParam(element.ID, moduleID, name, value)
}

// fallbackView is the explicit "not gamified" answer used whenever an
// element cannot be resolved.
func (s *ElementService) fallbackView(states []engine.ModuleState) (*ElementView, error) {
	state, err := engine.Compute(model.TypeNoGamified, engine.Input{Modules: states})
	if err != nil {
		return nil, err
	}
	return &ElementView{Type: model.TypeNoGamified, State: state}, nil
}

func toEngineParams(raw map[uint]map[string]string) map[uint]engine.Params {
	params := make(map[uint]engine.Params, len(raw))
	for id, values := range raw {
		params[id] = engine.Params(values)
	}
	return params
}
