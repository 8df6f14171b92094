package service

import (
	"context"

	"ludilearn_backend/internal/engine"
	"ludilearn_backend/internal/lms"
	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/repository"
	"ludilearn_backend/internal/util"
	"ludilearn_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttributionService owns the (course, section, learner) -> game element
// binding: policies, enrollment, structural re-sync and cascade cleanup.
type AttributionService struct {
	CourseRepo      *repository.CourseRepository
	ElementRepo     *repository.GameElementRepository
	AttributionRepo *repository.AttributionRepository
	ParameterRepo   *repository.ParameterRepository
	ProfileRepo     *repository.ProfileRepository
	Provider        lms.Provider
}

func NewAttributionService(
	courseRepo *repository.CourseRepository,
	elementRepo *repository.GameElementRepository,
	attributionRepo *repository.AttributionRepository,
	parameterRepo *repository.ParameterRepository,
	profileRepo *repository.ProfileRepository,
	provider lms.Provider,
) *AttributionService {
	return &AttributionService{
		CourseRepo:      courseRepo,
		ElementRepo:     elementRepo,
		AttributionRepo: attributionRepo,
		ParameterRepo:   parameterRepo,
		ProfileRepo:     profileRepo,
		Provider:        provider,
	}
}

// ConvertCourse registers a course for gamification with its settings.
// Sections arrive afterwards through structure events.
func (s *AttributionService) ConvertCourse(courseRef uint, policy model.AssignmentPolicy, defaultType model.GameElementType, world model.World) (*model.Course, error) {
	if course, err := s.CourseRepo.FindByRef(courseRef); err == nil {
		return course, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if !model.ValidType(defaultType) {
		return nil, util.ErrUnknownElementType
	}

	course := &model.Course{
		CourseRef:   courseRef,
		Policy:      policy,
		DefaultType: defaultType,
		World:       world,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

// SectionCreated mirrors the new section, creates one element per known type
// with default parameters, and attributes every enrolled learner.
func (s *AttributionService) SectionCreated(ctx context.Context, course *model.Course, sectionRef uint, position int) (*model.Section, error) {
	section := &model.Section{CourseID: course.ID, SectionRef: sectionRef, Position: position}
	if err := s.CourseRepo.CreateSection(section); err != nil {
		return nil, err
	}
	if err := s.ensureSectionElements(course.ID, section.ID); err != nil {
		return nil, err
	}

	if course.Restoring {
		// The importer recreates attributions itself.
		return section, nil
	}

	learners, err := s.Provider.EnrolledLearners(ctx, course.CourseRef)
	if err != nil {
		return section, err
	}
	for _, learnerID := range learners {
		if err := s.attributeSection(course, section.ID, learnerID, false); err != nil {
			logger.Log.Warn("attribution on section create failed",
				zap.Uint("section", section.ID), zap.Uint("learner", learnerID), zap.Error(err))
		}
	}
	return section, nil
}

// ensureSectionElements creates the per-type element slots and seeds their
// default section parameters.
func (s *AttributionService) ensureSectionElements(courseID, sectionID uint) error {
	for _, typ := range model.AllTypes {
		if _, err := s.ElementRepo.FindBySectionAndType(sectionID, typ); err == nil {
			continue
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		element := &model.GameElement{CourseID: courseID, SectionID: sectionID, Type: typ}
		if err := s.ElementRepo.Create(element); err != nil {
			return err
		}
		for name, value := range engine.ElementDefaults[typ] {
			if err := s.ParameterRepo.SetElementParam(element.ID, name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ModuleCreated mirrors a new module and seeds its per-type module
// parameters on every element of its section.
func (s *AttributionService) ModuleCreated(sectionID, moduleRef uint, modType string, position int) (*model.CourseModule, error) {
	module := &model.CourseModule{
		SectionID: sectionID,
		ModuleRef: moduleRef,
		ModType:   modType,
		Position:  position,
		Visible:   true,
	}
	if err := s.CourseRepo.CreateModule(module); err != nil {
		return nil, err
	}

	elements, err := s.ElementRepo.FindBySection(sectionID)
	if err != nil {
		return nil, err
	}
	for _, element := range elements {
		for name, value := range engine.ModuleDefaults[element.Type] {
			if err := s.ParameterRepo.SetModuleParam(element.ID, module.ID, name, value); err != nil {
				return nil, err
			}
		}
	}
	return module, nil
}

// ModuleMoved re-points the module's parameters and per-learner values to the
// matching-typed elements of its new section, preserving data instead of
// resetting it.
func (s *AttributionService) ModuleMoved(module *model.CourseModule, newSectionID uint, position int) error {
	oldSectionID := module.SectionID
	if oldSectionID == newSectionID {
		return s.CourseRepo.MoveModule(module.ID, newSectionID, position)
	}

	oldElements, err := s.ElementRepo.FindBySection(oldSectionID)
	if err != nil {
		return err
	}
	for _, oldElement := range oldElements {
		newElement, err := s.ElementRepo.FindBySectionAndType(newSectionID, oldElement.Type)
		if err != nil {
			return err
		}

		if err := s.ParameterRepo.MoveModuleParams(module.ID, oldElement.ID, newElement.ID); err != nil {
			return err
		}

		attributions, err := s.AttributionRepo.FindByElement(oldElement.ID)
		if err != nil {
			return err
		}
		for _, oldAttribution := range attributions {
			newAttribution, err := s.AttributionRepo.FindByElementAndLearner(newElement.ID, oldAttribution.LearnerID)
			if err == gorm.ErrRecordNotFound {
				newAttribution = &model.Attribution{GameElementID: newElement.ID, LearnerID: oldAttribution.LearnerID}
				if err := s.AttributionRepo.Create(newAttribution); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			if err := s.ParameterRepo.MoveModuleUserValues(module.ID, oldAttribution.ID, newAttribution.ID); err != nil {
				return err
			}
		}
	}

	return s.CourseRepo.MoveModule(module.ID, newSectionID, position)
}

// ModuleDeleted drops the module mirror and every parameter or value scoped
// to it.
func (s *AttributionService) ModuleDeleted(moduleID uint) error {
	if err := s.ParameterRepo.DeleteModuleValues(moduleID); err != nil {
		return err
	}
	return s.CourseRepo.DeleteModule(moduleID)
}

// SectionDeleted cascades the section's elements, attributions and values.
func (s *AttributionService) SectionDeleted(sectionID uint) error {
	modules, err := s.CourseRepo.Modules(sectionID)
	if err != nil {
		return err
	}
	for _, module := range modules {
		if err := s.ModuleDeleted(module.ID); err != nil {
			return err
		}
	}
	if err := s.ElementRepo.DeleteBySection(sectionID); err != nil {
		return err
	}
	return s.CourseRepo.DeleteSection(sectionID)
}

// CourseDeleted cascades every section of the course.
func (s *AttributionService) CourseDeleted(course *model.Course) error {
	sections, err := s.CourseRepo.Sections(course.ID)
	if err != nil {
		return err
	}
	for _, section := range sections {
		if err := s.SectionDeleted(section.ID); err != nil {
			return err
		}
	}
	return s.CourseRepo.Delete(course)
}

// EnrollLearner attributes the learner in every section of the course under
// the current policy. Under the automatic policy a learner without a profile
// stays unattributed pending the questionnaire.
func (s *AttributionService) EnrollLearner(course *model.Course, learnerID uint) error {
	if course.Restoring {
		return util.ErrCourseRestoring
	}
	sections, err := s.CourseRepo.Sections(course.ID)
	if err != nil {
		return err
	}
	for _, section := range sections {
		if err := s.attributeSection(course, section.ID, learnerID, false); err != nil {
			return err
		}
	}
	return nil
}

// UnenrollLearner removes the learner's attributions and values in the
// course.
func (s *AttributionService) UnenrollLearner(course *model.Course, learnerID uint) error {
	return s.AttributionRepo.DeleteByLearner(course.ID, learnerID)
}

// Attribute binds a learner to a specific element. Calling it when already
// correctly attributed is a no-op; force deletes and recreates the binding.
// Attributing to a missing element is a caller error.
func (s *AttributionService) Attribute(elementID, learnerID uint, force bool) (*model.Attribution, error) {
	element, err := s.ElementRepo.FindByID(elementID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrElementNotFound
		}
		return nil, err
	}

	current, err := s.AttributionRepo.FindBySectionAndLearner(element.SectionID, learnerID)
	switch {
	case err == gorm.ErrRecordNotFound:
		attribution := &model.Attribution{GameElementID: elementID, LearnerID: learnerID}
		if err := s.AttributionRepo.Create(attribution); err != nil {
			return nil, err
		}
		return attribution, nil
	case err != nil:
		return nil, err
	}

	if current.GameElementID == elementID && !force {
		return current, nil
	}

	if force && current.GameElementID == elementID {
		if err := s.AttributionRepo.Delete(current.ID); err != nil {
			return nil, err
		}
		attribution := &model.Attribution{GameElementID: elementID, LearnerID: learnerID}
		if err := s.AttributionRepo.Create(attribution); err != nil {
			return nil, err
		}
		return attribution, nil
	}

	// Different element holds the binding: supersede it, migrating the
	// measurement data forward.
	attribution := &model.Attribution{GameElementID: elementID, LearnerID: learnerID}
	if err := s.AttributionRepo.Create(attribution); err != nil {
		return nil, err
	}
	if err := s.AttributionRepo.Supersede(current.ID, attribution.ID); err != nil {
		return nil, err
	}
	return attribution, nil
}

// PolicyChange switches the course policy and re-attributes every enrolled
// learner in every section, superseding rather than stacking.
func (s *AttributionService) PolicyChange(ctx context.Context, course *model.Course, policy model.AssignmentPolicy, defaultType model.GameElementType) error {
	if defaultType != "" {
		if !model.ValidType(defaultType) {
			return util.ErrUnknownElementType
		}
		course.DefaultType = defaultType
	}
	course.Policy = policy
	if err := s.CourseRepo.Update(course); err != nil {
		return err
	}
	return s.Reconcile(ctx, course)
}

// SetSectionType records the chosen variant for a section under the
// bysection policy and re-attributes the section's learners.
func (s *AttributionService) SetSectionType(ctx context.Context, course *model.Course, sectionID uint, typ model.GameElementType) error {
	if !model.ValidType(typ) {
		return util.ErrUnknownElementType
	}
	element, err := s.ElementRepo.FindBySectionAndType(sectionID, typ)
	if err != nil {
		return err
	}
	assignment := &model.SectionAssignment{
		CourseID:      course.ID,
		SectionID:     sectionID,
		GameElementID: element.ID,
	}
	if err := s.ElementRepo.SaveSectionAssignment(assignment); err != nil {
		return err
	}
	return s.reconcileSection(ctx, course, sectionID)
}

// Reconcile is the structural re-sync pass: for every section and enrolled
// learner, diff the desired element against the actual attribution and apply
// the minimal delta. Orphaned attributions are repaired by deletion.
func (s *AttributionService) Reconcile(ctx context.Context, course *model.Course) error {
	if course.Restoring {
		return util.ErrCourseRestoring
	}

	orphans, err := s.AttributionRepo.OrphanedAttributionIDs()
	if err != nil {
		return err
	}
	for _, id := range orphans {
		if err := s.AttributionRepo.Delete(id); err != nil {
			return err
		}
	}

	sections, err := s.CourseRepo.Sections(course.ID)
	if err != nil {
		return err
	}
	for _, section := range sections {
		if err := s.ensureSectionElements(course.ID, section.ID); err != nil {
			return err
		}
		if err := s.reconcileSection(ctx, course, section.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *AttributionService) reconcileSection(ctx context.Context, course *model.Course, sectionID uint) error {
	learners, err := s.Provider.EnrolledLearners(ctx, course.CourseRef)
	if err != nil {
		return err
	}
	enrolled := make(map[uint]bool, len(learners))
	for _, learnerID := range learners {
		enrolled[learnerID] = true
		if err := s.attributeSection(course, sectionID, learnerID, false); err != nil {
			return err
		}
	}

	// Learners attributed but no longer enrolled lose their binding.
	attributed, err := s.AttributionRepo.LearnersBySection(sectionID)
	if err != nil {
		return err
	}
	for _, learnerID := range attributed {
		if !enrolled[learnerID] {
			if err := s.AttributionRepo.DeleteByLearner(course.ID, learnerID); err != nil {
				return err
			}
		}
	}
	return nil
}

// attributeSection applies the policy for one learner in one section.
func (s *AttributionService) attributeSection(course *model.Course, sectionID, learnerID uint, force bool) error {
	typ, attributed, err := s.desiredType(course, sectionID, learnerID)
	if err != nil {
		return err
	}
	if !attributed {
		return nil
	}
	element, err := s.ElementRepo.FindBySectionAndType(sectionID, typ)
	if err != nil {
		return err
	}
	_, err = s.Attribute(element.ID, learnerID, force)
	return err
}

// desiredType resolves the target variant under the course policy. The
// second return is false when the learner should stay unattributed.
func (s *AttributionService) desiredType(course *model.Course, sectionID, learnerID uint) (model.GameElementType, bool, error) {
	switch course.Policy {
	case model.PolicyAutomatic:
		profile, err := s.ProfileRepo.FindByLearner(learnerID)
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		typ, ok := model.HexadElementType[profile.Type]
		if !ok {
			return "", false, util.ErrUnknownElementType
		}
		return typ, true, nil
	case model.PolicyBySection:
		assignment, err := s.ElementRepo.FindSectionAssignment(sectionID)
		if err == gorm.ErrRecordNotFound {
			return course.DefaultType, true, nil
		}
		if err != nil {
			return "", false, err
		}
		element, err := s.ElementRepo.FindByID(assignment.GameElementID)
		if err != nil {
			return "", false, err
		}
		return element.Type, true, nil
	default:
		return course.DefaultType, true, nil
	}
}
