package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/repository"
	"ludilearn_backend/pkg/logger"

	"go.uber.org/zap"
)

// hexadQuestionType maps the 12 questionnaire items to their HEXAD dimension,
// two items per dimension (Tondello et al. HEXAD-12 ordering). Answers are a
// 1..7 Likert scale.
var hexadQuestionType = map[int]model.HexadType{
	1:  model.HexadPhilanthropist,
	2:  model.HexadSocialiser,
	3:  model.HexadFreeSpirit,
	4:  model.HexadAchiever,
	5:  model.HexadPlayer,
	6:  model.HexadDisruptor,
	7:  model.HexadPhilanthropist,
	8:  model.HexadSocialiser,
	9:  model.HexadFreeSpirit,
	10: model.HexadAchiever,
	11: model.HexadPlayer,
	12: model.HexadDisruptor,
}

// hexadOrder fixes the reporting order and the tie break: the earlier
// dimension wins when affinity sums are equal.
var hexadOrder = []model.HexadType{
	model.HexadAchiever,
	model.HexadPlayer,
	model.HexadSocialiser,
	model.HexadFreeSpirit,
	model.HexadDisruptor,
	model.HexadPhilanthropist,
}

// ProfileService scores the HEXAD questionnaire and keeps attributions in
// sync with the resulting player type.
type ProfileService struct {
	ProfileRepo *repository.ProfileRepository
	CourseRepo  *repository.CourseRepository
	Attribution *AttributionService
}

func NewProfileService(
	profileRepo *repository.ProfileRepository,
	courseRepo *repository.CourseRepository,
	attribution *AttributionService,
) *ProfileService {
	return &ProfileService{
		ProfileRepo: profileRepo,
		CourseRepo:  courseRepo,
		Attribution: attribution,
	}
}

// SubmitQuestionnaire stores the raw answers, computes the learner's profile
// and re-attributes them in every automatic-policy course they appear in.
func (s *ProfileService) SubmitQuestionnaire(ctx context.Context, learnerID uint, answers []model.HexadAnswer) (*model.HexadProfile, error) {
	for _, answer := range answers {
		if _, ok := hexadQuestionType[answer.QuestionID]; !ok {
			return nil, fmt.Errorf("unknown questionnaire item %d", answer.QuestionID)
		}
		if answer.Answer < 1 || answer.Answer > 7 {
			return nil, fmt.Errorf("answer out of range for item %d", answer.QuestionID)
		}
	}
	if err := s.ProfileRepo.SaveAnswers(learnerID, answers); err != nil {
		return nil, err
	}

	stored, err := s.ProfileRepo.Answers(learnerID)
	if err != nil {
		return nil, err
	}

	profile := ScoreHexad(learnerID, stored)
	if err := s.ProfileRepo.Save(profile); err != nil {
		return nil, err
	}

	s.reattribute(ctx, learnerID)
	return profile, nil
}

// Profile returns the stored profile for a learner.
func (s *ProfileService) Profile(learnerID uint) (*model.HexadProfile, error) {
	return s.ProfileRepo.FindByLearner(learnerID)
}

// ScoreHexad sums the Likert answers per dimension and picks the dominant
// type, breaking ties by the fixed dimension order.
func ScoreHexad(learnerID uint, answers []model.HexadAnswer) *model.HexadProfile {
	affinities := make(map[model.HexadType]int, len(hexadOrder))
	for _, answer := range answers {
		typ, ok := hexadQuestionType[answer.QuestionID]
		if !ok {
			continue
		}
		affinities[typ] += answer.Answer
	}

	dominant := hexadOrder[0]
	for _, typ := range hexadOrder {
		if affinities[typ] > affinities[dominant] {
			dominant = typ
		}
	}

	parts := make([]string, 0, len(hexadOrder))
	for _, typ := range hexadOrder {
		parts = append(parts, fmt.Sprintf("%s:%d", typ, affinities[typ]))
	}

	return &model.HexadProfile{
		LearnerID:          learnerID,
		Type:               dominant,
		CombinedAffinities: strings.Join(parts, ","),
	}
}

// reattribute re-runs the policy in every automatic course so the new profile
// takes effect without waiting for a reconciliation pass. Failures are logged
// per course; the questionnaire submission itself already succeeded.
func (s *ProfileService) reattribute(ctx context.Context, learnerID uint) {
	var courses []model.Course
	if err := s.CourseRepo.DB.Where("policy = ?", model.PolicyAutomatic).Find(&courses).Error; err != nil {
		logger.Log.Warn("automatic course lookup failed", zap.Error(err))
		return
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	for i := range courses {
		course := &courses[i]
		if course.Restoring {
			continue
		}
		enrolled, err := s.Attribution.Provider.EnrolledLearners(ctx, course.CourseRef)
		if err != nil {
			logger.Log.Warn("roster lookup failed", zap.Uint("course", course.ID), zap.Error(err))
			continue
		}
		member := false
		for _, id := range enrolled {
			if id == learnerID {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		if err := s.Attribution.EnrollLearner(course, learnerID); err != nil {
			logger.Log.Warn("re-attribution after questionnaire failed",
				zap.Uint("course", course.ID), zap.Uint("learner", learnerID), zap.Error(err))
		}
	}
}
