package repository

import (
	"ludilearn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) FindByLearner(learnerID uint) (*model.HexadProfile, error) {
	var profile model.HexadProfile
	err := r.DB.Where("learner_id = ?", learnerID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Save(profile *model.HexadProfile) error {
	existing, err := r.FindByLearner(profile.LearnerID)
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(profile).Error
	}
	if err != nil {
		return err
	}
	existing.Type = profile.Type
	existing.CombinedAffinities = profile.CombinedAffinities
	return r.DB.Save(existing).Error
}

func (r *ProfileRepository) SaveAnswers(learnerID uint, answers []model.HexadAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range answers {
			answers[i].LearnerID = learnerID
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "learner_id"}, {Name: "question_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"answer"}),
			}).Create(&answers[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ProfileRepository) Answers(learnerID uint) ([]model.HexadAnswer, error) {
	var answers []model.HexadAnswer
	err := r.DB.Where("learner_id = ?", learnerID).Order("question_id").Find(&answers).Error
	return answers, err
}
