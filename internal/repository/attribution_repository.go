package repository

import (
	"ludilearn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttributionRepository struct {
	DB *gorm.DB
}

func NewAttributionRepository(db *gorm.DB) *AttributionRepository {
	return &AttributionRepository{DB: db}
}

func (r *AttributionRepository) FindByID(id uint) (*model.Attribution, error) {
	var attribution model.Attribution
	err := r.DB.First(&attribution, id).Error
	if err != nil {
		return nil, err
	}
	return &attribution, nil
}

func (r *AttributionRepository) FindByElementAndLearner(elementID, learnerID uint) (*model.Attribution, error) {
	var attribution model.Attribution
	err := r.DB.Where("game_element_id = ? AND learner_id = ?", elementID, learnerID).
		First(&attribution).Error
	if err != nil {
		return nil, err
	}
	return &attribution, nil
}

// FindBySectionAndLearner resolves the learner's active attribution for a
// section, whichever element type currently holds it.
func (r *AttributionRepository) FindBySectionAndLearner(sectionID, learnerID uint) (*model.Attribution, error) {
	var attribution model.Attribution
	err := r.DB.
		Joins("JOIN ludilearn_game_elements ON ludilearn_game_elements.id = ludilearn_attributions.game_element_id").
		Where("ludilearn_game_elements.section_id = ? AND ludilearn_attributions.learner_id = ?", sectionID, learnerID).
		Where("ludilearn_game_elements.deleted_at IS NULL").
		First(&attribution).Error
	if err != nil {
		return nil, err
	}
	return &attribution, nil
}

func (r *AttributionRepository) FindByElement(elementID uint) ([]model.Attribution, error) {
	var attributions []model.Attribution
	err := r.DB.Where("game_element_id = ?", elementID).Find(&attributions).Error
	return attributions, err
}

func (r *AttributionRepository) LearnersBySection(sectionID uint) ([]uint, error) {
	var learners []uint
	err := r.DB.Model(&model.Attribution{}).
		Joins("JOIN ludilearn_game_elements ON ludilearn_game_elements.id = ludilearn_attributions.game_element_id").
		Where("ludilearn_game_elements.section_id = ?", sectionID).
		Distinct().Pluck("ludilearn_attributions.learner_id", &learners).Error
	return learners, err
}

// Create inserts the attribution; the unique constraint on
// (game_element_id, learner_id) makes concurrent enrollments collapse to one
// row instead of racing.
func (r *AttributionRepository) Create(attribution *model.Attribution) error {
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(attribution).Error
}

// Delete removes the attribution and its values for good. Hard deletes on
// purpose: the unique constraints must not keep tombstones that would block a
// later re-attribution of the same pair.
func (r *AttributionRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("attribution_id = ?", id).Delete(&model.ModuleUserValue{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("attribution_id = ?", id).Delete(&model.ElementUserValue{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Attribution{}, id).Error
	})
}

// Supersede re-points an attribution's measurement data to a new attribution
// and removes the old row, so a learner moved between variants keeps their
// history.
func (r *AttributionRepository) Supersede(oldID, newID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ModuleUserValue{}).Where("attribution_id = ?", oldID).
			Update("attribution_id", newID).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.ElementUserValue{}).Where("attribution_id = ?", oldID).
			Update("attribution_id", newID).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Attribution{}, oldID).Error
	})
}

// DeleteByLearner removes every attribution the learner holds in the course,
// used when an enrollment is withdrawn.
func (r *AttributionRepository) DeleteByLearner(courseID, learnerID uint) error {
	var ids []uint
	err := r.DB.Model(&model.Attribution{}).
		Joins("JOIN ludilearn_game_elements ON ludilearn_game_elements.id = ludilearn_attributions.game_element_id").
		Where("ludilearn_game_elements.course_id = ? AND ludilearn_attributions.learner_id = ?", courseID, learnerID).
		Pluck("ludilearn_attributions.id", &ids).Error
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.Delete(id); err != nil {
			return err
		}
	}
	return nil
}

// OrphanedAttributionIDs lists attributions whose element was deleted;
// integrity repair deletes them during reconciliation.
func (r *AttributionRepository) OrphanedAttributionIDs() ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Attribution{}).
		Joins("LEFT JOIN ludilearn_game_elements ON ludilearn_game_elements.id = ludilearn_attributions.game_element_id AND ludilearn_game_elements.deleted_at IS NULL").
		Where("ludilearn_game_elements.id IS NULL").
		Pluck("ludilearn_attributions.id", &ids).Error
	return ids, err
}
