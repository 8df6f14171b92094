package repository

import (
	"ludilearn_backend/internal/model"

	"gorm.io/gorm"
)

type GameElementRepository struct {
	DB *gorm.DB
}

func NewGameElementRepository(db *gorm.DB) *GameElementRepository {
	return &GameElementRepository{DB: db}
}

func (r *GameElementRepository) FindByID(id uint) (*model.GameElement, error) {
	var element model.GameElement
	err := r.DB.First(&element, id).Error
	if err != nil {
		return nil, err
	}
	return &element, nil
}

func (r *GameElementRepository) FindBySectionAndType(sectionID uint, typ model.GameElementType) (*model.GameElement, error) {
	var element model.GameElement
	err := r.DB.Where("section_id = ? AND type = ?", sectionID, typ).First(&element).Error
	if err != nil {
		return nil, err
	}
	return &element, nil
}

func (r *GameElementRepository) FindBySection(sectionID uint) ([]model.GameElement, error) {
	var elements []model.GameElement
	err := r.DB.Where("section_id = ?", sectionID).Find(&elements).Error
	return elements, err
}

func (r *GameElementRepository) FindByCourse(courseID uint) ([]model.GameElement, error) {
	var elements []model.GameElement
	err := r.DB.Where("course_id = ?", courseID).Find(&elements).Error
	return elements, err
}

func (r *GameElementRepository) Create(element *model.GameElement) error {
	return r.DB.Create(element).Error
}

// DeleteBySection removes the section's elements along with their params,
// attributions and user values. Cascade order matters: values first, then
// their owners.
func (r *GameElementRepository) DeleteBySection(sectionID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var elementIDs []uint
		if err := tx.Model(&model.GameElement{}).Where("section_id = ?", sectionID).
			Pluck("id", &elementIDs).Error; err != nil {
			return err
		}
		if len(elementIDs) == 0 {
			return nil
		}

		var attributionIDs []uint
		if err := tx.Model(&model.Attribution{}).Where("game_element_id IN ?", elementIDs).
			Pluck("id", &attributionIDs).Error; err != nil {
			return err
		}

		if len(attributionIDs) > 0 {
			if err := tx.Unscoped().Where("attribution_id IN ?", attributionIDs).
				Delete(&model.ModuleUserValue{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("attribution_id IN ?", attributionIDs).
				Delete(&model.ElementUserValue{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", attributionIDs).
				Delete(&model.Attribution{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Unscoped().Where("game_element_id IN ?", elementIDs).
			Delete(&model.ModuleParam{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("game_element_id IN ?", elementIDs).
			Delete(&model.ElementParam{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("section_id = ?", sectionID).
			Delete(&model.SectionAssignment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id IN ?", elementIDs).Delete(&model.GameElement{}).Error
	})
}

func (r *GameElementRepository) FindSectionAssignment(sectionID uint) (*model.SectionAssignment, error) {
	var assignment model.SectionAssignment
	err := r.DB.Where("section_id = ?", sectionID).First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *GameElementRepository) SaveSectionAssignment(assignment *model.SectionAssignment) error {
	existing, err := r.FindSectionAssignment(assignment.SectionID)
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(assignment).Error
	}
	if err != nil {
		return err
	}
	existing.GameElementID = assignment.GameElementID
	return r.DB.Save(existing).Error
}
