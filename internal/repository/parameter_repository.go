package repository

import (
	"strconv"

	"ludilearn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParameterRepository struct {
	DB *gorm.DB
}

func NewParameterRepository(db *gorm.DB) *ParameterRepository {
	return &ParameterRepository{DB: db}
}

func (r *ParameterRepository) ElementParams(elementID uint) (map[string]string, error) {
	var rows []model.ElementParam
	if err := r.DB.Where("game_element_id = ?", elementID).Find(&rows).Error; err != nil {
		return nil, err
	}
	params := make(map[string]string, len(rows))
	for _, row := range rows {
		params[row.Name] = row.Value
	}
	return params, nil
}

func (r *ParameterRepository) SetElementParam(elementID uint, name, value string) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_element_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model.ElementParam{GameElementID: elementID, Name: name, Value: value}).Error
}

// ModuleParams returns the per-module parameter maps for one element, keyed
// by course module id.
func (r *ParameterRepository) ModuleParams(elementID uint) (map[uint]map[string]string, error) {
	var rows []model.ModuleParam
	if err := r.DB.Where("game_element_id = ?", elementID).Find(&rows).Error; err != nil {
		return nil, err
	}
	params := make(map[uint]map[string]string)
	for _, row := range rows {
		if params[row.CourseModuleID] == nil {
			params[row.CourseModuleID] = make(map[string]string)
		}
		params[row.CourseModuleID][row.Name] = row.Value
	}
	return params, nil
}

func (r *ParameterRepository) SetModuleParam(elementID, moduleID uint, name, value string) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_element_id"}, {Name: "course_module_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model.ModuleParam{
		GameElementID:  elementID,
		CourseModuleID: moduleID,
		Name:           name,
		Value:          value,
	}).Error
}

// MoveModuleParams re-points a module's parameter rows to another element,
// used when the module moves to a different section.
func (r *ParameterRepository) MoveModuleParams(moduleID, fromElementID, toElementID uint) error {
	return r.DB.Model(&model.ModuleParam{}).
		Where("game_element_id = ? AND course_module_id = ?", fromElementID, moduleID).
		Update("game_element_id", toElementID).Error
}

func (r *ParameterRepository) ElementUserValues(attributionID uint) (map[string]string, error) {
	var rows []model.ElementUserValue
	if err := r.DB.Where("attribution_id = ?", attributionID).Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Name] = row.Value
	}
	return values, nil
}

// SetElementUserValue persists one element-scoped user value, writing only
// when the stored value differs. The unique constraint plus the conflict
// clause keep concurrent first-writes from duplicating rows.
func (r *ParameterRepository) SetElementUserValue(attributionID uint, name, value string) (bool, error) {
	var existing model.ElementUserValue
	err := r.DB.Where("attribution_id = ? AND name = ?", attributionID, name).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		createErr := r.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attribution_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&model.ElementUserValue{AttributionID: attributionID, Name: name, Value: value}).Error
		return createErr == nil, createErr
	}
	if err != nil {
		return false, err
	}
	if existing.Value == value {
		return false, nil
	}
	existing.Value = value
	return true, r.DB.Save(&existing).Error
}

// ModuleUserValues returns the per-module user value maps for one
// attribution, keyed by course module id.
func (r *ParameterRepository) ModuleUserValues(attributionID uint) (map[uint]map[string]string, error) {
	var rows []model.ModuleUserValue
	if err := r.DB.Where("attribution_id = ?", attributionID).Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[uint]map[string]string)
	for _, row := range rows {
		if values[row.CourseModuleID] == nil {
			values[row.CourseModuleID] = make(map[string]string)
		}
		values[row.CourseModuleID][row.Name] = row.Value
	}
	return values, nil
}

// SetModuleUserValue is the write-if-different upsert for module-scoped user
// values. It reports whether a write actually happened.
func (r *ParameterRepository) SetModuleUserValue(attributionID, moduleID uint, name, value string) (bool, error) {
	var existing model.ModuleUserValue
	err := r.DB.Where("attribution_id = ? AND course_module_id = ? AND name = ?",
		attributionID, moduleID, name).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		createErr := r.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attribution_id"}, {Name: "course_module_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&model.ModuleUserValue{
			AttributionID:  attributionID,
			CourseModuleID: moduleID,
			Name:           name,
			Value:          value,
		}).Error
		return createErr == nil, createErr
	}
	if err != nil {
		return false, err
	}
	if existing.Value == value {
		return false, nil
	}
	existing.Value = value
	return true, r.DB.Save(&existing).Error
}

// MoveModuleUserValues re-points a module's user values from one attribution
// to another, preserving data when a module changes section.
func (r *ParameterRepository) MoveModuleUserValues(moduleID, fromAttributionID, toAttributionID uint) error {
	return r.DB.Model(&model.ModuleUserValue{}).
		Where("attribution_id = ? AND course_module_id = ?", fromAttributionID, moduleID).
		Update("attribution_id", toAttributionID).Error
}

// DeleteModuleValues removes every stored value and parameter for a deleted
// module.
func (r *ParameterRepository) DeleteModuleValues(moduleID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("course_module_id = ?", moduleID).Delete(&model.ModuleUserValue{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("course_module_id = ?", moduleID).Delete(&model.ModuleParam{}).Error
	})
}

// ScoresByModule aggregates one module's stored scores across every learner
// attributed to the element, for the ranking snapshot.
func (r *ParameterRepository) ScoresByModule(elementID, moduleID uint) (map[uint]float64, error) {
	type row struct {
		LearnerID uint
		Value     string
	}
	var rows []row
	err := r.DB.Model(&model.ModuleUserValue{}).
		Select("ludilearn_attributions.learner_id AS learner_id, ludilearn_module_user_values.value AS value").
		Joins("JOIN ludilearn_attributions ON ludilearn_attributions.id = ludilearn_module_user_values.attribution_id").
		Where("ludilearn_attributions.game_element_id = ? AND ludilearn_module_user_values.course_module_id = ? AND ludilearn_module_user_values.name = ?",
			elementID, moduleID, "score").
		Where("ludilearn_attributions.deleted_at IS NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	scores := make(map[uint]float64, len(rows))
	for _, entry := range rows {
		scores[entry.LearnerID] = parseFloat(entry.Value)
	}
	return scores, nil
}

func parseFloat(raw string) float64 {
	v, _ := strconv.ParseFloat(raw, 64)
	return v
}
