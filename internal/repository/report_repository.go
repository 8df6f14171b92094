package repository

import (
	"ludilearn_backend/internal/model"

	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

// AttributionRow is one learner/section binding with its active variant.
type AttributionRow struct {
	AttributionID uint
	LearnerID     uint
	SectionID     uint
	Type          model.GameElementType
}

func (r *ReportRepository) AttributionsByCourse(courseID uint) ([]AttributionRow, error) {
	var rows []AttributionRow
	err := r.DB.Model(&model.Attribution{}).
		Select("ludilearn_attributions.id AS attribution_id, ludilearn_attributions.learner_id AS learner_id, ludilearn_game_elements.section_id AS section_id, ludilearn_game_elements.type AS type").
		Joins("JOIN ludilearn_game_elements ON ludilearn_game_elements.id = ludilearn_attributions.game_element_id").
		Where("ludilearn_game_elements.course_id = ?", courseID).
		Where("ludilearn_game_elements.deleted_at IS NULL").
		Scan(&rows).Error
	return rows, err
}

// AverageProgression returns the mean stored progression per attribution,
// truncated to an integer.
func (r *ReportRepository) AverageProgression(attributionIDs []uint) (map[uint]int, error) {
	if len(attributionIDs) == 0 {
		return map[uint]int{}, nil
	}
	type row struct {
		AttributionID uint
		Average       float64
	}
	var rows []row
	err := r.DB.Model(&model.ModuleUserValue{}).
		Select("attribution_id, AVG(value + 0) AS average").
		Where("attribution_id IN ? AND name = ?", attributionIDs, "progression").
		Group("attribution_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	averages := make(map[uint]int, len(rows))
	for _, entry := range rows {
		averages[entry.AttributionID] = int(entry.Average)
	}
	return averages, nil
}

// LastAccess returns the stored lastaccess unix time per attribution.
func (r *ReportRepository) LastAccess(attributionIDs []uint) (map[uint]string, error) {
	if len(attributionIDs) == 0 {
		return map[uint]string{}, nil
	}
	var rows []model.ElementUserValue
	err := r.DB.Where("attribution_id IN ? AND name = ?", attributionIDs, "lastaccess").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	values := make(map[uint]string, len(rows))
	for _, row := range rows {
		values[row.AttributionID] = row.Value
	}
	return values, nil
}
