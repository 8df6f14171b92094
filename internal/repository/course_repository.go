package repository

import (
	"ludilearn_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) FindByRef(courseRef uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("course_ref = ?", courseRef).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) SetRestoring(courseID uint, restoring bool) error {
	return r.DB.Model(&model.Course{}).Where("id = ?", courseID).
		Update("restoring", restoring).Error
}

func (r *CourseRepository) Sections(courseID uint) ([]model.Section, error) {
	var sections []model.Section
	err := r.DB.Where("course_id = ?", courseID).Order("position, id").Find(&sections).Error
	return sections, err
}

func (r *CourseRepository) FindSection(courseID, sectionRef uint) (*model.Section, error) {
	var section model.Section
	err := r.DB.Where("course_id = ? AND section_ref = ?", courseID, sectionRef).First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *CourseRepository) FindSectionByID(id uint) (*model.Section, error) {
	var section model.Section
	err := r.DB.First(&section, id).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *CourseRepository) CreateSection(section *model.Section) error {
	return r.DB.Create(section).Error
}

func (r *CourseRepository) DeleteSection(sectionID uint) error {
	return r.DB.Unscoped().Delete(&model.Section{}, sectionID).Error
}

func (r *CourseRepository) Modules(sectionID uint) ([]model.CourseModule, error) {
	var modules []model.CourseModule
	err := r.DB.Where("section_id = ?", sectionID).Order("position, id").Find(&modules).Error
	return modules, err
}

func (r *CourseRepository) FindModuleByRef(courseID, moduleRef uint) (*model.CourseModule, error) {
	var module model.CourseModule
	err := r.DB.
		Joins("JOIN ludilearn_sections ON ludilearn_sections.id = ludilearn_course_modules.section_id").
		Where("ludilearn_sections.course_id = ? AND ludilearn_course_modules.module_ref = ?", courseID, moduleRef).
		First(&module).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *CourseRepository) CreateModule(module *model.CourseModule) error {
	return r.DB.Create(module).Error
}

func (r *CourseRepository) MoveModule(moduleID, newSectionID uint, position int) error {
	return r.DB.Model(&model.CourseModule{}).Where("id = ?", moduleID).
		Updates(map[string]interface{}{"section_id": newSectionID, "position": position}).Error
}

func (r *CourseRepository) DeleteModule(moduleID uint) error {
	return r.DB.Unscoped().Delete(&model.CourseModule{}, moduleID).Error
}

// Delete removes the course record itself; the unique course_ref must be
// reusable if the course is converted again later.
func (r *CourseRepository) Delete(course *model.Course) error {
	return r.DB.Unscoped().Delete(course).Error
}

func (r *CourseRepository) SetModuleVisible(moduleID uint, visible bool) error {
	return r.DB.Model(&model.CourseModule{}).Where("id = ?", moduleID).
		Update("visible", visible).Error
}
