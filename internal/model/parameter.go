package model

// ElementParam is section-scoped configuration for one game element
// (multiplier, badge thresholds, penalties...). Values are stored as text;
// the engine parses them with per-variant defaults when absent or malformed.
type ElementParam struct {
	BaseModel
	GameElementID uint   `gorm:"not null;uniqueIndex:idx_element_param" json:"gameElementId"`
	Name          string `gorm:"size:50;not null;uniqueIndex:idx_element_param" json:"name"`
	Value         string `gorm:"size:255" json:"value"`
}

func (ElementParam) TableName() string {
	return "ludilearn_element_params"
}

// ModuleParam is per-module static configuration under one game element
// (maxscore snapshot, gamified on/off flag).
type ModuleParam struct {
	BaseModel
	GameElementID  uint   `gorm:"not null;uniqueIndex:idx_module_param" json:"gameElementId"`
	CourseModuleID uint   `gorm:"not null;uniqueIndex:idx_module_param" json:"courseModuleId"`
	Name           string `gorm:"size:50;not null;uniqueIndex:idx_module_param" json:"name"`
	Value          string `gorm:"size:255" json:"value"`
}

func (ModuleParam) TableName() string {
	return "ludilearn_module_params"
}

// ElementUserValue is per-learner, per-section derived or persisted state not
// tied to one module (owned avatar items, equipped items, last access).
type ElementUserValue struct {
	BaseModel
	AttributionID uint   `gorm:"not null;uniqueIndex:idx_attr_value" json:"attributionId"`
	Name          string `gorm:"size:50;not null;uniqueIndex:idx_attr_value" json:"name"`
	Value         string `gorm:"size:255" json:"value"`
}

func (ElementUserValue) TableName() string {
	return "ludilearn_element_user_values"
}

// ModuleUserValue is per-learner, per-module derived state (progression,
// score, thresholdexceeded, timer bests). Written via upsert and only when
// the value actually changed.
type ModuleUserValue struct {
	BaseModel
	AttributionID  uint   `gorm:"not null;uniqueIndex:idx_attr_module_value" json:"attributionId"`
	CourseModuleID uint   `gorm:"not null;uniqueIndex:idx_attr_module_value" json:"courseModuleId"`
	Name           string `gorm:"size:50;not null;uniqueIndex:idx_attr_module_value" json:"name"`
	Value          string `gorm:"size:255" json:"value"`
}

func (ModuleUserValue) TableName() string {
	return "ludilearn_module_user_values"
}
