package model

// GameElementType is the closed set of game element variants.
type GameElementType string

const (
	TypeScore      GameElementType = "score"
	TypeBadge      GameElementType = "badge"
	TypeProgress   GameElementType = "progress"
	TypeAvatar     GameElementType = "avatar"
	TypeTimer      GameElementType = "timer"
	TypeRanking    GameElementType = "ranking"
	TypeNoGamified GameElementType = "nogamified"
)

// AllTypes lists every variant; one GameElement per type is created for each
// section so a learner can be moved between variants without losing data.
var AllTypes = []GameElementType{
	TypeScore, TypeBadge, TypeProgress, TypeAvatar, TypeTimer, TypeRanking, TypeNoGamified,
}

func ValidType(t GameElementType) bool {
	for _, known := range AllTypes {
		if known == t {
			return true
		}
	}
	return false
}

// GameElement is one variant slot for one section. There is exactly one per
// (course, section, type); it is shared between learners, never per learner.
type GameElement struct {
	BaseModel
	CourseID  uint            `gorm:"index;not null;uniqueIndex:idx_course_section_type" json:"courseId"`
	SectionID uint            `gorm:"index;not null;uniqueIndex:idx_course_section_type" json:"sectionId"`
	Type      GameElementType `gorm:"size:20;not null;uniqueIndex:idx_course_section_type" json:"type"`
}

func (GameElement) TableName() string {
	return "ludilearn_game_elements"
}

// Attribution binds one learner to one active game element for a section.
// At most one row per (game element, learner); superseding an attribution
// deletes the old row after migrating its user values forward.
type Attribution struct {
	BaseModel
	GameElementID uint `gorm:"index;not null;uniqueIndex:idx_element_learner" json:"gameElementId"`
	LearnerID     uint `gorm:"index;not null;uniqueIndex:idx_element_learner" json:"learnerId"`
}

func (Attribution) TableName() string {
	return "ludilearn_attributions"
}

// SectionAssignment records the chosen type for a section under the
// bysection policy, independent of individual learners.
type SectionAssignment struct {
	BaseModel
	CourseID      uint `gorm:"index;not null" json:"courseId"`
	SectionID     uint `gorm:"uniqueIndex;not null" json:"sectionId"`
	GameElementID uint `gorm:"not null" json:"gameElementId"`
}

func (SectionAssignment) TableName() string {
	return "ludilearn_section_assignments"
}
