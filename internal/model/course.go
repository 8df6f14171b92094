package model

// AssignmentPolicy decides which game element a learner gets for a section.
type AssignmentPolicy string

const (
	// PolicyManual assigns one course-wide default type to everyone.
	PolicyManual AssignmentPolicy = "manual"
	// PolicyAutomatic derives the type from the learner's HEXAD profile.
	PolicyAutomatic AssignmentPolicy = "automatic"
	// PolicyBySection lets the course editor pick one type per section.
	PolicyBySection AssignmentPolicy = "bysection"
)

// World selects the avatar item grid used by the avatar element.
type World string

const (
	WorldSchool       World = "school"
	WorldProfessional World = "professional"
	WorldFantasy      World = "fantasy"
)

// Course holds the gamification settings for one LMS course. CourseRef is the
// course id on the LMS side; all foreign keys inside this service use our own
// surrogate ids.
type Course struct {
	BaseModel
	CourseRef   uint             `gorm:"uniqueIndex;not null" json:"courseRef"`
	Policy      AssignmentPolicy `gorm:"size:20;default:'manual'" json:"policy"`
	DefaultType GameElementType  `gorm:"size:20;default:'score'" json:"defaultType"`
	World       World            `gorm:"size:20;default:'school'" json:"world"`
	// Restoring is set while the LMS imports/restores the course; attribution
	// is suppressed until the importer clears it.
	Restoring bool `gorm:"default:false" json:"restoring"`
}

func (Course) TableName() string {
	return "ludilearn_courses"
}

// Section mirrors one LMS course section.
type Section struct {
	BaseModel
	CourseID   uint `gorm:"index;not null" json:"courseId"`
	SectionRef uint `gorm:"index;not null" json:"sectionRef"`
	Position   int  `gorm:"default:0" json:"position"`
}

func (Section) TableName() string {
	return "ludilearn_sections"
}

// CourseModule mirrors one LMS activity/resource inside a section.
type CourseModule struct {
	BaseModel
	SectionID uint   `gorm:"index;not null" json:"sectionId"`
	ModuleRef uint   `gorm:"index;not null" json:"moduleRef"`
	ModType   string `gorm:"size:50" json:"modType"`
	Position  int    `gorm:"default:0" json:"position"`
	Visible   bool   `gorm:"default:true" json:"visible"`
}

func (CourseModule) TableName() string {
	return "ludilearn_course_modules"
}
