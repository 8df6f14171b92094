package model

// HexadType is the dominant player type from the HEXAD questionnaire.
type HexadType string

const (
	HexadAchiever       HexadType = "achiever"
	HexadPlayer         HexadType = "player"
	HexadSocialiser     HexadType = "socialiser"
	HexadFreeSpirit     HexadType = "freespirit"
	HexadDisruptor      HexadType = "disruptor"
	HexadPhilanthropist HexadType = "philanthropist"
)

// HexadElementType maps a dominant HEXAD type to the game element used by the
// automatic attribution policy.
var HexadElementType = map[HexadType]GameElementType{
	HexadAchiever:       TypeBadge,
	HexadPlayer:         TypeScore,
	HexadSocialiser:     TypeRanking,
	HexadFreeSpirit:     TypeAvatar,
	HexadDisruptor:      TypeTimer,
	HexadPhilanthropist: TypeProgress,
}

// HexadProfile is the questionnaire outcome for one learner. A learner
// without a profile stays unattributed under the automatic policy until the
// questionnaire is completed.
type HexadProfile struct {
	BaseModel
	LearnerID uint      `gorm:"uniqueIndex;not null" json:"learnerId"`
	Type      HexadType `gorm:"size:20;not null" json:"type"`
	// CombinedAffinities is the comma-separated affinity score per HEXAD
	// dimension, kept for reporting.
	CombinedAffinities string `gorm:"size:255" json:"combinedAffinities"`
}

func (HexadProfile) TableName() string {
	return "ludilearn_hexad_profiles"
}

// HexadAnswer is one raw questionnaire answer, kept so a profile can be
// recomputed if the scoring weights change.
type HexadAnswer struct {
	BaseModel
	LearnerID  uint `gorm:"index;not null;uniqueIndex:idx_learner_question" json:"learnerId"`
	QuestionID int  `gorm:"not null;uniqueIndex:idx_learner_question" json:"questionId"`
	Answer     int  `gorm:"not null" json:"answer"`
}

func (HexadAnswer) TableName() string {
	return "ludilearn_hexad_answers"
}
