// Package engine holds the game element computations. Each variant is a pure
// function of per-module raw state, section/module parameters and previously
// persisted user values; one-way flags (thresholdexceeded, best times) are
// folded forward explicitly through the input instead of hidden state.
package engine

import (
	"fmt"

	"ludilearn_backend/internal/model"
)

// ModuleState is the raw activity state for one module and one learner, as
// reported by the LMS collaborators.
type ModuleState struct {
	CourseModuleID    uint
	ModType           string
	Available         bool
	Gradable          bool
	Grade             float64
	GradeMax          float64
	CompletionEnabled bool
	Completed         bool
}

// Input carries everything a variant computation may read.
type Input struct {
	LearnerID     uint
	Modules       []ModuleState
	SectionParams Params
	// ModuleParams is keyed by course module id.
	ModuleParams map[uint]Params
	// UserValues are the element-level persisted values for this attribution.
	UserValues map[string]string
	// ModuleUserValues are the persisted per-module values, keyed by course
	// module id.
	ModuleUserValues map[uint]map[string]string
	// World selects the avatar item grid; empty means the default world.
	World model.World
	// Scores feeds the ranking variant; nil for every other type.
	Scores *Scoreboard
	// Now is the unix time used for live timer display.
	Now int64
}

// ValueUpdate is a pending persisted write produced by a computation.
// CourseModuleID 0 targets the element-level user values.
type ValueUpdate struct {
	CourseModuleID uint
	Name           string
	Value          string
}

// BadgeTier is the badge ladder outcome.
type BadgeTier string

const (
	BadgeGold   BadgeTier = "gold"
	BadgeSilver BadgeTier = "silver"
	BadgeBronze BadgeTier = "bronze"
	BadgeNone   BadgeTier = "none"
)

// ModuleDerived is the per-module slice of the derived state. Only the fields
// owned by the computed variant are populated.
type ModuleDerived struct {
	CourseModuleID uint       `json:"courseModuleId"`
	Gamified       bool       `json:"gamified"`
	Progression    int        `json:"progression"`
	Score          float64    `json:"score"`
	Badge          BadgeTier  `json:"badge,omitempty"`
	Completed      bool       `json:"completed"`
	BestTime       int64      `json:"bestTime,omitempty"`
	CurrentTime    int64      `json:"currentTime,omitempty"`
	Rank           *RankWindow `json:"rank,omitempty"`
}

// DerivedState is the section-level outcome of one variant computation plus
// its per-module breakdown and the writes to persist.
type DerivedState struct {
	Type        model.GameElementType `json:"type"`
	Progression int                   `json:"progression"`
	Score       float64               `json:"score"`
	Badge       BadgeTier             `json:"badge,omitempty"`
	CountBronze int                   `json:"countBronze,omitempty"`
	CountSilver int                   `json:"countSilver,omitempty"`
	CountGold   int                   `json:"countGold,omitempty"`
	CountDone   int                   `json:"countCompleted,omitempty"`
	AverageTime int64                 `json:"averageTime,omitempty"`
	Rank        *RankWindow           `json:"rank,omitempty"`
	ItemsOwned  int                   `json:"itemsOwned,omitempty"`
	Items       []Item                `json:"items,omitempty"`
	Modules     []ModuleDerived       `json:"modules"`

	// Updates are the write-if-different persists owed to this computation.
	Updates []ValueUpdate `json:"-"`
}

type computeFunc func(in Input) DerivedState

var variants = map[model.GameElementType]computeFunc{
	model.TypeScore:      computeScore,
	model.TypeBadge:      computeBadge,
	model.TypeProgress:   computeProgress,
	model.TypeAvatar:     computeAvatar,
	model.TypeTimer:      computeTimer,
	model.TypeRanking:    computeRanking,
	model.TypeNoGamified: computeNoGamified,
}

// Compute runs the variant computation for typ. An unknown type is a
// configuration error and fails fast; missing parameters never error, they
// fall back to per-variant defaults.
func Compute(typ model.GameElementType, in Input) (*DerivedState, error) {
	fn, ok := variants[typ]
	if !ok {
		return nil, fmt.Errorf("engine: unknown game element type %q", typ)
	}
	out := fn(in)
	out.Type = typ
	return &out, nil
}

// gamified reports whether the module counts in aggregates: it must be
// available, not explicitly toggled off by an editor, and either gradable or
// completion-tracked.
func gamified(m ModuleState, moduleParams Params) bool {
	if !m.Available {
		return false
	}
	if !moduleParams.Bool("gamified", true) {
		return false
	}
	return m.Gradable || m.CompletionEnabled
}

// progression is the raw percentage for one module: truncated grade percent
// if gradable, else 100 on completion and 0 otherwise.
func progression(m ModuleState) int {
	if m.Gradable {
		if m.GradeMax <= 0 {
			return 0
		}
		return int(m.Grade / m.GradeMax * 100)
	}
	if m.CompletionEnabled && m.Completed {
		return 100
	}
	return 0
}

func (in Input) moduleParams(id uint) Params {
	if p, ok := in.ModuleParams[id]; ok {
		return p
	}
	return Params{}
}

func (in Input) moduleValues(id uint) map[string]string {
	if v, ok := in.ModuleUserValues[id]; ok {
		return v
	}
	return nil
}
