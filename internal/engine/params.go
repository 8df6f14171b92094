package engine

import (
	"strconv"

	"ludilearn_backend/internal/model"
)

// Params is the name/value configuration for one scope (section or module).
// Values are stored as text; accessors parse with a fallback so absent or
// malformed values never abort a computation.
type Params map[string]string

func (p Params) Int(name string, fallback int) int {
	raw, ok := p[name]
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (p Params) Float(name string, fallback float64) float64 {
	raw, ok := p[name]
	if !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func (p Params) Bool(name string, fallback bool) bool {
	raw, ok := p[name]
	if !ok {
		return fallback
	}
	return raw == "1" || raw == "true"
}

// Parameter names recognised per variant. Anything outside these sets is
// rejected at the settings boundary instead of silently stored.
const (
	ParamMultiplier           = "multiplier"
	ParamPercentageCompletion = "percentagecompletion"
	ParamBonusCompletion      = "bonuscompletion"
	ParamBadgeGold            = "badgegold"
	ParamBadgeSilver          = "badgesilver"
	ParamBadgeBronze          = "badgebronze"
	ParamThresholdToEarn      = "thresholdtoearn"
	ParamPenalties            = "penalties"
	ParamMaxScore             = "maxscore"
	ParamGamified             = "gamified"
	ParamCondition            = "condition"
)

// ElementDefaults are the section-scoped defaults seeded at instance creation
// and used as computation fallbacks.
var ElementDefaults = map[model.GameElementType]map[string]string{
	model.TypeScore: {
		ParamMultiplier:           "100",
		ParamPercentageCompletion: "20",
		ParamBonusCompletion:      "150",
	},
	model.TypeBadge: {
		ParamBadgeGold:   "90",
		ParamBadgeSilver: "80",
		ParamBadgeBronze: "70",
	},
	model.TypeProgress: {},
	model.TypeAvatar: {
		ParamThresholdToEarn: "80",
	},
	model.TypeTimer: {
		ParamPenalties: "20",
	},
	model.TypeRanking:    {},
	model.TypeNoGamified: {},
}

// ModuleDefaults are the per-module defaults seeded at module creation.
var ModuleDefaults = map[model.GameElementType]map[string]string{
	model.TypeScore: {
		ParamMaxScore: "100",
		ParamGamified: "1",
	},
	model.TypeBadge:      {ParamGamified: "1"},
	model.TypeProgress:   {ParamGamified: "1"},
	model.TypeAvatar:     {ParamGamified: "1"},
	model.TypeTimer:      {ParamGamified: "1"},
	model.TypeRanking:    {ParamGamified: "1"},
	model.TypeNoGamified: {ParamGamified: "1"},
}

// KnownElementParam reports whether name is a recognised section-scoped key
// for the given variant.
func KnownElementParam(typ model.GameElementType, name string) bool {
	_, ok := ElementDefaults[typ][name]
	return ok
}

// KnownModuleParam reports whether name is a recognised module-scoped key for
// the given variant. The condition key is accepted everywhere since editors
// use it for visibility rules shared across variants.
func KnownModuleParam(typ model.GameElementType, name string) bool {
	if name == ParamCondition {
		return true
	}
	_, ok := ModuleDefaults[typ][name]
	return ok
}

// withDefaults overlays p on top of the variant defaults.
func withDefaults(typ model.GameElementType, p Params) Params {
	merged := Params{}
	for k, v := range ElementDefaults[typ] {
		merged[k] = v
	}
	for k, v := range p {
		merged[k] = v
	}
	return merged
}
