package engine

import (
	"strconv"

	"ludilearn_backend/internal/model"
)

// computeScore turns grades into points. A gradable module scores its stored
// percentage scaled by the multiplier, truncated; a completion bonus is added
// when the module both tracks completion and is completed. A completion-only
// module earns the flat bonuscompletion points instead. Section score is the
// sum over gamified modules.
func computeScore(in Input) DerivedState {
	params := withDefaults(model.TypeScore, in.SectionParams)
	multiplier := params.Float(ParamMultiplier, 100)
	pctCompletion := params.Float(ParamPercentageCompletion, 20)
	bonusCompletion := params.Float(ParamBonusCompletion, 150)

	out := DerivedState{Modules: make([]ModuleDerived, 0, len(in.Modules))}

	for _, m := range in.Modules {
		mp := in.moduleParams(m.CourseModuleID)
		md := ModuleDerived{
			CourseModuleID: m.CourseModuleID,
			Gamified:       gamified(m, mp),
			Completed:      m.CompletionEnabled && m.Completed,
		}
		if md.Gamified {
			md.Progression = progression(m)
			md.Score = moduleScore(m, mp, multiplier, pctCompletion, bonusCompletion)
			out.Score += md.Score

			prev := in.moduleValues(m.CourseModuleID)
			encoded := strconv.FormatFloat(md.Score, 'f', -1, 64)
			if prev[valScore] != encoded {
				out.Updates = append(out.Updates, ValueUpdate{
					CourseModuleID: m.CourseModuleID,
					Name:           valScore,
					Value:          encoded,
				})
			}
		}
		out.Modules = append(out.Modules, md)
	}
	return out
}

func moduleScore(m ModuleState, mp Params, multiplier, pctCompletion, bonusCompletion float64) float64 {
	if m.Gradable {
		score := float64(int(float64(progression(m)) * multiplier / 100))
		if m.CompletionEnabled && m.Completed {
			maxscore := mp.Float(ParamMaxScore, 100)
			score += float64(int(maxscore * pctCompletion / 100))
		}
		return score
	}
	// Completion-only module: flat bonus on completion.
	if m.CompletionEnabled && m.Completed {
		return float64(int(bonusCompletion))
	}
	return 0
}
