package engine

import (
	"strconv"

	"ludilearn_backend/internal/model"
)

// computeBadge awards a tier per gradable module from the threshold ladder,
// evaluated top-down against the module's percentage progression. Modules
// that only track completion get gold on completion. The section badge
// mirrors the ladder applied to the average progression of gamified modules.
func computeBadge(in Input) DerivedState {
	params := withDefaults(model.TypeBadge, in.SectionParams)
	gold := params.Int(ParamBadgeGold, 90)
	silver := params.Int(ParamBadgeSilver, 80)
	bronze := params.Int(ParamBadgeBronze, 70)

	out := DerivedState{Badge: BadgeNone, Modules: make([]ModuleDerived, 0, len(in.Modules))}

	sum, counted := 0, 0
	for _, m := range in.Modules {
		mp := in.moduleParams(m.CourseModuleID)
		md := ModuleDerived{
			CourseModuleID: m.CourseModuleID,
			Gamified:       gamified(m, mp),
			Badge:          BadgeNone,
			Completed:      m.CompletionEnabled && m.Completed,
		}
		if md.Gamified {
			md.Progression = progression(m)
			sum += md.Progression
			counted++

			if m.Gradable {
				md.Badge = badgeTier(md.Progression, gold, silver, bronze)
			} else if md.Completed {
				md.Badge = BadgeGold
			}

			switch md.Badge {
			case BadgeGold:
				out.CountGold++
			case BadgeSilver:
				out.CountSilver++
			case BadgeBronze:
				out.CountBronze++
			}
			if md.Completed {
				out.CountDone++
			}

			prev := in.moduleValues(m.CourseModuleID)
			if prev[valBadge] != string(md.Badge) {
				out.Updates = append(out.Updates, ValueUpdate{
					CourseModuleID: m.CourseModuleID,
					Name:           valBadge,
					Value:          string(md.Badge),
				})
			}
			encoded := strconv.Itoa(md.Progression)
			if prev[valProgression] != encoded {
				out.Updates = append(out.Updates, ValueUpdate{
					CourseModuleID: m.CourseModuleID,
					Name:           valProgression,
					Value:          encoded,
				})
			}
		}
		out.Modules = append(out.Modules, md)
	}

	if counted > 0 {
		out.Progression = sum / counted
		out.Badge = badgeTier(out.Progression, gold, silver, bronze)
	}
	return out
}

// badgeTier walks the ladder top-down; the first threshold met wins.
func badgeTier(progression, gold, silver, bronze int) BadgeTier {
	switch {
	case progression >= gold:
		return BadgeGold
	case progression >= silver:
		return BadgeSilver
	case progression >= bronze:
		return BadgeBronze
	default:
		return BadgeNone
	}
}
