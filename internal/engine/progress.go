package engine

import "strconv"

// computeProgress derives the plain progress bar: per-module raw percentage
// (grade percent if gradable, 100/0 on completion otherwise) and the
// truncated integer average across gamified modules for the section.
func computeProgress(in Input) DerivedState {
	out := DerivedState{Modules: make([]ModuleDerived, 0, len(in.Modules))}

	sum, counted := 0, 0
	for _, m := range in.Modules {
		mp := in.moduleParams(m.CourseModuleID)
		md := ModuleDerived{
			CourseModuleID: m.CourseModuleID,
			Gamified:       gamified(m, mp),
			Completed:      m.CompletionEnabled && m.Completed,
		}
		if md.Gamified {
			md.Progression = progression(m)
			sum += md.Progression
			counted++

			prev := in.moduleValues(m.CourseModuleID)
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
		// Integer division truncates on purpose.
		out.Progression = sum / counted
	}
	return out
}

// computeNoGamified is the identity lens: the module list with no derived
// metrics at all.
func computeNoGamified(in Input) DerivedState {
	out := DerivedState{Modules: make([]ModuleDerived, 0, len(in.Modules))}
	for _, m := range in.Modules {
		out.Modules = append(out.Modules, ModuleDerived{
			CourseModuleID: m.CourseModuleID,
			Completed:      m.CompletionEnabled && m.Completed,
		})
	}
	return out
}
