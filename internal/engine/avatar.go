package engine

import (
	"strconv"

	"ludilearn_backend/internal/model"
)

// Item is one avatar grid cell in the derived state.
type Item struct {
	Theme    int  `json:"theme"`
	Slot     int  `json:"slot"`
	Owned    bool `json:"owned"`
	Equipped bool `json:"equipped"`
}

// computeAvatar computes progression exactly like the progress variant, then
// folds the one-way thresholdexceeded flag per module: the first time a
// module's progression reaches thresholdtoearn (or the module completes, for
// non-gradable ones) exactly one new item is granted, taken from the world
// grid in enumeration order. The flag is persisted so a re-run never grants
// twice.
func computeAvatar(in Input) DerivedState {
	params := withDefaults(model.TypeAvatar, in.SectionParams)
	threshold := params.Int(ParamThresholdToEarn, 80)
	layout := Layout(in.World)

	owned := make(map[string]bool)
	for t := 1; t <= layout.Themes; t++ {
		for s := 1; s <= layout.Slots; s++ {
			key := ItemOwnedKey(t, s)
			if in.UserValues[key] == "1" {
				owned[key] = true
			}
		}
	}

	out := DerivedState{Modules: make([]ModuleDerived, 0, len(in.Modules))}

	sum, counted := 0, 0
	for _, m := range in.Modules {
		mp := in.moduleParams(m.CourseModuleID)
		md := ModuleDerived{
			CourseModuleID: m.CourseModuleID,
			Gamified:       gamified(m, mp),
			Completed:      m.CompletionEnabled && m.Completed,
		}
		if !md.Gamified {
			out.Modules = append(out.Modules, md)
			continue
		}
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

		crossed := md.Progression >= threshold
		if !m.Gradable {
			crossed = md.Completed
		}
		if crossed && prev[valThresholdExceeded] != "1" {
			// One item per crossing event, remembered forever.
			out.Updates = append(out.Updates, ValueUpdate{
				CourseModuleID: m.CourseModuleID,
				Name:           valThresholdExceeded,
				Value:          "1",
			})
			if theme, slot, ok := layout.nextUnowned(owned); ok {
				key := ItemOwnedKey(theme, slot)
				owned[key] = true
				out.Updates = append(out.Updates, ValueUpdate{Name: key, Value: "1"})
			}
		}
		out.Modules = append(out.Modules, md)
	}

	if counted > 0 {
		out.Progression = sum / counted
	}

	equipped := make(map[int]int, layout.Slots)
	for s := 1; s <= layout.Slots; s++ {
		if raw, ok := in.UserValues[ItemEquippedKey(s)]; ok {
			if theme, err := strconv.Atoi(raw); err == nil {
				equipped[s] = theme
			}
		}
	}

	out.Items = make([]Item, 0, layout.TotalItems())
	for t := 1; t <= layout.Themes; t++ {
		for s := 1; s <= layout.Slots; s++ {
			item := Item{
				Theme:    t,
				Slot:     s,
				Owned:    owned[ItemOwnedKey(t, s)],
				Equipped: equipped[s] == t,
			}
			if item.Owned {
				out.ItemsOwned++
			}
			out.Items = append(out.Items, item)
		}
	}
	return out
}
