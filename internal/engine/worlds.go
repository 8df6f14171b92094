package engine

import "ludilearn_backend/internal/model"

// WorldLayout defines the avatar item grid for one world: Themes styles, each
// covering the same Slots equipment positions. Items are enumerated
// theme-major (theme 1 slot 1, theme 1 slot 2, ...), which fixes the order in
// which threshold crossings unlock them.
type WorldLayout struct {
	Themes int
	Slots  int
}

var worldLayouts = map[model.World]WorldLayout{
	model.WorldSchool:       {Themes: 7, Slots: 6},
	model.WorldProfessional: {Themes: 5, Slots: 8},
	model.WorldFantasy:      {Themes: 9, Slots: 4},
}

// Layout returns the grid for a world, defaulting to the school world when
// the course carries no valid setting.
func Layout(w model.World) WorldLayout {
	if l, ok := worldLayouts[w]; ok {
		return l
	}
	return worldLayouts[model.WorldSchool]
}

// TotalItems is the number of unlockable items in the world.
func (l WorldLayout) TotalItems() int {
	return l.Themes * l.Slots
}

// ValidItem reports whether (theme, slot) exists in the grid. Both are
// 1-based.
func (l WorldLayout) ValidItem(theme, slot int) bool {
	return theme >= 1 && theme <= l.Themes && slot >= 1 && slot <= l.Slots
}

// nextUnowned walks the enumeration order and returns the first item not in
// owned. ok is false when the grid is exhausted.
func (l WorldLayout) nextUnowned(owned map[string]bool) (theme, slot int, ok bool) {
	for t := 1; t <= l.Themes; t++ {
		for s := 1; s <= l.Slots; s++ {
			if !owned[ItemOwnedKey(t, s)] {
				return t, s, true
			}
		}
	}
	return 0, 0, false
}
