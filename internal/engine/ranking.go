package engine

import (
	"sort"
	"strconv"
)

// LearnerScore is one learner's raw score within a ranking scope.
type LearnerScore struct {
	LearnerID uint
	Score     float64
}

// Scoreboard is the consistent snapshot of every learner's scores for the
// ranking variant, read fresh at query time.
type Scoreboard struct {
	Section []LearnerScore
	// Modules is keyed by course module id.
	Modules map[uint][]LearnerScore
}

// RankEntry is one ranked learner in a neighbor window.
type RankEntry struct {
	LearnerID uint    `json:"learnerId"`
	Rank      int     `json:"rank"`
	Score     float64 `json:"score"`
}

// RankWindow is the bounded competitive context around one learner: their
// dense rank plus at most two neighbors on each side. When the learner has
// no recorded score Rank is nil and Below carries the top three ranked
// learners as general context instead of neighbors.
type RankWindow struct {
	Rank  *int        `json:"rank"`
	Score float64     `json:"score"`
	Above []RankEntry `json:"above"`
	Below []RankEntry `json:"below"`
}

// computeRanking sums raw grades (not percentages) per module and over the
// section, and attaches neighbor windows from the scoreboard snapshot.
func computeRanking(in Input) DerivedState {
	out := DerivedState{Modules: make([]ModuleDerived, 0, len(in.Modules))}

	for _, m := range in.Modules {
		mp := in.moduleParams(m.CourseModuleID)
		md := ModuleDerived{
			CourseModuleID: m.CourseModuleID,
			Gamified:       gamified(m, mp),
			Completed:      m.CompletionEnabled && m.Completed,
		}
		if md.Gamified && m.Gradable {
			md.Score = m.Grade
			out.Score += m.Grade

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
		if in.Scores != nil {
			if scores, ok := in.Scores.Modules[m.CourseModuleID]; ok {
				w := NeighborWindow(scores, in.LearnerID)
				md.Rank = &w
			}
		}
		out.Modules = append(out.Modules, md)
	}

	if in.Scores != nil {
		w := NeighborWindow(in.Scores.Section, in.LearnerID)
		out.Rank = &w
	}
	return out
}

// NeighborWindow ranks the scope by descending score with dense ranking
// (ties share a rank) and returns the target's rank plus the two learners on
// each side, rather than the whole leaderboard. Ties keep the input order.
func NeighborWindow(scores []LearnerScore, target uint) RankWindow {
	ranked := make([]LearnerScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	entries := make([]RankEntry, len(ranked))
	rank := 0
	for i, ls := range ranked {
		if i == 0 || ls.Score < ranked[i-1].Score {
			rank++
		}
		entries[i] = RankEntry{LearnerID: ls.LearnerID, Rank: rank, Score: ls.Score}
	}

	idx := -1
	for i, e := range entries {
		if e.LearnerID == target {
			idx = i
			break
		}
	}

	if idx < 0 {
		// No recorded score: top three as general context.
		w := RankWindow{}
		for i := 0; i < len(entries) && i < 3; i++ {
			w.Below = append(w.Below, entries[i])
		}
		return w
	}

	w := RankWindow{Rank: &entries[idx].Rank, Score: entries[idx].Score}
	for i := idx - 2; i < idx; i++ {
		if i >= 0 {
			w.Above = append(w.Above, entries[i])
		}
	}
	for i := idx + 1; i <= idx+2 && i < len(entries); i++ {
		w.Below = append(w.Below, entries[i])
	}
	return w
}
