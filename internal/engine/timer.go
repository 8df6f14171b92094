package engine

import (
	"strconv"

	"ludilearn_backend/internal/model"
)

// QuizAttempt is the slice of an LMS quiz attempt the timer variant needs.
// LostMarks is the total of wrongly-answered or ungraded question marks;
// each lost mark adds the penalties parameter in seconds.
type QuizAttempt struct {
	CourseModuleID uint
	TimeStart      int64
	TimeFinish     int64 // zero while the attempt is in progress
	LostMarks      float64
}

// computeTimer derives best and current attempt times for quiz modules. The
// best attempt (minimal elapsed + penalty seconds) is folded forward through
// persisted values by FoldAttempt; this computation only reads them.
// Section averagetime is the integer average over modules with a recorded
// best.
func computeTimer(in Input) DerivedState {
	out := DerivedState{Modules: make([]ModuleDerived, 0, len(in.Modules))}

	var total int64
	counted := 0
	for _, m := range in.Modules {
		mp := in.moduleParams(m.CourseModuleID)
		md := ModuleDerived{
			CourseModuleID: m.CourseModuleID,
			Completed:      m.CompletionEnabled && m.Completed,
		}
		// The timer lens only applies to quizzes.
		md.Gamified = m.ModType == "quiz" && gamified(m, mp)
		if md.Gamified {
			prev := in.moduleValues(m.CourseModuleID)
			if best, ok := bestTime(prev); ok {
				md.BestTime = best
				total += best
				counted++
			}
			if start := intValue(prev, valCurrentStart); start > 0 && in.Now > start {
				md.CurrentTime = in.Now - start + intValue(prev, valCurrentPenalties)
			}
		}
		out.Modules = append(out.Modules, md)
	}

	if counted > 0 {
		out.AverageTime = total / int64(counted)
	}
	return out
}

// FoldAttempt merges one submitted or in-progress attempt into the persisted
// timer values and returns the writes, if any. A finished attempt replaces
// the best only when its penalty-adjusted time is strictly better.
func FoldAttempt(prev map[string]string, a QuizAttempt, sectionParams Params) []ValueUpdate {
	params := withDefaults(model.TypeTimer, sectionParams)
	penalty := int64(a.LostMarks * float64(params.Int(ParamPenalties, 20)))

	var updates []ValueUpdate
	set := func(name string, v int64) {
		encoded := strconv.FormatInt(v, 10)
		if prev[name] != encoded {
			updates = append(updates, ValueUpdate{CourseModuleID: a.CourseModuleID, Name: name, Value: encoded})
		}
	}

	if a.TimeFinish == 0 {
		set(valCurrentStart, a.TimeStart)
		set(valCurrentPenalties, penalty)
		return updates
	}

	// Attempt finished: the live display resets.
	set(valCurrentStart, 0)
	set(valCurrentPenalties, 0)

	elapsed := a.TimeFinish - a.TimeStart + penalty
	if best, ok := bestTime(prev); !ok || elapsed < best {
		set(valBestStart, a.TimeStart)
		set(valBestFinish, a.TimeFinish)
		set(valBestPenalties, penalty)
	}
	return updates
}

// RemoveAttempt clears the recorded best when the deleted attempt is the one
// that produced it; the next submitted attempt re-folds a fresh best.
func RemoveAttempt(prev map[string]string, a QuizAttempt) []ValueUpdate {
	if intValue(prev, valBestStart) != a.TimeStart || intValue(prev, valBestFinish) != a.TimeFinish {
		return nil
	}
	return []ValueUpdate{
		{CourseModuleID: a.CourseModuleID, Name: valBestStart, Value: "0"},
		{CourseModuleID: a.CourseModuleID, Name: valBestFinish, Value: "0"},
		{CourseModuleID: a.CourseModuleID, Name: valBestPenalties, Value: "0"},
	}
}

func bestTime(values map[string]string) (int64, bool) {
	start := intValue(values, valBestStart)
	finish := intValue(values, valBestFinish)
	if start <= 0 || finish <= start {
		return 0, false
	}
	return finish - start + intValue(values, valBestPenalties), true
}

func intValue(values map[string]string, name string) int64 {
	v, _ := strconv.ParseInt(values[name], 10, 64)
	return v
}
