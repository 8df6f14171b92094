package engine

import (
	"testing"

	"ludilearn_backend/internal/model"
)

func quizModule(id uint) ModuleState {
	return ModuleState{CourseModuleID: id, ModType: "quiz", Available: true, Gradable: true, Grade: 5, GradeMax: 10}
}

func applyUpdates(values map[string]string, updates []ValueUpdate) {
	for _, u := range updates {
		values[u.Name] = u.Value
	}
}

func TestFoldAttempt_FirstFinishedAttemptBecomesBest(t *testing.T) {
	values := map[string]string{}
	a := QuizAttempt{CourseModuleID: 1, TimeStart: 1000, TimeFinish: 1100, LostMarks: 2}
	applyUpdates(values, FoldAttempt(values, a, Params{ParamPenalties: "20"}))

	// 100s elapsed + 2 lost marks * 20s.
	best, ok := bestTime(values)
	if !ok || best != 140 {
		t.Fatalf("expected best 140, got %d (ok=%v)", best, ok)
	}
}

func TestFoldAttempt_WorseAttemptKeepsBest(t *testing.T) {
	values := map[string]string{}
	applyUpdates(values, FoldAttempt(values, QuizAttempt{CourseModuleID: 1, TimeStart: 1000, TimeFinish: 1100}, nil))
	applyUpdates(values, FoldAttempt(values, QuizAttempt{CourseModuleID: 1, TimeStart: 2000, TimeFinish: 2500}, nil))

	best, _ := bestTime(values)
	if best != 100 {
		t.Fatalf("expected best to stay 100, got %d", best)
	}
}

func TestFoldAttempt_BetterAttemptReplacesBest(t *testing.T) {
	values := map[string]string{}
	applyUpdates(values, FoldAttempt(values, QuizAttempt{CourseModuleID: 1, TimeStart: 1000, TimeFinish: 1200}, nil))
	applyUpdates(values, FoldAttempt(values, QuizAttempt{CourseModuleID: 1, TimeStart: 2000, TimeFinish: 2050}, nil))

	best, _ := bestTime(values)
	if best != 50 {
		t.Fatalf("expected best 50, got %d", best)
	}
}

func TestFoldAttempt_InProgressTracksCurrent(t *testing.T) {
	values := map[string]string{}
	a := QuizAttempt{CourseModuleID: 1, TimeStart: 1000, LostMarks: 1}
	applyUpdates(values, FoldAttempt(values, a, Params{ParamPenalties: "30"}))

	if values[valCurrentStart] != "1000" || values[valCurrentPenalties] != "30" {
		t.Fatalf("expected current attempt recorded, got %v", values)
	}
	if _, ok := bestTime(values); ok {
		t.Fatalf("in-progress attempt must not set a best")
	}
}

func TestFoldAttempt_Idempotent(t *testing.T) {
	values := map[string]string{}
	a := QuizAttempt{CourseModuleID: 1, TimeStart: 1000, TimeFinish: 1100}
	applyUpdates(values, FoldAttempt(values, a, nil))
	if updates := FoldAttempt(values, a, nil); len(updates) != 0 {
		t.Fatalf("expected zero writes on refold, got %d", len(updates))
	}
}

func TestRemoveAttempt_ClearsMatchingBest(t *testing.T) {
	values := map[string]string{}
	a := QuizAttempt{CourseModuleID: 1, TimeStart: 1000, TimeFinish: 1100}
	applyUpdates(values, FoldAttempt(values, a, nil))

	applyUpdates(values, RemoveAttempt(values, a))
	if _, ok := bestTime(values); ok {
		t.Fatalf("expected best cleared after deleting the best attempt")
	}

	if updates := RemoveAttempt(values, QuizAttempt{CourseModuleID: 1, TimeStart: 5, TimeFinish: 6}); len(updates) != 0 {
		t.Fatalf("deleting an unrelated attempt must not touch the best")
	}
}

func TestComputeTimer_AverageAndCurrent(t *testing.T) {
	in := Input{
		Modules: []ModuleState{quizModule(1), quizModule(2), quizModule(3)},
		ModuleUserValues: map[uint]map[string]string{
			1: {valBestStart: "1000", valBestFinish: "1100", valBestPenalties: "0"},
			2: {valBestStart: "1000", valBestFinish: "1201", valBestPenalties: "20"},
			3: {valCurrentStart: "500", valCurrentPenalties: "40"},
		},
		Now: 600,
	}
	out, err := Compute(model.TypeTimer, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// (100 + 221) / 2 modules with a best, truncated.
	if out.AverageTime != 160 {
		t.Fatalf("expected average 160, got %d", out.AverageTime)
	}
	if out.Modules[2].CurrentTime != 140 {
		t.Fatalf("expected live current 140, got %d", out.Modules[2].CurrentTime)
	}
	if out.Modules[2].BestTime != 0 {
		t.Fatalf("module without best must report 0")
	}
}

func TestComputeTimer_NonQuizExcluded(t *testing.T) {
	page := gradableModule(1, 10, 10)
	page.ModType = "page"
	out, err := Compute(model.TypeTimer, Input{Modules: []ModuleState{page}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Modules[0].Gamified {
		t.Fatalf("timer must only gamify quiz modules")
	}
}
