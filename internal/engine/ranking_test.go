package engine

import (
	"testing"

	"ludilearn_backend/internal/model"
)

func TestNeighborWindow_TiedTarget(t *testing.T) {
	scores := []LearnerScore{
		{LearnerID: 1, Score: 100},
		{LearnerID: 2, Score: 90},
		{LearnerID: 3, Score: 90},
		{LearnerID: 4, Score: 70},
		{LearnerID: 5, Score: 50},
	}
	w := NeighborWindow(scores, 2)
	if w.Rank == nil || *w.Rank != 2 {
		t.Fatalf("expected dense rank 2, got %v", w.Rank)
	}
	if len(w.Above) != 1 || w.Above[0].LearnerID != 1 || w.Above[0].Rank != 1 {
		t.Fatalf("expected window above = [learner 1], got %+v", w.Above)
	}
	if len(w.Below) != 2 {
		t.Fatalf("expected two below, got %+v", w.Below)
	}
	// Stable order keeps the tied learner first, then the next score down.
	if w.Below[0].LearnerID != 3 || w.Below[0].Rank != 2 {
		t.Fatalf("expected tied learner 3 at rank 2, got %+v", w.Below[0])
	}
	if w.Below[1].LearnerID != 4 {
		t.Fatalf("expected learner 4 next, got %+v", w.Below[1])
	}
}

func TestNeighborWindow_FirstPlace(t *testing.T) {
	scores := []LearnerScore{
		{LearnerID: 1, Score: 100},
		{LearnerID: 2, Score: 90},
		{LearnerID: 3, Score: 80},
		{LearnerID: 4, Score: 70},
	}
	w := NeighborWindow(scores, 1)
	if w.Rank == nil || *w.Rank != 1 {
		t.Fatalf("expected rank 1, got %v", w.Rank)
	}
	if len(w.Above) != 0 {
		t.Fatalf("expected no above neighbors for 1st, got %+v", w.Above)
	}
	// The 2nd and 3rd ranked learners surface as below context.
	if len(w.Below) != 2 || w.Below[0].LearnerID != 2 || w.Below[1].LearnerID != 3 {
		t.Fatalf("expected learners 2 and 3 below, got %+v", w.Below)
	}
}

func TestNeighborWindow_SoleLearner(t *testing.T) {
	w := NeighborWindow([]LearnerScore{{LearnerID: 7, Score: 42}}, 7)
	if w.Rank == nil || *w.Rank != 1 {
		t.Fatalf("expected rank 1, got %v", w.Rank)
	}
	if len(w.Above) != 0 || len(w.Below) != 0 {
		t.Fatalf("expected empty windows, got above=%+v below=%+v", w.Above, w.Below)
	}
}

func TestNeighborWindow_NoScoreTopThreeContext(t *testing.T) {
	scores := []LearnerScore{
		{LearnerID: 1, Score: 100},
		{LearnerID: 2, Score: 90},
		{LearnerID: 3, Score: 80},
		{LearnerID: 4, Score: 70},
	}
	w := NeighborWindow(scores, 99)
	if w.Rank != nil {
		t.Fatalf("expected nil rank for learner with no score, got %v", *w.Rank)
	}
	if len(w.Below) != 3 || w.Below[0].LearnerID != 1 || w.Below[2].LearnerID != 3 {
		t.Fatalf("expected top three as context, got %+v", w.Below)
	}
}

func TestComputeRanking_RawGradeSum(t *testing.T) {
	in := Input{
		LearnerID: 1,
		Modules: []ModuleState{
			gradableModule(1, 12, 20),
			gradableModule(2, 7, 10),
		},
		Scores: &Scoreboard{
			Section: []LearnerScore{{LearnerID: 1, Score: 19}, {LearnerID: 2, Score: 25}},
			Modules: map[uint][]LearnerScore{
				1: {{LearnerID: 1, Score: 12}, {LearnerID: 2, Score: 15}},
			},
		},
	}
	out, err := Compute(model.TypeRanking, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Raw grades, not percentages.
	if out.Score != 19 {
		t.Fatalf("expected raw sum 19, got %v", out.Score)
	}
	if out.Rank == nil || out.Rank.Rank == nil || *out.Rank.Rank != 2 {
		t.Fatalf("expected section rank 2, got %+v", out.Rank)
	}
	if out.Modules[0].Rank == nil || *out.Modules[0].Rank.Rank != 2 {
		t.Fatalf("expected module rank 2, got %+v", out.Modules[0].Rank)
	}
	if out.Modules[1].Rank != nil {
		t.Fatalf("expected no rank window without a module scoreboard")
	}
}
