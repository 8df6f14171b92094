package engine

import (
	"testing"

	"ludilearn_backend/internal/model"
)

func TestComputeProgress_TruncatedAverage(t *testing.T) {
	in := Input{
		Modules: []ModuleState{
			gradableModule(1, 50, 100),
			gradableModule(2, 33, 100),
		},
	}
	out, err := Compute(model.TypeProgress, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// (50+33)/2 = 41.5 truncates to 41.
	if out.Progression != 41 {
		t.Fatalf("expected 41, got %d", out.Progression)
	}
}

func TestComputeProgress_CompletionModules(t *testing.T) {
	done := ModuleState{CourseModuleID: 1, Available: true, CompletionEnabled: true, Completed: true}
	pending := ModuleState{CourseModuleID: 2, Available: true, CompletionEnabled: true}
	out, err := Compute(model.TypeProgress, Input{Modules: []ModuleState{done, pending}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Modules[0].Progression != 100 || out.Modules[1].Progression != 0 {
		t.Fatalf("expected 100/0, got %d/%d", out.Modules[0].Progression, out.Modules[1].Progression)
	}
	if out.Progression != 50 {
		t.Fatalf("expected section 50, got %d", out.Progression)
	}
}

func TestComputeProgress_UnavailableExcluded(t *testing.T) {
	hidden := gradableModule(1, 100, 100)
	hidden.Available = false
	out, err := Compute(model.TypeProgress, Input{Modules: []ModuleState{hidden, gradableModule(2, 40, 100)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Progression != 40 {
		t.Fatalf("expected only visible module counted, got %d", out.Progression)
	}
}

func TestComputeProgress_EmptySection(t *testing.T) {
	out, err := Compute(model.TypeProgress, Input{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Progression != 0 {
		t.Fatalf("expected 0 for empty section, got %d", out.Progression)
	}
}

func TestCompute_UnknownTypeFailsFast(t *testing.T) {
	if _, err := Compute(model.GameElementType("sticker"), Input{}); err == nil {
		t.Fatalf("expected configuration error for unknown type")
	}
}

func TestComputeNoGamified_Passthrough(t *testing.T) {
	out, err := Compute(model.TypeNoGamified, Input{Modules: []ModuleState{gradableModule(1, 90, 100)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Score != 0 || out.Progression != 0 || len(out.Updates) != 0 {
		t.Fatalf("expected no derived metrics, got %+v", out)
	}
	if len(out.Modules) != 1 {
		t.Fatalf("expected raw module list, got %d entries", len(out.Modules))
	}
}
