// Package lms holds the contracts with the host learning-management runtime.
// The gamification service never owns grades, completion or enrollment; it
// reads them through these interfaces and receives change notifications on
// the webhook route.
package lms

import "context"

// GradeState is the raw grading state of one module for one learner.
type GradeState struct {
	Gradable bool    `json:"gradable"`
	Grade    float64 `json:"grade"`
	GradeMax float64 `json:"grademax"`
}

// CompletionState is the completion-tracking state of one module for one
// learner.
type CompletionState struct {
	TrackingEnabled bool `json:"trackingEnabled"`
	Completed       bool `json:"completed"`
}

// Provider is the read side of the LMS collaboration. ModuleRef and
// courseRef are LMS-side ids.
type Provider interface {
	GradeState(ctx context.Context, moduleRef, learnerID uint) (GradeState, error)
	CompletionState(ctx context.Context, moduleRef, learnerID uint) (CompletionState, error)
	Available(ctx context.Context, moduleRef, learnerID uint) (bool, error)
	EnrolledLearners(ctx context.Context, courseRef uint) ([]uint, error)
}
