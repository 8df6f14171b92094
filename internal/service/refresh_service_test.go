package service

import (
	"context"
	"testing"

	"ludilearn_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchModuleGradedPersistsScore(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeScore)
	e.provider.setGrade(module.ModuleRef, 1, 16, 20)

	event := Event{Type: EventModuleGraded, CourseRef: 100, ModuleRef: module.ModuleRef, LearnerID: 1}
	require.NoError(t, e.refresh.Dispatch(context.Background(), event))

	attribution, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	values, err := e.params.ModuleUserValues(attribution.ID)
	require.NoError(t, err)
	assert.Equal(t, "80", values[module.ID]["score"])
}

func TestDispatchIsIdempotentOnUnchangedInput(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeScore)
	e.provider.setGrade(module.ModuleRef, 1, 16, 20)

	event := Event{Type: EventModuleGraded, CourseRef: 100, ModuleRef: module.ModuleRef, LearnerID: 1}
	require.NoError(t, e.refresh.Dispatch(context.Background(), event))

	attribution, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	var before model.ModuleUserValue
	require.NoError(t, e.db.Where("attribution_id = ? AND name = ?", attribution.ID, "score").First(&before).Error)

	require.NoError(t, e.refresh.Dispatch(context.Background(), event))

	var after model.ModuleUserValue
	require.NoError(t, e.db.Where("attribution_id = ? AND name = ?", attribution.ID, "score").First(&after).Error)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)

	var count int64
	require.NoError(t, e.db.Model(&model.ModuleUserValue{}).
		Where("attribution_id = ? AND name = ?", attribution.ID, "score").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDispatchEventsForUnknownCourseAreIgnored(t *testing.T) {
	e := newEnv(t)
	event := Event{Type: EventModuleGraded, CourseRef: 777, ModuleRef: 1, LearnerID: 1}
	assert.NoError(t, e.refresh.Dispatch(context.Background(), event))
}

func TestDispatchUnknownEventTypeIsDropped(t *testing.T) {
	e := newEnv(t)
	e.newCourse(t, model.PolicyManual, model.TypeScore)
	event := Event{Type: "course_badge_awarded", CourseRef: 100}
	assert.NoError(t, e.refresh.Dispatch(context.Background(), event))
}

func TestDispatchQuizAttemptFoldsBestTime(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeTimer)

	attribution, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)

	event := Event{
		Type: EventAttemptSubmitted, CourseRef: 100, ModuleRef: module.ModuleRef, LearnerID: 1,
		Attempt: &AttemptPayload{TimeStart: 1000, TimeFinish: 1100, LostMarks: 2},
	}
	require.NoError(t, e.refresh.Dispatch(context.Background(), event))

	values, err := e.params.ModuleUserValues(attribution.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", values[module.ID]["beststart"])
	assert.Equal(t, "1100", values[module.ID]["bestfinish"])
	// 2 lost marks at the default 20 seconds each.
	assert.Equal(t, "40", values[module.ID]["bestpenalties"])

	// A slower attempt does not replace the best.
	worse := Event{
		Type: EventAttemptSubmitted, CourseRef: 100, ModuleRef: module.ModuleRef, LearnerID: 1,
		Attempt: &AttemptPayload{TimeStart: 2000, TimeFinish: 2500, LostMarks: 0},
	}
	require.NoError(t, e.refresh.Dispatch(context.Background(), worse))

	values, err = e.params.ModuleUserValues(attribution.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", values[module.ID]["beststart"])
}

func TestDispatchQuizAttemptDeletedClearsMatchingBest(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeTimer)

	submit := Event{
		Type: EventAttemptSubmitted, CourseRef: 100, ModuleRef: module.ModuleRef, LearnerID: 1,
		Attempt: &AttemptPayload{TimeStart: 1000, TimeFinish: 1100},
	}
	require.NoError(t, e.refresh.Dispatch(context.Background(), submit))

	remove := Event{
		Type: EventAttemptDeleted, CourseRef: 100, ModuleRef: module.ModuleRef, LearnerID: 1,
		Attempt: &AttemptPayload{TimeStart: 1000, TimeFinish: 1100},
	}
	require.NoError(t, e.refresh.Dispatch(context.Background(), remove))

	attribution, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	values, err := e.params.ModuleUserValues(attribution.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", values[module.ID]["beststart"])
	assert.Equal(t, "0", values[module.ID]["bestfinish"])
}

func TestDispatchStructureEvents(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	course, _, _ := e.newCourse(t, model.PolicyManual, model.TypeScore)

	created := Event{Type: EventSectionCreated, CourseRef: 100, SectionRef: 11, Position: 1}
	require.NoError(t, e.refresh.Dispatch(context.Background(), created))

	section, err := e.courses.FindSection(course.ID, 11)
	require.NoError(t, err)
	elements, err := e.elementRepo.FindBySection(section.ID)
	require.NoError(t, err)
	assert.Len(t, elements, len(model.AllTypes))

	module := Event{Type: EventModuleCreated, CourseRef: 100, SectionRef: 11, ModuleRef: 2000, ModType: "forum"}
	require.NoError(t, e.refresh.Dispatch(context.Background(), module))

	mirrored, err := e.courses.FindModuleByRef(course.ID, 2000)
	require.NoError(t, err)
	assert.Equal(t, section.ID, mirrored.SectionID)

	hide := Event{Type: EventModuleVisibility, CourseRef: 100, ModuleRef: 2000, Visible: false}
	require.NoError(t, e.refresh.Dispatch(context.Background(), hide))

	mirrored, err = e.courses.FindModuleByRef(course.ID, 2000)
	require.NoError(t, err)
	assert.False(t, mirrored.Visible)

	deleted := Event{Type: EventSectionDeleted, CourseRef: 100, SectionRef: 11}
	require.NoError(t, e.refresh.Dispatch(context.Background(), deleted))

	_, err = e.courses.FindSection(course.ID, 11)
	assert.Error(t, err)
}

func TestDispatchRestoreCycle(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	course, section, _ := e.newCourse(t, model.PolicyManual, model.TypeScore)

	require.NoError(t, e.refresh.Dispatch(context.Background(), Event{Type: EventRestoreStarted, CourseRef: 100}))

	reloaded, err := e.courses.FindByID(course.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Restoring)

	// Enrollment during restore is suppressed.
	err = e.refresh.Dispatch(context.Background(), Event{Type: EventLearnerEnrolled, CourseRef: 100, LearnerID: 5})
	assert.Error(t, err)

	require.NoError(t, e.refresh.Dispatch(context.Background(), Event{Type: EventRestoreFinished, CourseRef: 100}))

	reloaded, err = e.courses.FindByID(course.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Restoring)

	_, err = e.attributions.FindBySectionAndLearner(section.ID, 1)
	assert.NoError(t, err)
}

func TestDispatchCourseReset(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeScore)

	attribution, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	_, err = e.params.SetModuleUserValue(attribution.ID, module.ID, "score", "80")
	require.NoError(t, err)

	require.NoError(t, e.refresh.Dispatch(context.Background(), Event{Type: EventCourseReset, CourseRef: 100}))

	fresh, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	assert.NotEqual(t, attribution.ID, fresh.ID)

	values, err := e.params.ModuleUserValues(fresh.ID)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestRefreshAllProgression(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1, 2}
	course, section, module := e.newCourse(t, model.PolicyManual, model.TypeProgress)
	e.provider.setGrade(module.ModuleRef, 1, 5, 10)
	e.provider.setGrade(module.ModuleRef, 2, 10, 10)

	require.NoError(t, e.refresh.RefreshAllProgression(context.Background(), course))

	expected := map[uint]string{1: "50", 2: "100"}
	for learnerID, want := range expected {
		attribution, err := e.attributions.FindBySectionAndLearner(section.ID, learnerID)
		require.NoError(t, err)
		values, err := e.params.ModuleUserValues(attribution.ID)
		require.NoError(t, err)
		assert.Equal(t, want, values[module.ID]["progression"], "learner %d", learnerID)
	}
}
