package service

import (
	"context"
	"testing"

	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReportCourse(t *testing.T, e *env) (*model.Section, *model.CourseModule) {
	t.Helper()
	e.provider.learners[100] = []uint{1, 2}
	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeScore)

	for learnerID, values := range map[uint]struct {
		progression string
		lastAccess  string
	}{
		1: {"40", "1700000000"},
		2: {"90", "1700000500"},
	} {
		attribution, err := e.attributions.FindBySectionAndLearner(section.ID, learnerID)
		require.NoError(t, err)
		_, err = e.params.SetModuleUserValue(attribution.ID, module.ID, "progression", values.progression)
		require.NoError(t, err)
		_, err = e.params.SetElementUserValue(attribution.ID, "lastaccess", values.lastAccess)
		require.NoError(t, err)
	}
	return section, module
}

func TestCourseReportAggregatesRows(t *testing.T) {
	e := newEnv(t)
	section, _ := seedReportCourse(t, e)

	rows, total, err := e.reports.CourseReport(context.Background(), 100, ReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 2)

	// Default order is learner then section.
	assert.Equal(t, uint(1), rows[0].LearnerID)
	assert.Equal(t, section.ID, rows[0].SectionID)
	assert.Equal(t, model.TypeScore, rows[0].Type)
	assert.Equal(t, 40, rows[0].Progression)
	assert.EqualValues(t, 1700000000, rows[0].LastAccess)

	assert.Equal(t, uint(2), rows[1].LearnerID)
	assert.Equal(t, 90, rows[1].Progression)
}

func TestCourseReportSortsByProgression(t *testing.T) {
	e := newEnv(t)
	seedReportCourse(t, e)

	rows, _, err := e.reports.CourseReport(context.Background(), 100, ReportQuery{Sort: "progression"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(2), rows[0].LearnerID)
	assert.Equal(t, uint(1), rows[1].LearnerID)
}

func TestCourseReportSortsByLastAccess(t *testing.T) {
	e := newEnv(t)
	seedReportCourse(t, e)

	rows, _, err := e.reports.CourseReport(context.Background(), 100, ReportQuery{Sort: "lastaccess"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(2), rows[0].LearnerID)
}

func TestCourseReportFiltersByType(t *testing.T) {
	e := newEnv(t)
	seedReportCourse(t, e)

	rows, total, err := e.reports.CourseReport(context.Background(), 100,
		ReportQuery{Filter: model.TypeBadge})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)

	rows, total, err = e.reports.CourseReport(context.Background(), 100,
		ReportQuery{Filter: model.TypeScore})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, rows, 2)
}

func TestCourseReportPages(t *testing.T) {
	e := newEnv(t)
	seedReportCourse(t, e)

	rows, total, err := e.reports.CourseReport(context.Background(), 100,
		ReportQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(1), rows[0].LearnerID)

	rows, total, err = e.reports.CourseReport(context.Background(), 100,
		ReportQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(2), rows[0].LearnerID)

	rows, total, err = e.reports.CourseReport(context.Background(), 100,
		ReportQuery{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, rows)
}

func TestCourseReportUnknownCourse(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.reports.CourseReport(context.Background(), 999, ReportQuery{})
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}
