package service

import (
	"context"
	"testing"

	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConvertCourseIsIdempotent(t *testing.T) {
	e := newEnv(t)

	first, err := e.attribution.ConvertCourse(100, model.PolicyManual, model.TypeScore, model.WorldSchool)
	require.NoError(t, err)

	second, err := e.attribution.ConvertCourse(100, model.PolicyAutomatic, model.TypeBadge, model.WorldFantasy)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.PolicyManual, second.Policy)
}

func TestSectionCreatedBuildsElementsAndAttributes(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1, 2}

	_, section, _ := e.newCourse(t, model.PolicyManual, model.TypeScore)

	elements, err := e.elementRepo.FindBySection(section.ID)
	require.NoError(t, err)
	assert.Len(t, elements, len(model.AllTypes))

	scoreElement := e.elementOfType(t, section.ID, model.TypeScore)
	params, err := e.params.ElementParams(scoreElement.ID)
	require.NoError(t, err)
	assert.Equal(t, "100", params["multiplier"])
	assert.Equal(t, "150", params["bonuscompletion"])

	for _, learnerID := range []uint{1, 2} {
		attribution, err := e.attributions.FindBySectionAndLearner(section.ID, learnerID)
		require.NoError(t, err)
		assert.Equal(t, scoreElement.ID, attribution.GameElementID)
	}
}

func TestModuleCreatedSeedsModuleDefaults(t *testing.T) {
	e := newEnv(t)

	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeScore)

	scoreElement := e.elementOfType(t, section.ID, model.TypeScore)
	params, err := e.params.ModuleParams(scoreElement.ID)
	require.NoError(t, err)
	assert.Equal(t, "100", params[module.ID]["maxscore"])
	assert.Equal(t, "1", params[module.ID]["gamified"])
}

func TestAutomaticPolicyWaitsForProfile(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}

	course, section, _ := e.newCourse(t, model.PolicyAutomatic, model.TypeScore)

	_, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	assert.Equal(t, gorm.ErrRecordNotFound, err)

	require.NoError(t, e.profileRepo.Save(&model.HexadProfile{LearnerID: 1, Type: model.HexadPhilanthropist}))
	require.NoError(t, e.attribution.EnrollLearner(course, 1))

	attribution, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	progressElement := e.elementOfType(t, section.ID, model.TypeProgress)
	assert.Equal(t, progressElement.ID, attribution.GameElementID)
}

func TestAttributeIsIdempotent(t *testing.T) {
	e := newEnv(t)
	_, section, _ := e.newCourse(t, model.PolicyManual, model.TypeScore)
	scoreElement := e.elementOfType(t, section.ID, model.TypeScore)

	first, err := e.attribution.Attribute(scoreElement.ID, 1, false)
	require.NoError(t, err)

	second, err := e.attribution.Attribute(scoreElement.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAttributeForceResetsValues(t *testing.T) {
	e := newEnv(t)
	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeScore)
	scoreElement := e.elementOfType(t, section.ID, model.TypeScore)

	attribution, err := e.attribution.Attribute(scoreElement.ID, 1, false)
	require.NoError(t, err)
	_, err = e.params.SetModuleUserValue(attribution.ID, module.ID, "score", "80")
	require.NoError(t, err)

	fresh, err := e.attribution.Attribute(scoreElement.ID, 1, true)
	require.NoError(t, err)
	assert.NotEqual(t, attribution.ID, fresh.ID)

	values, err := e.params.ModuleUserValues(fresh.ID)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestAttributeMissingElementFails(t *testing.T) {
	e := newEnv(t)
	e.newCourse(t, model.PolicyManual, model.TypeScore)

	_, err := e.attribution.Attribute(99999, 1, false)
	assert.ErrorIs(t, err, util.ErrElementNotFound)
}

func TestSupersedeMigratesValues(t *testing.T) {
	e := newEnv(t)
	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeScore)
	scoreElement := e.elementOfType(t, section.ID, model.TypeScore)
	badgeElement := e.elementOfType(t, section.ID, model.TypeBadge)

	old, err := e.attribution.Attribute(scoreElement.ID, 1, false)
	require.NoError(t, err)
	_, err = e.params.SetModuleUserValue(old.ID, module.ID, "progression", "64")
	require.NoError(t, err)
	_, err = e.params.SetElementUserValue(old.ID, "itemowned-1-1", "1")
	require.NoError(t, err)

	fresh, err := e.attribution.Attribute(badgeElement.ID, 1, false)
	require.NoError(t, err)

	_, err = e.attributions.FindByID(old.ID)
	assert.Equal(t, gorm.ErrRecordNotFound, err)

	moduleValues, err := e.params.ModuleUserValues(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "64", moduleValues[module.ID]["progression"])

	elementValues, err := e.params.ElementUserValues(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", elementValues["itemowned-1-1"])
}

func TestEnrollSuppressedWhileRestoring(t *testing.T) {
	e := newEnv(t)
	course, _, _ := e.newCourse(t, model.PolicyManual, model.TypeScore)

	require.NoError(t, e.courses.SetRestoring(course.ID, true))
	course.Restoring = true

	err := e.attribution.EnrollLearner(course, 1)
	assert.ErrorIs(t, err, util.ErrCourseRestoring)
}

func TestPolicyChangeReattributesEveryone(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1, 2}
	course, section, _ := e.newCourse(t, model.PolicyManual, model.TypeScore)

	require.NoError(t, e.attribution.PolicyChange(context.Background(), course, model.PolicyManual, model.TypeTimer))

	timerElement := e.elementOfType(t, section.ID, model.TypeTimer)
	for _, learnerID := range []uint{1, 2} {
		attribution, err := e.attributions.FindBySectionAndLearner(section.ID, learnerID)
		require.NoError(t, err)
		assert.Equal(t, timerElement.ID, attribution.GameElementID)
	}
}

func TestPolicyChangeToAutomaticOnlyMovesProfiledLearners(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1, 2}
	course, section, _ := e.newCourse(t, model.PolicyManual, model.TypeScore)
	scoreElement := e.elementOfType(t, section.ID, model.TypeScore)

	require.NoError(t, e.profileRepo.Save(&model.HexadProfile{LearnerID: 1, Type: model.HexadFreeSpirit}))

	require.NoError(t, e.attribution.PolicyChange(context.Background(), course, model.PolicyAutomatic, ""))

	avatarElement := e.elementOfType(t, section.ID, model.TypeAvatar)
	attributed, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, avatarElement.ID, attributed.GameElementID)

	// The unprofiled learner keeps the previous attribution untouched.
	kept, err := e.attributions.FindBySectionAndLearner(section.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, scoreElement.ID, kept.GameElementID)
}

func TestSetSectionTypeUnderBySection(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	course, section, _ := e.newCourse(t, model.PolicyBySection, model.TypeScore)

	require.NoError(t, e.attribution.SetSectionType(context.Background(), course, section.ID, model.TypeRanking))

	rankingElement := e.elementOfType(t, section.ID, model.TypeRanking)
	attribution, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, rankingElement.ID, attribution.GameElementID)
}

func TestReconcileRemovesUnenrolledLearners(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1, 2}
	course, section, _ := e.newCourse(t, model.PolicyManual, model.TypeScore)

	e.provider.learners[100] = []uint{1}
	require.NoError(t, e.attribution.Reconcile(context.Background(), course))

	_, err := e.attributions.FindBySectionAndLearner(section.ID, 2)
	assert.Equal(t, gorm.ErrRecordNotFound, err)

	_, err = e.attributions.FindBySectionAndLearner(section.ID, 1)
	assert.NoError(t, err)
}

func TestModuleMovedKeepsLearnerData(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	course, section, module := e.newCourse(t, model.PolicyManual, model.TypeScore)

	other, err := e.attribution.SectionCreated(context.Background(), course, 11, 1)
	require.NoError(t, err)

	attribution, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	_, err = e.params.SetModuleUserValue(attribution.ID, module.ID, "score", "80")
	require.NoError(t, err)

	require.NoError(t, e.attribution.ModuleMoved(module, other.ID, 0))

	moved, err := e.courses.FindModuleByRef(course.ID, module.ModuleRef)
	require.NoError(t, err)
	assert.Equal(t, other.ID, moved.SectionID)

	newAttribution, err := e.attributions.FindBySectionAndLearner(other.ID, 1)
	require.NoError(t, err)
	values, err := e.params.ModuleUserValues(newAttribution.ID)
	require.NoError(t, err)
	assert.Equal(t, "80", values[module.ID]["score"])
}

func TestSectionDeletedCascades(t *testing.T) {
	e := newEnv(t)
	e.provider.learners[100] = []uint{1}
	_, section, module := e.newCourse(t, model.PolicyManual, model.TypeScore)

	attribution, err := e.attributions.FindBySectionAndLearner(section.ID, 1)
	require.NoError(t, err)
	_, err = e.params.SetModuleUserValue(attribution.ID, module.ID, "score", "80")
	require.NoError(t, err)

	require.NoError(t, e.attribution.SectionDeleted(section.ID))

	elements, err := e.elementRepo.FindBySection(section.ID)
	require.NoError(t, err)
	assert.Empty(t, elements)

	var count int64
	require.NoError(t, e.db.Model(&model.ModuleUserValue{}).Count(&count).Error)
	assert.Zero(t, count)
}
