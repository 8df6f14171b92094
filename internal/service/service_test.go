package service

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"ludilearn_backend/internal/lms"
	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/repository"
	"ludilearn_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

var testDBCounter uint64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("svc%d", atomic.AddUint64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Course{},
		&model.Section{},
		&model.CourseModule{},
		&model.GameElement{},
		&model.Attribution{},
		&model.SectionAssignment{},
		&model.ElementParam{},
		&model.ModuleParam{},
		&model.ElementUserValue{},
		&model.ModuleUserValue{},
		&model.HexadProfile{},
		&model.HexadAnswer{},
	))
	return db
}

// fakeProvider is an in-memory stand-in for the LMS web services.
type fakeProvider struct {
	grades      map[uint]map[uint]lms.GradeState
	completions map[uint]map[uint]lms.CompletionState
	unavailable map[uint]map[uint]bool
	learners    map[uint][]uint
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		grades:      make(map[uint]map[uint]lms.GradeState),
		completions: make(map[uint]map[uint]lms.CompletionState),
		unavailable: make(map[uint]map[uint]bool),
		learners:    make(map[uint][]uint),
	}
}

func (p *fakeProvider) setGrade(moduleRef, learnerID uint, grade, max float64) {
	if p.grades[moduleRef] == nil {
		p.grades[moduleRef] = make(map[uint]lms.GradeState)
	}
	p.grades[moduleRef][learnerID] = lms.GradeState{Gradable: true, Grade: grade, GradeMax: max}
}

func (p *fakeProvider) setCompletion(moduleRef, learnerID uint, completed bool) {
	if p.completions[moduleRef] == nil {
		p.completions[moduleRef] = make(map[uint]lms.CompletionState)
	}
	p.completions[moduleRef][learnerID] = lms.CompletionState{TrackingEnabled: true, Completed: completed}
}

func (p *fakeProvider) GradeState(_ context.Context, moduleRef, learnerID uint) (lms.GradeState, error) {
	return p.grades[moduleRef][learnerID], nil
}

func (p *fakeProvider) CompletionState(_ context.Context, moduleRef, learnerID uint) (lms.CompletionState, error) {
	return p.completions[moduleRef][learnerID], nil
}

func (p *fakeProvider) Available(_ context.Context, moduleRef, learnerID uint) (bool, error) {
	return !p.unavailable[moduleRef][learnerID], nil
}

func (p *fakeProvider) EnrolledLearners(_ context.Context, courseRef uint) ([]uint, error) {
	return p.learners[courseRef], nil
}

// env wires the full service stack onto one test database.
type env struct {
	db       *gorm.DB
	provider *fakeProvider

	courses      *repository.CourseRepository
	elementRepo  *repository.GameElementRepository
	attributions *repository.AttributionRepository
	params       *repository.ParameterRepository
	profileRepo  *repository.ProfileRepository
	reportRepo   *repository.ReportRepository

	attribution *AttributionService
	elements    *ElementService
	refresh     *RefreshService
	profiles    *ProfileService
	reports     *ReportService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := newTestDB(t)
	provider := newFakeProvider()

	e := &env{
		db:           db,
		provider:     provider,
		courses:      repository.NewCourseRepository(db),
		elementRepo:  repository.NewGameElementRepository(db),
		attributions: repository.NewAttributionRepository(db),
		params:       repository.NewParameterRepository(db),
		profileRepo:  repository.NewProfileRepository(db),
		reportRepo:   repository.NewReportRepository(db),
	}

	e.attribution = NewAttributionService(e.courses, e.elementRepo, e.attributions, e.params, e.profileRepo, provider)
	e.elements = NewElementService(e.courses, e.elementRepo, e.attributions, e.params, e.attribution, provider, nil)
	e.refresh = NewRefreshService(e.courses, e.elementRepo, e.attributions, e.params, e.attribution, e.elements)
	e.profiles = NewProfileService(e.profileRepo, e.courses, e.attribution)
	e.reports = NewReportService(e.courses, e.reportRepo, nil)
	return e
}

// newCourse converts a course and creates one section with one gradable
// module, returning all three.
func (e *env) newCourse(t *testing.T, policy model.AssignmentPolicy, defaultType model.GameElementType) (*model.Course, *model.Section, *model.CourseModule) {
	t.Helper()
	course, err := e.attribution.ConvertCourse(100, policy, defaultType, model.WorldSchool)
	require.NoError(t, err)

	section, err := e.attribution.SectionCreated(context.Background(), course, 10, 0)
	require.NoError(t, err)

	module, err := e.attribution.ModuleCreated(section.ID, 1000, "quiz", 0)
	require.NoError(t, err)

	return course, section, module
}

func (e *env) elementOfType(t *testing.T, sectionID uint, typ model.GameElementType) *model.GameElement {
	t.Helper()
	element, err := e.elementRepo.FindBySectionAndType(sectionID, typ)
	require.NoError(t, err)
	return element
}
