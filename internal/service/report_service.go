package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"ludilearn_backend/internal/model"
	"ludilearn_backend/internal/repository"
	"ludilearn_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const reportTTL = time.Minute

// ReportRow is one learner/section line of the staff report.
type ReportRow struct {
	LearnerID   uint                  `json:"learnerId"`
	SectionID   uint                  `json:"sectionId"`
	Type        model.GameElementType `json:"type"`
	Progression int                   `json:"progression"`
	LastAccess  int64                 `json:"lastAccess"`
}

// ReportQuery is the staff filter/page request.
type ReportQuery struct {
	Filter model.GameElementType
	Sort   string
	Limit  int
	Offset int
}

// ReportService builds the per-course staff report from stored attributions
// and values, cached briefly in redis since the report page polls.
type ReportService struct {
	CourseRepo *repository.CourseRepository
	ReportRepo *repository.ReportRepository
	Redis      *redis.Client
}

func NewReportService(courseRepo *repository.CourseRepository, reportRepo *repository.ReportRepository, rdb *redis.Client) *ReportService {
	return &ReportService{CourseRepo: courseRepo, ReportRepo: reportRepo, Redis: rdb}
}

// CourseReport returns the filtered, sorted page of report rows plus the
// total row count before paging.
func (s *ReportService) CourseReport(ctx context.Context, courseRef uint, query ReportQuery) ([]ReportRow, int, error) {
	course, err := s.CourseRepo.FindByRef(courseRef)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, util.ErrCourseNotFound
		}
		return nil, 0, err
	}

	rows, err := s.courseRows(ctx, course.ID)
	if err != nil {
		return nil, 0, err
	}

	if query.Filter != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.Type == query.Filter {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	sortRows(rows, query.Sort)
	total := len(rows)

	if query.Offset > len(rows) {
		query.Offset = len(rows)
	}
	rows = rows[query.Offset:]
	if query.Limit > 0 && query.Limit < len(rows) {
		rows = rows[:query.Limit]
	}
	return rows, total, nil
}

func (s *ReportService) courseRows(ctx context.Context, courseID uint) ([]ReportRow, error) {
	cacheKey := fmt.Sprintf("ludilearn:report:%d", courseID)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var rows []ReportRow
			if err := json.Unmarshal([]byte(cached), &rows); err == nil {
				return rows, nil
			}
		}
	}

	attributions, err := s.ReportRepo.AttributionsByCourse(courseID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(attributions))
	for _, attribution := range attributions {
		ids = append(ids, attribution.AttributionID)
	}
	progressions, err := s.ReportRepo.AverageProgression(ids)
	if err != nil {
		return nil, err
	}
	lastAccess, err := s.ReportRepo.LastAccess(ids)
	if err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(attributions))
	for _, attribution := range attributions {
		row := ReportRow{
			LearnerID:   attribution.LearnerID,
			SectionID:   attribution.SectionID,
			Type:        attribution.Type,
			Progression: progressions[attribution.AttributionID],
		}
		if raw, ok := lastAccess[attribution.AttributionID]; ok {
			row.LastAccess, _ = strconv.ParseInt(raw, 10, 64)
		}
		rows = append(rows, row)
	}

	if s.Redis != nil {
		if encoded, err := json.Marshal(rows); err == nil {
			s.Redis.Set(ctx, cacheKey, encoded, reportTTL)
		}
	}
	return rows, nil
}

// sortRows orders the report; ties fall back to learner then section id so
// paging stays stable between requests.
func sortRows(rows []ReportRow, key string) {
	less := func(i, j int) bool {
		return rows[i].LearnerID < rows[j].LearnerID ||
			(rows[i].LearnerID == rows[j].LearnerID && rows[i].SectionID < rows[j].SectionID)
	}
	switch key {
	case "progression":
		less = func(i, j int) bool {
			if rows[i].Progression != rows[j].Progression {
				return rows[i].Progression > rows[j].Progression
			}
			return rows[i].LearnerID < rows[j].LearnerID
		}
	case "lastaccess":
		less = func(i, j int) bool {
			if rows[i].LastAccess != rows[j].LastAccess {
				return rows[i].LastAccess > rows[j].LastAccess
			}
			return rows[i].LearnerID < rows[j].LearnerID
		}
	}
	sort.SliceStable(rows, less)
}
