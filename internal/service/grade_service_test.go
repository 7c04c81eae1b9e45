package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/retention-api/internal/models"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type stubGradeRepo struct {
	stored     map[string]models.Grade // keyed student|item
	upsertErr  error
	bulkErr    error
	byItem     []models.GradeDetail
	byCourse   []models.Grade
	byStudent  []models.Grade
	byStudents map[string][]models.Grade
}

func newStubGradeRepo() *stubGradeRepo {
	return &stubGradeRepo{stored: make(map[string]models.Grade)}
}

func (s *stubGradeRepo) Upsert(_ context.Context, grade *models.Grade) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.stored[grade.StudentID+"|"+grade.GradeItemID] = *grade
	return nil
}

func (s *stubGradeRepo) BulkUpsert(_ context.Context, grades []models.Grade) error {
	if s.bulkErr != nil {
		return s.bulkErr
	}
	for _, grade := range grades {
		s.stored[grade.StudentID+"|"+grade.GradeItemID] = grade
	}
	return nil
}

func (s *stubGradeRepo) FindByPair(_ context.Context, studentID, gradeItemID string) (*models.Grade, error) {
	grade, ok := s.stored[studentID+"|"+gradeItemID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &grade, nil
}

func (s *stubGradeRepo) ListByItem(_ context.Context, _ string) ([]models.GradeDetail, error) {
	return s.byItem, nil
}

func (s *stubGradeRepo) ListByCourse(_ context.Context, _ string) ([]models.Grade, error) {
	return s.byCourse, nil
}

func (s *stubGradeRepo) ListByStudentAndCourse(_ context.Context, _, _ string) ([]models.Grade, error) {
	return s.byStudent, nil
}

func (s *stubGradeRepo) FetchByStudents(_ context.Context, _ []string, _ string) (map[string][]models.Grade, error) {
	return s.byStudents, nil
}

type stubItemReader struct {
	items map[string]models.GradeItem
	list  []models.GradeItem
}

func (s *stubItemReader) FindByID(_ context.Context, id string) (*models.GradeItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *stubItemReader) ListByCourse(_ context.Context, _ string) ([]models.GradeItem, error) {
	return s.list, nil
}

type stubCourseReader struct {
	courses map[string]models.Course
}

func (s *stubCourseReader) FindByID(_ context.Context, id string) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

type stubRoster struct {
	roster []models.EnrollmentDetail
}

func (s *stubRoster) ListByCourse(_ context.Context, _ string) ([]models.EnrollmentDetail, error) {
	return s.roster, nil
}

func score(v float64) *models.Score {
	s := models.Score(v)
	return &s
}

func newTestGradeService(grades *stubGradeRepo, items *stubItemReader) *GradeService {
	courses := &stubCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1", Code: "CS101"},
	}}
	roster := &stubRoster{}
	return NewGradeService(grades, items, courses, roster, nil, nil, nil, nil)
}

func TestUpsertScore_IdempotentOverwrite(t *testing.T) {
	grades := newStubGradeRepo()
	items := &stubItemReader{items: map[string]models.GradeItem{
		"item-1": {ID: "item-1", CourseID: "course-1", Title: "Quiz", MaxScore: 100, Weight: 20},
	}}
	svc := newTestGradeService(grades, items)

	first, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID: "stu-1", GradeItemID: "item-1", Score: score(70),
	})
	require.NoError(t, err)
	assert.Equal(t, 70.0, first.Score)

	second, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID: "stu-1", GradeItemID: "item-1", Score: score(85),
	})
	require.NoError(t, err)
	assert.Equal(t, 85.0, second.Score)

	// Still one row for the pair, carrying the later score.
	assert.Len(t, grades.stored, 1)
	assert.Equal(t, 85.0, grades.stored["stu-1|item-1"].Score)
}

func TestUpsertScore_UnknownItem(t *testing.T) {
	svc := newTestGradeService(newStubGradeRepo(), &stubItemReader{items: map[string]models.GradeItem{}})

	_, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID: "stu-1", GradeItemID: "missing", Score: score(50),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpsertScore_RangeValidation(t *testing.T) {
	items := &stubItemReader{items: map[string]models.GradeItem{
		"item-1": {ID: "item-1", CourseID: "course-1", Title: "Quiz", MaxScore: 10, Weight: 20},
	}}
	svc := newTestGradeService(newStubGradeRepo(), items)

	_, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID: "stu-1", GradeItemID: "item-1", Score: score(-1),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID: "stu-1", GradeItemID: "item-1", Score: score(11),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpsertScore_MissingScoreRejected(t *testing.T) {
	svc := newTestGradeService(newStubGradeRepo(), &stubItemReader{})

	_, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID: "stu-1", GradeItemID: "item-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpsertScore_UniqueViolationMapsToConflict(t *testing.T) {
	grades := newStubGradeRepo()
	grades.upsertErr = &pq.Error{Code: "23505"}
	items := &stubItemReader{items: map[string]models.GradeItem{
		"item-1": {ID: "item-1", CourseID: "course-1", MaxScore: 100, Weight: 20},
	}}
	svc := newTestGradeService(grades, items)

	_, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID: "stu-1", GradeItemID: "item-1", Score: score(50),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBulkUpsertForItem_DuplicateStudentRejected(t *testing.T) {
	items := &stubItemReader{items: map[string]models.GradeItem{
		"item-1": {ID: "item-1", CourseID: "course-1", MaxScore: 100, Weight: 20},
	}}
	svc := newTestGradeService(newStubGradeRepo(), items)

	_, err := svc.BulkUpsertForItem(context.Background(), "item-1", ItemGradesRequest{
		Grades: []ItemGradeEntry{
			{StudentID: "stu-1", Score: score(50)},
			{StudentID: "stu-1", Score: score(60)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBulkUpsertForItem_AllOrNothing(t *testing.T) {
	grades := newStubGradeRepo()
	grades.bulkErr = errors.New("constraint failure")
	items := &stubItemReader{items: map[string]models.GradeItem{
		"item-1": {ID: "item-1", CourseID: "course-1", MaxScore: 100, Weight: 20},
	}}
	svc := newTestGradeService(grades, items)

	_, err := svc.BulkUpsertForItem(context.Background(), "item-1", ItemGradesRequest{
		Grades: []ItemGradeEntry{
			{StudentID: "stu-1", Score: score(50)},
			{StudentID: "stu-2", Score: score(60)},
		},
	})
	require.Error(t, err)
	assert.Empty(t, grades.stored)
}

func TestUpsertMarks_UnknownItemRejectsWholeBatch(t *testing.T) {
	grades := newStubGradeRepo()
	items := &stubItemReader{
		items: map[string]models.GradeItem{
			"item-1": {ID: "item-1", CourseID: "course-1", MaxScore: 100, Weight: 20},
		},
		list: []models.GradeItem{
			{ID: "item-1", CourseID: "course-1", MaxScore: 100, Weight: 20},
		},
	}
	svc := newTestGradeService(grades, items)

	var marks models.MarksMatrix
	require.NoError(t, json.Unmarshal([]byte(`{
		"item-1": {"stu-1": 90},
		"ghost":  {"stu-1": 50}
	}`), &marks))

	_, err := svc.UpsertMarks(context.Background(), "course-1", marks)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, grades.stored)
}

func TestUpsertMarks_AppliesMatrix(t *testing.T) {
	grades := newStubGradeRepo()
	items := &stubItemReader{
		items: map[string]models.GradeItem{
			"item-1": {ID: "item-1", CourseID: "course-1", MaxScore: 100, Weight: 20},
		},
		list: []models.GradeItem{
			{ID: "item-1", CourseID: "course-1", MaxScore: 100, Weight: 20},
		},
	}
	svc := newTestGradeService(grades, items)

	var marks models.MarksMatrix
	require.NoError(t, json.Unmarshal([]byte(`{
		"item-1": {"stu-1": 90, "stu-2": "75.5"}
	}`), &marks))

	count, err := svc.UpsertMarks(context.Background(), "course-1", marks)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 90.0, grades.stored["stu-1|item-1"].Score)
	assert.Equal(t, 75.5, grades.stored["stu-2|item-1"].Score)
}

func TestGradeWrites_CountedByKind(t *testing.T) {
	grades := newStubGradeRepo()
	items := &stubItemReader{
		items: map[string]models.GradeItem{
			"item-1": {ID: "item-1", CourseID: "course-1", MaxScore: 100, Weight: 20},
		},
		list: []models.GradeItem{
			{ID: "item-1", CourseID: "course-1", MaxScore: 100, Weight: 20},
		},
	}
	courses := &stubCourseReader{courses: map[string]models.Course{"course-1": {ID: "course-1"}}}
	metrics := NewMetricsService()
	svc := NewGradeService(grades, items, courses, &stubRoster{}, nil, metrics, nil, nil)

	_, err := svc.UpsertScore(context.Background(), UpsertScoreRequest{
		StudentID: "stu-1", GradeItemID: "item-1", Score: score(50),
	})
	require.NoError(t, err)

	_, err = svc.BulkUpsertForItem(context.Background(), "item-1", ItemGradesRequest{
		Grades: []ItemGradeEntry{{StudentID: "stu-2", Score: score(60)}},
	})
	require.NoError(t, err)

	var marks models.MarksMatrix
	require.NoError(t, json.Unmarshal([]byte(`{"item-1": {"stu-3": 70}}`), &marks))
	_, err = svc.UpsertMarks(context.Background(), "course-1", marks)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.gradeWrites.WithLabelValues("single")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.gradeWrites.WithLabelValues("item_batch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.gradeWrites.WithLabelValues("marks")))
}

func TestSummary_AggregatesPerStudent(t *testing.T) {
	grades := newStubGradeRepo()
	grades.byStudents = map[string][]models.Grade{
		"stu-1": {{StudentID: "stu-1", GradeItemID: "item-1", Score: 45}},
	}
	items := &stubItemReader{
		list: []models.GradeItem{
			{ID: "item-1", CourseID: "course-1", MaxScore: 50, Weight: 40},
			{ID: "item-2", CourseID: "course-1", MaxScore: 100, Weight: 60},
		},
	}
	courses := &stubCourseReader{courses: map[string]models.Course{"course-1": {ID: "course-1"}}}
	roster := &stubRoster{roster: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{StudentID: "stu-1"}, StudentNumber: "S001", FullName: "Ada"},
		{Enrollment: models.Enrollment{StudentID: "stu-2"}, StudentNumber: "S002", FullName: "Ben"},
	}}
	svc := NewGradeService(grades, items, courses, roster, nil, nil, nil, nil)

	summary, err := svc.Summary(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, summary.Students, 2)

	graded := summary.Students[0]
	require.NotNil(t, graded.Overall)
	assert.Equal(t, 90, *graded.Overall)
	assert.Equal(t, 40.0, graded.RealizedWeight)

	ungraded := summary.Students[1]
	assert.Nil(t, ungraded.Overall)
	assert.Zero(t, ungraded.RealizedWeight)
}
