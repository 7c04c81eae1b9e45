package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/retention-api/internal/models"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type stubAttendanceRepo struct {
	records []models.AttendanceRecord
	rates   map[string]models.AttendanceRate
}

func (s *stubAttendanceRepo) BulkUpsert(_ context.Context, records []models.AttendanceRecord) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *stubAttendanceRepo) ListByCourseAndDate(_ context.Context, _ string, _ time.Time) ([]models.AttendanceRecord, error) {
	return s.records, nil
}

func (s *stubAttendanceRepo) RatesByCourse(_ context.Context, _ string) (map[string]models.AttendanceRate, error) {
	return s.rates, nil
}

func newTestAttendanceService(repo *stubAttendanceRepo) *AttendanceService {
	courses := &stubCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1"},
	}}
	return NewAttendanceService(repo, courses, nil, nil)
}

func TestAttendanceRecord_Batch(t *testing.T) {
	repo := &stubAttendanceRepo{}
	svc := newTestAttendanceService(repo)

	count, err := svc.Record(context.Background(), "course-1", RecordAttendanceRequest{
		Date: "2026-03-02",
		Entries: []AttendanceEntry{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-2", Status: models.AttendanceLate},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, repo.records, 2)
	assert.Equal(t, "course-1", repo.records[0].CourseID)
	assert.Equal(t, 2026, repo.records[0].Date.Year())
}

func TestAttendanceRecord_BadDate(t *testing.T) {
	svc := newTestAttendanceService(&stubAttendanceRepo{})

	_, err := svc.Record(context.Background(), "course-1", RecordAttendanceRequest{
		Date:    "03/02/2026",
		Entries: []AttendanceEntry{{StudentID: "stu-1", Status: models.AttendancePresent}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceRecord_UnknownStatus(t *testing.T) {
	repo := &stubAttendanceRepo{}
	svc := newTestAttendanceService(repo)

	_, err := svc.Record(context.Background(), "course-1", RecordAttendanceRequest{
		Date:    "2026-03-02",
		Entries: []AttendanceEntry{{StudentID: "stu-1", Status: models.AttendanceStatus("SKIPPED")}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.records)
}

func TestAttendanceRecord_DuplicateStudent(t *testing.T) {
	svc := newTestAttendanceService(&stubAttendanceRepo{})

	_, err := svc.Record(context.Background(), "course-1", RecordAttendanceRequest{
		Date: "2026-03-02",
		Entries: []AttendanceEntry{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-1", Status: models.AttendanceAbsent},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
