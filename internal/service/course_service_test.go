package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/retention-api/internal/models"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type stubCourseRepo struct {
	courses map[string]models.Course
}

func (s *stubCourseRepo) Create(_ context.Context, course *models.Course) error {
	course.ID = "course-new"
	return nil
}

func (s *stubCourseRepo) FindByID(_ context.Context, id string) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

func (s *stubCourseRepo) ListByProfessor(_ context.Context, _ string) ([]models.CourseDetail, error) {
	return nil, nil
}

func (s *stubCourseRepo) ListByStudent(_ context.Context, _ string) ([]models.Course, error) {
	return nil, nil
}

func newTestCourseService() *CourseService {
	repo := &stubCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", Code: "CS101", ProfessorID: "prof-1"},
	}}
	return NewCourseService(repo, nil, nil)
}

func TestAuthorizeProfessor_Owner(t *testing.T) {
	svc := newTestCourseService()

	course, err := svc.AuthorizeProfessor(context.Background(), "course-1",
		&models.JWTClaims{UserID: "prof-1", Role: models.RoleProfessor})
	require.NoError(t, err)
	assert.Equal(t, "course-1", course.ID)
}

func TestAuthorizeProfessor_ForeignProfessorForbidden(t *testing.T) {
	svc := newTestCourseService()

	_, err := svc.AuthorizeProfessor(context.Background(), "course-1",
		&models.JWTClaims{UserID: "prof-2", Role: models.RoleProfessor})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthorizeProfessor_AdminBypassesOwnership(t *testing.T) {
	svc := newTestCourseService()

	course, err := svc.AuthorizeProfessor(context.Background(), "course-1",
		&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "prof-1", course.ProfessorID)
}

func TestAuthorizeProfessor_UnknownCourse(t *testing.T) {
	svc := newTestCourseService()

	_, err := svc.AuthorizeProfessor(context.Background(), "ghost",
		&models.JWTClaims{UserID: "prof-1", Role: models.RoleProfessor})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAuthorizeProfessor_MissingClaims(t *testing.T) {
	svc := newTestCourseService()

	_, err := svc.AuthorizeProfessor(context.Background(), "course-1", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
