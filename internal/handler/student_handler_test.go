package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/internal/service"
)

type fakeStudentRepo struct {
	byID   map[string]models.StudentDetail
	byUser map[string]models.StudentDetail
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	student, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (f *fakeStudentRepo) FindByUserID(_ context.Context, userID string) (*models.StudentDetail, error) {
	student, ok := f.byUser[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (f *fakeStudentRepo) List(_ context.Context, _ models.StudentFilter) ([]models.StudentDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeStudentRepo) ListByParent(_ context.Context, _ string) ([]models.StudentDetail, error) {
	return nil, nil
}

func newStudentTestRouter(claims *models.JWTClaims) *gin.Engine {
	parent := "u-parent-1"
	ada := models.StudentDetail{
		Student:  models.Student{ID: "stu-1", UserID: "u-stu-1", StudentNumber: "S001", ParentUserID: &parent},
		FullName: "Ada",
	}
	ben := models.StudentDetail{
		Student:  models.Student{ID: "stu-2", UserID: "u-stu-2", StudentNumber: "S002"},
		FullName: "Ben",
	}
	repo := &fakeStudentRepo{
		byID:   map[string]models.StudentDetail{"stu-1": ada, "stu-2": ben},
		byUser: map[string]models.StudentDetail{"u-stu-1": ada, "u-stu-2": ben},
	}
	h := NewStudentHandler(service.NewStudentService(repo, nil))

	router := gin.New()
	router.Use(withClaims(claims))
	router.GET("/students/:studentId", h.Get)
	return router
}

func getStudent(router *gin.Engine, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/students/"+id, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStudentGet_SelfAllowed(t *testing.T) {
	router := newStudentTestRouter(&models.JWTClaims{UserID: "u-stu-1", Role: models.RoleStudent})

	rec := getStudent(router, "stu-1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStudentGet_OtherStudentForbidden(t *testing.T) {
	router := newStudentTestRouter(&models.JWTClaims{UserID: "u-stu-1", Role: models.RoleStudent})

	rec := getStudent(router, "stu-2")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStudentGet_UnlinkedParentForbidden(t *testing.T) {
	router := newStudentTestRouter(&models.JWTClaims{UserID: "u-parent-1", Role: models.RoleParent})

	assert.Equal(t, http.StatusOK, getStudent(router, "stu-1").Code)
	assert.Equal(t, http.StatusForbidden, getStudent(router, "stu-2").Code)
}

func TestStudentGet_ProfessorAllowed(t *testing.T) {
	router := newStudentTestRouter(&models.JWTClaims{UserID: "prof-1", Role: models.RoleProfessor})

	rec := getStudent(router, "stu-2")
	assert.Equal(t, http.StatusOK, rec.Code)
}
