package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/retention-api/internal/middleware"
	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/internal/service"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
	"github.com/edupulse/retention-api/pkg/response"
)

// CourseHandler exposes course and roster endpoints.
type CourseHandler struct {
	courses     *service.CourseService
	enrollments *service.EnrollmentService
	students    *service.StudentService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, enrollments *service.EnrollmentService, students *service.StudentService) *CourseHandler {
	return &CourseHandler{courses: courses, enrollments: enrollments, students: students}
}

// Create registers a new course for the calling professor.
func (h *CourseHandler) Create(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// List returns the caller's courses: taught courses for professors,
// enrolled courses for students.
func (h *CourseHandler) List(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	if claims.Role == models.RoleStudent {
		student, err := h.students.GetByUser(ctx, claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		courses, err := h.courses.ListForStudent(ctx, student.ID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, courses, nil)
		return
	}

	courses, err := h.courses.ListForProfessor(ctx, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Get returns one course.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Enroll adds a student to the course roster.
func (h *CourseHandler) Enroll(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Roster lists the active enrollments of a course.
func (h *CourseHandler) Roster(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	roster, err := h.enrollments.Roster(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Unenroll removes a student from the roster.
func (h *CourseHandler) Unenroll(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.enrollments.Unenroll(c.Request.Context(), courseID, c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
