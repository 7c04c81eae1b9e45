package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/retention-api/internal/middleware"
	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/internal/service"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
	"github.com/edupulse/retention-api/pkg/response"
)

// StudentHandler exposes the student directory.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List returns students matching the filter.
func (h *StudentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	filter := models.StudentFilter{
		Search:   c.Query("search"),
		CourseID: c.Query("course_id"),
		Page:     page,
		PageSize: pageSize,
	}
	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get returns one student. Students may only see themselves, parents
// only their own children.
func (h *StudentHandler) Get(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	studentID := c.Param("studentId")
	ctx := c.Request.Context()

	switch claims.Role {
	case models.RoleStudent:
		self, err := h.students.GetByUser(ctx, claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		if self.ID != studentID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own record"))
			return
		}
	case models.RoleParent:
		linked, err := h.students.IsParentOf(ctx, claims.UserID, studentID)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !linked {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "not linked to this student"))
			return
		}
	}

	student, err := h.students.Get(ctx, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Children returns the students linked to the calling parent.
func (h *StudentHandler) Children(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	students, err := h.students.Children(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
