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

// DashboardHandler exposes read-side overviews.
type DashboardHandler struct {
	dashboards *service.DashboardService
	students   *service.StudentService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards *service.DashboardService, students *service.StudentService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, students: students}
}

// Professor returns the calling professor's course overview.
func (h *DashboardHandler) Professor(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	dashboard, err := h.dashboards.ProfessorOverview(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Student returns a student overview. Students see their own; parents see
// their children's.
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	studentID := c.Param("studentId")
	ctx := c.Request.Context()

	switch claims.Role {
	case models.RoleStudent:
		student, err := h.students.GetByUser(ctx, claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		if student.ID != studentID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own dashboard"))
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

	dashboard, err := h.dashboards.StudentOverview(ctx, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}
