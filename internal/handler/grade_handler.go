package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/retention-api/internal/middleware"
	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/internal/service"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
	"github.com/edupulse/retention-api/pkg/response"
)

// GradeHandler exposes grade recording, marks and summary endpoints.
type GradeHandler struct {
	grades   *service.GradeService
	courses  *service.CourseService
	students *service.StudentService
	export   *service.ExportService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService, courses *service.CourseService, students *service.StudentService, export *service.ExportService) *GradeHandler {
	return &GradeHandler{grades: grades, courses: courses, students: students, export: export}
}

// Upsert records a single score. Repeating the call with the same pair
// overwrites the earlier score.
func (h *GradeHandler) Upsert(c *gin.Context) {
	var req service.UpsertScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	item, err := h.grades.Item(c.Request.Context(), req.GradeItemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), item.CourseID, middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	grade, err := h.grades.UpsertScore(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// UpsertForItem applies a batch of scores against one grade item.
func (h *GradeHandler) UpsertForItem(c *gin.Context) {
	item, ok := h.authorizeItem(c)
	if !ok {
		return
	}
	var req service.ItemGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	grades, err := h.grades.BulkUpsertForItem(c.Request.Context(), item.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// ListForItem returns the recorded grades of one grade item.
func (h *GradeHandler) ListForItem(c *gin.Context) {
	item, ok := h.authorizeItem(c)
	if !ok {
		return
	}
	grades, err := h.grades.ListForItem(c.Request.Context(), item.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// authorizeItem resolves the :itemId path param, confirms it belongs to
// the :courseId segment when present, and enforces course ownership.
// Writes the error response itself when authorization fails.
func (h *GradeHandler) authorizeItem(c *gin.Context) (*models.GradeItem, bool) {
	item, err := h.grades.Item(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if courseID := c.Param("courseId"); courseID != "" && courseID != item.CourseID {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "grade item not found in this course"))
		return nil, false
	}
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), item.CourseID, middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return item, true
}

// UpsertMarks applies a course-wide marks matrix in one batch.
func (h *GradeHandler) UpsertMarks(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	var marks models.MarksMatrix
	if err := c.ShouldBindJSON(&marks); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	count, err := h.grades.UpsertMarks(c.Request.Context(), courseID, marks)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": count}, nil)
}

// Marks returns the course gradebook.
func (h *GradeHandler) Marks(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	marks, err := h.grades.Marks(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// Summary returns the weighted aggregate of every enrolled student.
func (h *GradeHandler) Summary(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.grades.Summary(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// StudentSummary returns one student's aggregate for a course. Students
// may read their own; parents may read their children's; professors may
// read any student in their own course.
func (h *GradeHandler) StudentSummary(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
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
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own summary"))
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
	default:
		if _, err := h.courses.AuthorizeProfessor(ctx, courseID, claims); err != nil {
			response.Error(c, err)
			return
		}
	}

	result, err := h.grades.StudentSummary(ctx, courseID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"student_id":      studentID,
		"course_id":       courseID,
		"overall":         result.Overall,
		"realized_weight": result.RealizedWeight,
		"graded_items":    result.GradedItems,
		"flagged_items":   result.FlaggedItems,
	}, nil)
}

// Export renders the gradebook as csv, pdf or xlsx.
func (h *GradeHandler) Export(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.export.Gradebook(c.Request.Context(), courseID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
