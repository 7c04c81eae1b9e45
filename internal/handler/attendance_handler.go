package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/retention-api/internal/middleware"
	"github.com/edupulse/retention-api/internal/service"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
	"github.com/edupulse/retention-api/pkg/response"
)

// AttendanceHandler exposes attendance recording and lookups.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	courses    *service.CourseService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, courses *service.CourseService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, courses: courses}
}

// Record applies one day of attendance for a course.
func (h *AttendanceHandler) Record(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	var req service.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	count, err := h.attendance.Record(c.Request.Context(), courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"recorded": count}, nil)
}

// ListForDay returns the attendance of a course for one day.
func (h *AttendanceHandler) ListForDay(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	day := c.Query("date")
	if day == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	records, err := h.attendance.ListForDay(c.Request.Context(), courseID, day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Rates returns per-student attendance rates for a course.
func (h *AttendanceHandler) Rates(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	rates, err := h.attendance.Rates(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rates, nil)
}
