package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/retention-api/internal/middleware"
	"github.com/edupulse/retention-api/internal/service"
	"github.com/edupulse/retention-api/pkg/response"
)

// RiskHandler exposes dropout-risk assessments.
type RiskHandler struct {
	risk    *service.RiskService
	courses *service.CourseService
}

// NewRiskHandler constructs RiskHandler.
func NewRiskHandler(risk *service.RiskService, courses *service.CourseService) *RiskHandler {
	return &RiskHandler{risk: risk, courses: courses}
}

// CourseRisk returns the risk assessment of every enrolled student.
func (h *RiskHandler) CourseRisk(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	risks, err := h.risk.CourseRisk(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, risks, nil)
}

// AtRisk returns the most at-risk students of a course.
func (h *RiskHandler) AtRisk(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	risks, err := h.risk.AtRisk(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, risks, nil)
}
