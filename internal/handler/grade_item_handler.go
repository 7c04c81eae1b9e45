package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/retention-api/internal/middleware"
	"github.com/edupulse/retention-api/internal/service"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
	"github.com/edupulse/retention-api/pkg/response"
)

// GradeItemHandler exposes assessment item endpoints.
type GradeItemHandler struct {
	items   *service.GradeItemService
	courses *service.CourseService
}

// NewGradeItemHandler constructs GradeItemHandler.
func NewGradeItemHandler(items *service.GradeItemService, courses *service.CourseService) *GradeItemHandler {
	return &GradeItemHandler{items: items, courses: courses}
}

// Create adds a grade item to a course.
func (h *GradeItemHandler) Create(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	courseID := c.Param("courseId")
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), courseID, claims); err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateGradeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	item, err := h.items.Create(c.Request.Context(), courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// List returns the grade items of a course.
func (h *GradeItemHandler) List(c *gin.Context) {
	items, err := h.items.List(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Delete removes a grade item and its grades.
func (h *GradeItemHandler) Delete(c *gin.Context) {
	item, err := h.items.Get(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.courses.AuthorizeProfessor(c.Request.Context(), item.CourseID, middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.items.Delete(c.Request.Context(), item.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
