package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/habit-tracker/internal/middleware"
	"github.com/habit-tracker/internal/service"
	"github.com/habit-tracker/pkg/response"
)

// habitForm is the create-habit form on the dashboard
type habitForm struct {
	Name string `form:"name"`
	Goal string `form:"goal"`
}

// HabitHandler handles the dashboard and per-habit actions. All routes
// require a logged-in user.
type HabitHandler struct {
	habitService    *service.HabitService
	progressService *service.ProgressService
}

// NewHabitHandler creates a new HabitHandler
func NewHabitHandler(habitService *service.HabitService, progressService *service.ProgressService) *HabitHandler {
	return &HabitHandler{
		habitService:    habitService,
		progressService: progressService,
	}
}

// Dashboard shows the user's habits with streaks
// GET /dashboard
func (h *HabitHandler) Dashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	dashboard, err := h.habitService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	response.Page(c, "dashboard.html", gin.H{
		"Username":  middleware.GetUsername(c),
		"Dashboard": dashboard,
	})
}

// CreateHabit adds a habit; a blank name is ignored
// POST /dashboard
func (h *HabitHandler) CreateHabit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var form habitForm
	if err := c.ShouldBind(&form); err != nil {
		response.Redirect(c, "/dashboard")
		return
	}

	habit, err := h.habitService.CreateHabit(c.Request.Context(), userID, form.Name, form.Goal)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if habit == nil {
		response.Redirect(c, "/dashboard")
		return
	}
	response.RedirectWithNotice(c, "/dashboard", "Habit added")
}

// DeleteHabit deletes a habit and its checks
// POST /habit/:id/delete
func (h *HabitHandler) DeleteHabit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	habitID, ok := parseHabitID(c)
	if !ok {
		return
	}

	if err := h.habitService.DeleteHabit(c.Request.Context(), userID, habitID); err != nil {
		handleHabitError(c, err)
		return
	}
	response.RedirectWithNotice(c, "/dashboard", "Habit deleted")
}

// MarkDone records today's completion
// POST /habit/:id/mark
func (h *HabitHandler) MarkDone(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	habitID, ok := parseHabitID(c)
	if !ok {
		return
	}

	alreadyMarked, err := h.habitService.MarkDone(c.Request.Context(), userID, habitID)
	if err != nil {
		handleHabitError(c, err)
		return
	}
	if alreadyMarked {
		response.RedirectWithNotice(c, "/dashboard", "Already marked today")
		return
	}
	response.RedirectWithNotice(c, "/dashboard", "Marked as done for today! 🎉")
}

// Progress returns the 30-day progress chart as PNG
// GET /habit/:id/progress
func (h *HabitHandler) Progress(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	habitID, ok := parseHabitID(c)
	if !ok {
		return
	}

	image, err := h.progressService.RenderProgress(c.Request.Context(), userID, habitID)
	if err != nil {
		handleHabitError(c, err)
		return
	}
	response.PNG(c, image)
}

// RegisterRoutes registers the habit routes behind requireLogin
func (h *HabitHandler) RegisterRoutes(router gin.IRouter, requireLogin gin.HandlerFunc) {
	router.GET("/dashboard", requireLogin, h.Dashboard)
	router.POST("/dashboard", requireLogin, h.CreateHabit)

	habits := router.Group("/habit/:id", requireLogin)
	{
		habits.POST("/delete", h.DeleteHabit)
		habits.POST("/mark", h.MarkDone)
		habits.GET("/progress", h.Progress)
	}
}

// parseHabitID reads the :id parameter; a malformed id is answered like a
// missing habit.
func parseHabitID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.RedirectWithNotice(c, "/dashboard", "Habit not found")
		return 0, false
	}
	return uint(id), true
}

// handleHabitError turns expected habit errors into a notice on the dashboard
func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.RedirectWithNotice(c, "/dashboard", "Not allowed")
	case errors.Is(err, service.ErrNotFound):
		response.RedirectWithNotice(c, "/dashboard", "Habit not found")
	default:
		response.InternalError(c, err)
	}
}
