package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storekeep/internal/models"
	"storekeep/internal/store"
	"storekeep/internal/tasks"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Items       []struct {
		ItemID      string `json:"item_id"`
		RequiredQty int    `json:"required_qty"`
	} `json:"items"`
}

// CreateTask creates a task in the assigned state (admin only).
func (s *Server) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := tasks.TaskInput{Title: req.Title, Description: req.Description}
	for _, ti := range req.Items {
		in.Items = append(in.Items, models.TaskItem{ItemID: ti.ItemID, RequiredQty: ti.RequiredQty})
	}

	task, err := s.tasks.Create(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GetTask returns one task. Fetching a task counts as reading it for the
// calling employee.
func (s *Server) GetTask(c *gin.Context) {
	task, err := s.tasks.MarkRead(c.Request.Context(), c.Param("id"), c.GetString(ctxEmployeeID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ListTasks returns tasks, optionally filtered by ?status=.
func (s *Server) ListTasks(c *gin.Context) {
	list, err := s.tasks.List(c.Request.Context(), store.TaskFilter{
		Status: models.TaskStatus(c.Query("status")),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Task{}
	}
	c.JSON(http.StatusOK, list)
}

// DeleteTask removes a task (admin only).
func (s *Server) DeleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// MarkTaskRead records the first view explicitly (mobile calls this when
// the task detail opens).
func (s *Server) MarkTaskRead(c *gin.Context) {
	task, err := s.tasks.MarkRead(c.Request.Context(), c.Param("id"), c.GetString(ctxEmployeeID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// MarkTaskChecked records the employee's check action.
func (s *Server) MarkTaskChecked(c *gin.Context) {
	task, err := s.tasks.MarkChecked(c.Request.Context(), c.Param("id"), c.GetString(ctxEmployeeID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// MarkTaskDone runs the completion gate for the calling employee.
func (s *Server) MarkTaskDone(c *gin.Context) {
	task, err := s.tasks.MarkDone(c.Request.Context(), c.Param("id"), c.GetString(ctxEmployeeID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// TaskProgress returns the derived gate state for the calling employee.
func (s *Server) TaskProgress(c *gin.Context) {
	progress, err := s.tasks.Progress(c.Request.Context(), c.Param("id"), c.GetString(ctxEmployeeID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
