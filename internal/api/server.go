// Package api exposes the ledger and task services over HTTP to both
// client surfaces (web admin and mobile).
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storekeep/internal/errs"
	"storekeep/internal/events"
	"storekeep/internal/ledger"
	"storekeep/internal/store"
	"storekeep/internal/tasks"
)

// Server represents the main API handler
type Server struct {
	Router *gin.Engine

	ledger *ledger.Service
	tasks  *tasks.Service
	store  store.Store
	hub    *events.Hub
	secret string
	log    *zap.Logger
}

// NewServer creates the API server and registers all routes. hub may be
// nil when the live event feed is disabled.
func NewServer(ledgerSvc *ledger.Service, taskSvc *tasks.Service, st store.Store, hub *events.Hub, jwtSecret string, log *zap.Logger) *Server {
	s := &Server{
		Router: gin.Default(),
		ledger: ledgerSvc,
		tasks:  taskSvc,
		store:  st,
		hub:    hub,
		secret: jwtSecret,
		log:    log,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.Router.POST("/api/v1/auth/login", s.Login)

	v1 := s.Router.Group("/api/v1")
	v1.Use(s.AuthRequired())
	{
		// Items
		v1.GET("/items", s.ListItems)
		v1.GET("/items/:id", s.GetItem)
		v1.GET("/items/:id/history", s.ItemHistory)
		v1.POST("/items", s.RequireAdmin(), s.CreateItem)
		v1.PUT("/items/:id", s.RequireAdmin(), s.UpdateItem)
		v1.DELETE("/items/:id", s.RequireAdmin(), s.DeleteItem)

		// History ledger
		v1.GET("/history", s.ListHistory)
		v1.POST("/history", s.RecordAction)
		v1.PATCH("/history/:id", s.RequireAdmin(), s.EditHistory)
		v1.DELETE("/history/:id", s.RequireAdmin(), s.DeleteHistory)

		// Tasks
		v1.GET("/tasks", s.ListTasks)
		v1.GET("/tasks/:id", s.GetTask)
		v1.GET("/tasks/:id/progress", s.TaskProgress)
		v1.POST("/tasks", s.RequireAdmin(), s.CreateTask)
		v1.DELETE("/tasks/:id", s.RequireAdmin(), s.DeleteTask)
		v1.POST("/tasks/:id/read", s.MarkTaskRead)
		v1.POST("/tasks/:id/check", s.MarkTaskChecked)
		v1.POST("/tasks/:id/done", s.MarkTaskDone)

		// Employees
		v1.GET("/employees", s.RequireAdmin(), s.ListEmployees)
		v1.POST("/employees", s.RequireAdmin(), s.CreateEmployee)

		// Live event feed for the admin dashboard
		if s.hub != nil {
			v1.GET("/ws", s.hub.HandleWS)
		}
	}
}

// respondError maps the error taxonomy onto HTTP statuses. Validation and
// gate errors carry their machine-readable code in the body.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errs.IsValidation(err):
		code, _ := errs.CodeOf(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": string(code)})
	case errs.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errs.IsGateViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		if code, ok := errs.CodeOf(err); ok && code == errs.CodeConflict {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": string(code)})
			return
		}
		s.log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
