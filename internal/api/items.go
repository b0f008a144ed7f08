package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storekeep/internal/ledger"
	"storekeep/internal/models"
	"storekeep/internal/store"
)

type itemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
}

// CreateItem registers a new item (admin only).
func (s *Server) CreateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := s.ledger.CreateItem(c.Request.Context(), ledger.ItemInput{
		Name:     req.Name,
		Category: req.Category,
		Stock:    req.Stock,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItem returns one item.
func (s *Server) GetItem(c *gin.Context) {
	item, err := s.ledger.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ListItems returns items, optionally filtered by ?q= and ?category=.
func (s *Server) ListItems(c *gin.Context) {
	items, err := s.ledger.ListItems(c.Request.Context(), store.ItemFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	c.JSON(http.StatusOK, items)
}

// UpdateItem edits an item's name and category (admin only).
func (s *Server) UpdateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := s.ledger.UpdateItem(c.Request.Context(), c.Param("id"), ledger.ItemInput{
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem removes an item (admin only).
func (s *Server) DeleteItem(c *gin.Context) {
	if err := s.ledger.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ItemHistory returns the stock ledger of one item, newest first.
func (s *Server) ItemHistory(c *gin.Context) {
	entries, err := s.ledger.ListHistory(c.Request.Context(), store.HistoryFilter{
		ItemID: c.Param("id"),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// ListEmployees returns all employees (admin only).
func (s *Server) ListEmployees(c *gin.Context) {
	emps, err := s.store.ListEmployees(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emps)
}
