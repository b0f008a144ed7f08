package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"storekeep/internal/errs"
	"storekeep/internal/ledger"
	"storekeep/internal/models"
	"storekeep/internal/store"
)

type recordActionRequest struct {
	ItemID string          `json:"item_id"`
	Action string          `json:"action"`
	Qty    json.RawMessage `json:"qty"`
}

// intQty parses the qty field, rejecting anything that is not a whole
// number (strings, floats, missing values) with INVALID_QTY before the
// service is ever called.
func intQty(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, errs.Validation(errs.CodeInvalidQty, "qty is required")
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, errs.Validation(errs.CodeInvalidQty, "qty must be an integer")
	}
	v, err := n.Int64()
	if err != nil {
		return 0, errs.Validation(errs.CodeInvalidQty, "qty must be an integer, got %q", n.String())
	}
	return int(v), nil
}

// RecordAction inserts a new ledger entry. For deduct actions qty is the
// amount removed; for add/min it is the counted stock after the recount.
func (s *Server) RecordAction(c *gin.Context) {
	var req recordActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	qty, err := intQty(req.Qty)
	if err != nil {
		s.respondError(c, err)
		return
	}

	entry, err := s.ledger.RecordAction(c.Request.Context(), ledger.ActionInput{
		ItemID:       req.ItemID,
		EmployeeID:   c.GetString(ctxEmployeeID),
		EmployeeName: c.GetString(ctxEmployeeName),
		Action:       models.Action(req.Action),
		Qty:          qty,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

type editHistoryRequest struct {
	Qty json.RawMessage `json:"qty"`
}

// EditHistory reconciles a quantity edit on an existing entry (admin
// only). The response carries the rewritten entry and the item's new
// stock.
func (s *Server) EditHistory(c *gin.Context) {
	var req editHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	qty, err := intQty(req.Qty)
	if err != nil {
		s.respondError(c, err)
		return
	}

	entry, newStock, err := s.ledger.EditEntry(c.Request.Context(), c.Param("id"), qty)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "stock": newStock})
}

// DeleteHistory removes a ledger entry (admin only). The item's stock is
// not rolled back.
func (s *Server) DeleteHistory(c *gin.Context) {
	if err := s.ledger.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListHistory returns ledger entries filtered by ?item_id=, ?employee_id=
// and ?action=, newest first.
func (s *Server) ListHistory(c *gin.Context) {
	entries, err := s.ledger.ListHistory(c.Request.Context(), store.HistoryFilter{
		ItemID:     c.Query("item_id"),
		EmployeeID: c.Query("employee_id"),
		Action:     models.Action(c.Query("action")),
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
