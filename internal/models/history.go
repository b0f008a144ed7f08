package models

import "time"

// Action represents the semantic type of a stock change
type Action string

const (
	// ActionAdd records a stock increase reconciled from a recount
	ActionAdd Action = "add"
	// ActionMin records a stock decrease reconciled from a recount
	ActionMin Action = "min"
	// ActionDeduct records items physically taken out of stock for use
	ActionDeduct Action = "deduct"
)

// Valid reports whether a is one of the three known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionMin, ActionDeduct:
		return true
	}
	return false
}

// SignedQty returns the stock delta implied by the action: positive for
// add, negative for min and deduct.
func (a Action) SignedQty(qty int) int {
	if a == ActionAdd {
		return qty
	}
	return -qty
}

// HistoryEntry represents one row of an item's stock ledger. Entries are
// append-only under normal operation; edits go through the reconciler so
// that the invariant StockAfter-StockBefore == Action.SignedQty(Qty) is
// preserved and the owning Item's stock stays in step.
type HistoryEntry struct {
	ID           string    `gorm:"primary_key;size:36" json:"id"`
	ItemID       string    `gorm:"size:36;not null;index" json:"item_id"`
	EmployeeID   string    `gorm:"size:36;not null;index" json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Action       Action    `gorm:"size:10;not null" json:"action"`
	Qty          int       `gorm:"not null" json:"qty"`
	StockBefore  int       `gorm:"not null" json:"stock_before"`
	StockAfter   int       `gorm:"not null" json:"stock_after"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
