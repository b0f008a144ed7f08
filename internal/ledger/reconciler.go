// Package ledger implements the stock ledger reconciler: the rules that
// keep an item's current stock, its history ledger and the task gate's
// deduction queries mutually consistent, no matter which client surface
// performs the mutation.
package ledger

import "storekeep/internal/models"

// ClassifyAction derives the semantic type of a stock change from the
// before/after snapshot. Deduct requests are never reclassified. When the
// snapshot shows no change the requested (or prior) action is kept; the
// equal-stock case is genuinely ambiguous and deliberately left to the
// caller's claim.
func ClassifyAction(stockBefore, stockAfter int, requested models.Action) models.Action {
	if requested == models.ActionDeduct {
		return models.ActionDeduct
	}
	switch {
	case stockAfter > stockBefore:
		return models.ActionAdd
	case stockAfter < stockBefore:
		return models.ActionMin
	default:
		return requested
	}
}

// QtyForInsert computes the quantity stored on a new ledger entry. For
// deductions it is the requested amount removed; for add/min it is the
// absolute difference between the two snapshots.
func QtyForInsert(action models.Action, requestedQty, stockBefore, stockAfter int) int {
	if action == models.ActionDeduct {
		return requestedQty
	}
	diff := stockAfter - stockBefore
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// EditResult is the outcome of reconciling an edit against a ledger entry.
type EditResult struct {
	Entry    models.HistoryEntry
	NewStock int
}

// ApplyEdit reconciles a quantity edit against an existing entry and the
// item's current stock, returning the rewritten entry and the stock the
// item must be set to.
//
// For a deduct entry the new quantity replaces the old one, so the item
// gets back the difference: newStock = currentStock + (oldQty - newQty).
// For add/min entries newQty is a target stock level; the action is
// re-derived from the entry's original before-snapshot and the item stock
// is set to the target directly. Edits never clamp; they can drive the
// stock negative, and the caller is expected to surface that.
func ApplyEdit(entry models.HistoryEntry, newQty, currentStock int) EditResult {
	if entry.Action == models.ActionDeduct {
		newStock := currentStock + (entry.Qty - newQty)
		entry.Qty = newQty
		entry.StockAfter = entry.StockBefore - newQty
		return EditResult{Entry: entry, NewStock: newStock}
	}

	entry.Action = ClassifyAction(entry.StockBefore, newQty, entry.Action)
	entry.StockAfter = newQty
	entry.Qty = QtyForInsert(entry.Action, 0, entry.StockBefore, newQty)
	return EditResult{Entry: entry, NewStock: newQty}
}
