package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storekeep/internal/errs"
	"storekeep/internal/events"
	"storekeep/internal/models"
	"storekeep/internal/monitoring"
	"storekeep/internal/notify"
	"storekeep/internal/store"
)

// casAttempts bounds the retry loop around the conditional stock update.
const casAttempts = 3

// Service orchestrates ledger mutations: validation, the conditional stock
// write, the history append/patch, the best-effort admin notification and
// the dashboard event.
type Service struct {
	store    store.Store
	notifier notify.Notifier
	events   events.Publisher
	metrics  *monitoring.Metrics
	log      *zap.Logger
	admins   []string

	now func() time.Time
}

// NewService wires a ledger service. admins are the notification
// recipients for deductions.
func NewService(st store.Store, n notify.Notifier, pub events.Publisher, m *monitoring.Metrics, log *zap.Logger, admins []string) *Service {
	return &Service{
		store:    st,
		notifier: n,
		events:   pub,
		metrics:  m,
		log:      log,
		admins:   admins,
		now:      time.Now,
	}
}

// ActionInput is a raw stock-change request from either client surface.
// Qty carries the amount removed for deduct actions; for add and min it is
// the counted stock level after the recount, mirroring how the entry forms
// submit it.
type ActionInput struct {
	ItemID       string
	EmployeeID   string
	EmployeeName string
	Action       models.Action
	Qty          int
}

func validateAction(in ActionInput) error {
	if strings.TrimSpace(in.ItemID) == "" {
		return errs.Validation(errs.CodeMissingFields, "item_id is required")
	}
	if strings.TrimSpace(in.EmployeeID) == "" {
		return errs.Validation(errs.CodeMissingFields, "employee_id is required")
	}
	if in.Action == "" {
		return errs.Validation(errs.CodeActionEmpty, "action is required")
	}
	if !in.Action.Valid() {
		return errs.Validation(errs.CodeActionEmpty, "unknown action %q", in.Action)
	}
	if in.Qty < 0 {
		return errs.Validation(errs.CodeInvalidQty, "qty must not be negative")
	}
	if in.Action == models.ActionDeduct && in.Qty == 0 {
		return errs.Validation(errs.CodeInvalidQty, "deduct qty must be positive")
	}
	return nil
}

// RecordAction validates and persists a new stock change: the item's stock
// is updated with a conditional write keyed on the stock that was read,
// the ledger entry is appended, and for deductions the admins are notified
// fire-and-forget. Nothing is written when validation fails.
func (s *Service) RecordAction(ctx context.Context, in ActionInput) (*models.HistoryEntry, error) {
	if err := validateAction(in); err != nil {
		s.metrics.ValidationRejects.Inc()
		return nil, err
	}

	var (
		entry    *models.HistoryEntry
		itemName string
	)
	for attempt := 0; attempt < casAttempts; attempt++ {
		item, err := s.store.GetItem(ctx, in.ItemID)
		if err != nil {
			return nil, err
		}
		itemName = item.Name

		before := item.Stock
		requestedQty := in.Qty
		var after int
		if in.Action == models.ActionDeduct {
			after = before - requestedQty
			if after < 0 {
				// Stock is clamped at zero at deduction time only; the
				// entry records what actually left the shelf so the
				// ledger invariant holds.
				after = 0
				requestedQty = before
			}
		} else {
			after = in.Qty
		}

		action := ClassifyAction(before, after, in.Action)
		candidate := &models.HistoryEntry{
			ID:           uuid.New().String(),
			ItemID:       in.ItemID,
			EmployeeID:   in.EmployeeID,
			EmployeeName: in.EmployeeName,
			Action:       action,
			Qty:          QtyForInsert(action, requestedQty, before, after),
			StockBefore:  before,
			StockAfter:   after,
			CreatedAt:    s.now(),
		}

		swapped, err := s.applyInsert(ctx, candidate, before, after)
		if err != nil {
			return nil, err
		}
		if !swapped {
			s.metrics.StockConflicts.Inc()
			continue
		}
		entry = candidate
		break
	}
	if entry == nil {
		return nil, &errs.StoreError{Op: "record action", Code: errs.CodeConflict,
			Err: fmt.Errorf("stock of item %s kept changing, gave up after %d attempts", in.ItemID, casAttempts)}
	}

	s.metrics.ActionsRecorded.WithLabelValues(string(entry.Action)).Inc()
	s.events.Publish(events.HistoryRecorded, entry)
	s.events.Publish(events.StockUpdated, stockEvent{ItemID: entry.ItemID, Stock: entry.StockAfter})

	if entry.Action == models.ActionDeduct {
		go s.notifyDeduction(*entry, itemName)
	}
	return entry, nil
}

// applyInsert lands the stock update and the ledger entry. With a
// transactional store both writes commit together; otherwise they are
// issued sequentially and a failing second write is reported as an
// inconsistency, never retried silently.
func (s *Service) applyInsert(ctx context.Context, entry *models.HistoryEntry, before, after int) (bool, error) {
	if tx, ok := s.store.(store.Atomic); ok {
		swapped := false
		err := tx.Atomic(ctx, func(st store.Store) error {
			ok, err := st.CompareAndSwapStock(ctx, entry.ItemID, before, after)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := st.AppendHistory(ctx, entry); err != nil {
				return err
			}
			swapped = true
			return nil
		})
		return swapped, err
	}

	swapped, err := s.store.CompareAndSwapStock(ctx, entry.ItemID, before, after)
	if err != nil || !swapped {
		return swapped, err
	}
	if err := s.store.AppendHistory(ctx, entry); err != nil {
		return true, &errs.StoreError{Op: "append history after stock update",
			Code: errs.CodeInconsistent, Err: err}
	}
	return true, nil
}

// EditEntry reconciles a quantity edit on an existing ledger entry and
// propagates the resulting delta to the item's stock. Edits do not clamp;
// the returned entry and stock may expose a negative result.
func (s *Service) EditEntry(ctx context.Context, entryID string, newQty int) (*models.HistoryEntry, int, error) {
	if newQty < 0 {
		s.metrics.ValidationRejects.Inc()
		return nil, 0, errs.Validation(errs.CodeInvalidQty, "qty must not be negative")
	}

	entry, err := s.store.GetHistoryEntry(ctx, entryID)
	if err != nil {
		return nil, 0, err
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		item, err := s.store.GetItem(ctx, entry.ItemID)
		if err != nil {
			return nil, 0, err
		}

		res := ApplyEdit(*entry, newQty, item.Stock)
		patch := store.HistoryPatch{
			Qty:        &res.Entry.Qty,
			Action:     &res.Entry.Action,
			StockAfter: &res.Entry.StockAfter,
		}

		swapped, err := s.applyEditWrite(ctx, entry.ItemID, item.Stock, res.NewStock, entryID, patch)
		if err != nil {
			return nil, 0, err
		}
		if !swapped {
			s.metrics.StockConflicts.Inc()
			continue
		}

		s.metrics.HistoryEdits.Inc()
		s.events.Publish(events.HistoryEdited, res.Entry)
		s.events.Publish(events.StockUpdated, stockEvent{ItemID: entry.ItemID, Stock: res.NewStock})
		if res.NewStock < 0 {
			s.log.Warn("history edit drove stock negative",
				zap.String("item_id", entry.ItemID),
				zap.String("entry_id", entryID),
				zap.Int("stock", res.NewStock))
		}
		updated := res.Entry
		return &updated, res.NewStock, nil
	}

	return nil, 0, &errs.StoreError{Op: "edit history entry", Code: errs.CodeConflict,
		Err: fmt.Errorf("stock of item %s kept changing, gave up after %d attempts", entry.ItemID, casAttempts)}
}

func (s *Service) applyEditWrite(ctx context.Context, itemID string, expected, next int, entryID string, patch store.HistoryPatch) (bool, error) {
	if tx, ok := s.store.(store.Atomic); ok {
		swapped := false
		err := tx.Atomic(ctx, func(st store.Store) error {
			ok, err := st.CompareAndSwapStock(ctx, itemID, expected, next)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := st.PatchHistoryEntry(ctx, entryID, patch); err != nil {
				return err
			}
			swapped = true
			return nil
		})
		return swapped, err
	}

	swapped, err := s.store.CompareAndSwapStock(ctx, itemID, expected, next)
	if err != nil || !swapped {
		return swapped, err
	}
	if err := s.store.PatchHistoryEntry(ctx, entryID, patch); err != nil {
		return true, &errs.StoreError{Op: "patch history after stock update",
			Code: errs.CodeInconsistent, Err: err}
	}
	return true, nil
}

// DeleteEntry removes a ledger entry without touching the item's stock.
// This mirrors the admin delete flow: the stock deliberately keeps the
// value the deleted entry produced, which leaves the ledger short one row.
func (s *Service) DeleteEntry(ctx context.Context, entryID string) error {
	entry, err := s.store.GetHistoryEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteHistoryEntry(ctx, entryID); err != nil {
		return err
	}
	s.log.Warn("history entry deleted without stock rollback",
		zap.String("entry_id", entryID),
		zap.String("item_id", entry.ItemID),
		zap.String("action", string(entry.Action)),
		zap.Int("qty", entry.Qty))
	return nil
}

func (s *Service) notifyDeduction(entry models.HistoryEntry, itemName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subject := fmt.Sprintf("Stock deducted: %s", itemName)
	body := fmt.Sprintf("%s deducted %d x %s (stock %d -> %d).",
		entry.EmployeeName, entry.Qty, itemName, entry.StockBefore, entry.StockAfter)
	if err := s.notifier.Notify(ctx, s.admins, subject, body); err != nil {
		s.metrics.NotifyFailures.Inc()
		s.log.Warn("admin notification failed",
			zap.String("entry_id", entry.ID),
			zap.Error(err))
	}
}

type stockEvent struct {
	ItemID string `json:"item_id"`
	Stock  int    `json:"stock"`
}
