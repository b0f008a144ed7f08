package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"storekeep/internal/errs"
	"storekeep/internal/models"
	"storekeep/internal/store"
)

// ItemInput is the admin create/edit payload for an item.
type ItemInput struct {
	Name     string
	Category string
	Stock    int
}

func validateItem(in ItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return errs.Validation(errs.CodeMissingFields, "name is required")
	}
	if in.Stock < 0 {
		return errs.Validation(errs.CodeInvalidQty, "stock must not be negative")
	}
	return nil
}

// CreateItem registers a new item with its opening stock.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (*models.Item, error) {
	if err := validateItem(in); err != nil {
		s.metrics.ValidationRejects.Inc()
		return nil, err
	}
	item := &models.Item{
		ID:       uuid.New().String(),
		Name:     in.Name,
		Category: in.Category,
		Stock:    in.Stock,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem edits an item's descriptive fields. Stock is not editable
// here; stock only moves through the ledger.
func (s *Service) UpdateItem(ctx context.Context, id string, in ItemInput) (*models.Item, error) {
	if err := validateItem(in); err != nil {
		s.metrics.ValidationRejects.Inc()
		return nil, err
	}
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name = in.Name
	item.Category = in.Category
	if err := s.store.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem fetches one item.
func (s *Service) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return s.store.GetItem(ctx, id)
}

// ListItems lists items matching the filter.
func (s *Service) ListItems(ctx context.Context, f store.ItemFilter) ([]models.Item, error) {
	return s.store.ListItems(ctx, f)
}

// DeleteItem removes an item. Its ledger entries are kept as audit trail.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.store.DeleteItem(ctx, id)
}

// GetEntry fetches one ledger entry.
func (s *Service) GetEntry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	return s.store.GetHistoryEntry(ctx, id)
}

// ListHistory lists ledger entries matching the filter, newest first.
func (s *Service) ListHistory(ctx context.Context, f store.HistoryFilter) ([]models.HistoryEntry, error) {
	return s.store.ListHistory(ctx, f)
}
