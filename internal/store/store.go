// Package store defines the persistence interfaces the reconciler and task
// gate are written against, with a GORM-backed implementation for SQLite
// and PostgreSQL and an in-memory implementation for tests.
package store

import (
	"context"
	"time"

	"storekeep/internal/models"
)

// ItemFilter narrows ListItems. Query matches item names by substring.
type ItemFilter struct {
	Query    string
	Category string
}

// HistoryFilter narrows ListHistory. Zero fields are ignored.
type HistoryFilter struct {
	ItemID     string
	EmployeeID string
	Action     models.Action
	Since      time.Time
}

// TaskFilter narrows ListTasks.
type TaskFilter struct {
	Status models.TaskStatus
}

// HistoryPatch carries the fields an edit may change on a ledger entry.
// Nil fields are left untouched.
type HistoryPatch struct {
	Qty         *int
	Action      *models.Action
	StockBefore *int
	StockAfter  *int
}

// Store is the full persistence surface consumed by the services. Each
// call is atomic on its own; callers must not assume atomicity across
// calls unless the store also implements Atomic.
type Store interface {
	// Items
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ListItems(ctx context.Context, f ItemFilter) ([]models.Item, error)
	SaveItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id string) error
	GetItemStock(ctx context.Context, id string) (int, error)
	SetItemStock(ctx context.Context, id string, stock int) error
	// CompareAndSwapStock updates the item's stock to next only if it still
	// equals expected. It reports whether the swap happened.
	CompareAndSwapStock(ctx context.Context, id string, expected, next int) (bool, error)

	// History ledger
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	GetHistoryEntry(ctx context.Context, id string) (*models.HistoryEntry, error)
	PatchHistoryEntry(ctx context.Context, id string, patch HistoryPatch) error
	DeleteHistoryEntry(ctx context.Context, id string) error
	ListHistory(ctx context.Context, f HistoryFilter) ([]models.HistoryEntry, error)
	// HasDeductSince reports whether the employee has at least one deduct
	// entry created at or after the given time.
	HasDeductSince(ctx context.Context, employeeID string, since time.Time) (bool, error)

	// Tasks
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error)
	SaveTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error

	// Employees
	CreateEmployee(ctx context.Context, emp *models.Employee) error
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
}

// Atomic is implemented by stores that can group several writes into one
// transaction. The services use it when available so the item stock and
// its ledger entry commit together; without it the writes are sequential
// and a mid-sequence failure surfaces as an inconsistency error.
type Atomic interface {
	Atomic(ctx context.Context, fn func(Store) error) error
}
