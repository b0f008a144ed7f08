package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storekeep/internal/errs"
	"storekeep/internal/models"
)

// Memory is an in-process Store used by tests and the demo mode. It
// deliberately does not implement Atomic, exercising the sequential-write
// path of the services.
type Memory struct {
	mu        sync.RWMutex
	items     map[string]models.Item
	history   map[string]models.HistoryEntry
	tasks     map[string]models.Task
	employees map[string]models.Employee
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items:     make(map[string]models.Item),
		history:   make(map[string]models.HistoryEntry),
		tasks:     make(map[string]models.Task),
		employees: make(map[string]models.Employee),
	}
}

var _ Store = (*Memory)(nil)

// Items

func (m *Memory) CreateItem(ctx context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = *item
	return nil
}

func (m *Memory) GetItem(ctx context.Context, id string) (*models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, errs.NotFound("item", id)
	}
	return &item, nil
}

func (m *Memory) ListItems(ctx context.Context, f ItemFilter) ([]models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []models.Item
	for _, item := range m.items {
		if f.Query != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(f.Query)) {
			continue
		}
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *Memory) SaveItem(ctx context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return errs.NotFound("item", item.ID)
	}
	m.items[item.ID] = *item
	return nil
}

func (m *Memory) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return errs.NotFound("item", id)
	}
	delete(m.items, id)
	return nil
}

func (m *Memory) GetItemStock(ctx context.Context, id string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return 0, errs.NotFound("item", id)
	}
	return item.Stock, nil
}

func (m *Memory) SetItemStock(ctx context.Context, id string, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return errs.NotFound("item", id)
	}
	item.Stock = stock
	item.UpdatedAt = time.Now()
	m.items[id] = item
	return nil
}

func (m *Memory) CompareAndSwapStock(ctx context.Context, id string, expected, next int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return false, errs.NotFound("item", id)
	}
	if item.Stock != expected {
		return false, nil
	}
	item.Stock = next
	item.UpdatedAt = time.Now()
	m.items[id] = item
	return true, nil
}

// History ledger

func (m *Memory) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[entry.ID] = *entry
	return nil
}

func (m *Memory) GetHistoryEntry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.history[id]
	if !ok {
		return nil, errs.NotFound("history entry", id)
	}
	return &entry, nil
}

func (m *Memory) PatchHistoryEntry(ctx context.Context, id string, patch HistoryPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.history[id]
	if !ok {
		return errs.NotFound("history entry", id)
	}
	if patch.Qty != nil {
		entry.Qty = *patch.Qty
	}
	if patch.Action != nil {
		entry.Action = *patch.Action
	}
	if patch.StockBefore != nil {
		entry.StockBefore = *patch.StockBefore
	}
	if patch.StockAfter != nil {
		entry.StockAfter = *patch.StockAfter
	}
	m.history[id] = entry
	return nil
}

func (m *Memory) DeleteHistoryEntry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.history[id]; !ok {
		return errs.NotFound("history entry", id)
	}
	delete(m.history, id)
	return nil
}

func (m *Memory) ListHistory(ctx context.Context, f HistoryFilter) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []models.HistoryEntry
	for _, entry := range m.history {
		if f.ItemID != "" && entry.ItemID != f.ItemID {
			continue
		}
		if f.EmployeeID != "" && entry.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Action != "" && entry.Action != f.Action {
			continue
		}
		if !f.Since.IsZero() && entry.CreatedAt.Before(f.Since) {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (m *Memory) HasDeductSince(ctx context.Context, employeeID string, since time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.history {
		if entry.EmployeeID == employeeID && entry.Action == models.ActionDeduct && !entry.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// Tasks

func (m *Memory) CreateTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (m *Memory) GetTask(ctx context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, errs.NotFound("task", id)
	}
	c := cloneTask(task)
	return &c, nil
}

func (m *Memory) ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tasks []models.Task
	for _, task := range m.tasks {
		if f.Status != "" && task.Status != f.Status {
			continue
		}
		tasks = append(tasks, cloneTask(task))
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].AssignedAt.After(tasks[j].AssignedAt) })
	return tasks, nil
}

func (m *Memory) SaveTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return errs.NotFound("task", task.ID)
	}
	m.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (m *Memory) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return errs.NotFound("task", id)
	}
	delete(m.tasks, id)
	return nil
}

// Employees

func (m *Memory) CreateEmployee(ctx context.Context, emp *models.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = *emp
	return nil
}

func (m *Memory) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, errs.NotFound("employee", id)
	}
	return &emp, nil
}

func (m *Memory) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, emp := range m.employees {
		if emp.Email == email {
			e := emp
			return &e, nil
		}
	}
	return nil, errs.NotFound("employee", email)
}

func (m *Memory) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var emps []models.Employee
	for _, emp := range m.employees {
		emps = append(emps, emp)
	}
	sort.Slice(emps, func(i, j int) bool { return emps[i].Name < emps[j].Name })
	return emps, nil
}

// cloneTask copies the task's slices so callers never share backing arrays
// with the store.
func cloneTask(t models.Task) models.Task {
	t.Items = append([]models.TaskItem(nil), t.Items...)
	t.ReadBy = append(models.EmployeeSet(nil), t.ReadBy...)
	t.CheckedBy = append(models.EmployeeSet(nil), t.CheckedBy...)
	t.DeductedBy = append(models.EmployeeSet(nil), t.DeductedBy...)
	t.DoneBy = append(models.EmployeeSet(nil), t.DoneBy...)
	if t.DoneAt != nil {
		at := *t.DoneAt
		t.DoneAt = &at
	}
	return t
}
