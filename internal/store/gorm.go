package store

import (
	"context"
	"time"

	"github.com/jinzhu/gorm"

	"storekeep/internal/errs"
	"storekeep/internal/models"
)

// SQL is the GORM-backed Store. The same implementation serves SQLite and
// PostgreSQL; dialect selection happens when the *gorm.DB is opened.
type SQL struct {
	db *gorm.DB
}

// NewSQL wraps an open GORM handle.
func NewSQL(db *gorm.DB) *SQL {
	return &SQL{db: db}
}

var _ Store = (*SQL)(nil)
var _ Atomic = (*SQL)(nil)

// Atomic runs fn inside a single transaction. Any error from fn rolls the
// whole group back.
func (s *SQL) Atomic(ctx context.Context, fn func(Store) error) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return errs.Store("begin", tx.Error)
	}
	if err := fn(&SQL{db: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return errs.Store("commit", err)
	}
	return nil
}

// Items

func (s *SQL) CreateItem(ctx context.Context, item *models.Item) error {
	if err := s.db.Create(item).Error; err != nil {
		return errs.Store("create item", err)
	}
	return nil
}

func (s *SQL) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := s.db.Where("id = ?", id).First(&item).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, errs.NotFound("item", id)
	}
	if err != nil {
		return nil, errs.Store("get item", err)
	}
	return &item, nil
}

func (s *SQL) ListItems(ctx context.Context, f ItemFilter) ([]models.Item, error) {
	q := s.db.Model(&models.Item{})
	if f.Query != "" {
		q = q.Where("name LIKE ?", "%"+f.Query+"%")
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	var items []models.Item
	if err := q.Order("name").Find(&items).Error; err != nil {
		return nil, errs.Store("list items", err)
	}
	return items, nil
}

func (s *SQL) SaveItem(ctx context.Context, item *models.Item) error {
	if err := s.db.Save(item).Error; err != nil {
		return errs.Store("save item", err)
	}
	return nil
}

func (s *SQL) DeleteItem(ctx context.Context, id string) error {
	res := s.db.Where("id = ?", id).Delete(&models.Item{})
	if res.Error != nil {
		return errs.Store("delete item", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("item", id)
	}
	return nil
}

func (s *SQL) GetItemStock(ctx context.Context, id string) (int, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return 0, err
	}
	return item.Stock, nil
}

func (s *SQL) SetItemStock(ctx context.Context, id string, stock int) error {
	res := s.db.Model(&models.Item{}).Where("id = ?", id).
		Update("stock", stock)
	if res.Error != nil {
		return errs.Store("set stock", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("item", id)
	}
	return nil
}

// CompareAndSwapStock is the conditional update that closes the
// read-then-write race on concurrent deductions: the write only lands if
// nobody changed the stock since it was read.
func (s *SQL) CompareAndSwapStock(ctx context.Context, id string, expected, next int) (bool, error) {
	res := s.db.Model(&models.Item{}).
		Where("id = ? AND stock = ?", id, expected).
		Update("stock", next)
	if res.Error != nil {
		return false, errs.Store("cas stock", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// History ledger

func (s *SQL) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if err := s.db.Create(entry).Error; err != nil {
		return errs.Store("append history", err)
	}
	return nil
}

func (s *SQL) GetHistoryEntry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	err := s.db.Where("id = ?", id).First(&entry).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, errs.NotFound("history entry", id)
	}
	if err != nil {
		return nil, errs.Store("get history entry", err)
	}
	return &entry, nil
}

func (s *SQL) PatchHistoryEntry(ctx context.Context, id string, patch HistoryPatch) error {
	fields := map[string]interface{}{}
	if patch.Qty != nil {
		fields["qty"] = *patch.Qty
	}
	if patch.Action != nil {
		fields["action"] = *patch.Action
	}
	if patch.StockBefore != nil {
		fields["stock_before"] = *patch.StockBefore
	}
	if patch.StockAfter != nil {
		fields["stock_after"] = *patch.StockAfter
	}
	if len(fields) == 0 {
		return nil
	}
	res := s.db.Model(&models.HistoryEntry{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return errs.Store("patch history entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("history entry", id)
	}
	return nil
}

func (s *SQL) DeleteHistoryEntry(ctx context.Context, id string) error {
	res := s.db.Where("id = ?", id).Delete(&models.HistoryEntry{})
	if res.Error != nil {
		return errs.Store("delete history entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("history entry", id)
	}
	return nil
}

func (s *SQL) ListHistory(ctx context.Context, f HistoryFilter) ([]models.HistoryEntry, error) {
	q := s.db.Model(&models.HistoryEntry{})
	if f.ItemID != "" {
		q = q.Where("item_id = ?", f.ItemID)
	}
	if f.EmployeeID != "" {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	var entries []models.HistoryEntry
	if err := q.Order("created_at desc").Find(&entries).Error; err != nil {
		return nil, errs.Store("list history", err)
	}
	return entries, nil
}

func (s *SQL) HasDeductSince(ctx context.Context, employeeID string, since time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&models.HistoryEntry{}).
		Where("employee_id = ? AND action = ? AND created_at >= ?", employeeID, models.ActionDeduct, since).
		Count(&count).Error
	if err != nil {
		return false, errs.Store("count deductions", err)
	}
	return count > 0, nil
}

// Tasks

func (s *SQL) CreateTask(ctx context.Context, task *models.Task) error {
	if err := s.db.Create(task).Error; err != nil {
		return errs.Store("create task", err)
	}
	return nil
}

func (s *SQL) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := s.db.Preload("Items").Where("id = ?", id).First(&task).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, errs.NotFound("task", id)
	}
	if err != nil {
		return nil, errs.Store("get task", err)
	}
	return &task, nil
}

func (s *SQL) ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error) {
	q := s.db.Preload("Items").Model(&models.Task{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var tasks []models.Task
	if err := q.Order("assigned_at desc").Find(&tasks).Error; err != nil {
		return nil, errs.Store("list tasks", err)
	}
	return tasks, nil
}

// SaveTask persists the task's own columns. Task items are written once at
// creation and are not re-saved here, so membership-set updates cannot
// duplicate item rows.
func (s *SQL) SaveTask(ctx context.Context, task *models.Task) error {
	if err := s.db.Set("gorm:save_associations", false).Save(task).Error; err != nil {
		return errs.Store("save task", err)
	}
	return nil
}

func (s *SQL) DeleteTask(ctx context.Context, id string) error {
	res := s.db.Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		return errs.Store("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("task", id)
	}
	s.db.Where("task_id = ?", id).Delete(&models.TaskItem{})
	return nil
}

// Employees

func (s *SQL) CreateEmployee(ctx context.Context, emp *models.Employee) error {
	if err := s.db.Create(emp).Error; err != nil {
		return errs.Store("create employee", err)
	}
	return nil
}

func (s *SQL) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	var emp models.Employee
	err := s.db.Where("id = ?", id).First(&emp).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, errs.NotFound("employee", id)
	}
	if err != nil {
		return nil, errs.Store("get employee", err)
	}
	return &emp, nil
}

func (s *SQL) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var emp models.Employee
	err := s.db.Where("email = ?", email).First(&emp).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, errs.NotFound("employee", email)
	}
	if err != nil {
		return nil, errs.Store("get employee", err)
	}
	return &emp, nil
}

func (s *SQL) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var emps []models.Employee
	if err := s.db.Order("name").Find(&emps).Error; err != nil {
		return nil, errs.Store("list employees", err)
	}
	return emps, nil
}
