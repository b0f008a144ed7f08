package models

import "time"

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	// Task statuses
	TaskAssigned  TaskStatus = "assigned"
	TaskCompleted TaskStatus = "completed"
)

// TaskItem represents one required item on a task, with the quantity the
// assignees are expected to deduct.
type TaskItem struct {
	ID          uint   `gorm:"primary_key" json:"-"`
	TaskID      string `gorm:"size:36;not null;index" json:"task_id"`
	ItemID      string `gorm:"size:36;not null" json:"item_id"`
	RequiredQty int    `gorm:"not null" json:"required_qty"`
}

// Task represents an assigned piece of work tied to stock items. The four
// membership sets track per-employee progress through the task gate:
// ReadBy is set on first view, CheckedBy by an explicit action, DoneBy on
// completion. DeductedBy caches which employees have satisfied the
// deduction condition; eligibility itself is always re-derived from the
// history ledger.
type Task struct {
	ID          string      `gorm:"primary_key;size:36" json:"task_id"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `json:"description"`
	Status      TaskStatus  `gorm:"size:20;not null" json:"status"`
	Items       []TaskItem  `gorm:"foreignkey:TaskID" json:"items"`
	ReadBy      EmployeeSet `gorm:"type:text" json:"read_by"`
	CheckedBy   EmployeeSet `gorm:"type:text" json:"checked_by"`
	DeductedBy  EmployeeSet `gorm:"type:text" json:"deducted_by"`
	DoneBy      EmployeeSet `gorm:"type:text" json:"done_by"`
	AssignedAt  time.Time   `gorm:"not null" json:"assigned_at"`
	DoneAt      *time.Time  `json:"done_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
