// Package tasks implements the task gate: the per-employee state machine
// Unread -> Read -> Checked -> Done, where eligibility for Done is derived
// from the stock ledger rather than stored.
package tasks

import (
	"storekeep/internal/errs"
	"storekeep/internal/models"
)

// CanMarkDone checks the completion gate for one employee: the employee
// must have checked the task, and deducted must hold (derived by the
// caller from the ledger, as a deduct entry after the task's assignment).
// It returns a GateViolation describing the first unmet precondition.
func CanMarkDone(task *models.Task, employeeID string, deducted bool) error {
	if !task.CheckedBy.Contains(employeeID) {
		return &errs.GateViolation{
			TaskID:     task.ID,
			EmployeeID: employeeID,
			Reason:     "task has not been checked",
		}
	}
	if !deducted {
		return &errs.GateViolation{
			TaskID:     task.ID,
			EmployeeID: employeeID,
			Reason:     "no stock deduction recorded since assignment",
		}
	}
	return nil
}

// Progress is the derived per-(task, employee) gate state.
type Progress struct {
	Read     bool `json:"read"`
	Checked  bool `json:"checked"`
	Deducted bool `json:"deducted"`
	Done     bool `json:"done"`
}
