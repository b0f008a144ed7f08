package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storekeep/internal/errs"
	"storekeep/internal/models"
)

func TestCanMarkDone(t *testing.T) {
	task := &models.Task{
		ID:        "task-1",
		CheckedBy: models.EmployeeSet{"emp-1"},
	}

	tests := []struct {
		name       string
		employeeID string
		deducted   bool
		wantErr    bool
	}{
		{"checked and deducted", "emp-1", true, false},
		{"checked but no deduction", "emp-1", false, true},
		{"deducted but not checked", "emp-2", true, true},
		{"neither", "emp-2", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMarkDone(task, tt.employeeID, tt.deducted)
			if tt.wantErr {
				assert.True(t, errs.IsGateViolation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
