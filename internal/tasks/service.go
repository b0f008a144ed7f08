package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storekeep/internal/errs"
	"storekeep/internal/events"
	"storekeep/internal/models"
	"storekeep/internal/monitoring"
	"storekeep/internal/store"
)

// Service drives task lifecycle and gate transitions.
type Service struct {
	store   store.Store
	events  events.Publisher
	metrics *monitoring.Metrics
	log     *zap.Logger

	now func() time.Time
}

// NewService wires a task service.
func NewService(st store.Store, pub events.Publisher, m *monitoring.Metrics, log *zap.Logger) *Service {
	return &Service{
		store:   st,
		events:  pub,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// TaskInput is the admin create payload.
type TaskInput struct {
	Title       string
	Description string
	Items       []models.TaskItem
}

// Create validates and stores a new task in the assigned state. Every
// referenced item must exist.
func (s *Service) Create(ctx context.Context, in TaskInput) (*models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		s.metrics.ValidationRejects.Inc()
		return nil, errs.Validation(errs.CodeMissingFields, "title is required")
	}
	for _, ti := range in.Items {
		if ti.RequiredQty <= 0 {
			s.metrics.ValidationRejects.Inc()
			return nil, errs.Validation(errs.CodeInvalidQty, "required_qty must be positive")
		}
		if _, err := s.store.GetItem(ctx, ti.ItemID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	task := &models.Task{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Status:      models.TaskAssigned,
		AssignedAt:  now,
		ReadBy:      models.EmployeeSet{},
		CheckedBy:   models.EmployeeSet{},
		DeductedBy:  models.EmployeeSet{},
		DoneBy:      models.EmployeeSet{},
	}
	for i := range in.Items {
		in.Items[i].TaskID = task.ID
	}
	task.Items = in.Items

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Get fetches one task.
func (s *Service) Get(ctx context.Context, id string) (*models.Task, error) {
	return s.store.GetTask(ctx, id)
}

// List lists tasks matching the filter.
func (s *Service) List(ctx context.Context, f store.TaskFilter) ([]models.Task, error) {
	return s.store.ListTasks(ctx, f)
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, id)
}

// MarkRead records that the employee has seen the task. It fires on first
// view and is a no-op afterwards.
func (s *Service) MarkRead(ctx context.Context, taskID, employeeID string) (*models.Task, error) {
	return s.addToSet(ctx, taskID, employeeID, func(t *models.Task) bool {
		return t.ReadBy.Add(employeeID)
	})
}

// MarkChecked records the employee's explicit check action. The set is
// monotonic; there is no way to uncheck.
func (s *Service) MarkChecked(ctx context.Context, taskID, employeeID string) (*models.Task, error) {
	return s.addToSet(ctx, taskID, employeeID, func(t *models.Task) bool {
		return t.CheckedBy.Add(employeeID)
	})
}

func (s *Service) addToSet(ctx context.Context, taskID, employeeID string, add func(*models.Task) bool) (*models.Task, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !add(task) {
		return task, nil
	}
	if err := s.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeductedToday reports the loose deduction variant: whether the employee
// has any deduct entry dated today. The mobile progress view shows this
// before the employee attempts completion.
func (s *Service) DeductedToday(ctx context.Context, employeeID string) (bool, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.store.HasDeductSince(ctx, employeeID, startOfDay)
}

// MarkDone transitions the task to done for the employee. The gate
// requires the employee to have checked the task and to have at least one
// deduct entry since the task was assigned (the strict variant). A repeat
// call for an employee already in done_by is a no-op. The first completion
// sets the task-level status and done_at; later completions by other
// assignees only extend done_by.
func (s *Service) MarkDone(ctx context.Context, taskID, employeeID string) (*models.Task, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.DoneBy.Contains(employeeID) {
		return task, nil
	}

	deducted, err := s.store.HasDeductSince(ctx, employeeID, task.AssignedAt)
	if err != nil {
		return nil, err
	}
	if err := CanMarkDone(task, employeeID, deducted); err != nil {
		s.metrics.GateViolations.Inc()
		return nil, err
	}

	task.DoneBy.Add(employeeID)
	task.DeductedBy.Add(employeeID)
	if task.Status != models.TaskCompleted {
		task.Status = models.TaskCompleted
		at := s.now()
		task.DoneAt = &at
	}
	if err := s.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	s.metrics.TasksCompleted.Inc()
	s.events.Publish(events.TaskCompleted, task)
	s.log.Info("task completed",
		zap.String("task_id", task.ID),
		zap.String("employee_id", employeeID))
	return task, nil
}

// Progress derives the gate state for one employee on one task.
func (s *Service) Progress(ctx context.Context, taskID, employeeID string) (*Progress, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	deducted, err := s.DeductedToday(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		Read:     task.ReadBy.Contains(employeeID),
		Checked:  task.CheckedBy.Contains(employeeID),
		Deducted: deducted,
		Done:     task.DoneBy.Contains(employeeID),
	}, nil
}
