package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storekeep/internal/errs"
	"storekeep/internal/events"
	"storekeep/internal/models"
	"storekeep/internal/monitoring"
	"storekeep/internal/store"
)

// capturingNotifier records deliveries on a channel so tests can wait for
// the fire-and-forget goroutine.
type capturingNotifier struct {
	sent chan string
	err  error
}

func (n *capturingNotifier) Notify(ctx context.Context, to []string, subject, body string) error {
	n.sent <- subject
	return n.err
}

func newTestService(t *testing.T, st store.Store) (*Service, *capturingNotifier) {
	t.Helper()
	notifier := &capturingNotifier{sent: make(chan string, 8)}
	metrics := monitoring.New(prometheus.NewRegistry())
	svc := NewService(st, notifier, events.NopPublisher{}, metrics, zap.NewNop(), []string{"admin@example.com"})
	return svc, notifier
}

func seedItem(t *testing.T, st store.Store, stock int) *models.Item {
	t.Helper()
	item := &models.Item{ID: "item-1", Name: "Gloves", Category: "consumable", Stock: stock}
	require.NoError(t, st.CreateItem(context.Background(), item))
	return item
}

func waitForNotification(t *testing.T, n *capturingNotifier) string {
	t.Helper()
	select {
	case subject := <-n.sent:
		return subject
	case <-time.After(2 * time.Second):
		t.Fatal("expected an admin notification")
		return ""
	}
}

func TestRecordAction_Deduct(t *testing.T) {
	st := store.NewMemory()
	svc, notifier := newTestService(t, st)
	seedItem(t, st, 50)

	entry, err := svc.RecordAction(context.Background(), ActionInput{
		ItemID:       "item-1",
		EmployeeID:   "emp-1",
		EmployeeName: "Dana",
		Action:       models.ActionDeduct,
		Qty:          12,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ActionDeduct, entry.Action)
	assert.Equal(t, 12, entry.Qty)
	assert.Equal(t, 50, entry.StockBefore)
	assert.Equal(t, 38, entry.StockAfter)

	stock, err := st.GetItemStock(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, 38, stock)

	subject := waitForNotification(t, notifier)
	assert.Contains(t, subject, "Gloves")
}

func TestRecordAction_DeductClampsAtZero(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)
	seedItem(t, st, 5)

	entry, err := svc.RecordAction(context.Background(), ActionInput{
		ItemID:     "item-1",
		EmployeeID: "emp-1",
		Action:     models.ActionDeduct,
		Qty:        12,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, entry.StockAfter)
	// The entry records what actually left the shelf so the ledger
	// invariant still holds.
	assert.Equal(t, 5, entry.Qty)

	stock, _ := st.GetItemStock(context.Background(), "item-1")
	assert.Equal(t, 0, stock)
}

func TestRecordAction_RecountClassification(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)
	seedItem(t, st, 50)

	// Counted 60 on the shelf: an add of 10.
	entry, err := svc.RecordAction(context.Background(), ActionInput{
		ItemID:     "item-1",
		EmployeeID: "emp-1",
		Action:     models.ActionAdd,
		Qty:        60,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActionAdd, entry.Action)
	assert.Equal(t, 10, entry.Qty)
	assert.Equal(t, 60, entry.StockAfter)

	// Counted 45 next, requested add, but the snapshot says min.
	entry, err = svc.RecordAction(context.Background(), ActionInput{
		ItemID:     "item-1",
		EmployeeID: "emp-1",
		Action:     models.ActionAdd,
		Qty:        45,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActionMin, entry.Action)
	assert.Equal(t, 15, entry.Qty)

	stock, _ := st.GetItemStock(context.Background(), "item-1")
	assert.Equal(t, 45, stock)
}

func TestRecordAction_ValidationRejectsBeforeWrites(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)
	seedItem(t, st, 50)

	tests := []struct {
		name string
		in   ActionInput
		code errs.Code
	}{
		{"missing item", ActionInput{EmployeeID: "emp-1", Action: models.ActionDeduct, Qty: 1}, errs.CodeMissingFields},
		{"missing employee", ActionInput{ItemID: "item-1", Action: models.ActionDeduct, Qty: 1}, errs.CodeMissingFields},
		{"empty action", ActionInput{ItemID: "item-1", EmployeeID: "emp-1", Qty: 1}, errs.CodeActionEmpty},
		{"unknown action", ActionInput{ItemID: "item-1", EmployeeID: "emp-1", Action: "restock", Qty: 1}, errs.CodeActionEmpty},
		{"negative qty", ActionInput{ItemID: "item-1", EmployeeID: "emp-1", Action: models.ActionDeduct, Qty: -3}, errs.CodeInvalidQty},
		{"zero deduct", ActionInput{ItemID: "item-1", EmployeeID: "emp-1", Action: models.ActionDeduct, Qty: 0}, errs.CodeInvalidQty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordAction(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
			code, _ := errs.CodeOf(err)
			assert.Equal(t, tt.code, code)
		})
	}

	// Nothing was written.
	entries, err := st.ListHistory(context.Background(), store.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	stock, _ := st.GetItemStock(context.Background(), "item-1")
	assert.Equal(t, 50, stock)
}

func TestRecordAction_UnknownItem(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)

	_, err := svc.RecordAction(context.Background(), ActionInput{
		ItemID:     "nope",
		EmployeeID: "emp-1",
		Action:     models.ActionDeduct,
		Qty:        1,
	})
	assert.True(t, errs.IsNotFound(err))
}

func TestRecordAction_NotificationFailureIsNonFatal(t *testing.T) {
	st := store.NewMemory()
	svc, notifier := newTestService(t, st)
	notifier.err = errors.New("webhook down")
	seedItem(t, st, 50)

	_, err := svc.RecordAction(context.Background(), ActionInput{
		ItemID:     "item-1",
		EmployeeID: "emp-1",
		Action:     models.ActionDeduct,
		Qty:        12,
	})
	require.NoError(t, err)
	waitForNotification(t, notifier)

	stock, _ := st.GetItemStock(context.Background(), "item-1")
	assert.Equal(t, 38, stock)
}

// conflictingStore makes the first n conditional updates lose, simulating
// a concurrent writer.
type conflictingStore struct {
	*store.Memory
	failures int
}

func (c *conflictingStore) CompareAndSwapStock(ctx context.Context, id string, expected, next int) (bool, error) {
	if c.failures > 0 {
		c.failures--
		return false, nil
	}
	return c.Memory.CompareAndSwapStock(ctx, id, expected, next)
}

func TestRecordAction_RetriesOnStockConflict(t *testing.T) {
	st := &conflictingStore{Memory: store.NewMemory(), failures: 1}
	svc, _ := newTestService(t, st)
	seedItem(t, st, 50)

	entry, err := svc.RecordAction(context.Background(), ActionInput{
		ItemID:     "item-1",
		EmployeeID: "emp-1",
		Action:     models.ActionDeduct,
		Qty:        12,
	})
	require.NoError(t, err)
	assert.Equal(t, 38, entry.StockAfter)
}

func TestRecordAction_GivesUpAfterRepeatedConflicts(t *testing.T) {
	st := &conflictingStore{Memory: store.NewMemory(), failures: 100}
	svc, _ := newTestService(t, st)
	seedItem(t, st, 50)

	_, err := svc.RecordAction(context.Background(), ActionInput{
		ItemID:     "item-1",
		EmployeeID: "emp-1",
		Action:     models.ActionDeduct,
		Qty:        12,
	})
	require.Error(t, err)
	code, ok := errs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeConflict, code)
}

func TestEditEntry_DeductPropagatesDelta(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)
	seedItem(t, st, 50)

	entry, err := svc.RecordAction(context.Background(), ActionInput{
		ItemID:     "item-1",
		EmployeeID: "emp-1",
		Action:     models.ActionDeduct,
		Qty:        12,
	})
	require.NoError(t, err)

	// Admin corrects the deduction from 12 to 20.
	updated, newStock, err := svc.EditEntry(context.Background(), entry.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 30, newStock) // 38 + (12-20)
	assert.Equal(t, 20, updated.Qty)
	assert.Equal(t, 30, updated.StockAfter)

	stock, _ := st.GetItemStock(context.Background(), "item-1")
	assert.Equal(t, 30, stock)

	stored, err := st.GetHistoryEntry(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Qty)
	assert.Equal(t, 30, stored.StockAfter)
}

func TestEditEntry_RejectsNegativeQty(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)

	_, _, err := svc.EditEntry(context.Background(), "whatever", -1)
	require.Error(t, err)
	code, _ := errs.CodeOf(err)
	assert.Equal(t, errs.CodeInvalidQty, code)
}

func TestEditEntry_NotFound(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)

	_, _, err := svc.EditEntry(context.Background(), "missing", 5)
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteEntry_DoesNotRollBackStock(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)
	seedItem(t, st, 50)

	entry, err := svc.RecordAction(context.Background(), ActionInput{
		ItemID:     "item-1",
		EmployeeID: "emp-1",
		Action:     models.ActionDeduct,
		Qty:        12,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(context.Background(), entry.ID))

	_, err = st.GetHistoryEntry(context.Background(), entry.ID)
	assert.True(t, errs.IsNotFound(err))

	// The stock keeps the deducted value.
	stock, _ := st.GetItemStock(context.Background(), "item-1")
	assert.Equal(t, 38, stock)
}

func TestCreateItem_Validation(t *testing.T) {
	st := store.NewMemory()
	svc, _ := newTestService(t, st)

	_, err := svc.CreateItem(context.Background(), ItemInput{Name: "  "})
	code, _ := errs.CodeOf(err)
	assert.Equal(t, errs.CodeMissingFields, code)

	_, err = svc.CreateItem(context.Background(), ItemInput{Name: "Gloves", Stock: -1})
	code, _ = errs.CodeOf(err)
	assert.Equal(t, errs.CodeInvalidQty, code)

	item, err := svc.CreateItem(context.Background(), ItemInput{Name: "Gloves", Category: "consumable", Stock: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, 10, item.Stock)
}
