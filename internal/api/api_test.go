package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storekeep/internal/events"
	"storekeep/internal/ledger"
	"storekeep/internal/models"
	"storekeep/internal/monitoring"
	"storekeep/internal/notify"
	"storekeep/internal/store"
	"storekeep/internal/tasks"
)

func newTestServer(t *testing.T) (*Server, *store.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	metrics := monitoring.New(prometheus.NewRegistry())
	log := zap.NewNop()
	ledgerSvc := ledger.NewService(st, notify.Noop{}, events.NopPublisher{}, metrics, log, nil)
	taskSvc := tasks.NewService(st, events.NopPublisher{}, metrics, log)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, st.CreateEmployee(context.Background(), &models.Employee{
		ID: "admin-1", Name: "Avery", Email: "avery@example.com",
		Role: models.RoleAdmin, PasswordHash: string(hash),
	}))
	require.NoError(t, st.CreateEmployee(context.Background(), &models.Employee{
		ID: "emp-1", Name: "Dana", Email: "dana@example.com",
		Role: models.RoleEmployee, PasswordHash: string(hash),
	}))
	require.NoError(t, st.CreateItem(context.Background(), &models.Item{
		ID: "item-1", Name: "Gloves", Category: "consumable", Stock: 50,
	}))

	return NewServer(ledgerSvc, taskSvc, st, nil, "test-secret", log), st
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server, email string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLogin(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": "avery@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": "nobody@example.com", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	login(t, s, "avery@example.com")
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/items", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnlyRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	employee := login(t, s, "dana@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/items", employee,
		map[string]interface{}{"name": "Towels", "stock": 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecordDeduction(t *testing.T) {
	s, st := newTestServer(t)
	token := login(t, s, "dana@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/history", token,
		map[string]interface{}{"item_id": "item-1", "action": "deduct", "qty": 12})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var entry models.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, models.ActionDeduct, entry.Action)
	assert.Equal(t, "emp-1", entry.EmployeeID)
	assert.Equal(t, "Dana", entry.EmployeeName)
	assert.Equal(t, 50, entry.StockBefore)
	assert.Equal(t, 38, entry.StockAfter)

	stock, err := st.GetItemStock(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, 38, stock)
}

func TestRecordRejectsNonIntegerQty(t *testing.T) {
	s, st := newTestServer(t)
	token := login(t, s, "dana@example.com")

	for _, qty := range []interface{}{"abc", 2.5} {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/history", token,
			map[string]interface{}{"item_id": "item-1", "action": "deduct", "qty": qty})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_QTY", resp.Code, "qty=%v", qty)
	}

	// Rejected before any write.
	entries, err := st.ListHistory(context.Background(), store.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	stock, _ := st.GetItemStock(context.Background(), "item-1")
	assert.Equal(t, 50, stock)
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	s, _ := newTestServer(t)
	token := login(t, s, "dana@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/history", token,
		map[string]interface{}{"item_id": "item-1", "qty": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ACTION_EMPTY", resp.Code)
}

func TestEditHistoryEntry(t *testing.T) {
	s, st := newTestServer(t)
	admin := login(t, s, "avery@example.com")
	employee := login(t, s, "dana@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/history", employee,
		map[string]interface{}{"item_id": "item-1", "action": "deduct", "qty": 12})
	require.Equal(t, http.StatusCreated, rec.Code)
	var entry models.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))

	// Employees cannot edit the ledger.
	rec = doJSON(t, s, http.MethodPatch, "/api/v1/history/"+entry.ID, employee,
		map[string]interface{}{"qty": 20})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s, http.MethodPatch, "/api/v1/history/"+entry.ID, admin,
		map[string]interface{}{"qty": 20})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Stock int `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 30, resp.Stock) // 38 + (12-20)

	stock, _ := st.GetItemStock(context.Background(), "item-1")
	assert.Equal(t, 30, stock)
}

func TestTaskGateOverHTTP(t *testing.T) {
	s, _ := newTestServer(t)
	admin := login(t, s, "avery@example.com")
	employee := login(t, s, "dana@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/tasks", admin, map[string]interface{}{
		"title": "Restock shelf three",
		"items": []map[string]interface{}{{"item_id": "item-1", "required_qty": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))

	taskPath := fmt.Sprintf("/api/v1/tasks/%s", task.ID)

	// Done before check+deduct violates the gate.
	rec = doJSON(t, s, http.MethodPost, taskPath+"/done", employee, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodPost, taskPath+"/check", employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Deduct an unrelated quantity, then the gate opens.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/history", employee,
		map[string]interface{}{"item_id": "item-1", "action": "deduct", "qty": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, taskPath+"/done", employee, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, models.TaskCompleted, task.Status)
	assert.True(t, task.DoneBy.Contains("emp-1"))

	rec = doJSON(t, s, http.MethodGet, taskPath+"/progress", employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var progress tasks.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.True(t, progress.Checked)
	assert.True(t, progress.Done)
}
