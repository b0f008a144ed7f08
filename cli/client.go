package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles API requests to the storekeep server
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("STOREKEEP_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
	}
}

// ping checks if the API server is available
func (c *ApiClient) ping() bool {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Item mirrors the server's item payload
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
}

// HistoryEntry mirrors the server's ledger entry payload
type HistoryEntry struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id"`
	Action      string `json:"action"`
	Qty         int    `json:"qty"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
}

// Task mirrors the server's task payload
type Task struct {
	ID     string `json:"task_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func (c *ApiClient) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login authenticates and stores the session token on the client.
func (c *ApiClient) Login(email, password string) error {
	var result struct {
		Token string `json:"token"`
	}
	err := c.do(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": email, "password": password}, &result)
	if err != nil {
		return err
	}
	c.Token = result.Token
	return nil
}

// ListItems fetches all items.
func (c *ApiClient) ListItems() ([]Item, error) {
	var items []Item
	if err := c.do(http.MethodGet, "/api/v1/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// RecordDeduct records a stock deduction against an item.
func (c *ApiClient) RecordDeduct(itemID string, qty int) (*HistoryEntry, error) {
	var entry HistoryEntry
	err := c.do(http.MethodPost, "/api/v1/history", map[string]interface{}{
		"item_id": itemID,
		"action":  "deduct",
		"qty":     qty,
	}, &entry)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListTasks fetches all tasks.
func (c *ApiClient) ListTasks() ([]Task, error) {
	var tasks []Task
	if err := c.do(http.MethodGet, "/api/v1/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CheckTask marks the task checked for the logged-in employee.
func (c *ApiClient) CheckTask(id string) error {
	return c.do(http.MethodPost, "/api/v1/tasks/"+id+"/check", nil, nil)
}

// CompleteTask runs the completion gate for the logged-in employee.
func (c *ApiClient) CompleteTask(id string) error {
	return c.do(http.MethodPost, "/api/v1/tasks/"+id+"/done", nil, nil)
}
