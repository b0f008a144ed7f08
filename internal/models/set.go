package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// EmployeeSet is a duplicate-free set of employee IDs. It is stored as a
// JSON array in a text column; adds are monotonic (there is no remove).
type EmployeeSet []string

// Contains reports whether id is a member of the set.
func (s EmployeeSet) Contains(id string) bool {
	for _, member := range s {
		if member == id {
			return true
		}
	}
	return false
}

// Add inserts id into the set, keeping it sorted. It reports whether the
// set changed.
func (s *EmployeeSet) Add(id string) bool {
	if s.Contains(id) {
		return false
	}
	*s = append(*s, id)
	sort.Strings(*s)
	return true
}

// Value implements driver.Valuer. An empty set serializes as "[]" so the
// column is never NULL.
func (s EmployeeSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *EmployeeSet) Scan(src interface{}) error {
	if src == nil {
		*s = EmployeeSet{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("employee set: cannot scan %T", src)
	}
	if len(raw) == 0 {
		*s = EmployeeSet{}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("employee set: %w", err)
	}
	*s = EmployeeSet(ids)
	return nil
}
