package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrStateNotFound is returned by a StateStore when no state exists for a key.
var ErrStateNotFound = errors.New("table state not found")

// State is the persisted view of a project's curation table.
type State struct {
	SelectedColumns []string       `json:"selectedColumns"`
	ColumnFilters   []ColumnFilter `json:"columnFilters"`
	Sorting         []SortState    `json:"sorting"`
}

// DefaultState is the empty view: only built-ins, no filters, no sort.
func DefaultState() State {
	return State{SelectedColumns: []string{}, ColumnFilters: []ColumnFilter{}, Sorting: []SortState{}}
}

// StateKey is the session key of a project's table state.
func StateKey(projectID string) string {
	return fmt.Sprintf("%s-curation-table", projectID)
}

// StateStore is an ephemeral key/value session store.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LoadState reads the state of a project. A missing or malformed entry yields the default;
// only store failures other than a miss are returned as errors, together with the default.
func LoadState(ctx context.Context, store StateStore, projectID string) (State, error) {
	raw, err := store.Get(ctx, StateKey(projectID))
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return DefaultState(), nil
		}
		return DefaultState(), err
	}
	return DecodeState(raw), nil
}

// DecodeState parses a persisted state, falling back to the default on malformed input.
func DecodeState(raw []byte) State {
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return DefaultState()
	}
	return st.withDefaults()
}

func (st State) withDefaults() State {
	if st.SelectedColumns == nil {
		st.SelectedColumns = []string{}
	}
	if st.ColumnFilters == nil {
		st.ColumnFilters = []ColumnFilter{}
	}
	if st.Sorting == nil {
		st.Sorting = []SortState{}
	}
	return st
}

// Validate checks the state on its own, without knowing which columns exist. Columns and
// filters that do not apply to a given table are skipped by Restore instead.
func (st State) Validate() error {
	for _, id := range st.SelectedColumns {
		if id == "" {
			return errors.New("selected column without id")
		}
	}
	for _, f := range st.ColumnFilters {
		if f.ID == "" {
			return errors.New("filter without column id")
		}
		switch f.Kind {
		case FilterText, FilterAutocomplete:
		case FilterNumericRange:
			if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
				return fmt.Errorf("filter %s: min %v greater than max %v", f.ID, *f.Min, *f.Max)
			}
		default:
			return fmt.Errorf("filter %s: unknown kind %q", f.ID, f.Kind)
		}
	}
	for _, s := range st.Sorting {
		if s.ID == "" {
			return errors.New("sort without column id")
		}
	}
	return nil
}

// SaveState writes the state of a project.
func SaveState(ctx context.Context, store StateStore, projectID string, st State) error {
	raw, err := json.Marshal(st.withDefaults())
	if err != nil {
		return err
	}
	return store.Set(ctx, StateKey(projectID), raw)
}

// MemoryStore is a StateStore for tests and for running without Redis.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrStateNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
