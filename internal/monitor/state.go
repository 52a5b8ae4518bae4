package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"RegimeSentinel/internal/model"
)

// LoadState reads the monitor state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*model.MonitorState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.MonitorState{Symbols: map[string]model.SymbolState{}}, nil
		}
		return nil, err
	}
	var state model.MonitorState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	if state.Symbols == nil {
		state.Symbols = map[string]model.SymbolState{}
	}
	return &state, nil
}

// SaveState writes the monitor state through a temp file and rename.
func SaveState(filePath string, state *model.MonitorState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}

// Store guards the monitor state and persists it after every change.
type Store struct {
	mu       sync.Mutex
	state    *model.MonitorState
	filePath string
}

// NewStore loads state from filePath. An empty filePath keeps state in memory only.
func NewStore(filePath string) (*Store, error) {
	state := &model.MonitorState{Symbols: map[string]model.SymbolState{}}
	if filePath != "" {
		loaded, err := LoadState(filePath)
		if err != nil {
			return nil, err
		}
		state = loaded
	}
	return &Store{state: state, filePath: filePath}, nil
}

// Get returns the state of one symbol.
func (s *Store) Get(symbol string) (model.SymbolState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state.Symbols[symbol]
	return st, ok
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() model.MonitorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := model.MonitorState{Symbols: make(map[string]model.SymbolState, len(s.state.Symbols)), UpdatedAt: s.state.UpdatedAt}
	for k, v := range s.state.Symbols {
		cp.Symbols[k] = v
	}
	return cp
}

// Put replaces the state of one symbol and saves.
func (s *Store) Put(symbol string, st model.SymbolState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Symbols[symbol] = st
	return s.save()
}

// UpdatePrice refreshes the displayed price of a symbol that already has state.
func (s *Store) UpdatePrice(symbol string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state.Symbols[symbol]
	if !ok {
		return nil
	}
	st.LastPrice = price
	s.state.Symbols[symbol] = st
	return s.save()
}

func (s *Store) save() error {
	if s.filePath == "" {
		s.state.UpdatedAt = time.Now()
		return nil
	}
	return SaveState(s.filePath, s.state)
}
