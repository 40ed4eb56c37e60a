package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager tracks the in-progress games of one process. Games are
// independent: the manager only guards its own map, never the engines,
// which are each their own single writer.
type Manager struct {
	logger *zap.Logger

	mu    sync.RWMutex
	games map[string]*Engine
}

// NewManager creates an empty game manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger: logger,
		games:  make(map[string]*Engine),
	}
}

// Create starts a new game from a turn set and seed, assigning a fresh ID.
func (m *Manager) Create(turns map[string]TurnConfiguration, startKey string, seed int64) (*Engine, error) {
	id := uuid.NewString()
	engine, err := NewEngine(Config{
		GameID:   id,
		Turns:    turns,
		StartKey: startKey,
		Seed:     seed,
		Logger:   m.logger,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.games[id] = engine
	m.mu.Unlock()

	m.logger.Info("game registered", zap.String("game_id", id), zap.Int("active_games", m.Count()))
	return engine, nil
}

// Adopt registers an externally constructed engine (e.g. a restored game).
func (m *Manager) Adopt(engine *Engine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[engine.ID()]; exists {
		return fmt.Errorf("game %s already registered", engine.ID())
	}
	m.games[engine.ID()] = engine
	return nil
}

// Get returns a game by ID.
func (m *Manager) Get(id string) (*Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	engine, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s not found", id)
	}
	return engine, nil
}

// Delete removes a game from the manager.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.games, id)
	m.mu.Unlock()
	m.logger.Info("game removed", zap.String("game_id", id))
}

// List returns the IDs of all registered games.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of registered games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}
