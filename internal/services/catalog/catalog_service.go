package catalog

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"blackmarket-trader/internal/models"
)

// Store keeps the host's static item catalog in memory, ordered by template id.
type Store struct {
	db *gorm.DB

	mu        sync.RWMutex
	templates []models.ItemTemplate
	byID      map[string]int
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:   db,
		byID: make(map[string]int),
	}
}

func (s *Store) Load(ctx context.Context) error {
	var templates []models.ItemTemplate
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&templates).Error; err != nil {
		return fmt.Errorf("load item templates: %w", err)
	}

	byID := make(map[string]int, len(templates))
	for i, tpl := range templates {
		byID[tpl.ID] = i
	}

	s.mu.Lock()
	s.templates = templates
	s.byID = byID
	s.mu.Unlock()
	return nil
}

// Templates returns the loaded templates. The slice must not be modified.
func (s *Store) Templates() []models.ItemTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates
}

func (s *Store) Template(id string) (models.ItemTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return models.ItemTemplate{}, false
	}
	return s.templates[i], true
}
