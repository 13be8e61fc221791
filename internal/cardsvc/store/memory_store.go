package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/google/uuid"
)

// MemoryStore keeps cards in process. It backs tests and the "memory" driver.
type MemoryStore struct {
	mu    sync.RWMutex
	cards map[string]models.Card
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cards: make(map[string]models.Card),
		now:   time.Now,
	}
}

func (s *MemoryStore) Query(ctx context.Context, owner string, f Filter, o Order) ([]models.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("query", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Card
	for _, c := range s.cards {
		if c.UserID != owner {
			continue
		}
		if f.ID != "" && c.ID != f.ID {
			continue
		}
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		out = append(out, copyCard(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		if o == OldestFirst {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, owner string, fields models.CardFields) (*models.Card, error) {
	cards, err := s.InsertBatch(ctx, owner, []models.CardFields{fields})
	if err != nil {
		return nil, wrap("insert", err)
	}
	return &cards[0], nil
}

func (s *MemoryStore) InsertBatch(ctx context.Context, owner string, fields []models.CardFields) ([]models.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("insert batch", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]models.Card, 0, len(fields))
	for _, f := range fields {
		c := models.Card{
			ID:           uuid.New().String(),
			UserID:       owner,
			SpanishText:  f.SpanishText,
			Translations: copyTranslations(f.Translations),
			Category:     f.Category,
			CreatedAt:    now,
		}
		s.cards[c.ID] = c
		out = append(out, copyCard(c))
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, owner, id string, fields models.CardFields) (*models.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("update", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[id]
	if !ok || c.UserID != owner {
		return nil, ErrCardNotFound
	}
	c.SpanishText = fields.SpanishText
	c.Translations = copyTranslations(fields.Translations)
	c.Category = fields.Category
	s.cards[id] = c

	out := copyCard(c)
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, owner, id string) error {
	if err := ctx.Err(); err != nil {
		return wrap("delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[id]
	if !ok || c.UserID != owner {
		return ErrCardNotFound
	}
	delete(s.cards, id)
	return nil
}

func copyCard(c models.Card) models.Card {
	c.Translations = copyTranslations(c.Translations)
	return c
}

func copyTranslations(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
