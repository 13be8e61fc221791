package service

import (
	"context"
	"fmt"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	"github.com/avvvet/tarjetas/internal/comm"
	log "github.com/sirupsen/logrus"
)

// ImportService inserts pre-parsed rows as new cards, all or nothing.
type ImportService struct {
	store  store.Gateway
	events EventPublisher
}

func NewImportService(store store.Gateway, events EventPublisher) *ImportService {
	return &ImportService{store: store, events: events}
}

// Import rejects the whole batch when any row lacks Spanish text, reporting
// only how many rows are invalid. Valid batches go to the store in one call.
func (s *ImportService) Import(ctx context.Context, owner string, rows []models.CardFields) ([]models.Card, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	if len(rows) == 0 {
		return []models.Card{}, nil
	}

	normalized := make([]models.CardFields, 0, len(rows))
	invalid := 0
	for _, r := range rows {
		n := r.Normalize()
		if n.SpanishText == "" {
			invalid++
		}
		normalized = append(normalized, n)
	}
	if invalid > 0 {
		return nil, &ValidationError{Field: "spanish_text", Invalid: invalid, Total: len(rows)}
	}

	cards, err := s.store.InsertBatch(ctx, owner, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to import cards: %w", err)
	}
	log.Infof("imported %d cards for owner %s", len(cards), owner)

	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	publish(ctx, s.events, comm.EventCardsImported, owner, ids...)
	return cards, nil
}
