package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	"github.com/avvvet/tarjetas/internal/comm"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type CardService struct {
	store  store.Gateway
	events EventPublisher
}

func NewCardService(store store.Gateway, events EventPublisher) *CardService {
	return &CardService{store: store, events: events}
}

func validateFields(f models.CardFields) (models.CardFields, error) {
	n := f.Normalize()
	if n.SpanishText == "" {
		return n, &ValidationError{Field: "spanish_text"}
	}
	return n, nil
}

// Create adds a card for owner. An empty category is stored as the sentinel.
func (s *CardService) Create(ctx context.Context, owner string, fields models.CardFields) (*models.Card, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	f, err := validateFields(fields)
	if err != nil {
		return nil, err
	}

	card, err := s.store.Insert(ctx, owner, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	publish(ctx, s.events, comm.EventCardCreated, owner, card.ID)
	return card, nil
}

func (s *CardService) Get(ctx context.Context, owner, id string) (*models.Card, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	cards, err := s.store.Query(ctx, owner, store.Filter{ID: id}, store.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	if len(cards) == 0 {
		return nil, ErrCardNotFound
	}
	return &cards[0], nil
}

// List returns owner's cards matching filter.
func (s *CardService) List(ctx context.Context, owner string, filter models.CategoryFilter, order store.Order) ([]models.Card, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	cards, err := s.store.Query(ctx, owner, store.Filter{Category: filter.StoreValue()}, order)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

func (s *CardService) Update(ctx context.Context, owner, id string, fields models.CardFields) (*models.Card, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	f, err := validateFields(fields)
	if err != nil {
		return nil, err
	}

	card, err := s.store.Update(ctx, owner, id, f)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update card %s: %w", id, err)
	}
	publish(ctx, s.events, comm.EventCardUpdated, owner, card.ID)
	return card, nil
}

func (s *CardService) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrOwnerRequired
	}
	if err := s.store.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	publish(ctx, s.events, comm.EventCardDeleted, owner, id)
	return nil
}

// DeleteMany deletes every id concurrently and waits for all of them. Ids that
// match no card count as deleted. One failure does not stop the others; any
// store failure yields a single *BulkDeleteError.
func (s *CardService) DeleteMany(ctx context.Context, owner string, ids []string) error {
	if owner == "" {
		return ErrOwnerRequired
	}
	if len(ids) == 0 {
		return nil
	}

	var (
		g       errgroup.Group
		failed  atomic.Int32
		deleted = make([]string, len(ids))
	)
	for i, id := range ids {
		g.Go(func() error {
			err := s.store.Delete(ctx, owner, id)
			if errors.Is(err, store.ErrCardNotFound) {
				// already gone, e.g. a repeated id
				return nil
			}
			if err != nil {
				failed.Add(1)
				log.Warnf("bulk delete: card %s of owner %s: %v", id, owner, err)
				return err
			}
			deleted[i] = id
			return nil
		})
	}
	g.Wait()

	var ok []string
	for _, id := range deleted {
		if id != "" {
			ok = append(ok, id)
		}
	}
	publish(ctx, s.events, comm.EventCardDeleted, owner, ok...)

	if n := int(failed.Load()); n > 0 {
		return &BulkDeleteError{Failed: n, Total: len(ids)}
	}
	return nil
}
