package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/avvvet/tarjetas/internal/cardsvc/draw"
	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	log "github.com/sirupsen/logrus"
)

// DrawService draws random cards for an owner. It holds no per user state;
// callers pass the id of the card they currently show.
type DrawService struct {
	store       store.Gateway
	maxAttempts int
	rng         *rand.Rand
}

func NewDrawService(store store.Gateway, maxAttempts int) *DrawService {
	if maxAttempts < 1 {
		maxAttempts = draw.DefaultMaxAttempts
	}
	return &DrawService{store: store, maxAttempts: maxAttempts}
}

// WithSeed makes sampling deterministic. The seeded source is safe for
// concurrent draws.
func (s *DrawService) WithSeed(seed1, seed2 uint64) *DrawService {
	s.rng = rand.New(&lockedSource{src: rand.NewPCG(seed1, seed2)})
	return s
}

func (s *DrawService) MaxAttempts() int {
	return s.maxAttempts
}

// DrawRandomCard fetches the cards matching filter and samples one that
// differs from previousID. It returns ErrNoCards for an empty set and
// ErrNoOtherCard when the budget ran out on the previous card.
func (s *DrawService) DrawRandomCard(ctx context.Context, owner string, filter models.CategoryFilter, previousID string) (*models.Card, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}

	cards, err := s.store.Query(ctx, owner, store.Filter{Category: filter.StoreValue()}, store.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to draw random card: %w", err)
	}

	res, err := draw.Draw(draw.Uniform(cards, s.rng), previousID, s.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to draw random card: %w", err)
	}
	log.Debugf("draw owner=%s category=%s set=%d outcome=%s attempts=%d", owner, filter, len(cards), res.Outcome, res.Attempts)

	switch res.Outcome {
	case draw.NotFound:
		return nil, ErrNoCards
	case draw.RetryExhausted:
		return nil, ErrNoOtherCard
	}
	card := res.Card
	return &card, nil
}

type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (l *lockedSource) Uint64() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Uint64()
}
