// Package draw picks a card that differs from the one currently shown, within
// a fixed number of sampling attempts.
package draw

import (
	"errors"
	"math/rand/v2"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
)

// DefaultMaxAttempts is the retry budget of a draw.
const DefaultMaxAttempts = 5

// ErrInvalidBudget is returned when maxAttempts is below one.
var ErrInvalidBudget = errors.New("draw: max attempts must be at least 1")

// Outcome tags the result of a draw.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	RetryExhausted
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not-found"
	case RetryExhausted:
		return "retry-exhausted"
	default:
		return "unknown"
	}
}

// Result is the outcome of a draw. Card is set only when Outcome is Found.
// Attempts counts the samples taken; an empty set takes none.
type Result struct {
	Outcome  Outcome
	Card     models.Card
	Attempts int
}

// SampleFunc returns one card of the matching set, or ok=false when the set is
// empty.
type SampleFunc func() (card models.Card, ok bool, err error)

// Draw samples until it gets a card whose id differs from previousID, at most
// maxAttempts times. With no previous card the first sample is accepted.
func Draw(sample SampleFunc, previousID string, maxAttempts int) (Result, error) {
	if maxAttempts < 1 {
		return Result{}, ErrInvalidBudget
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		card, ok, err := sample()
		if err != nil {
			return Result{Attempts: attempt - 1}, err
		}
		if !ok {
			return Result{Outcome: NotFound, Attempts: attempt - 1}, nil
		}
		if previousID == "" || card.ID != previousID {
			return Result{Outcome: Found, Card: card, Attempts: attempt}, nil
		}
	}

	return Result{Outcome: RetryExhausted, Attempts: maxAttempts}, nil
}

// Uniform returns a SampleFunc that picks floor(random()*len(cards)) from a
// materialized set. A nil rng uses the global source.
func Uniform(cards []models.Card, rng *rand.Rand) SampleFunc {
	return func() (models.Card, bool, error) {
		if len(cards) == 0 {
			return models.Card{}, false, nil
		}
		var f float64
		if rng != nil {
			f = rng.Float64()
		} else {
			f = rand.Float64()
		}
		return cards[int(f*float64(len(cards)))], true, nil
	}
}
