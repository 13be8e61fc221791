package service

import (
	"errors"
	"fmt"

	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	"github.com/avvvet/tarjetas/internal/comm"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNoCards means the owner has no card matching the filter.
	ErrNoCards = errors.New("no cards in category")

	// ErrNoOtherCard means only the previously shown card matched within the
	// retry budget.
	ErrNoOtherCard = errors.New("no other card available")

	ErrOwnerRequired     = errors.New("owner is required")
	ErrCardNotFound      = store.ErrCardNotFound
	ErrGeneratorDisabled = errors.New("card generator is not configured")
	ErrGeneration        = errors.New("failed to generate card")
)

// ValidationError reports cards missing their Spanish text. For a batch,
// Invalid counts the offending rows out of Total; no per-row detail is kept.
// Single card validation leaves both at zero.
type ValidationError struct {
	Field   string
	Invalid int
	Total   int
}

func (e *ValidationError) Error() string {
	if e.Total > 0 {
		return fmt.Sprintf("%d cards are missing Spanish text", e.Invalid)
	}
	return fmt.Sprintf("%s is missing or invalid", e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// BulkDeleteError reports that some deletes of a batch failed. Which ones is
// not tracked.
type BulkDeleteError struct {
	Failed int
	Total  int
}

func (e *BulkDeleteError) Error() string {
	return fmt.Sprintf("failed to delete %d of %d cards", e.Failed, e.Total)
}

// ErrorCode maps a draw or listing error to the code sent to bus and socket
// clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoCards):
		return comm.ErrCodeNoCards
	case errors.Is(err, ErrNoOtherCard):
		return comm.ErrCodeNoOtherCard
	case errors.Is(err, ErrOwnerRequired), errors.Is(err, ErrValidation):
		return comm.ErrCodeBadRequest
	default:
		return comm.ErrCodeFailed
	}
}
