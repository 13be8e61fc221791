package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
)

// ErrCardNotFound is returned by Update and Delete when no card with the given
// id belongs to the owner.
var ErrCardNotFound = errors.New("card not found")

// Order selects the listing order.
type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// ParseOrder maps "oldest" to OldestFirst; everything else is NewestFirst.
func ParseOrder(s string) Order {
	if s == "oldest" {
		return OldestFirst
	}
	return NewestFirst
}

// Filter narrows a query. Zero fields match everything.
type Filter struct {
	ID       string
	Category string // persisted category label
}

// Gateway is the user scoped card collection. Every method is scoped to owner
// and never touches cards of another user.
type Gateway interface {
	Query(ctx context.Context, owner string, f Filter, o Order) ([]models.Card, error)
	Insert(ctx context.Context, owner string, fields models.CardFields) (*models.Card, error)
	InsertBatch(ctx context.Context, owner string, fields []models.CardFields) ([]models.Card, error)
	Update(ctx context.Context, owner, id string, fields models.CardFields) (*models.Card, error)
	Delete(ctx context.Context, owner, id string) error
}

// Error wraps a backend failure. Op names the gateway operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}
