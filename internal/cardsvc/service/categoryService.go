package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/avvvet/tarjetas/internal/cardsvc/store"
)

// CategoryService derives the category index of an owner from their cards.
type CategoryService struct {
	store store.Gateway
}

func NewCategoryService(store store.Gateway) *CategoryService {
	return &CategoryService{store: store}
}

// ListCategories returns the distinct categories of owner's cards in
// alphabetical order, including the sentinel when some card carries it.
func (s *CategoryService) ListCategories(ctx context.Context, owner string) ([]string, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	cards, err := s.store.Query(ctx, owner, store.Filter{}, store.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	seen := make(map[string]struct{}, len(cards))
	out := make([]string, 0)
	for _, c := range cards {
		label := c.CategoryValue().String()
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out, nil
}
