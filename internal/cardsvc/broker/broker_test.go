package broker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	"github.com/avvvet/tarjetas/internal/comm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBroker(t *testing.T) (*Broker, *store.MemoryStore) {
	s := store.NewMemoryStore()
	b := NewBroker(nil, service.NewDrawService(s, 5), service.NewCategoryService(s))
	return b, s
}

func request(t *testing.T, msgType, owner string, data any) []byte {
	m, err := comm.NewMessage(msgType, data)
	require.NoError(t, err)
	m.Owner = owner
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	return raw
}

func TestHandleDrawCard(t *testing.T) {
	ctx := context.Background()
	b, s := setupBroker(t)

	t.Run("no cards", func(t *testing.T) {
		resp := b.Handle(ctx, request(t, comm.TypeDrawCard, "U1", comm.DrawRequest{Category: "all"}))
		assert.Equal(t, comm.TypeError, resp.Type)
		assert.Equal(t, comm.ErrCodeNoCards, resp.Error)
	})

	cards, err := s.InsertBatch(ctx, "U1", []models.CardFields{{SpanishText: "¿Qué tal?", Category: "travel"}})
	require.NoError(t, err)

	t.Run("draws card", func(t *testing.T) {
		resp := b.Handle(ctx, request(t, comm.TypeDrawCard, "U1", comm.DrawRequest{Category: "travel"}))
		require.Equal(t, comm.TypeCard, resp.Type)
		var card models.Card
		require.NoError(t, json.Unmarshal(resp.Data, &card))
		assert.Equal(t, cards[0].ID, card.ID)
	})

	t.Run("no other card", func(t *testing.T) {
		resp := b.Handle(ctx, request(t, comm.TypeDrawCard, "U1", comm.DrawRequest{Category: "travel", Previous: cards[0].ID}))
		assert.Equal(t, comm.ErrCodeNoOtherCard, resp.Error)
	})

	t.Run("missing owner", func(t *testing.T) {
		resp := b.Handle(ctx, request(t, comm.TypeDrawCard, "", comm.DrawRequest{}))
		assert.Equal(t, comm.ErrCodeBadRequest, resp.Error)
	})
}

func TestHandleListCategories(t *testing.T) {
	ctx := context.Background()
	b, s := setupBroker(t)
	_, err := s.InsertBatch(ctx, "U1", []models.CardFields{
		{SpanishText: "a", Category: "travel"},
		{SpanishText: "b", Category: "food"},
		{SpanishText: "c", Category: "food"},
	})
	require.NoError(t, err)

	resp := b.Handle(ctx, request(t, comm.TypeListCategories, "U1", nil))
	require.Equal(t, comm.TypeCategories, resp.Type)
	var list comm.CategoryList
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, []string{"food", "travel"}, list.Categories)
	assert.Equal(t, "indefinida", list.Sentinel)
}

func TestHandleBadInput(t *testing.T) {
	b, _ := setupBroker(t)
	ctx := context.Background()

	assert.Equal(t, comm.ErrCodeBadRequest, b.Handle(ctx, []byte("{")).Error)
	assert.Equal(t, comm.ErrCodeBadRequest, b.Handle(ctx, request(t, "dance", "U1", nil)).Error)
}

func TestPublishWithoutConnection(t *testing.T) {
	b, _ := setupBroker(t)
	assert.NotPanics(t, func() {
		b.PublishCardEvent(context.Background(), comm.CardEvent{Type: comm.EventCardCreated, Owner: "U1", IDs: []string{"x"}})
	})
}
