package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	"github.com/avvvet/tarjetas/internal/comm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// flakyStore fails the operations listed in failOn and counts queries.
type flakyStore struct {
	*store.MemoryStore
	mu      sync.Mutex
	failOn  map[string]bool
	failIDs map[string]bool
	queries int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore(), failOn: map[string]bool{}, failIDs: map[string]bool{}}
}

var errBackend = errors.New("connection reset")

func (f *flakyStore) Query(ctx context.Context, owner string, fl store.Filter, o store.Order) ([]models.Card, error) {
	f.mu.Lock()
	f.queries++
	fail := f.failOn["query"]
	f.mu.Unlock()
	if fail {
		return nil, &store.Error{Op: "query", Err: errBackend}
	}
	return f.MemoryStore.Query(ctx, owner, fl, o)
}

func (f *flakyStore) InsertBatch(ctx context.Context, owner string, fields []models.CardFields) ([]models.Card, error) {
	if f.failOn["insert batch"] {
		return nil, &store.Error{Op: "insert batch", Err: errBackend}
	}
	return f.MemoryStore.InsertBatch(ctx, owner, fields)
}

func (f *flakyStore) Delete(ctx context.Context, owner, id string) error {
	if f.failIDs[id] {
		return &store.Error{Op: "delete", Err: errBackend}
	}
	return f.MemoryStore.Delete(ctx, owner, id)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []comm.CardEvent
}

func (r *recordingPublisher) PublishCardEvent(_ context.Context, ev comm.CardEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func seed(t *testing.T, s store.Gateway, owner string, cards ...models.CardFields) []models.Card {
	t.Helper()
	out, err := s.InsertBatch(context.Background(), owner, cards)
	require.NoError(t, err)
	return out
}

func TestCreateNormalizesCategory(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewCardService(store.NewMemoryStore(), pub)

	card, err := svc.Create(ctx, "u1", models.CardFields{SpanishText: "¿Cómo estás?", Category: ""})
	require.NoError(t, err)
	assert.Equal(t, "indefinida", card.Category)
	assert.Equal(t, "u1", card.UserID)

	card, err = svc.Create(ctx, "u1", models.CardFields{SpanishText: "¿Qué comes?", Category: " Comida "})
	require.NoError(t, err)
	assert.Equal(t, "comida", card.Category)

	require.Len(t, pub.events, 2)
	assert.Equal(t, comm.EventCardCreated, pub.events[0].Type)
	assert.Equal(t, "u1", pub.events[0].Owner)
}

func TestCreateValidation(t *testing.T) {
	svc := NewCardService(store.NewMemoryStore(), nil)

	_, err := svc.Create(context.Background(), "u1", models.CardFields{SpanishText: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "spanish_text", ve.Field)

	_, err = svc.Create(context.Background(), "", models.CardFields{SpanishText: "hola"})
	assert.ErrorIs(t, err, ErrOwnerRequired)
}

func TestGetUpdateDeleteAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewCardService(s, nil)
	cards := seed(t, s, "u1", models.CardFields{SpanishText: "hola", Category: "saludos"})
	id := cards[0].ID

	got, err := svc.Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "hola", got.SpanishText)

	_, err = svc.Get(ctx, "u2", id)
	assert.ErrorIs(t, err, ErrCardNotFound)

	_, err = svc.Update(ctx, "u2", id, models.CardFields{SpanishText: "hola"})
	assert.ErrorIs(t, err, ErrCardNotFound)

	updated, err := svc.Update(ctx, "u1", id, models.CardFields{SpanishText: "buenas", Category: ""})
	require.NoError(t, err)
	assert.Equal(t, "indefinida", updated.Category)

	_, err = svc.Update(ctx, "u1", id, models.CardFields{SpanishText: ""})
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", id), ErrCardNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", id))
}

func TestListFiltersByCategory(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewCardService(s, nil)
	seed(t, s, "u1",
		models.CardFields{SpanishText: "a", Category: "food"},
		models.CardFields{SpanishText: "b", Category: "indefinida"},
	)
	seed(t, s, "u2", models.CardFields{SpanishText: "c", Category: "food"})

	all, err := svc.List(ctx, "u1", models.AllCategories(), store.NewestFirst)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := svc.List(ctx, "u1", models.ParseFilter("indefinida"), store.NewestFirst)
	require.NoError(t, err)
	require.Len(t, none, 1)
	assert.Equal(t, "b", none[0].SpanishText)
}

func TestDeleteMany(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()

	t.Run("all succeed", func(t *testing.T) {
		s := newFlakyStore()
		pub := &recordingPublisher{}
		svc := NewCardService(s, pub)
		cards := seed(t, s, "u1",
			models.CardFields{SpanishText: "a", Category: "x"},
			models.CardFields{SpanishText: "b", Category: "x"},
			models.CardFields{SpanishText: "c", Category: "x"},
		)

		err := svc.DeleteMany(ctx, "u1", []string{cards[0].ID, cards[1].ID, cards[2].ID})
		require.NoError(t, err)

		left, err := s.Query(ctx, "u1", store.Filter{}, store.NewestFirst)
		require.NoError(t, err)
		assert.Empty(t, left)
		require.Len(t, pub.events, 1)
		assert.Len(t, pub.events[0].IDs, 3)
	})

	t.Run("partial failure is aggregated", func(t *testing.T) {
		s := newFlakyStore()
		svc := NewCardService(s, nil)
		cards := seed(t, s, "u1",
			models.CardFields{SpanishText: "a", Category: "x"},
			models.CardFields{SpanishText: "b", Category: "x"},
			models.CardFields{SpanishText: "c", Category: "x"},
		)
		s.failIDs[cards[1].ID] = true

		err := svc.DeleteMany(ctx, "u1", []string{cards[0].ID, cards[1].ID, cards[2].ID, "missing"})
		var be *BulkDeleteError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, 1, be.Failed)
		assert.Equal(t, 4, be.Total)

		left, err := s.Query(ctx, "u1", store.Filter{}, store.NewestFirst)
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, cards[1].ID, left[0].ID)
	})

	t.Run("repeated and unknown ids are not failures", func(t *testing.T) {
		s := newFlakyStore()
		pub := &recordingPublisher{}
		svc := NewCardService(s, pub)
		cards := seed(t, s, "u1", models.CardFields{SpanishText: "a", Category: "x"})
		other := seed(t, s, "u2", models.CardFields{SpanishText: "b", Category: "x"})

		err := svc.DeleteMany(ctx, "u1", []string{cards[0].ID, cards[0].ID, "missing", other[0].ID})
		require.NoError(t, err)

		left, err := s.Query(ctx, "u1", store.Filter{}, store.NewestFirst)
		require.NoError(t, err)
		assert.Empty(t, left)

		// another owner's card is untouched
		left, err = s.Query(ctx, "u2", store.Filter{}, store.NewestFirst)
		require.NoError(t, err)
		assert.Len(t, left, 1)

		require.Len(t, pub.events, 1)
		assert.Equal(t, []string{cards[0].ID}, pub.events[0].IDs)
	})

	t.Run("empty batch", func(t *testing.T) {
		svc := NewCardService(newFlakyStore(), nil)
		assert.NoError(t, svc.DeleteMany(ctx, "u1", nil))
	})
}

func TestListCategories(t *testing.T) {
	ctx := context.Background()
	s := newFlakyStore()
	svc := NewCategoryService(s)

	seed(t, s, "U1",
		models.CardFields{SpanishText: "a", Category: "food"},
		models.CardFields{SpanishText: "b", Category: "travel"},
		models.CardFields{SpanishText: "c", Category: "food"},
	)
	seed(t, s, "U2", models.CardFields{SpanishText: "d", Category: "music"})

	got, err := svc.ListCategories(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"food", "travel"}, got)

	again, err := svc.ListCategories(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	seed(t, s, "U1",
		models.CardFields{SpanishText: "e", Category: "indefinida"},
		models.CardFields{SpanishText: "f", Category: "arte"},
	)
	got, err = svc.ListCategories(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"arte", "food", "indefinida", "travel"}, got)

	empty, err := svc.ListCategories(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	s.failOn["query"] = true
	_, err = svc.ListCategories(ctx, "U1")
	var se *store.Error
	assert.ErrorAs(t, err, &se)
}

func TestDrawRandomCard(t *testing.T) {
	ctx := context.Background()

	t.Run("all with zero cards is not found", func(t *testing.T) {
		svc := NewDrawService(store.NewMemoryStore(), 5)
		_, err := svc.DrawRandomCard(ctx, "U1", models.ParseFilter("all"), "")
		assert.ErrorIs(t, err, ErrNoCards)
	})

	t.Run("single card equal to previous exhausts budget", func(t *testing.T) {
		s := newFlakyStore()
		cards := seed(t, s, "U1", models.CardFields{SpanishText: "c1", Category: "travel"})
		svc := NewDrawService(s, 5)

		_, err := svc.DrawRandomCard(ctx, "U1", models.ParseFilter("travel"), cards[0].ID)
		assert.ErrorIs(t, err, ErrNoOtherCard)
		assert.NotErrorIs(t, err, ErrNoCards)
		assert.Equal(t, 1, s.queries, "set is fetched once per draw")
	})

	t.Run("no previous returns a card of the category", func(t *testing.T) {
		s := store.NewMemoryStore()
		seed(t, s, "U1",
			models.CardFields{SpanishText: "a", Category: "travel"},
			models.CardFields{SpanishText: "b", Category: "food"},
		)
		svc := NewDrawService(s, 5).WithSeed(1, 2)

		card, err := svc.DrawRandomCard(ctx, "U1", models.ParseFilter("travel"), "")
		require.NoError(t, err)
		assert.Equal(t, "a", card.SpanishText)
	})

	t.Run("differs from previous", func(t *testing.T) {
		s := store.NewMemoryStore()
		cards := seed(t, s, "U1",
			models.CardFields{SpanishText: "a", Category: "food"},
			models.CardFields{SpanishText: "b", Category: "food"},
			models.CardFields{SpanishText: "c", Category: "food"},
		)
		svc := NewDrawService(s, 5).WithSeed(3, 4)

		prev := cards[0].ID
		for i := 0; i < 50; i++ {
			card, err := svc.DrawRandomCard(ctx, "U1", models.AllCategories(), prev)
			if errors.Is(err, ErrNoOtherCard) {
				continue
			}
			require.NoError(t, err)
			assert.NotEqual(t, prev, card.ID)
			prev = card.ID
		}
	})

	t.Run("never draws other owners cards", func(t *testing.T) {
		s := store.NewMemoryStore()
		seed(t, s, "U2", models.CardFields{SpanishText: "ajena", Category: "food"})
		svc := NewDrawService(s, 5)

		_, err := svc.DrawRandomCard(ctx, "U1", models.ParseFilter("food"), "")
		assert.ErrorIs(t, err, ErrNoCards)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		s := newFlakyStore()
		s.failOn["query"] = true
		_, err := NewDrawService(s, 5).DrawRandomCard(ctx, "U1", models.AllCategories(), "")
		var se *store.Error
		require.ErrorAs(t, err, &se)
		assert.ErrorIs(t, err, errBackend)
	})

	t.Run("owner required", func(t *testing.T) {
		_, err := NewDrawService(store.NewMemoryStore(), 5).DrawRandomCard(ctx, "", models.AllCategories(), "")
		assert.ErrorIs(t, err, ErrOwnerRequired)
	})

	t.Run("invalid budget falls back to default", func(t *testing.T) {
		assert.Equal(t, 5, NewDrawService(store.NewMemoryStore(), 0).MaxAttempts())
	})
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts valid batch", func(t *testing.T) {
		s := newFlakyStore()
		pub := &recordingPublisher{}
		svc := NewImportService(s, pub)

		cards, err := svc.Import(ctx, "u1", []models.CardFields{
			{SpanishText: "¿Qué hora es?", Translations: map[string]string{"en": "What time is it?"}},
			{SpanishText: "¿Dónde está?", Category: "Viajes"},
		})
		require.NoError(t, err)
		require.Len(t, cards, 2)
		assert.Equal(t, "indefinida", cards[0].Category)
		assert.Equal(t, "viajes", cards[1].Category)
		for _, c := range cards {
			assert.Equal(t, "u1", c.UserID)
		}
		require.Len(t, pub.events, 1)
		assert.Equal(t, comm.EventCardsImported, pub.events[0].Type)
	})

	t.Run("rejects whole batch with invalid count", func(t *testing.T) {
		s := newFlakyStore()
		svc := NewImportService(s, nil)

		_, err := svc.Import(ctx, "u1", []models.CardFields{
			{SpanishText: "ok"},
			{SpanishText: ""},
			{SpanishText: "  ", Category: "x"},
		})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, 2, ve.Invalid)
		assert.Equal(t, 3, ve.Total)
		assert.EqualError(t, err, "2 cards are missing Spanish text")

		left, err := s.Query(ctx, "u1", store.Filter{}, store.NewestFirst)
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("empty batch", func(t *testing.T) {
		cards, err := NewImportService(newFlakyStore(), nil).Import(ctx, "u1", nil)
		require.NoError(t, err)
		assert.Empty(t, cards)
	})

	t.Run("store failure", func(t *testing.T) {
		s := newFlakyStore()
		s.failOn["insert batch"] = true
		_, err := NewImportService(s, nil).Import(ctx, "u1", []models.CardFields{{SpanishText: "x"}})
		var se *store.Error
		assert.ErrorAs(t, err, &se)
	})
}

type stubGenerator struct {
	reply       string
	err         error
	gotLevel    string
	gotCategory string
}

func (g *stubGenerator) Generate(_ context.Context, level, category string) (string, error) {
	g.gotLevel, g.gotCategory = level, category
	return g.reply, g.err
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		_, err := NewGeneratorService(nil).Generate(ctx, "A1", "")
		assert.ErrorIs(t, err, ErrGeneratorDisabled)
	})

	t.Run("defaults level and category", func(t *testing.T) {
		g := &stubGenerator{reply: `{"spanish_text":"¿Tienes mascotas?","english_text":"Do you have pets?","category":"animales"}`}
		draft, err := NewGeneratorService(g).Generate(ctx, "", "")
		require.NoError(t, err)
		assert.Equal(t, "A1", g.gotLevel)
		assert.Equal(t, "Random", g.gotCategory)
		assert.Equal(t, "¿Tienes mascotas?", draft.SpanishText)
		assert.Equal(t, "animales", draft.Category)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewGeneratorService(&stubGenerator{}).Generate(ctx, "Z9", "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unparseable reply", func(t *testing.T) {
		_, err := NewGeneratorService(&stubGenerator{reply: "nope"}).Generate(ctx, "b2", "viajes")
		assert.ErrorIs(t, err, ErrGeneration)
	})

	t.Run("provider error", func(t *testing.T) {
		_, err := NewGeneratorService(&stubGenerator{err: errors.New("quota")}).Generate(ctx, "C1", "")
		assert.ErrorIs(t, err, ErrGeneration)
	})
}
