package draw

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func cardsWithIDs(ids ...string) []models.Card {
	out := make([]models.Card, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Card{ID: id, UserID: "u1", SpanishText: "texto " + id, Category: "travel"})
	}
	return out
}

// sequence returns the given cards in order, one per call.
func sequence(t *testing.T, cards ...models.Card) (SampleFunc, *int) {
	calls := 0
	return func() (models.Card, bool, error) {
		require.Less(t, calls, len(cards), "sampled more often than expected")
		c := cards[calls]
		calls++
		return c, true, nil
	}, &calls
}

func TestDrawNoPreviousAcceptsFirstSample(t *testing.T) {
	c := cardsWithIDs("c1", "c2")
	sample, calls := sequence(t, c[0])

	res, err := Draw(sample, "", DefaultMaxAttempts)
	require.NoError(t, err)
	assert.Equal(t, Found, res.Outcome)
	assert.Equal(t, "c1", res.Card.ID)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, *calls)
}

func TestDrawSkipsPreviousCard(t *testing.T) {
	c := cardsWithIDs("c1", "c2")
	sample, _ := sequence(t, c[0], c[0], c[1])

	res, err := Draw(sample, "c1", DefaultMaxAttempts)
	require.NoError(t, err)
	assert.Equal(t, Found, res.Outcome)
	assert.Equal(t, "c2", res.Card.ID)
	assert.Equal(t, 3, res.Attempts)
}

func TestDrawSingleCardEqualToPreviousExhausts(t *testing.T) {
	calls := 0
	sample := func() (models.Card, bool, error) {
		calls++
		return cardsWithIDs("c1")[0], true, nil
	}

	res, err := Draw(sample, "c1", DefaultMaxAttempts)
	require.NoError(t, err)
	assert.Equal(t, RetryExhausted, res.Outcome)
	assert.Equal(t, DefaultMaxAttempts, res.Attempts)
	assert.Equal(t, DefaultMaxAttempts, calls)
	assert.Empty(t, res.Card.ID)
}

func TestDrawEmptySetIsNotFound(t *testing.T) {
	res, err := Draw(Uniform(nil, nil), "c1", DefaultMaxAttempts)
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Outcome)
	assert.Zero(t, res.Attempts)
}

func TestDrawPreviousOutsideSet(t *testing.T) {
	res, err := Draw(Uniform(cardsWithIDs("c1"), nil), "gone", DefaultMaxAttempts)
	require.NoError(t, err)
	assert.Equal(t, Found, res.Outcome)
	assert.Equal(t, "c1", res.Card.ID)
}

func TestDrawSamplerError(t *testing.T) {
	boom := errors.New("boom")
	sample := func() (models.Card, bool, error) { return models.Card{}, false, boom }

	_, err := Draw(sample, "", DefaultMaxAttempts)
	assert.ErrorIs(t, err, boom)
}

func TestDrawRejectsInvalidBudget(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := Draw(Uniform(cardsWithIDs("c1"), nil), "", n)
		assert.ErrorIs(t, err, ErrInvalidBudget)
	}
}

func TestDrawEventuallyDiffers(t *testing.T) {
	// With n >= 2 cards the chance of five repeats is (1/n)^5; over many
	// seeded draws the exhausted share stays near that bound.
	for _, n := range []int{2, 3, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("c%d", i)
			}
			cards := cardsWithIDs(ids...)
			rng := rand.New(rand.NewPCG(uint64(n), 42))

			const runs = 20000
			exhausted := 0
			for i := 0; i < runs; i++ {
				res, err := Draw(Uniform(cards, rng), "c0", DefaultMaxAttempts)
				require.NoError(t, err)
				switch res.Outcome {
				case Found:
					assert.NotEqual(t, "c0", res.Card.ID)
				case RetryExhausted:
					exhausted++
				default:
					t.Fatalf("unexpected outcome %s", res.Outcome)
				}
			}

			p := 1.0
			for i := 0; i < DefaultMaxAttempts; i++ {
				p /= float64(n)
			}
			assert.InDelta(t, p, float64(exhausted)/runs, 0.01)
		})
	}
}

func TestUniformCoversSet(t *testing.T) {
	cards := cardsWithIDs("a", "b", "c", "d")
	rng := rand.New(rand.NewPCG(7, 7))
	sample := Uniform(cards, rng)

	seen := map[string]int{}
	for i := 0; i < 4000; i++ {
		c, ok, err := sample()
		require.NoError(t, err)
		require.True(t, ok)
		seen[c.ID]++
	}
	require.Len(t, seen, 4)
	for id, n := range seen {
		assert.InDelta(t, 1000, n, 150, "card %s", id)
	}
}

func TestConcurrentDraws(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cards := cardsWithIDs("c1", "c2", "c3")
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := Draw(Uniform(cards, nil), "c1", DefaultMaxAttempts)
			assert.NoError(t, err)
			assert.NotEqual(t, NotFound, res.Outcome)
		}()
	}
	wg.Wait()
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "not-found", NotFound.String())
	assert.Equal(t, "retry-exhausted", RetryExhausted.String())
}
