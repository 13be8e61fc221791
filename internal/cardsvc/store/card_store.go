package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cardSchema = `
CREATE TABLE IF NOT EXISTS cards (
	id           UUID PRIMARY KEY,
	user_id      TEXT NOT NULL,
	spanish_text TEXT NOT NULL CHECK (spanish_text <> ''),
	translations JSONB NOT NULL DEFAULT '{}'::jsonb,
	category     TEXT NOT NULL DEFAULT 'indefinida',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS cards_user_category_idx ON cards (user_id, category);
`

const cardColumns = `id::text, user_id, spanish_text, translations, category, created_at`

// CardStore is the Postgres gateway.
type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

// EnsureSchema creates the cards table when it does not exist.
func (s *CardStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, cardSchema); err != nil {
		return wrap("ensure schema", err)
	}
	return nil
}

// buildQuery renders the select for owner and filter. owner is always $1.
func buildQuery(owner string, f Filter, o Order) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT " + cardColumns + " FROM cards WHERE user_id = $1")
	args := []any{owner}

	if f.ID != "" {
		args = append(args, f.ID)
		fmt.Fprintf(&sb, " AND id::text = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		fmt.Fprintf(&sb, " AND category = $%d", len(args))
	}

	if o == OldestFirst {
		sb.WriteString(" ORDER BY created_at ASC, id ASC")
	} else {
		sb.WriteString(" ORDER BY created_at DESC, id ASC")
	}
	return sb.String(), args
}

func (s *CardStore) Query(ctx context.Context, owner string, f Filter, o Order) ([]models.Card, error) {
	query, args := buildQuery(owner, f, o)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("query", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, wrap("query", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("query", err)
	}

	return cards, nil
}

func (s *CardStore) Insert(ctx context.Context, owner string, fields models.CardFields) (*models.Card, error) {
	query := `
		INSERT INTO cards (id, user_id, spanish_text, translations, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + cardColumns

	card, err := scanCard(s.db.QueryRow(ctx, query,
		uuid.New().String(), owner, fields.SpanishText, translationsOrEmpty(fields.Translations), fields.Category))
	if err != nil {
		return nil, wrap("insert", fmt.Errorf("failed to insert card: %w", err))
	}

	return &card, nil
}

// InsertBatch inserts all rows in one transaction so a failing row leaves no
// partial import behind.
func (s *CardStore) InsertBatch(ctx context.Context, owner string, fields []models.CardFields) ([]models.Card, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, wrap("insert batch", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO cards (id, user_id, spanish_text, translations, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + cardColumns

	batch := &pgx.Batch{}
	for _, f := range fields {
		batch.Queue(query, uuid.New().String(), owner, f.SpanishText, translationsOrEmpty(f.Translations), f.Category)
	}

	results := tx.SendBatch(ctx, batch)
	cards := make([]models.Card, 0, len(fields))
	for range fields {
		card, err := scanCard(results.QueryRow())
		if err != nil {
			results.Close()
			return nil, wrap("insert batch", err)
		}
		cards = append(cards, card)
	}
	if err := results.Close(); err != nil {
		return nil, wrap("insert batch", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrap("insert batch", fmt.Errorf("commit: %w", err))
	}
	return cards, nil
}

func (s *CardStore) Update(ctx context.Context, owner, id string, fields models.CardFields) (*models.Card, error) {
	query := `
		UPDATE cards
		SET spanish_text = $3, translations = $4, category = $5
		WHERE user_id = $1 AND id::text = $2
		RETURNING ` + cardColumns

	card, err := scanCard(s.db.QueryRow(ctx, query,
		owner, id, fields.SpanishText, translationsOrEmpty(fields.Translations), fields.Category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, wrap("update", fmt.Errorf("failed to update card %s: %w", id, err))
	}

	return &card, nil
}

func (s *CardStore) Delete(ctx context.Context, owner, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cards WHERE user_id = $1 AND id::text = $2`, owner, id)
	if err != nil {
		return wrap("delete", fmt.Errorf("failed to delete card %s: %w", id, err))
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

func scanCard(row pgx.Row) (models.Card, error) {
	var card models.Card
	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.SpanishText,
		&card.Translations,
		&card.Category,
		&card.CreatedAt,
	)
	if len(card.Translations) == 0 {
		card.Translations = nil
	}
	return card, err
}

func translationsOrEmpty(t map[string]string) map[string]string {
	if t == nil {
		return map[string]string{}
	}
	return t
}
