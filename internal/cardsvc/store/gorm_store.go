package store

import (
	"context"
	"errors"
	"time"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// cardRow is the gorm mapping of the cards table.
type cardRow struct {
	ID           string            `gorm:"primaryKey;size:36"`
	UserID       string            `gorm:"not null;index:idx_cards_user_category"`
	SpanishText  string            `gorm:"not null"`
	Translations map[string]string `gorm:"serializer:json"`
	Category     string            `gorm:"not null;index:idx_cards_user_category"`
	CreatedAt    time.Time         `gorm:"autoCreateTime"`
}

func (cardRow) TableName() string {
	return "cards"
}

func (r cardRow) card() models.Card {
	t := r.Translations
	if len(t) == 0 {
		t = nil
	}
	return models.Card{
		ID:           r.ID,
		UserID:       r.UserID,
		SpanishText:  r.SpanishText,
		Translations: t,
		Category:     r.Category,
		CreatedAt:    r.CreatedAt,
	}
}

// GormStore is the gateway over gorm, used with the sqlite driver for local runs.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the cards table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&cardRow{}); err != nil {
		return nil, wrap("migrate", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) scoped(ctx context.Context, owner string) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ?", owner)
}

func (s *GormStore) Query(ctx context.Context, owner string, f Filter, o Order) ([]models.Card, error) {
	q := s.scoped(ctx, owner)
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if o == OldestFirst {
		q = q.Order("created_at ASC").Order("id ASC")
	} else {
		q = q.Order("created_at DESC").Order("id ASC")
	}

	var rows []cardRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, wrap("query", err)
	}
	cards := make([]models.Card, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, r.card())
	}
	return cards, nil
}

func newRow(owner string, f models.CardFields) cardRow {
	return cardRow{
		ID:           uuid.New().String(),
		UserID:       owner,
		SpanishText:  f.SpanishText,
		Translations: f.Translations,
		Category:     f.Category,
	}
}

func (s *GormStore) Insert(ctx context.Context, owner string, fields models.CardFields) (*models.Card, error) {
	row := newRow(owner, fields)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, wrap("insert", err)
	}
	card := row.card()
	return &card, nil
}

func (s *GormStore) InsertBatch(ctx context.Context, owner string, fields []models.CardFields) ([]models.Card, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	rows := make([]cardRow, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, newRow(owner, f))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, wrap("insert batch", err)
	}
	cards := make([]models.Card, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, r.card())
	}
	return cards, nil
}

func (s *GormStore) Update(ctx context.Context, owner, id string, fields models.CardFields) (*models.Card, error) {
	var row cardRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND id = ?", owner, id).First(&row).Error; err != nil {
			return err
		}
		row.SpanishText = fields.SpanishText
		row.Translations = fields.Translations
		row.Category = fields.Category
		return tx.Save(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, wrap("update", err)
	}
	card := row.card()
	return &card, nil
}

func (s *GormStore) Delete(ctx context.Context, owner, id string) error {
	res := s.scoped(ctx, owner).Where("id = ?", id).Delete(&cardRow{})
	if res.Error != nil {
		return wrap("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}
