package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/avvvet/tarjetas/internal/cardsvc/generator"
	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	log "github.com/sirupsen/logrus"
)

// GeneratorService produces card drafts. Drafts are not stored.
type GeneratorService struct {
	client generator.Client
}

// NewGeneratorService accepts a nil client, in which case Generate returns
// ErrGeneratorDisabled.
func NewGeneratorService(client generator.Client) *GeneratorService {
	return &GeneratorService{client: client}
}

func (s *GeneratorService) Enabled() bool {
	return s != nil && s.client != nil
}

func (s *GeneratorService) Generate(ctx context.Context, level, category string) (*models.CardFields, error) {
	if !s.Enabled() {
		return nil, ErrGeneratorDisabled
	}

	level = strings.ToUpper(strings.TrimSpace(level))
	if level == "" {
		level = generator.Levels[0]
	}
	if !generator.ValidLevel(level) {
		return nil, &ValidationError{Field: "level"}
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = generator.RandomCategory
	}

	raw, err := s.client.Generate(ctx, level, category)
	if err != nil {
		log.Errorf("card generation failed level=%s category=%s: %v", level, category, err)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	draft, err := generator.ParseCard(raw)
	if err != nil {
		log.Warnf("unparseable generated card: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return &draft, nil
}
