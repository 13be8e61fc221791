// Package generator asks a text generation model for a conversation card.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
)

// Levels are the CEFR levels a card can be generated for.
var Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// RandomCategory lets the model pick the topic.
const RandomCategory = "Random"

// Client returns the raw model reply for a level and category. The reply is
// expected to be a JSON object, see ParseCard.
type Client interface {
	Generate(ctx context.Context, level, category string) (string, error)
}

// ValidLevel reports whether level is one of Levels.
func ValidLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Prompt renders the instruction sent to the model.
func Prompt(level, category string) string {
	return fmt.Sprintf(`Create one conversation prompt for a Spanish learner at CEFR level %s about the topic %q.
If the topic is %q, choose any everyday topic.
Reply with a single JSON object and nothing else, using exactly these keys:
{"spanish_text": "<open question in Spanish>", "english_text": "<English translation>", "russian_text": "<Russian translation>", "category": "<one lowercase Spanish word for the topic>"}`,
		level, category, RandomCategory)
}

type reply struct {
	SpanishText string `json:"spanish_text"`
	EnglishText string `json:"english_text"`
	RussianText string `json:"russian_text"`
	Category    string `json:"category"`
}

// ParseCard decodes a model reply into card fields. A surrounding markdown
// code fence is tolerated.
func ParseCard(raw string) (models.CardFields, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	var r reply
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return models.CardFields{}, fmt.Errorf("invalid generated card: %w", err)
	}

	f := models.CardFields{
		SpanishText: r.SpanishText,
		Translations: map[string]string{
			models.LangEnglish: r.EnglishText,
			models.LangRussian: r.RussianText,
		},
		Category: r.Category,
	}.Normalize()
	if f.SpanishText == "" {
		return models.CardFields{}, errors.New("invalid generated card: spanish_text is empty")
	}
	return f, nil
}
