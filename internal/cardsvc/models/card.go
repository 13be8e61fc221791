package models

import (
	"strings"
	"time"
)

// Language codes of the translations observed in imports and AI drafts.
const (
	LangEnglish = "en"
	LangRussian = "ru"
)

// Card is one Spanish conversation prompt owned by a single user.
type Card struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	SpanishText  string            `json:"spanish_text"`
	Translations map[string]string `json:"translations,omitempty"`
	Category     string            `json:"category"` // persisted form, never empty
	CreatedAt    time.Time         `json:"created_at"`
}

// CardFields holds the user editable part of a card.
type CardFields struct {
	SpanishText  string            `json:"spanish_text"`
	Translations map[string]string `json:"translations,omitempty"`
	Category     string            `json:"category"`
}

// Normalize trims the texts, drops empty translations and maps the category to
// its persisted form.
func (f CardFields) Normalize() CardFields {
	out := CardFields{
		SpanishText: strings.TrimSpace(f.SpanishText),
		Category:    ParseCategory(f.Category).String(),
	}
	for lang, text := range f.Translations {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if out.Translations == nil {
			out.Translations = make(map[string]string)
		}
		out.Translations[strings.ToLower(strings.TrimSpace(lang))] = text
	}
	return out
}

// CategoryValue returns the card category as a variant.
func (c Card) CategoryValue() Category {
	return ParseCategory(c.Category)
}
