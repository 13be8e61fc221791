package comm

import (
	"encoding/json"
	"time"
)

// Subjects on the NATS bus.
const (
	CardServiceSubject = "card.service"
	CardEventsSubject  = "card.events"
	CardServiceQueue   = "cardsvc"
)

// Message types exchanged with the card service over NATS and the drill socket.
const (
	TypeDrawCard       = "draw-card"
	TypeListCategories = "list-categories"
	TypeCard           = "card"
	TypeCategories     = "categories"
	TypeError          = "error"

	// drill socket only
	TypeDraw  = "draw"
	TypeReset = "reset"
)

// Card event types published on CardEventsSubject.
const (
	EventCardCreated   = "card-created"
	EventCardUpdated   = "card-updated"
	EventCardDeleted   = "card-deleted"
	EventCardsImported = "cards-imported"
)

// Error codes carried in Message.Error.
const (
	ErrCodeNoCards     = "no-cards"
	ErrCodeNoOtherCard = "no-other-card"
	ErrCodeBadRequest  = "bad-request"
	ErrCodeFailed      = "failed"
)

// Message is the envelope used on the bus and on the drill socket.
type Message struct {
	Type  string          `json:"type"`
	Owner string          `json:"owner,omitempty"` // bus only, the socket takes it from the token
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// DrawRequest asks for a random card.
type DrawRequest struct {
	Category string `json:"category"`
	Previous string `json:"previous,omitempty"`
}

// CategoryList is the payload of a categories message.
type CategoryList struct {
	Categories []string `json:"categories"`
	Sentinel   string   `json:"sentinel"`
}

// CardEvent reports a mutation of one owner's cards.
type CardEvent struct {
	Type      string    `json:"type"`
	Owner     string    `json:"owner"`
	IDs       []string  `json:"ids"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage marshals data into a Message of the given type.
func NewMessage(msgType string, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: raw}, nil
}

// ErrorMessage builds an error reply.
func ErrorMessage(code string) Message {
	return Message{Type: TypeError, Error: code}
}
