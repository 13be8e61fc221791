package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	"github.com/avvvet/tarjetas/internal/comm"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const drillMessageTimeout = 10 * time.Second

// drillSession is one client's practice loop. It remembers the card on screen
// and the selected category so each draw can avoid repeating the last card.
type drillSession struct {
	id         string
	owner      string
	filter     models.CategoryFilter
	previousID string

	draws      *service.DrawService
	categories *service.CategoryService
}

func newDrillSession(owner string, svc Services) *drillSession {
	return &drillSession{
		id:         uuid.New().String(),
		owner:      owner,
		filter:     models.AllCategories(),
		draws:      svc.Draws,
		categories: svc.Categories,
	}
}

type drawPayload struct {
	Category *string `json:"category"`
}

// handle answers one client message.
func (s *drillSession) handle(ctx context.Context, raw []byte) comm.Message {
	var msg comm.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Errorf("Failed to unmarshal message from socket %s: %v", s.id, err)
		return comm.ErrorMessage(comm.ErrCodeBadRequest)
	}

	switch msg.Type {
	case comm.TypeDraw:
		var p drawPayload
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &p); err != nil {
				return comm.ErrorMessage(comm.ErrCodeBadRequest)
			}
		}
		// switching category keeps previousID, the new filter may still match it
		if p.Category != nil {
			s.filter = models.ParseFilter(*p.Category)
		}

		card, err := s.draws.DrawRandomCard(ctx, s.owner, s.filter, s.previousID)
		if err != nil {
			return comm.ErrorMessage(service.ErrorCode(err))
		}
		s.previousID = card.ID
		return sessionReply(comm.TypeCard, card)

	case comm.TypeReset:
		s.previousID = ""
		s.filter = models.AllCategories()
		return comm.Message{Type: comm.TypeReset}

	case comm.TypeCategories:
		categories, err := s.categories.ListCategories(ctx, s.owner)
		if err != nil {
			log.Errorf("socket %s: list categories: %v", s.id, err)
			return comm.ErrorMessage(service.ErrorCode(err))
		}
		return sessionReply(comm.TypeCategories, comm.CategoryList{Categories: categories, Sentinel: models.SentinelCategory})

	default:
		log.Warnf("unknown event received: %s", msg.Type)
		return comm.ErrorMessage(comm.ErrCodeBadRequest)
	}
}

func sessionReply(msgType string, data any) comm.Message {
	m, err := comm.NewMessage(msgType, data)
	if err != nil {
		log.Errorf("Failed to marshal %s message: %v", msgType, err)
		return comm.ErrorMessage(comm.ErrCodeFailed)
	}
	return m
}

// HandleWebSocket upgrades an authenticated request into a drill session.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user := owner(r)
	if user == "" {
		h.fail(w, r, service.ErrOwnerRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	session := newDrillSession(user, h.svc)
	log.Infof("New drill session %s for user %s", session.id, user)

	// the request context ends with the handler, the session outlives it
	go h.serveDrill(conn, session)
}

func (h *Handler) serveDrill(conn *websocket.Conn, s *drillSession) {
	defer func() {
		log.Infof("Closing WebSocket connection: %s", s.id)
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", s.id, err)
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), drillMessageTimeout)
		resp := s.handle(ctx, raw)
		cancel()

		if err := conn.WriteJSON(resp); err != nil {
			log.Errorf("Failed to write to socket %s: %v", s.id, err)
			return
		}
	}
}
