package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	"github.com/avvvet/tarjetas/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const requestTimeout = 10 * time.Second

type Broker struct {
	Conn            *nats.Conn
	DrawService     *service.DrawService
	CategoryService *service.CategoryService
}

// NewBroker accepts a nil connection, in which case nothing is published.
func NewBroker(nc *nats.Conn, drawService *service.DrawService, categoryService *service.CategoryService) *Broker {
	return &Broker{
		Conn:            nc,
		DrawService:     drawService,
		CategoryService: categoryService,
	}
}

// Handle answers one request envelope.
func (b *Broker) Handle(ctx context.Context, data []byte) comm.Message {
	var msg comm.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return comm.ErrorMessage(comm.ErrCodeBadRequest)
	}

	switch msg.Type {
	case comm.TypeDrawCard:
		var req comm.DrawRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				log.Errorf("Error decoding draw request: %s", err)
				return comm.ErrorMessage(comm.ErrCodeBadRequest)
			}
		}

		card, err := b.DrawService.DrawRandomCard(ctx, msg.Owner, models.ParseFilter(req.Category), req.Previous)
		if err != nil {
			log.Infof("[DrawService.DrawRandomCard] owner=%s category=%q: %s", msg.Owner, req.Category, err)
			return comm.ErrorMessage(service.ErrorCode(err))
		}
		return reply(comm.TypeCard, card)

	case comm.TypeListCategories:
		categories, err := b.CategoryService.ListCategories(ctx, msg.Owner)
		if err != nil {
			log.Errorf("Error [CategoryService.ListCategories] %s", err)
			return comm.ErrorMessage(service.ErrorCode(err))
		}
		return reply(comm.TypeCategories, comm.CategoryList{Categories: categories, Sentinel: models.SentinelCategory})

	default:
		log.Warnf("unknown message type: %s", msg.Type)
		return comm.ErrorMessage(comm.ErrCodeBadRequest)
	}
}

func reply(msgType string, data any) comm.Message {
	m, err := comm.NewMessage(msgType, data)
	if err != nil {
		log.Errorf("unable to marshal %s reply: %s", msgType, err)
		return comm.ErrorMessage(comm.ErrCodeFailed)
	}
	return m
}

func (b *Broker) handleMessage(msgNat *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp := b.Handle(ctx, msgNat.Data)
	if msgNat.Reply == "" {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	if err := msgNat.Respond(payload); err != nil {
		log.Errorf("Error responding on %s: %s", msgNat.Reply, err)
	}
}

// QueueSubscribeCardService serves card.service requests; instances of the
// service share the queue group.
func (b *Broker) QueueSubscribeCardService() (*nats.Subscription, error) {
	return b.Conn.QueueSubscribe(comm.CardServiceSubject, comm.CardServiceQueue, b.handleMessage)
}

// PublishCardEvent implements service.EventPublisher.
func (b *Broker) PublishCardEvent(_ context.Context, ev comm.CardEvent) {
	if b.Conn == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("[PublishCardEvent] unable to marshal event %s", ev.Type)
		return
	}
	b.Publish(comm.CardEventsSubject, payload)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
