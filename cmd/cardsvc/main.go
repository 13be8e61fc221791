package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	natsgo "github.com/nats-io/nats.go"

	config "github.com/avvvet/tarjetas/configs"
	"github.com/avvvet/tarjetas/internal/cardsvc/broker"
	cfg "github.com/avvvet/tarjetas/internal/cardsvc/config"
	"github.com/avvvet/tarjetas/internal/cardsvc/db"
	"github.com/avvvet/tarjetas/internal/cardsvc/generator"
	"github.com/avvvet/tarjetas/internal/cardsvc/generator/gemini"
	handlers "github.com/avvvet/tarjetas/internal/cardsvc/handlers"
	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	nats "github.com/avvvet/tarjetas/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "card"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId[:8])
}

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if c.JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}

	cardStore, closeStore, err := db.OpenStore(c)
	if err != nil {
		log.Fatalf("Failed to open %s card store: %v", c.StoreDriver, err)
	}
	defer closeStore()

	drawService := service.NewDrawService(cardStore, c.DrawMax)
	categoryService := service.NewCategoryService(cardStore)

	// NATS is optional, without it card events are dropped
	var (
		events service.EventPublisher
		sub    *natsgo.Subscription
	)
	n, err := nats.Connect(SERVICE_NAME + "_service_" + instanceId)
	switch {
	case errors.Is(err, nats.ErrNotConfigured):
		log.Warn("NATS_URL not set, card bus disabled")
	case err != nil:
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	default:
		defer n.Conn.Drain()
		log.Printf("NATS connection established successfully %s", n.Url)

		b := broker.NewBroker(n.Conn, drawService, categoryService)
		sub, err = b.QueueSubscribeCardService()
		if err != nil {
			log.Fatalf("Error: unable to subscribe to queue %v", err)
		}
		events = b
	}

	var genClient generator.Client
	if c.GenAIKey != "" {
		g, err := gemini.New(context.Background(), c.GenAIKey, c.GenAIModel)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		log.Infof("card generation enabled with model %s", g.Name())
		genClient = g
	}

	svc := handlers.Services{
		Cards:      service.NewCardService(cardStore, events),
		Draws:      drawService,
		Categories: categoryService,
		Imports:    service.NewImportService(cardStore, events),
		Generator:  service.NewGeneratorService(genClient),
	}

	// Setup router
	r := chi.NewRouter()
	cors := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(c.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(svc, config.AllowedOrigins())
	h.InitAuth(c.JWTSecret)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s with %s store", SERVICE_NAME, server.Addr, c.StoreDriver)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if sub != nil {
		sub.Unsubscribe()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
