package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/avvvet/tarjetas/internal/cardsvc/importer"
	"github.com/avvvet/tarjetas/internal/cardsvc/service"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	"github.com/go-chi/jwtauth"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Services groups what the handlers call into.
type Services struct {
	Cards      *service.CardService
	Draws      *service.DrawService
	Categories *service.CategoryService
	Imports    *service.ImportService
	Generator  *service.GeneratorService
}

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	upgrader  websocket.Upgrader
	svc       Services
}

// NewHandler accepts websocket upgrades only from the given origins. Requests
// without an Origin header (non-browser clients) are let through.
func NewHandler(svc Services, origins []string) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		svc: svc,
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed["*"] {
			return true
		}
		ok := allowed[strings.ToLower(origin)]
		if !ok {
			log.Warnf("websocket upgrade refused for origin %s", origin)
		}
		return ok
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "card service is running at port " + os.Getenv("CARD_SERVICE_PORT"),
		Code:    http.StatusOK,
	})
}

// owner reads the caller's user id from the verified token: user_id, or sub
// when user_id is absent.
func owner(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return ""
	}
	for _, key := range []string{"user_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// Stable error strings returned in Response.Error.
const (
	errBadRequest       = "bad-request"
	errUnauthorized     = "unauthorized"
	errValidation       = "validation-failed"
	errCardNotFound     = "card-not-found"
	errNoCards          = "no-cards"
	errNoOtherCard      = "no-other-card"
	errFileTooLarge     = "file-too-large"
	errGeneratorOff     = "generator-disabled"
	errGenerationFailed = "generation-failed"
	errBulkDelete       = "bulk-delete-failed"
	errInternal         = "internal-error"
)

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.CreateResponse(w, Response{Message: msg, Code: http.StatusBadRequest, Error: errBadRequest})
}

// fail maps a service error onto a status and error string. Internal errors
// keep their cause out of the response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	rsp := Response{Message: err.Error()}
	var (
		bulk     *service.BulkDeleteError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.Is(err, service.ErrOwnerRequired):
		rsp.Code, rsp.Error = http.StatusUnauthorized, errUnauthorized
	case errors.Is(err, service.ErrValidation):
		rsp.Code, rsp.Error = http.StatusUnprocessableEntity, errValidation
	case errors.Is(err, importer.ErrMissingColumn):
		rsp.Code, rsp.Error = http.StatusUnprocessableEntity, errValidation
	case errors.As(err, &tooLarge):
		rsp.Code, rsp.Error = http.StatusRequestEntityTooLarge, errFileTooLarge
		rsp.Message = fmt.Sprintf("file exceeds %d bytes", importer.MaxFileSize)
	case errors.Is(err, store.ErrCardNotFound):
		rsp.Code, rsp.Error = http.StatusNotFound, errCardNotFound
	case errors.Is(err, service.ErrNoCards):
		rsp.Code, rsp.Error = http.StatusNotFound, errNoCards
	case errors.Is(err, service.ErrNoOtherCard):
		rsp.Code, rsp.Error = http.StatusConflict, errNoOtherCard
	case errors.Is(err, service.ErrGeneratorDisabled):
		rsp.Code, rsp.Error = http.StatusServiceUnavailable, errGeneratorOff
	case errors.Is(err, service.ErrGeneration):
		rsp.Code, rsp.Error = http.StatusBadGateway, errGenerationFailed
	case errors.As(err, &bulk):
		rsp.Code, rsp.Error = http.StatusInternalServerError, errBulkDelete
		rsp.Data = map[string]int{"failed": bulk.Failed, "total": bulk.Total}
	default:
		log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		rsp.Code, rsp.Error = http.StatusInternalServerError, errInternal
		rsp.Message = "internal server error"
	}
	h.CreateResponse(w, rsp)
}
