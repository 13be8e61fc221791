package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(h.tokenAuth, jwtauth.TokenFromHeader, jwtauth.TokenFromCookie, tokenFromQuery))
			r.Use(jwtauth.Authenticator)

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", h.ListCards)
				r.Post("/", h.CreateCard)
				r.Get("/random", h.DrawCard)
				r.Post("/bulk-delete", h.BulkDeleteCards)
				r.Post("/import", h.ImportCards)
				r.Post("/generate", h.GenerateCard)

				r.Get("/{id}", h.GetCard)
				r.Put("/{id}", h.UpdateCard)
				r.Delete("/{id}", h.DeleteCard)
			})
			r.Get("/categories", h.ListCategories)
			r.Get("/ws", h.HandleWebSocket)
		})
	})
}

// tokenFromQuery lets browsers pass the token on the websocket url, where
// they cannot set headers.
func tokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get("token")
}

func (h *Handler) InitAuth(secret string) {
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)

	user := os.Getenv("DEBUG_TOKEN_USER")
	if user == "" {
		return
	}

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"user_id": user,
		"exp":     expirationTime,
	})
	if err != nil {
		log.Errorf("unable to sign debug token: %v", err)
		return
	}

	// For debugging only, leave DEBUG_TOKEN_USER unset in production
	log.Infof("DEBUG: JWT for user %s expires in 7 days : %s", user, tokenString)
}
