package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/avvvet/tarjetas/internal/cardsvc/importer"
	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/avvvet/tarjetas/internal/cardsvc/store"
	"github.com/avvvet/tarjetas/internal/comm"
	"github.com/go-chi/chi"
)

// multipartOverhead is allowed on top of MaxFileSize for the form envelope.
const multipartOverhead = 64 << 10

type cardRequest struct {
	SpanishText  string            `json:"spanish_text"`
	Translations map[string]string `json:"translations"`
	Category     string            `json:"category"`
}

func (c cardRequest) fields() models.CardFields {
	return models.CardFields{
		SpanishText:  c.SpanishText,
		Translations: c.Translations,
		Category:     c.Category,
	}
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type generateRequest struct {
	Level    string `json:"level"`
	Category string `json:"category"`
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cards, err := h.svc.Cards.List(r.Context(), owner(r), models.ParseFilter(q.Get("category")), store.ParseOrder(q.Get("order")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	h.CreateResponse(w, Response{Message: "cards", Code: http.StatusOK, Data: cards})
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid card payload")
		return
	}
	card, err := h.svc.Cards.Create(r.Context(), owner(r), req.fields())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "card created", Code: http.StatusCreated, Data: card})
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.svc.Cards.Get(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "card", Code: http.StatusOK, Data: card})
}

func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid card payload")
		return
	}
	card, err := h.svc.Cards.Update(r.Context(), owner(r), chi.URLParam(r, "id"), req.fields())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "card updated", Code: http.StatusOK, Data: card})
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cards.Delete(r.Context(), owner(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "card deleted", Code: http.StatusOK})
}

func (h *Handler) BulkDeleteCards(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid bulk delete payload")
		return
	}
	if err := h.svc.Cards.DeleteMany(r.Context(), owner(r), req.IDs); err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "cards deleted",
		Code:    http.StatusOK,
		Data:    map[string]int{"deleted": len(req.IDs)},
	})
}

// DrawCard serves /cards/random. previous is the id of the card on screen.
func (h *Handler) DrawCard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	card, err := h.svc.Draws.DrawRandomCard(r.Context(), owner(r), models.ParseFilter(q.Get("category")), q.Get("previous"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "card", Code: http.StatusOK, Data: card})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories.ListCategories(r.Context(), owner(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	h.CreateResponse(w, Response{
		Message: "categories",
		Code:    http.StatusOK,
		Data:    comm.CategoryList{Categories: categories, Sentinel: models.SentinelCategory},
	})
}

// ImportCards accepts either a raw text/csv body or a multipart form with the
// file under "file".
func (h *Handler) ImportCards(w http.ResponseWriter, r *http.Request) {
	data, err := h.readUpload(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, err)
			return
		}
		h.badRequest(w, "unable to read csv upload: "+err.Error())
		return
	}

	rows, err := importer.ParseCSV(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, importer.ErrMissingColumn) {
			h.fail(w, r, err)
			return
		}
		h.badRequest(w, err.Error())
		return
	}

	cards, err := h.svc.Imports.Import(r.Context(), owner(r), rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "cards imported", Code: http.StatusCreated, Data: cards})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, importer.MaxFileSize)
		return io.ReadAll(r.Body)
	}

	r.Body = http.MaxBytesReader(w, r.Body, importer.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(importer.MaxFileSize); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size > importer.MaxFileSize {
		return nil, &http.MaxBytesError{Limit: importer.MaxFileSize}
	}
	return io.ReadAll(file)
}

func (h *Handler) GenerateCard(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
			h.badRequest(w, "invalid generate payload")
			return
		}
	}
	draft, err := h.svc.Generator.Generate(r.Context(), req.Level, req.Category)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "card draft", Code: http.StatusOK, Data: draft})
}
