package quote

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/nordsalg/advisor-api/internal/common"
)

// Handler exposes the quote endpoints.
type Handler struct {
	Service  *Service
	Store    *Store
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, store *Store) *Handler {
	return &Handler{
		Service:  service,
		Store:    store,
		Validate: validator.New(),
	}
}

// Routes mounts the quote endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/compare", h.Compare)
	r.Post("/recommend", h.Recommend)
	r.Post("/", h.Save)
	r.Get("/{id}", h.Get)
	return r
}

// Compare handles POST /api/v1/quotes/compare.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCompare(w, r)
	if !ok {
		return
	}
	result, err := h.Service.Compare(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

// Recommend handles POST /api/v1/quotes/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON payload", nil)
		return
	}
	result, err := h.Service.Recommend(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

// Save handles POST /api/v1/quotes. It computes the comparison and persists
// the outcome so the seller can reopen it.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCompare(w, r)
	if !ok {
		return
	}
	result, err := h.Service.Compare(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	saved, err := h.Store.Save(r.Context(), req, result)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "could not persist quote", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, saved)
}

// Get handles GET /api/v1/quotes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	saved, found, err := h.Store.Get(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "could not fetch quote", nil)
		return
	}
	if !found {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "quote not found", nil)
		return
	}
	common.JSONData(w, http.StatusOK, saved)
}

func (h *Handler) decodeCompare(w http.ResponseWriter, r *http.Request) (CompareRequest, bool) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON payload", nil)
		return req, false
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, err.Error(), nil)
		return req, false
	}
	return req, true
}
