package catalog

import (
	"net/http"

	"github.com/nordsalg/advisor-api/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Plans handles GET /api/v1/catalog/plans.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshot(w, r)
	if snapshot == nil || err != nil {
		return
	}
	common.JSONData(w, http.StatusOK, snapshot.Plans)
}

// StreamingServices handles GET /api/v1/catalog/streaming-services.
func (h *Handler) StreamingServices(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshot(w, r)
	if snapshot == nil || err != nil {
		return
	}
	common.JSONData(w, http.StatusOK, snapshot.Streaming)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (*Catalog, error) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return nil, nil
	}
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "catalog unavailable", nil)
		return nil, err
	}
	return snapshot, nil
}
