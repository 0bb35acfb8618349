package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dsmolkin/mediakeeper/internal/common"
	"github.com/dsmolkin/mediakeeper/internal/logging"
	model "github.com/dsmolkin/mediakeeper/internal/media"
)

type handler struct {
	svc    MediaService
	logger logging.Logger
}

type uploadTargetResponse struct {
	Item      *model.Media `json:"item"`
	UploadURL string       `json:"uploadUrl"`
}

type markRequest struct {
	MediaIDs []string `json:"mediaIds"`
}

type markResponse struct {
	Items []model.Media `json:"items"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *handler) generateUploadURL(w http.ResponseWriter, r *http.Request) {
	var desc model.Media
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, url, err := h.svc.GenerateUploadURL(r.Context(), &desc)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, uploadTargetResponse{Item: rec, UploadURL: url})
}

// markAs builds the handler for one status-transition endpoint. The
// request body is either {"mediaIds": [...]} or a bare JSON array of
// ids; both forms are accepted.
func (h *handler) markAs(status model.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := decodeMediaIDs(r)
		if err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		items, err := h.svc.SetStatus(r.Context(), ids, status)
		if err != nil {
			h.respondError(w, r, err)
			return
		}

		h.respondJSON(w, r, markResponse{Items: items})
	}
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, m)
}

func decodeMediaIDs(r *http.Request) ([]string, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		return ids, nil
	}

	var req markRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return req.MediaIDs, nil
}

func (h *handler) respondJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error(r.Context(), "failed to encode response", "error", err)
	}
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrorNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
