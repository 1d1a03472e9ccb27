package media

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/curator/console/internal/utils"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/preview", h.PreviewImage)
	r.Post("/thumbnail", h.ThumbnailLink)

	return r
}

type pathRequest struct {
	Path string `json:"path"`
}

// PreviewImage fetches a stored evidence image back as a data url so the
// console can show it without a cross-origin request. The fetch is bounded
// by the configured preview timeout.
func (h *Handler) PreviewImage(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := utils.DecodeJSON(r, &req); err != nil || req.Path == "" {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	dataURL, err := h.service.Preview(r.Context(), req.Path)
	if err != nil {
		if errors.Is(err, ErrPreviewTimeout) {
			utils.RespondError(w, http.StatusGatewayTimeout, "Preview took too long")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "Failed to load preview")
		return
	}

	utils.RespondSuccess(w, map[string]string{"data_url": dataURL})
}

// ThumbnailLink resolves the thumbnail URL for a stored image, falling back
// to the full image for formats the thumbnailer skips.
func (h *Handler) ThumbnailLink(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := utils.DecodeJSON(r, &req); err != nil || req.Path == "" {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	url, ok := h.service.ThumbnailURL(req.Path)
	if !ok {
		url = req.Path
	}
	utils.RespondSuccess(w, map[string]string{"url": url})
}
