package logs

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/refdata"
	"github.com/curator/console/internal/table"
	"github.com/curator/console/internal/utils"
)

type Handler struct {
	service  *Service
	renderer *table.Renderer
	ref      *refdata.Config
}

func NewHandler(service *Service, renderer *table.Renderer, ref *refdata.Config) *Handler {
	return &Handler{service: service, renderer: renderer, ref: ref}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/data", h.ListRecords)
	r.Post("/edit", h.SaveRecord)
	r.Post("/delete", h.DeleteRecord)

	return r
}

type listRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type listResponse struct {
	Success    bool                          `json:"success"`
	Data       []table.DisplayRow            `json:"data"`
	CountRisk  map[string]models.RiskProfile `json:"count_risk"`
	Pagination utils.Pagination              `json:"pagination"`
}

type editRequest struct {
	Match models.Submission `json:"match"`
}

type editResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Match   table.DisplayRow `json:"match"`
	Action  string           `json:"action"`
	Risk    models.RiskDelta `json:"risk"`
}

type deleteRequest struct {
	ID int64 `json:"id"`
}

type deleteResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Risk    models.RiskDelta `json:"risk"`
}

// ListRecords serves one rendered page of the moderation table.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.List(r.Context(), req.Page, req.Limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list records")
		utils.RespondError(w, http.StatusInternalServerError, "Failed to list records")
		return
	}

	resp := listResponse{
		Success:    true,
		Data:       make([]table.DisplayRow, 0, len(result.Rows)),
		CountRisk:  result.Profiles,
		Pagination: result.Pagination,
	}
	for _, row := range result.Rows {
		resp.Data = append(resp.Data, h.renderer.Render(row, result.Profiles))
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// SaveRecord creates or edits a record from a packed submission.
func (h *Handler) SaveRecord(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(submissionCheck(&req.Match)); err != nil {
		utils.RespondValidationError(w, utils.FormatValidationErrors(err))
		return
	}
	mode, ok := h.ref.ResolveMode(req.Match.Mode)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, h.ref.Messages.ModeUnknown)
		return
	}
	req.Match.Mode = mode

	result, err := h.service.Save(r.Context(), &req.Match)
	if err != nil {
		switch {
		case errors.Is(err, ErrRecordNotFound):
			utils.RespondError(w, http.StatusNotFound, h.ref.Messages.RecordNotFound)
		case errors.Is(err, ErrOperatorShielded):
			utils.RespondError(w, http.StatusForbidden, h.ref.Messages.OperatorShielded)
		case errors.Is(err, ErrNoImages):
			utils.RespondError(w, http.StatusBadRequest, h.ref.Messages.ImageRequired)
		default:
			log.Error().Err(err).Int64("id", req.Match.ID).Msg("Failed to save record")
			utils.RespondError(w, http.StatusInternalServerError, "Failed to save record")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, editResponse{
		Success: true,
		Message: h.ref.Messages.SaveSuccess,
		Match:   h.renderer.Render(result.Row, result.Delta),
		Action:  result.Action,
		Risk:    result.Delta,
	})
}

// DeleteRecord removes a record by id.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}

	delta, err := h.service.Delete(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			utils.RespondError(w, http.StatusNotFound, h.ref.Messages.RecordNotFound)
			return
		}
		log.Error().Err(err).Int64("id", req.ID).Msg("Failed to delete record")
		utils.RespondError(w, http.StatusInternalServerError, "Failed to delete record")
		return
	}

	utils.RespondJSON(w, http.StatusOK, deleteResponse{
		Success: true,
		Message: h.ref.Messages.DeleteSuccess,
		Risk:    delta,
	})
}

// submissionCheck flattens the fields the transport re-validates. The edit
// surface already validated everything interactively; this is the last line
// against hand-crafted requests. A create demands a target; edits of legacy
// rows stored without one may leave it empty.
func submissionCheck(sub *models.Submission) any {
	type common struct {
		Operator string `validate:"required,qqnum"`
		Mode     string `validate:"required"`
		Reason   string `validate:"required"`
		Time     string `validate:"required,actiontime"`
		Duration string `validate:"omitempty,logduration"`
		Group    string `validate:"omitempty,qqnum"`
	}
	c := common{
		Operator: sub.Operator.ID,
		Mode:     sub.Mode,
		Reason:   sub.Reason,
		Time:     sub.Time,
		Duration: sub.Duration,
		Group:    sub.Group.ID,
	}
	if sub.IsNew() {
		return struct {
			Target string `validate:"required,qqnum"`
			common
		}{sub.Target.ID, c}
	}
	return struct {
		Target string `validate:"omitempty,qqnum"`
		common
	}{sub.Target.ID, c}
}
