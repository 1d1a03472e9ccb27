package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/curator/console/internal/middleware"
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

	// Public routes (with strict rate limiting)
	r.Group(func(r chi.Router) {
		r.Use(middleware.StrictRateLimitMiddleware(10))
		r.Post("/enroll", h.Enroll)
		r.Post("/login", h.Login)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Get("/whoami", h.Whoami)
		r.Post("/logout", h.Logout)
		r.Post("/change-password", h.ChangePassword)

		// 2FA routes
		r.Post("/2fa/enable", h.Enable2FA)
		r.Post("/2fa/verify", h.Verify2FA)
		r.Post("/2fa/disable", h.Disable2FA)
	})

	return r
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(&req); err != nil {
		utils.RespondValidationError(w, utils.FormatValidationErrors(err))
		return
	}

	if err := h.service.Enroll(r.Context(), &req); err != nil {
		switch err {
		case ErrNotOperator:
			utils.RespondErrorWithCode(w, http.StatusForbidden, "NOT_OPERATOR", "Not an active operator")
		case ErrAlreadyEnrolled:
			utils.RespondErrorWithCode(w, http.StatusConflict, "ALREADY_ENROLLED", "Operator already enrolled")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to enroll operator")
		}
		return
	}

	utils.RespondMessage(w, "Operator enrolled")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(&req); err != nil {
		utils.RespondValidationError(w, utils.FormatValidationErrors(err))
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		switch err {
		case ErrNotOperator:
			utils.RespondErrorWithCode(w, http.StatusForbidden, "NOT_OPERATOR", "Not an active operator")
		case ErrInvalidCredentials:
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid operator id or password")
		case ErrInvalid2FA:
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "INVALID_2FA", "Invalid 2FA code")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	if resp.Token != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     "console_session",
			Value:    resp.Token,
			Path:     "/",
			Expires:  resp.ExpiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	utils.RespondSuccess(w, resp)
}

func (h *Handler) Whoami(w http.ResponseWriter, r *http.Request) {
	operatorID, err := middleware.RequireAuth(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	utils.RespondSuccess(w, h.service.Whoami(operatorID))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAuth(r.Context()); err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "console_session",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	utils.RespondNoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	operatorID, err := middleware.RequireAuth(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(&req); err != nil {
		utils.RespondValidationError(w, utils.FormatValidationErrors(err))
		return
	}

	if err := h.service.ChangePassword(r.Context(), operatorID, req.CurrentPassword, req.NewPassword); err != nil {
		switch err {
		case ErrInvalidCredentials:
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "INVALID_PASSWORD", "Current password is incorrect")
		case ErrNotEnrolled:
			utils.RespondErrorWithCode(w, http.StatusNotFound, "NOT_ENROLLED", "Operator not enrolled")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to change password")
		}
		return
	}

	utils.RespondMessage(w, "Password changed successfully. Please login again.")
}

func (h *Handler) Enable2FA(w http.ResponseWriter, r *http.Request) {
	operatorID, err := middleware.RequireAuth(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	resp, err := h.service.Enable2FA(r.Context(), operatorID)
	if err != nil {
		if err == ErrNotEnrolled {
			utils.RespondErrorWithCode(w, http.StatusNotFound, "NOT_ENROLLED", "Operator not enrolled")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "Failed to enable 2FA")
		return
	}

	utils.RespondSuccess(w, resp)
}

func (h *Handler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	operatorID, err := middleware.RequireAuth(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Code string `json:"code" validate:"required,len=6"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Verify2FA(r.Context(), operatorID, req.Code); err != nil {
		switch err {
		case ErrInvalid2FA:
			utils.RespondErrorWithCode(w, http.StatusBadRequest, "INVALID_CODE", "Invalid verification code")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to verify 2FA")
		}
		return
	}

	utils.RespondMessage(w, "2FA enabled successfully")
}

func (h *Handler) Disable2FA(w http.ResponseWriter, r *http.Request) {
	operatorID, err := middleware.RequireAuth(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Password string `json:"password" validate:"required"`
		Code     string `json:"code" validate:"required,len=6"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Disable2FA(r.Context(), operatorID, req.Password, req.Code); err != nil {
		switch err {
		case ErrInvalidCredentials:
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, "INVALID_PASSWORD", "Password is incorrect")
		case ErrInvalid2FA:
			utils.RespondErrorWithCode(w, http.StatusBadRequest, "INVALID_CODE", "Invalid 2FA code")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "Failed to disable 2FA")
		}
		return
	}

	utils.RespondMessage(w, "2FA disabled successfully")
}
