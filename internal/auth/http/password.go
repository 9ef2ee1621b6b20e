package http

import (
	"encoding/json"
	"net/http"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/httpx"
	"github.com/opencivic/streetfix/pkg/slogx"
)

type PasswordHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP changes the authenticated user's password.
//
//	@Summary		Change password
//	@Description	Verifies the current password, stores the new one, and revokes every session.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChangePasswordRequest	true	"Current and new password"
//	@Success		200		{object}	StatusResponse			"Password changed, all sessions revoked"
//	@Failure		400		{object}	APIError				"Malformed body or weak password"
//	@Failure		401		{object}	APIError				"Invalid token or wrong current password"
//	@Router			/v1/auth/password [post].
func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		ErrInvalidToken.WriteError(w)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		ErrBadRequestBody.WriteError(w)
		return
	}

	if err := h.SessionService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		log.Info("password change rejected", "user_id", userID, "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
