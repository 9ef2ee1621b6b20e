package http

import (
	"encoding/json"
	"net/http"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/httpx"
	"github.com/opencivic/streetfix/pkg/slogx"
)

type LogoutHandler struct {
	SessionService *service.SessionService
}

// HandleLogout revokes a single refresh token.
//
//	@Summary		Log out
//	@Description	Revokes the presented refresh token. Succeeds even if the token is unknown or already revoked.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LogoutRequest	true	"Refresh token to revoke"
//	@Success		200		{object}	StatusResponse	"Session ended"
//	@Failure		400		{object}	APIError		"Malformed body"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		ErrBadRequestBody.WriteError(w)
		return
	}

	if err := h.SessionService.Logout(ctx, req.RefreshToken); err != nil {
		log.Error("logout failed", "err", err)
		ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleLogoutAll revokes every session for the authenticated user.
//
//	@Summary		Log out everywhere
//	@Description	Revokes every refresh token belonging to the authenticated user.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	StatusResponse	"All sessions ended"
//	@Failure		401	{object}	APIError		"Invalid or missing access token"
//	@Router			/v1/auth/logout-all [post].
func (h *LogoutHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.SessionService.LogoutAll(ctx, userID); err != nil {
		log.Error("logout-all failed", "user_id", userID, "err", err)
		ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
