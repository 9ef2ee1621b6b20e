package http

import (
	"encoding/json"
	"net/http"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/httpx"
	"github.com/opencivic/streetfix/pkg/slogx"
)

type LoginHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP handles email/password login.
//
//	@Summary		Log in
//	@Description	Verifies credentials and starts a fresh session. Any previous session for the account is revoked.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	TokenResponse	"Session tokens"
//	@Failure		400		{object}	APIError		"Malformed body"
//	@Failure		401		{object}	APIError		"Invalid credentials"
//	@Failure		429		{object}	APIError		"Too many requests"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		ErrBadRequestBody.WriteError(w)
		return
	}

	pair, user, err := h.SessionService.Login(ctx, req.Email, req.Password)
	if err != nil {
		log.Info("login rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(pair, user))
}
