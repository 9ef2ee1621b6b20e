package http

import (
	"encoding/json"
	"net/http"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/httpx"
	"github.com/opencivic/streetfix/pkg/slogx"
)

type RegisterHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP handles new account registration.
//
//	@Summary		Register a new account
//	@Description	Creates a citizen account, starts a session, and emails a verification link.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Account details"
//	@Success		201		{object}	TokenResponse	"Session tokens and the new account"
//	@Failure		400		{object}	APIError		"Malformed body or weak password"
//	@Failure		409		{object}	APIError		"Email already registered"
//	@Failure		429		{object}	APIError		"Too many requests"
//	@Router			/v1/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		ErrBadRequestBody.WriteError(w)
		return
	}

	pair, user, err := h.SessionService.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		log.Info("registration rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newTokenResponse(pair, user))
}
