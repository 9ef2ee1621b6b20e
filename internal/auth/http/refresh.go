package http

import (
	"encoding/json"
	"net/http"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/httpx"
)

type RefreshHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP exchanges a refresh token for a fresh access token.
//
//	@Summary		Refresh access token
//	@Description	Returns a new access token for a live refresh token. The refresh token is not rotated.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	TokenResponse	"Fresh session tokens"
//	@Failure		400		{object}	APIError		"Malformed body"
//	@Failure		401		{object}	APIError		"Unknown, revoked, or expired refresh token"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		ErrBadRequestBody.WriteError(w)
		return
	}

	pair, err := h.SessionService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	})
}
