package http

import (
	"net/http"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/httpx"
	"github.com/opencivic/streetfix/pkg/slogx"
)

type UserInfoHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP returns the authenticated user's account.
//
//	@Summary		Get current user
//	@Description	Returns the public profile of the authenticated account.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	domain.PublicUser	"The authenticated account"
//	@Failure		401	{object}	APIError			"Invalid or missing access token"
//	@Router			/v1/auth/me [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.SessionService.GetUser(ctx, userID)
	if err != nil {
		log.Warn("failed to load user", "user_id", userID, "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user.Public())
}
