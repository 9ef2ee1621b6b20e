package http

import (
	"encoding/json"
	"net/http"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/httpx"
	"github.com/opencivic/streetfix/pkg/slogx"
)

type PasswordResetHandler struct {
	ResetService *service.PasswordResetService
}

// HandleRequest starts the forgot-password flow.
//
//	@Summary		Request a password reset
//	@Description	Emails a short-lived numeric code to the address if an account exists. Always returns 200 for well-formed requests so the endpoint cannot be used to probe registered emails.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PasswordResetRequest	true	"Account email"
//	@Success		200		{object}	StatusResponse			"Reset code sent if the account exists"
//	@Failure		400		{object}	APIError				"Malformed body"
//	@Failure		429		{object}	APIError				"Too many reset requests"
//	@Router			/v1/auth/password-reset/request [post].
func (h *PasswordResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		ErrBadRequestBody.WriteError(w)
		return
	}

	if err := h.ResetService.Request(ctx, req.Email); err != nil {
		log.Info("password reset request rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleConfirm completes the forgot-password flow.
//
//	@Summary		Confirm a password reset
//	@Description	Consumes a valid reset code, sets the new password, and revokes every session for the account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PasswordResetConfirmRequest	true	"Reset code and new password"
//	@Success		200		{object}	StatusResponse				"Password reset"
//	@Failure		400		{object}	APIError					"Invalid, expired, or consumed code; weak password"
//	@Router			/v1/auth/password-reset/confirm [post].
func (h *PasswordResetHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" || req.NewPassword == "" {
		ErrBadRequestBody.WriteError(w)
		return
	}

	if err := h.ResetService.ResetPassword(ctx, req.Code, req.NewPassword); err != nil {
		log.Info("password reset confirm rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
