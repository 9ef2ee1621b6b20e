package http

import (
	"encoding/json"
	"net/http"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/httpx"
	"github.com/opencivic/streetfix/pkg/slogx"
)

type VerificationHandler struct {
	VerificationService *service.VerificationService
}

// HandleVerify redeems an emailed verification token.
//
//	@Summary		Verify email address
//	@Description	Consumes a verification token and marks the account's email as verified.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VerifyEmailRequest	true	"Verification token"
//	@Success		200		{object}	domain.PublicUser	"The verified account"
//	@Failure		400		{object}	APIError			"Token already used or expired"
//	@Failure		404		{object}	APIError			"Unknown token"
//	@Router			/v1/auth/verify-email [post].
func (h *VerificationHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		ErrBadRequestBody.WriteError(w)
		return
	}

	user, err := h.VerificationService.Verify(ctx, req.Token)
	if err != nil {
		log.Info("email verification rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user.Public())
}

// HandleResend issues a fresh verification email.
//
//	@Summary		Resend verification email
//	@Description	Sends a new verification token to an unverified account. Unknown addresses return 200 so the endpoint cannot be used to probe registered emails.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResendVerificationRequest	true	"Account email"
//	@Success		200		{object}	StatusResponse				"Email sent if an unverified account exists"
//	@Failure		400		{object}	APIError					"Malformed body or already verified"
//	@Router			/v1/auth/verify-email/resend [post].
func (h *VerificationHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		ErrBadRequestBody.WriteError(w)
		return
	}

	if err := h.VerificationService.Resend(ctx, req.Email); err != nil {
		log.Info("verification resend rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
