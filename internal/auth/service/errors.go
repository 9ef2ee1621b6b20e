package service

import (
	"errors"
	"fmt"
)

// Base error kinds. Handlers map these to HTTP statuses with errors.Is, so
// every flow-specific error below wraps exactly one of them.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not_found")
	ErrBadRequest   = errors.New("bad_request")
	ErrRateLimited  = errors.New("rate_limited")
)

var (
	// ErrInvalidCredentials covers unknown email, wrong password, and
	// accounts without a local password. Kept deliberately generic so login
	// responses do not reveal which case applied.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)

	ErrRefreshNotFound = fmt.Errorf("%w: refresh token not found", ErrUnauthorized)
	ErrRefreshRevoked  = fmt.Errorf("%w: refresh token revoked", ErrUnauthorized)
	ErrRefreshExpired  = fmt.Errorf("%w: refresh token expired", ErrUnauthorized)

	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)

	ErrResetCodeInvalid = fmt.Errorf("%w: invalid or expired reset code", ErrBadRequest)
	ErrResetRateLimited = fmt.Errorf("%w: too many reset requests", ErrRateLimited)
	ErrTokenUsed        = fmt.Errorf("%w: token already used", ErrBadRequest)
	ErrTokenExpired     = fmt.Errorf("%w: token expired", ErrBadRequest)
	ErrTokenNotFound    = fmt.Errorf("%w: token not found", ErrNotFound)
	ErrAlreadyVerified  = fmt.Errorf("%w: email already verified", ErrBadRequest)
	ErrWeakPassword     = fmt.Errorf("%w: password does not meet requirements", ErrBadRequest)
	ErrUserNotFound     = fmt.Errorf("%w: user not found", ErrNotFound)
)
