package auth

import "errors"

var (
	ErrInvalidToken    = errors.New("auth: invalid token")
	ErrInvalidInput    = errors.New("auth: invalid input")
	ErrBadCredentials  = errors.New("auth: bad credentials")
	ErrMissingSecret   = errors.New("auth: secret is not configured")
	ErrPasswordEmpty   = errors.New("auth: password is empty")
	ErrPasswordMissing = errors.New("auth: password hash is empty")
)
