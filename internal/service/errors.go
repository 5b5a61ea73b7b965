package service

import "errors"

var (
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrWrongTokenType     = errors.New("invalid token type")
	ErrTokenRevoked       = errors.New("token revoked or not found")
)
