package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrAccountLocked      = errors.New("account temporarily locked")
)
