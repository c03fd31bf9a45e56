package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrQuotaExhausted  = errors.New("quota exhausted")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrUpstreamBusy    = errors.New("upstream busy")
)
