package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidRequest = errors.New("invalid request")
	ErrValidation     = errors.New("validation error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternal       = errors.New("internal server error")

	ErrPublish        = errors.New("change publish failed")
	ErrSubscribe      = errors.New("change subscription failed")
	ErrMalformedEvent = errors.New("malformed change event")
	ErrChannelClosed  = errors.New("sync channel closed")
)
