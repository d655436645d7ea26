package domain

import "errors"

var (
	ErrNetwork           = errors.New("network error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrEmptySeries       = errors.New("empty forecast series")
	ErrValidation        = errors.New("validation error")

	ErrNotEnoughData = errors.New("not enough data to forecast")
	ErrNoHistory     = errors.New("no price history")
)
