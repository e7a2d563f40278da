package service

import "errors"

// Validation errors surfaced to the user; the dialogue stays where it was.
var (
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrUsage           = errors.New("not enough arguments")
)
