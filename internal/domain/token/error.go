package token

import (
	"errors"
	"fmt"
)

var (
	ErrMissing = errors.New("token missing")
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
	// ErrMalformed частный случай ErrInvalid: строку не удалось разобрать как JWT.
	ErrMalformed = fmt.Errorf("malformed: %w", ErrInvalid)
)
