package auth

import "errors"

// ErrTokenGeneration is returned when a fresh token cannot be produced.
var ErrTokenGeneration = errors.New("token generation failed")
