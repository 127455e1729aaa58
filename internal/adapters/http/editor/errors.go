package editor

import "errors"

// Sentinel errors for editor requests.
var (
	ErrUnauthorized = errors.New("not authorized")
	ErrLoginFailed  = errors.New("login failed")
	ErrThrottled    = errors.New("too many login attempts")
	ErrBadDocument  = errors.New("invalid document")
	ErrSave         = errors.New("save failed")
)
