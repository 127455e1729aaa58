package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrSourceNotFound = errors.New("results source not found")
	ErrDecode         = errors.New("decode results source")
	ErrEncode         = errors.New("encode results source")
	ErrWrite          = errors.New("write results source")
	ErrUnsupported    = errors.New("unsupported source format")
)
