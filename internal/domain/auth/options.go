package auth

import "io"

// Option applies a configuration option to the in-memory token store.
type Option func(*inMemoryTokens)

// WithMaxTokens bounds the number of live tokens.
// If max > 0: issuing past the bound evicts the oldest token.
// If max <= 0: unbounded.
func WithMaxTokens(max int) Option {
	return func(t *inMemoryTokens) {
		t.maxTokens = max
	}
}

// WithEntropy replaces crypto/rand as the token source.
func WithEntropy(r io.Reader) Option {
	return func(t *inMemoryTokens) {
		if r != nil {
			t.entropy = r
		}
	}
}
