// Package auth keeps the set of editor session tokens.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// TokenBytes is the amount of randomness in a token before hex encoding.
const TokenBytes = 32

// Tokens issues and checks opaque session tokens.
type Tokens interface {
	// Issue creates and records a new token. When the store is full the
	// oldest token is revoked first.
	Issue(ctx context.Context) (string, error)

	// Valid reports whether token was issued and not yet revoked or evicted.
	Valid(ctx context.Context, token string) bool

	// Revoke forgets token. It reports whether the token was known.
	Revoke(ctx context.Context, token string) bool

	Size() int64
}

// node is an entry in the issue-order list.
type node struct {
	token      string
	prev, next *node
}

func (n *node) reset() {
	n.token = ""
	n.prev = nil
	n.next = nil
}

// inMemoryTokens keeps tokens in a map plus a doubly linked list in issue
// order, oldest at head. Nodes are recycled through a sync.Pool.
type inMemoryTokens struct {
	mu        sync.RWMutex
	byToken   map[string]*node
	head      *node // oldest
	tail      *node // newest
	maxTokens int   // 0 or negative = unbounded
	size      atomic.Int64
	nodePool  sync.Pool
	entropy   io.Reader
}

// NewInMemoryTokens creates a token store with configuration options.
func NewInMemoryTokens(opts ...Option) Tokens {
	t := &inMemoryTokens{
		maxTokens: 64,
		entropy:   rand.Reader,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.byToken = make(map[string]*node)
	t.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return t
}

func (t *inMemoryTokens) Issue(_ context.Context) (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(t.entropy, buf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenGeneration, err)
	}
	token := hex.EncodeToString(buf)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byToken[token]; exists {
		return "", ErrTokenGeneration
	}
	if t.maxTokens > 0 && len(t.byToken) >= t.maxTokens {
		t.evictOldest()
	}

	n := t.nodePool.Get().(*node)
	n.token = token
	t.pushBack(n)
	t.byToken[token] = n
	t.size.Add(1)
	return token, nil
}

func (t *inMemoryTokens) Valid(_ context.Context, token string) bool {
	if token == "" {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byToken[token]
	return ok
}

func (t *inMemoryTokens) Revoke(_ context.Context, token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.byToken[token]
	if !ok {
		return false
	}
	t.remove(n)
	return true
}

func (t *inMemoryTokens) Size() int64 {
	return t.size.Load()
}

// pushBack appends n as the newest entry. Must be called with t.mu held.
func (t *inMemoryTokens) pushBack(n *node) {
	n.prev = t.tail
	n.next = nil
	if t.tail != nil {
		t.tail.next = n
	} else {
		t.head = n
	}
	t.tail = n
}

// remove unlinks n, forgets its token and recycles it. Must be called with t.mu held.
func (t *inMemoryTokens) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		t.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		t.tail = n.prev
	}
	delete(t.byToken, n.token)
	n.reset()
	t.nodePool.Put(n)
	t.size.Add(-1)
}

// evictOldest drops the head of the list. Must be called with t.mu held.
func (t *inMemoryTokens) evictOldest() {
	if t.head != nil {
		t.remove(t.head)
	}
}
