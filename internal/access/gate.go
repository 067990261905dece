// Package access checks caller-supplied keys against a fixed allow-list.
package access

import (
	"crypto/subtle"
	"errors"
)

// Gate holds the allow-list. It is immutable after construction.
type Gate struct {
	keys [][]byte
}

// NewGate creates a Gate from the configured keys.
func NewGate(keys []string) (*Gate, error) {
	if len(keys) == 0 {
		return nil, errors.New("access: allow-list is empty")
	}
	g := &Gate{keys: make([][]byte, 0, len(keys))}
	for _, k := range keys {
		if k == "" {
			return nil, errors.New("access: empty key in allow-list")
		}
		g.keys = append(g.keys, []byte(k))
	}
	return g, nil
}

// Authorize reports whether a key was presented and exactly matches an
// allow-list entry. Missing and wrong keys are not distinguished.
func (g *Gate) Authorize(key string, present bool) bool {
	if !present {
		return false
	}
	k := []byte(key)
	ok := 0
	for _, want := range g.keys {
		ok |= subtle.ConstantTimeCompare(k, want)
	}
	return ok == 1
}

// Len returns the number of configured keys.
func (g *Gate) Len() int {
	return len(g.keys)
}
