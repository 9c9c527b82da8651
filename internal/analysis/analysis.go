// Package analysis defines the narrow token-stream contract the write
// path consumes (spec.md §6) and a process-wide registry of analyzer
// constructors, mirroring how the original engine looks analyzers up by
// (type_name, options_json). Analyzers turn a field's raw byte value into
// a lazy sequence of tokens; they are stateless across documents after
// Reset.
package analysis

import (
	"encoding/json"
	"fmt"
	"sync"
)

// TokenStream is the lazy sequence of tokens an Analyzer produces for one
// field value. Next must be called before the first Term/attribute access,
// Lucene-iterator style.
type TokenStream interface {
	// Next advances to the next token, returning false when exhausted.
	Next() bool
	// Term returns the current token's byte content.
	Term() []byte
	// PositionIncrement returns how many positions to advance from the
	// previous token (normally 1; 0 for synonym-at-same-position tokens).
	PositionIncrement() int
	// Offset returns the [start, end) byte offsets of the token in the original field value.
	Offset() (start, end int)
	// Payload returns the current token's payload, or nil if none.
	Payload() []byte
}

// Analyzer is constructed once per field value via Reset, then driven
// through its TokenStream until exhausted.
type Analyzer interface {
	// Reset prepares the analyzer to tokenize data, discarding any prior state.
	Reset(data []byte) error
	// Tokens returns the token stream for the most recent Reset call.
	Tokens() TokenStream
}

// Constructor builds a new Analyzer instance from a raw JSON options blob.
type Constructor func(options json.RawMessage) (Analyzer, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register adds (or replaces) the constructor for typeName in the
// process-wide analyzer registry. Called from package init() by built-in
// analyzers, and by embedders registering custom ones.
func Register(typeName string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typeName] = ctor
}

// Get constructs a new Analyzer of the given type, using options as its
// raw JSON configuration.
func Get(typeName string, options json.RawMessage) (Analyzer, error) {
	registryMu.RLock()
	ctor, ok := registry[typeName]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("analysis: unknown analyzer type %q", typeName)
	}
	return ctor(options)
}

// Registered reports whether typeName has a registered constructor, for tests.
func Registered(typeName string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[typeName]
	return ok
}
