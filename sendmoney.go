// Package sendmoney exposes the schema-driven transfer form engine through a
// small façade: load a form document, drive a selection, submit transfers,
// and observe the persisted history.
package sendmoney

import (
	"fmt"

	"github.com/goliatone/go-sendmoney/pkg/engine"
	"github.com/goliatone/go-sendmoney/pkg/schema"
	"github.com/goliatone/go-sendmoney/pkg/session"
	"github.com/goliatone/go-sendmoney/pkg/store"
)

// Schema re-exports the immutable form tree.
type Schema = schema.Schema

// Service, Provider, Field, and Option mirror the schema tree nodes.
type (
	Service  = schema.Service
	Provider = schema.Provider
	Field    = schema.Field
	Option   = schema.Option
)

// LocalizedText is display text resolvable per active language with the
// en-then-empty fallback chain.
type LocalizedText = schema.LocalizedText

// Engine coordinates schema, validation, and persistence.
type Engine = engine.Engine

// SubmitRequest and SubmitResult are the submit pipeline's contract.
type (
	SubmitRequest = engine.SubmitRequest
	SubmitResult  = engine.SubmitResult
)

// Selection is the per-session state machine tracking the chosen service,
// provider, and in-progress field values.
type Selection = session.Selection

// Gate is the explicitly passed login-state object.
type Gate = session.Gate

// TransferRecord is one persisted, immutable submission.
type TransferRecord = store.TransferRecord

// LoadSchemaBytes parses a form document without constructing an engine.
func LoadSchemaBytes(raw []byte) (*Schema, error) {
	return schema.LoadBytes(raw)
}

// Open opens (or creates) the transfer store at path and builds an engine
// over it. Options are forwarded to the engine; the returned store must be
// closed by the caller when the engine is done.
func Open(path string, options ...engine.Option) (*Engine, *store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("sendmoney: %w", err)
	}
	return engine.New(st, options...), st, nil
}

// WithLogger, WithSessionGate, and WithClock re-export the engine options so
// callers only need this package for the common path.
var (
	WithLogger      = engine.WithLogger
	WithSessionGate = engine.WithSessionGate
	WithClock       = engine.WithClock
)
