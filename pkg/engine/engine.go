// Package engine wires the schema, validator, and store into the submit and
// history flows a host UI drives. It owns the process-wide schema lifecycle:
// loaded once, shared read-only, degrading to the empty schema when the
// bundled document is malformed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-sendmoney/pkg/schema"
	"github.com/goliatone/go-sendmoney/pkg/session"
	"github.com/goliatone/go-sendmoney/pkg/store"
	"github.com/goliatone/go-sendmoney/pkg/validation"
)

// ErrSessionInactive is returned when a session gate is configured and no
// session is established.
var ErrSessionInactive = errors.New("engine: session is not active")

// Well-known field names the record derivation pulls from the value map.
const (
	FieldAmount        = "amount"
	FieldBankAccount   = "bank_account_number"
	FieldMSISDN        = "msisdn"
	FieldFirstName     = "firstname"
	FieldLastName      = "lastname"
	FieldGender        = "gender"
	FieldProvinceState = "province_state"
)

// Engine coordinates the form core. Construct one per process with New.
type Engine struct {
	store *store.Store
	gate  *session.Gate
	log   zerolog.Logger
	now   func() time.Time

	mu     sync.RWMutex
	schema *schema.Schema
}

// New builds an engine over an open store. The schema starts empty; call one
// of the LoadSchema variants (typically from a startup goroutine) to populate
// it.
func New(st *store.Store, options ...Option) *Engine {
	e := &Engine{
		store:  st,
		log:    zerolog.Nop(),
		now:    time.Now,
		schema: &schema.Schema{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Schema returns the currently loaded schema. It is never nil: before the
// load resolves (or after a malformed document) it is the empty schema, and
// hosts render the degenerate no-services state.
func (e *Engine) Schema() *schema.Schema {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.schema
}

// NewSelection builds a selection state machine over the current schema.
func (e *Engine) NewSelection(language string) *session.Selection {
	return session.NewSelection(e.Schema(), language)
}

// LoadSchemaBytes parses a form document and installs it. A malformed
// document is logged and leaves the empty schema in place; the error is
// returned for hosts that want to report it, but the engine stays usable.
func (e *Engine) LoadSchemaBytes(raw []byte) error {
	s, err := schema.LoadBytes(raw)
	if err != nil {
		e.log.Error().Err(err).Msg("form document rejected, continuing with empty schema")
		return err
	}

	e.mu.Lock()
	e.schema = s
	e.mu.Unlock()

	e.log.Info().Int("services", len(s.Services)).Msg("form schema loaded")
	return nil
}

// LoadSchemaFile loads the form document from disk.
func (e *Engine) LoadSchemaFile(path string) error {
	s, err := schema.LoadFile(path)
	if err != nil {
		e.log.Error().Err(err).Str("path", path).Msg("form document rejected, continuing with empty schema")
		return err
	}

	e.mu.Lock()
	e.schema = s
	e.mu.Unlock()

	e.log.Info().Str("path", path).Int("services", len(s.Services)).Msg("form schema loaded")
	return nil
}

// LoadSchemaFS loads the form document from a bundled fs.FS asset.
func (e *Engine) LoadSchemaFS(fsys fs.FS, name string) error {
	s, err := schema.LoadFS(fsys, name)
	if err != nil {
		e.log.Error().Err(err).Str("asset", name).Msg("form document rejected, continuing with empty schema")
		return err
	}

	e.mu.Lock()
	e.schema = s
	e.mu.Unlock()

	e.log.Info().Str("asset", name).Int("services", len(s.Services)).Msg("form schema loaded")
	return nil
}

// SubmitRequest carries everything the submit pipeline needs: the selected
// service and provider, the captured field values, and the active language
// used to localize error messages and the persisted service label.
type SubmitRequest struct {
	Service  schema.Service
	Provider schema.Provider
	Values   map[string]string
	Language string
}

// SubmitResult reports either acceptance with the persisted record or
// rejection with every failing field's message, in declaration order.
type SubmitResult struct {
	Accepted bool
	Record   store.TransferRecord
	Errors   []string
}

// Submit validates every required field of the selected provider in
// declaration order, collecting all failures. When everything passes it
// derives a transfer record and writes it; exactly one row on success, none
// on rejection. A storage failure propagates to the caller unretried.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if err := e.checkGate(); err != nil {
		return SubmitResult{}, err
	}

	var failures []string
	for _, field := range req.Provider.RequiredFields {
		res := validation.Validate(field, req.Values[field.Name], req.Language)
		if !res.OK {
			failures = append(failures, res.Message)
		}
	}
	if len(failures) > 0 {
		e.log.Debug().Int("errors", len(failures)).Str("provider", req.Provider.Name).Msg("submission rejected")
		return SubmitResult{Errors: failures}, nil
	}

	record := e.deriveRecord(req)
	id, err := e.store.Insert(ctx, record)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("engine: persist transfer: %w", err)
	}
	record.ID = id

	e.log.Info().
		Int64("id", id).
		Str("service", record.ServiceKey).
		Str("provider", record.ProviderName).
		Float64("amount", record.Amount).
		Msg("transfer recorded")
	return SubmitResult{Accepted: true, Record: record}, nil
}

// SubmitSelection is a convenience wrapper that submits the state machine's
// current selection.
func (e *Engine) SubmitSelection(ctx context.Context, sel *session.Selection) (SubmitResult, error) {
	svc, ok := sel.Service()
	if !ok {
		return SubmitResult{}, errors.New("engine: no service selected")
	}
	prov, ok := sel.Provider()
	if !ok {
		return SubmitResult{}, errors.New("engine: no provider selected")
	}
	return e.Submit(ctx, SubmitRequest{
		Service:  svc,
		Provider: prov,
		Values:   sel.Values(),
		Language: sel.Language(),
	})
}

// deriveRecord maps the raw field values onto the persisted row. The service
// label is a snapshot of the localized resolution at submission time, falling
// back to the raw service name when no label resolves.
func (e *Engine) deriveRecord(req SubmitRequest) store.TransferRecord {
	label := req.Service.Label.Resolve(req.Language)
	if label == "" {
		label = req.Service.Name
	}

	amount := 0.0
	if raw, ok := req.Values[FieldAmount]; ok {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			amount = parsed
		}
	}

	account := optional(req.Values, FieldBankAccount)
	if account == nil {
		account = optional(req.Values, FieldMSISDN)
	}

	return store.TransferRecord{
		ServiceKey:      req.Service.Name,
		ServiceLabel:    label,
		ProviderName:    req.Provider.Name,
		Amount:          amount,
		AccountOrMSISDN: account,
		FirstName:       optional(req.Values, FieldFirstName),
		LastName:        optional(req.Values, FieldLastName),
		Gender:          optional(req.Values, FieldGender),
		ProvinceState:   optional(req.Values, FieldProvinceState),
		CreatedAt:       e.now().UnixMilli(),
	}
}

func optional(values map[string]string, key string) *string {
	value, ok := values[key]
	if !ok {
		return nil
	}
	return &value
}

// DeleteTransfer removes one persisted transfer; deleting an unknown id is a
// no-op.
func (e *Engine) DeleteTransfer(ctx context.Context, id int64) error {
	if err := e.checkGate(); err != nil {
		return err
	}
	return e.store.Delete(ctx, id)
}

// History exposes the store's live queries behind the session gate.
func (e *Engine) History() (*History, error) {
	if err := e.checkGate(); err != nil {
		return nil, err
	}
	return &History{store: e.store}, nil
}

func (e *Engine) checkGate() error {
	if e.gate != nil && !e.gate.Active() {
		return ErrSessionInactive
	}
	return nil
}

// History is the query surface for the transfer history view.
type History struct {
	store *store.Store
}

// ObserveAll registers a live query over every transfer, newest first.
func (h *History) ObserveAll(ctx context.Context, fn store.RecordsFunc) (*store.Subscription, error) {
	return h.store.ObserveAll(ctx, fn)
}

// ObserveFiltered registers a live query with a service filter and free-text
// search, per the store's filter contract.
func (h *History) ObserveFiltered(ctx context.Context, serviceFilter *string, query string, fn store.RecordsFunc) (*store.Subscription, error) {
	return h.store.ObserveFiltered(ctx, serviceFilter, query, fn)
}

// ObserveDistinctServices registers a live projection of the service labels
// present in the table.
func (h *History) ObserveDistinctServices(ctx context.Context, fn store.ServicesFunc) (*store.Subscription, error) {
	return h.store.ObserveDistinctServices(ctx, fn)
}
