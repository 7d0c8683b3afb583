package session

import (
	"fmt"

	"github.com/goliatone/go-sendmoney/pkg/schema"
	"github.com/goliatone/go-sendmoney/pkg/validation"
)

// Selection tracks which service and provider are currently chosen plus the
// live map of field name → entered value. It is owned by a single interactive
// session and is not safe for concurrent use; hosts drive it from one
// goroutine the same way a UI drives its view state.
type Selection struct {
	schema   *schema.Schema
	language string

	service  *schema.Service
	provider *schema.Provider

	values map[string]string
	errors map[string]bool
}

// NewSelection builds the state machine for a loaded schema and auto-selects
// the first service and its first provider, seeding option defaults. A schema
// with no services yields the degenerate no-selection state; SetSchema can
// upgrade it once the document resolves.
func NewSelection(s *schema.Schema, language string) *Selection {
	sel := &Selection{
		language: language,
		values:   make(map[string]string),
		errors:   make(map[string]bool),
	}
	sel.SetSchema(s)
	return sel
}

// SetSchema swaps in a newly loaded schema. Consumers start against the empty
// schema while the document loads asynchronously; the first non-empty schema
// triggers the initial auto-selection.
func (sel *Selection) SetSchema(s *schema.Schema) {
	sel.schema = s
	sel.service = nil
	sel.provider = nil
	sel.reset()

	if s == nil || len(s.Services) == 0 {
		return
	}

	svc := s.Services[0]
	sel.service = &svc
	if len(svc.Providers) > 0 {
		prov := svc.Providers[0]
		sel.provider = &prov
	}
	sel.seedOptionDefaults()
}

// SetLanguage switches the language used to localize validation feedback.
// Entered values are untouched.
func (sel *Selection) SetLanguage(language string) {
	sel.language = language
}

// Language returns the active language code.
func (sel *Selection) Language() string {
	return sel.language
}

// Service returns the selected service, if any.
func (sel *Selection) Service() (schema.Service, bool) {
	if sel.service == nil {
		return schema.Service{}, false
	}
	return *sel.service, true
}

// Provider returns the selected provider, if any.
func (sel *Selection) Provider() (schema.Provider, bool) {
	if sel.provider == nil {
		return schema.Provider{}, false
	}
	return *sel.provider, true
}

// SelectService switches to the named service, resets the provider to the
// service's first entry, clears every entered value, and re-seeds option
// defaults for the new provider.
func (sel *Selection) SelectService(name string) error {
	if sel.schema == nil {
		return fmt.Errorf("session: no schema loaded")
	}
	svc, ok := sel.schema.Service(name)
	if !ok {
		return fmt.Errorf("session: unknown service %q", name)
	}

	sel.service = &svc
	sel.provider = nil
	if len(svc.Providers) > 0 {
		prov := svc.Providers[0]
		sel.provider = &prov
	}
	sel.reset()
	sel.seedOptionDefaults()
	return nil
}

// SelectProvider switches to another provider of the selected service,
// clearing entered values and re-seeding option defaults.
func (sel *Selection) SelectProvider(id string) error {
	if sel.service == nil {
		return fmt.Errorf("session: no service selected")
	}
	prov, ok := sel.service.Provider(id)
	if !ok {
		return fmt.Errorf("session: service %q has no provider %q", sel.service.Name, id)
	}

	sel.provider = &prov
	sel.reset()
	sel.seedOptionDefaults()
	return nil
}

// SetValue records input for one of the selected provider's fields. Text-like
// input is truncated to the field's max length before being stored, and the
// per-field error flag is recomputed from the pattern rule alone; emptiness
// is deferred to submit time. Option input stores the chosen option name
// directly and must name one of the field's options.
func (sel *Selection) SetValue(fieldName, input string) error {
	field, ok := sel.field(fieldName)
	if !ok {
		return fmt.Errorf("session: selected provider has no field %q", fieldName)
	}

	if field.Type == schema.FieldTypeOption {
		if _, ok := field.Option(input); !ok {
			return fmt.Errorf("session: field %q has no option %q", fieldName, input)
		}
		sel.values[field.Name] = input
		sel.errors[field.Name] = false
		return nil
	}

	truncated := field.Truncate(input)
	sel.values[field.Name] = truncated
	sel.errors[field.Name] = !validation.MatchPattern(field, truncated, sel.language).OK
	return nil
}

// Value returns the entered value for a field, if any.
func (sel *Selection) Value(fieldName string) (string, bool) {
	value, ok := sel.values[fieldName]
	return value, ok
}

// Values returns a copy of the live field-value map.
func (sel *Selection) Values() map[string]string {
	out := make(map[string]string, len(sel.values))
	for name, value := range sel.values {
		out[name] = value
	}
	return out
}

// FieldError reports the in-progress pattern error flag for a field.
func (sel *Selection) FieldError(fieldName string) bool {
	return sel.errors[fieldName]
}

func (sel *Selection) field(name string) (schema.Field, bool) {
	if sel.provider == nil {
		return schema.Field{}, false
	}
	for _, f := range sel.provider.RequiredFields {
		if f.Name == name {
			return f, true
		}
	}
	return schema.Field{}, false
}

func (sel *Selection) reset() {
	sel.values = make(map[string]string)
	sel.errors = make(map[string]bool)
}

// seedOptionDefaults pre-fills every option field of the selected provider
// with its first option so the selection is never empty or stale.
func (sel *Selection) seedOptionDefaults() {
	if sel.provider == nil {
		return
	}
	for _, field := range sel.provider.RequiredFields {
		if field.Type == schema.FieldTypeOption && len(field.Options) > 0 {
			sel.values[field.Name] = field.Options[0].Name
		}
	}
}
