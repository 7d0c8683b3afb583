package schema

// FieldType is the enum of form-friendly input kinds the engine renders.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeMSISDN FieldType = "msisdn"
	FieldTypeOption FieldType = "option"
)

// TextLike reports whether the field type collects free text input. Unknown
// types from newer documents degrade to text handling.
func (t FieldType) TextLike() bool {
	return t != FieldTypeOption
}

// Schema is the root of the immutable form tree: a localized title plus the
// ordered list of services. It is loaded once per process and shared read-only
// between the selection state machine and the submit pipeline.
type Schema struct {
	Title    LocalizedText
	Services []Service
}

// Empty reports whether the schema carries no services. A process that failed
// to load its form document operates against the empty schema.
func (s *Schema) Empty() bool {
	return s == nil || len(s.Services) == 0
}

// Service looks up a service by its stable name key.
func (s *Schema) Service(name string) (Service, bool) {
	if s == nil {
		return Service{}, false
	}
	for _, svc := range s.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return Service{}, false
}

// Service groups the providers a user can route a transfer through. Name is
// the stable identifier persisted into records; Label is display-only and
// resolved per active language at render time.
type Service struct {
	Name      string
	Label     LocalizedText
	Providers []Provider
}

// Provider looks up a provider by id within the service.
func (s Service) Provider(id string) (Provider, bool) {
	for _, p := range s.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// Provider is one concrete transfer destination with the ordered inputs it
// requires.
type Provider struct {
	ID             string
	Name           string
	RequiredFields []Field
}

// Field describes a single input a provider requires. MaxLength of 0 means
// unbounded; truncation only applies to fields that declare a positive limit.
type Field struct {
	Name            string
	Label           LocalizedText
	Placeholder     LocalizedText
	Type            FieldType
	Options         []Option
	Validation      string
	MaxLength       int
	ValidationError LocalizedText
}

// Option is a selectable choice for option-typed fields; Name is the stored
// value, Label the display string.
type Option struct {
	Name  string
	Label string
}

// Option looks up an option by its stored name.
func (f Field) Option(name string) (Option, bool) {
	for _, opt := range f.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return Option{}, false
}

// Truncate clips input to the field's declared maximum length, counting
// runes so multi-byte text is not split. Fields without a limit pass input
// through unchanged.
func (f Field) Truncate(input string) string {
	if f.MaxLength <= 0 {
		return input
	}
	runes := []rune(input)
	if len(runes) <= f.MaxLength {
		return input
	}
	return string(runes[:f.MaxLength])
}
