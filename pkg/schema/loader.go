package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformed marks documents that could not be parsed into a schema tree.
// Callers degrade to the empty schema when they see it; the failure is logged
// rather than surfaced as a retryable action.
var ErrMalformed = errors.New("schema: malformed document")

// Load parses a form document into the immutable Schema tree. JSON and YAML
// payloads are both accepted; the structurally polymorphic fields
// (placeholder, max_length, validation_error_message) may appear as strings,
// maps, or numbers and are normalized here, once, at load time.
func Load(doc Document) (*Schema, error) {
	s, err := LoadBytes(doc.Raw())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Location(), err)
	}
	return s, nil
}

// LoadFile reads and parses a form document from disk.
func LoadFile(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	doc, err := NewDocument(SourceFromFile(path), raw)
	if err != nil {
		return nil, err
	}
	return Load(doc)
}

// LoadFS reads and parses a form document from an fs.FS, the usual path for
// documents bundled with the binary.
func LoadFS(fsys fs.FS, name string) (*Schema, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", name, err)
	}
	doc, err := NewDocument(SourceFromFS(name), raw)
	if err != nil {
		return nil, err
	}
	return Load(doc)
}

type documentFile struct {
	Title    any           `json:"title" yaml:"title"`
	Services []serviceFile `json:"services" yaml:"services"`
}

type serviceFile struct {
	Name      string         `json:"name" yaml:"name"`
	Label     any            `json:"label" yaml:"label"`
	Providers []providerFile `json:"providers" yaml:"providers"`
}

type providerFile struct {
	ID             string      `json:"id" yaml:"id"`
	Name           string      `json:"name" yaml:"name"`
	RequiredFields []fieldFile `json:"required_fields" yaml:"required_fields"`
}

type fieldFile struct {
	Name            string       `json:"name" yaml:"name"`
	Label           any          `json:"label" yaml:"label"`
	Placeholder     any          `json:"placeholder" yaml:"placeholder"`
	Type            string       `json:"type" yaml:"type"`
	Options         []optionFile `json:"options" yaml:"options"`
	Validation      string       `json:"validation" yaml:"validation"`
	MaxLength       any          `json:"max_length" yaml:"max_length"`
	ValidationError any          `json:"validation_error_message" yaml:"validation_error_message"`
}

type optionFile struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
}

// LoadBytes parses a raw form document payload.
func LoadBytes(raw []byte) (*Schema, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: document is empty", ErrMalformed)
	}

	var doc documentFile
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	} else {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	return normalizeDocument(doc)
}

func normalizeDocument(doc documentFile) (*Schema, error) {
	title, err := displayText(doc.Title, "title")
	if err != nil {
		return nil, err
	}

	out := &Schema{Title: title}
	seenServices := make(map[string]struct{}, len(doc.Services))
	for i, svc := range doc.Services {
		name := strings.TrimSpace(svc.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: services[%d] has no name", ErrMalformed, i)
		}
		if _, dup := seenServices[name]; dup {
			return nil, fmt.Errorf("%w: duplicate service %q", ErrMalformed, name)
		}
		seenServices[name] = struct{}{}

		label, err := displayText(svc.Label, fmt.Sprintf("services[%d].label", i))
		if err != nil {
			return nil, err
		}

		service := Service{Name: name, Label: label}
		for j, prov := range svc.Providers {
			provider, err := normalizeProvider(prov, name, j)
			if err != nil {
				return nil, err
			}
			service.Providers = append(service.Providers, provider)
		}
		out.Services = append(out.Services, service)
	}

	return out, nil
}

func normalizeProvider(prov providerFile, serviceName string, index int) (Provider, error) {
	if strings.TrimSpace(prov.Name) == "" {
		return Provider{}, fmt.Errorf("%w: service %q providers[%d] has no name", ErrMalformed, serviceName, index)
	}

	provider := Provider{ID: prov.ID, Name: prov.Name}
	seenFields := make(map[string]struct{}, len(prov.RequiredFields))
	for i, f := range prov.RequiredFields {
		field, err := normalizeField(f, prov.Name, i)
		if err != nil {
			return Provider{}, err
		}
		if _, dup := seenFields[field.Name]; dup {
			return Provider{}, fmt.Errorf("%w: provider %q declares field %q twice", ErrMalformed, prov.Name, field.Name)
		}
		seenFields[field.Name] = struct{}{}
		provider.RequiredFields = append(provider.RequiredFields, field)
	}

	return provider, nil
}

func normalizeField(f fieldFile, providerName string, index int) (Field, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return Field{}, fmt.Errorf("%w: provider %q required_fields[%d] has no name", ErrMalformed, providerName, index)
	}

	label, err := displayText(f.Label, fmt.Sprintf("field %q label", name))
	if err != nil {
		return Field{}, err
	}
	placeholder, err := displayText(f.Placeholder, fmt.Sprintf("field %q placeholder", name))
	if err != nil {
		return Field{}, err
	}
	validationError, err := displayText(f.ValidationError, fmt.Sprintf("field %q validation_error_message", name))
	if err != nil {
		return Field{}, err
	}

	field := Field{
		Name:            name,
		Label:           label,
		Placeholder:     placeholder,
		Type:            fieldType(f.Type),
		Validation:      strings.TrimSpace(f.Validation),
		MaxLength:       coerceInt(f.MaxLength),
		ValidationError: validationError,
	}

	seenOptions := make(map[string]struct{}, len(f.Options))
	for _, opt := range f.Options {
		if strings.TrimSpace(opt.Name) == "" {
			return Field{}, fmt.Errorf("%w: field %q has an option without a name", ErrMalformed, name)
		}
		if _, dup := seenOptions[opt.Name]; dup {
			return Field{}, fmt.Errorf("%w: field %q declares option %q twice", ErrMalformed, name, opt.Name)
		}
		seenOptions[opt.Name] = struct{}{}
		field.Options = append(field.Options, Option{
			Name:  opt.Name,
			Label: sanitizeDisplay(opt.Label),
		})
	}

	return field, nil
}

func fieldType(raw string) FieldType {
	switch FieldType(strings.TrimSpace(raw)) {
	case FieldTypeNumber:
		return FieldTypeNumber
	case FieldTypeMSISDN:
		return FieldTypeMSISDN
	case FieldTypeOption:
		return FieldTypeOption
	default:
		return FieldTypeText
	}
}

// displayText parses a string-or-map value and sanitizes every display string
// it carries.
func displayText(value any, context string) (LocalizedText, error) {
	text, err := ParseLocalizedText(value)
	if err != nil {
		return LocalizedText{}, fmt.Errorf("%w: %s: %v", ErrMalformed, context, err)
	}
	return text.mapped(sanitizeDisplay), nil
}

// coerceInt normalizes the max_length value: integers pass through, floats
// truncate toward zero, numeric strings parse, anything else defaults to 0
// (unbounded).
func coerceInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(math.Trunc(v))
	case float32:
		return int(math.Trunc(float64(v)))
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return parsed
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0
		}
		return int(math.Trunc(parsed))
	default:
		return 0
	}
}
