package schema

import (
	"fmt"
	"sort"
)

// FallbackLanguage is the language code every lookup falls back to before
// resolving to the empty string.
const FallbackLanguage = "en"

// LocalizedText models display text that arrives either as a plain string or
// as a language-code → string mapping. The variant is decided once, when the
// source document is parsed, and resolution follows the same fallback chain
// everywhere: requested language, then "en", then "".
type LocalizedText struct {
	plain     string
	localized map[string]string
	isPlain   bool
	present   bool
}

// PlainText wraps a verbatim string that ignores the active language.
func PlainText(value string) LocalizedText {
	return LocalizedText{plain: value, isPlain: true, present: true}
}

// LocalizedMap wraps a language-code → string mapping. The map is copied so
// the text stays immutable alongside the rest of the schema tree.
func LocalizedMap(values map[string]string) LocalizedText {
	clone := make(map[string]string, len(values))
	for lang, value := range values {
		clone[lang] = value
	}
	return LocalizedText{localized: clone, present: true}
}

// ParseLocalizedText inspects a decoded document value and picks the variant.
// Strings map to PlainText, maps to LocalizedMap, nil to the zero (absent)
// text. Any other shape is rejected so loaders can report a malformed field.
func ParseLocalizedText(value any) (LocalizedText, error) {
	switch v := value.(type) {
	case nil:
		return LocalizedText{}, nil
	case string:
		return PlainText(v), nil
	case map[string]string:
		return LocalizedMap(v), nil
	case map[string]any:
		values := make(map[string]string, len(v))
		for lang, entry := range v {
			text, ok := entry.(string)
			if !ok {
				return LocalizedText{}, fmt.Errorf("schema: localized entry %q is %T, want string", lang, entry)
			}
			values[lang] = text
		}
		return LocalizedMap(values), nil
	case map[any]any:
		// yaml.v3 decodes into map[string]any when keys are strings, but
		// documents produced by older emitters can still surface any-keyed maps.
		values := make(map[string]string, len(v))
		for lang, entry := range v {
			key, ok := lang.(string)
			if !ok {
				return LocalizedText{}, fmt.Errorf("schema: localized key %v is %T, want string", lang, lang)
			}
			text, ok := entry.(string)
			if !ok {
				return LocalizedText{}, fmt.Errorf("schema: localized entry %q is %T, want string", key, entry)
			}
			values[key] = text
		}
		return LocalizedMap(values), nil
	default:
		return LocalizedText{}, fmt.Errorf("schema: localized text is %T, want string or map", value)
	}
}

// Resolve returns the text for the requested language. Absent text resolves
// to "", plain text resolves verbatim, and mappings fall back to "en" and
// finally "". Resolution never fails.
func (t LocalizedText) Resolve(language string) string {
	if !t.present {
		return ""
	}
	if t.isPlain {
		return t.plain
	}
	if value, ok := t.localized[language]; ok {
		return value
	}
	if value, ok := t.localized[FallbackLanguage]; ok {
		return value
	}
	return ""
}

// IsZero reports whether the text was absent from the source document.
func (t LocalizedText) IsZero() bool {
	return !t.present
}

// Languages returns the sorted language codes carried by a localized mapping.
// Plain and absent texts have none.
func (t LocalizedText) Languages() []string {
	if t.isPlain || len(t.localized) == 0 {
		return nil
	}
	codes := make([]string, 0, len(t.localized))
	for lang := range t.localized {
		codes = append(codes, lang)
	}
	sort.Strings(codes)
	return codes
}

// mapped applies fn to every string the text carries, returning a new text.
// Used by the loader to sanitize display strings without breaking the variant.
func (t LocalizedText) mapped(fn func(string) string) LocalizedText {
	if !t.present || fn == nil {
		return t
	}
	if t.isPlain {
		return PlainText(fn(t.plain))
	}
	values := make(map[string]string, len(t.localized))
	for lang, value := range t.localized {
		values[lang] = fn(value)
	}
	return LocalizedMap(values)
}
