// Package validation implements the per-field validation rules the submit
// pipeline runs over a provider's required fields. Validators are pure: they
// never mutate the schema and always produce a result, localizing error
// messages through the schema's fallback chain.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/goliatone/go-sendmoney/pkg/schema"
)

// DefaultRequiredMessage is used when a field declares no localized
// validation_error_message, or when resolution yields an empty string.
const DefaultRequiredMessage = "This field is required"

// Result reports the outcome of validating one field value.
type Result struct {
	OK      bool
	Message string
}

func ok() Result {
	return Result{OK: true}
}

func fail(message string) Result {
	return Result{Message: message}
}

// Validate runs the full rule chain for one field: required-ness first, then
// the declared pattern. The value is expected to already be truncated to the
// field's max length; truncation happens at input capture, not here.
func Validate(field schema.Field, value, language string) Result {
	if strings.TrimSpace(value) == "" {
		return fail(requiredMessage(field, language))
	}

	// Option fields only need a non-empty selection; the state machine seeds
	// a valid default on every selection reset.
	if field.Type == schema.FieldTypeOption {
		return ok()
	}

	return MatchPattern(field, value, language)
}

// MatchPattern checks only the regex rule, skipping the emptiness check. The
// state machine uses it to flag in-progress input without nagging about
// fields the user has not reached yet.
func MatchPattern(field schema.Field, value, language string) Result {
	if field.Validation == "" {
		return ok()
	}

	re, err := pattern(field.Validation)
	if err != nil {
		// An uncompilable pattern is a schema bug; treat the field as failing
		// so the document gets fixed instead of silently accepting anything.
		return fail(invalidMessage(field, language))
	}
	if !re.MatchString(value) {
		return fail(invalidMessage(field, language))
	}
	return ok()
}

func requiredMessage(field schema.Field, language string) string {
	if msg := field.ValidationError.Resolve(language); msg != "" {
		return msg
	}
	return DefaultRequiredMessage
}

func invalidMessage(field schema.Field, language string) string {
	return fmt.Sprintf("Invalid input for %s", field.Label.Resolve(language))
}

var (
	patternMu    sync.RWMutex
	patternCache = make(map[string]*regexp.Regexp)
)

// pattern compiles and caches a validation expression with full-string match
// semantics: the whole value must match, not a substring.
func pattern(expr string) (*regexp.Regexp, error) {
	patternMu.RLock()
	re, hit := patternCache[expr]
	patternMu.RUnlock()
	if hit {
		return re, nil
	}

	re, err := regexp.Compile(`\A(?:` + expr + `)\z`)
	if err != nil {
		return nil, err
	}

	patternMu.Lock()
	patternCache[expr] = re
	patternMu.Unlock()
	return re, nil
}
