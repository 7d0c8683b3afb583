package validation_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-sendmoney/pkg/schema"
	"github.com/goliatone/go-sendmoney/pkg/validation"
)

func amountField() schema.Field {
	return schema.Field{
		Name:            "amount",
		Label:           schema.LocalizedMap(map[string]string{"en": "Amount", "ar": "المبلغ"}),
		Type:            schema.FieldTypeNumber,
		Validation:      `^[0-9]+(\.[0-9]{1,2})?$`,
		MaxLength:       9,
		ValidationError: schema.LocalizedMap(map[string]string{"en": "Amount is required"}),
	}
}

func TestValidateBlankValue(t *testing.T) {
	field := amountField()

	for _, value := range []string{"", "   ", "\t\n"} {
		res := validation.Validate(field, value, "en")
		if res.OK {
			t.Fatalf("blank value %q passed validation", value)
		}
		if res.Message != "Amount is required" {
			t.Fatalf("message = %q", res.Message)
		}
	}
}

func TestValidateBlankFallsBackToDefaultMessage(t *testing.T) {
	field := amountField()
	field.ValidationError = schema.LocalizedText{}

	res := validation.Validate(field, "", "en")
	if res.Message != validation.DefaultRequiredMessage {
		t.Fatalf("message = %q", res.Message)
	}

	// A message map that cannot resolve for any language also falls back.
	field.ValidationError = schema.LocalizedMap(map[string]string{})
	res = validation.Validate(field, "", "fr")
	if res.Message != validation.DefaultRequiredMessage {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestValidateFullMatchSemantics(t *testing.T) {
	field := amountField()

	cases := []struct {
		value string
		ok    bool
	}{
		{"100", true},
		{"100.50", true},
		{"0.5", true},
		{"abc", false},
		{"100.505", false},
		{"x100", false}, // pattern must cover the whole value, not a substring
		{"100x", false},
	}

	for _, tc := range cases {
		res := validation.Validate(field, tc.value, "en")
		if res.OK != tc.ok {
			t.Fatalf("Validate(%q).OK = %v, want %v (%s)", tc.value, res.OK, tc.ok, res.Message)
		}
	}
}

func TestValidateInvalidMessageUsesResolvedLabel(t *testing.T) {
	field := amountField()

	res := validation.Validate(field, "abc", "ar")
	if res.OK {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Message, "المبلغ") {
		t.Fatalf("message %q does not mention the localized label", res.Message)
	}
}

func TestValidateOptionFieldEmptinessOnly(t *testing.T) {
	field := schema.Field{
		Name:    "gender",
		Label:   schema.PlainText("Gender"),
		Type:    schema.FieldTypeOption,
		Options: []schema.Option{{Name: "M", Label: "Male"}, {Name: "F", Label: "Female"}},
		// A pattern on an option field is ignored; selections come from the
		// option list and are valid by construction.
		Validation: `^X$`,
	}

	if res := validation.Validate(field, "M", "en"); !res.OK {
		t.Fatalf("valid option rejected: %s", res.Message)
	}
	if res := validation.Validate(field, "", "en"); res.OK {
		t.Fatalf("empty option selection accepted")
	}
}

func TestValidateNoPattern(t *testing.T) {
	field := schema.Field{Name: "firstname", Label: schema.PlainText("First name"), Type: schema.FieldTypeText}
	if res := validation.Validate(field, "Ada", "en"); !res.OK {
		t.Fatalf("unexpected failure: %s", res.Message)
	}
}

func TestMatchPatternSkipsEmptinessCheck(t *testing.T) {
	field := amountField()
	if res := validation.MatchPattern(field, "", "en"); res.OK {
		// Empty input never matches the amount pattern, so the in-progress
		// error flag lights up until the user types a valid value.
		t.Fatalf("empty value unexpectedly matched pattern")
	}

	free := schema.Field{Name: "note", Label: schema.PlainText("Note")}
	if res := validation.MatchPattern(free, "", "en"); !res.OK {
		t.Fatalf("field without pattern failed: %s", res.Message)
	}
}

func TestValidateBadPatternFails(t *testing.T) {
	field := schema.Field{
		Name:       "broken",
		Label:      schema.PlainText("Broken"),
		Validation: `([`,
	}
	if res := validation.Validate(field, "anything", "en"); res.OK {
		t.Fatalf("uncompilable pattern accepted input")
	}
}
