// Package testsupport carries shared fixtures for the engine's test suites:
// a realistic form document covering every field type plus helpers to load it.
package testsupport

import (
	_ "embed"
	"testing"

	"github.com/goliatone/go-sendmoney/pkg/schema"
)

//go:embed send_money.json
var sendMoneyDocument []byte

// SendMoneyDocument returns the embedded sample form document.
func SendMoneyDocument() []byte {
	return append([]byte(nil), sendMoneyDocument...)
}

// LoadSchema parses the embedded sample document. Testing helpers fail the
// test on error to keep contract tests concise.
func LoadSchema(t *testing.T) *schema.Schema {
	t.Helper()

	s, err := schema.LoadBytes(sendMoneyDocument)
	if err != nil {
		t.Fatalf("testsupport: load sample schema: %v", err)
	}
	return s
}

// MustLoadSchema parses the embedded document without requiring testing.T so
// examples and benchmarks can reuse it.
func MustLoadSchema() *schema.Schema {
	s, err := schema.LoadBytes(sendMoneyDocument)
	if err != nil {
		panic(err)
	}
	return s
}
