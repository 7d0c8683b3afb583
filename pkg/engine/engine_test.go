package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-sendmoney/pkg/engine"
	"github.com/goliatone/go-sendmoney/pkg/schema"
	"github.com/goliatone/go-sendmoney/pkg/session"
	"github.com/goliatone/go-sendmoney/pkg/store"
	"github.com/goliatone/go-sendmoney/pkg/testsupport"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func bankSchema(t *testing.T) *schema.Schema {
	t.Helper()
	const doc = `{
		"title": "Send Money",
		"services": [
			{
				"name": "bank_transfer",
				"label": {"en": "Bank Transfer"},
				"providers": [
					{
						"name": "ABC Bank",
						"id": "abc",
						"required_fields": [
							{
								"name": "amount",
								"label": {"en": "Amount"},
								"type": "number",
								"validation": "^[0-9]+(\\.[0-9]{1,2})?$"
							}
						]
					}
				]
			}
		]
	}`
	s, err := schema.LoadBytes([]byte(doc))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return s
}

func submitRequest(t *testing.T, s *schema.Schema, values map[string]string) engine.SubmitRequest {
	t.Helper()
	svc, ok := s.Service("bank_transfer")
	if !ok {
		t.Fatalf("service missing from schema")
	}
	return engine.SubmitRequest{
		Service:  svc,
		Provider: svc.Providers[0],
		Values:   values,
		Language: "en",
	}
}

func TestSubmitAcceptsValidTransfer(t *testing.T) {
	st := openStore(t)
	eng := engine.New(st, engine.WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_000) }))
	ctx := context.Background()

	result, err := eng.Submit(ctx, submitRequest(t, bankSchema(t), map[string]string{"amount": "100.50"}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("submission rejected: %v", result.Errors)
	}

	rec := result.Record
	if rec.ID < 1 {
		t.Fatalf("record id = %d", rec.ID)
	}
	if rec.ServiceKey != "bank_transfer" || rec.ServiceLabel != "Bank Transfer" {
		t.Fatalf("service snapshot = %q/%q", rec.ServiceKey, rec.ServiceLabel)
	}
	if rec.ProviderName != "ABC Bank" {
		t.Fatalf("provider = %q", rec.ProviderName)
	}
	if rec.Amount != 100.50 {
		t.Fatalf("amount = %v", rec.Amount)
	}
	if rec.CreatedAt != 1_700_000_000_000 {
		t.Fatalf("createdAt = %d", rec.CreatedAt)
	}

	count, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("row count = %d, want 1", count)
	}
}

func TestSubmitRejectsInvalidAmountWithoutWriting(t *testing.T) {
	st := openStore(t)
	eng := engine.New(st)
	ctx := context.Background()

	result, err := eng.Submit(ctx, submitRequest(t, bankSchema(t), map[string]string{"amount": "abc"}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Accepted {
		t.Fatalf("invalid amount accepted")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Amount") {
		t.Fatalf("error %q does not mention the field label", result.Errors[0])
	}

	count, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected submission wrote %d rows", count)
	}
}

func TestSubmitCollectsEveryFailureInFieldOrder(t *testing.T) {
	st := openStore(t)
	eng := engine.New(st)
	ctx := context.Background()

	s := testsupport.LoadSchema(t)
	svc, _ := s.Service("bank_transfer")
	req := engine.SubmitRequest{
		Service:  svc,
		Provider: svc.Providers[0], // ABC Bank: amount, account, firstname, lastname, gender
		Values:   map[string]string{"firstname": "Ada", "lastname": "Lovelace", "gender": "F"},
		Language: "en",
	}

	result, err := eng.Submit(ctx, req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Accepted {
		t.Fatalf("expected rejection")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v", result.Errors)
	}
	// Declaration order: amount before bank_account_number.
	if result.Errors[0] != "Amount is required" {
		t.Fatalf("first error = %q", result.Errors[0])
	}
	if result.Errors[1] != "Account number is required" {
		t.Fatalf("second error = %q", result.Errors[1])
	}
}

func TestSubmitDerivesOptionalColumns(t *testing.T) {
	st := openStore(t)
	eng := engine.New(st)
	ctx := context.Background()

	s := testsupport.LoadSchema(t)
	svc, _ := s.Service("wallet")
	result, err := eng.Submit(ctx, engine.SubmitRequest{
		Service:  svc,
		Provider: svc.Providers[0],
		Values:   map[string]string{"amount": "25", "msisdn": "0501234567", "firstname": "Ada"},
		Language: "ar",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("rejected: %v", result.Errors)
	}

	rec := result.Record
	if rec.ServiceLabel != "محفظة الجوال" {
		t.Fatalf("label snapshot = %q", rec.ServiceLabel)
	}
	if rec.AccountOrMSISDN == nil || *rec.AccountOrMSISDN != "0501234567" {
		t.Fatalf("accountOrMsisdn = %v", rec.AccountOrMSISDN)
	}
	if rec.FirstName == nil || *rec.FirstName != "Ada" {
		t.Fatalf("firstName = %v", rec.FirstName)
	}
	if rec.LastName != nil || rec.Gender != nil || rec.ProvinceState != nil {
		t.Fatalf("absent values should stay nil: %+v", rec)
	}
}

func TestSubmitLabelFallsBackToServiceName(t *testing.T) {
	st := openStore(t)
	eng := engine.New(st)
	ctx := context.Background()

	svc := schema.Service{
		Name: "bank_transfer",
		// No label at all; the snapshot falls back to the raw name.
		Providers: []schema.Provider{{ID: "x", Name: "X Bank"}},
	}
	result, err := eng.Submit(ctx, engine.SubmitRequest{
		Service:  svc,
		Provider: svc.Providers[0],
		Language: "en",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Record.ServiceLabel != "bank_transfer" {
		t.Fatalf("label snapshot = %q", result.Record.ServiceLabel)
	}
}

func TestSubmitSelection(t *testing.T) {
	st := openStore(t)
	eng := engine.New(st)
	ctx := context.Background()

	if err := eng.LoadSchemaBytes(testsupport.SendMoneyDocument()); err != nil {
		t.Fatalf("load schema: %v", err)
	}
	sel := eng.NewSelection("en")

	if err := sel.SelectService("wallet"); err != nil {
		t.Fatalf("select service: %v", err)
	}
	for name, value := range map[string]string{"amount": "42", "msisdn": "0509998888", "firstname": "Grace"} {
		if err := sel.SetValue(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	result, err := eng.SubmitSelection(ctx, sel)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("rejected: %v", result.Errors)
	}
	if result.Record.Amount != 42 {
		t.Fatalf("amount = %v", result.Record.Amount)
	}
}

func TestSessionGateBlocksSubmitAndHistory(t *testing.T) {
	st := openStore(t)
	gate := session.NewGate()
	eng := engine.New(st, engine.WithSessionGate(gate))
	ctx := context.Background()

	_, err := eng.Submit(ctx, submitRequest(t, bankSchema(t), map[string]string{"amount": "10"}))
	if !errors.Is(err, engine.ErrSessionInactive) {
		t.Fatalf("submit without session: %v", err)
	}
	if _, err := eng.History(); !errors.Is(err, engine.ErrSessionInactive) {
		t.Fatalf("history without session: %v", err)
	}
	if err := eng.DeleteTransfer(ctx, 1); !errors.Is(err, engine.ErrSessionInactive) {
		t.Fatalf("delete without session: %v", err)
	}

	gate.SetActive(true)
	if _, err := eng.Submit(ctx, submitRequest(t, bankSchema(t), map[string]string{"amount": "10"})); err != nil {
		t.Fatalf("submit with session: %v", err)
	}
	history, err := eng.History()
	if err != nil {
		t.Fatalf("history with session: %v", err)
	}

	var rows []store.TransferRecord
	sub, err := history.ObserveAll(ctx, func(records []store.TransferRecord) { rows = records })
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	defer sub.Close()
	if len(rows) != 1 {
		t.Fatalf("history rows = %d", len(rows))
	}
}

func TestLoadSchemaMalformedDegradesToEmpty(t *testing.T) {
	st := openStore(t)
	eng := engine.New(st)

	if err := eng.LoadSchemaBytes([]byte("{broken")); !errors.Is(err, schema.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if !eng.Schema().Empty() {
		t.Fatalf("schema should stay empty after a malformed document")
	}

	// The engine stays usable: a good document can still be installed.
	if err := eng.LoadSchemaBytes(testsupport.SendMoneyDocument()); err != nil {
		t.Fatalf("load good document: %v", err)
	}
	if eng.Schema().Empty() {
		t.Fatalf("schema not installed")
	}
}
