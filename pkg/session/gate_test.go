package session_test

import (
	"testing"

	"github.com/goliatone/go-sendmoney/pkg/session"
)

func TestGateLifecycle(t *testing.T) {
	gate := session.NewGate()
	if gate.Active() {
		t.Fatalf("new gate should be inactive")
	}

	gate.SetActive(true)
	if !gate.Active() {
		t.Fatalf("gate should be active after SetActive(true)")
	}

	gate.Clear()
	if gate.Active() {
		t.Fatalf("gate should be inactive after Clear")
	}
}
