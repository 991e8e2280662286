package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(testSecret, time.Hour, "guidancedesk")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestSignAndParse(t *testing.T) {
	m := newTestManager(t)

	signed, err := m.Sign("session-123")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	sessionID, err := m.Parse(signed)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if sessionID != "session-123" {
		t.Fatalf("expected session-123, got %q", sessionID)
	}
}

func TestSignEmptySessionID(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Sign(""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseTamperedToken(t *testing.T) {
	m := newTestManager(t)

	signed, err := m.Sign("session-123")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(signed, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)

	if _, err := m.Parse(strings.Join(parts, ".")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for tampered token, got %v", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager([]byte("ffffffffffffffffffffffffffffffff"), time.Hour, "guidancedesk")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	signed, err := other.Sign("session-123")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := m.Parse(signed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for wrong secret, got %v", err)
	}
}

func TestParseWrongIssuer(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(testSecret, time.Hour, "someone-else")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	signed, err := other.Sign("session-123")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := m.Parse(signed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for wrong issuer, got %v", err)
	}
}

func TestParseExpiredToken(t *testing.T) {
	m, err := NewManager(testSecret, time.Millisecond, "guidancedesk")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	signed, err := m.Sign("session-123")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := m.Parse(signed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for expired token, got %v", err)
	}
}

func TestParseGarbage(t *testing.T) {
	m := newTestManager(t)

	for _, input := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Parse(input); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q): expected ErrInvalid, got %v", input, err)
		}
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager([]byte("short"), time.Hour, ""); err == nil {
		t.Fatal("expected error for short secret")
	}
	if _, err := NewManager(testSecret, 0, ""); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
