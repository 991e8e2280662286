package mail

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestOTPMessage(t *testing.T) {
	msg := OTPMessage("student@test.edu", "123456", 5*time.Minute)

	if msg.To != "student@test.edu" {
		t.Fatalf("unexpected recipient: %q", msg.To)
	}
	if msg.Subject == "" {
		t.Fatal("expected a subject")
	}
	if !strings.Contains(msg.Body, "123456") {
		t.Fatalf("body must carry the code: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "5 minutes") {
		t.Fatalf("body must state the validity window: %q", msg.Body)
	}
}

func TestNewSMTPSenderAddr(t *testing.T) {
	s := NewSMTPSender("smtp.school.edu", 587, "mailer", "secret", "no-reply@school.edu")

	if s.addr != "smtp.school.edu:587" {
		t.Fatalf("unexpected addr: %q", s.addr)
	}
	if s.from != "no-reply@school.edu" {
		t.Fatalf("unexpected from: %q", s.from)
	}
}

func TestSMTPSenderHonorsCancelledContext(t *testing.T) {
	s := NewSMTPSender("smtp.school.edu", 587, "mailer", "secret", "no-reply@school.edu")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Send(ctx, Message{To: "a@b.edu", Subject: "x", Body: "y"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
