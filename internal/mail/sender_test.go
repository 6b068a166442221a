package mail

import (
	"errors"
	"strings"
	"testing"

	"github.com/jordan-wright/email"

	"resumebuilder/internal/config"
)

func TestSendWelcome(t *testing.T) {
	s, err := NewSender(config.SMTPConfig{Host: "smtp.test", Port: 587, Sender: "noreply@resume.test"}, nil)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	var sent *email.Email
	s.WithDeliverer(func(e *email.Email) error {
		sent = e
		return nil
	})

	if err := s.SendWelcome("ada@example.com", "Ada"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent == nil {
		t.Fatal("expected an email to be delivered")
	}
	if sent.From != "noreply@resume.test" || len(sent.To) != 1 || sent.To[0] != "ada@example.com" {
		t.Fatalf("unexpected envelope: from=%q to=%v", sent.From, sent.To)
	}
	if !strings.Contains(string(sent.Text), "Hi Ada") {
		t.Fatalf("unexpected body: %s", sent.Text)
	}
}

func TestSendWelcomeWrapsDeliveryError(t *testing.T) {
	s, _ := NewSender(config.SMTPConfig{Host: "smtp.test", Sender: "a@b.c"}, nil)
	s.WithDeliverer(func(*email.Email) error { return errors.New("connection refused") })

	if err := s.SendWelcome("x@y.z", "X"); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected wrapped delivery error, got %v", err)
	}
}

func TestNewSenderRequiresConfig(t *testing.T) {
	if _, err := NewSender(config.SMTPConfig{}, nil); err == nil {
		t.Fatal("expected error without smtp config")
	}
}
