package mailer

import (
	"context"
	"errors"
	"testing"
)

func TestLogMailer(t *testing.T) {
	var m Mailer = LogMailer{}

	if err := m.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := m.Send(context.Background(), Message{Subject: "nobody"}); !errors.Is(err, errNoRecipients) {
		t.Fatalf("Send without recipients = %v", err)
	}
}

func TestSMTPMailerRejectsEmptyRecipients(t *testing.T) {
	m := NewSMTP(Config{Host: "localhost", Port: 2525, From: "noreply@example.com"})
	if err := m.Send(context.Background(), Message{Subject: "x"}); !errors.Is(err, errNoRecipients) {
		t.Fatalf("Send = %v", err)
	}
}
