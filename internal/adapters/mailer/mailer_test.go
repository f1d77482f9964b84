package mailer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"angels_reviews/internal/domain"
)

var recs = []domain.ReviewRecord{
	{AuthorName: "Sarah M.", Rating: 5, Text: "Changed my life <3"},
	{AuthorName: "Ann Lee", Rating: 5, Text: "Gentle and wise."},
}

func TestNew_FallsBackToLogNotifier(t *testing.T) {
	if _, ok := New(Config{}).(LogNotifier); !ok {
		t.Fatalf("expected LogNotifier without SMTP host")
	}
	if _, ok := New(Config{Host: "smtp.example.com"}).(LogNotifier); !ok {
		t.Fatalf("expected LogNotifier without recipient")
	}
	m, ok := New(Config{Host: "smtp.example.com", To: "owner@example.com"}).(*Mailer)
	if !ok || m.cfg.Port != 587 {
		t.Fatalf("expected SMTP mailer on default port, got %+v", m)
	}
	if err := (LogNotifier{}).NotifyNewReviews(context.Background(), recs); err != nil {
		t.Fatalf("log notifier: %v", err)
	}
}

func TestMessage(t *testing.T) {
	m := &Mailer{cfg: Config{From: "site@example.com", To: "owner@example.com"}}
	msg, err := m.message(recs)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"owner@example.com", "site@example.com", "Sarah M."} {
		if !strings.Contains(out, want) {
			t.Fatalf("message missing %q", want)
		}
	}
}

func TestMessage_BadAddress(t *testing.T) {
	m := &Mailer{cfg: Config{From: "not an address", To: "owner@example.com"}}
	if _, err := m.message(recs); err == nil {
		t.Fatalf("expected address error")
	}
}

func TestBodies(t *testing.T) {
	if !strings.Contains(Subject(recs), "2 five-star") {
		t.Fatalf("subject: %s", Subject(recs))
	}
	plain := PlainBody(recs)
	if !strings.Contains(plain, "Sarah M. (5 stars)") || !strings.Contains(plain, "Gentle and wise.") {
		t.Fatalf("plain body: %s", plain)
	}
	if h := HTMLBody(recs); !strings.Contains(h, "Changed my life &lt;3") {
		t.Fatalf("html body not escaped: %s", h)
	}
}
