package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tinselhq/tinsel/internal/config"
)

func TestSubmitSendsExactPayload(t *testing.T) {
	var (
		gotBody   map[string]string
		gotSecret string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-N8N-SECRET")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("unmarshal body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(config.WebhookConfig{URL: srv.URL, Secret: "hush", Timeout: time.Second})
	err := c.Submit(context.Background(), Payload{
		HolidayName:  "Christmas",
		SenderName:   "Jane",
		AudienceType: "business",
		Language:     "en",
		Recipients:   "a@b.com",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	want := map[string]string{
		"holiday_name":  "Christmas",
		"tone":          "warm", // default applied on the wire
		"sender_name":   "Jane",
		"audience_type": "business",
		"language":      "en",
		"recipients":    "a@b.com",
	}
	for k, v := range want {
		if gotBody[k] != v {
			t.Errorf("payload[%q] = %q, want %q", k, gotBody[k], v)
		}
	}
	if len(gotBody) != len(want) {
		t.Errorf("payload has %d fields, want %d: %v", len(gotBody), len(want), gotBody)
	}
	if gotSecret != "hush" {
		t.Errorf("secret header = %q, want %q", gotSecret, "hush")
	}
}

func TestSubmitOmitsSecretHeaderWhenUnset(t *testing.T) {
	var hasSecret bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSecret = r.Header.Get("X-N8N-SECRET") != ""
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(config.WebhookConfig{URL: srv.URL, Timeout: time.Second})
	if err := c.Submit(context.Background(), Payload{HolidayName: "Eid", SenderName: "A", Recipients: "a@b.com"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if hasSecret {
		t.Error("secret header sent despite no configured secret")
	}
}

func TestSubmitNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(config.WebhookConfig{URL: srv.URL, Timeout: time.Second})
	if err := c.Submit(context.Background(), Payload{HolidayName: "X", SenderName: "Y", Recipients: "a@b.com"}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestSubmitNetworkFailure(t *testing.T) {
	c := NewClient(config.WebhookConfig{URL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err := c.Submit(context.Background(), Payload{HolidayName: "X", SenderName: "Y", Recipients: "a@b.com"}); err == nil {
		t.Fatal("expected error for unreachable webhook")
	}
}

func TestKeepsExplicitTone(t *testing.T) {
	var gotTone string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		gotTone = body["tone"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(config.WebhookConfig{URL: srv.URL, Timeout: time.Second})
	if err := c.Submit(context.Background(), Payload{HolidayName: "X", SenderName: "Y", Tone: "playful", Recipients: "a@b.com"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotTone != "playful" {
		t.Errorf("tone = %q, want playful", gotTone)
	}
}
