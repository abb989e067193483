package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tinselhq/tinsel/internal/config"
	"github.com/tinselhq/tinsel/internal/model"
	"github.com/tinselhq/tinsel/internal/store"
	"github.com/tinselhq/tinsel/internal/webhook"
)

func newTestDispatcher(t *testing.T, webhookURL string) (*Dispatcher, *store.Store) {
	t.Helper()
	st, err := store.New(config.StoreConfig{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	wh := webhook.NewClient(config.WebhookConfig{URL: webhookURL, Timeout: time.Second})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(wh, st, logger), st
}

func TestSendSuccessLogsSentBatch(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, st := newTestDispatcher(t, srv.URL)

	count, err := d.Send(context.Background(), SendRequest{
		HolidayName:  "Christmas",
		SenderName:   "Jane",
		AudienceType: "business",
		Language:     "en",
		Recipients:   "a@b.com",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if count != 1 {
		t.Errorf("recipient count = %d, want 1", count)
	}

	if gotBody["holiday_name"] != "Christmas" || gotBody["tone"] != "warm" ||
		gotBody["sender_name"] != "Jane" || gotBody["audience_type"] != "business" ||
		gotBody["language"] != "en" || gotBody["recipients"] != "a@b.com" {
		t.Errorf("unexpected webhook payload: %v", gotBody)
	}

	d.Wait()

	logs, total, err := st.ListBatches(context.Background(), 20, 0, "")
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if logs[0].Status != model.StatusSent {
		t.Errorf("status = %q, want sent", logs[0].Status)
	}

	got, err := st.GetBatch(context.Background(), logs[0].ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(got.Recipients) != 1 || got.Recipients[0] != "a@b.com" {
		t.Errorf("recipients = %v, want [a@b.com]", got.Recipients)
	}
}

func TestSendWebhookFailureLogsErrorBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d, st := newTestDispatcher(t, srv.URL)

	_, err := d.Send(context.Background(), SendRequest{
		HolidayName: "New Year",
		SenderName:  "Jo",
		Recipients:  "a@b.com, c@d.com",
	})
	if err == nil {
		t.Fatal("expected webhook failure")
	}

	d.Wait()

	logs, total, lerr := st.ListBatches(context.Background(), 20, 0, model.StatusError)
	if lerr != nil {
		t.Fatalf("ListBatches: %v", lerr)
	}
	if total != 1 {
		t.Fatalf("error batches = %d, want 1", total)
	}
	if logs[0].ErrorMessage == "" {
		t.Error("expected error message on failed batch")
	}
	if logs[0].RecipientCount != 2 {
		t.Errorf("recipient count = %d, want 2", logs[0].RecipientCount)
	}
}

func TestSendSucceedsEvenIfLogStoreClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, st := newTestDispatcher(t, srv.URL)
	st.Close() // the best-effort log will fail internally

	count, err := d.Send(context.Background(), SendRequest{
		HolidayName: "Holi",
		SenderName:  "Amit",
		Recipients:  "x@y.com",
	})
	if err != nil {
		t.Fatalf("Send must not surface log failures: %v", err)
	}
	if count != 1 {
		t.Errorf("recipient count = %d, want 1", count)
	}
	d.Wait()
}
