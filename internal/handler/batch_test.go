package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tinselhq/tinsel/internal/config"
	"github.com/tinselhq/tinsel/internal/model"
	"github.com/tinselhq/tinsel/internal/service"
	"github.com/tinselhq/tinsel/internal/store"
	"github.com/tinselhq/tinsel/internal/webhook"
)

type batchTestEnv struct {
	store      *store.Store
	dispatcher *service.Dispatcher
	router     chi.Router
}

// newBatchEnv wires a BatchHandler against an in-memory store and the given
// webhook URL (may be empty for tests that never hit the webhook).
func newBatchEnv(t *testing.T, webhookURL string) *batchTestEnv {
	t.Helper()

	st, err := store.New(config.StoreConfig{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	wh := webhook.NewClient(config.WebhookConfig{URL: webhookURL, Timeout: time.Second})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := service.NewDispatcher(wh, st, logger)

	h := NewBatchHandler(st, dispatcher)
	r := chi.NewRouter()
	r.Post("/api/log-email-batch", h.CreateBatch)
	r.Get("/api/email-logs", h.ListBatches)
	r.Get("/api/email-logs/{batchId}", h.GetBatch)
	r.Post("/api/send-holiday-emails", h.Send)

	return &batchTestEnv{store: st, dispatcher: dispatcher, router: r}
}

func (e *batchTestEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func validLogBody() map[string]interface{} {
	return map[string]interface{}{
		"holidayName": "Christmas",
		"tone":        "warm",
		"senderName":  "Jane",
		"recipients":  []string{"a@b.com", "c@d.com"},
		"status":      "sent",
	}
}

// ---------------------------------------------------------------------------
// POST /api/log-email-batch
// ---------------------------------------------------------------------------

func TestCreateBatchPersists(t *testing.T) {
	env := newBatchEnv(t, "")

	rr := env.do(t, "POST", "/api/log-email-batch", validLogBody())
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}

	var resp model.CreateBatchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.BatchID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.RecipientCount != 2 {
		t.Errorf("recipientCount = %d, want 2", resp.RecipientCount)
	}

	got, err := env.store.GetBatch(context.Background(), resp.BatchID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if got.Recipients[0] != "a@b.com" || got.Recipients[1] != "c@d.com" {
		t.Errorf("recipients = %v", got.Recipients)
	}
}

func TestCreateBatchValidation(t *testing.T) {
	env := newBatchEnv(t, "")

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"missing holiday", func(b map[string]interface{}) { delete(b, "holidayName") }},
		{"missing sender", func(b map[string]interface{}) { delete(b, "senderName") }},
		{"bad status", func(b map[string]interface{}) { b["status"] = "pending" }},
		{"empty recipients", func(b map[string]interface{}) { b["recipients"] = []string{} }},
		{"invalid recipient", func(b map[string]interface{}) { b["recipients"] = []string{"a@b.com", "nope"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validLogBody()
			tt.mutate(body)
			rr := env.do(t, "POST", "/api/log-email-batch", body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			var resp model.ErrorResponse
			json.NewDecoder(rr.Body).Decode(&resp)
			if resp.Code != model.CodeValidationError {
				t.Errorf("code = %q, want VALIDATION_ERROR", resp.Code)
			}
		})
	}

	// Rejected at the boundary: nothing was persisted.
	_, total, err := env.store.ListBatches(context.Background(), 20, 0, "")
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if total != 0 {
		t.Errorf("persisted %d batches from invalid requests, want 0", total)
	}
}

// ---------------------------------------------------------------------------
// GET /api/email-logs
// ---------------------------------------------------------------------------

func TestListBatchesDefaultsAndFilter(t *testing.T) {
	env := newBatchEnv(t, "")

	for i := 0; i < 3; i++ {
		env.do(t, "POST", "/api/log-email-batch", validLogBody())
	}
	errBody := validLogBody()
	errBody["status"] = "error"
	errBody["errorMessage"] = "smtp timeout"
	env.do(t, "POST", "/api/log-email-batch", errBody)

	rr := env.do(t, "GET", "/api/email-logs", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp model.ListBatchesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 4 || resp.Limit != 20 || resp.Offset != 0 {
		t.Errorf("total/limit/offset = %d/%d/%d, want 4/20/0", resp.Total, resp.Limit, resp.Offset)
	}
	if len(resp.Logs) != 4 {
		t.Errorf("logs = %d, want 4", len(resp.Logs))
	}

	rr = env.do(t, "GET", "/api/email-logs?status=error", nil)
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Total != 1 || len(resp.Logs) != 1 {
		t.Fatalf("filtered total/len = %d/%d, want 1/1", resp.Total, len(resp.Logs))
	}
	if resp.Logs[0].ErrorMessage != "smtp timeout" {
		t.Errorf("errorMessage = %q", resp.Logs[0].ErrorMessage)
	}
}

func TestListBatchesClampsLimit(t *testing.T) {
	env := newBatchEnv(t, "")

	rr := env.do(t, "GET", "/api/email-logs?limit=9999&offset=-3", nil)
	var resp model.ListBatchesResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Limit != 100 {
		t.Errorf("limit = %d, want clamped to 100", resp.Limit)
	}
	if resp.Offset != 0 {
		t.Errorf("offset = %d, want 0", resp.Offset)
	}
}

func TestListBatchesRejectsUnknownStatus(t *testing.T) {
	env := newBatchEnv(t, "")

	rr := env.do(t, "GET", "/api/email-logs?status=bogus", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /api/email-logs/{batchId}
// ---------------------------------------------------------------------------

func TestGetBatchByID(t *testing.T) {
	env := newBatchEnv(t, "")

	rr := env.do(t, "POST", "/api/log-email-batch", validLogBody())
	var created model.CreateBatchResponse
	json.NewDecoder(rr.Body).Decode(&created)

	rr = env.do(t, "GET", "/api/email-logs/"+created.BatchID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp model.GetBatchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Batch.ID != created.BatchID {
		t.Errorf("id = %q, want %q", resp.Batch.ID, created.BatchID)
	}
	if len(resp.Batch.Recipients) != 2 {
		t.Errorf("recipients = %v, want 2 entries", resp.Batch.Recipients)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	env := newBatchEnv(t, "")

	rr := env.do(t, "GET", "/api/email-logs/ffffffff-0000-0000-0000-000000000000", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var resp model.ErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Code != model.CodeNotFound {
		t.Errorf("code = %q, want NOT_FOUND", resp.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /api/send-holiday-emails
// ---------------------------------------------------------------------------

func TestSendEndToEnd(t *testing.T) {
	var gotPayload map[string]string
	webhookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer webhookSrv.Close()

	env := newBatchEnv(t, webhookSrv.URL)

	rr := env.do(t, "POST", "/api/send-holiday-emails", map[string]string{
		"holidayName":  "Christmas",
		"senderName":   "Jane",
		"audienceType": "business",
		"language":     "en",
		"recipients":   "a@b.com",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp model.SendResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.OK || resp.Status != "sent" || resp.RecipientCount != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}

	want := map[string]string{
		"holiday_name":  "Christmas",
		"tone":          "warm",
		"sender_name":   "Jane",
		"audience_type": "business",
		"language":      "en",
		"recipients":    "a@b.com",
	}
	for k, v := range want {
		if gotPayload[k] != v {
			t.Errorf("webhook payload[%q] = %q, want %q", k, gotPayload[k], v)
		}
	}

	// The best-effort log lands in the background.
	env.dispatcher.Wait()
	logs, total, err := env.store.ListBatches(context.Background(), 20, 0, "sent")
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if total != 1 {
		t.Fatalf("logged batches = %d, want 1", total)
	}
	got, err := env.store.GetBatch(context.Background(), logs[0].ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(got.Recipients) != 1 || got.Recipients[0] != "a@b.com" {
		t.Errorf("logged recipients = %v, want [a@b.com]", got.Recipients)
	}
}

func TestSendWebhookFailure(t *testing.T) {
	webhookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer webhookSrv.Close()

	env := newBatchEnv(t, webhookSrv.URL)

	rr := env.do(t, "POST", "/api/send-holiday-emails", map[string]string{
		"holidayName": "New Year",
		"senderName":  "Jo",
		"recipients":  "a@b.com",
	})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	var resp model.ErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Code != model.CodeWebhookError {
		t.Errorf("code = %q, want WEBHOOK_ERROR", resp.Code)
	}

	// The failure is still logged as an error batch.
	env.dispatcher.Wait()
	_, total, err := env.store.ListBatches(context.Background(), 20, 0, "error")
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if total != 1 {
		t.Errorf("error batches = %d, want 1", total)
	}
}

func TestSendValidation(t *testing.T) {
	env := newBatchEnv(t, "")

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing holiday", map[string]string{"senderName": "J", "recipients": "a@b.com"}},
		{"missing sender", map[string]string{"holidayName": "X", "recipients": "a@b.com"}},
		{"no valid recipients", map[string]string{"holidayName": "X", "senderName": "J", "recipients": "hello world"}},
		{"empty recipients", map[string]string{"holidayName": "X", "senderName": "J", "recipients": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/send-holiday-emails", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			var resp model.ErrorResponse
			json.NewDecoder(rr.Body).Decode(&resp)
			if resp.Code != model.CodeValidationError {
				t.Errorf("code = %q, want VALIDATION_ERROR", resp.Code)
			}
		})
	}
}
