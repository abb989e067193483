package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tinselhq/tinsel/internal/mail"
	"github.com/tinselhq/tinsel/internal/model"
	"github.com/tinselhq/tinsel/internal/service"
	"github.com/tinselhq/tinsel/internal/store"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// BatchHandler serves the email-batch endpoints: logging batch metadata,
// querying the log, and submitting a holiday-email request to the workflow
// engine.
type BatchHandler struct {
	store      *store.Store
	dispatcher *service.Dispatcher
}

// NewBatchHandler creates a BatchHandler.
func NewBatchHandler(st *store.Store, dispatcher *service.Dispatcher) *BatchHandler {
	return &BatchHandler{store: st, dispatcher: dispatcher}
}

// logBatchRequest is the expected payload for CreateBatch. Validation fully
// rejects the request before any row is written; there is no partial batch
// creation.
type logBatchRequest struct {
	HolidayName  string   `json:"holidayName"`
	Tone         string   `json:"tone"`
	AudienceType string   `json:"audienceType"`
	Language     string   `json:"language"`
	SenderName   string   `json:"senderName"`
	Recipients   []string `json:"recipients"`
	Status       string   `json:"status"`
	ErrorMessage string   `json:"errorMessage"`
}

func (req *logBatchRequest) validate() string {
	if req.HolidayName == "" {
		return "holidayName is required"
	}
	if req.SenderName == "" {
		return "senderName is required"
	}
	if !model.ValidStatus(req.Status) {
		return "status must be one of queued, sent, error"
	}
	if len(req.Recipients) == 0 {
		return "at least one recipient is required"
	}
	for _, addr := range req.Recipients {
		if !mail.ValidAddress(addr) {
			return "invalid recipient email: " + addr
		}
	}
	return ""
}

// CreateBatch persists one email-batch record with its recipient list.
// POST /api/log-email-batch
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req logBatchRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", model.CodeValidationError)
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg, model.CodeValidationError)
		return
	}

	batch := &model.EmailBatch{
		HolidayName:  req.HolidayName,
		Tone:         req.Tone,
		AudienceType: req.AudienceType,
		Language:     req.Language,
		SenderName:   req.SenderName,
		Status:       req.Status,
		ErrorMessage: req.ErrorMessage,
	}
	if err := h.store.CreateBatch(r.Context(), batch, req.Recipients); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to log batch", model.CodeInternalError)
		return
	}

	writeJSON(w, http.StatusCreated, model.CreateBatchResponse{
		OK:             true,
		BatchID:        batch.ID,
		RecipientCount: len(req.Recipients),
	})
}

// ListBatches returns one page of the email log, newest first.
// GET /api/email-logs?limit=&offset=&status=
func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", defaultPageLimit), 1, maxPageLimit)
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "status must be one of queued, sent, error", model.CodeValidationError)
		return
	}

	logs, total, err := h.store.ListBatches(r.Context(), limit, offset, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batches", model.CodeInternalError)
		return
	}

	writeJSON(w, http.StatusOK, model.ListBatchesResponse{
		OK:     true,
		Logs:   logs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetBatch returns one batch with its recipient list.
// GET /api/email-logs/{batchId}
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batchId")

	batch, err := h.store.GetBatch(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Batch not found", model.CodeNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get batch", model.CodeInternalError)
		return
	}

	writeJSON(w, http.StatusOK, model.GetBatchResponse{OK: true, Batch: *batch})
}

// sendRequest is the expected payload for Send. Recipients is the raw
// comma/newline-delimited string from the form.
type sendRequest struct {
	HolidayName  string `json:"holidayName"`
	Tone         string `json:"tone"`
	AudienceType string `json:"audienceType"`
	Language     string `json:"language"`
	SenderName   string `json:"senderName"`
	Recipients   string `json:"recipients"`
}

// Send validates the form payload, forwards it to the workflow engine, and
// queues a best-effort batch log. The log's own failure never affects the
// response.
// POST /api/send-holiday-emails
func (h *BatchHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", model.CodeValidationError)
		return
	}
	if req.HolidayName == "" {
		writeError(w, http.StatusBadRequest, "holidayName is required", model.CodeValidationError)
		return
	}
	if req.SenderName == "" {
		writeError(w, http.StatusBadRequest, "senderName is required", model.CodeValidationError)
		return
	}
	if len(mail.ExtractAddresses(req.Recipients)) == 0 {
		writeError(w, http.StatusBadRequest, "recipients must contain at least one valid email address", model.CodeValidationError)
		return
	}

	count, err := h.dispatcher.Send(r.Context(), service.SendRequest{
		HolidayName:  req.HolidayName,
		Tone:         req.Tone,
		AudienceType: req.AudienceType,
		Language:     req.Language,
		SenderName:   req.SenderName,
		Recipients:   req.Recipients,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "Workflow engine rejected the submission", model.CodeWebhookError)
		return
	}

	writeJSON(w, http.StatusOK, model.SendResponse{
		OK:             true,
		Status:         model.StatusSent,
		RecipientCount: count,
	})
}
