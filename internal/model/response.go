package model

// Machine-readable error codes returned in the error envelope. Clients branch
// on these; the human-readable message stays deliberately generic.
const (
	CodeValidationError       = "VALIDATION_ERROR"
	CodeInvalidPassword       = "INVALID_PASSWORD"
	CodeMissingAuthHeader     = "MISSING_AUTH_HEADER"
	CodeInvalidAuthFormat     = "INVALID_AUTH_FORMAT"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeMissingAPIKey         = "MISSING_API_KEY"
	CodeInvalidAPIKey         = "INVALID_API_KEY"
	CodeAuthRateLimitExceeded = "AUTH_RATE_LIMIT_EXCEEDED"
	CodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	CodeNotFound              = "NOT_FOUND"
	CodeWebhookError          = "WEBHOOK_ERROR"
	CodeInternalError         = "INTERNAL_ERROR"
)

// ErrorResponse is the standard failure envelope: {ok:false, error, code}.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

// LoginResponse is returned on a successful password login.
type LoginResponse struct {
	OK        bool   `json:"ok"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// CreateBatchResponse is returned when a batch has been persisted.
type CreateBatchResponse struct {
	OK             bool   `json:"ok"`
	BatchID        string `json:"batchId"`
	RecipientCount int    `json:"recipientCount"`
}

// ListBatchesResponse is the paginated list envelope for email logs.
type ListBatchesResponse struct {
	OK     bool         `json:"ok"`
	Logs   []EmailBatch `json:"logs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// GetBatchResponse wraps a single batch with its recipient list.
type GetBatchResponse struct {
	OK    bool       `json:"ok"`
	Batch EmailBatch `json:"batch"`
}

// SendResponse is returned by the send endpoint after the workflow webhook
// has accepted (or rejected) the submission.
type SendResponse struct {
	OK             bool   `json:"ok"`
	Status         string `json:"status"`
	RecipientCount int    `json:"recipientCount"`
}
