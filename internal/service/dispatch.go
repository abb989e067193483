package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tinselhq/tinsel/internal/mail"
	"github.com/tinselhq/tinsel/internal/model"
	"github.com/tinselhq/tinsel/internal/store"
	"github.com/tinselhq/tinsel/internal/webhook"
)

// logTimeout bounds each fire-and-forget batch write. The write runs on a
// detached context so an abandoned request cannot cancel it.
const logTimeout = 5 * time.Second

// SendRequest is one validated holiday-email submission.
type SendRequest struct {
	HolidayName  string
	Tone         string
	AudienceType string
	Language     string
	SenderName   string
	// Recipients is the raw comma/newline-delimited string as entered.
	Recipients string
}

// Dispatcher submits holiday-email requests to the workflow engine and
// records batch metadata afterwards. The metadata write is best-effort: it
// runs in the background, its failure is only logged, and it never blocks or
// fails the user-visible submission result.
type Dispatcher struct {
	webhook *webhook.Client
	store   *store.Store
	logger  *slog.Logger

	logWG sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(wh *webhook.Client, st *store.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{webhook: wh, store: st, logger: logger}
}

// Send forwards the submission to the workflow engine and kicks off the
// background batch log. It returns the number of parsed recipient addresses;
// a webhook failure is returned to the caller after an error batch has been
// queued for logging.
func (d *Dispatcher) Send(ctx context.Context, req SendRequest) (int, error) {
	recipients := mail.ExtractAddresses(req.Recipients)

	err := d.webhook.Submit(ctx, webhook.Payload{
		HolidayName:  req.HolidayName,
		Tone:         req.Tone,
		SenderName:   req.SenderName,
		AudienceType: req.AudienceType,
		Language:     req.Language,
		Recipients:   req.Recipients,
	})

	batch := &model.EmailBatch{
		HolidayName:  req.HolidayName,
		Tone:         req.Tone,
		AudienceType: req.AudienceType,
		Language:     req.Language,
		SenderName:   req.SenderName,
		Status:       model.StatusSent,
	}
	if batch.Tone == "" {
		batch.Tone = "warm"
	}
	if err != nil {
		batch.Status = model.StatusError
		batch.ErrorMessage = err.Error()
	}
	d.logBatch(batch, recipients)

	return len(recipients), err
}

// logBatch persists batch metadata in the background.
func (d *Dispatcher) logBatch(batch *model.EmailBatch, recipients []string) {
	d.logWG.Add(1)
	go func() {
		defer d.logWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), logTimeout)
		defer cancel()

		if err := d.store.CreateBatch(ctx, batch, recipients); err != nil {
			d.logger.Error("batch log failed", "holiday", batch.HolidayName, "status", batch.Status, "error", err)
		}
	}()
}

// Wait blocks until all outstanding background batch writes have finished.
// Called on shutdown and by tests.
func (d *Dispatcher) Wait() {
	d.logWG.Wait()
}
