package store

import (
	"context"
	"testing"

	"github.com/tinselhq/tinsel/internal/config"
	"github.com/tinselhq/tinsel/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(config.StoreConfig{Driver: "sqlite"}) // in-memory
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedBatch(t *testing.T, s *Store, holiday, status string, recipients []string) *model.EmailBatch {
	t.Helper()
	b := &model.EmailBatch{
		HolidayName: holiday,
		Tone:        "warm",
		SenderName:  "Jane",
		Status:      status,
	}
	if err := s.CreateBatch(context.Background(), b, recipients); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	return b
}

func TestCreateAndGetBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := seedBatch(t, s, "Christmas", model.StatusSent, []string{"a@x.com", "b@y.com", "c@z.com"})
	if b.ID == "" {
		t.Fatal("expected generated batch ID")
	}
	if b.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := s.GetBatch(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if got.HolidayName != "Christmas" {
		t.Errorf("HolidayName: got %q", got.HolidayName)
	}
	if got.Status != model.StatusSent {
		t.Errorf("Status: got %q", got.Status)
	}
	if got.RecipientCount != 3 {
		t.Errorf("RecipientCount: got %d, want 3", got.RecipientCount)
	}

	want := []string{"a@x.com", "b@y.com", "c@z.com"}
	if len(got.Recipients) != len(want) {
		t.Fatalf("Recipients: got %v, want %v", got.Recipients, want)
	}
	for i := range want {
		if got.Recipients[i] != want[i] {
			t.Errorf("Recipients[%d]: got %q, want %q (order must be preserved)", i, got.Recipients[i], want[i])
		}
	}
}

func TestGetBatchNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBatch(context.Background(), "no-such-id")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListBatchesPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedBatch(t, s, "Hanukkah", model.StatusSent, []string{"a@x.com"})
	}

	logs, total, err := s.ListBatches(ctx, 2, 0, "")
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if total != 5 {
		t.Errorf("total: got %d, want 5", total)
	}
	if len(logs) != 2 {
		t.Errorf("page size: got %d, want 2", len(logs))
	}
	if logs[0].RecipientCount != 1 {
		t.Errorf("RecipientCount: got %d, want 1", logs[0].RecipientCount)
	}

	logs, total, err = s.ListBatches(ctx, 2, 4, "")
	if err != nil {
		t.Fatalf("ListBatches offset: %v", err)
	}
	if total != 5 || len(logs) != 1 {
		t.Errorf("last page: got total=%d len=%d, want 5/1", total, len(logs))
	}
}

func TestListBatchesStatusFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedBatch(t, s, "Diwali", model.StatusSent, []string{"a@x.com"})
	seedBatch(t, s, "Diwali", model.StatusError, []string{"b@y.com"})
	seedBatch(t, s, "Diwali", model.StatusSent, []string{"c@z.com"})

	logs, total, err := s.ListBatches(ctx, 20, 0, model.StatusError)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if total != 1 || len(logs) != 1 {
		t.Fatalf("filtered: got total=%d len=%d, want 1/1", total, len(logs))
	}
	if logs[0].Status != model.StatusError {
		t.Errorf("Status: got %q", logs[0].Status)
	}
}

func TestListBatchesEmpty(t *testing.T) {
	s := newTestStore(t)

	logs, total, err := s.ListBatches(context.Background(), 20, 0, "")
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if total != 0 || len(logs) != 0 {
		t.Errorf("got total=%d len=%d, want 0/0", total, len(logs))
	}
}
