package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tinselhq/tinsel/internal/config"
	"github.com/tinselhq/tinsel/internal/model"
)

// Store persists email-batch metadata. Batches are written once with their
// final status and recipient list and are never updated or deleted.
//
// Two drivers are supported: embedded SQLite (default) and Postgres via the
// pgx stdlib driver.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New opens the batch store described by cfg and runs migrations.
// For sqlite, cfg.DSN is a data directory; empty means in-memory.
func New(cfg config.StoreConfig) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Driver {
	case "postgres":
		db, err = sqlx.Connect("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}

	default: // sqlite
		var dsn string
		if cfg.DSN == "" {
			dsn = ":memory:?_journal_mode=WAL"
		} else {
			if err := os.MkdirAll(cfg.DSN, 0755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = filepath.Join(cfg.DSN, "tinsel.db") + "?_journal_mode=WAL&_busy_timeout=5000"
		}
		db, err = sqlx.Connect("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

		// Foreign keys are off by default in SQLite.
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, driver: cfg.Driver}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate batch store: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateBatch inserts a batch and its ordered recipient list in one
// transaction. The batch ID and CreatedAt are populated on b.
func (s *Store) CreateBatch(ctx context.Context, b *model.EmailBatch, recipients []string) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insertBatch = `INSERT INTO email_batches
		(id, holiday_name, tone, audience_type, language, sender_name, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, s.db.Rebind(insertBatch),
		b.ID, b.HolidayName, b.Tone, b.AudienceType, b.Language,
		b.SenderName, b.Status, b.ErrorMessage, b.CreatedAt); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	const insertRecipient = `INSERT INTO batch_recipients (batch_id, position, email) VALUES (?, ?, ?)`
	q := s.db.Rebind(insertRecipient)
	for i, addr := range recipients {
		if _, err := tx.ExecContext(ctx, q, b.ID, i, addr); err != nil {
			return fmt.Errorf("insert recipient %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	b.RecipientCount = len(recipients)
	return nil
}

// ListBatches returns one page of batches (newest first) plus the total count
// matching the optional status filter. Recipient lists are not loaded; each
// row carries its recipient count.
func (s *Store) ListBatches(ctx context.Context, limit, offset int, status string) ([]model.EmailBatch, int, error) {
	countQ := `SELECT COUNT(*) FROM email_batches`
	listQ := `SELECT b.id, b.holiday_name, b.tone, b.audience_type, b.language,
			b.sender_name, b.status, b.error_message, b.created_at,
			(SELECT COUNT(*) FROM batch_recipients r WHERE r.batch_id = b.id) AS recipient_count
		FROM email_batches b`

	var args []interface{}
	if status != "" {
		countQ += ` WHERE status = ?`
		listQ += ` WHERE b.status = ?`
		args = append(args, status)
	}
	listQ += ` ORDER BY b.created_at DESC, b.id LIMIT ? OFFSET ?`

	var total int
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(countQ), args...); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}

	listArgs := append(args, limit, offset)
	batches := []model.EmailBatch{}
	if err := s.db.SelectContext(ctx, &batches, s.db.Rebind(listQ), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}
	return batches, total, nil
}

// GetBatch returns a single batch with its recipients in submission order.
func (s *Store) GetBatch(ctx context.Context, id string) (*model.EmailBatch, error) {
	const q = `SELECT id, holiday_name, tone, audience_type, language,
			sender_name, status, error_message, created_at,
			(SELECT COUNT(*) FROM batch_recipients r WHERE r.batch_id = email_batches.id) AS recipient_count
		FROM email_batches WHERE id = ?`

	var b model.EmailBatch
	if err := s.db.GetContext(ctx, &b, s.db.Rebind(q), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	const rq = `SELECT email FROM batch_recipients WHERE batch_id = ? ORDER BY position`
	if err := s.db.SelectContext(ctx, &b.Recipients, s.db.Rebind(rq), id); err != nil {
		return nil, fmt.Errorf("get recipients: %w", err)
	}
	return &b, nil
}
