// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// Ensure SQLiteStore implements storage.Store and storage.Transactor
var (
	_ storage.Store      = (*SQLiteStore)(nil)
	_ storage.Transactor = (*SQLiteStore)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements storage.Store using SQLite.
//
// All access goes through a single connection, so every write transaction
// is serialized and read-modify-write updates of paid amounts cannot lose
// concurrent increments.
type SQLiteStore struct {
	db   *sql.DB
	feed *storage.Feed
	now  func() time.Time
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, feed: storage.NewFeed(), now: time.Now}, nil
}

// Close stops live subscriptions and closes the database connection.
func (s *SQLiteStore) Close() error {
	s.feed.Close()
	return s.db.Close()
}

// WithTx runs fn inside one SQLite transaction. Subscribers are notified
// only after a successful commit.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	r := &records{q: tx, now: s.now, touched: make(map[string]struct{})}
	if err := fn(r); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for ownerID := range r.touched {
		s.feed.Notify(ownerID)
	}
	return nil
}

func (s *SQLiteStore) reader() *records {
	return &records{q: s.db, now: s.now}
}

// CreateDebt persists a new debt to the database.
func (s *SQLiteStore) CreateDebt(ctx context.Context, debt *models.Debt) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreateDebt(ctx, debt)
	})
}

// GetDebt retrieves a debt by ID.
func (s *SQLiteStore) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	return s.reader().GetDebt(ctx, debtID)
}

// ListDebts retrieves matching debts, newest first.
func (s *SQLiteStore) ListDebts(ctx context.Context, q storage.DebtQuery) ([]*models.Debt, error) {
	return s.reader().ListDebts(ctx, q)
}

// UpdateDebtDetails updates a debt's display and scoping fields.
func (s *SQLiteStore) UpdateDebtDetails(ctx context.Context, debt *models.Debt) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateDebtDetails(ctx, debt)
	})
}

// IncrementPaidAmount adds delta to a debt's paid amount in its own transaction.
func (s *SQLiteStore) IncrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	var updated *models.Debt
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		updated, err = tx.IncrementPaidAmount(ctx, debtID, delta)
		return err
	})
	return updated, err
}

// DecrementPaidAmount subtracts delta from a debt's paid amount in its own transaction.
func (s *SQLiteStore) DecrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	var updated *models.Debt
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		updated, err = tx.DecrementPaidAmount(ctx, debtID, delta)
		return err
	})
	return updated, err
}

// DeleteDebt removes a debt without payment history.
func (s *SQLiteStore) DeleteDebt(ctx context.Context, debtID string) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteDebt(ctx, debtID)
	})
}

// CreatePayment persists a new payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.DebtPayment) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreatePayment(ctx, payment)
	})
}

// GetPayment retrieves one payment of a debt.
func (s *SQLiteStore) GetPayment(ctx context.Context, debtID, paymentID string) (*models.DebtPayment, error) {
	return s.reader().GetPayment(ctx, debtID, paymentID)
}

// ListPayments retrieves a debt's payments, newest first.
func (s *SQLiteStore) ListPayments(ctx context.Context, q storage.PaymentQuery) ([]*models.DebtPayment, error) {
	return s.reader().ListPayments(ctx, q)
}

// DeletePayment removes one payment of a debt.
func (s *SQLiteStore) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.DeletePayment(ctx, debtID, paymentID)
	})
}

// SubscribeDebts streams matching debts after every committed write for the owner.
func (s *SQLiteStore) SubscribeDebts(ctx context.Context, q storage.DebtQuery) (*storage.Subscription[*models.Debt], error) {
	return storage.Watch(ctx, s.feed, q.OwnerID, func(ctx context.Context) ([]*models.Debt, error) {
		return s.ListDebts(ctx, q)
	}), nil
}

// SubscribePayments streams a debt's payments after every committed write for the owner.
func (s *SQLiteStore) SubscribePayments(ctx context.Context, q storage.PaymentQuery) (*storage.Subscription[*models.DebtPayment], error) {
	return storage.Watch(ctx, s.feed, q.OwnerID, func(ctx context.Context) ([]*models.DebtPayment, error) {
		return s.ListPayments(ctx, q)
	}), nil
}
