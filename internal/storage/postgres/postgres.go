// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface built on gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// Ensure Store implements storage.Store and storage.Transactor
var (
	_ storage.Store      = (*Store)(nil)
	_ storage.Transactor = (*Store)(nil)
)

// Store implements storage.Store on PostgreSQL. Paid-amount updates take a
// row lock (SELECT ... FOR UPDATE) so concurrent payments serialize per debt.
//
// Change notifications are in-process: subscribers only see writes made
// through this Store value.
type Store struct {
	db   *gorm.DB
	feed *storage.Feed
	now  func() time.Time
}

// New connects to the database at dsn and migrates the schema.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewFromDB(db)
}

// NewFromDB wraps an open gorm connection and migrates the schema.
func NewFromDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&debtRow{}, &paymentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db, feed: storage.NewFeed(), now: time.Now}, nil
}

// Close stops live subscriptions and closes the connection pool.
func (s *Store) Close() error {
	s.feed.Close()
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get connection pool: %w", err)
	}
	return sqlDB.Close()
}

// WithTx runs fn inside one database transaction and notifies subscribers
// after it commits.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	touched := make(map[string]struct{})
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&records{db: tx, now: s.now, touched: touched})
	})
	if err != nil {
		return err
	}
	for ownerID := range touched {
		s.feed.Notify(ownerID)
	}
	return nil
}

func (s *Store) reader(ctx context.Context) *records {
	return &records{db: s.db.WithContext(ctx), now: s.now}
}

func (s *Store) CreateDebt(ctx context.Context, debt *models.Debt) error {
	return s.WithTx(ctx, func(tx storage.Tx) error { return tx.CreateDebt(ctx, debt) })
}

func (s *Store) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	return s.reader(ctx).GetDebt(ctx, debtID)
}

func (s *Store) ListDebts(ctx context.Context, q storage.DebtQuery) ([]*models.Debt, error) {
	return s.reader(ctx).ListDebts(ctx, q)
}

func (s *Store) UpdateDebtDetails(ctx context.Context, debt *models.Debt) error {
	return s.WithTx(ctx, func(tx storage.Tx) error { return tx.UpdateDebtDetails(ctx, debt) })
}

func (s *Store) IncrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	var updated *models.Debt
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		updated, err = tx.IncrementPaidAmount(ctx, debtID, delta)
		return err
	})
	return updated, err
}

func (s *Store) DecrementPaidAmount(ctx context.Context, debtID string, delta decimal.Decimal) (*models.Debt, error) {
	var updated *models.Debt
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		updated, err = tx.DecrementPaidAmount(ctx, debtID, delta)
		return err
	})
	return updated, err
}

func (s *Store) DeleteDebt(ctx context.Context, debtID string) error {
	return s.WithTx(ctx, func(tx storage.Tx) error { return tx.DeleteDebt(ctx, debtID) })
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.DebtPayment) error {
	return s.WithTx(ctx, func(tx storage.Tx) error { return tx.CreatePayment(ctx, payment) })
}

func (s *Store) GetPayment(ctx context.Context, debtID, paymentID string) (*models.DebtPayment, error) {
	return s.reader(ctx).GetPayment(ctx, debtID, paymentID)
}

func (s *Store) ListPayments(ctx context.Context, q storage.PaymentQuery) ([]*models.DebtPayment, error) {
	return s.reader(ctx).ListPayments(ctx, q)
}

func (s *Store) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	return s.WithTx(ctx, func(tx storage.Tx) error { return tx.DeletePayment(ctx, debtID, paymentID) })
}

func (s *Store) SubscribeDebts(ctx context.Context, q storage.DebtQuery) (*storage.Subscription[*models.Debt], error) {
	return storage.Watch(ctx, s.feed, q.OwnerID, func(ctx context.Context) ([]*models.Debt, error) {
		return s.ListDebts(ctx, q)
	}), nil
}

func (s *Store) SubscribePayments(ctx context.Context, q storage.PaymentQuery) (*storage.Subscription[*models.DebtPayment], error) {
	return storage.Watch(ctx, s.feed, q.OwnerID, func(ctx context.Context) ([]*models.DebtPayment, error) {
		return s.ListPayments(ctx, q)
	}), nil
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf(format+": %w", append(args, storage.ErrNotFound)...)
	}
	return err
}
