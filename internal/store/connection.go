package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"taxdesk/internal/logger"
	"taxdesk/pkg/models"
)

// Store is the SQLite-backed ledger of tenant transactions and report snapshots.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens the SQLite database at dbPath, creating it and its schema when missing.
// WAL mode and foreign keys are enabled on the connection.
func Open(dbPath string) (*Store, error) {
	const op = "store.Open"

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("%s: failed to create database directory: %w", op, err)
		}
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	s := &Store{
		db:  db,
		log: logger.WithComponent("store"),
	}

	if err := s.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to initialize schema: %w", op, err)
	}

	s.log.Debug().Str("path", dbPath).Msg("Database opened")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Tx exposes the store's write operations inside a transaction.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) SaveInvoice(ctx context.Context, inv models.Invoice) error {
	return saveInvoice(ctx, t.tx, inv)
}

func (t *Tx) SaveExpense(ctx context.Context, e models.Expense) error {
	return saveExpense(ctx, t.tx, e)
}

func (t *Tx) SaveRecurringExpense(ctx context.Context, r models.RecurringExpense) error {
	return saveRecurringExpense(ctx, t.tx, r)
}

func (t *Tx) SaveTimeEntry(ctx context.Context, te models.TimeEntry) error {
	return saveTimeEntry(ctx, t.tx, te)
}

func (t *Tx) SetBalance(ctx context.Context, tenantID string, balance decimal.Decimal) error {
	return setBalance(ctx, t.tx, tenantID, balance)
}

// Transaction executes fn within a transaction. The transaction is rolled
// back when fn returns an error or panics, and committed otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *Store) initializeSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}
