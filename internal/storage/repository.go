package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

// SQLiteRepository is the persisted-variant store. It implements both
// ledger.TransactionStore and ledger.CredentialStore over two tables.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Register implements ledger.CredentialStore.
func (r *SQLiteRepository) Register(ctx context.Context, username, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?) RETURNING id`,
		username, string(hash),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, core.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "id", id, "username", username)
	return id, nil
}

// Authenticate implements ledger.CredentialStore. Unknown usernames and
// wrong passwords both report core.ErrInvalidCredentials.
func (r *SQLiteRepository) Authenticate(ctx context.Context, username, password string) (int64, error) {
	var (
		id   int64
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username = ?`,
		username,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrInvalidCredentials
	}
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return 0, core.ErrInvalidCredentials
	}
	return id, nil
}

// Add implements ledger.TransactionStore.
func (r *SQLiteRepository) Add(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (user_id, date, category, amount_cents, kind)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		tx.Owner, tx.Date.String(), tx.Category, tx.Amount.Cents, string(tx.Kind),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"owner", tx.Owner,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents,
		"kind", tx.Kind)

	return id, nil
}

// List implements ledger.TransactionStore. Rows come back in insertion
// order so both variants agree on listing order.
func (r *SQLiteRepository) List(ctx context.Context, owner int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, category, amount_cents, kind
		 FROM transactions WHERE user_id = ? ORDER BY id`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx    core.Transaction
			date  string
			kind  string
			cents int64
		)
		if err := rows.Scan(&tx.ID, &tx.Owner, &date, &tx.Category, &cents, &kind); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		tx.Amount = core.Money{Cents: cents}
		tx.Kind = core.Kind(kind)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Delete implements ledger.TransactionStore. The row must belong to the
// owner; another owner's ID reports not found, same as an absent one.
func (r *SQLiteRepository) Delete(ctx context.Context, owner int64, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrTransactionNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner", owner)
	return nil
}

// isUniqueViolation recognizes the sqlite UNIQUE constraint failure on
// users.username. modernc.org/sqlite surfaces constraint violations as
// plain errors with the constraint name in the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
