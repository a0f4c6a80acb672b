package ledger

import (
	"context"

	"fintrack/internal/core"
)

// Ports for storage adapters.
type (
	// TransactionStore holds transaction records, each owned by a user
	// (persisted variant) or by the anonymous session (memory variant).
	TransactionStore interface {
		// Add validates and appends a transaction, returning its stable ID.
		Add(ctx context.Context, tx core.Transaction) (id int64, err error)
		// List returns all transactions of the owner in insertion order.
		List(ctx context.Context, owner int64) ([]core.Transaction, error)
		// Delete removes the owner's transaction with the given ID.
		// It returns core.ErrTransactionNotFound when no such row exists
		// for that owner.
		Delete(ctx context.Context, owner int64, id int64) error
	}

	// CredentialStore maps usernames to password hashes and enforces
	// username uniqueness.
	CredentialStore interface {
		// Register creates an account, returning core.ErrDuplicateUsername
		// when the username is already present.
		Register(ctx context.Context, username, password string) (userID int64, err error)
		// Authenticate returns the user's ID, or core.ErrInvalidCredentials
		// for both unknown usernames and wrong passwords.
		Authenticate(ctx context.Context, username, password string) (userID int64, err error)
	}
)
