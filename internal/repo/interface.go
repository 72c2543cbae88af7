package repo

import (
	"context"
	"errors"
	"io/fs"

	"github.com/minwoo-dev/talklink/internal/domain"
)

// ErrNotFound is returned by lookups that matched nothing.
var ErrNotFound = errors.New("not found")

// Store defines the persistence surface of the settlement core: an
// append-only point ledger, a call-history table and ratings. Entries are
// immutable once written; corrections are new offsetting entries.
type Store interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Users
	UpsertUser(ctx context.Context, user domain.User) error
	UserExists(ctx context.Context, id domain.UserID) (bool, error)

	// Ledger
	InsertLedgerEntry(ctx context.Context, entry domain.LedgerEntry) error
	// InsertLedgerPair writes both entries in one transaction; a gift is
	// never partially applied.
	InsertLedgerPair(ctx context.Context, debit, credit domain.LedgerEntry) error
	Balance(ctx context.Context, userID domain.UserID) (int64, error)
	LedgerHistory(ctx context.Context, userID domain.UserID, limit int) ([]domain.LedgerEntry, error)

	// Calls
	// InsertSettlement writes the call record and every ledger entry of a
	// session in one transaction.
	InsertSettlement(ctx context.Context, record domain.CallRecord, entries []domain.LedgerEntry) error
	LatestCallByPair(ctx context.Context, a, b domain.UserID) (*domain.CallRecord, error)

	// Ratings
	HasRating(ctx context.Context, callID string, rater domain.UserID) (bool, error)
	// InsertRating writes the rating, the rated user's degree delta, the
	// reviewer reward and the five-star bonus in one transaction.
	InsertRating(ctx context.Context, rating domain.Rating) error
}
