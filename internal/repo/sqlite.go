package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/minwoo-dev/talklink/internal/domain"
)

// SQLiteStore backs the same Store interface with a local SQLite file,
// for single-node deployments and local development.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLite opens the database with WAL mode and a busy timeout, which
// SQLite needs under concurrent writers.
func NewSQLite(ctx context.Context, databasePath string, logger zerolog.Logger) (*SQLiteStore, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is empty")
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn = fmt.Sprintf("%s%s_pragma=busy_timeout=10000&_pragma=journal_mode=WAL&_pragma=foreign_keys=ON", dsn, sep)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		logger: logger.With().Str("module", "repo.sqlite").Logger(),
	}, nil
}

func (s *SQLiteStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	sqlContent, err := fs.ReadFile(filesystem, "sqlite/001_init.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(sqlContent)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	s.logger.Info().Msg("migrations applied")
	return nil
}

// -- Users --

func (s *SQLiteStore) UpsertUser(ctx context.Context, user domain.User) error {
	const q = `
INSERT INTO users (id, email, nickname, profile_image, age_group, gender)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    email = excluded.email,
    nickname = excluded.nickname,
    profile_image = COALESCE(NULLIF(excluded.profile_image, ''), users.profile_image),
    age_group = COALESCE(excluded.age_group, users.age_group),
    gender = COALESCE(excluded.gender, users.gender);
`
	if _, err := s.db.ExecContext(ctx, q, int64(user.ID), user.Email, user.Nickname, user.ProfileImage, user.AgeGroup, user.Gender); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UserExists(ctx context.Context, id domain.UserID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?);`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, int64(id)).Scan(&exists); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

// -- Ledger --

const sqliteInsertEntry = `
INSERT INTO points (user_id, amount, kind, reason, reference_type, reference_id)
VALUES (?, ?, ?, ?, ?, ?);
`

func (s *SQLiteStore) InsertLedgerEntry(ctx context.Context, entry domain.LedgerEntry) error {
	if _, err := s.db.ExecContext(ctx, sqliteInsertEntry,
		int64(entry.UserID), entry.Amount, string(entry.Kind), entry.Reason, entry.ReferenceType, entry.ReferenceID,
	); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertLedgerPair(ctx context.Context, debit, credit domain.LedgerEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin gift tx: %w", err)
	}
	defer tx.Rollback()

	for _, entry := range []domain.LedgerEntry{debit, credit} {
		if _, err := tx.ExecContext(ctx, sqliteInsertEntry,
			int64(entry.UserID), entry.Amount, string(entry.Kind), entry.Reason, entry.ReferenceType, entry.ReferenceID,
		); err != nil {
			return fmt.Errorf("insert ledger pair: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit gift tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Balance(ctx context.Context, userID domain.UserID) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM points WHERE user_id = ?;`
	var balance int64
	if err := s.db.QueryRowContext(ctx, q, int64(userID)).Scan(&balance); err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	return balance, nil
}

func (s *SQLiteStore) LedgerHistory(ctx context.Context, userID domain.UserID, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT user_id, amount, kind, reason, COALESCE(reference_type, ''), COALESCE(reference_id, ''), created_at
FROM points
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT ?;
`
	rows, err := s.db.QueryContext(ctx, q, int64(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("ledger history: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var uid int64
		var kind string
		if err := rows.Scan(&uid, &e.Amount, &kind, &e.Reason, &e.ReferenceType, &e.ReferenceID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger history: %w", err)
		}
		e.UserID = domain.UserID(uid)
		e.Kind = domain.EntryKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// -- Calls --

func (s *SQLiteStore) InsertSettlement(ctx context.Context, record domain.CallRecord, entries []domain.LedgerEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settlement tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
INSERT INTO call_history (
    call_id, room_id, host_user_id, guest_user_id, call_type, language, topic,
    started_at, ended_at, duration_seconds, host_earnings, guest_charge,
    host_exited_early, penalty_points, guest_grace_exit, end_reason
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	if _, err := tx.ExecContext(ctx, q,
		record.CallID, string(record.RoomID), int64(record.HostUserID), int64(record.GuestUserID),
		string(record.CallType), record.Language, record.Topic,
		record.StartedAt, record.EndedAt, record.DurationSeconds,
		record.HostEarnings, record.GuestCharge,
		record.HostExitedEarly, record.PenaltyPoints, record.GuestGraceExit, record.EndReason,
	); err != nil {
		return fmt.Errorf("insert call record: %w", err)
	}
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, sqliteInsertEntry,
			int64(entry.UserID), entry.Amount, string(entry.Kind), entry.Reason, entry.ReferenceType, entry.ReferenceID,
		); err != nil {
			return fmt.Errorf("insert settlement entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settlement tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestCallByPair(ctx context.Context, a, b domain.UserID) (*domain.CallRecord, error) {
	const q = `
SELECT call_id, room_id, host_user_id, guest_user_id, call_type, duration_seconds, end_reason, created_at
FROM call_history
WHERE (host_user_id = ? AND guest_user_id = ?)
   OR (host_user_id = ? AND guest_user_id = ?)
ORDER BY created_at DESC
LIMIT 1;
`
	var rec domain.CallRecord
	var roomID, callType string
	var hostID, guestID int64
	err := s.db.QueryRowContext(ctx, q, int64(a), int64(b), int64(b), int64(a)).Scan(
		&rec.CallID, &roomID, &hostID, &guestID, &callType,
		&rec.DurationSeconds, &rec.EndReason, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest call by pair: %w", err)
	}
	rec.RoomID = domain.RoomID(roomID)
	rec.HostUserID = domain.UserID(hostID)
	rec.GuestUserID = domain.UserID(guestID)
	rec.CallType = domain.CallType(callType)
	return &rec, nil
}

// -- Ratings --

func (s *SQLiteStore) HasRating(ctx context.Context, callID string, rater domain.UserID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM ratings WHERE call_id = ? AND rater_user_id = ?);`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, callID, int64(rater)).Scan(&exists); err != nil {
		return false, fmt.Errorf("has rating: %w", err)
	}
	return exists, nil
}

func (s *SQLiteStore) InsertRating(ctx context.Context, rating domain.Rating) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rating tx: %w", err)
	}
	defer tx.Rollback()

	const insertRating = `
INSERT INTO ratings (call_id, rater_user_id, rated_user_id, rating_score, rating_comment)
VALUES (?, ?, ?, ?, ?);
`
	if _, err := tx.ExecContext(ctx, insertRating,
		rating.CallID, int64(rating.RaterUserID), int64(rating.RatedUserID), rating.Score, rating.Comment,
	); err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}

	if delta := domain.DegreeDelta(rating.Score); delta != 0 {
		const updateDegree = `UPDATE users SET degree = degree + ? WHERE id = ?;`
		if _, err := tx.ExecContext(ctx, updateDegree, delta, int64(rating.RatedUserID)); err != nil {
			return fmt.Errorf("update degree: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, sqliteInsertEntry,
		int64(rating.RaterUserID), int64(1), string(domain.KindEarn), domain.ReasonRatingReward, "ratings", rating.CallID,
	); err != nil {
		return fmt.Errorf("insert rating reward: %w", err)
	}
	if rating.Score == 5 {
		if _, err := tx.ExecContext(ctx, sqliteInsertEntry,
			int64(rating.RatedUserID), int64(1), string(domain.KindEarn), domain.ReasonFiveStarBonus, "ratings", rating.CallID,
		); err != nil {
			return fmt.Errorf("insert five star bonus: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rating tx: %w", err)
	}
	return nil
}
