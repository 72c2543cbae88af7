package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/minwoo-dev/talklink/internal/domain"
)

// PostgresStore provides typed access to the Postgres tables.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	schema string
}

// NewPostgres opens a connection pool with the desired search_path.
func NewPostgres(ctx context.Context, databaseURL, schema string, logger zerolog.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("module", "repo.postgres").Logger(),
		schema: schema,
	}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (s *PostgresStore) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	sqlContent, err := fs.ReadFile(filesystem, "postgres/001_init.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(sqlContent)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	s.logger.Info().Msg("migrations applied")
	return nil
}

// -- Users --

func (s *PostgresStore) UpsertUser(ctx context.Context, user domain.User) error {
	const q = `
INSERT INTO users (id, email, nickname, profile_image, age_group, gender)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    email = excluded.email,
    nickname = excluded.nickname,
    profile_image = COALESCE(NULLIF(excluded.profile_image, ''), users.profile_image),
    age_group = COALESCE(excluded.age_group, users.age_group),
    gender = COALESCE(excluded.gender, users.gender);
`
	if _, err := s.pool.Exec(ctx, q, int64(user.ID), user.Email, user.Nickname, user.ProfileImage, user.AgeGroup, user.Gender); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UserExists(ctx context.Context, id domain.UserID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1);`
	var exists bool
	if err := s.pool.QueryRow(ctx, q, int64(id)).Scan(&exists); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

// -- Ledger --

const pgInsertEntry = `
INSERT INTO points (user_id, amount, kind, reason, reference_type, reference_id)
VALUES ($1, $2, $3, $4, $5, $6);
`

func (s *PostgresStore) InsertLedgerEntry(ctx context.Context, entry domain.LedgerEntry) error {
	if _, err := s.pool.Exec(ctx, pgInsertEntry,
		int64(entry.UserID), entry.Amount, string(entry.Kind), entry.Reason, entry.ReferenceType, entry.ReferenceID,
	); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertLedgerPair(ctx context.Context, debit, credit domain.LedgerEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin gift tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, entry := range []domain.LedgerEntry{debit, credit} {
		if _, err := tx.Exec(ctx, pgInsertEntry,
			int64(entry.UserID), entry.Amount, string(entry.Kind), entry.Reason, entry.ReferenceType, entry.ReferenceID,
		); err != nil {
			return fmt.Errorf("insert ledger pair: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit gift tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Balance(ctx context.Context, userID domain.UserID) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount), 0)::bigint FROM points WHERE user_id = $1;`
	var balance int64
	if err := s.pool.QueryRow(ctx, q, int64(userID)).Scan(&balance); err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	return balance, nil
}

func (s *PostgresStore) LedgerHistory(ctx context.Context, userID domain.UserID, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT user_id, amount, kind, reason, COALESCE(reference_type, ''), COALESCE(reference_id, ''), created_at
FROM points
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := s.pool.Query(ctx, q, int64(userID), limit)
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

func (s *PostgresStore) InsertSettlement(ctx context.Context, record domain.CallRecord, entries []domain.LedgerEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin settlement tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO call_history (
    call_id, room_id, host_user_id, guest_user_id, call_type, language, topic,
    started_at, ended_at, duration_seconds, host_earnings, guest_charge,
    host_exited_early, penalty_points, guest_grace_exit, end_reason
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
`
	if _, err := tx.Exec(ctx, q,
		record.CallID, string(record.RoomID), int64(record.HostUserID), int64(record.GuestUserID),
		string(record.CallType), record.Language, record.Topic,
		record.StartedAt, record.EndedAt, record.DurationSeconds,
		record.HostEarnings, record.GuestCharge,
		record.HostExitedEarly, record.PenaltyPoints, record.GuestGraceExit, record.EndReason,
	); err != nil {
		return fmt.Errorf("insert call record: %w", err)
	}
	for _, entry := range entries {
		if _, err := tx.Exec(ctx, pgInsertEntry,
			int64(entry.UserID), entry.Amount, string(entry.Kind), entry.Reason, entry.ReferenceType, entry.ReferenceID,
		); err != nil {
			return fmt.Errorf("insert settlement entry: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit settlement tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestCallByPair(ctx context.Context, a, b domain.UserID) (*domain.CallRecord, error) {
	const q = `
SELECT call_id, room_id, host_user_id, guest_user_id, call_type, duration_seconds, end_reason, created_at
FROM call_history
WHERE (host_user_id = $1 AND guest_user_id = $2)
   OR (host_user_id = $2 AND guest_user_id = $1)
ORDER BY created_at DESC
LIMIT 1;
`
	var rec domain.CallRecord
	var roomID, callType string
	var hostID, guestID int64
	err := s.pool.QueryRow(ctx, q, int64(a), int64(b)).Scan(
		&rec.CallID, &roomID, &hostID, &guestID, &callType,
		&rec.DurationSeconds, &rec.EndReason, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) HasRating(ctx context.Context, callID string, rater domain.UserID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM ratings WHERE call_id = $1 AND rater_user_id = $2);`
	var exists bool
	if err := s.pool.QueryRow(ctx, q, callID, int64(rater)).Scan(&exists); err != nil {
		return false, fmt.Errorf("has rating: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertRating(ctx context.Context, rating domain.Rating) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rating tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertRating = `
INSERT INTO ratings (call_id, rater_user_id, rated_user_id, rating_score, rating_comment)
VALUES ($1, $2, $3, $4, $5);
`
	if _, err := tx.Exec(ctx, insertRating,
		rating.CallID, int64(rating.RaterUserID), int64(rating.RatedUserID), rating.Score, rating.Comment,
	); err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}

	if delta := domain.DegreeDelta(rating.Score); delta != 0 {
		const updateDegree = `UPDATE users SET degree = degree + $1 WHERE id = $2;`
		if _, err := tx.Exec(ctx, updateDegree, delta, int64(rating.RatedUserID)); err != nil {
			return fmt.Errorf("update degree: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, pgInsertEntry,
		int64(rating.RaterUserID), int64(1), string(domain.KindEarn), domain.ReasonRatingReward, "ratings", rating.CallID,
	); err != nil {
		return fmt.Errorf("insert rating reward: %w", err)
	}
	if rating.Score == 5 {
		if _, err := tx.Exec(ctx, pgInsertEntry,
			int64(rating.RatedUserID), int64(1), string(domain.KindEarn), domain.ReasonFiveStarBonus, "ratings", rating.CallID,
		); err != nil {
			return fmt.Errorf("insert five star bonus: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rating tx: %w", err)
	}
	return nil
}
