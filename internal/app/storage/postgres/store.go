// Package postgres implements the storage interfaces backed by PostgreSQL.
// The schema lives in schema.sql next to this file.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/storage"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements storage.Store over a database handle.
type Store struct {
	db *sql.DB
	q  querier
}

var _ storage.Store = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Init ensures the config singleton row exists, seeding it from cfg. Existing
// values are kept; only a missing row is inserted.
func (s *Store) Init(ctx context.Context, cfg subsidy.SystemConfig) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO subsidy_config (id, oracle_id, admin_id, paused, verification_fee, total_verifications)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, cfg.OracleID, cfg.AdminID, cfg.Paused, cfg.VerificationFee, int64(cfg.TotalVerifications))
	return err
}

// --- LedgerStore ------------------------------------------------------------

func (s *Store) GetScoreEntry(ctx context.Context, applicationID string) (subsidy.ScoreEntry, bool, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT application_id, score, verified_at, factors
		FROM subsidy_scores
		WHERE application_id = $1
	`, applicationID)

	var (
		entry      subsidy.ScoreEntry
		factorsRaw []byte
	)
	if err := row.Scan(&entry.ApplicationID, &entry.Score, &entry.VerifiedAt, &factorsRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return subsidy.ScoreEntry{}, false, nil
		}
		return subsidy.ScoreEntry{}, false, err
	}
	if len(factorsRaw) > 0 {
		if err := json.Unmarshal(factorsRaw, &entry.Factors); err != nil {
			return subsidy.ScoreEntry{}, false, fmt.Errorf("decode factors: %w", err)
		}
	}
	return entry, true, nil
}

func (s *Store) PutScoreEntry(ctx context.Context, entry subsidy.ScoreEntry) error {
	factorsJSON, err := json.Marshal(entry.Factors)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO subsidy_scores (application_id, score, verified_at, factors, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (application_id) DO UPDATE
		SET score = EXCLUDED.score,
		    verified_at = EXCLUDED.verified_at,
		    factors = EXCLUDED.factors,
		    updated_at = EXCLUDED.updated_at
	`, entry.ApplicationID, entry.Score, int64(entry.VerifiedAt), factorsJSON, time.Now().UTC())
	return err
}

// --- AppealStore ------------------------------------------------------------

func (s *Store) GetAppeal(ctx context.Context, applicationID string) (subsidy.Appeal, bool, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT application_id, reason, submitted_at, resolved, resolver
		FROM subsidy_appeals
		WHERE application_id = $1
	`, applicationID)

	var appeal subsidy.Appeal
	if err := row.Scan(&appeal.ApplicationID, &appeal.Reason, &appeal.SubmittedAt, &appeal.Resolved, &appeal.Resolver); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return subsidy.Appeal{}, false, nil
		}
		return subsidy.Appeal{}, false, err
	}
	return appeal, true, nil
}

func (s *Store) PutAppeal(ctx context.Context, appeal subsidy.Appeal) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO subsidy_appeals (application_id, reason, submitted_at, resolved, resolver)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (application_id) DO UPDATE
		SET reason = EXCLUDED.reason,
		    submitted_at = EXCLUDED.submitted_at,
		    resolved = EXCLUDED.resolved,
		    resolver = EXCLUDED.resolver
	`, appeal.ApplicationID, appeal.Reason, int64(appeal.SubmittedAt), appeal.Resolved, appeal.Resolver)
	return err
}

// --- AuditStore -------------------------------------------------------------

func (s *Store) AppendAudit(ctx context.Context, entry subsidy.AuditEntry) (subsidy.AuditEntry, error) {
	row := s.q.QueryRowContext(ctx, `
		UPDATE subsidy_config
		SET total_verifications = total_verifications + 1
		WHERE id = 1
		RETURNING total_verifications
	`)
	var next int64
	if err := row.Scan(&next); err != nil {
		return subsidy.AuditEntry{}, fmt.Errorf("advance audit sequence: %w", err)
	}
	entry.VerificationID = uint64(next)

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO subsidy_audit_log (verification_id, application_id, farmer, score, height, outcome, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, next, entry.ApplicationID, entry.Farmer, entry.Score, int64(entry.Timestamp), entry.Outcome, time.Now().UTC())
	if err != nil {
		return subsidy.AuditEntry{}, err
	}
	return entry, nil
}

func (s *Store) GetAuditEntry(ctx context.Context, verificationID uint64) (subsidy.AuditEntry, bool, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT verification_id, application_id, farmer, score, height, outcome
		FROM subsidy_audit_log
		WHERE verification_id = $1
	`, int64(verificationID))

	var entry subsidy.AuditEntry
	if err := row.Scan(&entry.VerificationID, &entry.ApplicationID, &entry.Farmer, &entry.Score, &entry.Timestamp, &entry.Outcome); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return subsidy.AuditEntry{}, false, nil
		}
		return subsidy.AuditEntry{}, false, err
	}
	return entry, true, nil
}

func (s *Store) ListAudit(ctx context.Context, afterID uint64, limit int) ([]subsidy.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT verification_id, application_id, farmer, score, height, outcome
		FROM subsidy_audit_log
		WHERE verification_id > $1
		ORDER BY verification_id
		LIMIT $2
	`, int64(afterID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]subsidy.AuditEntry, 0)
	for rows.Next() {
		var entry subsidy.AuditEntry
		if err := rows.Scan(&entry.VerificationID, &entry.ApplicationID, &entry.Farmer, &entry.Score, &entry.Timestamp, &entry.Outcome); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// --- ConfigStore ------------------------------------------------------------

func (s *Store) GetConfig(ctx context.Context) (subsidy.SystemConfig, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT oracle_id, admin_id, paused, verification_fee, total_verifications
		FROM subsidy_config
		WHERE id = 1
	`)

	var cfg subsidy.SystemConfig
	if err := row.Scan(&cfg.OracleID, &cfg.AdminID, &cfg.Paused, &cfg.VerificationFee, &cfg.TotalVerifications); err != nil {
		return subsidy.SystemConfig{}, err
	}
	return cfg, nil
}

func (s *Store) PutConfig(ctx context.Context, cfg subsidy.SystemConfig) error {
	result, err := s.q.ExecContext(ctx, `
		UPDATE subsidy_config
		SET oracle_id = $1, admin_id = $2, paused = $3, verification_fee = $4, total_verifications = $5
		WHERE id = 1
	`, cfg.OracleID, cfg.AdminID, cfg.Paused, cfg.VerificationFee, int64(cfg.TotalVerifications))
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- Tx ---------------------------------------------------------------------

// Tx runs fn inside a database transaction. The staged view is a Store bound
// to the transaction handle; nesting is not supported.
func (s *Store) Tx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.db == nil {
		return fmt.Errorf("nested transactions are not supported")
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	staged := &Store{q: sqlTx}
	if err := fn(staged); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}
