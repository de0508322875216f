// Package storage defines persistence interfaces for the owned state of the
// verification core: the score ledger, the appeal slots, the audit trail and
// the system configuration singleton.
package storage

import (
	"context"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
)

// LedgerStore persists the latest score entry per application. Puts overwrite.
type LedgerStore interface {
	GetScoreEntry(ctx context.Context, applicationID string) (subsidy.ScoreEntry, bool, error)
	PutScoreEntry(ctx context.Context, entry subsidy.ScoreEntry) error
}

// AppealStore persists the single appeal slot per application.
type AppealStore interface {
	GetAppeal(ctx context.Context, applicationID string) (subsidy.Appeal, bool, error)
	PutAppeal(ctx context.Context, appeal subsidy.Appeal) error
}

// AuditStore persists the append-only audit trail. AppendAudit assigns the
// next sequential verification id by advancing SystemConfig.TotalVerifications
// and returns the stored entry; entries are never mutated or deleted.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry subsidy.AuditEntry) (subsidy.AuditEntry, error)
	GetAuditEntry(ctx context.Context, verificationID uint64) (subsidy.AuditEntry, bool, error)
	ListAudit(ctx context.Context, afterID uint64, limit int) ([]subsidy.AuditEntry, error)
}

// ConfigStore persists the SystemConfig singleton.
type ConfigStore interface {
	GetConfig(ctx context.Context) (subsidy.SystemConfig, error)
	PutConfig(ctx context.Context, cfg subsidy.SystemConfig) error
}

// Store is the full owned-state persistence surface. Tx runs fn against a
// staged view of the store: every write fn performs is committed atomically
// when fn returns nil and discarded entirely otherwise. Operations are
// serialized; a Tx never observes another operation's partial writes.
type Store interface {
	LedgerStore
	AppealStore
	AuditStore
	ConfigStore

	Tx(ctx context.Context, fn func(tx Store) error) error
}
