package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
)

// Memory is a thread-safe in-memory Store. It backs tests and local runs and
// deliberately keeps the implementation simple: Tx stages a full copy of the
// state and swaps it in on commit.
type Memory struct {
	mu      sync.RWMutex
	scores  map[string]subsidy.ScoreEntry
	appeals map[string]subsidy.Appeal
	audit   map[uint64]subsidy.AuditEntry
	config  subsidy.SystemConfig

	txMu sync.Mutex
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store seeded with the given config.
func NewMemory(cfg subsidy.SystemConfig) *Memory {
	return &Memory{
		scores:  make(map[string]subsidy.ScoreEntry),
		appeals: make(map[string]subsidy.Appeal),
		audit:   make(map[uint64]subsidy.AuditEntry),
		config:  cfg,
	}
}

func (m *Memory) GetScoreEntry(_ context.Context, applicationID string) (subsidy.ScoreEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.scores[applicationID]
	if !ok {
		return subsidy.ScoreEntry{}, false, nil
	}
	return cloneScoreEntry(entry), true, nil
}

func (m *Memory) PutScoreEntry(_ context.Context, entry subsidy.ScoreEntry) error {
	if entry.ApplicationID == "" {
		return fmt.Errorf("score entry application id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scores[entry.ApplicationID] = cloneScoreEntry(entry)
	return nil
}

func (m *Memory) GetAppeal(_ context.Context, applicationID string) (subsidy.Appeal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	appeal, ok := m.appeals[applicationID]
	return appeal, ok, nil
}

func (m *Memory) PutAppeal(_ context.Context, appeal subsidy.Appeal) error {
	if appeal.ApplicationID == "" {
		return fmt.Errorf("appeal application id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.appeals[appeal.ApplicationID] = appeal
	return nil
}

func (m *Memory) AppendAudit(_ context.Context, entry subsidy.AuditEntry) (subsidy.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config.TotalVerifications++
	entry.VerificationID = m.config.TotalVerifications
	m.audit[entry.VerificationID] = entry
	return entry, nil
}

func (m *Memory) GetAuditEntry(_ context.Context, verificationID uint64) (subsidy.AuditEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.audit[verificationID]
	return entry, ok, nil
}

func (m *Memory) ListAudit(_ context.Context, afterID uint64, limit int) ([]subsidy.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]subsidy.AuditEntry, 0)
	for id, entry := range m.audit {
		if id > afterID {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VerificationID < result[j].VerificationID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) GetConfig(_ context.Context) (subsidy.SystemConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.config, nil
}

func (m *Memory) PutConfig(_ context.Context, cfg subsidy.SystemConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = cfg
	return nil
}

// Tx stages a copy of the whole state, runs fn against it and swaps the copy
// in when fn succeeds. The transaction mutex serializes mutating operations,
// so a Tx never observes another operation's partial writes.
func (m *Memory) Tx(ctx context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	staged := m.snapshot()
	if err := fn(staged); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = staged.scores
	m.appeals = staged.appeals
	m.audit = staged.audit
	m.config = staged.config
	return nil
}

func (m *Memory) snapshot() *Memory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := make(map[string]subsidy.ScoreEntry, len(m.scores))
	for k, v := range m.scores {
		scores[k] = cloneScoreEntry(v)
	}
	appeals := make(map[string]subsidy.Appeal, len(m.appeals))
	for k, v := range m.appeals {
		appeals[k] = v
	}
	audit := make(map[uint64]subsidy.AuditEntry, len(m.audit))
	for k, v := range m.audit {
		audit[k] = v
	}
	return &Memory{
		scores:  scores,
		appeals: appeals,
		audit:   audit,
		config:  m.config,
	}
}

func cloneScoreEntry(entry subsidy.ScoreEntry) subsidy.ScoreEntry {
	entry.Factors = append([]subsidy.Factor(nil), entry.Factors...)
	return entry
}
