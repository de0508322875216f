package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
)

func TestMemory_AuditSequence(t *testing.T) {
	store := NewMemory(subsidy.SystemConfig{AdminID: "admin"})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		entry, err := store.AppendAudit(ctx, subsidy.AuditEntry{ApplicationID: "app-1", Score: int64(i)})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if entry.VerificationID != uint64(i) {
			t.Fatalf("expected verification id %d, got %d", i, entry.VerificationID)
		}
	}

	cfg, err := store.GetConfig(ctx)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if cfg.TotalVerifications != 3 {
		t.Fatalf("expected total 3, got %d", cfg.TotalVerifications)
	}

	entry, ok, err := store.GetAuditEntry(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("get audit entry: ok=%t err=%v", ok, err)
	}
	if entry.Score != 2 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if _, ok, _ := store.GetAuditEntry(ctx, 99); ok {
		t.Fatalf("unknown id should be absent, not an error")
	}
}

func TestMemory_TxCommit(t *testing.T) {
	store := NewMemory(subsidy.SystemConfig{AdminID: "admin"})
	ctx := context.Background()

	err := store.Tx(ctx, func(tx Store) error {
		if err := tx.PutScoreEntry(ctx, subsidy.ScoreEntry{ApplicationID: "app-1", Score: 80, VerifiedAt: 10}); err != nil {
			return err
		}
		if _, err := tx.AppendAudit(ctx, subsidy.AuditEntry{ApplicationID: "app-1", Score: 80, Outcome: true}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	entry, ok, _ := store.GetScoreEntry(ctx, "app-1")
	if !ok || entry.Score != 80 {
		t.Fatalf("committed entry missing: ok=%t entry=%+v", ok, entry)
	}
	cfg, _ := store.GetConfig(ctx)
	if cfg.TotalVerifications != 1 {
		t.Fatalf("expected audit sequence advanced, got %d", cfg.TotalVerifications)
	}
}

func TestMemory_TxRollback(t *testing.T) {
	store := NewMemory(subsidy.SystemConfig{AdminID: "admin"})
	ctx := context.Background()

	boom := fmt.Errorf("boom")
	err := store.Tx(ctx, func(tx Store) error {
		if err := tx.PutScoreEntry(ctx, subsidy.ScoreEntry{ApplicationID: "app-1", Score: 80}); err != nil {
			return err
		}
		if _, err := tx.AppendAudit(ctx, subsidy.AuditEntry{ApplicationID: "app-1"}); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("expected fn error surfaced, got %v", err)
	}

	if _, ok, _ := store.GetScoreEntry(ctx, "app-1"); ok {
		t.Fatalf("rolled back entry should be absent")
	}
	cfg, _ := store.GetConfig(ctx)
	if cfg.TotalVerifications != 0 {
		t.Fatalf("audit sequence should be untouched after rollback, got %d", cfg.TotalVerifications)
	}
}

func TestMemory_ScoreEntryCloneIsolation(t *testing.T) {
	store := NewMemory(subsidy.SystemConfig{})
	ctx := context.Background()

	factors := []subsidy.Factor{{Name: "land", Points: 30}}
	if err := store.PutScoreEntry(ctx, subsidy.ScoreEntry{ApplicationID: "app-1", Score: 30, Factors: factors}); err != nil {
		t.Fatalf("put: %v", err)
	}
	factors[0].Points = 99

	entry, _, _ := store.GetScoreEntry(ctx, "app-1")
	if entry.Factors[0].Points != 30 {
		t.Fatalf("stored factors should be isolated from caller slice, got %d", entry.Factors[0].Points)
	}
}
