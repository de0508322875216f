package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/storage"
)

func newService(cfg subsidy.SystemConfig) (*Service, *storage.Memory) {
	store := storage.NewMemory(cfg)
	return New(store, nil), store
}

func TestSetOracle(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(subsidy.SystemConfig{AdminID: "admin", OracleID: "oracle-old"})

	updated, err := svc.SetOracle(ctx, "admin", "oracle-new")
	if err != nil {
		t.Fatalf("SetOracle: %v", err)
	}
	if updated.OracleID != "oracle-new" {
		t.Fatalf("oracle id = %s, want oracle-new", updated.OracleID)
	}

	cfg, _ := store.GetConfig(ctx)
	if cfg.OracleID != "oracle-new" {
		t.Fatalf("persisted oracle id = %s, want oracle-new", cfg.OracleID)
	}
}

func TestSetOracleNotAdmin(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(subsidy.SystemConfig{AdminID: "admin", OracleID: "oracle-old"})

	if _, err := svc.SetOracle(ctx, "mallory", "oracle-evil"); !errors.Is(err, subsidy.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
	cfg, _ := store.GetConfig(ctx)
	if cfg.OracleID != "oracle-old" {
		t.Fatalf("oracle id = %s, rejected call must not mutate config", cfg.OracleID)
	}
}

func TestPauseUnpause(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(subsidy.SystemConfig{AdminID: "admin"})

	updated, err := svc.Pause(ctx, "admin")
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if !updated.Paused {
		t.Fatal("config must report paused")
	}

	updated, err = svc.Unpause(ctx, "admin")
	if err != nil {
		t.Fatalf("Unpause: %v", err)
	}
	if updated.Paused {
		t.Fatal("config must report unpaused")
	}

	cfg, _ := store.GetConfig(ctx)
	if cfg.Paused {
		t.Fatal("persisted config must be unpaused")
	}
}

func TestPauseNotAdmin(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(subsidy.SystemConfig{AdminID: "admin"})

	if _, err := svc.Pause(ctx, "mallory"); !errors.Is(err, subsidy.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
	cfg, _ := store.GetConfig(ctx)
	if cfg.Paused {
		t.Fatal("rejected pause must not take effect")
	}
}

func TestPauseIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(subsidy.SystemConfig{AdminID: "admin", Paused: true})

	updated, err := svc.Pause(ctx, "admin")
	if err != nil {
		t.Fatalf("Pause while paused: %v", err)
	}
	if !updated.Paused {
		t.Fatal("config must stay paused")
	}
}

func TestGetStatusWhilePaused(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(subsidy.SystemConfig{AdminID: "admin", Paused: true, VerificationFee: 10})

	cfg, err := svc.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !cfg.Paused || cfg.VerificationFee != 10 {
		t.Fatalf("status = %+v", cfg)
	}
}
