package appeals

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/providers"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/storage"
)

type fixture struct {
	store        *storage.Memory
	applications *providers.MemoryApplicationStatus
	clock        *providers.ManualClock
	svc          *Service
}

func newFixture(cfg subsidy.SystemConfig) *fixture {
	f := &fixture{
		store:        storage.NewMemory(cfg),
		applications: providers.NewMemoryApplicationStatus(),
		clock:        providers.NewManualClock(1000),
	}
	f.svc = New(f.store, f.applications, f.clock, nil)
	return f
}

// seedScored records a score entry at height 1000 with a REJECTED status, the
// state an appeal normally starts from.
func (f *fixture) seedScored(t *testing.T, score int64) {
	t.Helper()
	ctx := context.Background()

	err := f.store.PutScoreEntry(ctx, subsidy.ScoreEntry{
		ApplicationID: "app-1",
		Score:         score,
		VerifiedAt:    1000,
		Factors: []subsidy.Factor{
			{Name: "land", Points: 30},
			{Name: "sustainability", Points: 25},
		},
	})
	if err != nil {
		t.Fatalf("PutScoreEntry: %v", err)
	}
	f.applications.SetApplication(subsidy.Application{
		ApplicationID: "app-1",
		FarmerID:      "farm-1",
		Status:        subsidy.StatusRejected,
	})
}

func TestSubmitWithinWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)
	f.clock.SetHeight(1000 + subsidy.AppealWindow - 1)

	appeal, err := f.svc.Submit(ctx, "alice", "app-1", "drought year skewed the yields")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if appeal.Resolved {
		t.Fatal("fresh appeal must be unresolved")
	}
	if appeal.Resolver != "alice" {
		t.Fatalf("resolver = %s, want submitter alice", appeal.Resolver)
	}
	if appeal.SubmittedAt != 1000+subsidy.AppealWindow-1 {
		t.Fatalf("submitted at = %d", appeal.SubmittedAt)
	}

	stored, ok, _ := f.svc.Get(ctx, "app-1")
	if !ok || !reflect.DeepEqual(stored, appeal) {
		t.Fatalf("stored appeal = %+v, want %+v", stored, appeal)
	}
}

func TestSubmitWindowElapsed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)
	f.clock.SetHeight(1000 + subsidy.AppealWindow)

	_, err := f.svc.Submit(ctx, "alice", "app-1", "too late")
	if !errors.Is(err, subsidy.ErrNoAppeal) {
		t.Fatalf("err = %v, want ErrNoAppeal", err)
	}
}

func TestSubmitUnknownApplication(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})

	_, err := f.svc.Submit(ctx, "alice", "never-scored", "reason")
	if !errors.Is(err, subsidy.ErrInvalidApplication) {
		t.Fatalf("err = %v, want ErrInvalidApplication", err)
	}
}

func TestSubmitSlotNeverReused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)

	if _, err := f.svc.Submit(ctx, "alice", "app-1", "first"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.svc.Submit(ctx, "alice", "app-1", "second"); !errors.Is(err, subsidy.ErrAppealExists) {
		t.Fatalf("duplicate submit err = %v, want ErrAppealExists", err)
	}

	// Resolution does not reopen the slot.
	if _, err := f.svc.Resolve(ctx, "admin", "app-1", 80); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := f.svc.Submit(ctx, "alice", "app-1", "third"); !errors.Is(err, subsidy.ErrAppealExists) {
		t.Fatalf("post-resolution submit err = %v, want ErrAppealExists", err)
	}
}

func TestSubmitPaused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin", Paused: true})
	f.seedScored(t, 55)

	if _, err := f.svc.Submit(ctx, "alice", "app-1", "reason"); !errors.Is(err, subsidy.ErrSystemPaused) {
		t.Fatalf("err = %v, want ErrSystemPaused", err)
	}
}

func TestResolveUpgradesToApproved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)

	if _, err := f.svc.Submit(ctx, "alice", "app-1", "recount"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f.clock.Advance(5)

	qualified, err := f.svc.Resolve(ctx, "admin", "app-1", 75)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !qualified {
		t.Fatal("score 75 must qualify")
	}

	entry, ok, _ := f.store.GetScoreEntry(ctx, "app-1")
	if !ok {
		t.Fatal("score entry missing after resolution")
	}
	if entry.Score != 75 {
		t.Fatalf("score = %d, want 75", entry.Score)
	}
	// The original verification height and factor breakdown survive the
	// override.
	if entry.VerifiedAt != 1000 {
		t.Fatalf("verified at = %d, want original 1000", entry.VerifiedAt)
	}
	if len(entry.Factors) != 2 {
		t.Fatalf("got %d factors, want original 2", len(entry.Factors))
	}

	appeal, ok, _ := f.svc.Get(ctx, "app-1")
	if !ok || !appeal.Resolved {
		t.Fatalf("appeal = %+v, want resolved", appeal)
	}
	if appeal.Resolver != "admin" {
		t.Fatalf("resolver = %s, want admin", appeal.Resolver)
	}

	app, _ := f.applications.GetApplication(ctx, "app-1")
	if app.Status != subsidy.StatusApproved {
		t.Fatalf("status = %s, want APPROVED", app.Status)
	}

	audit, ok, _ := f.store.GetAuditEntry(ctx, 1)
	if !ok {
		t.Fatal("resolution must append an audit entry")
	}
	if audit.Farmer != "alice" {
		t.Fatalf("audit farmer = %s, want original submitter alice", audit.Farmer)
	}
	if audit.Score != 75 || !audit.Outcome || audit.Timestamp != 1005 {
		t.Fatalf("audit entry = %+v", audit)
	}
}

func TestResolveDowngradeStaysRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)

	if _, err := f.svc.Submit(ctx, "alice", "app-1", "recount"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	qualified, err := f.svc.Resolve(ctx, "admin", "app-1", 60)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if qualified {
		t.Fatal("score 60 must not qualify")
	}
	app, _ := f.applications.GetApplication(ctx, "app-1")
	if app.Status != subsidy.StatusRejected {
		t.Fatalf("status = %s, want REJECTED", app.Status)
	}
}

func TestResolveRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)

	if _, err := f.svc.Submit(ctx, "alice", "app-1", "recount"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.svc.Resolve(ctx, "alice", "app-1", 90); !errors.Is(err, subsidy.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}

	appeal, _, _ := f.svc.Get(ctx, "app-1")
	if appeal.Resolved {
		t.Fatal("failed resolution must not mutate the appeal")
	}
}

func TestResolveNoAppeal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)

	if _, err := f.svc.Resolve(ctx, "admin", "app-1", 80); !errors.Is(err, subsidy.ErrNoAppeal) {
		t.Fatalf("err = %v, want ErrNoAppeal", err)
	}
}

func TestResolveTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)

	if _, err := f.svc.Submit(ctx, "alice", "app-1", "recount"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.svc.Resolve(ctx, "admin", "app-1", 80); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := f.svc.Resolve(ctx, "admin", "app-1", 90); !errors.Is(err, subsidy.ErrAppealExists) {
		t.Fatalf("second resolve err = %v, want ErrAppealExists", err)
	}
}

func TestResolveScoreOutOfRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)

	if _, err := f.svc.Submit(ctx, "alice", "app-1", "recount"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	for _, score := range []int64{-1, 101} {
		if _, err := f.svc.Resolve(ctx, "admin", "app-1", score); !errors.Is(err, subsidy.ErrInvalidScore) {
			t.Fatalf("score %d: err = %v, want ErrInvalidScore", score, err)
		}
	}
	// Both bounds are themselves valid.
	if _, err := f.svc.Resolve(ctx, "admin", "app-1", 0); err != nil {
		t.Fatalf("Resolve with score 0: %v", err)
	}
}

func TestResolvePaused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(subsidy.SystemConfig{AdminID: "admin"})
	f.seedScored(t, 55)

	if _, err := f.svc.Submit(ctx, "alice", "app-1", "recount"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	cfg, _ := f.store.GetConfig(context.Background())
	cfg.Paused = true
	if err := f.store.PutConfig(context.Background(), cfg); err != nil {
		t.Fatalf("PutConfig: %v", err)
	}

	if _, err := f.svc.Resolve(ctx, "admin", "app-1", 80); !errors.Is(err, subsidy.ErrSystemPaused) {
		t.Fatalf("err = %v, want ErrSystemPaused", err)
	}
}
