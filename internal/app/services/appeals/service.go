// Package appeals manages the one-appeal-per-application workflow: bounded
// submission after scoring and admin resolution with an override score.
package appeals

import (
	"context"
	"fmt"
	"strings"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/metrics"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/providers"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/storage"
	"github.com/AgriSubsidy-Network/verification_layer/pkg/logger"
)

// Service drives appeal submission and resolution.
type Service struct {
	store        storage.Store
	applications providers.ApplicationStatus
	clock        providers.Clock
	log          *logger.Logger
}

// New constructs an appeals service.
func New(store storage.Store, applications providers.ApplicationStatus, clock providers.Clock, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("appeals")
	}
	return &Service{store: store, applications: applications, clock: clock, log: log}
}

// Submit files an appeal against a scored application. The appeal slot is
// never reused: a second submission fails with ErrAppealExists regardless of
// the first appeal's resolution state. Submission closes AppealWindow height
// units after scoring.
func (s *Service) Submit(ctx context.Context, caller, applicationID, reason string) (subsidy.Appeal, error) {
	reason = strings.TrimSpace(reason)

	height, err := s.clock.Height(ctx)
	if err != nil {
		return subsidy.Appeal{}, fmt.Errorf("read height: %w", err)
	}

	var appeal subsidy.Appeal
	err = s.store.Tx(ctx, func(tx storage.Store) error {
		cfg, err := tx.GetConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.Paused {
			return subsidy.ErrSystemPaused
		}

		if _, exists, err := tx.GetAppeal(ctx, applicationID); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("appeal slot for %s already used: %w", applicationID, subsidy.ErrAppealExists)
		}

		entry, ok, err := tx.GetScoreEntry(ctx, applicationID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("application %s has no score entry: %w", applicationID, subsidy.ErrInvalidApplication)
		}
		if height-entry.VerifiedAt >= subsidy.AppealWindow {
			return fmt.Errorf("appeal window for %s elapsed: %w", applicationID, subsidy.ErrNoAppeal)
		}

		appeal = subsidy.Appeal{
			ApplicationID: applicationID,
			Reason:        reason,
			SubmittedAt:   height,
			Resolved:      false,
			Resolver:      caller, // submitter until resolution
		}
		return tx.PutAppeal(ctx, appeal)
	})
	if err != nil {
		return subsidy.Appeal{}, err
	}

	metrics.RecordAppeal("submitted")
	s.log.WithField("application_id", applicationID).
		WithField("submitter", caller).
		Info("appeal submitted")
	return appeal, nil
}

// Resolve closes an appeal with an admin-supplied override score. The score
// entry keeps its original verification height and factors; the audit entry
// is attributed to the original submitter, not the resolving admin. Returns
// the new qualification outcome.
func (s *Service) Resolve(ctx context.Context, caller, applicationID string, newScore int64) (bool, error) {
	height, err := s.clock.Height(ctx)
	if err != nil {
		return false, fmt.Errorf("read height: %w", err)
	}

	var qualified bool
	err = s.store.Tx(ctx, func(tx storage.Store) error {
		cfg, err := tx.GetConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.Paused {
			return subsidy.ErrSystemPaused
		}
		if err := subsidy.RequireAdmin(cfg, caller); err != nil {
			return err
		}

		appeal, ok, err := tx.GetAppeal(ctx, applicationID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no appeal for %s: %w", applicationID, subsidy.ErrNoAppeal)
		}
		if appeal.Resolved {
			return fmt.Errorf("appeal for %s already resolved: %w", applicationID, subsidy.ErrAppealExists)
		}

		entry, ok, err := tx.GetScoreEntry(ctx, applicationID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("application %s has no score entry: %w", applicationID, subsidy.ErrInvalidApplication)
		}

		if newScore < 0 || newScore > subsidy.MaxScore {
			return fmt.Errorf("override score %d out of range: %w", newScore, subsidy.ErrInvalidScore)
		}

		submitter := appeal.Resolver

		entry.Score = newScore
		if err := tx.PutScoreEntry(ctx, entry); err != nil {
			return err
		}

		appeal.Resolved = true
		appeal.Resolver = caller
		if err := tx.PutAppeal(ctx, appeal); err != nil {
			return err
		}

		qualified = subsidy.Qualifies(newScore)
		if _, err := tx.AppendAudit(ctx, subsidy.AuditEntry{
			ApplicationID: applicationID,
			Farmer:        submitter,
			Score:         newScore,
			Timestamp:     height,
			Outcome:       qualified,
		}); err != nil {
			return err
		}

		status := subsidy.StatusRejected
		if qualified {
			status = subsidy.StatusApproved
		}
		return s.applications.UpdateStatus(ctx, applicationID, status)
	})
	if err != nil {
		return false, err
	}

	metrics.RecordAppeal("resolved")
	s.log.WithField("application_id", applicationID).
		WithField("resolver", caller).
		WithField("score", newScore).
		WithField("qualified", qualified).
		Info("appeal resolved")
	return qualified, nil
}

// Get returns the appeal for an application, reporting absence instead of
// failing.
func (s *Service) Get(ctx context.Context, applicationID string) (subsidy.Appeal, bool, error) {
	return s.store.GetAppeal(ctx, applicationID)
}
