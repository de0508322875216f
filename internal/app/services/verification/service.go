// Package verification implements the eligibility verification transition:
// authorization and pause gating, fee collection, collaborator reads, scoring,
// the ledger overwrite, the audit append and the status store update.
package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/metrics"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/providers"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/scoring"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/storage"
	"github.com/AgriSubsidy-Network/verification_layer/pkg/logger"
)

// Service runs eligibility verifications and serves the read surface over the
// ledger and audit trail.
type Service struct {
	store          storage.Store
	farms          providers.FarmData
	criteria       providers.Criteria
	oracle         providers.Oracle
	applications   providers.ApplicationStatus
	custody        providers.Custodian
	clock          providers.Clock
	custodyAccount string
	log            *logger.Logger
}

// New constructs a verification service. custodyAccount is the platform
// identity holding collected fees.
func New(
	store storage.Store,
	farms providers.FarmData,
	criteria providers.Criteria,
	oracle providers.Oracle,
	applications providers.ApplicationStatus,
	custody providers.Custodian,
	clock providers.Clock,
	custodyAccount string,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.NewDefault("verification")
	}
	return &Service{
		store:          store,
		farms:          farms,
		criteria:       criteria,
		oracle:         oracle,
		applications:   applications,
		custody:        custody,
		clock:          clock,
		custodyAccount: custodyAccount,
		log:            log,
	}
}

// Verify scores an application for the calling farm owner. On qualification
// the committed score entry is returned. Disqualification is a recorded,
// first-class outcome: the ledger entry, audit entry and REJECTED status are
// all committed before ErrCriteriaNotMet is returned. Every other error
// leaves no observable state change; a collected fee is returned to the
// caller when a later step fails.
func (s *Service) Verify(ctx context.Context, caller, farmerID, applicationID string) (subsidy.ScoreEntry, error) {
	cfg, err := s.store.GetConfig(ctx)
	if err != nil {
		return subsidy.ScoreEntry{}, err
	}
	if cfg.Paused {
		return subsidy.ScoreEntry{}, subsidy.ErrSystemPaused
	}

	feeCharged := false
	if cfg.VerificationFee > 0 {
		if err := s.custody.Transfer(ctx, caller, s.custodyAccount, cfg.VerificationFee); err != nil {
			return subsidy.ScoreEntry{}, fmt.Errorf("collect verification fee: %w", err)
		}
		feeCharged = true
	}

	entry, err := s.verifyCharged(ctx, caller, farmerID, applicationID)
	if err != nil && feeCharged && !errors.Is(err, subsidy.ErrCriteriaNotMet) {
		// The operation failed after the fee moved; transfer it back so the
		// caller observes no state change.
		if refundErr := s.custody.Transfer(ctx, s.custodyAccount, caller, cfg.VerificationFee); refundErr != nil {
			s.log.WithError(refundErr).
				WithField("caller", caller).
				WithField("application_id", applicationID).
				Error("fee refund failed after aborted verification")
		}
	}
	return entry, err
}

func (s *Service) verifyCharged(ctx context.Context, caller, farmerID, applicationID string) (subsidy.ScoreEntry, error) {
	rec, err := s.farms.GetFarmData(ctx, farmerID)
	if err != nil {
		return subsidy.ScoreEntry{}, err
	}
	criteria, err := s.criteria.CurrentCriteria(ctx)
	if err != nil {
		return subsidy.ScoreEntry{}, err
	}
	ext, err := s.oracle.ExternalData(ctx, farmerID)
	if err != nil {
		return subsidy.ScoreEntry{}, err
	}
	app, err := s.applications.GetApplication(ctx, applicationID)
	if err != nil {
		return subsidy.ScoreEntry{}, err
	}

	if err := subsidy.RequireOwner(caller, rec.Owner); err != nil {
		return subsidy.ScoreEntry{}, err
	}
	if app.FarmerID != farmerID {
		return subsidy.ScoreEntry{}, fmt.Errorf("application %s belongs to farmer %s: %w",
			applicationID, app.FarmerID, subsidy.ErrInvalidFarmer)
	}

	total, factors := scoring.Score(rec, criteria, ext)
	qualified := subsidy.Qualifies(total)

	height, err := s.clock.Height(ctx)
	if err != nil {
		return subsidy.ScoreEntry{}, fmt.Errorf("read height: %w", err)
	}

	entry := subsidy.ScoreEntry{
		ApplicationID: applicationID,
		Score:         total,
		VerifiedAt:    height,
		Factors:       factors,
	}

	status := subsidy.StatusRejected
	if qualified {
		status = subsidy.StatusApproved
	}

	err = s.store.Tx(ctx, func(tx storage.Store) error {
		if err := tx.PutScoreEntry(ctx, entry); err != nil {
			return err
		}
		if _, err := tx.AppendAudit(ctx, subsidy.AuditEntry{
			ApplicationID: applicationID,
			Farmer:        caller,
			Score:         total,
			Timestamp:     height,
			Outcome:       qualified,
		}); err != nil {
			return err
		}
		// The status store write participates in the all-or-nothing
		// boundary: a failure here rolls back the staged ledger and audit
		// writes.
		return s.applications.UpdateStatus(ctx, applicationID, status)
	})
	if err != nil {
		return subsidy.ScoreEntry{}, err
	}

	metrics.RecordVerification(total, qualified)
	s.log.WithField("application_id", applicationID).
		WithField("farmer_id", farmerID).
		WithField("score", total).
		WithField("qualified", qualified).
		Info("eligibility verified")

	if !qualified {
		return subsidy.ScoreEntry{}, fmt.Errorf("score %d below threshold %d: %w",
			total, subsidy.QualificationThreshold, subsidy.ErrCriteriaNotMet)
	}
	return entry, nil
}

// GetScore returns the latest score entry for an application, reporting
// absence instead of failing.
func (s *Service) GetScore(ctx context.Context, applicationID string) (subsidy.ScoreEntry, bool, error) {
	return s.store.GetScoreEntry(ctx, applicationID)
}

// IsQualified reports whether the latest recorded score qualifies. Unknown
// applications are simply not qualified.
func (s *Service) IsQualified(ctx context.Context, applicationID string) (bool, error) {
	entry, ok, err := s.store.GetScoreEntry(ctx, applicationID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return subsidy.Qualifies(entry.Score), nil
}

// GetAuditEntry returns one audit record by verification id, reporting
// absence instead of failing.
func (s *Service) GetAuditEntry(ctx context.Context, verificationID uint64) (subsidy.AuditEntry, bool, error) {
	return s.store.GetAuditEntry(ctx, verificationID)
}

// ListAudit returns audit records after the given id, oldest first.
func (s *Service) ListAudit(ctx context.Context, afterID uint64, limit int) ([]subsidy.AuditEntry, error) {
	return s.store.ListAudit(ctx, afterID, limit)
}
