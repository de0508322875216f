// Package admin exposes the admin-gated system operations: oracle rotation,
// pause control and the public status snapshot.
package admin

import (
	"context"
	"strings"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/storage"
	"github.com/AgriSubsidy-Network/verification_layer/pkg/logger"
)

// Service mutates the SystemConfig singleton under admin authorization.
type Service struct {
	store storage.Store
	log   *logger.Logger
}

// New constructs an admin service.
func New(store storage.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("admin")
	}
	return &Service{store: store, log: log}
}

// SetOracle replaces the configured oracle identity.
func (s *Service) SetOracle(ctx context.Context, caller, newOracle string) (subsidy.SystemConfig, error) {
	newOracle = strings.TrimSpace(newOracle)

	var updated subsidy.SystemConfig
	err := s.store.Tx(ctx, func(tx storage.Store) error {
		cfg, err := tx.GetConfig(ctx)
		if err != nil {
			return err
		}
		if err := subsidy.RequireAdmin(cfg, caller); err != nil {
			return err
		}
		cfg.OracleID = newOracle
		if err := tx.PutConfig(ctx, cfg); err != nil {
			return err
		}
		updated = cfg
		return nil
	})
	if err != nil {
		return subsidy.SystemConfig{}, err
	}

	s.log.WithField("oracle_id", newOracle).Info("oracle identity updated")
	return updated, nil
}

// Pause halts all mutating operations.
func (s *Service) Pause(ctx context.Context, caller string) (subsidy.SystemConfig, error) {
	return s.setPaused(ctx, caller, true)
}

// Unpause resumes mutating operations.
func (s *Service) Unpause(ctx context.Context, caller string) (subsidy.SystemConfig, error) {
	return s.setPaused(ctx, caller, false)
}

func (s *Service) setPaused(ctx context.Context, caller string, paused bool) (subsidy.SystemConfig, error) {
	var updated subsidy.SystemConfig
	err := s.store.Tx(ctx, func(tx storage.Store) error {
		cfg, err := tx.GetConfig(ctx)
		if err != nil {
			return err
		}
		if err := subsidy.RequireAdmin(cfg, caller); err != nil {
			return err
		}
		cfg.Paused = paused
		if err := tx.PutConfig(ctx, cfg); err != nil {
			return err
		}
		updated = cfg
		return nil
	})
	if err != nil {
		return subsidy.SystemConfig{}, err
	}

	s.log.WithField("paused", paused).Info("pause state changed")
	return updated, nil
}

// GetStatus returns the full configuration snapshot. Pure read, always
// succeeds.
func (s *Service) GetStatus(ctx context.Context) (subsidy.SystemConfig, error) {
	return s.store.GetConfig(ctx)
}
