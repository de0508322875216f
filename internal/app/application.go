// Package app assembles the verification core: storage, external providers
// and the domain services, under a managed lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/providers"
	adminsvc "github.com/AgriSubsidy-Network/verification_layer/internal/app/services/admin"
	appealsvc "github.com/AgriSubsidy-Network/verification_layer/internal/app/services/appeals"
	verificationsvc "github.com/AgriSubsidy-Network/verification_layer/internal/app/services/verification"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/storage"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/system"
	"github.com/AgriSubsidy-Network/verification_layer/pkg/logger"
)

// Providers bundles the external collaborators. Nil fields default to the
// in-memory implementations, which serve tests and local runs.
type Providers struct {
	Farms        providers.FarmData
	Criteria     providers.Criteria
	Oracle       providers.Oracle
	Applications providers.ApplicationStatus
	Custody      providers.Custodian
	Clock        providers.Clock
}

// Options configures application assembly.
type Options struct {
	// Store holds the owned state. Nil defaults to an in-memory store seeded
	// with Config.
	Store storage.Store

	// Config seeds the system configuration singleton when Store is nil.
	Config subsidy.SystemConfig

	// CustodyAccount is the platform identity that collected fees settle to.
	CustodyAccount string

	Providers Providers
}

// Application ties the verification services together and manages their
// lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Store storage.Store

	Admin        *adminsvc.Service
	Verification *verificationsvc.Service
	Appeals      *appealsvc.Service
}

// New builds a fully initialised application.
func New(opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	store := opts.Store
	if store == nil {
		store = storage.NewMemory(opts.Config)
	}

	p := opts.Providers
	if p.Farms == nil {
		p.Farms = providers.NewMemoryFarmData()
	}
	if p.Criteria == nil {
		p.Criteria = providers.NewMemoryCriteria()
	}
	if p.Oracle == nil {
		p.Oracle = providers.NewMemoryOracle()
	}
	if p.Applications == nil {
		p.Applications = providers.NewMemoryApplicationStatus()
	}
	if p.Custody == nil {
		p.Custody = providers.NewMemoryCustodian()
	}
	if p.Clock == nil {
		p.Clock = providers.NewManualClock(0)
	}

	custodyAccount := opts.CustodyAccount
	if custodyAccount == "" {
		custodyAccount = "verification-custody"
	}

	manager := system.NewManager()

	adminService := adminsvc.New(store, log)
	verificationService := verificationsvc.New(
		store, p.Farms, p.Criteria, p.Oracle, p.Applications, p.Custody, p.Clock,
		custodyAccount, log,
	)
	appealService := appealsvc.New(store, p.Applications, p.Clock, log)

	for _, name := range []string{"admin", "verification", "appeals"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return &Application{
		manager:      manager,
		log:          log,
		Store:        store,
		Admin:        adminService,
		Verification: verificationService,
		Appeals:      appealService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
