package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/farm"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/oracledata"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/policy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
)

// In-memory provider implementations. They serve tests and local runs where
// the surrounding platform is absent.

// MemoryFarmData holds farm records keyed by farmer id.
type MemoryFarmData struct {
	mu    sync.RWMutex
	farms map[string]farm.Record
}

var _ FarmData = (*MemoryFarmData)(nil)

func NewMemoryFarmData() *MemoryFarmData {
	return &MemoryFarmData{farms: make(map[string]farm.Record)}
}

func (p *MemoryFarmData) SetFarm(rec farm.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.farms[rec.FarmerID] = rec
}

func (p *MemoryFarmData) GetFarmData(_ context.Context, farmerID string) (farm.Record, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rec, ok := p.farms[farmerID]
	if !ok {
		return farm.Record{}, fmt.Errorf("farmer %s not registered: %w", farmerID, subsidy.ErrInvalidData)
	}
	rec.YieldHistory = append([]int64(nil), rec.YieldHistory...)
	return rec, nil
}

// MemoryCriteria serves a fixed policy, failing when none is set.
type MemoryCriteria struct {
	mu       sync.RWMutex
	criteria policy.Criteria
	set      bool
}

var _ Criteria = (*MemoryCriteria)(nil)

func NewMemoryCriteria() *MemoryCriteria {
	return &MemoryCriteria{}
}

func (p *MemoryCriteria) SetCriteria(criteria policy.Criteria) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria = criteria
	p.set = true
}

func (p *MemoryCriteria) CurrentCriteria(_ context.Context) (policy.Criteria, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.set {
		return policy.Criteria{}, fmt.Errorf("no criteria configured: %w", subsidy.ErrInvalidData)
	}
	criteria := p.criteria
	criteria.RequiredCrops = append([]string(nil), criteria.RequiredCrops...)
	return criteria, nil
}

// MemoryOracle holds oracle readings keyed by farmer id. Fail forces
// ErrOracleFailure for every read.
type MemoryOracle struct {
	mu       sync.RWMutex
	readings map[string]oracledata.ExternalData
	fail     bool
}

var _ Oracle = (*MemoryOracle)(nil)

func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{readings: make(map[string]oracledata.ExternalData)}
}

func (p *MemoryOracle) SetReading(farmerID string, data oracledata.ExternalData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readings[farmerID] = data
}

func (p *MemoryOracle) Fail(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

func (p *MemoryOracle) ExternalData(_ context.Context, farmerID string) (oracledata.ExternalData, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.fail {
		return oracledata.ExternalData{}, fmt.Errorf("oracle feed unavailable: %w", subsidy.ErrOracleFailure)
	}
	data, ok := p.readings[farmerID]
	if !ok {
		return oracledata.ExternalData{}, fmt.Errorf("no oracle data for farmer %s: %w", farmerID, subsidy.ErrOracleFailure)
	}
	return data, nil
}

// MemoryApplicationStatus holds applications keyed by application id.
type MemoryApplicationStatus struct {
	mu   sync.RWMutex
	apps map[string]subsidy.Application
}

var _ ApplicationStatus = (*MemoryApplicationStatus)(nil)

func NewMemoryApplicationStatus() *MemoryApplicationStatus {
	return &MemoryApplicationStatus{apps: make(map[string]subsidy.Application)}
}

func (p *MemoryApplicationStatus) SetApplication(app subsidy.Application) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apps[app.ApplicationID] = app
}

func (p *MemoryApplicationStatus) GetApplication(_ context.Context, applicationID string) (subsidy.Application, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	app, ok := p.apps[applicationID]
	if !ok {
		return subsidy.Application{}, fmt.Errorf("application %s unknown: %w", applicationID, subsidy.ErrInvalidApplication)
	}
	return app, nil
}

func (p *MemoryApplicationStatus) UpdateStatus(_ context.Context, applicationID string, status subsidy.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	app, ok := p.apps[applicationID]
	if !ok {
		return fmt.Errorf("application %s unknown: %w", applicationID, subsidy.ErrInvalidApplication)
	}
	app.Status = status
	p.apps[applicationID] = app
	return nil
}

// MemoryCustodian tracks balances per identity. Accounts without a seeded
// balance reject debits.
type MemoryCustodian struct {
	mu       sync.Mutex
	balances map[string]int64
	log      []TransferRecord
}

// TransferRecord is one executed transfer, kept for test assertions.
type TransferRecord struct {
	From   string
	To     string
	Amount int64
}

var _ Custodian = (*MemoryCustodian)(nil)

func NewMemoryCustodian() *MemoryCustodian {
	return &MemoryCustodian{balances: make(map[string]int64)}
}

func (p *MemoryCustodian) SetBalance(identity string, amount int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[identity] = amount
}

func (p *MemoryCustodian) Balance(identity string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[identity]
}

func (p *MemoryCustodian) Transfers() []TransferRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TransferRecord(nil), p.log...)
}

func (p *MemoryCustodian) Transfer(_ context.Context, from, to string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer amount %d", amount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balances[from] < amount {
		return fmt.Errorf("insufficient funds: %s holds %d, needs %d", from, p.balances[from], amount)
	}
	p.balances[from] -= amount
	p.balances[to] += amount
	p.log = append(p.log, TransferRecord{From: from, To: to, Amount: amount})
	return nil
}

// ManualClock is a height counter advanced explicitly between operations.
type ManualClock struct {
	mu     sync.RWMutex
	height uint64
}

var _ Clock = (*ManualClock)(nil)

func NewManualClock(height uint64) *ManualClock {
	return &ManualClock{height: height}
}

func (c *ManualClock) Advance(delta uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += delta
}

func (c *ManualClock) SetHeight(height uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = height
}

func (c *ManualClock) Height(_ context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height, nil
}
