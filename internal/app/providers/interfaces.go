// Package providers defines the narrow interfaces through which the
// verification core consumes its external collaborators: farm records, policy
// criteria, the oracle feed, the application status store, fee custody and
// the height clock. Implementations map their own failures onto the domain
// error kinds before returning.
package providers

import (
	"context"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/farm"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/oracledata"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/policy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
)

// FarmData reads registered farm records. Failures map to ErrInvalidData.
type FarmData interface {
	GetFarmData(ctx context.Context, farmerID string) (farm.Record, error)
}

// Criteria reads the current qualification policy. Failures map to
// ErrInvalidData.
type Criteria interface {
	CurrentCriteria(ctx context.Context) (policy.Criteria, error)
}

// Oracle reads external signals for a farmer. Failures map to
// ErrOracleFailure.
type Oracle interface {
	ExternalData(ctx context.Context, farmerID string) (oracledata.ExternalData, error)
}

// ApplicationStatus reads and updates subsidy applications. Unknown
// applications map to ErrInvalidApplication.
type ApplicationStatus interface {
	GetApplication(ctx context.Context, applicationID string) (subsidy.Application, error)
	UpdateStatus(ctx context.Context, applicationID string, status subsidy.Status) error
}

// Custodian moves the verification fee between platform accounts.
type Custodian interface {
	Transfer(ctx context.Context, from, to string, amount int64) error
}

// Clock supplies the externally advanced height counter. Height never moves
// during an operation, only between calls.
type Clock interface {
	Height(ctx context.Context) (uint64, error)
}
