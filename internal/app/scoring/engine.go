// Package scoring computes eligibility scores. The engine is a pure function
// of farm data, policy criteria and oracle data; it performs no I/O and holds
// no state.
package scoring

import (
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/farm"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/oracledata"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/policy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
)

// Factor names, in the fixed evaluation order. The order is part of the audit
// contract and never varies with the values.
const (
	FactorLand           = "land"
	FactorCrop           = "crop"
	FactorYield          = "yield"
	FactorSustainability = "sustainability"
	FactorOracle         = "oracle"
)

const (
	landPoints  int64 = 30
	cropPoints  int64 = 20
	yieldPoints int64 = 20
)

// Score computes the composite eligibility score and its named factors.
// The total is the sum of the five factors clamped to subsidy.MaxScore.
// There is no lower clamp.
func Score(rec farm.Record, criteria policy.Criteria, ext oracledata.ExternalData) (int64, []subsidy.Factor) {
	factors := []subsidy.Factor{
		{Name: FactorLand, Points: landFactor(rec, criteria)},
		{Name: FactorCrop, Points: cropFactor(rec, criteria)},
		{Name: FactorYield, Points: yieldFactor(rec, criteria)},
		{Name: FactorSustainability, Points: criteria.SustainabilityScore},
		{Name: FactorOracle, Points: oracleAdjustment(ext)},
	}

	var total int64
	for _, f := range factors {
		total += f.Points
	}
	if total > subsidy.MaxScore {
		total = subsidy.MaxScore
	}
	return total, factors
}

func landFactor(rec farm.Record, criteria policy.Criteria) int64 {
	if rec.LandSize >= criteria.MinLandSize {
		return landPoints
	}
	return 0
}

func cropFactor(rec farm.Record, criteria policy.Criteria) int64 {
	if criteria.AllowsCrop(rec.CropType) {
		return cropPoints
	}
	return 0
}

// yieldFactor compares the arithmetic mean of the yield history against the
// per-record minimum. The comparison sum >= min*len is exact and avoids
// fractional arithmetic. An empty history never meets the minimum.
func yieldFactor(rec farm.Record, criteria policy.Criteria) int64 {
	n := int64(len(rec.YieldHistory))
	if n == 0 {
		return 0
	}
	var sum int64
	for _, y := range rec.YieldHistory {
		sum += y
	}
	if sum >= criteria.MinYield*n {
		return yieldPoints
	}
	return 0
}

func oracleAdjustment(ext oracledata.ExternalData) int64 {
	return floorDiv(ext.WeatherImpact+ext.MarketPrice+ext.VerifiedYield, 3)
}

// floorDiv divides rounding toward negative infinity. Go's integer division
// truncates toward zero, which differs for negative sums.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
