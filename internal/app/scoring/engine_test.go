package scoring

import (
	"testing"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/farm"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/oracledata"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/policy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
)

func baseCriteria() policy.Criteria {
	return policy.Criteria{
		MinLandSize:         40,
		RequiredCrops:       []string{"Corn", "Wheat"},
		MinYield:            100,
		SustainabilityScore: 15,
	}
}

func baseOracle() oracledata.ExternalData {
	return oracledata.ExternalData{WeatherImpact: 5, MarketPrice: 10, VerifiedYield: 105}
}

func TestScore_QualifyingFarmClampsAtMax(t *testing.T) {
	rec := farm.Record{
		LandSize:     50,
		CropType:     "Corn",
		YieldHistory: []int64{100, 120, 110, 130, 115},
	}

	total, factors := Score(rec, baseCriteria(), baseOracle())
	if total != 100 {
		t.Fatalf("expected clamped total 100, got %d", total)
	}
	if !subsidy.Qualifies(total) {
		t.Fatalf("expected total %d to qualify", total)
	}

	want := []subsidy.Factor{
		{Name: FactorLand, Points: 30},
		{Name: FactorCrop, Points: 20},
		{Name: FactorYield, Points: 20},
		{Name: FactorSustainability, Points: 15},
		{Name: FactorOracle, Points: 40},
	}
	if len(factors) != len(want) {
		t.Fatalf("expected %d factors, got %d", len(want), len(factors))
	}
	for i, f := range factors {
		if f != want[i] {
			t.Fatalf("factor %d: expected %+v, got %+v", i, want[i], f)
		}
	}
}

func TestScore_FailingFarm(t *testing.T) {
	rec := farm.Record{
		LandSize:     30,
		CropType:     "Rice",
		YieldHistory: []int64{90, 85, 88, 87, 88}, // mean 87.6
	}

	total, factors := Score(rec, baseCriteria(), baseOracle())
	if total != 55 {
		t.Fatalf("expected total 55, got %d", total)
	}
	if subsidy.Qualifies(total) {
		t.Fatalf("total %d should not qualify", total)
	}
	for _, f := range factors[:3] {
		if f.Points != 0 {
			t.Fatalf("expected zero points for %s, got %d", f.Name, f.Points)
		}
	}
}

func TestScore_FactorOrderIsFixed(t *testing.T) {
	_, factors := Score(farm.Record{}, policy.Criteria{}, oracledata.ExternalData{})
	names := []string{FactorLand, FactorCrop, FactorYield, FactorSustainability, FactorOracle}
	for i, f := range factors {
		if f.Name != names[i] {
			t.Fatalf("factor %d: expected %s, got %s", i, names[i], f.Name)
		}
	}
}

func TestScore_YieldMeanNotSum(t *testing.T) {
	criteria := baseCriteria()
	// Sum 300 exceeds MinYield 100 but the mean is 100 exactly: boundary holds.
	rec := farm.Record{LandSize: 40, CropType: "Wheat", YieldHistory: []int64{90, 100, 110}}
	_, factors := Score(rec, criteria, oracledata.ExternalData{})
	if factors[2].Points != 20 {
		t.Fatalf("mean exactly at minimum should earn yield points, got %d", factors[2].Points)
	}

	rec.YieldHistory = []int64{90, 100, 109}
	_, factors = Score(rec, criteria, oracledata.ExternalData{})
	if factors[2].Points != 0 {
		t.Fatalf("mean below minimum should earn nothing, got %d", factors[2].Points)
	}
}

func TestScore_EmptyYieldHistory(t *testing.T) {
	rec := farm.Record{LandSize: 40, CropType: "Wheat"}
	_, factors := Score(rec, baseCriteria(), oracledata.ExternalData{})
	if factors[2].Points != 0 {
		t.Fatalf("empty yield history should not meet the minimum, got %d", factors[2].Points)
	}
}

func TestScore_OracleAdjustmentFloors(t *testing.T) {
	total, factors := Score(farm.Record{}, policy.Criteria{RequiredCrops: []string{"x"}, MinLandSize: 1, MinYield: 1},
		oracledata.ExternalData{WeatherImpact: 1, MarketPrice: 1, VerifiedYield: 2})
	if factors[4].Points != 1 {
		t.Fatalf("expected floor((1+1+2)/3)=1, got %d", factors[4].Points)
	}
	if total != 1 {
		t.Fatalf("expected total 1, got %d", total)
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{7, 3, 2},
		{6, 3, 2},
		{-7, 3, -3},
		{0, 3, 0},
	}
	for _, c := range cases {
		if got := floorDiv(c.a, c.b); got != c.want {
			t.Fatalf("floorDiv(%d,%d): expected %d, got %d", c.a, c.b, c.want, got)
		}
	}
}

func TestScore_NoLowerClamp(t *testing.T) {
	// A hypothetical negative oracle reading drives the total below zero; the
	// clamp applies only at the top.
	total, _ := Score(farm.Record{}, policy.Criteria{MinLandSize: 1, MinYield: 1, RequiredCrops: []string{"x"}},
		oracledata.ExternalData{WeatherImpact: -30, MarketPrice: 0, VerifiedYield: 0})
	if total != -10 {
		t.Fatalf("expected total -10 without floor clamp, got %d", total)
	}
}
