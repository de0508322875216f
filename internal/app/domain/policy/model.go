package policy

// Criteria is the current subsidy qualification policy supplied by the
// criteria store. SustainabilityScore is policy-supplied and folded into the
// eligibility score verbatim.
type Criteria struct {
	MinLandSize         int64    `json:"min_land_size"`
	RequiredCrops       []string `json:"required_crops"`
	MinYield            int64    `json:"min_yield"`
	SustainabilityScore int64    `json:"sustainability_score"`
}

// AllowsCrop reports whether the crop type is one of the required crops.
func (c Criteria) AllowsCrop(cropType string) bool {
	for _, crop := range c.RequiredCrops {
		if crop == cropType {
			return true
		}
	}
	return false
}
