package farm

// Record is the registered profile of a farm as held by the external farm
// data store. Owner is the opaque platform identity that registered the farm.
type Record struct {
	FarmerID     string  `json:"farmer_id"`
	Owner        string  `json:"owner"`
	LandSize     int64   `json:"land_size"`
	CropType     string  `json:"crop_type"`
	YieldHistory []int64 `json:"yield_history"`
	GPSReference string  `json:"gps_reference"`
}
