package oracledata

// ExternalData is the signed reading delivered by the oracle feed for a
// farmer: weather impact, market price and independently verified yield.
type ExternalData struct {
	WeatherImpact int64 `json:"weather_impact"`
	MarketPrice   int64 `json:"market_price"`
	VerifiedYield int64 `json:"verified_yield"`
}
