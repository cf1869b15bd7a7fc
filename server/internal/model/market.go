package model

// StationHotTop is one leaderboard entry as stored in the cache.
// Field names match the cached JSON exactly.
type StationHotTop struct {
	OrderCount  int64  `json:"order_count"`
	StationName string `json:"stationName"`
	StationID   int64  `json:"stationID"`
	TotalVolume int64  `json:"total_volume"`
}

// HotStationsResponse is the read API payload for the station leaderboard.
type HotStationsResponse struct {
	SellTop    []StationHotTop `json:"sell_top"`
	BuyTop     []StationHotTop `json:"buy_top"`
	LastUpdate string          `json:"last_update"`
}
