// Package models defines the domain models used across the application.
package models

import "time"

// Batch records one pipeline run in the batch-metadata table.
// The auto-generated ID is the batch identifier referenced by every order
// row loaded during that run.
type Batch struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	Downloaded time.Time `gorm:"column:downloaded"`
}

func (Batch) TableName() string {
	return "market_orderset"
}

// MarketOrder is one open order from a region's order book, normalized from
// the upstream API format. Rows are immutable once written and belong to
// exactly one batch and one partition table.
type MarketOrder struct {
	// OrderID is the upstream order identifier.
	OrderID int64 `gorm:"column:order_id"`

	// TypeID identifies the traded item type.
	TypeID int64 `gorm:"column:type_id"`

	// Issued is when the order was placed upstream.
	Issued time.Time `gorm:"column:issued"`

	// IsBuy is true for bid orders, false for asks.
	IsBuy bool `gorm:"column:is_buy"`

	// Volume is the remaining (unfilled) volume.
	Volume int64 `gorm:"column:volume"`

	// Price is the unit price.
	Price float64 `gorm:"column:price"`

	// StationID is the station the order is placed at.
	StationID int64 `gorm:"column:station_id"`

	// RegionID is the market region the order belongs to.
	RegionID int64 `gorm:"column:region_id"`

	// BatchID is the owning batch. Set by the loader, not the fetcher.
	BatchID int64 `gorm:"column:batch_id"`
}

// AggregateRecord is one row of the aggregates table: the per-market
// statistics for a (region, type, side) group within a batch.
// Column names follow the historical aggregates schema.
type AggregateRecord struct {
	// What is the serialized group key, "{region}|{type}|{side}".
	What string `gorm:"column:what"`

	// WeightedAverage is the volume-weighted average price of the filtered group.
	WeightedAverage float64 `gorm:"column:weightedaverage"`

	// FivePercent is the 5% depth price.
	FivePercent float64 `gorm:"column:fivepercent"`

	// MaxVal and MinVal are the raw (pre-filter) price extremes.
	MaxVal float64 `gorm:"column:maxval"`
	MinVal float64 `gorm:"column:minval"`

	// Volume is the summed volume of the filtered group.
	Volume int64 `gorm:"column:volume"`

	// NumOrders is the order count of the filtered group.
	NumOrders int64 `gorm:"column:numorders"`

	// BatchID is the batch this record was computed from.
	BatchID int64 `gorm:"column:orderSet"`
}

func (AggregateRecord) TableName() string {
	return "aggregates"
}

// StationStat is the per-station activity of one side of a batch, as
// grouped by the storage layer. Not persisted.
type StationStat struct {
	StationID   int64 `gorm:"column:station_id"`
	OrderCount  int64 `gorm:"column:order_count"`
	TotalVolume int64 `gorm:"column:total_volume"`
}

// StationActivity is one leaderboard entry published to the cache.
// JSON field names match the cache schema consumed by the read API.
type StationActivity struct {
	OrderCount  int64  `json:"order_count"`
	StationName string `json:"stationName"`
	StationID   int64  `json:"stationID"`
	TotalVolume int64  `json:"total_volume"`
}
