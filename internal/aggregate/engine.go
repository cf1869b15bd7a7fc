// Package aggregate computes per-market statistics from a batch of orders.
// The grouping is an explicit one-pass map build keyed by (region, type, side),
// followed by a per-group reduction: outlier filter, best-price-first sort,
// 5% depth price, and volume-weighted average.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/akajianguo/evemarket/internal/models"
)

const (
	// depthFraction is the share of visible liquidity the depth price covers.
	depthFraction = 0.05

	// outlierFactor bounds how far a quote may sit from the group's best
	// extreme before it is discarded as a fat-finger entry.
	outlierFactor = 100.0
)

// Key serializes a group key as "{region}|{type}|{side}". The side renders as
// "true"/"false", matching the cache key schema.
func Key(regionID, typeID int64, isBuy bool) string {
	return fmt.Sprintf("%d|%d|%t", regionID, typeID, isBuy)
}

// Compute groups a batch's orders by (region, type, side) and reduces each
// group to one AggregateRecord. Output is sorted by key so repeated runs over
// the same input produce identical slices.
func Compute(batchID int64, orders []models.MarketOrder) []models.AggregateRecord {
	groups := make(map[string][]models.MarketOrder)
	for _, o := range orders {
		k := Key(o.RegionID, o.TypeID, o.IsBuy)
		groups[k] = append(groups[k], o)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]models.AggregateRecord, 0, len(keys))
	for _, k := range keys {
		rec := reduceGroup(groups[k])
		rec.What = k
		rec.BatchID = batchID
		records = append(records, rec)
	}
	return records
}

// reduceGroup computes the statistics for one non-empty group.
func reduceGroup(group []models.MarketOrder) models.AggregateRecord {
	isBuy := group[0].IsBuy

	minPrice, maxPrice := priceRange(group)
	filtered := filterOutliers(group, isBuy, minPrice, maxPrice)
	sortBestFirst(filtered, isBuy)

	var totalVolume int64
	var weightedSum float64
	for _, o := range filtered {
		totalVolume += o.Volume
		weightedSum += o.Price * float64(o.Volume)
	}

	weightedAverage := filtered[0].Price
	if totalVolume > 0 {
		weightedAverage = weightedSum / float64(totalVolume)
	}

	return models.AggregateRecord{
		WeightedAverage: weightedAverage,
		FivePercent:     depthPrice(filtered, totalVolume),
		MaxVal:          maxPrice,
		MinVal:          minPrice,
		Volume:          totalVolume,
		NumOrders:       int64(len(filtered)),
	}
}

func priceRange(group []models.MarketOrder) (minPrice, maxPrice float64) {
	minPrice, maxPrice = group[0].Price, group[0].Price
	for _, o := range group[1:] {
		if o.Price < minPrice {
			minPrice = o.Price
		}
		if o.Price > maxPrice {
			maxPrice = o.Price
		}
	}
	return minPrice, maxPrice
}

// filterOutliers drops quotes priced more than outlierFactor away from the
// group's relevant extreme: bids below max/100, asks above min*100. The order
// holding the extreme always survives, so the result is never empty.
func filterOutliers(group []models.MarketOrder, isBuy bool, minPrice, maxPrice float64) []models.MarketOrder {
	filtered := make([]models.MarketOrder, 0, len(group))
	for _, o := range group {
		if isBuy && o.Price < maxPrice/outlierFactor {
			continue
		}
		if !isBuy && o.Price > minPrice*outlierFactor {
			continue
		}
		filtered = append(filtered, o)
	}
	return filtered
}

// sortBestFirst orders bids by price descending and asks ascending.
func sortBestFirst(orders []models.MarketOrder, isBuy bool) {
	sort.Slice(orders, func(i, j int) bool {
		if isBuy {
			return orders[i].Price > orders[j].Price
		}
		return orders[i].Price < orders[j].Price
	})
}

// depthPrice returns the volume-weighted price of the best-price-first prefix
// whose cumulative volume stays within depthFraction of totalVolume. Falls
// back to the best order's price when the group has no volume, the prefix is
// empty, or the prefix carries zero weight.
func depthPrice(sorted []models.MarketOrder, totalVolume int64) float64 {
	if totalVolume <= 0 {
		return sorted[0].Price
	}

	threshold := depthFraction * float64(totalVolume)

	var cumulative int64
	var weightedSum, weight float64
	for _, o := range sorted {
		cumulative += o.Volume
		if float64(cumulative) > threshold {
			break
		}
		weightedSum += o.Price * float64(o.Volume)
		weight += float64(o.Volume)
	}

	if weight == 0 {
		return sorted[0].Price
	}
	return weightedSum / weight
}
