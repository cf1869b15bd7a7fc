package aggregate

import (
	"math"
	"testing"

	"github.com/akajianguo/evemarket/internal/models"
)

func makeOrders(isBuy bool, pairs ...[2]float64) []models.MarketOrder {
	orders := make([]models.MarketOrder, 0, len(pairs))
	for i, p := range pairs {
		orders = append(orders, models.MarketOrder{
			OrderID:  int64(i + 1),
			TypeID:   34,
			RegionID: 10000002,
			IsBuy:    isBuy,
			Price:    p[0],
			Volume:   int64(p[1]),
		})
	}
	return orders
}

func TestKey(t *testing.T) {
	if got := Key(10000002, 34, true); got != "10000002|34|true" {
		t.Errorf("Expected key '10000002|34|true', got '%s'", got)
	}
	if got := Key(10000043, 44992, false); got != "10000043|44992|false" {
		t.Errorf("Expected key '10000043|44992|false', got '%s'", got)
	}
}

func TestBuyOutlierFilter(t *testing.T) {
	// Bids [1, 1, 1, 1000]: max is 1000, everything below 1000/100 = 10 goes.
	orders := makeOrders(true, [2]float64{1, 5}, [2]float64{1, 5}, [2]float64{1, 5}, [2]float64{1000, 2})

	records := Compute(7, orders)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.NumOrders != 1 {
		t.Errorf("Expected 1 surviving order, got %d", rec.NumOrders)
	}
	if rec.Volume != 2 {
		t.Errorf("Expected filtered volume 2, got %d", rec.Volume)
	}
	if rec.WeightedAverage != 1000 {
		t.Errorf("Expected weighted average 1000, got %v", rec.WeightedAverage)
	}
	// Min and max report the raw group, before filtering.
	if rec.MinVal != 1 || rec.MaxVal != 1000 {
		t.Errorf("Expected raw min 1 and max 1000, got %v and %v", rec.MinVal, rec.MaxVal)
	}
}

func TestDepthPriceEmptyPrefix(t *testing.T) {
	// Asks (price, volume) = (10,50), (12,100), (20,5): total 155, the 5%
	// threshold is 7.75, even the first order overshoots, so the depth price
	// falls back to the best ask.
	orders := makeOrders(false, [2]float64{12, 100}, [2]float64{20, 5}, [2]float64{10, 50})

	records := Compute(1, orders)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].FivePercent != 10 {
		t.Errorf("Expected depth price 10, got %v", records[0].FivePercent)
	}
}

func TestDepthPriceWeightedPrefix(t *testing.T) {
	// Asks with many small orders: total volume 200, threshold 10, the two
	// best asks (volume 4 each) fit, the third overshoots.
	orders := makeOrders(false,
		[2]float64{10, 4},
		[2]float64{11, 4},
		[2]float64{12, 4},
		[2]float64{15, 188},
	)

	records := Compute(1, orders)
	want := (10.0*4 + 11.0*4) / 8.0
	if got := records[0].FivePercent; math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected depth price %v, got %v", want, got)
	}
}

func TestDepthPriceZeroVolumeGroup(t *testing.T) {
	// All volumes zero: depth price falls back to the best (first) price.
	orders := makeOrders(false, [2]float64{30, 0}, [2]float64{10, 0}, [2]float64{20, 0})

	records := Compute(1, orders)
	rec := records[0]
	if rec.FivePercent != 10 {
		t.Errorf("Expected depth price 10 for zero-volume group, got %v", rec.FivePercent)
	}
	if rec.WeightedAverage != 10 {
		t.Errorf("Expected weighted average fallback 10, got %v", rec.WeightedAverage)
	}
}

func TestDepthPriceWithinPriceRange(t *testing.T) {
	groups := [][]models.MarketOrder{
		makeOrders(false, [2]float64{10, 100}, [2]float64{11, 300}, [2]float64{13, 50}, [2]float64{900, 20}),
		makeOrders(true, [2]float64{95, 10}, [2]float64{100, 700}, [2]float64{99, 200}, [2]float64{2, 40}),
		makeOrders(false, [2]float64{5, 1}),
	}

	for i, group := range groups {
		records := Compute(1, group)
		if len(records) != 1 {
			t.Fatalf("case %d: expected 1 record, got %d", i, len(records))
		}
		rec := records[0]
		if rec.FivePercent < rec.MinVal || rec.FivePercent > rec.MaxVal {
			t.Errorf("case %d: depth price %v outside [%v, %v]", i, rec.FivePercent, rec.MinVal, rec.MaxVal)
		}
		if rec.WeightedAverage < rec.MinVal || rec.WeightedAverage > rec.MaxVal {
			t.Errorf("case %d: weighted average %v outside [%v, %v]", i, rec.WeightedAverage, rec.MinVal, rec.MaxVal)
		}
	}
}

func TestComputeGroupsBySide(t *testing.T) {
	orders := append(
		makeOrders(false, [2]float64{10, 5}, [2]float64{11, 5}),
		makeOrders(true, [2]float64{9, 5})...,
	)

	records := Compute(3, orders)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records (one per side), got %d", len(records))
	}

	// Output is sorted by key, so "…|false" comes before "…|true".
	if records[0].What != "10000002|34|false" {
		t.Errorf("Expected first key '10000002|34|false', got '%s'", records[0].What)
	}
	if records[1].What != "10000002|34|true" {
		t.Errorf("Expected second key '10000002|34|true', got '%s'", records[1].What)
	}
	for _, rec := range records {
		if rec.BatchID != 3 {
			t.Errorf("Expected batch id 3 on record %s, got %d", rec.What, rec.BatchID)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	orders := append(
		makeOrders(false, [2]float64{10, 50}, [2]float64{12, 100}),
		models.MarketOrder{OrderID: 99, TypeID: 35, RegionID: 10000043, IsBuy: true, Price: 7, Volume: 3},
	)

	first := Compute(5, orders)
	second := Compute(5, orders)
	if len(first) != len(second) {
		t.Fatalf("Recompute changed record count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Recompute changed record %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestComputeEmptyInput(t *testing.T) {
	records := Compute(1, nil)
	if len(records) != 0 {
		t.Errorf("Expected no records for empty input, got %d", len(records))
	}
}
