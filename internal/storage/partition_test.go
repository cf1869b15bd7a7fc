package storage

import "testing"

func TestPartitionIndex(t *testing.T) {
	cases := []struct {
		batchID int64
		want    int
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{199, 1},
		{950, 9},
		{1000, 0},
		{123456, 4},
	}

	for _, c := range cases {
		if got := PartitionIndex(c.batchID); got != c.want {
			t.Errorf("PartitionIndex(%d) = %d, want %d", c.batchID, got, c.want)
		}
	}
}

func TestPartitionIndexStable(t *testing.T) {
	// Routing is a pure function: repeated calls must agree.
	for id := int64(0); id < 5000; id++ {
		first := PartitionIndex(id)
		second := PartitionIndex(id)
		if first != second {
			t.Fatalf("PartitionIndex(%d) not stable: %d then %d", id, first, second)
		}
		if first < 0 || first > 9 {
			t.Fatalf("PartitionIndex(%d) = %d, out of range", id, first)
		}
	}
}

func TestOrdersTable(t *testing.T) {
	if got := OrdersTable(250); got != "orders_2" {
		t.Errorf("Expected table 'orders_2', got '%s'", got)
	}
	if got := OrdersTable(42); got != "orders_0" {
		t.Errorf("Expected table 'orders_0', got '%s'", got)
	}
}
