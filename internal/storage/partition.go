package storage

import "fmt"

// partitionCount is the number of physical order tables.
const partitionCount = 10

// PartitionIndex returns which of the ten order tables a batch lands in.
// Pure function of the batch id: (id / 100) % 10.
func PartitionIndex(batchID int64) int {
	return int((batchID / 100) % partitionCount)
}

// OrdersTable returns the partition table name for a batch.
func OrdersTable(batchID int64) string {
	return fmt.Sprintf("orders_%d", PartitionIndex(batchID))
}
