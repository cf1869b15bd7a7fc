// Package storage provides Postgres persistence for batches, orders, and
// aggregates. Order rows are routed to one of ten partition tables by a pure
// function of the batch id; writes for a batch are transactional.
package storage

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/akajianguo/evemarket/internal/models"
)

// loadChunkSize bounds the number of rows per INSERT during bulk load.
const loadChunkSize = 1000

// Storage defines the persistence operations the pipeline needs.
// Implementations must be safe for sequential use within one run; the
// connection pool is not shared across concurrent runs.
type Storage interface {
	// CreateBatch inserts a new batch row and returns its generated id.
	CreateBatch(ctx context.Context) (int64, error)

	// LoadOrders bulk-inserts all rows of a batch into its partition table
	// inside a single transaction. Either every row lands or none do.
	LoadOrders(ctx context.Context, batchID int64, orders []models.MarketOrder) error

	// OrdersForBatch reads back every order of a batch from its partition.
	OrdersForBatch(ctx context.Context, batchID int64) ([]models.MarketOrder, error)

	// ReplaceAggregates removes existing aggregate rows for the given keys and
	// inserts the new records, atomically. Recomputing a batch never
	// accumulates duplicates.
	ReplaceAggregates(ctx context.Context, records []models.AggregateRecord) error

	// StationStats groups one side of a batch by station.
	StationStats(ctx context.Context, batchID int64, isBuy bool) ([]models.StationStat, error)

	// StationNames resolves station display names from the reference table.
	// Unknown ids are simply absent from the result.
	StationNames(ctx context.Context, ids []int64) (map[int64]string, error)

	// Close releases database connection resources.
	Close() error
}

type gormStorage struct {
	db *gorm.DB
}

// NewPostgresStorage opens a gorm Postgres connection and verifies it with a
// ping. Returns an error if the database is unreachable within 5 seconds.
func NewPostgresStorage(dsn string) (Storage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return &gormStorage{db: db}, nil
}

// NewGormStorage wraps an existing gorm connection.
func NewGormStorage(db *gorm.DB) Storage {
	return &gormStorage{db: db}
}

func (s *gormStorage) CreateBatch(ctx context.Context) (int64, error) {
	batch := models.Batch{Downloaded: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Create(&batch).Error; err != nil {
		return 0, err
	}
	return batch.ID, nil
}

func (s *gormStorage) LoadOrders(ctx context.Context, batchID int64, orders []models.MarketOrder) error {
	if len(orders) == 0 {
		return nil
	}

	for i := range orders {
		orders[i].BatchID = batchID
	}

	table := OrdersTable(batchID)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(table).CreateInBatches(orders, loadChunkSize).Error
	})
}

func (s *gormStorage) OrdersForBatch(ctx context.Context, batchID int64) ([]models.MarketOrder, error) {
	var orders []models.MarketOrder
	err := s.db.WithContext(ctx).
		Table(OrdersTable(batchID)).
		Where("batch_id = ?", batchID).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *gormStorage) ReplaceAggregates(ctx context.Context, records []models.AggregateRecord) error {
	if len(records) == 0 {
		return nil
	}

	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.What)
	}

	// Delete and insert share one transaction so a key is never left without
	// a live aggregate row.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("what IN ?", keys).Delete(&models.AggregateRecord{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(records, loadChunkSize).Error
	})
}

func (s *gormStorage) StationStats(ctx context.Context, batchID int64, isBuy bool) ([]models.StationStat, error) {
	var stats []models.StationStat
	err := s.db.WithContext(ctx).
		Table(OrdersTable(batchID)).
		Select("station_id, count(*) AS order_count, sum(volume) AS total_volume").
		Where("batch_id = ? AND is_buy = ?", batchID, isBuy).
		Group("station_id").
		Order("order_count DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *gormStorage) StationNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}

	var rows []struct {
		StationID int64  `gorm:"column:station_id"`
		Name      string `gorm:"column:name"`
	}
	err := s.db.WithContext(ctx).
		Table("npc_stations").
		Where("station_id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(rows))
	for _, r := range rows {
		names[r.StationID] = r.Name
	}
	return names, nil
}

func (s *gormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
