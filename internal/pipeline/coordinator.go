// Package pipeline orchestrates one market snapshot run: fetch, bulk load,
// aggregate, publish, leaderboard. Stages run strictly sequentially; there is
// no resume-from-failure, the next scheduled run simply starts a fresh batch.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akajianguo/evemarket/configs"
	"github.com/akajianguo/evemarket/internal/aggregate"
	"github.com/akajianguo/evemarket/internal/models"
	"github.com/akajianguo/evemarket/internal/storage"
)

// State is the coordinator's position within a run.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateLoading
	StateAggregating
	StatePublishingAggregates
	StateComputingStations
	StatePublishingStations
	StateDone
	StateErrored
)

var stateNames = map[State]string{
	StateIdle:                 "idle",
	StateFetching:             "fetching",
	StateLoading:              "loading",
	StateAggregating:          "aggregating",
	StatePublishingAggregates: "publishing-aggregates",
	StateComputingStations:    "computing-stations",
	StatePublishingStations:   "publishing-stations",
	StateDone:                 "done",
	StateErrored:              "errored",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// OrderFetcher retrieves the full order snapshot across regions.
type OrderFetcher interface {
	FetchAllRegions(ctx context.Context, regions []int64, workers int) []models.MarketOrder
}

// Publisher writes a run's output to the low-latency cache.
type Publisher interface {
	PublishAggregates(ctx context.Context, records []models.AggregateRecord, ttl time.Duration) error
	PublishStations(ctx context.Context, sell, buy []models.StationActivity, lastUpdate time.Time) error
}

// Coordinator owns the per-run state machine and failure containment between
// stages. One Coordinator handles one run at a time; the scheduler guarantees
// runs never overlap.
type Coordinator struct {
	fetcher OrderFetcher
	store   storage.Storage
	cache   Publisher
	cfg     configs.PipelineConfig
	logger  *logrus.Logger

	state State
}

func New(fetcher OrderFetcher, store storage.Storage, cache Publisher, cfg configs.PipelineConfig, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		store:   store,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		state:   StateIdle,
	}
}

// State reports the coordinator's current stage.
func (co *Coordinator) State() State {
	return co.state
}

func (co *Coordinator) setState(s State) {
	co.state = s
	co.logger.Debugf("pipeline state: %s", s)
}

// Run executes one full snapshot run. Failures in loading, aggregation, or
// aggregate publication are fatal to the run; leaderboard failures are
// contained. A run with zero fetched rows completes normally with the
// database stages as no-ops.
func (co *Coordinator) Run(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			co.setState(StateErrored)
			co.logger.Errorf("pipeline run failed after %s: %v", time.Since(start).Round(time.Second), err)
		}
	}()

	co.setState(StateFetching)
	orders := co.fetcher.FetchAllRegions(ctx, co.cfg.Regions, co.cfg.FetchWorkers)

	co.setState(StateLoading)
	batchID, err := co.store.CreateBatch(ctx)
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	co.logger.Infof("batch %d: fetched %d orders", batchID, len(orders))

	if len(orders) == 0 {
		co.logger.Warnf("batch %d: no orders fetched, skipping aggregation", batchID)
		co.setState(StateAggregating)
	} else {
		if err := co.store.LoadOrders(ctx, batchID, orders); err != nil {
			return fmt.Errorf("load batch %d: %w", batchID, err)
		}

		co.setState(StateAggregating)
		if err := co.aggregateBatch(ctx, batchID); err != nil {
			return err
		}

		co.setState(StateComputingStations)
		co.publishTopStations(ctx, batchID)
	}

	co.setState(StateDone)
	co.logger.Infof("batch %d: run completed in %s", batchID, time.Since(start).Round(time.Second))
	return nil
}

// aggregateBatch reads the batch back from storage, computes the per-market
// records, replaces the persisted aggregates, and publishes them to the cache.
func (co *Coordinator) aggregateBatch(ctx context.Context, batchID int64) error {
	orders, err := co.store.OrdersForBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("read batch %d: %w", batchID, err)
	}
	if len(orders) == 0 {
		co.logger.Warnf("batch %d: no orders stored, nothing to aggregate", batchID)
		return nil
	}

	records := aggregate.Compute(batchID, orders)
	if err := co.store.ReplaceAggregates(ctx, records); err != nil {
		return fmt.Errorf("persist aggregates for batch %d: %w", batchID, err)
	}

	co.setState(StatePublishingAggregates)
	if err := co.cache.PublishAggregates(ctx, records, co.cfg.AggregateTTL); err != nil {
		return fmt.Errorf("publish aggregates for batch %d: %w", batchID, err)
	}

	co.logger.Infof("batch %d: %d aggregates computed and published", batchID, len(records))
	return nil
}

// publishTopStations computes and publishes the per-side station leaderboard.
// Every failure here is contained: the leaderboard is a secondary feature and
// must not abort a run that already has correct pricing.
func (co *Coordinator) publishTopStations(ctx context.Context, batchID int64) {
	sellStats, err := co.store.StationStats(ctx, batchID, false)
	if err != nil {
		co.logger.Warnf("batch %d: sell station stats failed, skipping leaderboard: %v", batchID, err)
		return
	}
	buyStats, err := co.store.StationStats(ctx, batchID, true)
	if err != nil {
		co.logger.Warnf("batch %d: buy station stats failed, skipping leaderboard: %v", batchID, err)
		return
	}

	ids := make([]int64, 0, len(sellStats)+len(buyStats))
	for _, s := range sellStats {
		ids = append(ids, s.StationID)
	}
	for _, s := range buyStats {
		ids = append(ids, s.StationID)
	}

	names, err := co.store.StationNames(ctx, ids)
	if err != nil {
		co.logger.Warnf("batch %d: station name lookup failed, skipping leaderboard: %v", batchID, err)
		return
	}

	sell := aggregate.TopStations(sellStats, names)
	buy := aggregate.TopStations(buyStats, names)

	co.setState(StatePublishingStations)
	if err := co.cache.PublishStations(ctx, sell, buy, time.Now().UTC()); err != nil {
		co.logger.Warnf("batch %d: leaderboard publish failed: %v", batchID, err)
	}
}
