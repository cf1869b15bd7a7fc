// Package esi implements the upstream market API client.
// It fetches full region order books page by page, following the X-Pages
// response header, and normalizes rows into domain models.
package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/akajianguo/evemarket/configs"
	"github.com/akajianguo/evemarket/internal/models"
)

const defaultFetchWorkers = 10

type httpStatusError struct {
	statusCode int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d", e.statusCode)
}

// order is the upstream JSON shape of one open market order.
type order struct {
	OrderID      int64     `json:"order_id"`
	TypeID       int64     `json:"type_id"`
	Issued       time.Time `json:"issued"`
	IsBuyOrder   bool      `json:"is_buy_order"`
	VolumeRemain int64     `json:"volume_remain"`
	Price        float64   `json:"price"`
	LocationID   int64     `json:"location_id"`
}

// Client fetches order books from the upstream market API.
// A single rate limiter gates requests across all regions.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *logrus.Logger
}

func NewClient(cfg configs.ESIConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.RequestTimeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 10),
		logger:    logger,
	}
}

// fetchPage requests one page of a region's order book and returns the rows
// together with the total page count from the X-Pages header.
func (c *Client) fetchPage(ctx context.Context, regionID int64, page int) ([]order, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	url := fmt.Sprintf("%s/markets/%d/orders/?page=%d", c.baseURL, regionID, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, &httpStatusError{statusCode: resp.StatusCode}
	}

	var orders []order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, 0, err
	}

	// A missing or malformed X-Pages header means this is the only page.
	pages := 1
	if raw := resp.Header.Get("X-Pages"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			pages = n
		}
	}

	return orders, pages, nil
}

// FetchRegionOrders pages through one region's order book strictly in page
// order. On a page failure it returns the rows fetched so far along with the
// error; the caller decides whether partial data is kept.
func (c *Client) FetchRegionOrders(ctx context.Context, regionID int64) ([]models.MarketOrder, error) {
	var result []models.MarketOrder

	pages := 1
	for page := 1; page <= pages; page++ {
		rows, totalPages, err := c.fetchPage(ctx, regionID, page)
		if err != nil {
			return result, fmt.Errorf("region %d page %d: %w", regionID, page, err)
		}
		pages = totalPages

		for _, r := range rows {
			result = append(result, models.MarketOrder{
				OrderID:   r.OrderID,
				TypeID:    r.TypeID,
				Issued:    r.Issued,
				IsBuy:     r.IsBuyOrder,
				Volume:    r.VolumeRemain,
				Price:     r.Price,
				StationID: r.LocationID,
				RegionID:  regionID,
			})
		}
	}

	return result, nil
}

// FetchAllRegions fetches the configured regions with a bounded worker pool.
// A failed region only loses its own remaining pages; siblings are unaffected,
// so the method never returns an error. Zero rows is a valid outcome.
func (c *Client) FetchAllRegions(ctx context.Context, regions []int64, workers int) []models.MarketOrder {
	if workers <= 0 {
		workers = defaultFetchWorkers
	}

	var mu sync.Mutex
	var all []models.MarketOrder

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, regionID := range regions {
		g.Go(func() error {
			orders, err := c.FetchRegionOrders(ctx, regionID)
			if err != nil {
				c.logger.Warnf("pagination aborted: %v", err)
			}
			if len(orders) == 0 {
				return nil
			}
			mu.Lock()
			all = append(all, orders...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return all
}
