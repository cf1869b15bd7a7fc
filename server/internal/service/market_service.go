package service

import (
	"context"
	"encoding/json"

	"github.com/akajianguo/evemarket/internal/cache"
	"github.com/akajianguo/evemarket/server/internal/model"
)

// CacheReader is the read surface the service needs from the cache.
type CacheReader interface {
	GetString(ctx context.Context, key string) (string, error)
}

type MarketService struct {
	cache CacheReader
}

func NewMarketService(cache CacheReader) *MarketService {
	return &MarketService{
		cache: cache,
	}
}

// HotStations assembles the leaderboard response from the three cache keys.
// Missing or unparsable keys degrade to empty values; pipeline failures are
// never surfaced to API clients.
func (ms *MarketService) HotStations(ctx context.Context) model.HotStationsResponse {
	sellRaw, _ := ms.cache.GetString(ctx, cache.KeySellTop)
	buyRaw, _ := ms.cache.GetString(ctx, cache.KeyBuyTop)
	lastUpdate, _ := ms.cache.GetString(ctx, cache.KeyLastUpdate)

	return model.HotStationsResponse{
		SellTop:    parseStationList(sellRaw),
		BuyTop:     parseStationList(buyRaw),
		LastUpdate: lastUpdate,
	}
}

func parseStationList(raw string) []model.StationHotTop {
	stations := []model.StationHotTop{}
	if raw == "" {
		return stations
	}
	if err := json.Unmarshal([]byte(raw), &stations); err != nil {
		return []model.StationHotTop{}
	}
	if stations == nil {
		return []model.StationHotTop{}
	}
	return stations
}
