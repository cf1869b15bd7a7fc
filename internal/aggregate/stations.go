package aggregate

import (
	"sort"

	"github.com/akajianguo/evemarket/internal/models"
)

// topStationCount is how many stations the leaderboard keeps per side.
const topStationCount = 10

// TopStations merges per-station stats with display names from the reference
// lookup and keeps the busiest stations by order count. Stations missing from
// the lookup still appear, keyed by id with an empty name.
func TopStations(stats []models.StationStat, names map[int64]string) []models.StationActivity {
	ranked := make([]models.StationStat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OrderCount > ranked[j].OrderCount
	})

	if len(ranked) > topStationCount {
		ranked = ranked[:topStationCount]
	}

	top := make([]models.StationActivity, 0, len(ranked))
	for _, s := range ranked {
		top = append(top, models.StationActivity{
			OrderCount:  s.OrderCount,
			StationName: names[s.StationID],
			StationID:   s.StationID,
			TotalVolume: s.TotalVolume,
		})
	}
	return top
}
