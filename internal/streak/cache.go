package streak

import (
	"sync"
	"time"

	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/utils"
)

type cacheKey struct {
	version uint64
	day     string
	window  int
}

// Cache memoizes Compute and Heatmap for a log version. Results are reused
// until the version or the calendar day moves.
type Cache struct {
	mu       sync.Mutex
	streaks  map[cacheKey]models.StreakData
	heatmaps map[cacheKey][]models.DayCompliance
}

func NewCache() *Cache {
	return &Cache{
		streaks:  make(map[cacheKey]models.StreakData),
		heatmaps: make(map[cacheKey][]models.DayCompliance),
	}
}

func (c *Cache) Streak(version uint64, logs []models.PillLog, now time.Time) models.StreakData {
	key := cacheKey{version: version, day: utils.DayKey(now)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.streaks[key]; ok {
		return data
	}
	c.pruneLocked(version)
	data := Compute(logs, now)
	c.streaks[key] = data
	return data
}

func (c *Cache) Heatmap(version uint64, logs []models.PillLog, now time.Time, days int) []models.DayCompliance {
	key := cacheKey{version: version, day: utils.DayKey(now), window: days}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cells, ok := c.heatmaps[key]; ok {
		return append([]models.DayCompliance(nil), cells...)
	}
	c.pruneLocked(version)
	cells := Heatmap(logs, now, days)
	c.heatmaps[key] = cells
	return append([]models.DayCompliance(nil), cells...)
}

// pruneLocked drops entries for other versions; only the newest is ever asked for again.
func (c *Cache) pruneLocked(version uint64) {
	for k := range c.streaks {
		if k.version != version {
			delete(c.streaks, k)
		}
	}
	for k := range c.heatmaps {
		if k.version != version {
			delete(c.heatmaps, k)
		}
	}
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streaks) + len(c.heatmaps)
}
