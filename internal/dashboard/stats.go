package dashboard

import (
	"sync"
	"time"

	"github.com/zulandar/trainops/internal/models"
	"gorm.io/gorm"
)

// Stats is the cached fleet overview served at /api/stats.
type Stats struct {
	CarsInService  int64            `json:"carsInService"`
	CarsTotal      int64            `json:"carsTotal"`
	CarsByLocation map[string]int64 `json:"carsByLocation"`
	OrdersByStatus map[string]int64 `json:"ordersByStatus"`
	TrainsByStatus map[string]int64 `json:"trainsByStatus"`
	RefreshedAt    time.Time        `json:"refreshedAt"`
}

// statsCache holds the latest Stats behind a mutex; a cron job refreshes it.
type statsCache struct {
	mu    sync.RWMutex
	stats Stats
}

func newStatsCache() *statsCache {
	return &statsCache{stats: Stats{
		CarsByLocation: map[string]int64{},
		OrdersByStatus: map[string]int64{},
		TrainsByStatus: map[string]int64{},
	}}
}

func (c *statsCache) snapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// statusCount is a GROUP BY row.
type statusCount struct {
	Status string
	Count  int64
}

// locationCount is a GROUP BY row over car locations.
type locationCount struct {
	CurrentIndustryID string
	Count             int64
}

// refresh recomputes the overview. Query errors leave the previous stats
// in place; the dashboard is best-effort observability.
func (c *statsCache) refresh(db *gorm.DB) {
	s := Stats{
		CarsByLocation: map[string]int64{},
		OrdersByStatus: map[string]int64{},
		TrainsByStatus: map[string]int64{},
		RefreshedAt:    time.Now(),
	}

	if err := db.Model(&models.Car{}).Count(&s.CarsTotal).Error; err != nil {
		return
	}
	if err := db.Model(&models.Car{}).Where("in_service = ?", true).Count(&s.CarsInService).Error; err != nil {
		return
	}

	var locRows []locationCount
	if err := db.Model(&models.Car{}).
		Select("current_industry_id, COUNT(*) as count").Group("current_industry_id").Find(&locRows).Error; err != nil {
		return
	}
	for _, r := range locRows {
		s.CarsByLocation[r.CurrentIndustryID] = r.Count
	}

	var orderRows []statusCount
	if err := db.Model(&models.CarOrder{}).
		Select("status, COUNT(*) as count").Group("status").Find(&orderRows).Error; err != nil {
		return
	}
	for _, r := range orderRows {
		s.OrdersByStatus[r.Status] = r.Count
	}

	var trainRows []statusCount
	if err := db.Model(&models.Train{}).
		Select("status, COUNT(*) as count").Group("status").Find(&trainRows).Error; err != nil {
		return
	}
	for _, r := range trainRows {
		s.TrainsByStatus[r.Status] = r.Count
	}

	c.mu.Lock()
	c.stats = s
	c.mu.Unlock()
}
