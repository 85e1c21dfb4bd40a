package jobs

import (
	"log/slog"
	"time"

	"ridehub-api/geo"
	"ridehub-api/models"
	"ridehub-api/repositories"
)

// LocatorSyncJob periodically reconciles the ride discovery index with the
// store. The controllers keep the index current on the happy path; this job
// repairs entries missed across restarts or transient index outages.
type LocatorSyncJob struct {
	store  repositories.RideStore
	index  geo.Index
	logger *slog.Logger
	ticker *time.Ticker
	done   chan bool
}

func NewLocatorSyncJob(store repositories.RideStore, index geo.Index, interval time.Duration, logger *slog.Logger) *LocatorSyncJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocatorSyncJob{
		store:  store,
		index:  index,
		logger: logger,
		ticker: time.NewTicker(interval),
		done:   make(chan bool),
	}
}

// Start begins the sync job
func (j *LocatorSyncJob) Start() {
	j.logger.Info("locator sync job started")

	go func() {
		// Run immediately on start
		j.sync()

		for {
			select {
			case <-j.ticker.C:
				j.sync()
			case <-j.done:
				j.logger.Info("locator sync job stopped")
				return
			}
		}
	}()
}

// Stop stops the sync job
func (j *LocatorSyncJob) Stop() {
	j.ticker.Stop()
	j.done <- true
}

func (j *LocatorSyncJob) sync() {
	const pageSize = 200

	synced := 0
	for offset := 0; ; offset += pageSize {
		rides, total, err := j.store.ListRides(models.RideStatusUpcoming, offset, pageSize)
		if err != nil {
			j.logger.Error("locator sync failed", "error", err)
			return
		}

		for _, ride := range rides {
			if ride.StartLat == nil || ride.StartLng == nil {
				continue
			}
			j.index.Upsert(geo.RidePoint{
				RideID:    ride.ID,
				Latitude:  *ride.StartLat,
				Longitude: *ride.StartLng,
			})
			synced++
		}

		if int64(offset+len(rides)) >= total || len(rides) == 0 {
			break
		}
	}

	j.logger.Info("locator sync completed", "rides_indexed", synced)
}
