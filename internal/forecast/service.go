package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/danwib/tacwx/internal/bmkg"
	"github.com/danwib/tacwx/internal/config"
	"github.com/danwib/tacwx/internal/observability"
	"github.com/danwib/tacwx/internal/wxcalc"
	"github.com/danwib/tacwx/pkg/logger"
)

// Broadcaster pushes fresh snapshots to connected dashboard clients
type Broadcaster interface {
	BroadcastForecastUpdate(regionCode string, snapshot *Snapshot)
}

// Archiver persists snapshots for the history endpoint
type Archiver interface {
	SaveSnapshot(snapshot *Snapshot) error
}

// Service owns the fetch → flatten → enrich pipeline, the snapshot cache
// and the optional background refresh of the default region
type Service struct {
	cfg         *config.Config
	client      *bmkg.Client
	cache       *Cache
	opts        DerivedOptions
	broadcaster Broadcaster
	archiver    Archiver
	logger      *logger.Logger

	// Service lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex
}

// NewService creates a new forecast service
func NewService(cfg *config.Config, client *bmkg.Client, broadcaster Broadcaster, archiver Archiver, log *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	declination := wxcalc.MagneticVariation(
		cfg.Station.Latitude,
		cfg.Station.Longitude,
		cfg.Station.ElevationFeet,
		time.Now(),
	)
	log.Named("forecast-service").Debug("Computed station magnetic declination",
		logger.Float64("declination_deg", declination))

	return &Service{
		cfg:         cfg,
		client:      client,
		cache:       NewCache(time.Duration(cfg.BMKG.CacheTTLMinutes)*time.Minute, log),
		opts:        OptionsFromConfig(cfg.Derived, declination),
		broadcaster: broadcaster,
		archiver:    archiver,
		logger:      log.Named("forecast-service"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Options returns the derived-metrics options in effect
func (s *Service) Options() DerivedOptions {
	return s.opts
}

// Start begins the background refresh of the default region, if configured
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil // Already started
	}

	if s.cfg.BMKG.RefreshIntervalMinutes > 0 && s.cfg.Station.DefaultRegionCode != "" {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.backgroundRefresh()
		}()
		s.logger.Info("Starting forecast service",
			logger.String("default_region", s.cfg.Station.DefaultRegionCode),
			logger.Int("refresh_interval_minutes", s.cfg.BMKG.RefreshIntervalMinutes))
	} else {
		s.logger.Info("Starting forecast service (on-demand only)")
	}

	s.started = true
	return nil
}

// Stop gracefully shuts down the forecast service
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil // Already stopped
	}

	s.logger.Info("Stopping forecast service")
	s.cancel()
	s.wg.Wait()
	s.started = false
	return nil
}

// GetForecast returns the processed snapshot for a region code, serving
// from cache while fresh and fetching upstream otherwise
func (s *Service) GetForecast(ctx context.Context, regionCode string) (*Snapshot, error) {
	if snap := s.cache.Get(regionCode); snap != nil {
		observability.ForecastCacheHitsTotal.WithLabelValues("hit").Inc()
		return snap, nil
	}
	observability.ForecastCacheHitsTotal.WithLabelValues("miss").Inc()

	return s.fetchAndProcess(ctx, regionCode)
}

// RefreshNow forces a fresh fetch of a region, bypassing the cache
func (s *Service) RefreshNow(ctx context.Context, regionCode string) (*Snapshot, error) {
	s.logger.Info("Manual forecast refresh triggered", logger.String("region", regionCode))
	return s.fetchAndProcess(ctx, regionCode)
}

// CacheStats returns cache statistics
func (s *Service) CacheStats() map[string]any {
	return s.cache.Stats()
}

func (s *Service) fetchAndProcess(ctx context.Context, regionCode string) (*Snapshot, error) {
	startTime := time.Now()

	resp, err := s.client.FetchForecast(ctx, regionCode)
	if err != nil {
		observability.BMKGFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	records, err := Flatten(resp)
	if err != nil {
		observability.BMKGFetchesTotal.WithLabelValues("empty").Inc()
		return nil, err
	}

	snapshot := &Snapshot{
		RegionCode: regionCode,
		FetchedAt:  time.Now().UTC(),
		Records:    Enrich(records, s.opts),
	}

	s.cache.Set(regionCode, snapshot)

	if s.archiver != nil {
		if err := s.archiver.SaveSnapshot(snapshot); err != nil {
			s.logger.Error("Failed to archive snapshot",
				logger.String("region", regionCode),
				logger.Error(err))
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastForecastUpdate(regionCode, snapshot)
	}

	observability.BMKGFetchesTotal.WithLabelValues("ok").Inc()
	observability.BMKGFetchDuration.Observe(time.Since(startTime).Seconds())

	s.logger.Info("Forecast processed",
		logger.String("region", regionCode),
		logger.Int("records", len(snapshot.Records)),
		logger.Duration("duration", time.Since(startTime)))

	return snapshot, nil
}

// backgroundRefresh runs the periodic refresh of the default region
func (s *Service) backgroundRefresh() {
	refreshInterval := time.Duration(s.cfg.BMKG.RefreshIntervalMinutes) * time.Minute
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	s.logger.Info("Background forecast refresh started",
		logger.Duration("interval", refreshInterval))

	// Initial fetch so the dashboard has data immediately
	s.refreshDefault()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Background forecast refresh stopped")
			return
		case <-ticker.C:
			s.refreshDefault()
		}
	}
}

func (s *Service) refreshDefault() {
	ctx, cancel := context.WithTimeout(s.ctx, time.Duration(s.cfg.BMKG.RequestTimeoutSeconds+5)*time.Second)
	defer cancel()

	if _, err := s.fetchAndProcess(ctx, s.cfg.Station.DefaultRegionCode); err != nil {
		s.logger.Warn("Background refresh failed",
			logger.String("region", s.cfg.Station.DefaultRegionCode),
			logger.Error(err))
	}
}
