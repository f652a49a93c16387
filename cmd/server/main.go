package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danwib/tacwx/internal/api"
	"github.com/danwib/tacwx/internal/archive"
	"github.com/danwib/tacwx/internal/bmkg"
	"github.com/danwib/tacwx/internal/briefing"
	"github.com/danwib/tacwx/internal/config"
	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/internal/report"
	"github.com/danwib/tacwx/internal/websocket"
	"github.com/danwib/tacwx/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Optional .env for API keys and map overrides
	_ = godotenv.Load()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting TacWX server",
		logger.String("version", Version),
		logger.String("default_region", cfg.Station.DefaultRegionCode),
	)

	// Forecast archive (optional)
	var archiveStorage *archive.Storage
	var archiver forecast.Archiver
	if cfg.Storage.ArchiveEnabled {
		archiveStorage, err = archive.NewStorage(cfg.Storage.SQLitePath, log)
		if err != nil {
			log.Error("Failed to create forecast archive", logger.Error(err))
			os.Exit(1)
		}
		defer archiveStorage.Close()
		archiver = archiveStorage
		log.Info("Forecast archive enabled", logger.String("path", cfg.Storage.SQLitePath))
	}

	// WebSocket hub for live dashboard updates
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	// Upstream client and forecast pipeline
	bmkgClient := bmkg.NewClient(cfg.BMKG, log)
	forecastService := forecast.NewService(cfg, bmkgClient, wsServer, archiver, log)
	if err := forecastService.Start(); err != nil {
		log.Error("Failed to start forecast service", logger.Error(err))
		os.Exit(1)
	}

	// AI briefing (optional)
	var briefingService *briefing.Service
	if cfg.Briefing.Enabled {
		briefingService, err = briefing.NewService(context.Background(), &cfg.Briefing, &cfg.Station, log)
		if err != nil {
			log.Error("Failed to create briefing service, continuing without it", logger.Error(err))
			briefingService = nil
		} else {
			log.Info("Briefing service enabled", logger.String("model", cfg.Briefing.Model))
		}
	}

	reportEngine := report.NewEngine(cfg.Report.TemplatePath, log)

	router := api.NewRouter(forecastService, briefingService, archiveStorage, reportEngine, wsServer, cfg, log)

	// One HTTP server per configured port, all sharing the router
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	allPorts = append(allPorts, cfg.Server.AdditionalPorts...)

	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router.Routes(),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	if err := forecastService.Stop(); err != nil {
		log.Error("Error stopping forecast service", logger.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
