package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"github.com/linkfence/linkfence/internal/guard/common/clock"
	"github.com/linkfence/linkfence/internal/guard/common/log"
	"github.com/linkfence/linkfence/internal/guard/common/urlnorm"
	"github.com/linkfence/linkfence/internal/guard/config"
	"github.com/linkfence/linkfence/internal/guard/controller"
	"github.com/linkfence/linkfence/internal/guard/domain"
	"github.com/linkfence/linkfence/internal/guard/gateways/recentlog"
	"github.com/linkfence/linkfence/internal/guard/repos/analysis"
	"github.com/linkfence/linkfence/internal/guard/repos/analysis/lru"
	"github.com/linkfence/linkfence/internal/guard/repos/history"
	"github.com/linkfence/linkfence/internal/guard/repos/rules"
	"github.com/linkfence/linkfence/internal/guard/services/detector"
	"github.com/linkfence/linkfence/internal/guard/services/dispatch"
	"github.com/linkfence/linkfence/internal/guard/services/firewall"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "linkfenced"
)

// Application holds all the components of the link guard daemon
type Application struct {
	config     *config.AppConfig
	watcher    *recentlog.Watcher
	dispatcher *dispatch.Dispatcher
	firewall   *firewall.Firewall
	analysis   analysis.Repository
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":             appName,
		"version":         version,
		"env":             cfg.Env,
		"log_level":       cfg.LogLevel,
		"recent_file":     cfg.RecentFile,
		"poll_interval":   cfg.PollInterval.String(),
		"cache_size":      cfg.CacheSize,
		"history_size":    cfg.HistorySize,
		"block_threshold": cfg.BlockThreshold,
		"queue_size":      cfg.QueueSize,
	}, "Starting link guard daemon")

	// Build application with all dependencies
	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	// Start the watcher and block until shutdown
	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Daemon failed")
	}

	log.Info(nil, "Link guard stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	// Create shared clock for consistent time across all components
	clk := &clock.RealClock{}

	// Initialize logger (already configured globally)
	logger := log.GetLogger()

	// Load the ordered signature list
	sigs, err := loadSignatures(cfg)
	if err != nil {
		return nil, err
	}

	// Build service layer
	det, err := detector.New(sigs, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to build detector: %w", err)
	}

	// Build repository layer
	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create verdict cache: %w", err)
	}
	if cfg.CacheSize == 0 {
		log.Info(map[string]any{"disabled": true}, "Verdict caching disabled")
	} else {
		log.Info(map[string]any{
			"type": "LRU",
			"size": cfg.CacheSize,
		}, "Verdict cache configured")
	}
	repo := analysis.NewRepository(det, cache)

	hist, err := history.New(cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("failed to create block history: %w", err)
	}

	fw := firewall.New(firewall.Options{
		Analysis:  repo,
		History:   hist,
		Threshold: cfg.BlockThreshold,
		Logger:    logger,
	})

	// Build the event bus and gateway layer
	disp := dispatch.New(dispatch.Options{
		QueueSize: cfg.QueueSize,
		Logger:    logger,
	})

	watcher, err := recentlog.New(recentlog.Options{
		Path:         cfg.RecentFile,
		PollInterval: cfg.PollInterval,
		Publisher:    disp,
		Clock:        clk,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create recent log watcher: %w", err)
	}

	// Wire the firewall to the bus
	if _, err := controller.RegisterLinkHook(disp, fw, controller.Options{Logger: logger}); err != nil {
		return nil, fmt.Errorf("failed to register link hook: %w", err)
	}

	return &Application{
		config:     cfg,
		watcher:    watcher,
		dispatcher: disp,
		firewall:   fw,
		analysis:   repo,
	}, nil
}

// loadSignatures returns the rules from the configured file, or the built-in
// signature set when no file is configured.
func loadSignatures(cfg *config.AppConfig) ([]domain.SignatureRule, error) {
	if cfg.RulesFile == "" {
		sigs := detector.DefaultSignatures()
		log.Info(map[string]any{
			"rules":  len(sigs),
			"source": "built-in",
		}, "Signature rules loaded")
		return sigs, nil
	}

	sigs, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules file: %w", err)
	}
	log.Info(map[string]any{
		"rules":  len(sigs),
		"source": cfg.RulesFile,
	}, "Signature rules loaded")
	return sigs, nil
}

// Run starts the watcher and blocks until the context is cancelled. SIGUSR1
// dumps a JSON status report to the log while running.
func (app *Application) Run(ctx context.Context) error {
	if err := app.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start recent log watcher: %w", err)
	}

	log.Info(map[string]any{
		"recent_file": app.config.RecentFile,
		"threshold":   app.firewall.Threshold(),
	}, "Link guard started")

	usrChan := make(chan os.Signal, 1)
	signal.Notify(usrChan, syscall.SIGUSR1)
	defer signal.Stop(usrChan)

	for {
		select {
		case <-usrChan:
			app.dumpStatus()
		case <-ctx.Done():
			return app.shutdown()
		}
	}
}

// shutdown stops the watcher first so no new events are produced, then
// drains the dispatcher within the configured timeout.
func (app *Application) shutdown() error {
	log.Info(nil, "Shutdown initiated")

	app.watcher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.dispatcher.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("dispatcher shutdown: %w", err)
	}

	published, dropped := app.dispatcher.Stats()
	log.Info(map[string]any{
		"published": published,
		"dropped":   dropped,
		"blocked":   len(app.firewall.History()),
	}, "Graceful shutdown completed")
	return nil
}

// statusReport is the SIGUSR1 diagnostic payload.
type statusReport struct {
	Watcher    recentlog.Status `json:"watcher"`
	Dispatcher dispatcherStats  `json:"dispatcher"`
	Cache      cacheStats       `json:"cache"`
	Threshold  float64          `json:"block_threshold"`
	Blocked    []blockedEntry   `json:"blocked"`
	SiteCounts map[string]int   `json:"site_counts"`
}

type dispatcherStats struct {
	Published uint64 `json:"published_events"`
	Dropped   uint64 `json:"dropped_events"`
}

type cacheStats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
}

type blockedEntry struct {
	URL        string    `json:"url"`
	Site       string    `json:"site"`
	Rule       string    `json:"rule,omitempty"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	ObservedAt time.Time `json:"observed_at"`
}

// dumpStatus logs a JSON snapshot of every component's counters plus the
// full block history.
func (app *Application) dumpStatus() {
	verdicts := app.firewall.History()
	blocked := make([]blockedEntry, 0, len(verdicts))
	for _, v := range verdicts {
		blocked = append(blocked, blockedEntry{
			URL:        v.Event.URL,
			Site:       urlnorm.Site(v.Event.URL),
			Rule:       v.Result.MatchedRule,
			Confidence: v.Result.Confidence,
			Reason:     v.Reason,
			ObservedAt: v.Event.ObservedAt,
		})
	}

	published, dropped := app.dispatcher.Stats()
	stats := app.analysis.RepoStats()

	report := statusReport{
		Watcher: app.watcher.Status(),
		Dispatcher: dispatcherStats{
			Published: published,
			Dropped:   dropped,
		},
		Cache: cacheStats{
			Hits:      stats.Hits,
			Misses:    stats.Misses,
			Evictions: stats.Evictions,
			Entries:   stats.Entries,
		},
		Threshold:  app.firewall.Threshold(),
		Blocked:    blocked,
		SiteCounts: app.firewall.SiteCounts(),
	}

	payload, err := json.Marshal(report)
	if err != nil {
		log.Error(map[string]any{"error": err.Error()}, "Failed to encode status report")
		return
	}

	log.Info(map[string]any{"status": string(payload)}, "Status report")
}
