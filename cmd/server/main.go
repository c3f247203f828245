// taskpilot server: natural-language task actions over HTTP.
package main

import (
	"flag"
	"log"
	"net/http"

	"taskpilot/internal/classify"
	"taskpilot/internal/clock"
	"taskpilot/internal/config"
	"taskpilot/internal/defaults"
	"taskpilot/internal/engine"
	"taskpilot/internal/extract"
	"taskpilot/internal/httpmw"
	"taskpilot/internal/model"
	"taskpilot/internal/notify"
	"taskpilot/internal/server"
	"taskpilot/internal/store"
	"taskpilot/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	config.FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := log.Default()

	users, err := buildStores(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	eng := engine.NewClient(cfg.Engine.URL, cfg.Engine.Timeout())
	handler := buildHandler(cfg, users, eng, logger)

	logger.Printf("taskpilot listening on %s (engine %s, store %s)", cfg.Server.Addr, cfg.Engine.URL, cfg.Store.Driver)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, handler))
}

func buildStores(cfg *config.Config) (server.UserStores, error) {
	base := model.Settings{
		DefaultTiming:        model.TimingPolicy(cfg.Defaults.Timing),
		NotificationsEnabled: cfg.Defaults.Notifications,
	}
	switch cfg.Store.Driver {
	case "sqlite":
		db, err := store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		db.SetBaseSettings(base)
		return db, nil
	default:
		mem := store.NewMemory()
		mem.SetBaseSettings(base)
		return mem, nil
	}
}

func buildHandler(cfg *config.Config, users server.UserStores, eng extract.Engine, logger *log.Logger) http.Handler {
	clk := clock.Real{}
	app := &server.App{
		Users:      users,
		Pipeline:   extract.NewPipeline(eng, clk, cfg.Engine.Timeout(), cfg.Heuristics.FolderKeywords),
		Classifier: classify.New(cfg.Heuristics.Classifier),
		Selector:   defaults.NewSelector(cfg.Heuristics.SmartRules),
		Scheduler:  notify.NewScheduler(notify.LogSender{Logger: logger}, clk),
		Events:     telemetry.NewMemoryRepository(clk),
		Clock:      clk,
		Logger:     logger,
	}

	mux := http.NewServeMux()
	rr := &server.RouteRegistry{}
	server.RegisterAPIRoutes(mux, rr, app)

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(logger),
		httpmw.WithRequestID,
		httpmw.WithUser,
		httpmw.WithRecover(logger),
	)
}
