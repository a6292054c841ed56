package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inmo_scrooper/catalog"
	"inmo_scrooper/config"
	"inmo_scrooper/httputil"
	"inmo_scrooper/location"
	"inmo_scrooper/logging"
	"inmo_scrooper/models"
	"inmo_scrooper/scheduler"
	"inmo_scrooper/scraper"
	"inmo_scrooper/services"
	"inmo_scrooper/session"
	"inmo_scrooper/storage"
	"inmo_scrooper/workers"
)

var (
	queryText     = flag.String("q", "", "Free-text search, e.g. \"alquilar depto en villa morra hasta 800\"")
	opFlag        = flag.String("op", "", "Operation: venta or alquiler")
	typeFlag      = flag.String("type", "", "Property type, e.g. casa, apartamento, terreno")
	locFlag       = flag.String("loc", "", "Location name or slug (default asuncion)")
	minFlag       = flag.Float64("min", 0, "Minimum price")
	maxFlag       = flag.Float64("max", 0, "Maximum price")
	bedsFlag      = flag.Int("beds", 0, "Bedrooms")
	bathsFlag     = flag.Int("baths", 0, "Bathrooms")
	pageFlag      = flag.Int("page", 1, "Result page")
	listLocations = flag.Bool("locations", false, "Print known locations and exit")
	chatMode      = flag.Bool("chat", false, "Interactive search, one message per line")
	runOnce       = flag.Bool("watch-once", false, "Run saved searches once and exit")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

// run returns the exit code so deferred closes happen before os.Exit.
func run() int {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	logging.SetLevel(models.ParseLogLevel(cfg.LogLevel))

	logFile, err := logging.Setup(cfg.LogPath, 10*1024*1024)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	c := catalog.Default()
	if *listLocations {
		printJSON(struct {
			Locations  []catalog.LocationOption `json:"locations"`
			Types      []models.Option          `json:"property_types"`
			Operations []models.Option          `json:"operations"`
		}{c.Options(), models.PropertyTypeOptions, models.OperationOptions})
		return 0
	}

	site := cfg.Site()
	logging.Infof("main", "Site: %s (%s)", site.Name, site.BaseURL)
	if cfg.Proxy.Active() {
		logging.Infof("main", "Proxy: %s", cfg.Proxy.Endpoint)
	} else {
		logging.Infof("main", "Proxy disabled, fetching direct")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg.DBURL, cfg.DBPath)
	if err != nil {
		log.Printf("Warning: run log unavailable, keeping runs in memory: %v", err)
		store = storage.NewMemoryStore()
	} else if cfg.DBURL != "" {
		logging.Infof("main", "Run log: %s", maskConnectionString(cfg.DBURL))
	} else {
		logging.Infof("main", "Run log: %s", cfg.DBPath)
	}
	defer store.Close()

	resolver := location.NewResolver(c)
	client := httputil.NewClient(cfg.Proxy, cfg.Fetch, time.Duration(site.RateLimitMS)*time.Millisecond)
	orchestrator := scraper.NewOrchestrator(
		scraper.NewPlanner(c, client, site.BaseURL),
		scraper.NewNormalizer(site.BaseURL, site.FallbackCurrency),
		c,
	)

	source := "cli"
	if *chatMode {
		source = "chat"
	}
	searchService := services.NewSearchService(orchestrator, resolver, store, cfg.Cache, source)
	defer searchService.Close()

	switch {
	case *queryText != "":
		printJSON(searchService.SearchText(ctx, models.SearchFilter{}, *queryText))
		return 0
	case *opFlag != "" || *typeFlag != "" || *locFlag != "":
		printJSON(searchService.Search(ctx, structuredFilter()))
		return 0
	case *chatMode:
		runChat(ctx, searchService, session.NewStore(), os.Stdin, os.Stdout)
		return 0
	}

	// Daemon mode
	watcher := workers.NewWatcher(searchService, resolver, store, site.SavedSearches)
	logging.Infof("main", "Watching %d saved searches", len(watcher.Searches()))

	if *runOnce {
		return watchOnce(ctx, watcher)
	}

	go watcher.Run(ctx)
	sched := scheduler.New(cfg.Scheduler, watcher)
	if err := sched.Start(ctx); err != nil {
		logging.Errorf("main", "Failed to start scheduler: %v", err)
		return 1
	}
	sched.TriggerNow()

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	cancel()
	log.Println("Goodbye!")
	return 0
}

// watchOnce runs every saved search a single time.
func watchOnce(ctx context.Context, watcher *workers.Watcher) int {
	if err := watcher.RunAll(ctx); err != nil {
		logging.Errorf("main", "Watch pass failed: %v", err)
		return 1
	}
	return 0
}

// structuredFilter builds a filter from the -op/-type/... flags. Zero values
// mean "not set".
func structuredFilter() models.SearchFilter {
	f := models.SearchFilter{
		Operation:    models.Operation(*opFlag),
		PropertyType: models.PropertyType(*typeFlag),
		Location:     *locFlag,
		Page:         *pageFlag,
	}
	if *minFlag > 0 {
		f.PriceMin = models.Float64(*minFlag)
	}
	if *maxFlag > 0 {
		f.PriceMax = models.Float64(*maxFlag)
	}
	if *bedsFlag > 0 {
		f.Bedrooms = models.Int(*bedsFlag)
	}
	if *bathsFlag > 0 {
		f.Bathrooms = models.Int(*bathsFlag)
	}
	return f
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	// Simple mask - find :// and mask until @
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	// Find : after user
	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
