package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/pythia/internal/agent"
	"github.com/fortuna/pythia/internal/api"
	"github.com/fortuna/pythia/internal/cache"
	"github.com/fortuna/pythia/internal/llm"
	"github.com/fortuna/pythia/internal/session"
	"github.com/fortuna/pythia/internal/tools"
	"github.com/fortuna/pythia/internal/upstream/hoops"
	"github.com/fortuna/pythia/internal/upstream/projections"
)

const (
	serviceName    = "pythia"
	serviceVersion = "1.0.0"
)

func main() {
	log.Printf("Starting %s v%s - Fantasy Sports Assistant", serviceName, serviceVersion)

	config := loadConfig()

	// Redis is optional: without it every upstream fetch hits the network.
	var responseCache *cache.ResponseCache
	if config.RedisURL != "" {
		var err error
		responseCache, err = cache.New(config.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer responseCache.Close()
		log.Println("✓ Connected to Redis")
	} else {
		log.Println("REDIS_URL not set, upstream response caching disabled")
	}

	projectionsClient := projections.New(config.ProjectionsAPIBase, responseCache)
	statsClient := hoops.New(config.StatsAPIBase, config.StatsAPIKey)
	registry := tools.NewRegistry(projectionsClient, statsClient)

	// The sports catalog feeds the system prompt; startup proceeds on the
	// built-in mapping when the endpoint is down.
	sportsMapping := ""
	catalogCtx, cancelCatalog := context.WithTimeout(context.Background(), 5*time.Second)
	if sports, err := projectionsClient.FetchSports(catalogCtx); err != nil {
		log.Printf("⚠️  Could not load sports catalog: %v (using built-in mapping)", err)
	} else {
		sportsMapping = agent.SportsMapping(sports)
		log.Printf("✓ Loaded %d sports from catalog", len(sports))
	}
	cancelCatalog()

	chatAgent := agent.New(llm.NewClient(config.LLMAPIBase, config.LLMAPIKey), registry, config.LLMModel, sportsMapping)

	sessions := session.NewRegistry(session.Settings{
		ProjectionsBaseURL: config.ProjectionsAPIBase,
		StatsBaseURL:       config.StatsAPIBase,
		StatsAPIKey:        config.StatsAPIKey,
	})

	server := api.NewServer(config.Port, sessions, chatAgent)
	go func() {
		log.Printf("✓ Chat server listening on :%s", config.Port)
		if err := server.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  WebSocket: ws://0.0.0.0:%s/ws/{session_id}", config.Port)
	log.Printf("  Health:    http://0.0.0.0:%s/health", config.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Printf("Shutting down %s gracefully...", serviceName)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
}

// Config holds process configuration, supplied via environment.
type Config struct {
	Port               string
	ProjectionsAPIBase string
	StatsAPIBase       string
	StatsAPIKey        string
	LLMAPIBase         string
	LLMAPIKey          string
	LLMModel           string
	RedisURL           string
}

func loadConfig() Config {
	return Config{
		Port:               getEnv("PORT", "8765"),
		ProjectionsAPIBase: getEnv("PROJECTIONS_API_BASE", "http://localhost:8000"),
		StatsAPIBase:       getEnv("STATS_API_BASE", "https://api.balldontlie.io/v1"),
		StatsAPIKey:        getEnv("STATS_API_KEY", ""),
		LLMAPIBase:         getEnv("LLM_API_BASE", "https://api.openai.com"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o"),
		RedisURL:           getEnv("REDIS_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
