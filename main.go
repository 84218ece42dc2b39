package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"boxsetter/config"
	"boxsetter/server"
	"boxsetter/services/comfyui"
	"boxsetter/services/emby"
	"boxsetter/services/scheduler"
	syncsvc "boxsetter/services/sync"
	"boxsetter/services/tastedive"
	"boxsetter/services/tmdb"
	"boxsetter/services/trakt"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("BOXSETTER_CONFIG")
	}
	if path == "" {
		path = filepath.Join("config", "boxsetter.yaml")
	}

	settings, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("invalid settings: %v", err)
	}

	// Stdout carries the MCP stdio transport, so all logging goes to stderr
	// plus a rotated file.
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSizeMB,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stderr, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			slog.SetDefault(slog.New(slog.NewTextHandler(multiWriter, nil)))
		}
	} else {
		log.SetOutput(os.Stderr)
	}

	embyClient := emby.NewClient(settings.Emby.ServerURL, settings.Emby.APIKey)
	tmdbClient := tmdb.NewClient(settings.TMDB.ReadAccessToken)
	traktClient := trakt.NewClient(settings.Trakt.ClientID, settings.Trakt.ClientSecret)
	tastediveClient := tastedive.NewClient(settings.TasteDive.APIKey)
	comfyuiClient := comfyui.NewClient(settings.ComfyUI.URL, settings.ComfyUI.OutputDir)

	engine := syncsvc.NewEngine(embyClient, tmdbClient, traktClient, syncsvc.Options{
		BatchSize:           settings.Sync.BatchSize,
		QualityFetchWorkers: settings.Sync.QualityFetchWorkers,
	})

	ctx := context.Background()

	var sched *scheduler.Service
	if settings.Sync.AutoSyncEnabled {
		interval := time.Duration(settings.Sync.AutoSyncIntervalMin) * time.Minute
		sched = scheduler.NewService(engine, interval)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
	}

	srv := server.New(version, server.Deps{
		Emby:      embyClient,
		TMDB:      tmdbClient,
		Trakt:     traktClient,
		TasteDive: tastediveClient,
		ComfyUI:   comfyuiClient,
		Engine:    engine,
	})

	slog.Info("server starting",
		"version", version,
		"emby", settings.Emby.ServerURL,
		"auto_sync", settings.Sync.AutoSyncEnabled)

	serveErr := srv.Serve()

	if sched != nil {
		stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			log.Printf("scheduler stop: %v", err)
		}
	}

	if serveErr != nil {
		log.Fatalf("server error: %v", serveErr)
	}
	slog.Info("server stopped")
}
