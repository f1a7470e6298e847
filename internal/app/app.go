// Package app wires the application components from a workspace config.
// The CLI and the HTTP server both build an App and pull what they need.
package app

import (
	"context"
	"database/sql"
	"time"

	"trendle/internal/catalog"
	"trendle/internal/config"
	"trendle/internal/db"
	"trendle/internal/director"
	"trendle/internal/events"
	"trendle/internal/gateway"
	"trendle/internal/media"
	"trendle/internal/migrate"
	"trendle/internal/profile"
	"trendle/internal/storage"
	"trendle/internal/store"
	"trendle/internal/suggest"
	"trendle/internal/trends"
)

// App is the composed application.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Store    store.Store
	Events   events.Writer
	Gateway  gateway.Client
	Media    media.Service
	Blobs    storage.Store
	Uploader *storage.Uploader
	Trends   *trends.Service
	Engine   *director.Engine
	Agent    *profile.Agent
	Analyzer *suggest.Analyzer
}

// Open loads config, opens and migrates the database, seeds the format
// catalog, and wires every component. Call Close when done.
func Open(ctx context.Context, workspace string) (*App, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	st := store.Store{DB: conn}
	if err := st.SeedFormats(ctx, catalog.Seed(), time.Now().UTC()); err != nil {
		conn.Close()
		return nil, err
	}
	blobs, err := storage.New(cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}

	ev := events.Writer{DB: conn}
	gw := gateway.NewHTTP(cfg)
	med := media.NewFFmpeg(cfg)
	tr := trends.NewService(nil, time.Duration(cfg.Trends.CacheTTLHours)*time.Hour, nil)

	return &App{
		Config:   cfg,
		DB:       conn,
		Store:    st,
		Events:   ev,
		Gateway:  gw,
		Media:    med,
		Blobs:    blobs,
		Uploader: storage.NewUploader(blobs, cfg.Media.WorkDir),
		Trends:   tr,
		Engine:   director.NewEngine(conn, st, ev, gw, med, blobs, nil),
		Agent:    profile.NewAgent(conn, st, ev, gw, cfg.Profile.ConfidenceThreshold, nil),
		Analyzer: suggest.NewAnalyzer(st, gw, med, tr, nil),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
