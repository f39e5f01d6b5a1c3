package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/l1jgo/tilemap/internal/httpapi"
	"github.com/l1jgo/tilemap/internal/persist"
	"github.com/l1jgo/tilemap/internal/source"
	"github.com/l1jgo/tilemap/internal/tilemap"
	"go.uber.org/zap"
)

type serveCmd struct {
	configPath *string
	addr       string
}

func (c *serveCmd) Name() string     { return "serve" }
func (c *serveCmd) Synopsis() string { return "serve map and graph queries over HTTP" }
func (c *serveCmd) Usage() string {
	return "tilemap serve [-addr <host:port>]\n"
}
func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address (default from config)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	e, err := openEnv(*c.configPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer e.close()

	if err := c.run(ctx, e); err != nil {
		e.log.Error("serve", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *serveCmd) run(ctx context.Context, e *env) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		load  httpapi.Loader
		names []string
	)
	if e.cfg.Maps.FromDatabase {
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		db, err := persist.NewDB(dbCtx, e.cfg.Database, e.log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if _, err := db.Migrate(dbCtx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		repo := persist.NewMapRepo(db)
		stored, err := repo.List(dbCtx)
		if err != nil {
			return fmt.Errorf("list maps: %w", err)
		}
		for _, s := range stored {
			names = append(names, s.Name)
		}
		load = func(ctx context.Context, name string) (*tilemap.Map, error) {
			doc, err := repo.Load(ctx, name)
			if err != nil || doc == nil {
				return nil, err
			}
			return e.buildMap(doc)
		}
	} else {
		docs, err := source.LoadDir(e.cfg.Maps.Dir, e.cfg.Maps.Files)
		if err != nil {
			return fmt.Errorf("load maps: %w", err)
		}
		for _, doc := range docs {
			names = append(names, doc.Name)
		}
		// the directory is rescanned so renamed or edited files are picked up
		load = func(_ context.Context, name string) (*tilemap.Map, error) {
			docs, err := source.LoadDir(e.cfg.Maps.Dir, e.cfg.Maps.Files)
			if err != nil {
				return nil, err
			}
			for _, doc := range docs {
				if doc.Name == name {
					return e.buildMap(doc)
				}
			}
			return nil, nil
		}
	}

	catalog := httpapi.NewCatalog(load, e.cfg.Navigation.Diagonals, e.log)
	fmt.Println()
	printSection("maps")
	for _, name := range names {
		if err := catalog.Reload(ctx, name); err != nil {
			return err
		}
		printOK(name)
	}
	fmt.Println()

	addr := c.addr
	if addr == "" {
		addr = e.cfg.HTTP.BindAddress
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpapi.NewRouter(catalog, e.log),
		ReadTimeout:  e.cfg.HTTP.ReadTimeout,
		WriteTimeout: e.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", addr))
	fmt.Println()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
		e.log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	e.log.Info("server stopped")
	return nil
}
