package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"writer/config"
	"writer/config/database"
	"writer/internal/document/model"
	"writer/internal/document/repository"
	"writer/internal/document/service"
	"writer/internal/view"
	"writer/pkg/logger"
	"writer/router"
	"writer/socket"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// openStore constructs the single store the process uses. The caller closes it.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := database.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		store, err := repository.OpenPostgresStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	case config.BackendBadger:
		return repository.OpenBadgerStore(ctx, repository.BadgerOptions{
			Path:     cfg.BadgerPath,
			InMemory: cfg.BadgerInMemory,
		})
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

func serveCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if v := c.String("addr"); v != "" {
		cfg.Addr = v
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := socket.NewHub()
	docService := service.NewDocumentService(store, hub)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.Setup(docService, hub, view.MustRouter(view.DefaultRoutes), router.Options{JWTSecret: cfg.JWTSecret, CORSOrigin: cfg.CORSOrigin}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Sugar.Infof("Writer listening on %s (%s backend)", cfg.Addr, cfg.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Sugar.Info("Shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func migrateCommand(c *cli.Context) error {
	cfg := configFrom(c)
	store, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Sugar.Infof("Schema is at version %d", repository.SchemaVersion)
	fmt.Fprintf(c.App.Writer, "schema version %d\n", repository.SchemaVersion)
	return nil
}

func listCommand(c *cli.Context) error {
	return withService(c, func(svc *service.DocumentService) error {
		list := svc.ListDocuments
		if c.Bool("by-title") {
			list = svc.ListDocumentsByTitle
		}
		docs, err := list(c.Context)
		if err != nil {
			return err
		}
		return printJSON(c, docs)
	})
}

func getCommand(c *cli.Context) error {
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("usage: writer docs get ID: %w", err)
	}
	return withService(c, func(svc *service.DocumentService) error {
		doc, err := svc.GetDocument(c.Context, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("document %d not found", id)
		}
		return printJSON(c, doc)
	})
}

func saveCommand(c *cli.Context) error {
	req := model.SaveDocRequest{
		ID:      c.Int64("id"),
		Title:   c.String("title"),
		Content: json.RawMessage(c.String("content")),
	}
	return withService(c, func(svc *service.DocumentService) error {
		id, err := svc.SaveDocument(c.Context, req)
		if err != nil {
			return err
		}
		return printJSON(c, model.SaveDocResponse{ID: id})
	})
}

// withService opens the store for one command. No change feed runs here.
func withService(c *cli.Context, fn func(*service.DocumentService) error) error {
	store, err := openStore(c.Context, configFrom(c))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(service.NewDocumentService(store, nil))
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
