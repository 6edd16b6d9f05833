package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/adapters/acroform"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/adapters/report"
	sqliteadapter "github.com/mgulati3/ASU-BMF-FILLER/internal/adapters/sqlite"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/adapters/storage"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/config"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/handlers"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/service"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	opts := []formfill.Option{formfill.WithLogger(logger)}
	if cfg.PatternsFile != "" {
		p, err := formfill.LoadPatternsFile(cfg.PatternsFile)
		if err != nil {
			log.Fatalf("failed to load patterns: %v", err)
		}
		opts = append(opts, formfill.WithPatterns(p))
	}
	filler := formfill.New(acroform.NewOpener(), opts...)

	repo, err := sqliteadapter.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer repo.Close()
	if err := repo.Migrate(context.Background()); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	templateStore, err := storage.NewOS(cfg.TemplatesDir())
	if err != nil {
		log.Fatalf("failed to open template store: %v", err)
	}
	outputStore, err := storage.NewOS(cfg.OutputsDir())
	if err != nil {
		log.Fatalf("failed to open output store: %v", err)
	}

	svc := service.New(service.Deps{
		Filler:        filler,
		TemplateRepo:  repo,
		OutputRepo:    repo,
		TemplateStore: templateStore,
		OutputStore:   outputStore,
		Reporter:      report.New(),
		Builtin:       service.Builtin{Fs: afero.NewOsFs(), Path: cfg.BuiltinTemplate},
		Logger:        logger,
	})
	h := handlers.New(svc, cfg.MaxUploadSize, logger)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	log.Printf("ASU BMF Filler running on http://%s", cfg.Address())
	log.Printf("Database: %s", cfg.DBPath)
	log.Printf("Built-in template: %s", cfg.BuiltinTemplate)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
