package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-webform/internal/server"
	"github.com/goliatone/go-webform/internal/store/sqlstore"
	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/orchestrator"
	"github.com/goliatone/go-webform/pkg/taxonomy"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()

	forms, err := definition.LoadFS(os.DirFS(cfg.WebformDir))
	if err != nil {
		log.Fatalf("loading webforms from %s: %v", cfg.WebformDir, err)
	}
	if forms.Empty() {
		log.Printf("no webform definitions found in %s", cfg.WebformDir)
	}

	normOpts := []normalizer.Option{}
	if cfg.Sanitize {
		normOpts = append(normOpts, normalizer.WithMarkupSanitizer(nil))
	}
	if cfg.DBDriver != "" {
		store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			log.Fatalf("opening store: %v", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("preparing store: %v", err)
		}
		cached, err := taxonomy.NewCachedLoader(store, cfg.CacheSize)
		if err != nil {
			log.Fatalf("building vocabulary cache: %v", err)
		}
		normOpts = append(normOpts, normalizer.WithDraftLoader(store), normalizer.WithVocabularyLoader(cached))
		log.Printf("drafts and vocabularies served from %s", cfg.DBDriver)
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithStore(forms),
		orchestrator.WithNormalizer(normalizer.New(normOpts...)),
	}
	if cfg.Preset != "" {
		data, err := os.ReadFile(cfg.Preset)
		if err != nil {
			log.Fatalf("reading preset: %v", err)
		}
		preset, err := orchestrator.NewPresetTransformer(data)
		if err != nil {
			log.Fatalf("loading preset: %v", err)
		}
		orchOpts = append(orchOpts, orchestrator.WithTransformer(preset))
	}

	if err := server.Run(ctx, server.Config{
		Addr:         cfg.Addr,
		Orchestrator: orchestrator.New(orchOpts...),
		Quiet:        cfg.Quiet,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
