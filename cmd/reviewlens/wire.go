package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/reviewlens/reviewlens/internal/ai"
	"github.com/reviewlens/reviewlens/internal/annotate"
	"github.com/reviewlens/reviewlens/internal/config"
	"github.com/reviewlens/reviewlens/internal/db"
	"github.com/reviewlens/reviewlens/internal/filestore"
	"github.com/reviewlens/reviewlens/internal/metrics"
	"github.com/reviewlens/reviewlens/internal/repo"
	"github.com/reviewlens/reviewlens/internal/service"
	"github.com/reviewlens/reviewlens/internal/similarity"
)

type app struct {
	db        *sql.DB
	reviews   *repo.ReviewRepo
	index     *similarity.Holder
	metrics   *metrics.Collector
	reviewSvc *service.ReviewService
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn, cfg.Driver); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return conn, nil
}

func breakerOptions(cfg config.AIConfig) ai.BreakerOptions {
	return ai.BreakerOptions{
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: time.Duration(cfg.Breaker.OpenSeconds) * time.Second,
		CallTimeout: time.Duration(cfg.Timeout) * time.Second,
	}
}

func buildClassifier(cfg config.AIConfig) (ai.IClassifier, error) {
	classifier, err := ai.NewClassifier(cfg.Classifier.Provider, cfg.Classifier.Model, cfg.Classifier.Data)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}
	if classifier.Name() == "lexicon" {
		return classifier, nil
	}
	return ai.WithClassifierBreaker(classifier, breakerOptions(cfg)), nil
}

// buildGenerator returns nil when no generator is configured, which makes
// every reply come from templates.
func buildGenerator(cfg config.AIConfig) (ai.IGenerator, error) {
	entries := make([]ai.GeneratorEntry, 0, len(cfg.Generators))
	for _, item := range cfg.Generators {
		provider, err := ai.NewProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init generator %s: %w", item.Name, err)
		}
		model := item.Model
		if model == "" {
			model = ai.DefaultModel(item.Provider)
		}
		gen := ai.WithGeneratorBreaker(item.Name, ai.NewGenerator(provider, model), breakerOptions(cfg))
		entries = append(entries, ai.GeneratorEntry{Name: item.Name, Generator: gen})
	}
	return ai.NewGroupGenerator(entries), nil
}

func newApp(cfg *config.Config) (*app, error) {
	conn, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	collector := metrics.NewCollector()
	reviews := repo.NewReviewRepo(conn, cfg.Database.Driver)
	holder := similarity.NewHolder(service.CorpusLoader(reviews), cfg.Similarity.MaxFeatures)
	holder.OnRebuild(collector.ObserveRebuild)

	classifier, err := buildClassifier(cfg.AI)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	annotator := annotate.New(classifier,
		annotate.WithCache(cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTLSeconds)*time.Second),
		annotate.WithFallbackHook(collector.ClassifierFallbacks.Inc),
	)
	archive, err := filestore.New(cfg.Archive)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init archive: %w", err)
	}
	return &app{
		db:        conn,
		reviews:   reviews,
		index:     holder,
		metrics:   collector,
		reviewSvc: service.NewReviewService(reviews, annotator, holder, archive, collector),
	}, nil
}

func runIngest(ctx context.Context, cfg *config.Config, path string) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(cfg)
	if err != nil {
		return 0, err
	}
	defer a.db.Close()
	payload, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read input: %w", err)
	}
	count, err := a.reviewSvc.Ingest(ctx, payload)
	if err != nil {
		return 0, err
	}
	logutil.GetLogger(ctx).Info("ingest finished", zap.String("file", path), zap.Int("count", count))
	return count, nil
}
