package api

import (
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/classifier"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/extractor"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/handler"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/service"
	"github.com/FACorreiaa/fi-statement-converter/internal/textsource"
	"github.com/FACorreiaa/fi-statement-converter/pkg/config"
	"github.com/FACorreiaa/fi-statement-converter/pkg/cron"
	"github.com/FACorreiaa/fi-statement-converter/pkg/metrics"
	"github.com/FACorreiaa/fi-statement-converter/pkg/middleware"
	"github.com/FACorreiaa/fi-statement-converter/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Infrastructure
	FileStorage storage.Storage
	Scheduler   *cron.Scheduler
	RateLimiter *middleware.RateLimiter

	// Services
	Classifier        *classifier.Classifier
	Extractor         *extractor.Extractor
	TextSources       *textsource.Registry
	ConversionService *service.Service

	// Handlers
	StatementHandler *handler.StatementHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = metrics.New()
	}

	if err := deps.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	if err := deps.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to init scheduler: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initStorage opens the local conversion store
func (d *Dependencies) initStorage() error {
	fileStorage, err := storage.NewLocalStorage(d.Config.Storage.BasePath)
	if err != nil {
		return err
	}
	d.FileStorage = fileStorage

	d.Logger.Info("file storage ready", slog.String("path", d.Config.Storage.BasePath))
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Classifier = classifier.NewDefault()
	d.Extractor = extractor.New(
		extractor.WithClassifier(d.Classifier),
		extractor.WithRowTolerance(d.Config.Extraction.RowTolerance),
		extractor.WithLogger(d.Logger),
	)

	d.TextSources = textsource.NewRegistry(textsource.Config{
		PDFToTextPath: d.Config.Extraction.PDFToTextPath,
		TesseractPath: d.Config.Extraction.TesseractPath,
		OCRLanguage:   d.Config.Extraction.OCRLanguage,
		Timeout:       d.Config.Extraction.ConverterTimeout,
	}, d.Logger)

	opts := []service.Option{
		service.WithWorkers(d.Config.Extraction.Workers),
		service.WithKeepUploads(d.Config.Storage.KeepUploads),
		service.WithLogger(d.Logger),
	}
	if d.Metrics != nil {
		opts = append(opts, service.WithMetrics(d.Metrics))
	}
	d.ConversionService = service.New(d.TextSources, d.Extractor, d.FileStorage, opts...)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.StatementHandler = handler.NewStatementHandler(
		d.ConversionService,
		d.Classifier,
		d.Config.Server.MaxUploadBytes,
		d.Logger,
	)
	d.RateLimiter = middleware.NewRateLimiter(
		float64(d.Config.Server.RateLimitPerSecond),
		d.Config.Server.RateLimitBurst,
	)

	d.Logger.Info("handlers initialized")
	return nil
}

// initScheduler wires the retention sweep and rate limiter pruning
func (d *Dependencies) initScheduler() error {
	spec := d.Config.Storage.RetentionSpec
	if !d.Config.Storage.RetentionEnable {
		spec = ""
	}
	d.Scheduler = cron.NewScheduler(d.FileStorage, spec, d.Config.Storage.Retention, d.Logger)
	if d.Metrics != nil {
		d.Scheduler.OnSweep(func(removed int) {
			d.Metrics.RetentionPurged.Add(float64(removed))
		})
	}
	return d.Scheduler.AddJob("@every 5m", "prune rate limiter", func() {
		if n := d.RateLimiter.Prune(); n > 0 {
			d.Logger.Debug("pruned idle rate limit clients", slog.Int("clients", n))
		}
	})
}

// Cleanup stops background jobs
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	d.Logger.Info("cleanup completed")
}
