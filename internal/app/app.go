package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hardng/arca/internal/adapter/notify"
	"github.com/hardng/arca/internal/adapter/objectstore"
	"github.com/hardng/arca/internal/adapter/source"
	"github.com/hardng/arca/internal/adapter/storage"
	"github.com/hardng/arca/internal/config"
	"github.com/hardng/arca/internal/domain"
	"github.com/hardng/arca/internal/infrastructure/command"
	"github.com/hardng/arca/internal/infrastructure/logger"
	"github.com/hardng/arca/internal/infrastructure/metrics"
	"github.com/hardng/arca/internal/infrastructure/scheduler"
	"github.com/hardng/arca/internal/usecase"
)

type App struct {
	cfg        *config.Config
	log        *logger.Logger
	producer   domain.Producer
	local      *storage.Local
	store      domain.ObjectStore
	storeName  string
	mirrors    []domain.Mirror
	notifier   domain.Notifier
	metrics    metrics.Metrics
	metricsSrv *MetricsServer
	scheduler  *scheduler.Scheduler
}

// New wires one source's backup stack from validated configuration.
// daemon switches on Prometheus metrics and their HTTP server; one-shot
// runs keep the noop recorder.
func New(cfg *config.Config, daemon bool) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	local, err := storage.NewLocal(cfg.Backup.Dir)
	if err != nil {
		return nil, err
	}

	resolver := command.NewResolver()

	producer, err := newProducer(cfg, resolver)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		producer: producer,
		local:    local,
		metrics:  metrics.Noop{},
	}

	if cfg.S3.Enabled {
		endpoint := objectstore.NewEndpoint(cfg.S3)
		var store domain.ObjectStore
		if cfg.S3.UseSDK {
			store = objectstore.NewSDK(endpoint, producer.Prefix())
			a.storeName = "s3"
		} else {
			store = objectstore.NewMC(endpoint, producer.Prefix(), cfg.S3.MCCommand, cfg.Backup.Dir, resolver)
			a.storeName = endpoint.Alias
		}

		// Purely local: writes client config, never dials the endpoint.
		if err := store.Configure(context.Background()); err != nil {
			return nil, err
		}
		a.store = store
		log.Infof("✓ S3 upload enabled (%s)", store.Location(""))
	}

	for _, mirrorCfg := range cfg.EnabledMirrors() {
		switch mirrorCfg.Type {
		case "gdrive":
			mirror, err := storage.NewGDrive(context.Background(), mirrorCfg)
			if err != nil {
				log.Errorf("Failed to initialize Google Drive mirror: %v", err)
				continue
			}
			a.mirrors = append(a.mirrors, mirror)
			log.Infof("✓ Google Drive mirror enabled")
		default:
			log.Warnf("Unknown mirror type: %s", mirrorCfg.Type)
		}
	}

	if cfg.Telegram.Enabled {
		notifier, err := notify.NewTelegram(cfg.Telegram)
		if err != nil {
			log.Errorf("Failed to initialize Telegram notifications: %v", err)
		} else {
			a.notifier = notifier
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	if daemon && cfg.App.MetricsAddr != "" {
		a.metrics = metrics.NewProm("arca")
		a.metricsSrv = NewMetricsServer(log, cfg.App.MetricsAddr, metrics.Handler())
	}

	return a, nil
}

func newProducer(cfg *config.Config, resolver *command.Resolver) (domain.Producer, error) {
	switch cfg.Source.Kind {
	case config.KindMongo:
		return source.NewMongo(cfg.Source, resolver), nil
	case config.KindRedis:
		return source.NewRedis(cfg.Source, resolver), nil
	case config.KindNginx, config.KindNacos:
		return source.NewDir(cfg.Source.Kind, cfg.Source.Dir), nil
	default:
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("unknown source kind %q", cfg.Source.Kind)}
	}
}

func (a *App) newBackup() *usecase.Backup {
	return usecase.NewBackup(usecase.BackupParams{
		Producer:     a.producer,
		Local:        a.local,
		Store:        a.store,
		StoreName:    a.storeName,
		Mirrors:      a.mirrors,
		Notifier:     a.notifier,
		Logger:       a.log,
		Metrics:      a.metrics,
		LocalPolicy:  a.cfg.Backup.Retention.Policy(),
		RemotePolicy: a.cfg.S3.Retention.Policy(),
		CleanupLocal: a.cfg.S3.CleanupLocal,
	})
}

// Backup performs one run.
func (a *App) Backup(ctx context.Context) error {
	return a.newBackup().Execute(ctx)
}

// Restore replays ref into the source. Only the database-backed sources
// support it.
func (a *App) Restore(ctx context.Context, ref string, assumeYes bool) error {
	restorer, ok := a.producer.(domain.Restorer)
	if !ok {
		return &domain.ConfigError{Reason: fmt.Sprintf("restore is not supported for %s sources", a.cfg.Source.Kind)}
	}

	uc := usecase.NewRestore(usecase.RestoreParams{
		Restorer:  restorer,
		Store:     a.store,
		Local:     a.local,
		Logger:    a.log,
		Input:     os.Stdin,
		Output:    os.Stdout,
		AssumeYes: assumeYes,
	})
	return uc.Execute(ctx, ref)
}

// RunDaemon schedules backups on the cron spec and blocks until the
// context is cancelled. A run that fails is logged by the run itself and
// never stops the schedule.
func (a *App) RunDaemon(ctx context.Context, schedule string) error {
	sched := scheduler.New()
	a.scheduler = sched

	kind := a.cfg.Source.Kind
	if err := sched.AddJob(schedule, func(ctx context.Context) error {
		a.log.Infof("=== Triggered scheduled backup for %s ===", kind)
		return a.Backup(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	if a.metricsSrv != nil {
		a.metricsSrv.Start()
	}

	sched.Start(ctx)
	a.log.Infof("Scheduler started, %s backups run on %q", kind, schedule)

	<-ctx.Done()
	return nil
}

func (a *App) Shutdown() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsSrv.Shutdown(shutdownCtx); err != nil {
			a.log.Errorf("Metrics server shutdown: %v", err)
		}
	}
	a.log.Close()
}
