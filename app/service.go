// Package app wires the dispatch services together from the configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldcrew/dispatch/config"
	"github.com/fieldcrew/dispatch/core/anomaly"
	"github.com/fieldcrew/dispatch/core/assign"
	"github.com/fieldcrew/dispatch/core/audit"
	"github.com/fieldcrew/dispatch/core/emergency"
	"github.com/fieldcrew/dispatch/core/lifecycle"
	"github.com/fieldcrew/dispatch/core/scheduler"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/core/watchdog"
	"github.com/fieldcrew/dispatch/geocall"
	"github.com/fieldcrew/dispatch/infra/logger"
	"github.com/fieldcrew/dispatch/infra/metrics"
	"github.com/fieldcrew/dispatch/infra/notify"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

// Service orchestrates the dispatch engine and its collaborators.
type Service struct {
	Store       *store.MemoryStore
	Engine      *assign.Engine
	Lifecycle   *lifecycle.Lifecycle
	Coordinator *emergency.Coordinator
	Monitor     *anomaly.Monitor
	Importer    *geocall.Importer
	Watchdog    *watchdog.Watchdog

	cfg      *config.Config
	bus      eventbus.EventBus
	audit    audit.Store
	notifier *notify.Notifier
	recorder *metrics.Recorder
	runner   *scheduler.Runner
	log      logger.Logger
	promPort string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	st := store.NewMemoryStore()
	bus := eventbus.New()

	aud, err := audit.Open(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}

	connector := geocall.NewConnector(cfg.Geocall)

	engine := assign.NewEngine(cfg.Assign, st, aud, bus, connector, logger.New("assign"))
	lc := lifecycle.New(st, aud, bus, connector, logger.New("lifecycle"))
	coord := emergency.NewCoordinator(st, aud, bus, engine, logger.New("emergency"))
	monitor := anomaly.NewMonitor(st, bus, logger.New("anomaly"))
	importer := geocall.NewImporter(st, connector, engine, logger.New("geocall"))
	wd := watchdog.New(cfg.Watchdog, st, bus, logger.New("watchdog"))

	svc := &Service{
		Store:       st,
		Engine:      engine,
		Lifecycle:   lc,
		Coordinator: coord,
		Monitor:     monitor,
		Importer:    importer,
		Watchdog:    wd,
		cfg:         cfg,
		bus:         bus,
		audit:       aud,
		log:         logg,
		promPort:    cfg.Metrics.PrometheusPort,
	}

	if cfg.Notify.Enabled {
		pub, err := notify.NewPahoPublisher(cfg.Notify)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.notifier = notify.NewNotifier(pub, bus, logger.New("notify"))
	}
	if cfg.Metrics.Influx.Enabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.Influx)
		svc.recorder = metrics.NewRecorder(sink, bus, logger.New("metrics"))
	}

	runner := scheduler.NewRunner(logger.New("scheduler"))
	runner.Add("geocall-poll",
		time.Duration(cfg.Geocall.PollIntervalSeconds)*time.Second,
		func(ctx context.Context) error {
			importer.Poll(ctx)
			return nil
		})
	runner.Add("overdue-sweep",
		time.Duration(cfg.Watchdog.SweepIntervalSeconds)*time.Second,
		wd.SweepOverdue)
	runner.Add("competence-sweep", 24*time.Hour, wd.SweepCompetences)
	svc.runner = runner

	return svc, nil
}

// RegisterMetrics registers every collector on the given registry. A nil
// registry targets the default Prometheus registerer.
func RegisterMetrics(reg prometheus.Registerer) {
	assign.MustRegisterMetrics(reg)
	lifecycle.MustRegisterMetrics(reg)
	emergency.MustRegisterMetrics(reg)
	anomaly.MustRegisterMetrics(reg)
	watchdog.MustRegisterMetrics(reg)
}

// Run starts the background workers and blocks until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.notifier != nil {
		s.notifier.Start()
	}
	if s.recorder != nil {
		s.recorder.Start()
	}
	s.runner.Start(ctx)
	if s.promPort != "" {
		go func() {
			reg := prometheus.NewRegistry()
			RegisterMetrics(reg)
			if err := metrics.StartPromServer(ctx, s.promPort, reg); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	s.log.Infof("dispatch engine running")
	<-ctx.Done()
	s.runner.Wait()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Engine.Close()
	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.recorder != nil {
		s.recorder.Close()
	}
	s.bus.Close()
	return s.audit.Close()
}
