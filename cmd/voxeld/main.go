package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/voxelcore/internal/api"
	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/entity"
	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/game"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/metrics"
	"github.com/annel0/voxelcore/internal/observability"
	"github.com/annel0/voxelcore/internal/terrain"
	"github.com/annel0/voxelcore/internal/worker"
	"github.com/annel0/voxelcore/internal/worldgen"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ Неверный уровень логирования: %v", err)
	}
	logging.Configure(cfg.Logging.Dir, level)
	if err := logging.InitDefaultLogger("voxeld"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}

	err = run(cfg)
	if err != nil {
		logging.Error("❌ Завершение с ошибкой: %v", err)
	} else {
		logging.Info("👋 voxeld остановлен")
	}
	logging.GetLoggerManager().CloseAll()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === OBSERVABILITY ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки телеметрии: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := newEventBus(cfg.EventBus)
	defer bus.Close()
	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start()
	defer exporter.Stop()
	if _, err := eventbus.StartLoggingListener(bus, logging.GetComponentLogger("events")); err != nil {
		logging.Warn("Логирование событий недоступно: %v", err)
	}

	// === WORLD ===
	pool := worker.NewPool(cfg.Terrain.Workers, worker.WithMetrics(metrics.NewPool(reg)))
	defer pool.Close()

	manager := terrain.NewManager(cfg.Terrain, pool, worldgen.NewGenerator(cfg.Generation), &terrain.NullBackend{},
		terrain.WithMetrics(metrics.NewTerrain(reg)),
		terrain.WithEventBus(bus),
	)
	player := entity.NewPlayer(cfg.Player)

	var input game.InputSource
	if cfg.Loop.AutoWalk {
		input = &game.AutoWalk{TurnPixels: 2}
	}
	loop := game.NewLoop(cfg.Loop, manager, player, input)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })

	if cfg.API.Enabled {
		srv, err := api.NewRestServer(cfg.API, api.LoopView{Loop: loop}, reg, reg)
		if err != nil {
			return err
		}
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	logging.Info("✅ voxeld запущен: радиус зон %d, сид %d", cfg.Terrain.ZoneRadius, cfg.Generation.Seed)
	return g.Wait()
}

// newEventBus выбирает JetStream при заданном URL, иначе шину в памяти
func newEventBus(cfg config.EventBusConfig) eventbus.EventBus {
	if cfg.URL == "" {
		return eventbus.NewMemoryBus(1024)
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		logging.Warn("JetStream недоступен (%v), используется шина в памяти", err)
		return eventbus.NewMemoryBus(1024)
	}
	logging.Info("📨 События мира публикуются в JetStream %s (stream=%s)", cfg.URL, cfg.Stream)
	return bus
}
