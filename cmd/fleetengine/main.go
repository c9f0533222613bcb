package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/iotlog/fleetengine/internal/api"
	"github.com/iotlog/fleetengine/internal/cache"
	"github.com/iotlog/fleetengine/internal/config"
	"github.com/iotlog/fleetengine/internal/geo"
	"github.com/iotlog/fleetengine/internal/influx"
	"github.com/iotlog/fleetengine/internal/logging"
	"github.com/iotlog/fleetengine/internal/measure"
	"github.com/iotlog/fleetengine/internal/monitor"
	"github.com/iotlog/fleetengine/internal/motion"
	"github.com/iotlog/fleetengine/internal/playback"
	"github.com/iotlog/fleetengine/internal/render"
	"github.com/iotlog/fleetengine/internal/render/ws"
	"github.com/iotlog/fleetengine/internal/store"
	"github.com/iotlog/fleetengine/internal/transport"
)

// BuildDate can be set at build time via ldflags.
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	EngineName string = "fleetengine"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	SessionStartTime time.Time = time.Now()
)

// engine bundles the wired services so the control loop can reach them.
type engine struct {
	session  *playback.Session
	tracker  *measure.Tracker
	markers  *cache.VesselCache
	router   *transport.Router
	client   *api.Client
	backend  store.Backend
	renderer *ws.Renderer
	monitor  *monitor.Service
	influx   *influx.Manager

	routeCtl *playback.RouteController
	regionR  *playback.RegionRenderer

	logFile *os.File
}

func main() {
	configDir := flag.String("config", ".", "directory containing fleetengine.cfg.json")
	flag.Parse()

	// Bootstrap logging to stdout until the log file is open.
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info")
	Logger = SlogManager.Logger()
	Logger.Info("Starting up...", "version", CurrentVersion, "buildDate", BuildDate)

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", *configDir)
	}

	e, err := setup()
	if err != nil {
		Logger.Error("Failed to start engine", "error", err)
		os.Exit(1)
	}
	defer e.shutdown()

	go checkServerStatus(e.client)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		runControlLoop(e, os.Stdin)
		close(done)
	}()

	select {
	case s := <-sig:
		Logger.Info("Received signal, shutting down", "signal", s.String())
	case <-done:
		Logger.Info("Control channel closed, shutting down")
	}
}

// setup wires every service from the loaded configuration.
func setup() (*engine, error) {
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating logs directory: %w", err)
	}

	logPath := logging.LogFilePath(logsDir, EngineName, SessionStartTime)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	SlogManager.Setup(logFile, config.GetString("logLevel"))
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logPath)

	e := &engine{logFile: logFile}

	e.session = playback.NewSession(Logger)
	e.tracker = newTracker(Logger)
	e.markers = cache.NewVesselCache()

	// Inject live session state into every log record.
	Logger = slog.New(logging.NewContextHandler(Logger.Handler(), func() []slog.Attr {
		snap := e.session.Snapshot()
		return []slog.Attr{
			slog.Bool("sessionActive", snap.Active),
			slog.String("sessionType", string(snap.Type)),
			slog.Bool("playing", snap.Playing),
		}
	}))

	e.client = api.New(config.GetString("api.serverUrl"), config.GetString("api.apiKey"))

	e.backend, err = store.NewBackend(config.GetStoreConfig())
	if err != nil {
		return nil, fmt.Errorf("creating voyage store: %w", err)
	}
	if err := e.backend.Init(); err != nil {
		return nil, fmt.Errorf("initializing voyage store: %w", err)
	}
	Logger.Info("Voyage store initialized", "type", config.GetStoreConfig().Type)

	// Rendering surface: stream to the browser when the channel is up,
	// draw nowhere otherwise.
	var surface render.Map = render.NopMap{}
	if config.GetBool("ws.enabled") {
		e.renderer = ws.New(ws.Config{
			URL:     config.GetString("ws.url"),
			Secret:  config.GetString("ws.secret"),
			Engine:  EngineName,
			Version: CurrentVersion,
		}, Logger)
		if err := e.renderer.Init(); err != nil {
			Logger.Warn("Render channel unavailable, drawing disabled", "error", err)
			e.renderer = nil
		} else {
			surface = e.renderer
			Logger.Info("Render channel connected", "url", config.GetString("ws.url"))
		}
	}

	pbCfg := config.GetPlaybackConfig()
	e.routeCtl = playback.NewRouteController(e.session, playback.RouteConfig{
		Map:       surface,
		NewDriver: func() motion.Driver { return motion.NewTickerDriver(pbCfg.FrameInterval) },
		Logger:    Logger,
	})
	e.regionR = playback.NewRegionRenderer(e.session, playback.RegionConfig{
		Map:       surface,
		Markers:   e.markers,
		ShowNames: pbCfg.ShowVesselNames,
		Logger:    Logger,
	})

	// Mirror the cursor to the scrubber UI.
	e.session.Subscribe(func(ch playback.Change) {
		if e.renderer == nil {
			return
		}
		switch ch.Kind {
		case playback.TimeChanged, playback.PlayChanged, playback.SpeedChanged:
			snap := e.session.Snapshot()
			e.renderer.PublishTime(snap.CurrentTime, snap.Playing, snap.Speed)
		}
	})

	e.router, err = transport.New(logging.NewRouterLogger(Logger))
	if err != nil {
		return nil, fmt.Errorf("creating command router: %w", err)
	}
	transport.RegisterPlayback(e.router, e.session)
	transport.RegisterMeasure(e.router, e.tracker)
	registerLifecycleHandlers(e)
	registerVoyageHandlers(e)

	if config.GetBool("influx.enabled") {
		zlog := zerolog.New(e.logFile).With().Timestamp().Logger()
		e.influx = influx.NewManager(zlog, filepath.Join(logsDir, "influx_backup.gz"))
		if err := e.influx.Connect(); err != nil {
			Logger.Warn("InfluxDB unavailable", "error", err)
			e.influx = nil
		}
	}

	e.monitor = monitor.NewService(monitor.Dependencies{
		LogManager: SlogManager,
		Session:    e.session,
		Tracker:    e.tracker,
		Markers:    e.markers,
		Route:      e.routeCtl,
		Region:     e.regionR,
		Influx:     e.influx,
		StatusDir:  logsDir,
	})
	if err := e.monitor.Start(); err != nil {
		Logger.Warn("Status monitor failed to start", "error", err)
	}

	return e, nil
}

func (e *engine) shutdown() {
	Logger.Info("Shutting down...")

	if e.monitor != nil {
		e.monitor.Stop()
	}
	e.session.SetActive(false, "")
	if e.routeCtl != nil {
		e.routeCtl.Close()
	}
	if e.regionR != nil {
		e.regionR.Close()
	}
	if e.renderer != nil {
		if err := e.renderer.Close(); err != nil {
			Logger.Warn("Error closing render channel", "error", err)
		}
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			Logger.Warn("Error closing voyage store", "error", err)
		}
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

// newTracker builds the measurement tracker with the configured
// defaults applied.
func newTracker(logger *slog.Logger) *measure.Tracker {
	cfg := config.GetMeasureConfig()
	tr := measure.NewTracker(logger)
	if cfg.DefaultUnit != "" {
		tr.SetUnit(geo.Unit(cfg.DefaultUnit))
	}
	tr.SetSpeed(cfg.DefaultSpeedKnots)
	return tr
}

// checkServerStatus logs whether the fleet API frontend is reachable.
func checkServerStatus(client *api.Client) {
	if err := client.Healthcheck(); err != nil {
		Logger.Info("Fleet API is offline", "error", err)
	} else {
		Logger.Info("Fleet API is online")
	}
}
