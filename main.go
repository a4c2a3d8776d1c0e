package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/itetools/ite5570d/cmd"
	"github.com/itetools/ite5570d/internal/config"
	"github.com/itetools/ite5570d/internal/daemon"
	"github.com/itetools/ite5570d/internal/device"
	"github.com/itetools/ite5570d/internal/events"
	"github.com/itetools/ite5570d/internal/logging"
	"github.com/itetools/ite5570d/internal/metrics"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"/etc/ite5570d/config.toml"`

	// Lighting settings
	LightingConfig string `help:"Lighting configuration file (hot-reloadable)" default:"/etc/ite5570d/lighting.toml" toml:"lighting.config_file" env:"LIGHTING_CONFIG_FILE"`

	// Device settings
	DevicePath string `help:"hidraw device path (default: discover by vendor/product ID)" toml:"device.path" env:"DEVICE_PATH"`

	// Metrics settings
	MetricsAddr string `help:"Prometheus metrics listen address, empty disables" default:"" toml:"metrics.addr" env:"METRICS_ADDR"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingDaemon  string `help:"Control loop logging level" default:"info" toml:"logging.daemon" env:"LOGGING_DAEMON"`
	LoggingDevice  string `help:"Device logging level" default:"info" toml:"logging.device" env:"LOGGING_DEVICE"`
	LoggingConfig  string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingUpdater string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"daemon":  opts.LoggingDaemon,
				"device":  opts.LoggingDevice,
				"config":  opts.LoggingConfig,
				"updater": opts.LoggingUpdater,
			},
		})
		logger := logging.GetLogger("main")

		// Initial lighting config. A missing file means factory defaults;
		// a broken file is refused so the daemon never starts on values
		// it would reject on reload.
		lighting, lightErr := config.LoadLighting(opts.LightingConfig)
		switch {
		case lightErr == nil:
		case errors.Is(lightErr, fs.ErrNotExist):
			logger.Info("No lighting config, using defaults", "path", opts.LightingConfig)
			lighting = config.DefaultLighting()
		default:
			logger.Error("Invalid lighting config", "path", opts.LightingConfig, "error", lightErr)
			os.Exit(1)
		}

		eventBus := events.New()
		recorder := metrics.NewRecorder(eventBus)

		link := device.NewLink(device.Options{
			Path: opts.DevicePath,
			Bus:  eventBus,
		})
		ctrl := daemon.New(link, eventBus, logging.GetLogger("daemon"))

		watcher := config.NewWatcher(
			opts.LightingConfig,
			config.LoadLighting,
			ctrl.Reload,
			logging.GetLogger("config"),
			config.WithErrorHandler[config.Lighting](ctrl.ReloadError),
		)

		var metricsServer *http.Server
		if opts.MetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			metricsServer = &http.Server{
				Addr:              opts.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		sighup := make(chan os.Signal, 1)

		hooks.OnStart(func() {
			openCtx, openCancel := context.WithTimeout(ctx, 10*time.Second)
			if err := link.Open(openCtx); err != nil {
				openCancel()
				logger.Error("Failed to open device", "error", err)
				os.Exit(1)
			}
			openCancel()

			recorder.Start()

			if err := watcher.Start(); err != nil {
				logger.Warn("Config watcher failed to start, hot-reload disabled", "error", err)
			}

			// SIGHUP forces a reload even when the file watch missed the
			// change (bind mounts, some editors).
			signal.Notify(sighup, syscall.SIGHUP)
			go func() {
				for range sighup {
					cfg, err := config.LoadLighting(opts.LightingConfig)
					if err != nil {
						ctrl.ReloadError(err)
						continue
					}
					logger.Info("Reloading lighting config on SIGHUP")
					ctrl.Reload(cfg)
				}
			}()

			if metricsServer != nil {
				go func() {
					logger.Info("Metrics server listening", "addr", metricsServer.Addr)
					if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("Metrics server failed", "error", err)
					}
				}()
			}

			if _, err := sd.SdNotify(false, sd.SdNotifyReady); err != nil {
				logger.Debug("sd_notify not available", "error", err)
			}

			runErr := ctrl.Run(ctx, lighting)
			if runErr != nil {
				logger.Error("Control loop failed", "error", runErr)
			}
			close(done)
			// A loop failure outside shutdown means the device is gone
			if runErr != nil && ctx.Err() == nil {
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if _, err := sd.SdNotify(false, sd.SdNotifyStopping); err != nil {
				logger.Debug("sd_notify not available", "error", err)
			}

			cancel()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				logger.Warn("Control loop did not stop in time")
			}

			signal.Stop(sighup)
			close(sighup)

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			if metricsServer != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
				if stopErr := metricsServer.Shutdown(shutdownCtx); stopErr != nil {
					logger.Warn("Error stopping metrics server", "error", stopErr)
				}
				shutdownCancel()
			}
			recorder.Stop()

			if closeErr := link.Close(); closeErr != nil {
				logger.Warn("Error closing device", "error", closeErr)
			}
		})
	})

	cli.Root().Use = "ite5570d"
	cli.Root().Short = "Keyboard backlight daemon for the ITE 5570 controller"

	cli.Root().AddCommand(cmd.CreateSetCmd())
	cli.Root().AddCommand(cmd.CreateInfoCmd())
	cli.Root().AddCommand(cmd.CreateValidateCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
