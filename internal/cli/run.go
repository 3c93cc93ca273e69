package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/herdfence/simulator/internal/api"
	"github.com/herdfence/simulator/internal/config"
	"github.com/herdfence/simulator/internal/geo"
	"github.com/herdfence/simulator/internal/influx"
	"github.com/herdfence/simulator/internal/logging"
	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/monitor"
	"github.com/herdfence/simulator/internal/runner"
	"github.com/herdfence/simulator/internal/session"
	"github.com/herdfence/simulator/internal/sim"
	"github.com/herdfence/simulator/internal/storage"
	"github.com/herdfence/simulator/internal/storage/factory"
	"github.com/herdfence/simulator/internal/worker"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Ticks       uint64
	SessionFile string
	SaveFile    string
	AlertsOut   string
	Name        string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a containment session",
		Long: `Run the containment simulation at the configured tick rate.

The arena, herd size and tick period come from herdfence.cfg.json;
--session restores a previously saved session file on top of that.
The run ends after --ticks ticks, or on Ctrl-C when --ticks is 0.

Example:
  herdfence run --ticks 600 --alerts-out alerts.csv
  herdfence run --session pasture.json --save pasture.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.Ticks, "ticks", 0, "number of ticks to run (0 = until interrupted)")
	cmd.Flags().StringVar(&opts.SessionFile, "session", "", "session file to restore before running")
	cmd.Flags().StringVar(&opts.SaveFile, "save", "", "session file to write when the run ends")
	cmd.Flags().StringVar(&opts.AlertsOut, "alerts-out", "", "write the run's alerts as CSV to this file")
	cmd.Flags().StringVar(&opts.Name, "name", "", "session name recorded with the run")

	return cmd
}

func runSimulation(parent context.Context, opts *RunOptions) error {
	if err := loadConfig(opts.RootOptions); err != nil {
		return err
	}

	sessionStart := time.Now()
	log, logFile, err := openLogger(opts.RootOptions, sessionStart)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	simCfg := config.GetSimConfig()
	doc := session.Document{
		ArenaWidth:      simCfg.ArenaWidth,
		ArenaHeight:     simCfg.ArenaHeight,
		TickMs:          simCfg.TickMs,
		InitialAnimals:  simCfg.InitialAnimals,
		SpeedMultiplier: simCfg.SpeedMultiplier,
		AnimalSize:      simCfg.AnimalSize,
		FenceColor:      config.GetString("fence.color"),
	}
	if opts.SessionFile != "" {
		doc, err = session.Load(opts.SessionFile, doc)
		if err != nil {
			return fmt.Errorf("loading session file: %w", err)
		}
		log.Info().Str("file", opts.SessionFile).Int("animals", len(doc.Animals)).
			Msg("Session file restored")
	}

	engine, err := sim.NewEngine(sim.Config{
		Arena:           core.Arena{Width: doc.ArenaWidth, Height: doc.ArenaHeight},
		SpeedMultiplier: doc.SpeedMultiplier,
		Seed:            simCfg.Seed,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	if len(doc.Animals) > 0 {
		engine.RestoreAnimals(session.ToAnimals(doc.Animals))
	} else {
		engine.ResetAnimals(doc.InitialAnimals)
	}
	if len(doc.FenceVertices) > 0 {
		if err := engine.SetFence(doc.FenceVertices); err != nil {
			return fmt.Errorf("activating fence: %w", err)
		}
	}

	name := opts.Name
	if name == "" {
		name = "herdfence " + sessionStart.Format("2006-01-02 15:04:05")
	}

	backend, err := factory.NewBackend(config.GetStorageConfig(), log)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage backend")
		}
	}()

	if err := backend.StartSession(sessionInfo(name, sessionStart, doc)); err != nil {
		return err
	}
	if verts := engine.FenceVertices(); len(verts) > 0 {
		if err := backend.RecordFence(verts); err != nil {
			log.Error().Err(err).Msg("Failed to record fence")
		}
	}

	var metrics *influx.Manager
	if config.GetBool("influx.enabled") {
		backupPath := filepath.Join(config.GetString("logsDir"),
			"influx_backup."+sessionStart.Format("20060102_150405")+".log.gz")
		metrics = influx.NewManager(log, backupPath)
		if err := metrics.Connect(); err != nil {
			log.Error().Err(err).Msg("Metrics disabled")
			metrics = nil
		} else {
			defer metrics.Close()
		}
	}

	var apiClient *api.Client
	var notifier *api.Notifier
	if config.GetBool("api.enabled") {
		apiClient = api.New(config.GetString("api.url"), config.GetString("api.key"))
		if err := apiClient.Healthcheck(); err != nil {
			log.Error().Err(err).Msg("Dashboard unreachable, alert forwarding disabled")
			apiClient = nil
		} else {
			notifier = api.NewNotifier(apiClient, log, config.GetInt("api.alertBuffer"))
			defer notifier.Close()
		}
	}

	if config.GetBool("monitor.enabled") {
		asyncWorker, _ := backend.(*worker.Manager)
		mon := monitor.NewService(monitor.Dependencies{
			Engine:   engine,
			Worker:   asyncWorker,
			Logger:   log,
			Path:     filepath.Join(config.GetString("logsDir"), "status.json"),
			Interval: time.Duration(config.GetInt("monitor.intervalMs")) * time.Millisecond,
		})
		if err := mon.Start(); err == nil {
			defer mon.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := runner.Dependencies{
		Engine:      engine,
		Storage:     backend,
		Influx:      metrics,
		Logger:      log,
		SessionName: name,
		TickPeriod:  config.TickPeriod(),
	}
	if notifier != nil {
		deps.Alerts = notifier
	}
	svc := runner.NewService(deps)
	if err := svc.Run(ctx, opts.Ticks); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if err := backend.EndSession(); err != nil {
		log.Error().Err(err).Msg("Failed to end session")
	}

	if opts.AlertsOut != "" {
		if err := writeAlerts(backend, opts.AlertsOut); err != nil {
			return err
		}
		log.Info().Str("file", opts.AlertsOut).Msg("Alerts exported")
	}

	if opts.SaveFile != "" {
		doc.FenceVertices = engine.FenceVertices()
		doc.Animals = session.FromAnimals(engine.Animals())
		if err := session.Save(opts.SaveFile, doc); err != nil {
			return fmt.Errorf("saving session file: %w", err)
		}
		log.Info().Str("file", opts.SaveFile).Msg("Session file saved")

		if apiClient != nil {
			alerts, err := backend.Alerts()
			if err != nil {
				alerts = nil
			}
			inside, outside := engine.Counts()
			meta := api.UploadMetadata{
				SessionName: name,
				DurationSec: time.Since(sessionStart).Seconds(),
				AnimalCount: inside + outside,
				AlertCount:  len(alerts),
			}
			if err := apiClient.Upload(opts.SaveFile, meta); err != nil {
				log.Error().Err(err).Msg("Failed to upload session to dashboard")
			} else {
				log.Info().Str("file", opts.SaveFile).Msg("Session uploaded to dashboard")
			}
		}
	}

	return nil
}

// loadConfig reads the config file, treating a missing file as
// defaults-only operation.
func loadConfig(opts *RootOptions) error {
	if err := config.Load(opts.ConfigDir); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	if opts.LogLevel != "" {
		viper.Set("logLevel", opts.LogLevel)
	}
	return nil
}

func openLogger(opts *RootOptions, sessionStart time.Time) (zerolog.Logger, *os.File, error) {
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("creating logs dir: %w", err)
	}

	logFile, err := os.Create(logging.LogFilePath(logsDir, "herdfence", sessionStart))
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("creating log file: %w", err)
	}

	log := logging.New(logging.Setup{
		Level:          config.GetString("logLevel"),
		File:           logFile,
		GraylogEnabled: config.GetBool("graylog.enabled"),
		GraylogAddress: config.GetString("graylog.address"),
	})
	return log, logFile, nil
}

func sessionInfo(name string, start time.Time, doc session.Document) storage.SessionInfo {
	info := storage.SessionInfo{
		Name:            name,
		StartTime:       start,
		Arena:           core.Arena{Width: doc.ArenaWidth, Height: doc.ArenaHeight},
		TickMs:          doc.TickMs,
		SpeedMultiplier: doc.SpeedMultiplier,
		AnimalSize:      doc.AnimalSize,
		FenceColor:      doc.FenceColor,
	}

	lon := config.GetFloat64("geo.originLongitude")
	lat := config.GetFloat64("geo.originLatitude")
	if lon != 0 || lat != 0 {
		origin := geo.Coords3857From4326(lon, lat)
		info.Origin3857 = origin.AsBinary()
	}
	return info
}

func writeAlerts(backend storage.Backend, path string) error {
	alerts, err := backend.Alerts()
	if err != nil {
		return fmt.Errorf("reading alerts: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating alerts file: %w", err)
	}
	defer f.Close()

	return storage.WriteAlertsCSV(f, alerts)
}
