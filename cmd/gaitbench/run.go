package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/gaitbench/internal/config"
	"github.com/san-kum/gaitbench/internal/experiment"
	"github.com/san-kum/gaitbench/internal/integrators"
	"github.com/san-kum/gaitbench/internal/logging"
	"github.com/san-kum/gaitbench/internal/report"
	"github.com/san-kum/gaitbench/internal/robot"
	"github.com/san-kum/gaitbench/internal/storage"
	"github.com/san-kum/gaitbench/internal/tui"
)

// loadConfig applies, in increasing precedence: defaults or preset, config
// file, explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset: %s (available: %v)", experiment.ErrConfig, preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load config: %v", experiment.ErrConfig, err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("budget") {
		cfg.Budget = budget
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("frequency") {
		cfg.Frequency = frequency
	}
	if flags.Changed("noise") {
		cfg.SetNoise(noise)
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if saveCSV {
		cfg.SaveCSV = true
	}
	if noGraph {
		cfg.DisplayGraph = false
	}
	if chartFile != "" {
		cfg.ChartFile = chartFile
	}
	if noPreview {
		cfg.Preview = false
	}
	if cmd.Root().PersistentFlags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cmd.Root().PersistentFlags().Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", experiment.ErrConfig, err)
	}
	return cfg, nil
}

func runExperiments(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logOut := logging.NewGate(os.Stderr)
	logger := logging.NewLogger(cfg.LogLevel, logOut)
	started := time.Now()
	if cfg.Seed == 0 {
		cfg.Seed = uint64(started.UnixNano())
	}

	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return fmt.Errorf("%w: %w", experiment.ErrConfig, err)
	}

	body := robot.NewBody(robot.DefaultBodyParams())
	if err := body.Validate(); err != nil {
		return fmt.Errorf("%w: %w", experiment.ErrConfig, err)
	}
	dcfg := robot.DefaultDriverConfig()
	dcfg.SettleTime = cfg.SettleTime
	dcfg.SettleDt = cfg.Dt
	driver := robot.NewDriver(body, integ, dcfg)

	specs, err := experiment.NewRegistry().BuildAll(cfg)
	if err != nil {
		return err
	}

	runner := experiment.NewRunner(driver, experiment.Config{Budget: cfg.Budget, Dt: cfg.Dt}, logger)
	if err := runner.Validate(specs); err != nil {
		return err
	}

	agg := report.NewAggregator(report.Options{
		OutputDir: cfg.OutputDir,
		Timestamp: started,
		SaveCSV:   cfg.SaveCSV,
	}, logger)
	runner.AddSink(agg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("harness started",
		"experiments", len(specs),
		"budget", cfg.Budget,
		"dt", cfg.Dt,
		"frequency", cfg.Frequency,
		"integrator", cfg.Integrator,
		"seed", cfg.Seed)

	var rep *experiment.Report
	if useTUI {
		labels := make([]string, len(specs))
		for i, s := range specs {
			labels[i] = s.Label
		}
		logOut.Hold()
		rep, err = tui.Run(ctx, labels, cfg.Budget, func(ctx context.Context, obs experiment.Observer) (*experiment.Report, error) {
			runner.AddObserver(obs)
			return runner.Run(ctx, specs)
		})
		if rerr := logOut.Release(); rerr != nil {
			fmt.Fprintln(os.Stderr, "log flush failed:", rerr)
		}
	} else {
		rep, err = runner.Run(ctx, specs)
	}
	if rep == nil {
		return err
	}
	if err != nil {
		logger.Warn("harness interrupted", "error", err)
	}
	if failed := rep.Failures(); len(failed) > 0 {
		logger.Warn("experiments failed", "failed", len(failed), "total", len(rep.Outcomes))
	}
	if files := agg.Written(); len(files) > 0 {
		logger.Info("csv files written", "count", len(files), "dir", cfg.OutputDir)
	}

	rows := report.Rows(rep, cfg.Dt)
	fmt.Println(report.Summary(rows))

	results := agg.Results()
	if cfg.Preview && len(results) > 0 {
		fmt.Println(report.Preview(results, 80, 15))
	}

	if cfg.DisplayGraph && len(results) > 0 {
		path := cfg.ChartFile
		if path == "" {
			path = filepath.Join(cfg.OutputDir, started.Format(report.TimestampLayout)+"_trajectories.png")
		}
		if cerr := report.NewChart().Render(results, path); cerr != nil {
			logger.Warn("chart failed", "path", path, "error", cerr)
		} else {
			logger.Info("chart written", "path", path)
		}
	}

	if cfg.Store {
		storeRun(cfg, started, rep, rows, logger)
	}

	return err
}

func storeRun(cfg *config.Config, ts time.Time, rep *experiment.Report, rows []report.Row, logger *slog.Logger) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		logger.Warn("run store unavailable", "dir", cfg.DataDir, "error", err)
		return
	}

	metrics := make(map[int]map[string]float64, len(rows))
	for _, r := range rows {
		if r.Metrics != nil {
			metrics[r.Index] = r.Metrics
		}
	}

	runID, err := st.Save(cfg, ts, rep, metrics)
	if err != nil {
		logger.Warn("run not stored", "error", err)
		return
	}
	fmt.Printf("run id: %s\n", runID)
}
