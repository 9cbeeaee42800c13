package main

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gaitbench/internal/config"
	"github.com/san-kum/gaitbench/internal/logging"
	"github.com/san-kum/gaitbench/internal/report"
	"github.com/san-kum/gaitbench/internal/storage"
	"github.com/san-kum/gaitbench/internal/viz"
)

var (
	dataDir  string
	logLevel string
	theme    string

	configFile string
	preset     string
	budget     float64
	dt         float64
	frequency  float64
	noise      float64
	seed       uint64
	integrator string
	saveCSV    bool
	noGraph    bool
	chartFile  string
	noPreview  bool
	useTUI     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gaitbench",
		Short:         "locomotion controller experiment harness",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(viz.ThemeNames(), theme) {
				return fmt.Errorf("unknown theme: %s (available: %s)", theme, strings.Join(viz.ThemeNames(), ", "))
			}
			viz.SetTheme(theme)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.ThemeField.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the configured experiments",
		Args:  cobra.NoArgs,
		RunE:  runExperiments,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Float64Var(&budget, "budget", config.DefaultBudget, "simulated seconds per experiment")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&frequency, "frequency", config.DefaultFrequency, "gait frequency weight w")
	runCmd.Flags().Float64Var(&noise, "noise", config.DefaultNoiseStd, "noise std for noisy experiments")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 derives one from the clock)")
	runCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (rk4, euler)")
	runCmd.Flags().BoolVar(&saveCSV, "save-csv", false, "write one CSV per experiment")
	runCmd.Flags().BoolVar(&noGraph, "no-graph", false, "skip the trajectory chart")
	runCmd.Flags().StringVar(&chartFile, "chart", "", "chart output path (png, svg, pdf)")
	runCmd.Flags().BoolVar(&noPreview, "no-preview", false, "skip the terminal preview")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "show live progress")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "preview and chart a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&chartFile, "chart", "", "chart output path (png, svg, pdf)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-14s %s\n", name, viz.Subtle.Render(describe(cfg)))
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if len(args) == 0 {
				return yaml.NewEncoder(os.Stdout).Encode(cfg)
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusFailed.Render("error:"), err)
		os.Exit(1)
	}
}

func describe(cfg *config.Config) string {
	s := fmt.Sprintf("T=%gs w=%g:", cfg.Budget, cfg.Frequency)
	for _, e := range cfg.Enabled() {
		s += " " + e.Policy
		if e.Policy != config.PolicySine {
			s += fmt.Sprintf("(%g)", e.NoiseStd)
		}
	}
	return s
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tBUDGET\tDT\tW\tDONE\tEXPERIMENTS")

	for _, run := range runs {
		labels := ""
		for i, e := range run.Experiments {
			if i > 0 {
				labels += ", "
			}
			labels += e.Label
		}
		fmt.Fprintf(w, "%s\t%s\t%.1fs\t%gs\t%g\t%d/%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.Budget,
			run.Config.Dt,
			run.Config.Frequency,
			run.Completed(),
			len(run.Experiments),
			labels,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	logger := logging.NewLogger(logLevel, os.Stderr)

	st := storage.New(dataDir)
	results, err := st.LoadTrajectories(runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("run has no completed experiments")
		return nil
	}

	fmt.Println(viz.Title.Render("run " + runID))
	fmt.Println(report.Preview(results, 80, 15))

	if chartFile != "" {
		if err := report.NewChart().Render(results, chartFile); err != nil {
			return err
		}
		logger.Info("chart written", "path", chartFile)
	}
	return nil
}
