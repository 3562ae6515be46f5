package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/windsim/internal/config"
	"github.com/san-kum/windsim/internal/dynamo"
)

var (
	dataDir  string
	logLevel string
	profile  string
	envFile  string

	paramsFile   string
	preset       string
	logging      int
	role         string
	parentPID    int
	metricsAddr  string
	pollInterval time.Duration

	plotVar  string
	plotRows int
	maxFreq  float64
	exportTo string
)

var (
	cyan  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	red   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	bold  = lipgloss.NewStyle().Bold(true)
)

// main exits with the status of the executed command: 0 for a clean run,
// 1 for any error or shutdown cause.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red.Render("error: "+err.Error()))
		os.Exit(dynamo.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "windsim",
		Short:         "wind turbine aero-servo simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory for run logs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "yaml profile with run options")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before resolving options")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation from a parameter file or preset",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&paramsFile, "params", "", "parameter csv file")
	runCmd.Flags().StringVar(&preset, "preset", "", "embedded parameter preset")
	runCmd.Flags().IntVar(&logging, "logging", 0, "1 enables continuous logging into the data directory")
	runCmd.Flags().StringVar(&role, "role", config.DefaultRole, "process role: single, producer or consumer")
	runCmd.Flags().IntVar(&parentPID, "parentpid", 0, "pid of the launching process to watch")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	runCmd.Flags().DurationVar(&pollInterval, "poll-interval", config.DefaultPollInterval, "parent process poll interval")

	stagesCmd := &cobra.Command{
		Use:   "stages",
		Short: "list stage kinds and their identifiers",
		Args:  cobra.NoArgs,
		RunE:  listStages,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list logged runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a logged variable",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotVar, "var", "omega", "dynamic variable to plot")
	plotCmd.Flags().IntVar(&plotRows, "height", 12, "plot height in rows")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a logged variable",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&plotVar, "var", "omega", "dynamic variable to analyze")
	analyzeCmd.Flags().Float64Var(&maxFreq, "max-freq", 5, "highest frequency to plot in Hz")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a logged run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportTo, "output", "o", "", "output file, stdout when empty")

	rootCmd.AddCommand(runCmd, stagesCmd, presetsCmd, listCmd, plotCmd, analyzeCmd, exportCmd)
	return rootCmd
}
