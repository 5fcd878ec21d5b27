package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/phypno/internal/config"
	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/storage"
)

var (
	configFile string
	dataDir    string
	logLevel   string

	cfg    *config.Config
	logger *log.Logger
)

// main registers the commands and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "phypno",
		Short:         "simulated electrophysiology data and anatomical lookup",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		simulateCmd(),
		listCmd(),
		deleteCmd(),
		sweepCmd(),
		plotCmd(),
		exportCSVCmd(),
		exportJSONCmd(),
		exportSVGCmd(),
		presetsCmd(),
		lutCmd(),
		regionCmd(),
		montageCmd(),
		batchCmd(),
		serveCmd(),
		viewCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if logger != nil {
			logger.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// setup loads the config file and applies the persistent flags over it.
func setup(cmd *cobra.Command) error {
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "phypno"})
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger.SetLevel(lvl)

	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Debug("loaded config", "path", configFile)
	}
	if cmd.Flags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if home := os.Getenv("FREESURFER_HOME"); cfg.Freesurfer.Home == "" && home != "" {
		cfg.Freesurfer.Home = home
	}
	return nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// parseLimits reads a "start,end" flag value.
func parseLimits(raw string) (*data.Limits, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("want start,end, got %q", raw)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, err
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, err
	}
	return &data.Limits{Start: start, End: end}, nil
}

func writeOutput(path string, write func(f *os.File) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("wrote file", "path", path)
	return nil
}

var errNoFreesurfer = errors.New("no freesurfer subject directory: set freesurfer.subject_dir or --fs-dir")
