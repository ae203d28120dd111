package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gitify-app/updater/client/internal/config"
	"github.com/gitify-app/updater/util"
)

var (
	configPath string
	logLevel   string
	logFile    string
	daemonAddr string
	rootCmd    = &cobra.Command{
		Use:          "gitify-updater",
		Short:        "keeps Gitify up to date",
		Long:         "gitify-updater checks for new Gitify releases, downloads them in the background and installs them on request.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			util.SetFlagsFromEnvVars(cmd.Root())
			cmd.SetOut(cmd.OutOrStdout())
			return nil
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath(), "updater config file location")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "sets the updater log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "sets the updater log path, <data dir>/updater.log by default. If console is specified the log will be output to stdout")
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "daemon-addr", "http://"+config.DefaultListenAddress, "address of the updater daemon API")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(debugCmd)
}

// SetupCloseHandler handles SIGTERM signal and exits with success
func SetupCloseHandler(ctx context.Context, cancel context.CancelFunc) {
	termCh := make(chan os.Signal, 1)
	signal.Notify(termCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(termCh)
		select {
		case <-ctx.Done():
			return
		case <-termCh:
		}

		log.Info("shutdown signal received")
		cancel()
	}()
}

// CLIBackOffSettings is default backoff settings for CLI commands.
var CLIBackOffSettings = &backoff.ExponentialBackOff{
	InitialInterval:     time.Second,
	RandomizationFactor: backoff.DefaultRandomizationFactor,
	Multiplier:          backoff.DefaultMultiplier,
	MaxInterval:         10 * time.Second,
	MaxElapsedTime:      0,
	Stop:                backoff.Stop,
	Clock:               backoff.SystemClock,
}

func getClient() *apiClient {
	return newAPIClient(normalizeDaemonAddr(daemonAddr))
}

// normalizeDaemonAddr accepts host:port and tcp:// addresses next to plain URLs
func normalizeDaemonAddr(addr string) string {
	addr = strings.TrimSuffix(addr, "/")
	switch {
	case strings.HasPrefix(addr, "http://"), strings.HasPrefix(addr, "https://"):
		return addr
	case strings.HasPrefix(addr, "tcp://"):
		return "http://" + strings.TrimPrefix(addr, "tcp://")
	default:
		return "http://" + addr
	}
}
