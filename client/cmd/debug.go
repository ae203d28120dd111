package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debugging commands",
	Long:  "Commands for debugging and logging within the updater daemon.",
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage logging for the updater daemon",
}

var logLevelCmd = &cobra.Command{
	Use:   "level <level>",
	Short: "Set the logging level for this session",
	Long: `Sets the logging level for the current session. This setting is temporary and will revert to the default on daemon restart.
Available log levels are:
  panic:   for panic level, highest level of severity
  fatal:   for fatal level errors that cause the program to exit
  error:   for error conditions
  warn:    for warning conditions
  info:    for informational messages
  debug:   for debug-level messages
  trace:   for trace-level messages, which include more fine-grained information than debug`,
	Args: cobra.ExactArgs(1),
	RunE: setLogLevel,
}

var forCmd = &cobra.Command{
	Use:     "for <time>",
	Short:   "Run the daemon with trace logs for a specified duration",
	Long:    `Sets the logging level to trace, follows the update events for the specified duration, then restores the previous level.`,
	Example: "  gitify-updater debug for 5m",
	Args:    cobra.ExactArgs(1),
	RunE:    runForDuration,
}

func init() {
	debugCmd.AddCommand(logCmd)
	logCmd.AddCommand(logLevelCmd)
	debugCmd.AddCommand(forCmd)
}

func setLogLevel(cmd *cobra.Command, args []string) error {
	level := strings.ToLower(args[0])
	if _, err := log.ParseLevel(level); err != nil {
		//nolint
		return fmt.Errorf("unknown log level: %s. Available levels are: panic, fatal, error, warn, info, debug, trace\n", args[0])
	}

	if _, err := getClient().setLogLevel(cmd.Context(), level); err != nil {
		return fmt.Errorf("failed to set log level: %v", err)
	}

	cmd.Println("Log level set successfully to", level)
	return nil
}

func runForDuration(cmd *cobra.Command, args []string) error {
	duration, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration format: %v", err)
	}

	client := getClient()
	previous, err := client.setLogLevel(cmd.Context(), log.TraceLevel.String())
	if err != nil {
		return fmt.Errorf("failed to set log level to trace: %v", err)
	}
	cmd.Printf("Log level set to trace for %s (was %s)\n", duration, previous)

	defer func() {
		// the command context may be done already
		if _, err := client.setLogLevel(context.Background(), previous); err != nil {
			cmd.PrintErrf("Failed to restore log level %s: %v\n", previous, err)
			return
		}
		cmd.Println("Log level restored to", previous)
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), duration)
	defer cancel()
	return followEvents(ctx, client, cmd.OutOrStdout(), false, false)
}
