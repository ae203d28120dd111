package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	eventsHistory bool
	eventsJSON    bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "follows the update events of the daemon, reconnecting when it goes away",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return followEvents(cmd.Context(), getClient(), cmd.OutOrStdout(), eventsHistory, eventsJSON)
	},
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsHistory, "history", true, "replay the events retained by the daemon first")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print events as JSON lines")
}

func followEvents(ctx context.Context, client *apiClient, out io.Writer, history, asJSON bool) error {
	seen := make(map[string]struct{})
	handle := func(e *streamEvent) (bool, error) {
		// history is replayed on every reconnect
		if _, ok := seen[e.ID]; ok {
			return false, nil
		}
		seen[e.ID] = struct{}{}
		return false, printEvent(out, e, asJSON)
	}

	operation := func() error {
		err := client.streamEvents(ctx, history, nil, handle)
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(CLIBackOffSettings, ctx), func(err error, d time.Duration) {
		log.Warnf("event stream interrupted, reconnecting in %v: %v", d, err)
	})
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil
	}
	return err
}

func printEvent(out io.Writer, e *streamEvent, asJSON bool) error {
	if asJSON {
		bs, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(bs))
		return err
	}

	payload := string(e.Payload)
	if payload == "null" {
		payload = ""
	}
	_, err := fmt.Fprintf(out, "%s  %-18s %s\n", e.Timestamp.Local().Format(time.TimeOnly), e.Name, payload)
	return err
}
