package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/gitify-app/updater/client/internal/updatemanager/event"
)

const checkTimeout = 30 * time.Minute

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "checks for an update and follows its download",
	RunE:  checkFunc,
}

func checkFunc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	client := getClient()
	progress := newCheckProgress(ctx, cmd.OutOrStdout())
	defer progress.close()

	// subscribe before triggering so no event of the cycle is missed
	return client.streamEvents(ctx, false, func() error {
		return client.check(ctx)
	}, progress.handle)
}

// checkProgress renders the events of one check cycle
type checkProgress struct {
	out      io.Writer
	progress *mpb.Progress
	bar      *mpb.Bar
	version  string
}

func newCheckProgress(ctx context.Context, out io.Writer) *checkProgress {
	return &checkProgress{
		out:      out,
		progress: mpb.NewWithContext(ctx, mpb.WithOutput(out), mpb.WithWidth(64)),
	}
}

// handle reports whether e ended the cycle
func (p *checkProgress) handle(e *streamEvent) (bool, error) {
	switch e.Name {
	case event.CheckingStarted:
		_, _ = fmt.Fprintln(p.out, "Checking for updates...")
	case event.NotAvailable:
		_, _ = fmt.Fprintln(p.out, "Gitify is up to date.")
		return true, nil
	case event.UpdateAvailable:
		var payload event.UpdateAvailablePayload
		if err := e.decode(&payload); err != nil {
			return true, err
		}
		p.version = payload.Version
		_, _ = fmt.Fprintf(p.out, "Update %s available (running %s)\n", payload.Version, payload.BaselineVersion)
	case event.DownloadProgress:
		var payload event.DownloadProgressPayload
		if err := e.decode(&payload); err != nil {
			return true, err
		}
		p.updateBar(payload)
	case event.DownloadComplete:
		p.completeBar()
	case event.RestartPrompt:
		var payload event.VersionPayload
		if err := e.decode(&payload); err != nil {
			return true, err
		}
		_, _ = fmt.Fprintf(p.out, "Update %s is ready, run `gitify-updater install` to restart into it.\n", payload.Version)
		return true, nil
	case event.Error:
		var payload event.ErrorPayload
		if err := e.decode(&payload); err != nil {
			return true, err
		}
		p.abortBar()
		return true, errors.New(payload.Message)
	}
	return false, nil
}

func (p *checkProgress) updateBar(payload event.DownloadProgressPayload) {
	if payload.TotalBytes <= 0 {
		return
	}

	if p.bar == nil {
		name := "Downloading " + p.version
		p.bar = p.progress.New(payload.TotalBytes,
			mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟"),
			mpb.PrependDecorators(
				decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
				decor.CountersKibiByte("% .2f / % .2f"),
			),
			mpb.AppendDecorators(
				decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
			),
		)
	}
	p.bar.SetCurrent(payload.DownloadedBytes)
}

func (p *checkProgress) completeBar() {
	if p.bar == nil {
		return
	}
	p.bar.SetTotal(-1, true)
	p.bar.Wait()
	p.bar = nil
}

func (p *checkProgress) abortBar() {
	if p.bar == nil {
		return
	}
	p.bar.Abort(false)
	p.bar.Wait()
	p.bar = nil
}

func (p *checkProgress) close() {
	p.abortBar()
	p.progress.Wait()
}

func humanBytes(n int64) string {
	if n <= 0 {
		return "unknown size"
	}
	return humanize.IBytes(uint64(n))
}
