package updatemanager

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/client/internal/updatemanager/event"
	"github.com/gitify-app/updater/client/internal/updatemanager/release"
)

// Verifier checks a downloaded artifact against the signature published with its release
type Verifier interface {
	Verify(artifact []byte, signature string) error
}

// Downloader fetches the artifact of a confirmed release and caches it in the State
type Downloader struct {
	state    *State
	source   release.Source
	sink     event.Sink
	verifier Verifier
	clock    clockwork.Clock
	metrics  *Metrics
}

func (d *Downloader) Download(ctx context.Context, rel *release.Release) error {
	data, err := d.source.Download(ctx, rel, d.reportProgress)
	if err != nil {
		d.metrics.countDownload(ctx, outcomeError, 0)
		return err
	}

	if d.verifier != nil {
		if err := d.verifier.Verify(data, rel.Signature); err != nil {
			d.metrics.countDownload(ctx, outcomeError, 0)
			return err
		}
	}

	d.state.StoreDownloadedUpdate(DownloadedUpdate{
		Bytes:           data,
		Version:         rel.Version,
		BaselineVersion: rel.CurrentVersion,
		DownloadedAt:    d.clock.Now(),
	})
	d.metrics.countDownload(ctx, outcomeSuccess, len(data))
	log.Infof("update %s downloaded (%s), ready to install", rel.Version, humanize.IBytes(uint64(len(data))))

	d.sink.Emit(event.DownloadComplete, event.VersionPayload{Version: rel.Version})
	d.sink.Emit(event.MenuState, event.MenuStatePayload{State: event.MenuReady})
	d.sink.Emit(event.Tooltip, event.TooltipPayload{Text: event.TooltipReady})
	d.sink.Emit(event.RestartPrompt, event.VersionPayload{Version: rel.Version})
	return nil
}

func (d *Downloader) reportProgress(downloaded, total int64) {
	percent := event.Percent(downloaded, total)
	d.sink.Emit(event.DownloadProgress, event.DownloadProgressPayload{
		Percent:         percent,
		DownloadedBytes: downloaded,
		TotalBytes:      total,
	})
	d.sink.Emit(event.Tooltip, event.TooltipPayload{Text: event.TooltipDownloading(percent)})
}
