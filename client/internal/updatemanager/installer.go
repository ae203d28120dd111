package updatemanager

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	nberrors "github.com/gitify-app/updater/client/errors"
	"github.com/gitify-app/updater/client/internal/updatemanager/event"
	"github.com/gitify-app/updater/client/internal/updatemanager/installer"
	"github.com/gitify-app/updater/client/internal/updatemanager/release"
	"github.com/gitify-app/updater/version"
)

// Installer applies the cached artifact and restarts the application
type Installer struct {
	state     *State
	source    release.Source
	sink      event.Sink
	applier   installer.Applier
	restarter installer.Restarter
	results   *installer.ResultHandler
	clock     clockwork.Clock
	metrics   *Metrics

	currentVersion string
	requestTimeout time.Duration
}

// Install takes the cached artifact and applies it. On success the process is restarted and,
// in production, this call does not return.
func (i *Installer) Install(ctx context.Context) error {
	if !i.state.UpdateDownloaded() {
		return nberrors.Errorf(nberrors.NoUpdateAvailable, "no update has been downloaded")
	}

	update, ok := i.state.TakeDownloadedUpdate()
	if !ok {
		return nberrors.Errorf(nberrors.ArtifactAlreadyConsumed, "downloaded update was already taken by another install")
	}

	i.confirmRelease(ctx, update)

	log.Infof("installing update %s", update.Version)
	if err := i.applier.Apply(update.Bytes); err != nil {
		err = nberrors.Wrap(nberrors.InstallError, err, "failed to install update %s", update.Version)
		log.Error(err)
		i.metrics.countInstall(ctx, outcomeError)
		i.writeResult(installer.Result{Success: false, Error: err.Error(), Version: update.Version})
		i.sink.Emit(event.Error, event.ErrorPayload{Message: err.Error()})
		return err
	}

	i.metrics.countInstall(ctx, outcomeSuccess)
	i.writeResult(installer.Result{Success: true, Version: update.Version})

	log.Infof("update %s installed, restarting", update.Version)
	if err := i.restarter.Restart(); err != nil {
		err = nberrors.Wrap(nberrors.InstallError, err, "update %s installed but the restart failed", update.Version)
		log.Error(err)
		i.sink.Emit(event.Error, event.ErrorPayload{Message: err.Error()})
		return err
	}
	return nil
}

// confirmRelease re-queries the source. A newer release than the cached one is only logged:
// the cached bytes are installed and nothing is downloaded again.
func (i *Installer) confirmRelease(ctx context.Context, update *DownloadedUpdate) {
	reqCtx, cancel := context.WithTimeout(ctx, i.requestTimeout)
	defer cancel()

	rel, err := i.source.Check(reqCtx, i.currentVersion)
	switch {
	case err != nil:
		log.Warnf("could not confirm release before install, installing cached %s: %v", update.Version, err)
	case rel == nil:
		log.Warnf("release source no longer offers an update, installing cached %s", update.Version)
	case !version.Equal(rel.Version, update.Version):
		log.Warnf("version mismatch: downloaded %s, source now offers %s; installing the downloaded version",
			update.Version, rel.Version)
	}
}

func (i *Installer) writeResult(result installer.Result) {
	if i.results == nil {
		return
	}
	result.ExecutedAt = i.clock.Now().UTC()
	if err := i.results.Write(result); err != nil {
		log.Warnf("failed to persist install result: %v", err)
	}
}
