package updatemanager

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/client/internal/updatemanager/event"
	"github.com/gitify-app/updater/client/internal/updatemanager/release"
)

// Checker runs one check cycle at a time: query the release source and hand newer releases to the Downloader
type Checker struct {
	state      *State
	source     release.Source
	sink       event.Sink
	downloader *Downloader
	clock      clockwork.Clock
	metrics    *Metrics

	currentVersion string
	requestTimeout time.Duration
	dwell          time.Duration

	dwellMu    sync.Mutex
	dwellTimer clockwork.Timer
}

// Check runs a check cycle. It returns nil without doing anything when another cycle is in flight.
// The error of a failed cycle is returned after the state was reset and an error event was emitted.
func (c *Checker) Check(ctx context.Context, manual bool) error {
	if !c.state.tryBeginCheck() {
		log.Infof("update check already in progress, skipping")
		return nil
	}
	c.stopDwell()

	log.Infof("checking for updates (manual: %t)", manual)
	c.sink.Emit(event.CheckingStarted, nil)
	c.emitMenu(event.MenuChecking)

	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	rel, err := c.source.Check(reqCtx, c.currentVersion)
	cancel()
	if err != nil {
		log.Errorf("update check failed: %v", err)
		c.metrics.countCheck(ctx, outcomeError, manual)
		c.fail(err, true)
		return err
	}

	if rel == nil {
		c.metrics.countCheck(ctx, outcomeNotAvailable, manual)
		c.notAvailable(manual)
		return nil
	}

	c.metrics.countCheck(ctx, outcomeAvailable, manual)
	c.available(rel)

	// the gate only covers the query; the download runs outside of it
	c.state.endCheck()

	if err := c.downloader.Download(ctx, rel); err != nil {
		log.Errorf("failed to download update %s: %v", rel.Version, err)
		c.fail(err, false)
		return err
	}
	return nil
}

func (c *Checker) available(rel *release.Release) {
	log.Infof("update available: %s (current %s)", rel.Version, c.currentVersion)
	if rel.CurrentVersion == "" {
		rel.CurrentVersion = c.currentVersion
	}
	c.state.setUpdateAvailable()

	c.sink.Emit(event.UpdateAvailable, event.UpdateAvailablePayload{
		Version:         rel.Version,
		BaselineVersion: c.currentVersion,
		Notes:           rel.Notes,
	})
	c.emitMenu(event.MenuAvailable)
	c.sink.Emit(event.Tooltip, event.TooltipPayload{Text: event.TooltipAvailable(rel.Version)})
}

func (c *Checker) notAvailable(manual bool) {
	log.Infof("no update available, running %s", c.currentVersion)
	c.state.clearUpdate()

	// the events and the dwell timer must be in place before the next cycle can start
	defer c.state.endCheck()

	c.sink.Emit(event.NotAvailable, nil)
	c.emitMenu(event.MenuNoUpdate)

	if !manual || c.dwell == 0 {
		c.emitMenu(event.MenuIdle)
		return
	}

	c.dwellMu.Lock()
	defer c.dwellMu.Unlock()
	c.dwellTimer = c.clock.AfterFunc(c.dwell, c.endDwell)
}

// endDwell resets the menu after a manual "no update" unless a later cycle moved it on
func (c *Checker) endDwell() {
	if c.state.Checking() || c.state.UpdateAvailable() {
		return
	}
	c.emitMenu(event.MenuIdle)
}

// fail resets the state after a failed cycle. releaseCheck is false once the gate was already handed back.
func (c *Checker) fail(err error, releaseCheck bool) {
	c.state.reset(releaseCheck)

	c.sink.Emit(event.Error, event.ErrorPayload{Message: err.Error()})
	c.emitMenu(event.MenuIdle)
	c.sink.Emit(event.Tooltip, event.TooltipPayload{})
}

// stopDwell cancels a pending idle reset of a previous manual cycle
func (c *Checker) stopDwell() {
	c.dwellMu.Lock()
	defer c.dwellMu.Unlock()

	if c.dwellTimer != nil {
		c.dwellTimer.Stop()
		c.dwellTimer = nil
	}
}

func (c *Checker) emitMenu(state event.Menu) {
	c.sink.Emit(event.MenuState, event.MenuStatePayload{State: state})
}
