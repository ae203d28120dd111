package updatemanager

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/client/internal/updatemanager/event"
	"github.com/gitify-app/updater/client/internal/updatemanager/installer"
	"github.com/gitify-app/updater/client/internal/updatemanager/release"
)

// Manager wires the update components together and exposes the host command surface
type Manager struct {
	cfg   Config
	state *State
	sink  event.Sink

	checker    *Checker
	downloader *Downloader
	installer  *Installer
	scheduler  *Scheduler
}

type options struct {
	clock     clockwork.Clock
	applier   installer.Applier
	restarter installer.Restarter
	verifier  Verifier
	results   *installer.ResultHandler
	metrics   *Metrics
}

// Option customizes a Manager
type Option func(*options)

// WithClock replaces the real clock, for tests
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithApplier replaces the install primitive
func WithApplier(a installer.Applier) Option {
	return func(o *options) { o.applier = a }
}

// WithRestarter replaces the restart primitive
func WithRestarter(r installer.Restarter) Option {
	return func(o *options) { o.restarter = r }
}

// WithVerifier enables signature verification of downloaded artifacts
func WithVerifier(v Verifier) Option {
	return func(o *options) { o.verifier = v }
}

// WithResultHandler persists install results across restarts
func WithResultHandler(rh *installer.ResultHandler) Option {
	return func(o *options) { o.results = rh }
}

// WithMetrics records update cycle counters
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewManager returns a Manager for the given release source, publishing its events to sink
func NewManager(cfg Config, source release.Source, sink event.Sink, opts ...Option) *Manager {
	cfg = cfg.withDefaults()

	o := options{
		clock:     clockwork.NewRealClock(),
		applier:   installer.NewSelfApplier(),
		restarter: &installer.ExecRestarter{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	state := NewState()
	m := &Manager{
		cfg:   cfg,
		state: state,
		sink:  sink,
	}

	m.downloader = &Downloader{
		state:    state,
		source:   source,
		sink:     sink,
		verifier: o.verifier,
		clock:    o.clock,
		metrics:  o.metrics,
	}
	m.checker = &Checker{
		state:          state,
		source:         source,
		sink:           sink,
		downloader:     m.downloader,
		clock:          o.clock,
		metrics:        o.metrics,
		currentVersion: cfg.CurrentVersion,
		requestTimeout: cfg.RequestTimeout,
		dwell:          cfg.NoUpdateDwell,
	}
	m.installer = &Installer{
		state:          state,
		source:         source,
		sink:           sink,
		applier:        o.applier,
		restarter:      o.restarter,
		results:        o.results,
		clock:          o.clock,
		metrics:        o.metrics,
		currentVersion: cfg.CurrentVersion,
		requestTimeout: cfg.RequestTimeout,
	}
	m.scheduler = newScheduler(state, m.checker, o.clock, cfg)

	return m
}

// Start reports the outcome of a previous install and starts the automatic checks
func (m *Manager) Start(ctx context.Context) {
	m.reportPreviousInstall()
	m.cleanUpInstallerFiles()
	m.scheduler.Start(ctx)
}

// Stop stops the automatic checks
func (m *Manager) Stop() {
	m.scheduler.Stop()
	m.checker.stopDwell()
}

// CheckForUpdates runs a manual check cycle
func (m *Manager) CheckForUpdates(ctx context.Context) error {
	return m.scheduler.CheckNow(ctx, true)
}

// InstallUpdate installs the downloaded update and restarts the application
func (m *Manager) InstallUpdate(ctx context.Context) error {
	return m.installer.Install(ctx)
}

// GetUpdateStatus returns a snapshot of the update state
func (m *Manager) GetUpdateStatus() Status {
	return m.state.Status()
}

// SetCheckInterval changes the period of the automatic checks
func (m *Manager) SetCheckInterval(d time.Duration) {
	m.scheduler.SetInterval(d)
}

// CurrentVersion returns the version updates are compared against
func (m *Manager) CurrentVersion() string {
	return m.cfg.CurrentVersion
}

func (m *Manager) reportPreviousInstall() {
	if m.installer.results == nil {
		return
	}

	result, ok, err := m.installer.results.Take()
	if err != nil {
		log.Warnf("failed to read previous install result: %v", err)
		return
	}
	if !ok {
		return
	}

	if result.Success {
		log.Infof("update %s was installed at %s", result.Version, result.ExecutedAt)
	} else {
		log.Warnf("install of update %s failed at %s: %s", result.Version, result.ExecutedAt, result.Error)
	}
	m.sink.Emit(event.InstallResult, event.InstallResultPayload{
		Success: result.Success,
		Version: result.Version,
		Error:   result.Error,
	})
}

func (m *Manager) cleanUpInstallerFiles() {
	cleaner, ok := m.installer.applier.(interface{ CleanUpInstallerFiles() error })
	if !ok {
		return
	}
	if err := cleaner.CleanUpInstallerFiles(); err != nil {
		log.Warnf("failed to clean up previous install files: %v", err)
	}
}
