package updatemanager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	nberrors "github.com/gitify-app/updater/client/errors"
	"github.com/gitify-app/updater/client/internal/updatemanager/event"
	"github.com/gitify-app/updater/client/internal/updatemanager/installer"
	"github.com/gitify-app/updater/client/internal/updatemanager/release"
)

type fakeApplier struct {
	mu      sync.Mutex
	applied [][]byte
	err     error
}

func (f *fakeApplier) Apply(artifact []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, artifact)
	return f.err
}

func (f *fakeApplier) calls() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.applied...)
}

type fakeRestarter struct {
	restarts atomic.Int32
	err      error
}

func (f *fakeRestarter) Restart() error {
	f.restarts.Add(1)
	return f.err
}

type fakeVerifier struct {
	err error
}

func (f fakeVerifier) Verify([]byte, string) error {
	return f.err
}

type testEnv struct {
	manager   *Manager
	source    *release.MockSource
	events    *event.Recorder
	clock     *clockwork.FakeClock
	applier   *fakeApplier
	restarter *fakeRestarter
}

func newTestEnv(t *testing.T, cfg Config, opts ...Option) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	env := &testEnv{
		source:    release.NewMockSource(ctrl),
		events:    &event.Recorder{},
		clock:     clockwork.NewFakeClock(),
		applier:   &fakeApplier{},
		restarter: &fakeRestarter{},
	}
	if cfg.CurrentVersion == "" {
		cfg.CurrentVersion = "1.0.0"
	}

	opts = append([]Option{
		WithClock(env.clock),
		WithApplier(env.applier),
		WithRestarter(env.restarter),
	}, opts...)
	env.manager = NewManager(cfg, env.source, env.events, opts...)
	t.Cleanup(env.manager.Stop)
	return env
}

func releaseOf(v, current string) *release.Release {
	return &release.Release{Version: v, Notes: "notes for " + v, URL: "https://example.com/" + v, CurrentVersion: current}
}

func downloadReturning(data []byte) func(context.Context, *release.Release, release.ProgressFunc) ([]byte, error) {
	return func(_ context.Context, _ *release.Release, progress release.ProgressFunc) ([]byte, error) {
		half := int64(len(data) / 2)
		progress(half, int64(len(data)))
		progress(int64(len(data)), int64(len(data)))
		return data, nil
	}
}

func menuStates(r *event.Recorder) []event.Menu {
	var states []event.Menu
	for _, e := range r.Filter(event.MenuState) {
		states = append(states, e.Payload.(event.MenuStatePayload).State)
	}
	return states
}

var lifecycleOnly = []event.Name{event.MenuState, event.Tooltip, event.DownloadProgress}

func TestCheck_UpdateAvailableDownloadsAndCaches(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.0.0"})
	artifact := []byte("gitify 1.1.0 binary")

	env.source.EXPECT().Check(gomock.Any(), "1.0.0").Return(releaseOf("1.1.0", "1.0.0"), nil)
	env.source.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(downloadReturning(artifact))

	require.NoError(t, env.manager.CheckForUpdates(context.Background()))

	assert.Equal(t, []event.Name{
		event.CheckingStarted,
		event.UpdateAvailable,
		event.DownloadComplete,
		event.RestartPrompt,
	}, env.events.Names(lifecycleOnly...))

	available := env.events.Filter(event.UpdateAvailable)[0].Payload.(event.UpdateAvailablePayload)
	assert.Equal(t, event.UpdateAvailablePayload{Version: "1.1.0", BaselineVersion: "1.0.0", Notes: "notes for 1.1.0"}, available)

	progress := env.events.Filter(event.DownloadProgress)
	require.GreaterOrEqual(t, len(progress), 1)
	last := progress[len(progress)-1].Payload.(event.DownloadProgressPayload)
	assert.Equal(t, 100.0, last.Percent)
	assert.Equal(t, int64(len(artifact)), last.DownloadedBytes)

	assert.Equal(t, event.VersionPayload{Version: "1.1.0"}, env.events.Filter(event.DownloadComplete)[0].Payload)
	assert.Equal(t, event.VersionPayload{Version: "1.1.0"}, env.events.Filter(event.RestartPrompt)[0].Payload)
	assert.Equal(t, []event.Menu{event.MenuChecking, event.MenuAvailable, event.MenuReady}, menuStates(env.events))

	tooltips := env.events.Filter(event.Tooltip)
	require.NotEmpty(t, tooltips)
	assert.Equal(t, "Update 1.1.0 available", tooltips[0].Payload.(event.TooltipPayload).Text)
	assert.Equal(t, event.TooltipReady, tooltips[len(tooltips)-1].Payload.(event.TooltipPayload).Text)

	status := env.manager.GetUpdateStatus()
	assert.False(t, status.Checking)
	assert.True(t, status.UpdateAvailable)
	assert.True(t, status.UpdateDownloaded)
	assert.Equal(t, "1.1.0", status.Version)
}

func TestCheck_NotAvailableManualDwell(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.1.0"})
	env.source.EXPECT().Check(gomock.Any(), "1.1.0").Return(nil, nil)

	require.NoError(t, env.manager.CheckForUpdates(context.Background()))

	assert.Equal(t, []event.Name{event.CheckingStarted, event.NotAvailable}, env.events.Names(lifecycleOnly...))
	assert.Equal(t, []event.Menu{event.MenuChecking, event.MenuNoUpdate}, menuStates(env.events))
	assert.Equal(t, Status{}, env.manager.GetUpdateStatus())

	env.clock.Advance(DefaultNoUpdateDwell - time.Second)
	assert.Equal(t, []event.Menu{event.MenuChecking, event.MenuNoUpdate}, menuStates(env.events))

	env.clock.Advance(time.Second)
	assert.Eventually(t, func() bool {
		states := menuStates(env.events)
		return len(states) == 3 && states[2] == event.MenuIdle
	}, time.Second, 10*time.Millisecond)
}

func TestCheck_NotAvailableAutomaticResetsImmediately(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.1.0"})
	env.source.EXPECT().Check(gomock.Any(), "1.1.0").Return(nil, nil)

	require.NoError(t, env.manager.scheduler.CheckNow(context.Background(), false))

	assert.Equal(t, []event.Menu{event.MenuChecking, event.MenuNoUpdate, event.MenuIdle}, menuStates(env.events))
}

func TestCheck_NotAvailableDropsCachedArtifact(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.1.0"})
	env.manager.state.StoreDownloadedUpdate(DownloadedUpdate{Bytes: []byte("old"), Version: "1.0.5"})
	env.source.EXPECT().Check(gomock.Any(), "1.1.0").Return(nil, nil)

	require.NoError(t, env.manager.CheckForUpdates(context.Background()))
	assert.Equal(t, Status{}, env.manager.GetUpdateStatus())
}

func TestCheck_NewCycleCancelsPendingDwell(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.1.0"})
	env.source.EXPECT().Check(gomock.Any(), "1.1.0").Return(nil, nil).Times(2)

	require.NoError(t, env.manager.CheckForUpdates(context.Background()))
	require.NoError(t, env.manager.scheduler.CheckNow(context.Background(), false))

	env.clock.Advance(DefaultNoUpdateDwell)
	time.Sleep(50 * time.Millisecond)

	states := menuStates(env.events)
	assert.Equal(t, []event.Menu{
		event.MenuChecking, event.MenuNoUpdate,
		event.MenuChecking, event.MenuNoUpdate, event.MenuIdle,
	}, states)
}

func TestCheck_TimeoutEmitsSingleError(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.0.0", RequestTimeout: 50 * time.Millisecond})
	env.source.EXPECT().Check(gomock.Any(), "1.0.0").DoAndReturn(func(ctx context.Context, _ string) (*release.Release, error) {
		<-ctx.Done()
		return nil, nberrors.Wrap(nberrors.TransportError, ctx.Err(), "fetch release manifest")
	})

	err := env.manager.CheckForUpdates(context.Background())
	require.Error(t, err)
	assert.True(t, nberrors.IsType(err, nberrors.TransportError))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	assert.Equal(t, []event.Name{event.CheckingStarted, event.Error}, env.events.Names(lifecycleOnly...))
	errEvents := env.events.Filter(event.Error)
	require.Len(t, errEvents, 1)
	assert.Contains(t, errEvents[0].Payload.(event.ErrorPayload).Message, "fetch release manifest")
	assert.Equal(t, Status{}, env.manager.GetUpdateStatus())
	assert.Equal(t, []event.Menu{event.MenuChecking, event.MenuIdle}, menuStates(env.events))
}

func TestCheck_ErrorResetsPreviousDownload(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.manager.state.StoreDownloadedUpdate(DownloadedUpdate{Bytes: []byte("x"), Version: "1.1.0"})
	env.source.EXPECT().Check(gomock.Any(), gomock.Any()).Return(nil, nberrors.Errorf(nberrors.ParseError, "invalid release manifest"))

	err := env.manager.CheckForUpdates(context.Background())
	assert.True(t, nberrors.IsType(err, nberrors.ParseError))
	assert.Equal(t, Status{}, env.manager.GetUpdateStatus())
}

func TestCheck_DownloadFailure(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.source.EXPECT().Check(gomock.Any(), "1.0.0").Return(releaseOf("1.1.0", "1.0.0"), nil)
	env.source.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nberrors.Errorf(nberrors.TransportError, "unexpected HTTP status: 503"))

	err := env.manager.CheckForUpdates(context.Background())
	require.Error(t, err)

	assert.Equal(t, []event.Name{event.CheckingStarted, event.UpdateAvailable, event.Error}, env.events.Names(lifecycleOnly...))
	assert.Equal(t, Status{}, env.manager.GetUpdateStatus())

	tooltips := env.events.Filter(event.Tooltip)
	assert.Equal(t, "", tooltips[len(tooltips)-1].Payload.(event.TooltipPayload).Text)
}

func TestCheck_VerificationFailure(t *testing.T) {
	env := newTestEnv(t, Config{}, WithVerifier(fakeVerifier{err: nberrors.Errorf(nberrors.VerificationError, "release artifact is not signed")}))
	env.source.EXPECT().Check(gomock.Any(), "1.0.0").Return(releaseOf("1.1.0", "1.0.0"), nil)
	env.source.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(downloadReturning([]byte("unsigned")))

	err := env.manager.CheckForUpdates(context.Background())
	assert.True(t, nberrors.IsType(err, nberrors.VerificationError))
	assert.Equal(t, Status{}, env.manager.GetUpdateStatus())
	assert.Empty(t, env.events.Filter(event.DownloadComplete))
}

func TestCheck_SingleFlight(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.1.0"})

	entered := make(chan struct{})
	unblock := make(chan struct{})
	var inFlight, maxInFlight atomic.Int32

	env.source.EXPECT().Check(gomock.Any(), "1.1.0").DoAndReturn(func(ctx context.Context, _ string) (*release.Release, error) {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		close(entered)
		<-unblock
		inFlight.Add(-1)
		return nil, nil
	}).Times(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, env.manager.CheckForUpdates(context.Background()))
	}()
	<-entered

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, env.manager.CheckForUpdates(context.Background()))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	assert.True(t, env.manager.GetUpdateStatus().Checking)

	close(unblock)
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Len(t, env.events.Filter(event.CheckingStarted), 1)
	assert.False(t, env.manager.GetUpdateStatus().Checking)
}

func TestInstall_NothingDownloaded(t *testing.T) {
	env := newTestEnv(t, Config{})

	err := env.manager.InstallUpdate(context.Background())
	require.Error(t, err)
	assert.True(t, nberrors.IsType(err, nberrors.NoUpdateAvailable))
	assert.Equal(t, Status{}, env.manager.GetUpdateStatus())
	assert.Empty(t, env.applier.calls())
	assert.Empty(t, env.events.Events())
}

func TestInstall_VersionMismatchInstallsCachedBytes(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.0.0"})
	env.manager.state.StoreDownloadedUpdate(DownloadedUpdate{Bytes: []byte("bytes of 1.2.0"), Version: "1.2.0", BaselineVersion: "1.0.0"})

	env.source.EXPECT().Check(gomock.Any(), "1.0.0").Return(releaseOf("1.3.0", "1.0.0"), nil)
	env.source.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	require.NoError(t, env.manager.InstallUpdate(context.Background()))

	assert.Equal(t, [][]byte{[]byte("bytes of 1.2.0")}, env.applier.calls())
	assert.Equal(t, int32(1), env.restarter.restarts.Load())
	assert.False(t, env.manager.GetUpdateStatus().UpdateDownloaded)
}

func TestInstall_ProceedsWhenRequeryFails(t *testing.T) {
	tests := []struct {
		name string
		rel  *release.Release
		err  error
	}{
		{name: "source error", err: nberrors.Errorf(nberrors.TransportError, "offline")},
		{name: "no release", rel: nil},
		{name: "same release", rel: releaseOf("1.2.0", "1.0.0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Config{})
			env.manager.state.StoreDownloadedUpdate(DownloadedUpdate{Bytes: []byte("1.2.0"), Version: "1.2.0"})
			env.source.EXPECT().Check(gomock.Any(), "1.0.0").Return(tt.rel, tt.err)

			require.NoError(t, env.manager.InstallUpdate(context.Background()))
			assert.Len(t, env.applier.calls(), 1)
		})
	}
}

func TestInstall_ApplyFailureIsNotRetried(t *testing.T) {
	fs := afero.NewMemMapFs()
	results := installer.NewResultHandlerWithFs(fs, "/data")
	env := newTestEnv(t, Config{}, WithResultHandler(results))
	env.applier.err = errors.New("permission denied")
	env.manager.state.StoreDownloadedUpdate(DownloadedUpdate{Bytes: []byte("1.2.0"), Version: "1.2.0"})
	env.source.EXPECT().Check(gomock.Any(), gomock.Any()).Return(releaseOf("1.2.0", "1.0.0"), nil)

	err := env.manager.InstallUpdate(context.Background())
	require.Error(t, err)
	assert.True(t, nberrors.IsType(err, nberrors.InstallError))
	assert.Equal(t, int32(0), env.restarter.restarts.Load())
	require.Len(t, env.events.Filter(event.Error), 1)

	err = env.manager.InstallUpdate(context.Background())
	assert.True(t, nberrors.IsType(err, nberrors.NoUpdateAvailable), "the artifact stays consumed")
	assert.Len(t, env.applier.calls(), 1)

	result, ok, err := results.Take()
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, result.Success)
	assert.Equal(t, "1.2.0", result.Version)
	assert.Contains(t, result.Error, "permission denied")
}

func TestInstall_RestartFailure(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.restarter.err = errors.New("exec format error")
	env.manager.state.StoreDownloadedUpdate(DownloadedUpdate{Bytes: []byte("1.2.0"), Version: "1.2.0"})
	env.source.EXPECT().Check(gomock.Any(), gomock.Any()).Return(nil, nil)

	err := env.manager.InstallUpdate(context.Background())
	assert.True(t, nberrors.IsType(err, nberrors.InstallError))
	assert.Len(t, env.applier.calls(), 1)
}

func TestInstall_ConcurrentInstallsApplyOnce(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.manager.state.StoreDownloadedUpdate(DownloadedUpdate{Bytes: []byte("1.2.0"), Version: "1.2.0"})
	env.source.EXPECT().Check(gomock.Any(), gomock.Any()).Return(releaseOf("1.2.0", "1.0.0"), nil).AnyTimes()

	var wg sync.WaitGroup
	var succeeded, rejected atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.manager.InstallUpdate(context.Background())
			switch {
			case err == nil:
				succeeded.Add(1)
			case nberrors.IsType(err, nberrors.NoUpdateAvailable), nberrors.IsType(err, nberrors.ArtifactAlreadyConsumed):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(7), rejected.Load())
	assert.Len(t, env.applier.calls(), 1)
}

func TestInstall_WritesSuccessResult(t *testing.T) {
	fs := afero.NewMemMapFs()
	results := installer.NewResultHandlerWithFs(fs, "/data")
	env := newTestEnv(t, Config{}, WithResultHandler(results))
	env.manager.state.StoreDownloadedUpdate(DownloadedUpdate{Bytes: []byte("1.2.0"), Version: "1.2.0"})
	env.source.EXPECT().Check(gomock.Any(), gomock.Any()).Return(releaseOf("1.2.0", "1.0.0"), nil)

	require.NoError(t, env.manager.InstallUpdate(context.Background()))

	result, ok, err := results.Take()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.Equal(t, env.clock.Now().UTC(), result.ExecutedAt)
}

func TestStart_ReportsPreviousInstall(t *testing.T) {
	fs := afero.NewMemMapFs()
	results := installer.NewResultHandlerWithFs(fs, "/data")
	require.NoError(t, results.Write(installer.Result{Success: true, Version: "1.1.0"}))

	env := newTestEnv(t, Config{Development: true}, WithResultHandler(results))
	env.manager.Start(context.Background())

	reported := env.events.Filter(event.InstallResult)
	require.Len(t, reported, 1)
	assert.Equal(t, event.InstallResultPayload{Success: true, Version: "1.1.0"}, reported[0].Payload)

	_, ok, err := results.Take()
	require.NoError(t, err)
	assert.False(t, ok, "the result is reported once")
}

// chainedSink records events and starts another cycle once the first "not available" is seen
type chainedSink struct {
	*event.Recorder
	once  sync.Once
	chain func()
}

func (s *chainedSink) Emit(name event.Name, payload any) {
	s.Recorder.Emit(name, payload)
	if name == event.NotAvailable {
		s.once.Do(func() { go s.chain() })
	}
}

func TestCheck_DwellDoesNotOverrideLaterDownload(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := release.NewMockSource(ctrl)
	clock := clockwork.NewFakeClock()
	artifact := []byte("gitify 1.2.0 binary")

	gomock.InOrder(
		source.EXPECT().Check(gomock.Any(), "1.0.0").Return(nil, nil),
		source.EXPECT().Check(gomock.Any(), "1.0.0").Return(releaseOf("1.2.0", "1.0.0"), nil),
	)
	source.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(downloadReturning(artifact))

	var manager *Manager
	chained := make(chan struct{})
	sink := &chainedSink{Recorder: &event.Recorder{}}
	sink.chain = func() {
		defer close(chained)
		// start as soon as the first cycle hands back the gate
		for manager.GetUpdateStatus().Checking {
			time.Sleep(time.Millisecond)
		}
		assert.NoError(t, manager.scheduler.CheckNow(context.Background(), false))
	}

	manager = NewManager(Config{CurrentVersion: "1.0.0"}, source, sink,
		WithClock(clock), WithApplier(&fakeApplier{}), WithRestarter(&fakeRestarter{}))
	t.Cleanup(manager.Stop)

	require.NoError(t, manager.CheckForUpdates(context.Background()))

	select {
	case <-chained:
	case <-time.After(5 * time.Second):
		t.Fatal("second cycle did not run")
	}

	clock.Advance(DefaultNoUpdateDwell)
	time.Sleep(50 * time.Millisecond)

	states := menuStates(sink.Recorder)
	require.NotEmpty(t, states)
	assert.Equal(t, event.MenuReady, states[len(states)-1], "menu states: %v", states)

	status := manager.GetUpdateStatus()
	assert.True(t, status.UpdateDownloaded)
	assert.Equal(t, "1.2.0", status.Version)
}

func TestCheck_DwellSkipsIdleWhenUpdateKnown(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.1.0"})
	env.source.EXPECT().Check(gomock.Any(), "1.1.0").Return(nil, nil)

	require.NoError(t, env.manager.CheckForUpdates(context.Background()))
	env.manager.state.StoreDownloadedUpdate(DownloadedUpdate{Bytes: []byte("1.2.0"), Version: "1.2.0"})

	env.clock.Advance(DefaultNoUpdateDwell)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []event.Menu{event.MenuChecking, event.MenuNoUpdate}, menuStates(env.events))
}

func TestCheck_ManualCheckDuringDownload(t *testing.T) {
	env := newTestEnv(t, Config{CurrentVersion: "1.0.0"})

	gomock.InOrder(
		env.source.EXPECT().Check(gomock.Any(), "1.0.0").Return(releaseOf("1.1.0", "1.0.0"), nil),
		env.source.EXPECT().Check(gomock.Any(), "1.0.0").Return(releaseOf("1.2.0", "1.0.0"), nil),
	)

	downloading := make(chan struct{})
	unblock := make(chan struct{})
	var downloads atomic.Int32
	env.source.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rel *release.Release, _ release.ProgressFunc) ([]byte, error) {
			downloads.Add(1)
			if rel.Version == "1.1.0" {
				close(downloading)
				<-unblock
			}
			return []byte("bytes of " + rel.Version), nil
		}).Times(2)

	first := make(chan error, 1)
	go func() {
		first <- env.manager.CheckForUpdates(context.Background())
	}()
	<-downloading

	assert.False(t, env.manager.GetUpdateStatus().Checking, "the gate is released while downloading")

	require.NoError(t, env.manager.CheckForUpdates(context.Background()))
	status := env.manager.GetUpdateStatus()
	assert.Equal(t, "1.2.0", status.Version)

	close(unblock)
	require.NoError(t, <-first)

	assert.Equal(t, int32(2), downloads.Load())
	assert.Len(t, env.events.Filter(event.CheckingStarted), 2)
	assert.Len(t, env.events.Filter(event.DownloadComplete), 2)

	update, ok := env.manager.state.TakeDownloadedUpdate()
	require.True(t, ok)
	assert.Equal(t, "1.1.0", update.Version, "the last download to finish wins")
	assert.Equal(t, []byte("bytes of "+update.Version), update.Bytes)
}
