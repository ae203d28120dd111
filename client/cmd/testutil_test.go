package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gitify-app/updater/client/internal/updatemanager"
	"github.com/gitify-app/updater/client/internal/updatemanager/event"
	"github.com/gitify-app/updater/client/server"
	"github.com/gitify-app/updater/client/server/middleware"
)

// scriptedManager replays a fixed event script on every check
type scriptedManager struct {
	bus        *event.Bus
	script     func(bus *event.Bus)
	installErr error
	status     updatemanager.Status
}

func (m *scriptedManager) CheckForUpdates(context.Context) error {
	if m.script != nil {
		m.script(m.bus)
	}
	return nil
}

func (m *scriptedManager) InstallUpdate(context.Context) error {
	return m.installErr
}

func (m *scriptedManager) GetUpdateStatus() updatemanager.Status {
	return m.status
}

// startTestingDaemon serves the daemon API for mgr and returns its address
func startTestingDaemon(t *testing.T, mgr *scriptedManager) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	mgr.bus = event.NewBus(0)
	srv := server.New(ctx, mgr, mgr.bus, nil, &middleware.RateLimiterConfig{RequestsPerMinute: 600, Burst: 100}, nil)
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		cancel()
		ts.Close()
		srv.Stop()
	})
	return ts.URL
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of progress bars
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
