package updatemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gitify-app/updater/client/internal/updatemanager/release"
)

func expectChecks(env *testEnv, n int) <-chan struct{} {
	checked := make(chan struct{}, n+1)
	env.source.EXPECT().Check(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, string) (*release.Release, error) {
		checked <- struct{}{}
		return nil, nil
	}).Times(n)
	return checked
}

// waitCheck waits for a check to reach the source and for its cycle to finish
func waitCheck(t *testing.T, env *testEnv, checked <-chan struct{}) {
	t.Helper()
	select {
	case <-checked:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an update check")
	}
	require.Eventually(t, func() bool { return !env.manager.GetUpdateStatus().Checking }, time.Second, 5*time.Millisecond)
}

func assertNoCheck(t *testing.T, checked <-chan struct{}) {
	t.Helper()
	select {
	case <-checked:
		t.Fatal("unexpected update check")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_WarmupThenPeriodic(t *testing.T) {
	env := newTestEnv(t, Config{CheckInterval: time.Hour, WarmupDelay: 5 * time.Second})
	checked := expectChecks(env, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	env.manager.Start(ctx)
	require.NoError(t, env.clock.BlockUntilContext(ctx, 2))

	env.clock.Advance(4 * time.Second)
	assertNoCheck(t, checked)

	env.clock.Advance(time.Second)
	waitCheck(t, env, checked)

	env.clock.Advance(time.Hour - 5*time.Second)
	waitCheck(t, env, checked)

	env.clock.Advance(time.Hour)
	waitCheck(t, env, checked)

	env.manager.Stop()
	env.clock.Advance(time.Hour)
	assertNoCheck(t, checked)
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	env := newTestEnv(t, Config{CheckInterval: time.Hour, WarmupDelay: time.Second})
	checked := expectChecks(env, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	env.manager.Start(ctx)
	env.manager.Start(ctx)
	require.NoError(t, env.clock.BlockUntilContext(ctx, 2))

	env.clock.Advance(time.Second)
	waitCheck(t, env, checked)
	assertNoCheck(t, checked)
	assert.True(t, env.manager.state.Started())
}

func TestScheduler_DevelopmentBuildSkips(t *testing.T) {
	env := newTestEnv(t, Config{Development: true})
	checked := expectChecks(env, 0)

	env.manager.Start(context.Background())
	env.clock.Advance(DefaultCheckInterval + DefaultWarmupDelay)

	assertNoCheck(t, checked)
	assert.False(t, env.manager.state.Started())
}

func TestScheduler_SetInterval(t *testing.T) {
	env := newTestEnv(t, Config{CheckInterval: 24 * time.Hour, WarmupDelay: time.Minute})
	checked := expectChecks(env, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	env.manager.Start(ctx)
	require.NoError(t, env.clock.BlockUntilContext(ctx, 2))

	env.manager.SetCheckInterval(time.Hour)
	assert.Equal(t, time.Hour, env.manager.scheduler.Interval())
	assert.Eventually(t, func() bool { return len(env.manager.scheduler.intervalCh) == 0 }, time.Second, 5*time.Millisecond)

	env.clock.Advance(time.Minute)
	waitCheck(t, env, checked)

	env.clock.Advance(time.Hour - time.Minute)
	waitCheck(t, env, checked)
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.manager.Stop()
	env.manager.SetCheckInterval(0)
	assert.Equal(t, DefaultCheckInterval, env.manager.scheduler.Interval())
}
