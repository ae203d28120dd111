package cmd

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugLogLevelCommand(t *testing.T) {
	previous := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(previous) })
	log.SetLevel(log.InfoLevel)

	addr := startTestingDaemon(t, &scriptedManager{})

	out, err := runCommand(t, "debug", "log", "level", "TRACE", "--daemon-addr", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "Log level set successfully to trace")
	assert.Equal(t, log.TraceLevel, log.GetLevel())

	_, err = runCommand(t, "debug", "log", "level", "verbose", "--daemon-addr", addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
	assert.Equal(t, log.TraceLevel, log.GetLevel())
}
