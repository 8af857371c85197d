package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log, err := New(false, false)
	require.NoError(t, err)
	require.NotNil(t, log)

	jsonLog, err := New(true, true)
	require.NoError(t, err)
	require.NotNil(t, jsonLog)
	assert.True(t, jsonLog.Core().Enabled(-1)) // debug level enabled
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdefgh", 3))
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "trimmed", Truncate("  trimmed  ", 20))
}
