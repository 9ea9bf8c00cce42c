package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	srv := newServer(t)
	core, logs := observer.New(zapcore.DebugLevel)

	c, err := New(srv.URL, WithMiddleware(Logging(zap.New(core))))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "/blog/hello.md")
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "/api/broken")
	require.Error(t, err)

	assert.Equal(t, 2, logs.FilterMessage("API request").Len())
	assert.Equal(t, 1, logs.FilterMessage("API response").Len())

	failed := logs.FilterMessage("API response error").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(500), failed[0].ContextMap()["status"])
}
