package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsarena/internal/api"
	"github.com/mcoot/rpsarena/internal/testutil"
)

func TestServerRunStopsOnCancel(t *testing.T) {
	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = "0"
	server := api.NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())
	assert.Equal(t, "127.0.0.1:0", server.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
