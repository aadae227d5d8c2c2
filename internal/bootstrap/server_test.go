package bootstrap

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/parking/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, config.HTTPConfig{Address: "127.0.0.1:0", ShutdownTimeoutSeconds: 1}, http.NotFoundHandler(), nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenError(t *testing.T) {
	err := Run(context.Background(), config.HTTPConfig{Address: "127.0.0.1:-1"}, http.NotFoundHandler(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen http")
}
