package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketpipe/pkg/config"
	"github.com/wonny/marketpipe/pkg/logger"
)

func TestServerRunStopsOnCancel(t *testing.T) {
	srv := New(&config.Config{Port: "0", Env: "test"}, logger.NewNop(), http.NotFoundHandler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerRunListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	srv := New(&config.Config{Port: port}, logger.NewNop(), http.NotFoundHandler())
	srv.httpServer.Addr = "127.0.0.1:" + port

	err = srv.Run(context.Background())
	assert.Error(t, err)
}
