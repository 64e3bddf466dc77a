package server_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hyperlocaleyes/backend/core/server"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func TestServerRun(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))
	addr, err := srv.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(gctx, okHandler()))

	url := "http://" + addr.String() + "/"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && string(body) == "ok"
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, srv.Start(context.Background(), okHandler()), server.ErrServerAlreadyRunning)

	cancel()
	require.NoError(t, g.Wait())

	_, err = http.Get(url)
	assert.Error(t, err)
}

func TestServerStopWithoutStart(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0")
	assert.ErrorIs(t, srv.Stop(), server.ErrServerNotRunning)
}

func TestServerListenError(t *testing.T) {
	t.Parallel()

	srv := server.New("256.0.0.1:99999")
	err := srv.Start(context.Background(), okHandler())
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	_, err := server.NewFromConfig(server.Config{})
	assert.ErrorIs(t, err, server.ErrMissingAddress)

	cfg := server.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv, err := server.NewFromConfig(cfg, server.WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, srv)
}
