package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supersonic/config"
	"supersonic/core/queue"
)

func TestAcceptorRoutesThroughQueue(t *testing.T) {
	env := newTestEnv()
	q := queue.New[*Request](4)
	metrics := NewMetrics(q, nil)
	acceptor := NewAcceptor(TransportHTTP, q, metrics)
	pool := NewWorkerPool(2, q, env.handler, metrics)
	pool.Start()
	defer func() {
		q.Close()
		pool.Wait()
	}()

	ts := httptest.NewServer(acceptor.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/rest/ping.view?f=json&" + creds)
	require.NoError(t, err)
	body := readBody(t, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)

	resp, err = http.Get(ts.URL + "/rest/stream.view?" + creds + "&id=" + oneMoreTime.ID.Hex())
	require.NoError(t, err)
	body = readBody(t, resp.Body)
	resp.Body.Close()
	assert.Equal(t, 1000, len(body))

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body = readBody(t, resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok queue=0/4\n", body)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body = readBody(t, resp.Body)
	resp.Body.Close()
	assert.Contains(t, body, "supersonic_queue_capacity 4")
	assert.Contains(t, body, "supersonic_queue_pushed_total 2")
	assert.Contains(t, body, `supersonic_http_requests_total{op="ping",status="200"} 1`)
	assert.Contains(t, body, "supersonic_stream_bytes_total")
}

func TestAcceptorBlocksWhenQueueFull(t *testing.T) {
	env := newTestEnv()
	q := queue.New[*Request](1)
	metrics := NewMetrics(q, nil)
	acceptor := NewAcceptor(TransportHTTP, q, metrics)
	ts := httptest.NewServer(acceptor.Handler())
	defer ts.Close()

	codes := make(chan int, 2)
	get := func() {
		resp, err := http.Get(ts.URL + "/rest/ping.view?" + creds)
		if err != nil {
			codes <- 0
			return
		}
		resp.Body.Close()
		codes <- resp.StatusCode
	}

	// 没有 worker：第一个请求占满队列，第二个只能等待
	go get()
	require.Eventually(t, func() bool { return q.Len() == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Zero(t, testutil.ToFloat64(metrics.waits))

	go get()
	require.Eventually(t, func() bool { return testutil.ToFloat64(metrics.waits) == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, q.Len())

	pool := NewWorkerPool(1, q, env.handler, metrics)
	pool.Start()
	for i := 0; i < 2; i++ {
		select {
		case code := <-codes:
			assert.Equal(t, http.StatusOK, code)
		case <-time.After(5 * time.Second):
			t.Fatal("request never completed")
		}
	}
	q.Close()
	pool.Wait()
	assert.EqualValues(t, 2, q.Pushed())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.waits))
}

func TestAcceptorRefusesAfterShutdown(t *testing.T) {
	q := queue.New[*Request](1)
	acceptor := NewAcceptor(TransportHTTP, q, nil)
	require.NoError(t, acceptor.Shutdown(context.Background()))

	rec := httptest.NewRecorder()
	acceptor.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rest/ping.view", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, q.Len())

	rec = httptest.NewRecorder()
	acceptor.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAcceptorClosedQueue(t *testing.T) {
	q := queue.New[*Request](1)
	q.Close()
	metrics := NewMetrics(q, nil)
	acceptor := NewAcceptor(TransportHTTP, q, metrics)

	rec := httptest.NewRecorder()
	acceptor.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rest/ping.view", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.rejected))
	assert.Zero(t, testutil.ToFloat64(metrics.waits))
}

func TestServerRunAndGracefulShutdown(t *testing.T) {
	env := newTestEnv()
	cfg := &config.Config{Transport: TransportHTTP, Workers: 2, QueueSize: 8, ShutdownTimeout: 5 * time.Second}
	srv := New(cfg, env.catalog, env.playlists, env.media, nil)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + l.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, l) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/rest/getIndexes.view?" + creds)
	require.NoError(t, err)
	body := readBody(t, resp.Body)
	resp.Body.Close()
	assert.True(t, strings.HasPrefix(body, "<?xml"))
	assert.Contains(t, body, `<index name="Music">`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, srv.queue.Closed())

	_, err = http.Get(base + "/healthz")
	assert.Error(t, err, "listener must be closed after shutdown")
}

func TestListenUnixSocket(t *testing.T) {
	path := t.TempDir() + "/supersonic.sock"
	l, err := Listen("unix:" + path)
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, "unix", l.Addr().Network())
}
