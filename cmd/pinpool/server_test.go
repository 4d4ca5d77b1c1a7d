package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jzx17/pinpool/pkg/pool"
	"github.com/jzx17/pinpool/pkg/worker"
)

func newTestServer(t *testing.T) (*pool.Pool, *httptest.Server) {
	t.Helper()

	reg := prometheus.NewRegistry()
	p, err := pool.New(&pool.Config{Workers: 2, Registerer: reg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Destroy() })
	require.NoError(t, p.Start(context.Background()))

	srv := httptest.NewServer(newRouter(p, reg, "run-1", zap.NewNop()))
	t.Cleanup(srv.Close)
	return p, srv
}

func TestRouter_Stats(t *testing.T) {
	p, srv := newTestServer(t)

	tasks, _ := newWorkload(4, 0)
	for _, task := range tasks {
		require.NoError(t, p.Submit(task))
	}
	require.NoError(t, p.WaitAll())

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body statsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 2, body.Pool.Size)
	assert.Equal(t, int64(4), body.Pool.Completed)
	assert.True(t, body.Pool.Idle)
	require.Len(t, body.Workers, 2)
	assert.Equal(t, worker.StateReady.String(), body.Workers[0].State)
	assert.False(t, body.Workers[0].Pinned)
}

func TestRouter_Metrics(t *testing.T) {
	p, srv := newTestServer(t)
	require.NoError(t, p.Submit(worker.TaskFunc(func() {})))
	require.NoError(t, p.WaitAll())

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pinpool_tasks_completed_total")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/health", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
