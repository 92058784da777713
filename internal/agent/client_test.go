package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClientURL builds a client against a test server's base URL.
func newClientURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newClientURL(srv.URL)
	assert.True(t, c.Ping(context.Background()))

	srv.Close()
	assert.False(t, c.Ping(context.Background()))
}

func TestSystemInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/system", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]float64{
			"disk_free_gb":     120.5,
			"disk_total_gb":    500,
			"memory_free_mb":   2048,
			"memory_total_mb":  8192,
			"cpu_load_percent": 12.5,
			"network_rx_mb":    100,
			"network_tx_mb":    50,
		})
	}))
	defer srv.Close()

	info, err := newClientURL(srv.URL).SystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120.5, info.DiskFreeGB)
	assert.Equal(t, 8192.0, info.MemoryTotalMB)
	assert.Equal(t, 12.5, info.CPULoadPercent)
}

func TestBackups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/backups", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"backups": []map[string]any{
				{
					"source_path":     "/data/app",
					"archive_name":    "app_20260830.tar.gz",
					"backup_date":     "2026-08-30T02:00:00Z",
					"s3_upload_date":  "2026-08-30T02:05:00Z",
					"archive_size_mb": 420.5,
					"s3_path":         "object://backups/app/app_20260830.tar.gz",
					"status":          "success",
				},
			},
		})
	}))
	defer srv.Close()

	backups, err := newClientURL(srv.URL).Backups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "/data/app", backups[0].SourcePath)
	assert.Equal(t, "success", backups[0].Status)
	assert.Equal(t, 420.5, backups[0].ArchiveSizeMB)
}

func TestExecuteTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/task/execute", r.URL.Path)
		var config TaskConfig
		require.NoError(t, json.NewDecoder(r.Body).Decode(&config))
		assert.Equal(t, int64(7), config.TaskID)
		assert.Equal(t, "/data/app", config.SourcePath)
		json.NewEncoder(w).Encode(ExecuteResult{Success: true})
	}))
	defer srv.Close()

	result, err := newClientURL(srv.URL).ExecuteTask(context.Background(), &TaskConfig{
		TaskID:     7,
		SourcePath: "/data/app",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClientURL(srv.URL).SystemInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
