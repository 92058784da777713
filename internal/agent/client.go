// Package agent implements the HTTP client side of the remote agent
// contract.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// SystemInfo is the agent's self-reported telemetry.
type SystemInfo struct {
	DiskFreeGB     float64 `json:"disk_free_gb"`
	DiskTotalGB    float64 `json:"disk_total_gb"`
	MemoryFreeMB   float64 `json:"memory_free_mb"`
	MemoryTotalMB  float64 `json:"memory_total_mb"`
	CPULoadPercent float64 `json:"cpu_load_percent"`
	NetworkRxMB    float64 `json:"network_rx_mb"`
	NetworkTxMB    float64 `json:"network_tx_mb"`
}

// FilesystemInfo describes the filesystem behind a prospective backup
// source path on the agent machine.
type FilesystemInfo struct {
	Filesystem  string  `json:"filesystem"`
	MountPoint  string  `json:"mount_point"`
	AvailableGB float64 `json:"available_gb"`
	TotalGB     float64 `json:"total_gb"`
}

// TaskConfig is a folder backup job definition pushed to the agent. The
// field names are the agent's fixed wire contract.
type TaskConfig struct {
	TaskID            int64  `json:"task_id"`
	SourcePath        string `json:"source_path"`
	CreateArchive     bool   `json:"create_archive"`
	ArchiveFormat     string `json:"archive_format"`
	S3Endpoint        string `json:"s3_endpoint"`
	S3AccessKey       string `json:"s3_access_key"`
	S3SecretKey       string `json:"s3_secret_key"`
	S3Bucket          string `json:"s3_bucket"`
	S3Region          string `json:"s3_region"`
	CleanupEnabled    bool   `json:"cleanup_enabled"`
	CleanupDays       int    `json:"cleanup_days"`
	IsDockerCompose   bool   `json:"is_docker_compose"`
	DockerComposePath string `json:"docker_compose_path,omitempty"`
	ScheduleCron      string `json:"schedule_cron"`
}

// ExecuteResult is the agent's response to a task trigger.
type ExecuteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BackupInfo is one agent-reported backup per source path.
type BackupInfo struct {
	SourcePath    string  `json:"source_path"`
	ArchiveName   string  `json:"archive_name"`
	BackupDate    string  `json:"backup_date"`
	UploadDate    string  `json:"s3_upload_date"`
	ArchiveSizeMB float64 `json:"archive_size_mb"`
	StoragePath   string  `json:"s3_path"`
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message"`
}

// Client talks to one agent.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(ipAddress string, port int) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", ipAddress, port),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Ping reports whether the agent answers at all.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// SystemInfo fetches the agent's telemetry.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.getJSON(ctx, "/api/system", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FilesystemInfo fetches filesystem metadata for a prospective source path.
func (c *Client) FilesystemInfo(ctx context.Context, path string) (*FilesystemInfo, error) {
	var info FilesystemInfo
	if err := c.postJSON(ctx, "/api/filesystem", map[string]string{"path": path}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SendTaskConfig pushes a folder backup job definition to the agent.
func (c *Client) SendTaskConfig(ctx context.Context, config *TaskConfig) error {
	return c.postJSON(ctx, "/api/task/config", config, nil)
}

// ExecuteTask triggers a folder backup job on the agent.
func (c *Client) ExecuteTask(ctx context.Context, config *TaskConfig) (*ExecuteResult, error) {
	var result ExecuteResult
	if err := c.postJSON(ctx, "/api/task/execute", config, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Backups fetches the agent's self-reported backup list.
func (c *Client) Backups(ctx context.Context) ([]BackupInfo, error) {
	var payload struct {
		Backups []BackupInfo `json:"backups"`
	}
	if err := c.getJSON(ctx, "/api/backups", &payload); err != nil {
		return nil, err
	}
	return payload.Backups, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "agent: build request")
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "agent: encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "agent: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "agent: %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return errors.Errorf("agent: %s %s returned %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "agent: decode %s response", req.URL.Path)
	}
	return nil
}
