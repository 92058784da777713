// Package notify delivers alert and report messages to a webhook endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// Client posts messages to a single incoming-webhook URL. Delivery failure
// is logged and swallowed, there is no retry and no second channel.
type Client struct {
	webhookURL string
	username   string
	http       *http.Client
	logger     *zap.Logger
}

func NewClient(webhookURL string, log *zap.Logger) *Client {
	return &Client{
		webhookURL: webhookURL,
		username:   "Backup Server",
		http:       &http.Client{Timeout: sendTimeout},
		logger:     log,
	}
}

// Enabled reports whether a webhook URL is configured at all.
func (c *Client) Enabled() bool {
	return c != nil && c.webhookURL != ""
}

// SendMessage posts one text message. Returns true when the webhook
// accepted it.
func (c *Client) SendMessage(ctx context.Context, text string) bool {
	if !c.Enabled() {
		return false
	}

	payload, err := json.Marshal(map[string]string{
		"text":     text,
		"username": c.username,
	})
	if err != nil {
		c.logger.Error("notify: encode payload", zap.Error(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("notify: build request", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("notify: webhook delivery failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("notify: webhook returned non-ok status", zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

// SendBackupAlert posts a backup failure alert for one task.
func (c *Client) SendBackupAlert(ctx context.Context, taskName string, errorMessage string) bool {
	text := fmt.Sprintf(":warning: **Backup problem**\n\n**Task:** %s\n**Error:** %s\n**Time:** %s",
		taskName,
		errorMessage,
		time.Now().Format("2006-01-02 15:04:05"))
	return c.SendMessage(ctx, text)
}
