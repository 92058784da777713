package notify

import (
	"context"

	"github.com/haierkeys/unified-backup-service/internal/domain"

	"go.uber.org/zap"
)

// Setting keys for the runtime-editable webhook configuration.
const (
	SettingWebhookURL     = "mattermost_webhook_url"
	SettingWebhookEnabled = "mattermost_enabled"
)

// SettingsNotifier resolves the webhook URL from the settings table on every
// call so runtime edits take effect without a restart. The configured URL is
// the fallback when no setting row exists.
type SettingsNotifier struct {
	settings domain.SettingRepository
	fallback string
	logger   *zap.Logger
}

func NewSettingsNotifier(settings domain.SettingRepository, fallbackURL string, log *zap.Logger) *SettingsNotifier {
	return &SettingsNotifier{
		settings: settings,
		fallback: fallbackURL,
		logger:   log,
	}
}

// resolve builds a client for the current settings state. A "false" enabled
// row disables delivery even when a URL is present.
func (n *SettingsNotifier) resolve(ctx context.Context) *Client {
	url := n.fallback
	if n.settings != nil {
		if v, err := n.settings.Get(ctx, SettingWebhookURL); err == nil && v != "" {
			url = v
		}
		if v, err := n.settings.Get(ctx, SettingWebhookEnabled); err == nil && v == "false" {
			return nil
		}
	}
	if url == "" {
		return nil
	}
	return NewClient(url, n.logger)
}

func (n *SettingsNotifier) Enabled() bool {
	return n.resolve(context.Background()).Enabled()
}

func (n *SettingsNotifier) SendMessage(ctx context.Context, text string) bool {
	return n.resolve(ctx).SendMessage(ctx, text)
}

func (n *SettingsNotifier) SendBackupAlert(ctx context.Context, taskName string, errorMessage string) bool {
	return n.resolve(ctx).SendBackupAlert(ctx, taskName, errorMessage)
}
