package storage

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDispatchesByType(t *testing.T) {
	b, err := New(Local, map[string]any{"base_path": t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestNewInvalidType(t *testing.T) {
	_, err := New("ftp", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidType))
}

func TestNewLegacyAliasUsesObjectBackend(t *testing.T) {
	// The old flat records carried "s3" as their type discriminant.
	cfg := FromLegacyObjectConfig("minio.internal:9000", "ak", "sk", "backups", "us-east-1", true)
	b, err := New(ObjectLegacy, cfg)
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestFromLegacyObjectConfig(t *testing.T) {
	cfg := FromLegacyObjectConfig("minio.internal:9000", "ak", "sk", "backups", "us-east-1", false)

	assert.Equal(t, "minio.internal:9000", cfg["endpoint"])
	assert.Equal(t, "ak", cfg["access_key"])
	assert.Equal(t, "sk", cfg["secret_key"])
	assert.Equal(t, "backups", cfg["bucket_name"])
	assert.Equal(t, "us-east-1", cfg["region"])
	assert.Equal(t, false, cfg["use_ssl"])
}
