// Package domain defines the core entities and repository interfaces.
package domain

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// StorageConfig is a generic storage destination with decoded per-type
// connection settings.
type StorageConfig struct {
	ID              int64
	Name            string
	StorageType     string
	ConfigData      map[string]any
	LastCheck       *time.Time
	FreeSpaceGB     *float64
	TotalSpaceGB    *float64
	UsedSpaceGB     float64
	ConnectionError *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Healthy reports whether the last connection check passed. A nil
// ConnectionError means healthy.
func (s *StorageConfig) Healthy() bool {
	return s.ConnectionError == nil
}

// DecodeConfigData parses the raw JSON config_data column value.
func DecodeConfigData(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, errors.Wrap(err, "decode storage config data")
	}
	return m, nil
}

// EncodeConfigData renders the decoded settings back to the column value.
func EncodeConfigData(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "encode storage config data")
	}
	return string(data), nil
}

// SpaceCheckResult carries the outcome of one connection check pass for a
// storage configuration.
type SpaceCheckResult struct {
	UsedGB          float64
	FreeGB          *float64
	TotalGB         *float64
	ConnectionError *string
	CheckedAt       time.Time
}

// LegacyObjectConfig is the old flat object-storage record shape.
type LegacyObjectConfig struct {
	ID         int64
	Name       string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	Region     string
	UseSSL     bool
	CreatedAt  time.Time
}
