// Package storage provides a uniform backend abstraction for backup
// artifacts over S3-compatible object storage, SFTP, NFS and local disks.
package storage

import (
	"context"

	"github.com/haierkeys/unified-backup-service/pkg/storage/backend"
	"github.com/haierkeys/unified-backup-service/pkg/storage/local_fs"
	"github.com/haierkeys/unified-backup-service/pkg/storage/nfs"
	"github.com/haierkeys/unified-backup-service/pkg/storage/object"
	"github.com/haierkeys/unified-backup-service/pkg/storage/sftpfs"

	"github.com/pkg/errors"
)

type Type = string

const Object Type = "object"
const SFTP Type = "sftp"
const NFS Type = "nfs"
const Local Type = "local"

// ObjectLegacy is the storage type the old flat object-storage records
// carried before the generic config shape existed.
const ObjectLegacy Type = "s3"

var TypeMap = map[Type]bool{
	Object: true,
	SFTP:   true,
	NFS:    true,
	Local:  true,
}

var ErrInvalidType = errors.New("storage: invalid storage type")

type SpaceInfo = backend.SpaceInfo
type Entry = backend.Entry

// Backend is the capability set every storage variant implements.
//
// Upload returns a scheme-qualified URI (object://bucket/key,
// sftp://host/path, nfs://server/export/path, local://absolutePath) that
// fully identifies the artifact. Download and Delete accept either that URI
// or a bare path relative to the backend root. Delete on a missing object
// returns an error; callers wanting idempotency check List output first.
type Backend interface {
	Upload(ctx context.Context, localPath string, remotePath string) (string, error)
	Download(ctx context.Context, remotePath string, localPath string) error
	List(ctx context.Context, prefix string) ([]string, error)
	ListWithInfo(ctx context.Context, prefix string) ([]Entry, error)
	Delete(ctx context.Context, remotePath string) error
	SpaceInfo(ctx context.Context) (*SpaceInfo, error)
	TestConnection(ctx context.Context) (bool, string)
}

// New creates a backend for the persisted storage type discriminant.
// configData carries the per-type keys described on each variant's Config.
func New(storageType Type, configData map[string]any) (Backend, error) {
	switch storageType {
	case Local:
		return local_fs.NewClient(local_fs.ConfigFromMap(configData))
	case SFTP:
		return sftpfs.NewClient(sftpfs.ConfigFromMap(configData))
	case NFS:
		return nfs.NewClient(nfs.ConfigFromMap(configData))
	case Object, ObjectLegacy:
		return object.NewClient(object.ConfigFromMap(configData))
	}
	return nil, errors.Wrap(ErrInvalidType, storageType)
}

// FromLegacyObjectConfig translates the old flat object-storage record shape
// into the generic configData map so callers can construct a backend from
// either form.
func FromLegacyObjectConfig(endpoint, accessKey, secretKey, bucket, region string, useSSL bool) map[string]any {
	return map[string]any{
		"endpoint":    endpoint,
		"access_key":  accessKey,
		"secret_key":  secretKey,
		"bucket_name": bucket,
		"region":      region,
		"use_ssl":     useSSL,
	}
}
