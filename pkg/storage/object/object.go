// Package object implements the S3-compatible storage backend on top of
// the MinIO client, covering MinIO, AWS S3 and other S3 API servers.
package object

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haierkeys/unified-backup-service/pkg/storage/backend"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

const Scheme = "object"

// legacyScheme is still accepted on download/delete input so that storage
// paths recorded by the old flat object-storage configuration keep working.
const legacyScheme = "s3"

type Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	Region     string
	UseSSL     bool
}

// ConfigFromMap builds a Config from the persisted config_data keys:
// endpoint, access_key, secret_key, bucket_name, region, use_ssl.
func ConfigFromMap(cf map[string]any) *Config {
	return &Config{
		Endpoint:   backend.MapString(cf, "endpoint"),
		AccessKey:  backend.MapString(cf, "access_key"),
		SecretKey:  backend.MapString(cf, "secret_key"),
		BucketName: backend.MapString(cf, "bucket_name"),
		Region:     backend.MapStringDefault(cf, "region", "us-east-1"),
		UseSSL:     backend.MapBool(cf, "use_ssl"),
	}
}

type ObjectStorage struct {
	client *minio.Client
	config *Config
}

// NewClient creates an object storage backend. The endpoint may carry an
// http:// or https:// scheme; the scheme is stripped and drives UseSSL.
func NewClient(conf *Config) (*ObjectStorage, error) {
	endpoint := conf.Endpoint
	secure := conf.UseSSL
	if strings.HasPrefix(endpoint, "https://") {
		endpoint = strings.TrimPrefix(endpoint, "https://")
		secure = true
	} else if strings.HasPrefix(endpoint, "http://") {
		endpoint = strings.TrimPrefix(endpoint, "http://")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: secure,
		Region: conf.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "object")
	}

	return &ObjectStorage{client: client, config: conf}, nil
}

func (s *ObjectStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.config.BucketName)
	if err != nil {
		return errors.Wrap(err, "object: bucket check")
	}
	if !exists {
		err = s.client.MakeBucket(ctx, s.config.BucketName, minio.MakeBucketOptions{Region: s.config.Region})
		if err != nil {
			return errors.Wrap(err, "object: bucket create")
		}
	}
	return nil
}

// objectName strips the backend's own URI prefix (current or legacy scheme)
// so URI and relative-path input resolve to the same key.
func (s *ObjectStorage) objectName(remotePath string) string {
	for _, scheme := range []string{Scheme, legacyScheme} {
		prefix := fmt.Sprintf("%s://%s/", scheme, s.config.BucketName)
		if strings.HasPrefix(remotePath, prefix) {
			return strings.TrimPrefix(remotePath, prefix)
		}
	}
	return remotePath
}

func (s *ObjectStorage) Upload(ctx context.Context, localPath string, remotePath string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err := s.client.FPutObject(ctx, s.config.BucketName, remotePath, localPath, minio.PutObjectOptions{})
	if err != nil {
		return "", errors.Wrapf(err, "object: upload %s", remotePath)
	}
	return fmt.Sprintf("%s://%s/%s", Scheme, s.config.BucketName, remotePath), nil
}

func (s *ObjectStorage) Download(ctx context.Context, remotePath string, localPath string) error {
	name := s.objectName(remotePath)
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return errors.Wrap(err, "object: download")
	}
	err := s.client.FGetObject(ctx, s.config.BucketName, name, localPath, minio.GetObjectOptions{})
	return errors.Wrapf(err, "object: download %s", name)
}

func (s *ObjectStorage) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := s.ListWithInfo(ctx, prefix)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths, nil
}

func (s *ObjectStorage) ListWithInfo(ctx context.Context, prefix string) ([]backend.Entry, error) {
	var entries []backend.Entry
	objects := s.client.ListObjects(ctx, s.config.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, "object: list")
		}
		entries = append(entries, backend.Entry{
			Path:    obj.Key,
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}
	return entries, nil
}

func (s *ObjectStorage) Delete(ctx context.Context, remotePath string) error {
	name := s.objectName(remotePath)
	err := s.client.RemoveObject(ctx, s.config.BucketName, name, minio.RemoveObjectOptions{})
	return errors.Wrapf(err, "object: delete %s", name)
}

// SpaceInfo sums listed object sizes. Free and total stay nil, object
// storage has no quota API to report them from.
func (s *ObjectStorage) SpaceInfo(ctx context.Context) (*backend.SpaceInfo, error) {
	var total int64
	objects := s.client.ListObjects(ctx, s.config.BucketName, minio.ListObjectsOptions{Recursive: true})
	for obj := range objects {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, "object: space info")
		}
		total += obj.Size
	}
	return &backend.SpaceInfo{UsedGB: backend.GB(uint64(total))}, nil
}

// TestConnection probes the bucket and creates it when absent.
func (s *ObjectStorage) TestConnection(ctx context.Context) (bool, string) {
	if err := s.ensureBucket(ctx); err != nil {
		return false, err.Error()
	}
	return true, ""
}
