// Package local_fs implements the local filesystem storage backend.
package local_fs

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/haierkeys/unified-backup-service/pkg/storage/backend"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/disk"
)

const Scheme = "local"

type Config struct {
	BasePath string
}

// ConfigFromMap builds a Config from the persisted config_data keys:
// base_path.
func ConfigFromMap(cf map[string]any) *Config {
	return &Config{
		BasePath: backend.MapStringDefault(cf, "base_path", "/var/backups"),
	}
}

type LocalFS struct {
	config *Config
}

func NewClient(conf *Config) (*LocalFS, error) {
	if err := os.MkdirAll(conf.BasePath, 0755); err != nil {
		return nil, errors.Wrap(err, "local_fs")
	}
	return &LocalFS{config: conf}, nil
}

func (s *LocalFS) fullPath(remotePath string) string {
	if strings.HasPrefix(remotePath, Scheme+"://") {
		return strings.TrimPrefix(remotePath, Scheme+"://")
	}
	return filepath.Join(s.config.BasePath, remotePath)
}

func (s *LocalFS) Upload(ctx context.Context, localPath string, remotePath string) (string, error) {
	dst := filepath.Join(s.config.BasePath, remotePath)
	if err := copyFile(localPath, dst); err != nil {
		return "", errors.Wrapf(err, "local_fs: upload %s", remotePath)
	}
	return Scheme + "://" + dst, nil
}

func (s *LocalFS) Download(ctx context.Context, remotePath string, localPath string) error {
	src := s.fullPath(remotePath)
	if err := copyFile(src, localPath); err != nil {
		return errors.Wrapf(err, "local_fs: download %s", remotePath)
	}
	return nil
}

func (s *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
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

func (s *LocalFS) ListWithInfo(ctx context.Context, prefix string) ([]backend.Entry, error) {
	root := s.config.BasePath
	if prefix != "" {
		root = filepath.Join(root, prefix)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var entries []backend.Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.config.BasePath, path)
		if err != nil {
			return err
		}
		entries = append(entries, backend.Entry{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "local_fs: list")
	}
	return entries, nil
}

func (s *LocalFS) Delete(ctx context.Context, remotePath string) error {
	err := os.Remove(s.fullPath(remotePath))
	return errors.Wrapf(err, "local_fs: delete %s", remotePath)
}

func (s *LocalFS) SpaceInfo(ctx context.Context) (*backend.SpaceInfo, error) {
	usage, err := disk.UsageWithContext(ctx, s.config.BasePath)
	if err != nil {
		return nil, errors.Wrap(err, "local_fs: space info")
	}
	return &backend.SpaceInfo{
		UsedGB:  backend.GB(usage.Used),
		FreeGB:  backend.Float64Ptr(backend.GB(usage.Free)),
		TotalGB: backend.Float64Ptr(backend.GB(usage.Total)),
	}, nil
}

// TestConnection creates the base directory when missing and verifies it is
// writable with a throwaway file.
func (s *LocalFS) TestConnection(ctx context.Context) (bool, string) {
	if err := os.MkdirAll(s.config.BasePath, 0755); err != nil {
		return false, "cannot create base directory: " + err.Error()
	}
	probe := filepath.Join(s.config.BasePath, ".write-check")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return false, "cannot write to directory: " + err.Error()
	}
	_ = os.Remove(probe)
	return true, ""
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
