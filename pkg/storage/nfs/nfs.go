// Package nfs implements the NFS storage backend. The export is mounted on
// demand through the system mount command and all file operations then go
// through the local mount point.
package nfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/haierkeys/unified-backup-service/pkg/storage/backend"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/disk"
)

const Scheme = "nfs"

type Config struct {
	Server     string
	ExportPath string
	MountPoint string
	Options    string
	BasePath   string
}

// ConfigFromMap builds a Config from the persisted config_data keys:
// server, export_path, mount_point, options, base_path.
func ConfigFromMap(cf map[string]any) *Config {
	return &Config{
		Server:     backend.MapString(cf, "server"),
		ExportPath: backend.MapString(cf, "export_path"),
		MountPoint: backend.MapStringDefault(cf, "mount_point", "/mnt/nfs_backup"),
		Options:    backend.MapStringDefault(cf, "options", "rw,sync,hard,intr"),
		BasePath:   backend.MapString(cf, "base_path"),
	}
}

type NFS struct {
	config *Config
}

func NewClient(conf *Config) (*NFS, error) {
	if conf.Server == "" {
		return nil, errors.New("nfs: server is required")
	}
	if conf.ExportPath == "" {
		return nil, errors.New("nfs: export_path is required")
	}
	return &NFS{config: conf}, nil
}

func (s *NFS) mounted() bool {
	return exec.Command("mountpoint", "-q", s.config.MountPoint).Run() == nil
}

func (s *NFS) ensureMounted(ctx context.Context) error {
	if s.mounted() {
		return nil
	}
	if err := os.MkdirAll(s.config.MountPoint, 0755); err != nil {
		return errors.Wrap(err, "nfs: create mount point")
	}
	source := fmt.Sprintf("%s:%s", s.config.Server, s.config.ExportPath)
	cmd := exec.CommandContext(ctx, "mount", "-t", "nfs", "-o", s.config.Options, source, s.config.MountPoint)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "nfs: mount %s: %s", source, strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *NFS) root() string {
	if s.config.BasePath != "" {
		return filepath.Join(s.config.MountPoint, s.config.BasePath)
	}
	return s.config.MountPoint
}

// localFull resolves a stored URI or relative path to a path under the mount
// point. URIs carry the server and export, nfs://server/export/rel, so the
// relative part starts after the third slash.
func (s *NFS) localFull(remotePath string) string {
	if strings.HasPrefix(remotePath, Scheme+"://") {
		rest := strings.TrimPrefix(remotePath, Scheme+"://")
		parts := strings.SplitN(rest, "/", 3)
		rel := ""
		if len(parts) == 3 {
			rel = parts[2]
		}
		return filepath.Join(s.root(), rel)
	}
	return filepath.Join(s.root(), remotePath)
}

func (s *NFS) uri(relPath string) string {
	return fmt.Sprintf("%s://%s%s/%s", Scheme, s.config.Server, s.config.ExportPath, relPath)
}

func (s *NFS) Upload(ctx context.Context, localPath string, remotePath string) (string, error) {
	if err := s.ensureMounted(ctx); err != nil {
		return "", err
	}
	dst := filepath.Join(s.root(), remotePath)
	if err := copyFile(localPath, dst); err != nil {
		return "", errors.Wrapf(err, "nfs: upload %s", remotePath)
	}
	return s.uri(filepath.ToSlash(remotePath)), nil
}

func (s *NFS) Download(ctx context.Context, remotePath string, localPath string) error {
	if err := s.ensureMounted(ctx); err != nil {
		return err
	}
	if err := copyFile(s.localFull(remotePath), localPath); err != nil {
		return errors.Wrapf(err, "nfs: download %s", remotePath)
	}
	return nil
}

func (s *NFS) List(ctx context.Context, prefix string) ([]string, error) {
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

func (s *NFS) ListWithInfo(ctx context.Context, prefix string) ([]backend.Entry, error) {
	if err := s.ensureMounted(ctx); err != nil {
		return nil, err
	}
	root := s.root()
	walkRoot := root
	if prefix != "" {
		walkRoot = filepath.Join(root, prefix)
	}
	if _, err := os.Stat(walkRoot); os.IsNotExist(err) {
		return nil, nil
	}

	var entries []backend.Entry
	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
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
		rel, err := filepath.Rel(root, path)
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
		return nil, errors.Wrap(err, "nfs: list")
	}
	return entries, nil
}

func (s *NFS) Delete(ctx context.Context, remotePath string) error {
	if err := s.ensureMounted(ctx); err != nil {
		return err
	}
	err := os.Remove(s.localFull(remotePath))
	return errors.Wrapf(err, "nfs: delete %s", remotePath)
}

func (s *NFS) SpaceInfo(ctx context.Context) (*backend.SpaceInfo, error) {
	if err := s.ensureMounted(ctx); err != nil {
		return nil, err
	}
	usage, err := disk.UsageWithContext(ctx, s.config.MountPoint)
	if err != nil {
		return nil, errors.Wrap(err, "nfs: space info")
	}
	return &backend.SpaceInfo{
		UsedGB:  backend.GB(usage.Used),
		FreeGB:  backend.Float64Ptr(backend.GB(usage.Free)),
		TotalGB: backend.Float64Ptr(backend.GB(usage.Total)),
	}, nil
}

func (s *NFS) TestConnection(ctx context.Context) (bool, string) {
	if err := s.ensureMounted(ctx); err != nil {
		return false, err.Error()
	}
	if err := os.MkdirAll(s.root(), 0755); err != nil {
		return false, "cannot create base path: " + err.Error()
	}
	probe := filepath.Join(s.root(), ".write-check")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return false, "cannot write to export: " + err.Error()
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
