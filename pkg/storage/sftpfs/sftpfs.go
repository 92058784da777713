// Package sftpfs implements the SFTP storage backend. A fresh connection is
// made per operation so that a long-idle service never holds a dead session.
package sftpfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/unified-backup-service/pkg/storage/backend"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const Scheme = "sftp"

type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	PrivateKey string
	BasePath   string
}

// ConfigFromMap builds a Config from the persisted config_data keys:
// host, port, username, password, private_key, base_path.
func ConfigFromMap(cf map[string]any) *Config {
	return &Config{
		Host:       backend.MapString(cf, "host"),
		Port:       backend.MapInt(cf, "port", 22),
		Username:   backend.MapString(cf, "username"),
		Password:   backend.MapString(cf, "password"),
		PrivateKey: backend.MapString(cf, "private_key"),
		BasePath:   backend.MapStringDefault(cf, "base_path", "/backups"),
	}
}

type SFTP struct {
	config *Config
}

func NewClient(conf *Config) (*SFTP, error) {
	if conf.Host == "" {
		return nil, errors.New("sftpfs: host is required")
	}
	if conf.Username == "" {
		return nil, errors.New("sftpfs: username is required")
	}
	return &SFTP{config: conf}, nil
}

func (s *SFTP) connect() (*ssh.Client, *sftp.Client, error) {
	var auth []ssh.AuthMethod
	if s.config.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(s.config.PrivateKey))
		if err != nil {
			return nil, nil, errors.Wrap(err, "sftpfs: parse private key")
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if s.config.Password != "" {
		auth = append(auth, ssh.Password(s.config.Password))
	}

	sshConf := &ssh.ClientConfig{
		User: s.config.Username,
		Auth: auth,
		// Backup targets are provisioned hosts addressed by config, not
		// user input, so host keys are not pinned.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	conn, err := ssh.Dial("tcp", addr, sshConf)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "sftpfs: dial %s", addr)
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, nil, errors.Wrap(err, "sftpfs: open sftp session")
	}
	return conn, client, nil
}

// remoteFull resolves a stored URI or a path relative to the base path to an
// absolute path on the remote host.
func (s *SFTP) remoteFull(remotePath string) string {
	if strings.HasPrefix(remotePath, Scheme+"://") {
		rest := strings.TrimPrefix(remotePath, Scheme+"://")
		if i := strings.Index(rest, "/"); i >= 0 {
			return rest[i:]
		}
		return "/"
	}
	if path.IsAbs(remotePath) {
		return remotePath
	}
	return path.Join(s.config.BasePath, remotePath)
}

func (s *SFTP) uri(fullPath string) string {
	return Scheme + "://" + s.config.Host + fullPath
}

func (s *SFTP) Upload(ctx context.Context, localPath string, remotePath string) (string, error) {
	conn, client, err := s.connect()
	if err != nil {
		return "", err
	}
	defer conn.Close()
	defer client.Close()

	full := path.Join(s.config.BasePath, remotePath)
	if err := client.MkdirAll(path.Dir(full)); err != nil {
		return "", errors.Wrapf(err, "sftpfs: mkdir %s", path.Dir(full))
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrap(err, "sftpfs: open local file")
	}
	defer src.Close()

	dst, err := client.Create(full)
	if err != nil {
		return "", errors.Wrapf(err, "sftpfs: create %s", full)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.Wrapf(err, "sftpfs: upload %s", full)
	}
	return s.uri(full), nil
}

func (s *SFTP) Download(ctx context.Context, remotePath string, localPath string) error {
	conn, client, err := s.connect()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer client.Close()

	full := s.remoteFull(remotePath)
	src, err := client.Open(full)
	if err != nil {
		return errors.Wrapf(err, "sftpfs: open %s", full)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return errors.Wrap(err, "sftpfs: local mkdir")
	}
	dst, err := os.Create(localPath)
	if err != nil {
		return errors.Wrap(err, "sftpfs: create local file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "sftpfs: download %s", full)
	}
	return nil
}

func (s *SFTP) List(ctx context.Context, prefix string) ([]string, error) {
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

func (s *SFTP) ListWithInfo(ctx context.Context, prefix string) ([]backend.Entry, error) {
	conn, client, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	defer client.Close()

	root := s.config.BasePath
	if prefix != "" {
		root = path.Join(root, prefix)
	}
	if _, err := client.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "sftpfs: stat %s", root)
	}

	var entries []backend.Entry
	walker := client.Walk(root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return nil, errors.Wrap(err, "sftpfs: walk")
		}
		info := walker.Stat()
		if info.IsDir() {
			continue
		}
		rel := strings.TrimPrefix(walker.Path(), s.config.BasePath)
		rel = strings.TrimPrefix(rel, "/")
		entries = append(entries, backend.Entry{
			Path:    rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

func (s *SFTP) Delete(ctx context.Context, remotePath string) error {
	conn, client, err := s.connect()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer client.Close()

	full := s.remoteFull(remotePath)
	if err := client.Remove(full); err != nil {
		return errors.Wrapf(err, "sftpfs: delete %s", full)
	}
	return nil
}

func (s *SFTP) SpaceInfo(ctx context.Context) (*backend.SpaceInfo, error) {
	conn, client, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	defer client.Close()

	vfs, err := client.StatVFS(s.config.BasePath)
	if err != nil {
		// Not every server implements the statvfs extension.
		return &backend.SpaceInfo{}, nil
	}
	total := vfs.TotalSpace()
	free := vfs.FreeSpace()
	return &backend.SpaceInfo{
		UsedGB:  backend.GB(total - free),
		FreeGB:  backend.Float64Ptr(backend.GB(free)),
		TotalGB: backend.Float64Ptr(backend.GB(total)),
	}, nil
}

func (s *SFTP) TestConnection(ctx context.Context) (bool, string) {
	conn, client, err := s.connect()
	if err != nil {
		return false, err.Error()
	}
	defer conn.Close()
	defer client.Close()

	if err := client.MkdirAll(s.config.BasePath); err != nil {
		return false, "cannot create base path: " + err.Error()
	}
	return true, ""
}
