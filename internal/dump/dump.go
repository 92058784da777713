// Package dump executes database dump and restore subprocesses and moves
// the artifacts through a storage backend.
package dump

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/pkg/logger"
	"github.com/haierkeys/unified-backup-service/pkg/storage"
	"github.com/haierkeys/unified-backup-service/pkg/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config controls executor behavior.
type Config struct {
	// EncryptionKey decrypts stored task credentials
	EncryptionKey string
	// TempPath holds dump artifacts between subprocess and upload
	TempPath string
	// Namespace is the top level storage prefix for all artifacts
	Namespace string
	// DumpTool, RestoreTool and SQLTool are the external command names
	DumpTool    string
	RestoreTool string
	SQLTool     string
}

// Executor runs dump and restore jobs for database backup tasks.
type Executor struct {
	config Config
	runner Runner
	logger *zap.Logger
}

// Result is the outcome of a successful backup run.
type Result struct {
	Filename    string
	StoragePath string
	StorageURI  string
	SizeMB      float64
}

func NewExecutor(config Config, runner Runner, log *zap.Logger) *Executor {
	if config.TempPath == "" {
		config.TempPath = filepath.Join(os.TempDir(), "db_backups")
	}
	if config.Namespace == "" {
		config.Namespace = "backups"
	}
	if config.DumpTool == "" {
		config.DumpTool = "pg_dump"
	}
	if config.RestoreTool == "" {
		config.RestoreTool = "pg_restore"
	}
	if config.SQLTool == "" {
		config.SQLTool = "psql"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Executor{config: config, runner: runner, logger: log}
}

// SanitizeName makes a database name safe for use in file and object paths.
func SanitizeName(database string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(database)
}

// ArtifactExt maps a dump format to its artifact file extension.
func ArtifactExt(format string) string {
	switch format {
	case domain.FormatCustom:
		return "dump"
	case domain.FormatTar:
		return "tar"
	default:
		return "sql"
	}
}

const timestampLayout = "20060102150405"

// Backup dumps the task's database and uploads the artifact. The credential
// reaches the subprocess only through its environment.
func (e *Executor) Backup(ctx context.Context, task *domain.DatabaseBackupTask, backend storage.Backend) (*Result, error) {
	password, err := util.DecryptCredential(task.PasswordEncrypted, e.config.EncryptionKey)
	if err != nil {
		return nil, errors.Wrapf(err, "dump: task %d credential", task.ID)
	}

	if err := os.MkdirAll(e.config.TempPath, 0700); err != nil {
		return nil, errors.Wrap(err, "dump: temp path")
	}

	dbNameSafe := SanitizeName(task.DatabaseName)
	filename := fmt.Sprintf("%s_%s.%s", dbNameSafe, time.Now().Format(timestampLayout), ArtifactExt(task.Format))
	dumpPath := filepath.Join(e.config.TempPath, filename)

	args := e.dumpArgs(task, dumpPath)

	e.logger.Info("executing dump",
		zap.String(logger.FieldDatabase, task.DatabaseName),
		zap.String("host", task.Host),
		zap.String("format", task.Format))

	if stderr, err := e.runner.Run(ctx, e.config.DumpTool, args, []string{"PGPASSWORD=" + password}); err != nil {
		if stderr != "" {
			return nil, errors.Errorf("dump: %s failed: %s", e.config.DumpTool, stderr)
		}
		return nil, errors.Wrapf(err, "dump: %s failed", e.config.DumpTool)
	}

	info, err := os.Stat(dumpPath)
	if err != nil {
		return nil, errors.New("dump: artifact was not created")
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)

	storagePath := fmt.Sprintf("%s/%s/%s", e.config.Namespace, dbNameSafe, filename)
	uri, err := backend.Upload(ctx, dumpPath, storagePath)
	if err != nil {
		// The artifact stays on disk for manual recovery, removal is best
		// effort only.
		if rmErr := os.Remove(dumpPath); rmErr != nil {
			e.logger.Warn("failed to remove local artifact after upload error",
				zap.String(logger.FieldPath, dumpPath),
				zap.Error(rmErr))
		}
		return nil, errors.Wrap(err, "dump: upload failed")
	}

	if err := os.Remove(dumpPath); err != nil {
		e.logger.Warn("failed to remove local artifact",
			zap.String(logger.FieldPath, dumpPath),
			zap.Error(err))
	}

	e.logger.Info("backup uploaded",
		zap.String(logger.FieldDatabase, task.DatabaseName),
		zap.String(logger.FieldPath, uri),
		zap.Float64(logger.FieldSize, sizeMB))

	return &Result{
		Filename:    filename,
		StoragePath: storagePath,
		StorageURI:  uri,
		SizeMB:      sizeMB,
	}, nil
}

func (e *Executor) dumpArgs(task *domain.DatabaseBackupTask, dumpPath string) []string {
	args := []string{
		fmt.Sprintf("--host=%s", task.Host),
		fmt.Sprintf("--port=%d", task.Port),
		fmt.Sprintf("--username=%s", task.Username),
		fmt.Sprintf("--dbname=%s", task.DatabaseName),
		fmt.Sprintf("--format=%s", task.Format),
		fmt.Sprintf("--file=%s", dumpPath),
	}

	switch task.Format {
	case domain.FormatCustom:
		args = append(args, fmt.Sprintf("--compress=%d", task.CompressionLevel))
	case domain.FormatPlain:
		args = append(args, "--no-owner", "--no-privileges")
	}

	// Both include flags off means dump everything, same as both on.
	if !task.IncludeSchema && task.IncludeData {
		args = append(args, "--data-only")
	} else if task.IncludeSchema && !task.IncludeData {
		args = append(args, "--schema-only")
	}

	if task.IncludeRoles {
		args = append(args, "--roles-only")
	}
	if task.IncludeTablespaces {
		args = append(args, "--tablespaces")
	}

	return args
}

// Restore downloads an artifact by storage URI and loads it into the
// target database. Binary formats go through the restore tool with clean
// semantics, plain SQL goes through the SQL tool.
func (e *Executor) Restore(ctx context.Context, task *domain.DatabaseBackupTask, backend storage.Backend, storageURI string, targetDatabase string) error {
	password, err := util.DecryptCredential(task.PasswordEncrypted, e.config.EncryptionKey)
	if err != nil {
		return errors.Wrapf(err, "dump: task %d credential", task.ID)
	}

	restoreDB := targetDatabase
	if restoreDB == "" {
		restoreDB = task.DatabaseName
	}

	if err := os.MkdirAll(e.config.TempPath, 0700); err != nil {
		return errors.Wrap(err, "dump: temp path")
	}
	// Prefix with a run id so concurrent restores of the same artifact
	// never share a scratch file.
	localFile := filepath.Join(e.config.TempPath, uuid.NewString()+"_"+filepath.Base(storageURI))
	if err := backend.Download(ctx, storageURI, localFile); err != nil {
		return errors.Wrap(err, "dump: download failed")
	}
	defer func() {
		if err := os.Remove(localFile); err != nil {
			e.logger.Warn("failed to remove local restore file",
				zap.String(logger.FieldPath, localFile),
				zap.Error(err))
		}
	}()

	tool, args := e.restoreCommand(task, restoreDB, localFile)

	e.logger.Info("restoring database",
		zap.String(logger.FieldDatabase, restoreDB),
		zap.String(logger.FieldPath, localFile))

	if stderr, err := e.runner.Run(ctx, tool, args, []string{"PGPASSWORD=" + password}); err != nil {
		if stderr != "" {
			return errors.Errorf("dump: %s failed: %s", tool, stderr)
		}
		return errors.Wrapf(err, "dump: %s failed", tool)
	}
	return nil
}

func (e *Executor) restoreCommand(task *domain.DatabaseBackupTask, restoreDB, localFile string) (string, []string) {
	base := []string{
		fmt.Sprintf("--host=%s", task.Host),
		fmt.Sprintf("--port=%d", task.Port),
		fmt.Sprintf("--username=%s", task.Username),
		fmt.Sprintf("--dbname=%s", restoreDB),
	}

	switch strings.ToLower(filepath.Ext(localFile)) {
	case ".dump", ".custom", ".tar":
		return e.config.RestoreTool, append(base, "--clean", "--if-exists", localFile)
	default:
		return e.config.SQLTool, append(base, "--file", localFile)
	}
}
