package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haierkeys/unified-backup-service/global"
	internalApp "github.com/haierkeys/unified-backup-service/internal/app"
	"github.com/haierkeys/unified-backup-service/internal/dao"
	"github.com/haierkeys/unified-backup-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultShutdownTimeout bounds how long Close waits for a clean shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// Server bundles the running application and its infrastructure.
type Server struct {
	logger *zap.Logger
	config *internalApp.AppConfig
	db     *gorm.DB
	app    *internalApp.App
}

// checkSecurityConfig warns when the credential encryption key is missing
// or left at a placeholder value.
func checkSecurityConfig(cfg *internalApp.AppConfig, lg *zap.Logger) {
	key := cfg.Security.EncryptionKey
	if key != "" && key != "change-me" {
		return
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("⚠️  SECURITY WARNING: No credential encryption key configured!")
	fmt.Println()
	fmt.Println("Please set 'security.encryption-key' in config.yaml")
	fmt.Println("Generate a secure key with:")
	fmt.Println("  openssl rand -base64 32")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	if lg != nil {
		lg.Warn("no credential encryption key - please set security.encryption-key in config.yaml")
	}
}

// NewServer loads the configuration and wires logger, database and the
// application container.
func NewServer(runEnv *runFlags) (*Server, error) {
	appConfig, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if len(runEnv.runMode) > 0 {
		appConfig.Server.RunMode = runEnv.runMode
	}

	s := &Server{config: appConfig}

	s.logger, err = logger.NewLogger(&appConfig.Log)
	if err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}
	global.Logger = s.logger

	s.logger.Info("config loaded", zap.String("path", configRealpath))
	checkSecurityConfig(appConfig, s.logger)

	s.db, err = dao.NewDBEngine(&dao.DatabaseConfig{
		Type:            appConfig.Database.Type,
		Path:            appConfig.Database.Path,
		UserName:        appConfig.Database.UserName,
		Password:        appConfig.Database.Password,
		Host:            appConfig.Database.Host,
		Name:            appConfig.Database.Name,
		TablePrefix:     appConfig.Database.TablePrefix,
		AutoMigrate:     appConfig.Database.AutoMigrate,
		Charset:         appConfig.Database.Charset,
		ParseTime:       appConfig.Database.ParseTime,
		MaxIdleConns:    appConfig.Database.MaxIdleConns,
		MaxOpenConns:    appConfig.Database.MaxOpenConns,
		ConnMaxLifetime: appConfig.GetConnMaxLifetime(),
		RunMode:         appConfig.Server.RunMode,
	})
	if err != nil {
		return nil, fmt.Errorf("initDBEngine: %w", err)
	}

	s.app, err = internalApp.NewApp(appConfig, s.logger, s.db)
	if err != nil {
		return nil, fmt.Errorf("initApp: %w", err)
	}

	s.app.Start()
	return s, nil
}

// GetApp returns the application container.
func (s *Server) GetApp() *internalApp.App {
	return s.app
}

// Close shuts the application down within the default timeout.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.app.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown completed with error", zap.Error(err))
	}
}
