package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"
	"time"

	"supersonic/config"
	"supersonic/logger"
	"supersonic/repository"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // SQLite driver, registered as "sqlite"
)

// CatalogDSN builds the driver name and DSN of the catalog database.
// SQLite catalogs are opened through a URI so that readOnly maps to mode=ro.
func CatalogDSN(cfg *config.Config, readOnly bool) (string, string, error) {
	switch repository.Dialect(cfg.CatalogDriver) {
	case repository.DialectSQLite:
		path := strings.TrimPrefix(cfg.CatalogDSN, "file:")
		if path == "" {
			return "", "", fmt.Errorf("empty sqlite catalog path")
		}
		mode := "rwc"
		if readOnly {
			mode = "ro"
		}
		return "sqlite", fmt.Sprintf("file:%s?mode=%s&_pragma=busy_timeout(5000)", path, mode), nil
	case repository.DialectMySQL:
		// 显式给出完整 DSN 时直接使用
		if strings.Contains(cfg.CatalogDSN, "@") {
			if _, err := mysql.ParseDSN(cfg.CatalogDSN); err != nil {
				return "", "", fmt.Errorf("invalid mysql catalog dsn: %w", err)
			}
			return "mysql", cfg.CatalogDSN, nil
		}
		mc := mysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		return "mysql", mc.FormatDSN(), nil
	default:
		return "", "", fmt.Errorf("unsupported catalog driver %q", cfg.CatalogDriver)
	}
}

// ConnectCatalog opens the catalog database. The server opens it read-only;
// the connection pool is shared by all workers.
func ConnectCatalog(ctx context.Context, cfg *config.Config, readOnly bool) (*sql.DB, repository.Dialect, error) {
	driver, dsn, err := CatalogDSN(cfg, readOnly)
	if err != nil {
		return nil, "", err
	}

	catalog, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open catalog database: %w", err)
	}

	// 连接池按 worker 数量配置
	catalog.SetMaxOpenConns(cfg.Workers + 2)
	catalog.SetMaxIdleConns(cfg.Workers)
	catalog.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = catalog.PingContext(pingCtx); err != nil {
		catalog.Close()
		return nil, "", fmt.Errorf("failed to ping catalog database: %w", err)
	}

	logger.Info("Catalog database connected",
		logger.String("driver", driver),
		logger.Bool("readOnly", readOnly))
	return catalog, repository.Dialect(driver), nil
}
