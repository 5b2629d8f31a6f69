/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package db opens GORM connections for the account store.
// db 包为账户存储打开 GORM 数据库连接。
package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devpair/devpair/internal/config"
	"github.com/devpair/devpair/internal/logger"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// DatabaseType 数据库类型常量
const (
	DatabaseTypeSQLite   = "sqlite"
	DatabaseTypeMySQL    = "mysql"
	DatabaseTypePostgres = "postgres"
)

// ErrUnsupportedType indicates an unknown database type
// ErrUnsupportedType 表示不支持的数据库类型
var ErrUnsupportedType = errors.New("db: unsupported database type")

// Open connects to the database described by cfg.
// Open 根据配置连接数据库，支持 SQLite、MySQL、PostgreSQL，默认使用 SQLite。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	ctx := context.Background()

	dbType := cfg.Type
	if dbType == "" {
		dbType = DatabaseTypeSQLite
	}

	var (
		dialector gorm.Dialector
		err       error
	)
	switch dbType {
	case DatabaseTypeSQLite:
		dialector, err = sqliteDialector(cfg.SQLitePath)
	case DatabaseTypeMySQL:
		dialector = mysqlDialector(cfg)
	case DatabaseTypePostgres:
		dialector = postgresDialector(cfg)
	default:
		return nil, fmt.Errorf("%w: %s (supported: sqlite, mysql, postgres)", ErrUnsupportedType, dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("[Database] init %s driver: %w", dbType, err)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("[Database] connect %s: %w", dbType, err)
	}

	// 注入 OpenTelemetry 追踪
	if err := gdb.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		logger.Warn(ctx, "[Database] tracing plugin not installed", zap.Error(err))
	}

	// 配置连接池（仅对 MySQL 和 PostgreSQL 有效）
	if dbType != DatabaseTypeSQLite {
		if err := configurePool(gdb, cfg); err != nil {
			return nil, fmt.Errorf("[Database] configure pool: %w", err)
		}
	}

	logger.InfoF(ctx, "[Database] connected to %s", dbType)
	return gdb, nil
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqliteDialector 初始化 SQLite 驱动，并确保目录存在
func sqliteDialector(path string) (gorm.Dialector, error) {
	if path == "" {
		path = config.DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	return sqlite.Open(path), nil
}

// mysqlDialector 初始化 MySQL 驱动
func mysqlDialector(cfg config.DatabaseConfig) gorm.Dialector {
	return mysql.Open(MySQLDSN(cfg))
}

// postgresDialector 初始化 PostgreSQL 驱动
func postgresDialector(cfg config.DatabaseConfig) gorm.Dialector {
	return postgres.Open(PostgresDSN(cfg))
}

// MySQLDSN builds the MySQL data source name.
func MySQLDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

// PostgresDSN builds the PostgreSQL data source name.
func PostgresDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database,
	)
}

// configurePool 配置数据库连接池
func configurePool(gdb *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	return nil
}

// gormLogger 根据配置获取 GORM 日志记录器
func gormLogger(level string) gormlogger.Interface {
	var lvl gormlogger.LogLevel
	switch level {
	case "silent":
		lvl = gormlogger.Silent
	case "error":
		lvl = gormlogger.Error
	case "warn":
		lvl = gormlogger.Warn
	default:
		lvl = gormlogger.Info
	}
	return gormlogger.Default.LogMode(lvl)
}
