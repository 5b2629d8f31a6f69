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

// Package config provides configuration management for devpair.
// config 包提供 devpair 的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Command line arguments / 命令行参数
// 2. Environment variables (DEVPAIR_*) / 环境变量
// 3. Configuration file / 配置文件
// 4. Default values (the two built-in projects) / 默认值（内置的两个项目）
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devpair/devpair/internal/output"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath     = "./devpair.yaml"
	ConfigPathEnv         = "DEVPAIR_CONFIG_PATH"
	EnvPrefix             = "DEVPAIR"
	DefaultGracePeriod    = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFile        = "./logs/devpair.log"
	DefaultLogMaxSize     = 100 // MB
	DefaultLogMaxBackups  = 3
	DefaultLogMaxAge      = 7 // days
	DefaultServerAddr     = ":8080"
	DefaultServiceName    = "devpair"
	DefaultInitialBalance = 100
	DefaultSQLitePath     = "./data/devpair.db"

	StoreMemory   = "memory"
	StoreDatabase = "database"
	StoreRedis    = "redis"
)

// Common configuration errors
// 配置常见错误
var (
	ErrNoChildren     = errors.New("config: at least one child is required")
	ErrDuplicateChild = errors.New("config: duplicate child name")
	ErrInvalidChild   = errors.New("config: invalid child")
)

// defaultChildren reproduces the two projects devpair was built for
// defaultChildren 对应 devpair 最初服务的两个项目
func defaultChildren() []map[string]any {
	return []map[string]any{
		{
			"name":                 "Educational Chatbot",
			"dir":                  "educational-chatbot",
			"command":              "npm",
			"args":                 []string{"start"},
			"color":                output.ColorBlue,
			"port_scripts":         []string{"start"},
			"default_port":         3000,
			"components_dir":       filepath.Join("src", "components"),
			"recursive_components": false,
		},
		{
			"name":                 "My Smart Teacher",
			"dir":                  filepath.Join("my-smart-teacher", "frontend"),
			"command":              "npm",
			"args":                 []string{"run", "dev"},
			"color":                output.ColorMagenta,
			"port_scripts":         []string{"dev", "start"},
			"default_port":         5173,
			"components_dir":       filepath.Join("src", "components"),
			"recursive_components": true,
		},
	}
}

// Load loads configuration from file and environment variables
// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values / 设置默认值
	setDefaults(v)

	// Set config file path / 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		v.SetConfigFile(envPath)
	} else {
		v.SetConfigFile(DefaultConfigPath)
	}

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file / 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// A missing file falls back to defaults
		// 配置文件不存在时使用默认值
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	return decode(v)
}

// LoadFromYAML loads configuration from YAML bytes
// LoadFromYAML 从 YAML 字节加载配置
func LoadFromYAML(data []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return decode(v)
}

// Default returns the built-in configuration.
// Default 返回内置配置。
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("config: built-in defaults do not decode: %v", err))
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("workspace", ".")
	v.SetDefault("children", defaultChildren())

	// Shutdown defaults / 关闭默认值
	v.SetDefault("shutdown.grace_period", DefaultGracePeriod)

	// Log defaults / 日志默认值
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", DefaultLogFile)
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)
	v.SetDefault("log.compress", false)

	// Server defaults / 服务默认值
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.service_name", DefaultServiceName)

	// Store defaults / 存储默认值
	v.SetDefault("store.type", StoreMemory)
	v.SetDefault("store.initial_balance", DefaultInitialBalance)

	// Database defaults / 数据库默认值
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.sqlite_path", DefaultSQLitePath)
	v.SetDefault("database.log_level", "warn")

	// Redis defaults / Redis 默认值
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.key_prefix", "devpair:")

	// Telemetry defaults / 遥测默认值
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.service_name", DefaultServiceName)

	v.SetDefault("advisor.format", "text")
}

// Validate validates the configuration
// Validate 验证配置
func (c *Config) Validate() error {
	if len(c.Children) == 0 {
		return ErrNoChildren
	}

	seen := make(map[string]bool, len(c.Children))
	for i, child := range c.Children {
		if strings.TrimSpace(child.Name) == "" {
			return fmt.Errorf("%w: children[%d].name is required", ErrInvalidChild, i)
		}
		if seen[child.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateChild, child.Name)
		}
		seen[child.Name] = true

		if child.Dir == "" {
			return fmt.Errorf("%w: %s: dir is required", ErrInvalidChild, child.Name)
		}
		if child.Command == "" {
			return fmt.Errorf("%w: %s: command is required", ErrInvalidChild, child.Name)
		}
		if !output.ValidColor(child.Color) {
			return fmt.Errorf("%w: %s: unknown color %q", ErrInvalidChild, child.Name, child.Color)
		}
		for _, kv := range child.Env {
			if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
				return fmt.Errorf("%w: %s: env entry %q is not KEY=VALUE", ErrInvalidChild, child.Name, kv)
			}
		}
		if child.DefaultPort < 0 || child.DefaultPort > 65535 {
			return fmt.Errorf("%w: %s: default_port out of range", ErrInvalidChild, child.Name)
		}
	}

	// Validate log level / 验证日志级别
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	if c.Shutdown.GracePeriod < 0 {
		return errors.New("shutdown.grace_period must not be negative")
	}

	switch c.Store.Type {
	case StoreMemory, StoreDatabase, StoreRedis:
	default:
		return fmt.Errorf("invalid store type: %s (must be memory, database, or redis)", c.Store.Type)
	}

	return nil
}

// ChildDir resolves the working directory of child against the workspace.
// ChildDir 基于工作区解析子进程的工作目录。
func (c *Config) ChildDir(child ChildConfig) string {
	if filepath.IsAbs(child.Dir) {
		return filepath.Clean(child.Dir)
	}
	return filepath.Join(c.Workspace, child.Dir)
}

// ManifestPath returns the package.json path of child.
func (c *Config) ManifestPath(child ChildConfig) string {
	if child.Manifest == "" {
		return filepath.Join(c.ChildDir(child), "package.json")
	}
	if filepath.IsAbs(child.Manifest) {
		return child.Manifest
	}
	return filepath.Join(c.Workspace, child.Manifest)
}

// ComponentsPath returns the component directory of child, or "" if unset.
func (c *Config) ComponentsPath(child ChildConfig) string {
	if child.ComponentsDir == "" {
		return ""
	}
	if filepath.IsAbs(child.ComponentsDir) {
		return child.ComponentsDir
	}
	return filepath.Join(c.ChildDir(child), child.ComponentsDir)
}

// String returns a string representation of the config (for debugging)
// String 返回配置的字符串表示（用于调试）
func (c *Config) String() string {
	names := make([]string, 0, len(c.Children))
	for _, child := range c.Children {
		names = append(names, child.Name)
	}
	return fmt.Sprintf(
		"Config{Workspace: %s, Children: %v, Shutdown.GracePeriod: %v, Log.Level: %s, Store.Type: %s}",
		c.Workspace,
		names,
		c.Shutdown.GracePeriod,
		c.Log.Level,
		c.Store.Type,
	)
}

// ToYAML serializes the configuration to YAML format
// ToYAML 将配置序列化为 YAML 格式
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
