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

package config

import "time"

// Config represents the devpair configuration
// Config 表示 devpair 配置
type Config struct {
	// Workspace is the directory child dirs are resolved against
	// Workspace 是子进程目录的解析基准目录
	Workspace string `mapstructure:"workspace" yaml:"workspace"`

	// Children are the projects to supervise, in start order
	// Children 是需要监管的项目，按启动顺序排列
	Children []ChildConfig `mapstructure:"children" yaml:"children"`

	// Shutdown configuration / 关闭配置
	Shutdown ShutdownConfig `mapstructure:"shutdown" yaml:"shutdown"`

	// Log configuration / 日志配置
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Server configuration of the stub account service / 账户桩服务配置
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Store selects the account store backend / 账户存储后端
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Database configuration / 数据库配置
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Redis configuration / Redis 配置
	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`

	// Telemetry configuration / 遥测配置
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Advisor configuration / 冲突顾问配置
	Advisor AdvisorConfig `mapstructure:"advisor" yaml:"advisor"`
}

// ChildConfig describes one supervised project
// ChildConfig 描述一个被监管的项目
type ChildConfig struct {
	// Name is the display label / Name 是显示标签
	Name string `mapstructure:"name" yaml:"name"`

	// Dir is the working directory, relative to Workspace unless absolute
	// Dir 是工作目录，除非是绝对路径，否则相对于 Workspace
	Dir string `mapstructure:"dir" yaml:"dir"`

	// Command and Args launch the child without a shell
	// Command 和 Args 不经过 shell 直接启动子进程
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args"`

	// Env holds extra KEY=VALUE environment entries / Env 是额外的 KEY=VALUE 环境变量
	Env []string `mapstructure:"env" yaml:"env,omitempty"`

	// Color of the output label / 输出标签颜色
	Color string `mapstructure:"color" yaml:"color"`

	// Manifest is the package.json path, defaults to <dir>/package.json
	// Manifest 是 package.json 路径，默认 <dir>/package.json
	Manifest string `mapstructure:"manifest" yaml:"manifest,omitempty"`

	// PortScripts are the npm scripts searched for "--port N", first non-empty wins
	// PortScripts 是用于查找 "--port N" 的 npm 脚本，取第一个非空脚本
	PortScripts []string `mapstructure:"port_scripts" yaml:"port_scripts"`

	// DefaultPort is shown when no port can be read / 无法读取端口时显示的默认端口
	DefaultPort int `mapstructure:"default_port" yaml:"default_port"`

	// ComponentsDir and RecursiveComponents feed the conflict advisor
	// ComponentsDir 和 RecursiveComponents 用于冲突顾问
	ComponentsDir       string `mapstructure:"components_dir" yaml:"components_dir"`
	RecursiveComponents bool   `mapstructure:"recursive_components" yaml:"recursive_components"`
}

// ShutdownConfig contains shutdown settings
// ShutdownConfig 包含关闭设置
type ShutdownConfig struct {
	// GracePeriod is the wait between SIGTERM and SIGKILL
	// GracePeriod 是 SIGTERM 与 SIGKILL 之间的等待时间
	GracePeriod time.Duration `mapstructure:"grace_period" yaml:"grace_period"`
}

// LogConfig contains logging settings
// LogConfig 包含日志设置
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string `mapstructure:"level" yaml:"level"`

	// File is the log file path, empty disables file logging
	// File 是日志文件路径，为空时不写文件
	File string `mapstructure:"file" yaml:"file"`

	MaxSize    int  `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// ServerConfig configures `devpair serve`
type ServerConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	Env         string `mapstructure:"env" yaml:"env"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// StoreConfig selects the account store
// StoreConfig 选择账户存储
type StoreConfig struct {
	Type           string `mapstructure:"type" yaml:"type"` // memory, database, redis
	InitialBalance int64  `mapstructure:"initial_balance" yaml:"initial_balance"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type            string `mapstructure:"type" yaml:"type"`               // sqlite, mysql, postgres
	SQLitePath      string `mapstructure:"sqlite_path" yaml:"sqlite_path"` // SQLite 文件路径
	Host            string `mapstructure:"host" yaml:"host"`
	Port            int    `mapstructure:"port" yaml:"port"`
	Username        string `mapstructure:"username" yaml:"username"`
	Password        string `mapstructure:"password" yaml:"password"`
	Database        string `mapstructure:"database" yaml:"database"`
	MaxIdleConn     int    `mapstructure:"max_idle_conn" yaml:"max_idle_conn"`
	MaxOpenConn     int    `mapstructure:"max_open_conn" yaml:"max_open_conn"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level" yaml:"log_level"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Username     string `mapstructure:"username" yaml:"username"`
	Password     string `mapstructure:"password" yaml:"password"`
	DB           int    `mapstructure:"db" yaml:"db"`
	PoolSize     int    `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConn  int    `mapstructure:"min_idle_conn" yaml:"min_idle_conn"`
	DialTimeout  int    `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout" yaml:"write_timeout"`
	KeyPrefix    string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure    bool   `mapstructure:"insecure" yaml:"insecure"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// AdvisorConfig 冲突顾问配置
type AdvisorConfig struct {
	// Format is the default report format (text, yaml, json)
	// Format 是默认报告格式
	Format string `mapstructure:"format" yaml:"format"`
}
