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

// Package logger holds the process-wide structured logger.
// logger 包持有进程级的结构化日志记录器。
//
// Diagnostics are JSON lines written to a rotating file; the console is left
// to the output router. Calls made with a context that carries a span get the
// trace and span ids attached.
// 诊断日志以 JSON 行写入滚动文件，控制台留给输出路由器。
package logger

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/devpair/devpair/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	current = otelzap.New(zap.NewNop())
)

// Init builds the global logger from cfg. An empty file path keeps logging
// disabled. The returned func flushes buffered entries.
// Init 根据配置构建全局日志记录器。文件路径为空时不记录日志。
func Init(cfg config.LogConfig) (func() error, error) {
	if cfg.File == "" {
		Set(zap.NewNop())
		return func() error { return nil }, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	l, err := New(cfg.Level, rotator)
	if err != nil {
		return nil, err
	}
	Set(l)

	return func() error {
		_ = l.Sync()
		return rotator.Close()
	}, nil
}

// New creates a JSON zap logger writing to w at the given level.
// New 创建一个以 JSON 格式写入 w 的 zap 日志记录器。
func New(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}

// Set replaces the global logger.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = otelzap.New(l, otelzap.WithMinLevel(zapcore.DebugLevel))
}

// L returns the global otelzap logger.
func L() *otelzap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logger: invalid level %q: %w", level, err)
	}
	return l, nil
}

// Debug 记录 debug 级别日志
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	L().Ctx(ctx).Debug(msg, fields...)
}

// Info 记录 info 级别日志
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	L().Ctx(ctx).Info(msg, fields...)
}

// Warn 记录 warn 级别日志
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	L().Ctx(ctx).Warn(msg, fields...)
}

// Error 记录 error 级别日志
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	L().Ctx(ctx).Error(msg, fields...)
}

// InfoF 记录格式化的 info 日志
func InfoF(ctx context.Context, format string, args ...any) {
	L().Sugar().Ctx(ctx).Infof(format, args...)
}

// WarnF 记录格式化的 warn 日志
func WarnF(ctx context.Context, format string, args ...any) {
	L().Sugar().Ctx(ctx).Warnf(format, args...)
}

// ErrorF 记录格式化的 error 日志
func ErrorF(ctx context.Context, format string, args ...any) {
	L().Sugar().Ctx(ctx).Errorf(format, args...)
}
