/*
 * MIT License
 *
 * Copyright (c) 2025 linux.do
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package otel_trace wires OpenTelemetry tracing for devpair.
// otel_trace 包为 devpair 接入 OpenTelemetry 追踪。
package otel_trace

import (
	"context"
	"fmt"
	"sync"

	"github.com/devpair/devpair/internal/config"
	"github.com/devpair/devpair/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/devpair/devpair"

var (
	mu            sync.Mutex
	Tracer        trace.Tracer = noop.NewTracerProvider().Tracer("noop")
	shutdownFuncs []func(context.Context) error
	enabled       bool
)

// Init initializes OpenTelemetry tracing from cfg. A disabled config, or a
// provider that fails to build, leaves the noop tracer in place.
// Init 根据配置初始化 OpenTelemetry 追踪。禁用或初始化失败时使用空操作追踪器。
func Init(ctx context.Context, cfg config.TelemetryConfig) {
	mu.Lock()
	defer mu.Unlock()

	if !cfg.Enabled {
		logger.Debug(ctx, "[Trace] OpenTelemetry tracing is disabled")
		Tracer = noop.NewTracerProvider().Tracer("noop")
		enabled = false
		return
	}

	otel.SetTextMapPropagator(newPropagator())

	tracerProvider, err := newTracerProvider(ctx, cfg)
	if err != nil {
		logger.Warn(ctx, "[Trace] failed to init trace provider, using noop tracer", zap.Error(err))
		Tracer = noop.NewTracerProvider().Tracer("noop")
		enabled = false
		return
	}

	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	Tracer = tracerProvider.Tracer(instrumentationName)
	enabled = true
	logger.Info(ctx, "[Trace] OpenTelemetry tracing initialized", zap.String("endpoint", cfg.Endpoint))
}

// IsEnabled returns whether tracing is enabled.
// IsEnabled 返回追踪是否已启用。
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Shutdown flushes and stops every provider created by Init.
func Shutdown(ctx context.Context) {
	mu.Lock()
	fns := shutdownFuncs
	shutdownFuncs = nil
	enabled = false
	Tracer = noop.NewTracerProvider().Tracer("noop")
	mu.Unlock()

	for _, fn := range fns {
		_ = fn(ctx)
	}
}

// Start opens a span on the current tracer.
func Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	mu.Lock()
	tracer := Tracer
	mu.Unlock()
	return tracer.Start(ctx, name, opts...)
}

func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

func newTracerProvider(ctx context.Context, cfg config.TelemetryConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = config.DefaultServiceName
	}
	res := resource.NewWithAttributes("", attribute.String("service.name", serviceName))

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
