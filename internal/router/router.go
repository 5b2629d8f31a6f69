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

// Package router 提供账户桩服务的 HTTP 路由配置
// Package router provides HTTP routing for the stub account service
package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/devpair/devpair/docs"
	"github.com/devpair/devpair/internal/apps/account"
	"github.com/devpair/devpair/internal/config"
	"github.com/devpair/devpair/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server
const shutdownTimeout = 5 * time.Second

// New builds the gin engine serving the account endpoints, /health and
// /metrics. Metrics are registered on reg.
// New 构建提供账户接口、/health 和 /metrics 的 gin 引擎。
func New(svc *account.Service, cfg config.ServerConfig, reg *prometheus.Registry) *gin.Engine {
	// 运行模式
	// Set run mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Frontends run on their own dev ports, so every origin is allowed
	// 前端运行在各自的开发端口上，允许所有来源
	r.Use(cors.Default())

	metrics := NewMetrics(reg)
	r.Use(otelgin.Middleware(cfg.ServiceName), loggerMiddleware(), metrics.Middleware())

	r.GET("/health", health(svc))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	if cfg.Env == "development" {
		// Swagger
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	account.NewHandler(svc).RegisterRoutes(r)

	return r
}

// Serve runs the HTTP server on cfg.Addr until ctx is done, then shuts it
// down gracefully.
// Serve 在 cfg.Addr 上运行 HTTP 服务直到 ctx 结束，然后优雅关闭。
func Serve(ctx context.Context, handler http.Handler, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoF(ctx, "[API] HTTP server starting on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("[API] serve api failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "[API] HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("[API] shutdown: %w", err)
	}
	return nil
}

// health reports liveness and the number of registered users. A store that
// cannot be counted makes the service unavailable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health [get]
func health(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := svc.UserCount(c.Request.Context())
		if err != nil {
			logger.Warn(c.Request.Context(), "[API] health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "users": users})
	}
}

// loggerMiddleware writes one log line per request
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug(c.Request.Context(), "[API] request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
