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

// Package main is the entry point of devpair.
// main 包是 devpair 的入口点。
//
// devpair runs the local development servers of the Educational Chatbot and
// My Smart Teacher frontends side by side:
// devpair 并行运行两个前端项目的本地开发服务器：
// - Supervises both npm dev servers with prefixed output / 监管两个 npm 开发服务器并为输出加前缀
// - Reports dependency and component conflicts / 报告依赖和组件冲突
// - Serves the stub account API used by the frontends / 提供前端使用的账户桩接口
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/devpair/devpair/internal/advisor"
	"github.com/devpair/devpair/internal/apps/account"
	"github.com/devpair/devpair/internal/config"
	"github.com/devpair/devpair/internal/logger"
	"github.com/devpair/devpair/internal/otel_trace"
	"github.com/devpair/devpair/internal/router"
	"github.com/devpair/devpair/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// exitError carries a process exit code through cobra without printing
// an extra error line.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// rootCmd runs both projects under supervision
// rootCmd 在监管下运行两个项目
var rootCmd = &cobra.Command{
	Use:   "devpair",
	Short: "devpair - run both frontend dev servers together",
	Long: `devpair starts the Educational Chatbot and My Smart Teacher dev servers,
prefixes their output, and stops both on Ctrl+C or when "exit" is typed.
devpair 启动两个前端开发服务器，为输出加前缀，并在 Ctrl+C 或输入 "exit" 时停止。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSupervisor,
}

// adviseCmd prints the conflict report
// adviseCmd 打印冲突报告
var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Check both projects for dependency, component and port conflicts",
	RunE:  runAdvise,
}

// serveCmd runs the stub account API
// serveCmd 运行账户桩接口
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stub account API (register, login, balance)",
	RunE:  runServe,
}

// versionCmd shows version information
// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

var (
	// configFile is the path to the configuration file
	configFile string
	// adviseFormat overrides advisor.format
	adviseFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: ./devpair.yaml)")
	adviseCmd.Flags().StringVarP(&adviseFormat, "format", "f", "", "report format: text, yaml or json")

	rootCmd.AddCommand(adviseCmd, serveCmd, versionCmd)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "devpair\n")
	fmt.Fprintf(w, "  Version:    %s\n", Version)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Go Version: %s\n", runtime.Version())
	fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// setup loads and validates configuration, then initializes logging and
// tracing. The returned func flushes both.
// setup 加载并校验配置，初始化日志和追踪。
func setup(ctx context.Context) (*config.Config, func(), error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	closeLog, err := logger.Init(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	otel_trace.Init(ctx, cfg.Telemetry)

	cleanup := func() {
		otel_trace.Shutdown(context.Background())
		_ = closeLog()
	}
	return cfg, cleanup, nil
}

// runSupervisor runs both projects until they exit or the user stops them
// runSupervisor 运行两个项目直到退出或被用户停止
func runSupervisor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sup := supervisor.New(supervisor.SpecsFromConfig(cfg),
		supervisor.WithGracePeriod(cfg.Shutdown.GracePeriod))

	report, err := sup.Run(ctx)
	if err != nil {
		var pre *supervisor.PreconditionError
		if errors.As(err, &pre) {
			return &exitError{code: 1}
		}
		return err
	}
	if code := report.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// runAdvise prints the conflict report for the configured projects
// runAdvise 打印已配置项目的冲突报告
func runAdvise(cmd *cobra.Command, args []string) error {
	cfg, cleanup, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := advisor.Analyze(advisor.ProjectsFromConfig(cfg))
	if err != nil {
		return err
	}

	format := adviseFormat
	if format == "" {
		format = cfg.Advisor.Format
	}
	return report.Render(cmd.OutOrStdout(), format)
}

// runServe serves the account API until SIGINT or SIGTERM
// runServe 提供账户接口直到收到 SIGINT 或 SIGTERM
func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	store, closeStore, err := account.NewStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := account.NewService(store, account.WithInitialBalance(cfg.Store.InitialBalance))
	return router.Serve(ctx, router.New(svc, cfg.Server, reg), cfg.Server)
}

// execute runs the CLI and returns the process exit code
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// @title devpair account API
// @version 1.0
// @description Stub account service used by the frontends during local development.
// @BasePath /
func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stderr))
}
