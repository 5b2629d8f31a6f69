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

// Package supervisor runs a fixed set of child projects side by side and
// stops them together.
// supervisor 包并行运行一组固定的子项目，并统一停止它们。
//
// Run has a single wait point: a select between "every child reached a
// terminal state" and the shared shutdown trigger, which is fed by the input
// source, OS signals and the caller's context.
// Run 只有一个等待点：在“所有子进程结束”和共享关闭触发器之间 select。
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/devpair/devpair/internal/config"
	"github.com/devpair/devpair/internal/logger"
	"github.com/devpair/devpair/internal/manifest"
	"github.com/devpair/devpair/internal/otel_trace"
	"github.com/devpair/devpair/internal/output"
	"github.com/devpair/devpair/internal/process"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Common supervisor errors
// 监管器常见错误
var (
	// ErrAlreadyRunning indicates Run was called twice
	// ErrAlreadyRunning 表示 Run 被调用了两次
	ErrAlreadyRunning = errors.New("supervisor: already running")

	// ErrNoChildren indicates there is nothing to supervise
	// ErrNoChildren 表示没有需要监管的子进程
	ErrNoChildren = errors.New("supervisor: no children configured")
)

// PreconditionError reports a child whose working directory is missing.
// Nothing has been spawned when it is returned.
// PreconditionError 表示子进程的工作目录不存在，此时尚未启动任何进程。
type PreconditionError struct {
	Label string
	Dir   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s project not found: %s is not a directory", e.Label, e.Dir)
}

// Outcome is the aggregate result of a run
// Outcome 是一次运行的汇总结果
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeStopped:
		return "stopped by user"
	default:
		return "unknown"
	}
}

// ChildReport is the final record of one child.
type ChildReport struct {
	Name     string
	State    process.State
	PID      int
	Port     int
	ExitCode int
	Signal   string
	Err      error
	Duration time.Duration
}

// Report summarizes a run.
// Report 汇总一次运行。
type Report struct {
	RunID     string
	Outcome   Outcome
	Reason    string
	Children  []ChildReport
	StartedAt time.Time
	EndedAt   time.Time
}

// ExitCode maps the outcome to a process exit status.
// ExitCode 将结果映射为进程退出码。
func (r *Report) ExitCode() int {
	if r.Outcome == OutcomeFailure {
		return 1
	}
	return 0
}

// Failed lists the labels of children that did not exit cleanly.
func (r *Report) Failed() []string {
	var names []string
	for _, c := range r.Children {
		if c.State == process.StateExited && c.ExitCode == 0 {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithInput sets the line source watched for exit commands. nil disables it.
// WithInput 设置用于监听停止命令的输入源，nil 表示禁用。
func WithInput(r io.Reader) Option {
	return func(s *Supervisor) {
		s.input = r
	}
}

// WithSignals replaces the OS signals that trigger shutdown. No signals
// disables signal handling.
func WithSignals(sigs ...os.Signal) Option {
	return func(s *Supervisor) {
		s.signals = sigs
	}
}

// WithGracePeriod sets the SIGTERM to SIGKILL delay given to every child.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) {
		s.grace = d
	}
}

// WithRouter sets the console router.
func WithRouter(r *output.Router) Option {
	return func(s *Supervisor) {
		s.router = r
	}
}

// Supervisor owns the child handles of one run.
// Supervisor 持有一次运行中的所有子进程句柄。
type Supervisor struct {
	specs    []process.Spec
	router   *output.Router
	input    io.Reader
	signals  []os.Signal
	grace    time.Duration
	shutdown *Shutdown
	running  atomic.Bool
	ports    map[string]int
	handles  []*process.Handle
}

// New creates a Supervisor for specs. By default it reads stdin, listens for
// SIGINT and SIGTERM, and writes to stdout.
// New 为 specs 创建监管器。默认读取标准输入、监听 SIGINT 与 SIGTERM 并写到标准输出。
func New(specs []process.Spec, opts ...Option) *Supervisor {
	s := &Supervisor{
		specs:    specs,
		input:    os.Stdin,
		signals:  []os.Signal{os.Interrupt, syscall.SIGTERM},
		grace:    process.DefaultGracePeriod,
		shutdown: NewShutdown(),
		ports:    make(map[string]int, len(specs)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.router == nil {
		s.router = output.NewRouter(os.Stdout)
	}
	return s
}

// SpecsFromConfig converts configured children into process specs with
// resolved directories and manifest paths.
// SpecsFromConfig 将配置中的子项目转换为进程描述。
func SpecsFromConfig(cfg *config.Config) []process.Spec {
	specs := make([]process.Spec, 0, len(cfg.Children))
	for _, child := range cfg.Children {
		specs = append(specs, process.Spec{
			Name:        child.Name,
			Command:     child.Command,
			Args:        child.Args,
			Dir:         cfg.ChildDir(child),
			Env:         child.Env,
			Color:       child.Color,
			Manifest:    cfg.ManifestPath(child),
			PortScripts: child.PortScripts,
			DefaultPort: child.DefaultPort,
		})
	}
	return specs
}

// Stop triggers shutdown from code. Safe to call at any time, any number of times.
func (s *Supervisor) Stop(reason string) {
	s.shutdown.Trigger(reason)
}

// Run checks preconditions, starts every child, and blocks until they all
// end or a shutdown trigger fires. A *PreconditionError means nothing was
// started. Otherwise the error is nil and the Report carries the outcome.
// Run 检查前置条件、启动所有子进程，并阻塞直到全部结束或触发关闭。
func (s *Supervisor) Run(ctx context.Context) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	if len(s.specs) == 0 {
		return nil, ErrNoChildren
	}

	runID := uuid.NewString()
	ctx, span := otel_trace.Start(ctx, "supervisor.run")
	defer span.End()
	span.SetAttributes(attribute.String("devpair.run_id", runID))

	report := &Report{RunID: runID, StartedAt: time.Now()}
	log := logger.L().WithOptions(zap.Fields(zap.String("run_id", runID))).Ctx(ctx)

	s.router.Notice(output.ColorCyan, "=== RUNNING %d PROJECTS ===", len(s.specs))

	if err := s.checkPreconditions(); err != nil {
		s.router.Errorf("✗ %s", err)
		log.Error("precondition failed", zap.Error(err))
		return nil, err
	}

	s.detectPorts()

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	s.watchSignals(ctx, stopWatch)
	s.watchInput(log)

	exits := make(chan struct{}, len(s.specs))
	for _, spec := range s.specs {
		s.router.Register(spec.Name, spec.Color)
		h := process.NewHandle(spec, s.router,
			process.WithGracePeriod(s.grace),
			process.WithExitHandler(s.exitHandler(log)),
		)
		s.handles = append(s.handles, h)
	}

	for _, h := range s.handles {
		if s.shutdown.Triggered() {
			break
		}
		name := h.Spec().Name
		s.router.LabelNotice(name, "Starting %s...", name)
		if err := h.Start(ctx); err != nil {
			log.Warn("child failed to start", zap.String("child", name), zap.Error(err))
			continue
		}
		log.Info("child started", zap.String("child", name), zap.Int("pid", h.PID()))
	}
	go func() {
		for _, h := range s.handles {
			<-h.Done()
			exits <- struct{}{}
		}
	}()

	s.printBanner()

	stopped := false
	for remaining := len(s.handles); remaining > 0; {
		select {
		case <-exits:
			remaining--
		case <-s.shutdown.Done():
			stopped = true
			s.router.Notice(output.ColorYellow, "Stopping projects...")
			log.Info("shutdown requested", zap.String("reason", s.shutdown.Reason()))
			s.terminateAll(log)
			for ; remaining > 0; remaining-- {
				<-exits
			}
		}
	}

	report.EndedAt = time.Now()
	report.Children = s.childReports()
	switch {
	case stopped:
		report.Outcome = OutcomeStopped
		report.Reason = s.shutdown.Reason()
	case len(report.Failed()) == 0:
		report.Outcome = OutcomeSuccess
	default:
		report.Outcome = OutcomeFailure
	}

	s.printSummary(report)
	span.SetAttributes(attribute.String("devpair.outcome", report.Outcome.String()))
	log.Info("run finished",
		zap.String("outcome", report.Outcome.String()),
		zap.Strings("failed", report.Failed()),
		zap.Duration("elapsed", report.EndedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// checkPreconditions verifies every working directory before anything is spawned
// checkPreconditions 在启动任何进程之前检查所有工作目录
func (s *Supervisor) checkPreconditions() error {
	for _, spec := range s.specs {
		dir := spec.Dir
		if dir == "" {
			dir = "."
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return &PreconditionError{Label: spec.Name, Dir: dir}
		}
	}
	return nil
}

// detectPorts reads each manifest for the informational port
func (s *Supervisor) detectPorts() {
	s.router.Notice(output.ColorCyan, "Checking port configurations...")
	for _, spec := range s.specs {
		port := manifest.DetectPort(spec.Manifest, spec.DefaultPort, spec.PortScripts...)
		s.ports[spec.Name] = port
		if port > 0 {
			s.router.Notice(output.ColorGreen, "%s will run on port %d", spec.Name, port)
		}
	}
}

func (s *Supervisor) printBanner() {
	s.router.Notice(output.ColorGreen, "=== PROJECTS RUNNING ===")
	for _, h := range s.handles {
		name := h.Spec().Name
		if h.State().IsTerminal() {
			continue
		}
		if port := s.ports[name]; port > 0 {
			s.router.LabelNotice(name, "%s: http://localhost:%d", name, port)
		}
	}
	s.router.Notice(output.ColorYellow, "Press Ctrl+C or type 'exit' to stop all projects.")
}

// exitHandler reports one child's end on the console and in the log
func (s *Supervisor) exitHandler(log otelzap.LoggerWithCtx) func(process.Result) {
	return func(res process.Result) {
		name := res.Name
		var spawnErr *process.SpawnError
		switch {
		case errors.As(res.Err, &spawnErr):
			s.router.Errorf("Error starting %s: %v", name, spawnErr.Err)
		case res.State == process.StateTerminated:
			s.router.LabelNotice(name, "%s stopped.", name)
		case res.Success():
			s.router.LabelNotice(name, "%s exited successfully.", name)
		case res.Signal != "":
			s.router.Errorf("%s was killed by signal %s.", name, res.Signal)
		default:
			s.router.Errorf("%s exited with code %d.", name, res.ExitCode)
		}

		fields := []zap.Field{
			zap.String("child", name),
			zap.String("state", res.State.String()),
			zap.Int("exit_code", res.ExitCode),
		}
		if res.Err != nil {
			log.Warn("child ended", append(fields, zap.Error(res.Err))...)
			return
		}
		log.Info("child ended", fields...)
	}
}

// watchSignals feeds OS signals and context cancellation into the shutdown trigger
func (s *Supervisor) watchSignals(ctx context.Context, stop <-chan struct{}) {
	var sigCh chan os.Signal
	if len(s.signals) > 0 {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, s.signals...)
	}

	go func() {
		if sigCh != nil {
			defer signal.Stop(sigCh)
		}
		select {
		case sig := <-sigCh:
			s.shutdown.Trigger("signal " + sig.String())
		case <-ctx.Done():
			s.shutdown.Trigger(ReasonContext)
		case <-stop:
		}
	}()
}

// watchInput feeds exit commands from the input source into the shutdown
// trigger. Lines of any length are read; end of input is not a stop request.
// watchInput 将输入源中的停止命令送入关闭触发器，输入结束不视为停止请求。
func (s *Supervisor) watchInput(log otelzap.LoggerWithCtx) {
	if s.input == nil {
		return
	}
	go func() {
		reader := bufio.NewReader(s.input)
		for {
			line, err := reader.ReadString('\n')
			if IsExitCommand(line) {
				s.shutdown.Trigger(ReasonInput)
				return
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.Warn("stopped reading input", zap.Error(err))
				}
				return
			}
			if s.shutdown.Triggered() {
				return
			}
		}
	}()
}

func (s *Supervisor) terminateAll(log otelzap.LoggerWithCtx) {
	for _, h := range s.handles {
		if err := h.Terminate(); err != nil {
			log.Warn("terminate failed", zap.String("child", h.Spec().Name), zap.Error(err))
		}
	}
}

func (s *Supervisor) childReports() []ChildReport {
	reports := make([]ChildReport, 0, len(s.handles))
	for _, h := range s.handles {
		res := h.Result()
		cr := ChildReport{
			Name:     res.Name,
			State:    res.State,
			PID:      res.PID,
			Port:     s.ports[res.Name],
			ExitCode: res.ExitCode,
			Signal:   res.Signal,
			Err:      res.Err,
		}
		if !res.StartedAt.IsZero() {
			cr.Duration = res.EndedAt.Sub(res.StartedAt)
		}
		reports = append(reports, cr)
	}
	return reports
}

func (s *Supervisor) printSummary(r *Report) {
	switch r.Outcome {
	case OutcomeSuccess:
		s.router.Notice(output.ColorGreen, "All projects exited successfully.")
	case OutcomeStopped:
		s.router.Notice(output.ColorYellow, "Stopped by user (%s).", r.Reason)
	default:
		s.router.Errorf("Projects failed: %s", strings.Join(r.Failed(), ", "))
	}
}
