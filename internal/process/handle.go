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

// Package process provides the lifecycle handle for one supervised child process.
// process 包提供单个被监管子进程的生命周期句柄。
//
// This package provides:
// 此包提供：
// - Start with working directory and inherited environment / 使用工作目录和继承的环境变量启动
// - Output forwarding to an output.Sink / 将输出转发到 output.Sink
// - Exactly-once exit observation / 恰好一次的退出观测
// - Idempotent graceful termination with SIGKILL escalation / 幂等的优雅终止（超时后升级为 SIGKILL）
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/devpair/devpair/internal/logger"
	"github.com/devpair/devpair/internal/output"
	"go.uber.org/zap"
)

// Common errors for process handles
// 进程句柄的常见错误
var (
	// ErrAlreadyStarted indicates Start was called on a handle that already left Pending
	// ErrAlreadyStarted 表示句柄已经启动过
	ErrAlreadyStarted = errors.New("process: handle already started")

	// ErrAlreadyTerminal indicates the handle already reached a terminal state
	// ErrAlreadyTerminal 表示句柄已处于终止状态
	ErrAlreadyTerminal = errors.New("process: handle already in a terminal state")

	// ErrTerminateFailed indicates the termination signal could not be delivered
	// ErrTerminateFailed 表示终止信号无法送达
	ErrTerminateFailed = errors.New("process: failed to deliver termination signal")
)

// DefaultGracePeriod is how long Terminate waits before escalating to SIGKILL
// DefaultGracePeriod 是 Terminate 升级为 SIGKILL 之前的等待时间
const DefaultGracePeriod = 10 * time.Second

// SpawnError reports that a child could not be launched at all.
// SpawnError 表示子进程无法启动。
type SpawnError struct {
	Label string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: spawn failed: %v", e.Label, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError reports an abnormal exit: a non-zero exit code or death by signal.
// ExitError 表示异常退出：非零退出码或被信号终止。
type ExitError struct {
	Label  string
	Code   int
	Signal string
}

func (e *ExitError) Error() string {
	if e.Signal != "" {
		return fmt.Sprintf("%s: terminated by signal %s", e.Label, e.Signal)
	}
	return fmt.Sprintf("%s: exited with code %d", e.Label, e.Code)
}

// State is the lifecycle state of a Handle
// State 是句柄的生命周期状态
type State int

const (
	// StatePending: created, not started / 已创建，未启动
	StatePending State = iota
	// StateRunning: the OS process is alive / 进程正在运行
	StateRunning
	// StateExited: the process exited on its own with a code / 进程自行退出并带有退出码
	StateExited
	// StateFailed: spawn failed or the process died abnormally / 启动失败或进程异常终止
	StateFailed
	// StateTerminated: the process ended after Terminate was requested / 请求终止后进程结束
	StateTerminated
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateFailed:
		return "failed"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateExited || s == StateFailed || s == StateTerminated
}

// Spec is the immutable description of one child.
// Spec 是单个子进程的不可变描述。
type Spec struct {
	// Name is the display label / Name 是显示标签
	Name string `json:"name"`

	// Command is the executable, resolved through PATH / Command 是可执行文件，通过 PATH 解析
	Command string `json:"command"`

	// Args are the command arguments / Args 是命令参数
	Args []string `json:"args,omitempty"`

	// Dir is the working directory / Dir 是工作目录
	Dir string `json:"dir"`

	// Env holds extra KEY=VALUE entries on top of the inherited environment
	// Env 是在继承环境之上额外设置的 KEY=VALUE 变量
	Env []string `json:"env,omitempty"`

	// Color is the display color of the label / Color 是标签的显示颜色
	Color string `json:"color,omitempty"`

	// Manifest, PortScripts and DefaultPort are used for informational port display only
	// Manifest、PortScripts 和 DefaultPort 仅用于展示端口信息
	Manifest    string   `json:"manifest,omitempty"`
	PortScripts []string `json:"port_scripts,omitempty"`
	DefaultPort int      `json:"default_port,omitempty"`
}

// Result is the terminal observation of a Handle.
// Result 是句柄的终止观测结果。
type Result struct {
	Name      string
	State     State
	PID       int
	ExitCode  int
	Signal    string
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// Success reports whether the child exited on its own with code 0.
func (r Result) Success() bool {
	return r.State == StateExited && r.ExitCode == 0
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithGracePeriod sets the delay between SIGTERM and SIGKILL. Zero disables escalation.
// WithGracePeriod 设置 SIGTERM 与 SIGKILL 之间的等待时间，0 表示不升级。
func WithGracePeriod(d time.Duration) HandleOption {
	return func(h *Handle) {
		h.grace = d
	}
}

// WithExitHandler registers the callback invoked exactly once with the terminal Result.
// WithExitHandler 注册在终止时恰好调用一次的回调。
func WithExitHandler(fn func(Result)) HandleOption {
	return func(h *Handle) {
		h.onExit = fn
	}
}

// Handle tracks one child process from spawn to exit.
// Handle 跟踪单个子进程从启动到退出的全过程。
type Handle struct {
	spec   Spec
	sink   output.Sink
	grace  time.Duration
	onExit func(Result)

	// mu protects the fields below / mu 保护以下字段
	mu                 sync.Mutex
	state              State
	cmd                *exec.Cmd
	result             Result
	terminateRequested bool

	done     chan struct{}
	exitOnce sync.Once
}

// NewHandle creates a Pending handle for spec whose output goes to sink.
// NewHandle 创建一个处于 Pending 状态的句柄，输出写入 sink。
func NewHandle(spec Spec, sink output.Sink, opts ...HandleOption) *Handle {
	h := &Handle{
		spec:  spec,
		sink:  sink,
		grace: DefaultGracePeriod,
		state: StatePending,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Spec returns the child description.
func (h *Handle) Spec() Spec { return h.spec }

// Done is closed once the handle reaches a terminal state and the exit
// handler has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// PID returns the OS process id, or 0 if the process never started.
func (h *Handle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result.PID
}

// TerminationRequested reports whether Terminate has been called on a live handle.
func (h *Handle) TerminationRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.terminateRequested
}

// Result returns the terminal result. Before the handle is terminal it
// returns the partial record with the current state.
func (h *Handle) Result() Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	res := h.result
	res.State = h.state
	return res
}

// Start launches the child. A launch failure moves the handle to Failed,
// fires the exit handler and returns a *SpawnError.
//
// ctx only gates the launch: a done ctx returns its error and leaves the
// handle Pending. Cancelling ctx later does not stop the child; the owner
// calls Terminate for that.
// Start 启动子进程。ctx 只控制是否启动，启动后取消 ctx 不会停止子进程，需调用 Terminate。
func (h *Handle) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	if h.state != StatePending {
		state := h.state
		h.mu.Unlock()
		if state.IsTerminal() {
			return ErrAlreadyTerminal
		}
		return ErrAlreadyStarted
	}

	cmd := h.buildCommand()
	if err := cmd.Start(); err != nil {
		spawnErr := &SpawnError{Label: h.spec.Name, Err: err}
		h.state = StateFailed
		h.result = Result{
			Name:     h.spec.Name,
			State:    StateFailed,
			ExitCode: -1,
			Err:      spawnErr,
			EndedAt:  time.Now(),
		}
		h.mu.Unlock()
		h.finish()
		return spawnErr
	}

	h.cmd = cmd
	h.state = StateRunning
	h.result = Result{
		Name:      h.spec.Name,
		State:     StateRunning,
		PID:       cmd.Process.Pid,
		ExitCode:  -1,
		StartedAt: time.Now(),
	}
	h.mu.Unlock()

	go h.wait(cmd)
	return nil
}

// Terminate asks the child to stop: SIGTERM first, SIGKILL after the grace
// period. Calling it more than once, or on a terminal handle, is a no-op.
// Terminate 请求子进程停止：先发送 SIGTERM，超时后发送 SIGKILL。重复调用或对已终止句柄调用无副作用。
func (h *Handle) Terminate() error {
	h.mu.Lock()
	switch h.state {
	case StatePending:
		h.terminateRequested = true
		h.state = StateTerminated
		h.result = Result{
			Name:     h.spec.Name,
			State:    StateTerminated,
			ExitCode: -1,
			EndedAt:  time.Now(),
		}
		h.mu.Unlock()
		h.finish()
		return nil

	case StateRunning:
		if h.terminateRequested {
			h.mu.Unlock()
			return nil
		}
		h.terminateRequested = true
		cmd := h.cmd
		h.mu.Unlock()

		if err := terminateProcess(cmd); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrTerminateFailed, h.spec.Name, err)
		}
		if h.grace > 0 {
			go h.escalate(cmd)
		}
		return nil

	default:
		h.mu.Unlock()
		return nil
	}
}

// buildCommand must be called with h.mu held.
func (h *Handle) buildCommand() *exec.Cmd {
	cmd := exec.Command(h.spec.Command, h.spec.Args...)
	cmd.Dir = h.spec.Dir
	cmd.Env = append(os.Environ(), h.spec.Env...)
	cmd.Stdout = &streamWriter{handle: h, stream: output.Stdout}
	cmd.Stderr = &streamWriter{handle: h, stream: output.Stderr}
	// Bound how long Wait keeps draining pipes held open by grandchildren
	// 限制 Wait 等待孙进程持有的管道关闭的时间
	if h.grace > 0 {
		cmd.WaitDelay = h.grace
	}
	setProcGroupAttr(cmd)
	return cmd
}

// wait observes the exit of cmd and records the terminal state
// wait 观测 cmd 的退出并记录终止状态
func (h *Handle) wait(cmd *exec.Cmd) {
	waitErr := cmd.Wait()
	if h.sink != nil {
		h.sink.Flush(h.spec.Name)
	}

	h.mu.Lock()
	res := h.result
	res.EndedAt = time.Now()
	ps := cmd.ProcessState

	switch {
	case ps == nil:
		res.State = StateFailed
		res.Err = fmt.Errorf("%s: wait failed: %w", h.spec.Name, waitErr)
	default:
		res.ExitCode = ps.ExitCode()
		res.Signal = exitSignal(ps)
		switch {
		case h.terminateRequested:
			res.State = StateTerminated
		case res.ExitCode == 0:
			res.State = StateExited
		case res.ExitCode > 0:
			res.State = StateExited
			res.Err = &ExitError{Label: h.spec.Name, Code: res.ExitCode}
		default:
			res.State = StateFailed
			res.Err = &ExitError{Label: h.spec.Name, Code: res.ExitCode, Signal: res.Signal}
		}
	}

	h.state = res.State
	h.result = res
	h.mu.Unlock()

	h.finish()
}

// escalate sends SIGKILL to the process group once the grace period is
// over. The leader exiting early is not enough: members of its group that
// ignored SIGTERM still get killed.
// escalate 在宽限期结束后向进程组发送 SIGKILL，组长提前退出时仍会清理组内残留进程。
func (h *Handle) escalate(cmd *exec.Cmd) {
	timer := time.NewTimer(h.grace)
	defer timer.Stop()

	done := h.done
	for {
		select {
		case <-done:
			if !groupAlive(cmd) {
				return
			}
			done = nil
		case <-timer.C:
			if err := killProcess(cmd); err != nil {
				logger.Warn(context.Background(), "[Process] kill after grace period failed",
					zap.String("child", h.spec.Name), zap.Error(err))
			}
			return
		}
	}
}

// finish fires the exit handler and closes done, exactly once
func (h *Handle) finish() {
	h.exitOnce.Do(func() {
		if h.onExit != nil {
			h.onExit(h.Result())
		}
		close(h.done)
	})
}

func (h *Handle) onOutput(stream output.StreamKind, p []byte) {
	if h.sink == nil {
		return
	}
	h.sink.Emit(h.spec.Name, stream, p)
}

// streamWriter forwards every chunk of one stream to the handle
type streamWriter struct {
	handle *Handle
	stream output.StreamKind
}

func (w *streamWriter) Write(p []byte) (int, error) {
	w.handle.onOutput(w.stream, p)
	return len(p), nil
}
