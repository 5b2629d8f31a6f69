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

package supervisor

import (
	"strings"
	"sync"
)

// Shutdown reasons
// 关闭原因
const (
	ReasonInput   = "exit command"
	ReasonContext = "context cancelled"
)

// Shutdown is a one-shot trigger shared by every stop source. The first
// Trigger wins and its reason is kept.
// Shutdown 是所有停止来源共享的一次性触发器，第一次触发生效并保留原因。
type Shutdown struct {
	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	reason string
}

// NewShutdown creates an untriggered Shutdown.
func NewShutdown() *Shutdown {
	return &Shutdown{done: make(chan struct{})}
}

// Trigger fires the shutdown. It reports whether this call was the first.
// Trigger 触发关闭，返回本次调用是否为首次触发。
func (s *Shutdown) Trigger(reason string) bool {
	first := false
	s.once.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.mu.Unlock()
		close(s.done)
		first = true
	})
	return first
}

// Done is closed once Trigger has been called.
func (s *Shutdown) Done() <-chan struct{} { return s.done }

// Triggered reports whether Trigger has been called.
func (s *Shutdown) Triggered() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Reason returns the reason given to the first Trigger, or "".
func (s *Shutdown) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// IsExitCommand reports whether an input line asks devpair to stop.
// IsExitCommand 判断输入行是否为停止命令（exit 或 quit，忽略大小写和首尾空白）。
func IsExitCommand(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	default:
		return false
	}
}
