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

// Package output multiplexes the output of supervised children onto a single
// labeled console.
// output 包将被监管子进程的输出复用到同一个带标签的控制台。
//
// Every line is written with a single Write call while holding the router
// lock, so lines from different children never share characters. No ordering
// is promised across children.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// StreamKind identifies which standard stream a chunk came from.
type StreamKind int

const (
	// Stdout is the child's standard output / 标准输出
	Stdout StreamKind = iota
	// Stderr is the child's standard error / 标准错误
	Stderr
)

// String returns the stream name.
func (k StreamKind) String() string {
	switch k {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Line is one labeled line of child output.
// Line 表示一行带标签的子进程输出。
type Line struct {
	Label  string
	Stream StreamKind
	Text   string
}

// Prefix returns "[label]" for stdout lines and "[label ERROR]" for stderr lines.
func (l Line) Prefix() string {
	if l.Stream == Stderr {
		return "[" + l.Label + " ERROR]"
	}
	return "[" + l.Label + "]"
}

// String formats the line the way it appears on the console, without color.
func (l Line) String() string {
	return l.Prefix() + " " + l.Text
}

// Sink receives raw output chunks from a child process.
// Sink 接收子进程的原始输出块。
type Sink interface {
	Emit(label string, stream StreamKind, raw []byte) int
	Flush(label string)
}

// Named colors understood by Register and Notice.
const (
	ColorRed     = "red"
	ColorGreen   = "green"
	ColorYellow  = "yellow"
	ColorBlue    = "blue"
	ColorMagenta = "magenta"
	ColorCyan    = "cyan"
	ColorWhite   = "white"
)

var ansiColors = map[string]string{
	ColorRed:     "1",
	ColorGreen:   "2",
	ColorYellow:  "3",
	ColorBlue:    "4",
	ColorMagenta: "5",
	ColorCyan:    "6",
	ColorWhite:   "7",
}

// ValidColor reports whether name is a known color. The empty name means
// "no color" and is valid.
func ValidColor(name string) bool {
	if name == "" {
		return true
	}
	_, ok := ansiColors[strings.ToLower(name)]
	return ok
}

type pendingKey struct {
	label  string
	stream StreamKind
}

// Router formats child output and summary notices onto one writer.
// Router 将子进程输出和摘要信息格式化后写入同一个 writer。
type Router struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *lipgloss.Renderer
	styles   map[string]lipgloss.Style
	pending  map[pendingKey][]byte
}

// Option configures a Router.
type Option func(*Router)

// WithoutColor disables color rendering regardless of the writer.
// WithoutColor 无论 writer 类型如何都禁用颜色。
func WithoutColor() Option {
	return func(r *Router) {
		r.renderer.SetColorProfile(termenv.Ascii)
	}
}

// NewRouter creates a Router writing to w. Colors are rendered only when w is
// a terminal, unless WithoutColor is given.
func NewRouter(w io.Writer, opts ...Option) *Router {
	r := &Router{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
		styles:   make(map[string]lipgloss.Style),
		pending:  make(map[pendingKey][]byte),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register assigns a display color to a label. Unknown colors render plain.
// Register 为标签分配显示颜色，未知颜色按无色处理。
func (r *Router) Register(label, color string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles[label] = r.colorStyle(color)
}

// Emit splits raw into lines and writes every non-blank one with its label
// prefix. An incomplete trailing UTF-8 sequence is held until the next call
// for the same label and stream. It returns the number of lines written.
// Emit 将 raw 按行拆分，并为每个非空行加上标签前缀后写出。
func (r *Router) Emit(label string, stream StreamKind, raw []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pendingKey{label: label, stream: stream}
	data := raw
	if held, ok := r.pending[key]; ok {
		data = append(append([]byte(nil), held...), raw...)
		delete(r.pending, key)
	}

	data, tail := splitIncompleteRune(data)
	if len(tail) > 0 {
		r.pending[key] = append([]byte(nil), tail...)
	}

	lines := SplitLines(label, stream, data)
	style := r.labelStyle(label)
	for _, line := range lines {
		r.writeLine(style, line.String())
	}
	return len(lines)
}

// Flush writes out any bytes held back for label on either stream.
func (r *Router) Flush(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stream := range []StreamKind{Stdout, Stderr} {
		key := pendingKey{label: label, stream: stream}
		held, ok := r.pending[key]
		if !ok {
			continue
		}
		delete(r.pending, key)
		style := r.labelStyle(label)
		for _, line := range SplitLines(label, stream, held) {
			r.writeLine(style, line.String())
		}
	}
}

// Notice writes a summary line in the given color.
// Notice 以指定颜色写出一行摘要信息。
func (r *Router) Notice(color, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLine(r.colorStyle(color), fmt.Sprintf(format, args...))
}

// Errorf writes an error summary line in red.
func (r *Router) Errorf(format string, args ...any) {
	r.Notice(ColorRed, format, args...)
}

// LabelNotice writes a summary line in the color registered for label.
func (r *Router) LabelNotice(label, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLine(r.labelStyle(label), fmt.Sprintf(format, args...))
}

func (r *Router) labelStyle(label string) lipgloss.Style {
	if style, ok := r.styles[label]; ok {
		return style
	}
	return r.colorStyle("")
}

func (r *Router) colorStyle(color string) lipgloss.Style {
	style := r.renderer.NewStyle().TabWidth(lipgloss.NoTabConversion)
	if code, ok := ansiColors[strings.ToLower(color)]; ok {
		style = style.Foreground(lipgloss.Color(code))
	}
	return style
}

// writeLine must be called with r.mu held.
func (r *Router) writeLine(style lipgloss.Style, text string) {
	_, _ = io.WriteString(r.w, style.Render(text)+"\n")
}

// SplitLines splits raw on newlines, strips a trailing carriage return and
// drops blank fragments.
// SplitLines 按换行拆分 raw，去掉行尾回车并丢弃空白片段。
func SplitLines(label string, stream StreamKind, raw []byte) []Line {
	if len(raw) == 0 {
		return nil
	}
	var lines []Line
	for _, segment := range strings.Split(string(raw), "\n") {
		segment = strings.TrimSuffix(segment, "\r")
		if strings.TrimSpace(segment) == "" {
			continue
		}
		lines = append(lines, Line{Label: label, Stream: stream, Text: segment})
	}
	return lines
}

// splitIncompleteRune separates a trailing, not yet complete UTF-8 sequence.
func splitIncompleteRune(p []byte) (complete, tail []byte) {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if !utf8.FullRune(p[i:]) {
			return p[:i], p[i:]
		}
		break
	}
	return p, nil
}
