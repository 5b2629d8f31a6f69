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

// Package manifest reads the parts of a project's package.json that the
// supervisor and the advisor care about.
// manifest 包读取 package.json 中监管器和顾问关心的部分。
package manifest

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"
)

// Common manifest errors
// 清单常见错误
var (
	// ErrNotFound indicates the manifest file does not exist
	// ErrNotFound 表示清单文件不存在
	ErrNotFound = errors.New("manifest: file not found")

	// ErrInvalid indicates the manifest is not valid JSON
	// ErrInvalid 表示清单不是合法的 JSON
	ErrInvalid = errors.New("manifest: invalid JSON")
)

// FileName is the conventional manifest name inside a project directory.
const FileName = "package.json"

// Section names a dependency block of the manifest.
type Section string

const (
	Dependencies    Section = "dependencies"
	DevDependencies Section = "devDependencies"
)

// Sections lists the dependency blocks in display order.
var Sections = []Section{Dependencies, DevDependencies}

// portPattern matches "--port 5173" style flags in npm scripts
var portPattern = regexp.MustCompile(`--port\s+(\d+)`)

// Manifest is a parsed package.json.
// Manifest 是解析后的 package.json。
type Manifest struct {
	Path    string
	Name    string
	Version string
	Scripts map[string]string
	deps    map[Section]map[string]string
}

// Load reads and parses the manifest at path.
// Load 读取并解析 path 处的清单。
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse parses manifest bytes. Unknown fields are ignored.
func Parse(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalid
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, ErrInvalid
	}

	m := &Manifest{
		Name:    root.Get("name").String(),
		Version: root.Get("version").String(),
		Scripts: stringMap(root.Get("scripts")),
		deps:    make(map[Section]map[string]string, len(Sections)),
	}
	for _, s := range Sections {
		m.deps[s] = stringMap(root.Get(string(s)))
	}
	return m, nil
}

// Deps returns the name to version map of one section. Never nil.
func (m *Manifest) Deps(section Section) map[string]string {
	if d, ok := m.deps[section]; ok {
		return d
	}
	return map[string]string{}
}

// Script returns the named npm script, or "" when absent.
func (m *Manifest) Script(name string) string {
	return m.Scripts[name]
}

// ScriptOr returns the first non-empty script among names.
// ScriptOr 返回 names 中第一个非空的脚本。
func (m *Manifest) ScriptOr(names ...string) string {
	for _, name := range names {
		if s := m.Scripts[name]; s != "" {
			return s
		}
	}
	return ""
}

// Port reads the port of the first non-empty script among names, falling back to def.
func (m *Manifest) Port(def int, names ...string) int {
	return PortFromScript(m.ScriptOr(names...), def)
}

// PortFromScript extracts the value of the first "--port N" flag in script.
// Anything that does not parse into a valid TCP port yields def.
// PortFromScript 提取脚本中第一个 "--port N" 的值，无法解析为合法端口时返回 def。
func PortFromScript(script string, def int) int {
	match := portPattern.FindStringSubmatch(script)
	if match == nil {
		return def
	}
	port, err := strconv.Atoi(match[1])
	if err != nil || port < 1 || port > 65535 {
		return def
	}
	return port
}

// DetectPort loads the manifest at path and reads the port from the first
// non-empty script among names. Any problem degrades to def.
// DetectPort 读取 path 处的清单并解析端口，任何问题都回退到 def。
func DetectPort(path string, def int, names ...string) int {
	if path == "" {
		return def
	}
	m, err := Load(path)
	if err != nil {
		return def
	}
	return m.Port(def, names...)
}

func stringMap(r gjson.Result) map[string]string {
	out := make(map[string]string)
	if !r.IsObject() {
		return out
	}
	r.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.String()
		return true
	})
	return out
}
