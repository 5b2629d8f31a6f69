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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file whose children live under a temp workspace
// writeConfig 写入一个子项目位于临时工作区的配置文件
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	logFile := filepath.Join(dir, "devpair.log")
	content := "workspace: " + dir + "\nlog:\n  level: debug\n  file: " + logFile + "\n" + body
	path := filepath.Join(dir, "devpair.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mkdirs(t *testing.T, cfgPath string, dirs ...string) {
	t.Helper()
	root := filepath.Dir(cfgPath)
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
}

func resetFlags() {
	configFile = ""
	adviseFormat = ""
}

// TestVersionCommand tests the version command
// TestVersionCommand 测试版本命令
func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)

	var out bytes.Buffer
	printVersion(&out)
	assert.Contains(t, out.String(), "Version:    "+Version)
}

// TestRootCommand tests the root command
// TestRootCommand 测试根命令
func TestRootCommand(t *testing.T) {
	assert.Equal(t, "devpair", rootCmd.Use)

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["advise"])
	assert.True(t, names["serve"])
	assert.True(t, names["version"])
}

func TestExecute_InvalidConfig(t *testing.T) {
	defer resetFlags()
	path := writeConfig(t, "children: []\n")

	var stderr bytes.Buffer
	code := execute(context.Background(), []string{"-c", path}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid config")
}

func TestExecute_MissingProjectDirectory(t *testing.T) {
	defer resetFlags()
	path := writeConfig(t, `children:
  - name: Ghost
    dir: ghost
    command: sh
    args: ["-c", "exit 0"]
`)

	var stderr bytes.Buffer
	code := execute(context.Background(), []string{"-c", path}, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stderr.String())
}

func TestExecute_ExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		script string
		code   int
	}{
		{"all succeed", "exit 0", 0},
		{"one fails", "exit 4", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetFlags()
			path := writeConfig(t, `shutdown:
  grace_period: 1s
children:
  - name: First
    dir: first
    command: sh
    args: ["-c", "exit 0"]
  - name: Second
    dir: second
    command: sh
    args: ["-c", "`+tt.script+`"]
`)
			mkdirs(t, path, "first", "second")

			var stderr bytes.Buffer
			assert.Equal(t, tt.code, execute(context.Background(), []string{"-c", path}, &stderr))
		})
	}
}

func TestExecute_AdviseJSON(t *testing.T) {
	defer resetFlags()
	path := writeConfig(t, `children:
  - name: Left
    dir: left
    command: npm
    args: [start]
    default_port: 3000
  - name: Right
    dir: right
    command: npm
    args: [run, dev]
    default_port: 3000
`)
	mkdirs(t, path, "left", "right")
	root := filepath.Dir(path)
	require.NoError(t, os.WriteFile(filepath.Join(root, "left", "package.json"),
		[]byte(`{"name":"left","dependencies":{"react":"^18.2.0"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "right", "package.json"),
		[]byte(`{"name":"right","dependencies":{"react":"^17.0.2"}}`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	var stderr bytes.Buffer
	code := execute(context.Background(), []string{"advise", "-c", path, "--format", "json"}, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var report struct {
		VersionConflicts []struct {
			Name string `json:"name"`
		} `json:"version_conflicts"`
		PortConflicts []struct {
			Port int `json:"port"`
		} `json:"port_conflicts"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report), out.String())
	require.Len(t, report.VersionConflicts, 1)
	assert.Equal(t, "react", report.VersionConflicts[0].Name)
	require.Len(t, report.PortConflicts, 1)
	assert.Equal(t, 3000, report.PortConflicts[0].Port)
}

func TestExecute_AdviseUnknownFormat(t *testing.T) {
	defer resetFlags()
	path := writeConfig(t, `children:
  - name: Left
    dir: left
    command: npm
  - name: Right
    dir: right
    command: npm
`)
	mkdirs(t, path, "left", "right")

	var stderr bytes.Buffer
	code := execute(context.Background(), []string{"advise", "-c", path, "--format", "xml"}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown report format")
}
