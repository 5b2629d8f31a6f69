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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Children, 2)
	chatbot, teacher := cfg.Children[0], cfg.Children[1]

	assert.Equal(t, "Educational Chatbot", chatbot.Name)
	assert.Equal(t, "npm", chatbot.Command)
	assert.Equal(t, []string{"start"}, chatbot.Args)
	assert.Equal(t, "blue", chatbot.Color)
	assert.Equal(t, 3000, chatbot.DefaultPort)
	assert.Equal(t, []string{"start"}, chatbot.PortScripts)

	assert.Equal(t, "My Smart Teacher", teacher.Name)
	assert.Equal(t, []string{"run", "dev"}, teacher.Args)
	assert.Equal(t, "magenta", teacher.Color)
	assert.Equal(t, 5173, teacher.DefaultPort)
	assert.Equal(t, []string{"dev", "start"}, teacher.PortScripts)
	assert.True(t, teacher.RecursiveComponents)

	assert.Equal(t, DefaultGracePeriod, cfg.Shutdown.GracePeriod)
	assert.Equal(t, StoreMemory, cfg.Store.Type)
	assert.Equal(t, int64(DefaultInitialBalance), cfg.Store.InitialBalance)
}

func TestLoadFromYAML(t *testing.T) {
	cfg, err := LoadFromYAML([]byte(`
workspace: /srv/apps
children:
  - name: api
    dir: backend
    command: go
    args: [run, .]
    color: green
    default_port: 8080
    env:
      - PORT=8080
shutdown:
  grace_period: 3s
log:
  level: debug
store:
  type: redis
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Children, 1)
	child := cfg.Children[0]
	assert.Equal(t, "api", child.Name)
	assert.Equal(t, []string{"run", "."}, child.Args)
	assert.Equal(t, []string{"PORT=8080"}, child.Env)
	assert.Equal(t, 3*time.Second, cfg.Shutdown.GracePeriod)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, StoreRedis, cfg.Store.Type)
	// untouched sections keep their defaults
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)

	assert.Equal(t, "/srv/apps/backend", cfg.ChildDir(child))
	assert.Equal(t, "/srv/apps/backend/package.json", cfg.ManifestPath(child))
	assert.Equal(t, "", cfg.ComponentsPath(child))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Children, 2)
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devpair.yaml")
	require.NoError(t, os.WriteFile(path, []byte("children: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnvPathAndOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devpair.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workspace: /opt/work\n"), 0o644))

	t.Setenv(ConfigPathEnv, path)
	t.Setenv("DEVPAIR_LOG_LEVEL", "warn")
	t.Setenv("DEVPAIR_SHUTDOWN_GRACE_PERIOD", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/work", cfg.Workspace)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Shutdown.GracePeriod)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"no children", func(c *Config) { c.Children = nil }, ErrNoChildren},
		{"duplicate", func(c *Config) { c.Children[1].Name = c.Children[0].Name }, ErrDuplicateChild},
		{"blank name", func(c *Config) { c.Children[0].Name = "  " }, ErrInvalidChild},
		{"no command", func(c *Config) { c.Children[0].Command = "" }, ErrInvalidChild},
		{"no dir", func(c *Config) { c.Children[0].Dir = "" }, ErrInvalidChild},
		{"bad color", func(c *Config) { c.Children[0].Color = "ultraviolet" }, ErrInvalidChild},
		{"bad env", func(c *Config) { c.Children[0].Env = []string{"NOVALUE"} }, ErrInvalidChild},
		{"bad port", func(c *Config) { c.Children[0].DefaultPort = 70000 }, ErrInvalidChild},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}

	cfg := Default()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.Type = "etcd"
	assert.Error(t, cfg.Validate())
}

func TestToYAMLReloads(t *testing.T) {
	cfg := Default()
	cfg.Shutdown.GracePeriod = 1500 * time.Millisecond

	data, err := cfg.ToYAML()
	require.NoError(t, err)

	reloaded, err := LoadFromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Shutdown.GracePeriod, reloaded.Shutdown.GracePeriod)
	assert.Equal(t, cfg.Children[1].Args, reloaded.Children[1].Args)
}

// Property: child names must be unique; Validate accepts any set of distinct
// non-blank names and rejects the set as soon as one name repeats.
// 属性：子进程名称必须唯一。
func TestProperty_ChildNamesUnique(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,12}`), 1, 5, rapid.ID[string]).Draw(rt, "names")
		duplicate := rapid.Bool().Draw(rt, "duplicate")

		cfg := Default()
		cfg.Children = nil
		for _, name := range names {
			cfg.Children = append(cfg.Children, ChildConfig{Name: name, Dir: ".", Command: "true"})
		}
		if duplicate {
			cfg.Children = append(cfg.Children, ChildConfig{Name: names[0], Dir: ".", Command: "true"})
		}

		err := cfg.Validate()
		if duplicate && err == nil {
			rt.Fatalf("duplicate name %q accepted", names[0])
		}
		if !duplicate && err != nil {
			rt.Fatalf("distinct names rejected: %v", err)
		}
	})
}
