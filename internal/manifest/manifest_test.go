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

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
  "name": "frontend",
  "version": "0.1.0",
  "scripts": {
    "dev": "vite --port 5174",
    "start": "vite preview",
    "build": "vite build"
  },
  "dependencies": {"react": "^18.2.0", "axios": "^1.6.0"},
  "devDependencies": {"vite": "^5.0.0", "eslint.config": "1.0.0"}
}`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(writeManifest(t, sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "frontend", m.Name)
	assert.Equal(t, "0.1.0", m.Version)
	assert.Equal(t, "vite --port 5174", m.Script("dev"))
	assert.Equal(t, "^18.2.0", m.Deps(Dependencies)["react"])
	// dotted keys survive iteration
	assert.Equal(t, "1.0.0", m.Deps(DevDependencies)["eslint.config"])
	assert.Empty(t, m.Deps(Section("peerDependencies")))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Load(writeManifest(t, `{"name": `))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeManifest(t, `["not", "an", "object"]`))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMissingSectionsAreEmpty(t *testing.T) {
	m, err := Parse([]byte(`{"name": "bare"}`))
	require.NoError(t, err)
	assert.Empty(t, m.Scripts)
	assert.NotNil(t, m.Deps(Dependencies))
	assert.Equal(t, 3000, m.Port(3000, "start"))
}

func TestPortFromScript(t *testing.T) {
	tests := []struct {
		script string
		want   int
	}{
		{"vite --port 5174", 5174},
		{"react-scripts start", 3000},
		{"", 3000},
		{"next dev --port   4000 --port 4001", 4000},
		{"vite --port=5175", 3000},
		{"vite --port 99999", 3000},
		{"vite --port 0", 3000},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			assert.Equal(t, tt.want, PortFromScript(tt.script, 3000))
		})
	}
}

func TestScriptOrFallsBack(t *testing.T) {
	m, err := Parse([]byte(`{"scripts": {"start": "node server.js --port 8080"}}`))
	require.NoError(t, err)
	assert.Equal(t, 8080, m.Port(5173, "dev", "start"))
	assert.Equal(t, "", m.ScriptOr("dev", "serve"))
}

func TestDetectPortDegrades(t *testing.T) {
	assert.Equal(t, 5173, DetectPort("", 5173, "dev"))
	assert.Equal(t, 5173, DetectPort(filepath.Join(t.TempDir(), FileName), 5173, "dev"))
	assert.Equal(t, 5173, DetectPort(writeManifest(t, "garbage"), 5173, "dev"))
	assert.Equal(t, 5174, DetectPort(writeManifest(t, sampleManifest), 5173, "dev", "start"))
}

// Property: any valid port written as "--port N" is read back, wherever the
// flag sits in the script.
// 属性：以 "--port N" 形式写入的任意合法端口都能被解析出来。
func TestPortFromScriptProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("explicit port is extracted", prop.ForAll(
		func(port int, before, after string) bool {
			script := fmt.Sprintf("%s --port %d %s", before, port, after)
			return PortFromScript(script, 1) == port
		},
		gen.IntRange(1, 65535),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("scripts without the flag keep the default", prop.ForAll(
		func(script string, def int) bool {
			return PortFromScript(script, def) == def
		},
		gen.AlphaString(),
		gen.IntRange(1, 65535),
	))

	properties.TestingRun(t)
}
