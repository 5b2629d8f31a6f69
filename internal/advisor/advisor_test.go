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

package advisor

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// writeTree creates files (relative path -> content) under root
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func fixtureProjects(t *testing.T, chatbotManifest, teacherManifest string) []Project {
	t.Helper()
	root := t.TempDir()
	chatbot := filepath.Join(root, "educational-chatbot")
	teacher := filepath.Join(root, "my-smart-teacher", "frontend")

	writeTree(t, chatbot, map[string]string{
		"package.json":                  chatbotManifest,
		"src/components/Chat.js":        "",
		"src/components/Header.jsx":     "",
		"src/components/Button.js":      "",
		"src/components/Notes.txt":      "",
		"src/components/nested/Foot.js": "",
	})
	writeTree(t, teacher, map[string]string{
		"package.json":                      teacherManifest,
		"src/components/Header.tsx":         "",
		"src/components/ui/Button.tsx":      "",
		"src/components/deep/er/Footer.jsx": "",
		"src/components/Foot.ts":            "",
	})

	return []Project{
		{
			Name:          "Educational Chatbot",
			Dir:           chatbot,
			Manifest:      filepath.Join(chatbot, "package.json"),
			ComponentsDir: filepath.Join(chatbot, "src", "components"),
			PortScripts:   []string{"start"},
			DefaultPort:   3000,
		},
		{
			Name:          "My Smart Teacher",
			Dir:           teacher,
			Manifest:      filepath.Join(teacher, "package.json"),
			ComponentsDir: filepath.Join(teacher, "src", "components"),
			Recursive:     true,
			PortScripts:   []string{"dev", "start"},
			DefaultPort:   5173,
		},
	}
}

const chatbotManifest = `{
  "scripts": {"start": "react-scripts start"},
  "dependencies": {"react": "^18.2.0", "axios": "^1.6.0", "lodash": "4.17.21"},
  "devDependencies": {"eslint": "^8.0.0"}
}`

const teacherManifest = `{
  "scripts": {"dev": "vite"},
  "dependencies": {"react": "^18.3.1", "axios": "^1.6.0"},
  "devDependencies": {"eslint": "^9.0.0", "lodash": "4.0.0"}
}`

func TestAnalyzeFindsConflicts(t *testing.T) {
	projects := fixtureProjects(t, chatbotManifest, teacherManifest)

	r, err := Analyze(projects)
	require.NoError(t, err)
	assert.True(t, r.HasFindings())

	// lodash lives in different sections, so it is not shared
	assert.Len(t, r.Shared, 3)
	require.Len(t, r.VersionConflicts, 2)
	assert.Equal(t, "react", r.VersionConflicts[0].Name)
	assert.Equal(t, "^18.2.0", r.VersionConflicts[0].LeftVersion)
	assert.Equal(t, "^18.3.1", r.VersionConflicts[0].RightVersion)
	assert.Equal(t, "eslint", r.VersionConflicts[1].Name)
	assert.Equal(t, "devDependencies", r.VersionConflicts[1].Section)

	// Chat is only on one side, Foot.ts has the wrong extension, nested/Foot.js
	// is below the top level of a non-recursive scan
	names := []string{}
	for _, d := range r.DuplicateComponents {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Button", "Header"}, names)

	assert.Empty(t, r.PortConflicts)
	assert.Equal(t, 3000, r.Projects[0].Port)
	assert.Equal(t, 5173, r.Projects[1].Port)
	assert.Equal(t, 3, r.Projects[0].Components)
	assert.Equal(t, 3, r.Projects[1].Components)

	titles := []string{}
	for _, rec := range r.Recommendations {
		titles = append(titles, rec.Title)
	}
	assert.Equal(t, []string{"Dependency Version Conflicts", "Duplicate Component Names", "General Recommendations"}, titles)
}

func TestAnalyzePortConflict(t *testing.T) {
	projects := fixtureProjects(t,
		`{"scripts": {"start": "serve --port 4000"}}`,
		`{"scripts": {"start": "vite --port 4000"}}`,
	)

	r, err := Analyze(projects)
	require.NoError(t, err)
	require.Len(t, r.PortConflicts, 1)
	assert.Equal(t, 4000, r.PortConflicts[0].Port)
	assert.Equal(t, []string{"Educational Chatbot", "My Smart Teacher"}, r.PortConflicts[0].Projects)
	assert.Equal(t, "Development Port Conflict", r.Recommendations[len(r.Recommendations)-2].Title)
}

func TestAnalyzeNoConflicts(t *testing.T) {
	projects := fixtureProjects(t, `{"dependencies": {"a": "1"}}`, `{"dependencies": {"b": "1"}}`)
	require.NoError(t, os.RemoveAll(projects[1].ComponentsDir))

	r, err := Analyze(projects)
	require.NoError(t, err)
	assert.False(t, r.HasFindings())
	assert.Len(t, r.Notes, 1)
	require.Len(t, r.Recommendations, 1)
	assert.Equal(t, "General Recommendations", r.Recommendations[0].Title)
}

func TestAnalyzeBrokenManifestDegrades(t *testing.T) {
	projects := fixtureProjects(t, `{not json`, teacherManifest)

	r, err := Analyze(projects)
	require.NoError(t, err)
	assert.Empty(t, r.VersionConflicts)
	assert.Equal(t, 3000, r.Projects[0].Port)
	require.NotEmpty(t, r.Notes)
	assert.Contains(t, r.Notes[0], "Error reading")
}

func TestAnalyzeMissingProject(t *testing.T) {
	projects := fixtureProjects(t, chatbotManifest, teacherManifest)
	projects[1].Dir = filepath.Join(t.TempDir(), "gone")

	_, err := Analyze(projects)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestRenderFormats(t *testing.T) {
	r, err := Analyze(fixtureProjects(t, chatbotManifest, teacherManifest))
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, r.Render(&text, FormatText))
	out := text.String()
	assert.Contains(t, out, "=== PROJECT SEPARATION VERIFICATION ===")
	assert.Contains(t, out, "Found 3 shared dependencies.")
	assert.Contains(t, out, "  - react: Educational Chatbot (^18.2.0) vs My Smart Teacher (^18.3.1)")
	assert.Contains(t, out, "Button → Consider renaming to ProjectButton")
	assert.Contains(t, out, "=== VERIFICATION COMPLETE ===")

	var js bytes.Buffer
	require.NoError(t, r.Render(&js, FormatJSON))
	var decoded Report
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Len(t, decoded.VersionConflicts, 2)

	var ym bytes.Buffer
	require.NoError(t, r.Render(&ym, "YAML"))
	var fromYAML Report
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &fromYAML))
	assert.Len(t, fromYAML.DuplicateComponents, 2)

	assert.ErrorIs(t, r.Render(&bytes.Buffer{}, "xml"), ErrUnknownFormat)
}
