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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Report formats
// 报告格式
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ErrUnknownFormat indicates an unsupported report format
var ErrUnknownFormat = errors.New("advisor: unknown report format")

// Report is the result of one analysis.
// Report 是一次分析的结果。
type Report struct {
	Projects            []ProjectSummary     `json:"projects" yaml:"projects"`
	Shared              []SharedDependency   `json:"shared_dependencies" yaml:"shared_dependencies"`
	VersionConflicts    []VersionConflict    `json:"version_conflicts" yaml:"version_conflicts"`
	DuplicateComponents []DuplicateComponent `json:"duplicate_components" yaml:"duplicate_components"`
	PortConflicts       []PortConflict       `json:"port_conflicts" yaml:"port_conflicts"`
	Recommendations     []Recommendation     `json:"recommendations" yaml:"recommendations"`
	Notes               []string             `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ProjectSummary 项目摘要
type ProjectSummary struct {
	Name       string `json:"name" yaml:"name"`
	Dir        string `json:"dir" yaml:"dir"`
	Port       int    `json:"port" yaml:"port"`
	Components int    `json:"components" yaml:"components"`
}

// SharedDependency is a package name present in the same section of two manifests
type SharedDependency struct {
	Name    string `json:"name" yaml:"name"`
	Section string `json:"section" yaml:"section"`
}

// VersionConflict is a shared dependency whose version strings differ
// VersionConflict 是版本字符串不同的共享依赖
type VersionConflict struct {
	Name         string `json:"name" yaml:"name"`
	Section      string `json:"section" yaml:"section"`
	Left         string `json:"left" yaml:"left"`
	LeftVersion  string `json:"left_version" yaml:"left_version"`
	Right        string `json:"right" yaml:"right"`
	RightVersion string `json:"right_version" yaml:"right_version"`
}

// DuplicateComponent 重名组件
type DuplicateComponent struct {
	Name     string   `json:"name" yaml:"name"`
	Projects []string `json:"projects" yaml:"projects"`
}

// PortConflict lists projects expected on the same dev port
type PortConflict struct {
	Port     int      `json:"port" yaml:"port"`
	Projects []string `json:"projects" yaml:"projects"`
}

// Recommendation 建议
type Recommendation struct {
	Title   string   `json:"title" yaml:"title"`
	Summary string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Items   []string `json:"items,omitempty" yaml:"items,omitempty"`
}

// HasFindings reports whether any conflict was found.
func (r *Report) HasFindings() bool {
	return len(r.VersionConflicts) > 0 || len(r.DuplicateComponents) > 0 || len(r.PortConflicts) > 0
}

// Render writes the report in the given format.
// Render 以指定格式输出报告。
func (r *Report) Render(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return r.renderText(w)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func (r *Report) renderText(w io.Writer) error {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("=== PROJECT SEPARATION VERIFICATION ===")
	line("")
	names := make([]string, 0, len(r.Projects))
	for _, p := range r.Projects {
		names = append(names, p.Name)
	}
	line("✅ All projects exist: %s", strings.Join(names, ", "))

	line("")
	line("Comparing dependencies between projects...")
	line("Found %d shared dependencies.", len(r.Shared))
	if len(r.VersionConflicts) > 0 {
		line("⚠️ Found dependencies with conflicting versions:")
		for _, c := range r.VersionConflicts {
			line("  - %s: %s (%s) vs %s (%s)", c.Name, c.Left, c.LeftVersion, c.Right, c.RightVersion)
		}
	} else {
		line("✅ No conflicting dependency versions found.")
	}

	line("")
	line("Checking for duplicate component names...")
	if len(r.DuplicateComponents) > 0 {
		line("⚠️ Found duplicate component names:")
		for _, d := range r.DuplicateComponents {
			line("  - %s", d.Name)
		}
	} else {
		line("✅ No duplicate component names found.")
	}

	line("")
	line("Checking for port conflicts in development scripts...")
	if len(r.PortConflicts) > 0 {
		for _, pc := range r.PortConflicts {
			line("⚠️ Port conflict detected! %s may try to use port %d.", strings.Join(pc.Projects, " and "), pc.Port)
		}
	} else {
		ports := make([]string, 0, len(r.Projects))
		for _, p := range r.Projects {
			ports = append(ports, fmt.Sprintf("%s uses port %d", p.Name, p.Port))
		}
		line("✅ No port conflicts detected. %s.", strings.Join(ports, ", "))
	}

	if len(r.Notes) > 0 {
		line("")
		for _, n := range r.Notes {
			line("❌ %s", n)
		}
	}

	line("")
	line("=== RECOMMENDATIONS ===")
	for i, rec := range r.Recommendations {
		line("")
		line("%d. %s:", i+1, rec.Title)
		if rec.Summary != "" {
			line("   %s", rec.Summary)
		}
		for _, item := range rec.Items {
			line("   - %s", item)
		}
	}

	line("")
	line("=== VERIFICATION COMPLETE ===")

	_, err := io.WriteString(w, b.String())
	return err
}
