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

// Package advisor statically compares supervised projects and reports what
// could make them collide: dependency versions, component names and dev ports.
// advisor 包静态比较被监管的项目，报告可能的冲突：依赖版本、组件名称和开发端口。
//
// The advisor only reads files. It never changes a project.
package advisor

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/devpair/devpair/internal/config"
	"github.com/devpair/devpair/internal/manifest"
)

// ErrProjectNotFound indicates a project directory is missing
// ErrProjectNotFound 表示项目目录不存在
var ErrProjectNotFound = errors.New("advisor: project not found")

// Project is one side of the comparison.
// Project 是参与比较的一个项目。
type Project struct {
	Name          string
	Dir           string
	Manifest      string
	ComponentsDir string
	// Recursive scans ComponentsDir at any depth and also accepts .tsx files
	// Recursive 表示递归扫描组件目录并额外接受 .tsx 文件
	Recursive   bool
	PortScripts []string
	DefaultPort int
}

// ComponentPattern returns the glob used to list component files.
func (p Project) ComponentPattern() string {
	if p.Recursive {
		return "**/*.{tsx,jsx,js}"
	}
	return "*.{js,jsx}"
}

// ProjectsFromConfig builds advisor projects from the configured children.
func ProjectsFromConfig(cfg *config.Config) []Project {
	projects := make([]Project, 0, len(cfg.Children))
	for _, child := range cfg.Children {
		projects = append(projects, Project{
			Name:          child.Name,
			Dir:           cfg.ChildDir(child),
			Manifest:      cfg.ManifestPath(child),
			ComponentsDir: cfg.ComponentsPath(child),
			Recursive:     child.RecursiveComponents,
			PortScripts:   child.PortScripts,
			DefaultPort:   child.DefaultPort,
		})
	}
	return projects
}

// Analyze compares every pair of projects. It fails only when a project
// directory is missing; unreadable manifests or component dirs become notes.
// Analyze 两两比较所有项目。只有项目目录不存在时才返回错误，其余问题记为备注。
func Analyze(projects []Project) (*Report, error) {
	for _, p := range projects {
		info, err := os.Stat(p.Dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s (%s)", ErrProjectNotFound, p.Name, p.Dir)
		}
	}

	report := &Report{}
	manifests := make([]*manifest.Manifest, len(projects))
	components := make([][]string, len(projects))

	for i, p := range projects {
		summary := ProjectSummary{Name: p.Name, Dir: p.Dir, Port: p.DefaultPort}

		m, err := manifest.Load(p.Manifest)
		if err != nil {
			report.Notes = append(report.Notes, fmt.Sprintf("Error reading %s: %v", p.Manifest, err))
		} else {
			manifests[i] = m
			summary.Port = m.Port(p.DefaultPort, p.PortScripts...)
		}

		names, err := listComponents(p)
		if err != nil {
			report.Notes = append(report.Notes, fmt.Sprintf("Components of %s not checked: %v", p.Name, err))
		} else {
			components[i] = names
			summary.Components = len(names)
		}

		report.Projects = append(report.Projects, summary)
	}

	for i := 0; i < len(projects); i++ {
		for j := i + 1; j < len(projects); j++ {
			compareDependencies(report, projects[i].Name, projects[j].Name, manifests[i], manifests[j])
			if components[i] != nil && components[j] != nil {
				compareComponents(report, projects[i].Name, projects[j].Name, components[i], components[j])
			}
		}
	}
	report.PortConflicts = findPortConflicts(report.Projects)
	report.Recommendations = recommend(report)
	return report, nil
}

// compareDependencies records shared names per section and their version mismatches
func compareDependencies(r *Report, left, right string, lm, rm *manifest.Manifest) {
	if lm == nil || rm == nil {
		return
	}
	for _, section := range manifest.Sections {
		ld, rd := lm.Deps(section), rm.Deps(section)
		for _, name := range sortedKeys(ld) {
			rv, ok := rd[name]
			if !ok {
				continue
			}
			r.Shared = append(r.Shared, SharedDependency{Name: name, Section: string(section)})
			if lv := ld[name]; lv != rv {
				r.VersionConflicts = append(r.VersionConflicts, VersionConflict{
					Name:         name,
					Section:      string(section),
					Left:         left,
					LeftVersion:  lv,
					Right:        right,
					RightVersion: rv,
				})
			}
		}
	}
}

// compareComponents records base names present in both lists
func compareComponents(r *Report, left, right string, ln, rn []string) {
	rightSet := make(map[string]bool, len(rn))
	for _, n := range rn {
		rightSet[n] = true
	}
	seen := make(map[string]bool)
	for _, n := range ln {
		if rightSet[n] && !seen[n] {
			seen[n] = true
			r.DuplicateComponents = append(r.DuplicateComponents, DuplicateComponent{
				Name:     n,
				Projects: []string{left, right},
			})
		}
	}
}

func findPortConflicts(projects []ProjectSummary) []PortConflict {
	byPort := make(map[int][]string)
	var order []int
	for _, p := range projects {
		if p.Port <= 0 {
			continue
		}
		if _, ok := byPort[p.Port]; !ok {
			order = append(order, p.Port)
		}
		byPort[p.Port] = append(byPort[p.Port], p.Name)
	}

	var conflicts []PortConflict
	for _, port := range order {
		if names := byPort[port]; len(names) > 1 {
			conflicts = append(conflicts, PortConflict{Port: port, Projects: names})
		}
	}
	return conflicts
}

// listComponents returns component base names, extension stripped, sorted
// listComponents 返回去掉扩展名并排序后的组件名称
func listComponents(p Project) ([]string, error) {
	if p.ComponentsDir == "" {
		return nil, errors.New("no components directory configured")
	}
	info, err := os.Stat(p.ComponentsDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("components directory %s not found", p.ComponentsDir)
	}

	matches, err := doublestar.Glob(os.DirFS(p.ComponentsDir), p.ComponentPattern(), doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob components: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := path.Base(m)
		names = append(names, strings.TrimSuffix(base, path.Ext(base)))
	}
	sort.Strings(names)
	return names, nil
}

func recommend(r *Report) []Recommendation {
	var recs []Recommendation

	if len(r.VersionConflicts) > 0 {
		rec := Recommendation{
			Title:   "Dependency Version Conflicts",
			Summary: "Consider aligning dependency versions between projects or ensuring they work independently.",
		}
		for _, c := range r.VersionConflicts {
			rec.Items = append(rec.Items, c.Name)
		}
		recs = append(recs, rec)
	}

	if len(r.DuplicateComponents) > 0 {
		rec := Recommendation{
			Title:   "Duplicate Component Names",
			Summary: "Rename components in one of the projects to avoid confusion.",
		}
		for _, d := range r.DuplicateComponents {
			rec.Items = append(rec.Items, fmt.Sprintf("%s → Consider renaming to Project%s", d.Name, d.Name))
		}
		recs = append(recs, rec)
	}

	for _, pc := range r.PortConflicts {
		rec := Recommendation{
			Title:   "Development Port Conflict",
			Summary: fmt.Sprintf("%s are trying to use port %d. Update one project's start script to use a different port.", strings.Join(pc.Projects, " and "), pc.Port),
		}
		for i, name := range pc.Projects[1:] {
			rec.Items = append(rec.Items, fmt.Sprintf("For %s: pass \"--port %d\" to its dev server", name, pc.Port+i+1))
		}
		recs = append(recs, rec)
	}

	recs = append(recs, Recommendation{
		Title: "General Recommendations",
		Items: []string{
			"Keep README files updated with clear project purposes",
			"Consider creating a monorepo structure if both projects will continue to be developed",
			"Document any shared backend services or APIs",
			"Create separate deployment pipelines for each project",
		},
	})
	return recs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
