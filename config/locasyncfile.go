// Package config — .locasync.yaml configuration file support.
//
// When a .locasync.yaml file exists in the project root, locasync uses it
// as the source of truth for job targets instead of guessing from
// directory layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LocasyncFileName is the default config file name.
const LocasyncFileName = ".locasync.yaml"

// TargetTypeGettext is the only target type locasync's engine drives
// today (its TS-file pipeline). Kept as a named constant, in the
// teacher's style, so future target types have somewhere to slot in.
const TargetTypeGettext = "gettext"

// LocasyncFile is the top-level .locasync.yaml structure.
type LocasyncFile struct {
	// Languages is the default language list for all targets (can be overridden per target).
	Languages []string `yaml:"languages,omitempty"`
	// SourceLang is the default source language code (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Targets is the list of job targets.
	Targets []Target `yaml:"targets"`
}

// Target describes a single translation-synchronization job.
type Target struct {
	// Name is a human-readable label shown in status/logs.
	Name string `yaml:"name"`
	// Type must be "gettext" (see TargetTypeGettext).
	Type string `yaml:"type"`
	// Root is the working directory relative to .locasync.yaml (default ".").
	Root string `yaml:"root,omitempty"`

	// SourceDir is the directory to scan for translatable source, relative to Root.
	SourceDir string `yaml:"source_dir,omitempty"`
	// TSDir is the TS file root, relative to Root.
	TSDir string `yaml:"ts_dir,omitempty"`
	// OutputDir is the localized-file output root, relative to Root.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Include/Exclude are glob patterns applied during the source walk.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`

	// Keywords are xgettext-style keyword specs for the Go source parser
	// (e.g. "T", "N:1,2"). Defaults to the single keyword "T".
	Keywords []string `yaml:"keywords,omitempty"`

	// Languages overrides the global language list for this target.
	Languages []string `yaml:"languages,omitempty"`
	// SourceLang overrides the global source language for this target.
	SourceLang string `yaml:"source_lang,omitempty"`
}

// LoadLocasyncFile loads and validates .locasync.yaml from the given
// directory. Returns nil if no .locasync.yaml exists.
func LoadLocasyncFile(rootDir string) (*LocasyncFile, error) {
	path := filepath.Join(rootDir, LocasyncFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var lf LocasyncFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if lf.SourceLang == "" {
		lf.SourceLang = "en"
	}

	for i := range lf.Targets {
		t := &lf.Targets[i]

		if t.Name == "" {
			return nil, fmt.Errorf("%s: target #%d has no name", path, i+1)
		}
		if t.Type == "" {
			t.Type = TargetTypeGettext
		}
		if t.Type != TargetTypeGettext {
			return nil, fmt.Errorf("%s: target %q has unknown type %q (only %q is supported)", path, t.Name, t.Type, TargetTypeGettext)
		}

		if t.Root == "" {
			t.Root = "."
		}
		if t.SourceDir == "" {
			t.SourceDir = "."
		}
		if t.TSDir == "" {
			t.TSDir = "ts"
		}
		if t.OutputDir == "" {
			t.OutputDir = "."
		}
		if len(t.Include) == 0 {
			t.Include = []string{"*.go"}
		}
		if len(t.Keywords) == 0 {
			t.Keywords = []string{"T"}
		}

		if len(t.Languages) == 0 {
			t.Languages = lf.Languages
		}
		if t.SourceLang == "" {
			t.SourceLang = lf.SourceLang
		}
	}

	return &lf, nil
}

// ResolvedTarget holds a fully resolved target with absolute paths.
type ResolvedTarget struct {
	Target    Target
	AbsRoot   string
	Languages []string
}

// Resolve converts a LocasyncFile into a list of ResolvedTargets with
// absolute paths, auto-detecting languages from the TS directory layout
// when a target doesn't list any.
func (lf *LocasyncFile) Resolve(projectRoot string) ([]ResolvedTarget, error) {
	absProjectRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	var resolved []ResolvedTarget
	for _, t := range lf.Targets {
		absRoot := filepath.Join(absProjectRoot, t.Root)

		langs := t.Languages
		if len(langs) == 0 {
			langs = detectLanguagesFromTSDir(filepath.Join(absRoot, t.TSDir))
		}

		resolved = append(resolved, ResolvedTarget{
			Target:    t,
			AbsRoot:   absRoot,
			Languages: langs,
		})
	}

	return resolved, nil
}

// AbsSourceDir returns the absolute source directory for a target.
func (rt *ResolvedTarget) AbsSourceDir() string {
	return filepath.Join(rt.AbsRoot, rt.Target.SourceDir)
}

// AbsTSDir returns the absolute TS file root for a target.
func (rt *ResolvedTarget) AbsTSDir() string {
	return filepath.Join(rt.AbsRoot, rt.Target.TSDir)
}

// AbsOutputDir returns the absolute localized-output root for a target.
func (rt *ResolvedTarget) AbsOutputDir() string {
	return filepath.Join(rt.AbsRoot, rt.Target.OutputDir)
}

// toProject turns a resolved target into a Project, the shape the CLI
// and engine.Job construction consume uniformly whether settings came
// from auto-detection or from an explicit target.
func (rt *ResolvedTarget) toProject(name, version string) *Project {
	if rt.Target.Name != "" {
		name = rt.Target.Name
	}
	return &Project{
		Name:       name,
		Version:    version,
		Root:       rt.AbsRoot,
		SourceDir:  rt.AbsSourceDir(),
		TSDir:      rt.AbsTSDir(),
		OutputDir:  rt.AbsOutputDir(),
		Include:    rt.Target.Include,
		Exclude:    rt.Target.Exclude,
		SourceLang: rt.Target.SourceLang,
		Languages:  rt.Languages,
	}
}

// AllLanguages returns the deduplicated union of all target languages.
func (lf *LocasyncFile) AllLanguages(projectRoot string) []string {
	seen := make(map[string]bool)
	var all []string

	resolved, err := lf.Resolve(projectRoot)
	if err != nil {
		return lf.Languages
	}

	for _, rt := range resolved {
		for _, lang := range rt.Languages {
			if !seen[lang] {
				seen[lang] = true
				all = append(all, lang)
			}
		}
	}

	sort.Strings(all)
	return all
}
