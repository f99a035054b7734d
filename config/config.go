// Package config resolves job settings for a project: from .locasync.yaml
// when the project has one, otherwise by auto-detecting them from the
// existing directory layout.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Project holds auto-detected (or resolved) job settings for a single
// translation target.
type Project struct {
	// Name is the project name, used in generated headers.
	Name string
	// Version from debian/changelog or fallback.
	Version string

	// Root is the absolute project root directory.
	Root string
	// SourceDir is the absolute directory to scan for translatable source.
	SourceDir string
	// TSDir is the absolute TS file root (one subdirectory per language).
	TSDir string
	// OutputDir is the absolute localized-file output root.
	OutputDir string

	// Include/Exclude are glob patterns applied during the source walk.
	Include []string
	Exclude []string

	// SourceLang is the source language code (default "en").
	SourceLang string
	// Languages is the detected or configured destination language list.
	Languages []string
}

// TSPath returns the expected TS file path for a relative source path
// and language, mirroring engine.tsPath's layout so status reporting
// doesn't need a running Job to locate files.
func (p *Project) TSPath(relPath, lang string) string {
	return filepath.Join(p.TSDir, lang, relPath+".ts")
}

// Detect auto-detects project settings from the working directory. If
// .locasync.yaml exists, its first target is preferred (see LoadLocasyncFile);
// otherwise Detect falls back to directory-name heuristics.
func Detect(rootDir string) *Project {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		absRoot = rootDir
	}

	if lf, err := LoadLocasyncFile(absRoot); err == nil && lf != nil && len(lf.Targets) > 0 {
		if resolved, err := lf.Resolve(absRoot); err == nil && len(resolved) > 0 {
			return resolved[0].toProject(nameFromChangelogOrDir(absRoot))
		}
	}

	p := &Project{
		Root:       absRoot,
		SourceDir:  absRoot,
		TSDir:      filepath.Join(absRoot, "ts"),
		OutputDir:  absRoot,
		Include:    []string{"*.go"},
		SourceLang: "en",
	}

	name, version := nameFromChangelogOrDir(absRoot)
	p.Name, p.Version = name, version

	for _, candidate := range []string{"src", "client", "lib", "cmd"} {
		dir := filepath.Join(absRoot, candidate)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			p.SourceDir = dir
			break
		}
	}

	for _, candidate := range []string{"ts", "locale", "i18n", "translations"} {
		dir := filepath.Join(absRoot, candidate)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			p.TSDir = dir
			break
		}
	}

	p.Languages = detectLanguagesFromTSDir(p.TSDir)

	return p
}

func nameFromChangelogOrDir(absRoot string) (name, version string) {
	if n, v, err := parseChangelog(filepath.Join(absRoot, "debian", "changelog")); err == nil {
		return n, v
	}
	return filepath.Base(absRoot), "0.0.0"
}

// parseChangelog extracts package name and version from debian/changelog.
var changelogRe = regexp.MustCompile(`^(\S+)\s+\(([^)]+)\)`)

func parseChangelog(path string) (name, version string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		line := scanner.Text()
		matches := changelogRe.FindStringSubmatch(line)
		if len(matches) >= 3 {
			return matches[1], matches[2], nil
		}
	}
	return "", "", os.ErrNotExist
}

// isLangCode checks if a string looks like a language code (en, ru, pt_BR, zh_CN, etc).
func isLangCode(s string) bool {
	if len(s) == 2 {
		return s[0] >= 'a' && s[0] <= 'z' && s[1] >= 'a' && s[1] <= 'z'
	}
	if len(s) == 5 && s[2] == '_' {
		return s[0] >= 'a' && s[0] <= 'z' && s[1] >= 'a' && s[1] <= 'z' &&
			s[3] >= 'A' && s[3] <= 'Z' && s[4] >= 'A' && s[4] <= 'Z'
	}
	return false
}

// detectLanguagesFromTSDir lists the language subdirectories of a TS root.
func detectLanguagesFromTSDir(tsDir string) []string {
	entries, err := os.ReadDir(tsDir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if isLangCode(entry.Name()) {
			langs = append(langs, entry.Name())
		}
	}
	sort.Strings(langs)
	return langs
}
