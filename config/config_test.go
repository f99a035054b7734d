package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDetectFallsBackToDirectoryHeuristics(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	tsDir := filepath.Join(dir, "ts")
	for _, d := range []string{srcDir, filepath.Join(tsDir, "fr"), filepath.Join(tsDir, "ru")} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("MkdirAll %s: %v", d, err)
		}
	}

	p := Detect(dir)
	if p.SourceDir != srcDir {
		t.Fatalf("SourceDir = %q, want %q", p.SourceDir, srcDir)
	}
	if p.TSDir != tsDir {
		t.Fatalf("TSDir = %q, want %q", p.TSDir, tsDir)
	}
	if !reflect.DeepEqual(p.Languages, []string{"fr", "ru"}) {
		t.Fatalf("Languages = %v, want [fr ru]", p.Languages)
	}
	if p.SourceLang != "en" {
		t.Fatalf("SourceLang = %q, want en", p.SourceLang)
	}
}

func TestProjectTSPath(t *testing.T) {
	p := &Project{TSDir: "/proj/ts"}
	got := p.TSPath("greet.go", "fr")
	want := filepath.Join("/proj/ts", "fr", "greet.go.ts")
	if got != want {
		t.Fatalf("TSPath = %q, want %q", got, want)
	}
}

func TestLoadLocasyncFileMissingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	lf, err := LoadLocasyncFile(dir)
	if err != nil {
		t.Fatalf("LoadLocasyncFile error: %v", err)
	}
	if lf != nil {
		t.Fatalf("LoadLocasyncFile expected nil, got %#v", lf)
	}
}

func TestLoadLocasyncFileAppliesDefaultsAndInheritance(t *testing.T) {
	dir := t.TempDir()
	yaml := "languages: [ru, de]\n" +
		"targets:\n" +
		"  - name: app\n"
	if err := os.WriteFile(filepath.Join(dir, LocasyncFileName), []byte(yaml), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	lf, err := LoadLocasyncFile(dir)
	if err != nil {
		t.Fatalf("LoadLocasyncFile error: %v", err)
	}
	if lf.SourceLang != "en" {
		t.Fatalf("SourceLang = %q, want en", lf.SourceLang)
	}
	if len(lf.Targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(lf.Targets))
	}
	target := lf.Targets[0]
	if target.Type != TargetTypeGettext {
		t.Fatalf("target.Type = %q, want %q", target.Type, TargetTypeGettext)
	}
	if target.Root != "." || target.SourceDir != "." || target.TSDir != "ts" || target.OutputDir != "." {
		t.Fatalf("target defaults not applied: %+v", target)
	}
	if !reflect.DeepEqual(target.Include, []string{"*.go"}) {
		t.Fatalf("target.Include = %v, want [*.go]", target.Include)
	}
	if !reflect.DeepEqual(target.Keywords, []string{"T"}) {
		t.Fatalf("target.Keywords = %v, want [T]", target.Keywords)
	}
	if !reflect.DeepEqual(target.Languages, []string{"ru", "de"}) {
		t.Fatalf("target.Languages = %v, want [ru de]", target.Languages)
	}
	if target.SourceLang != "en" {
		t.Fatalf("target.SourceLang = %q, want en", target.SourceLang)
	}
}

func TestLoadLocasyncFileRejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	yaml := "targets:\n  - name: app\n    type: weird\n"
	if err := os.WriteFile(filepath.Join(dir, LocasyncFileName), []byte(yaml), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadLocasyncFile(dir); err == nil {
		t.Fatal("expected error for unknown target type")
	}
}

func TestLocasyncFileResolveAutoDetectsLanguages(t *testing.T) {
	dir := t.TempDir()
	tsDir := filepath.Join(dir, "ts")
	if err := os.MkdirAll(filepath.Join(tsDir, "de"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tsDir, "ru"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	lf := &LocasyncFile{
		Targets: []Target{{Name: "app", Type: TargetTypeGettext, Root: ".", TSDir: "ts"}},
	}

	resolved, err := lf.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected 1 resolved target, got %d", len(resolved))
	}
	if !filepath.IsAbs(resolved[0].AbsRoot) {
		t.Fatalf("AbsRoot is not absolute: %q", resolved[0].AbsRoot)
	}
	if !reflect.DeepEqual(resolved[0].Languages, []string{"de", "ru"}) {
		t.Fatalf("resolved languages = %v, want [de ru]", resolved[0].Languages)
	}

	all := lf.AllLanguages(dir)
	if !reflect.DeepEqual(all, []string{"de", "ru"}) {
		t.Fatalf("AllLanguages = %v, want [de ru]", all)
	}
}

func TestDetectPrefersLocasyncFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "ts", "fr"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	yaml := "targets:\n  - name: custom\n    source_dir: cmd\n    ts_dir: ts\n"
	if err := os.WriteFile(filepath.Join(dir, LocasyncFileName), []byte(yaml), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := Detect(dir)
	if p.Name != "custom" {
		t.Fatalf("Name = %q, want custom", p.Name)
	}
	if p.SourceDir != filepath.Join(dir, "cmd") {
		t.Fatalf("SourceDir = %q, want %q", p.SourceDir, filepath.Join(dir, "cmd"))
	}
	if !reflect.DeepEqual(p.Languages, []string{"fr"}) {
		t.Fatalf("Languages = %v, want [fr]", p.Languages)
	}
}
