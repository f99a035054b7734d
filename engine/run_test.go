package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minios-linux/locasync/hooks"
	"github.com/minios-linux/locasync/parser"
	"github.com/minios-linux/locasync/store"
)

type collectingReporter struct {
	t *testing.T
}

func (r *collectingReporter) Info(format string, args ...any)  { r.t.Logf("info: "+format, args...) }
func (r *collectingReporter) Warn(format string, args ...any)  { r.t.Logf("warn: "+format, args...) }
func (r *collectingReporter) Error(format string, args ...any) { r.t.Logf("error: "+format, args...) }

func newTestJob(t *testing.T, langs []string) (*Job, string) {
	t.Helper()
	root := t.TempDir()
	sourceDir := filepath.Join(root, "src")
	tsRoot := filepath.Join(root, "ts")
	outRoot := filepath.Join(root, "out")
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}

	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	j := &Job{
		Namespace:     "ns",
		ID:            "job",
		SourceDir:     sourceDir,
		TSRoot:        tsRoot,
		OutputRoot:    outRoot,
		SourceLang:    "en",
		DestLanguages: langs,
		Store:         s,
		Parser:        parser.NewGoParser([]string{"T"}),
		Hooks:         hooks.New(),
		Include:       []string{"*.go"},
		Reporter:      &collectingReporter{t: t},
	}
	return j, sourceDir
}

func writeSource(t *testing.T, dir, rel, content string) {
	t.Helper()
	abs := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
}

func readTSFile(t *testing.T, j *Job, rel, lang string) string {
	t.Helper()
	path := tsPath(j, rel, lang)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading ts file %s: %v", path, err)
	}
	return string(data)
}

func newGoPluralParser() parser.Parser {
	return parser.NewGoParser([]string{"N:1,2"})
}

func TestRunJobExtractsAndEmitsTSFile(t *testing.T) {
	j, src := newTestJob(t, []string{"fr"})
	writeSource(t, src, "greet.go", `package greet

func greet() {
	T("Hello")
}
`)

	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	ts := readTSFile(t, j, "greet.go", "fr")
	if !strings.Contains(ts, `msgid "Hello"`) {
		t.Fatalf("expected msgid Hello in ts file:\n%s", ts)
	}
	if !strings.Contains(ts, "#: File: greet.go") {
		t.Fatalf("expected File reference in ts file:\n%s", ts)
	}
}

func TestRunJobFuzzyReuseAcrossFiles(t *testing.T) {
	j, src := newTestJob(t, []string{"fr"})
	j.ReuseTranslations = true
	j.ReuseAsFuzzyDefault = true

	writeSource(t, src, "a.go", `package a

func f() { T("Hello") }
`)
	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (a): %v", err)
	}

	tsPathA := tsPath(j, "a.go", "fr")
	if err := os.WriteFile(tsPathA, []byte(`msgid ""
msgstr ""

#: File: a.go
#: ID: `+keyFor("Hello")+`
msgid "Hello"
msgstr "Bonjour"
`), 0o644); err != nil {
		t.Fatalf("writing seed ts file: %v", err)
	}

	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (a, ingest): %v", err)
	}

	writeSource(t, src, "b.go", `package b

func f() { T("Hello") }
`)
	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (b): %v", err)
	}

	tsB := readTSFile(t, j, "b.go", "fr")
	if !strings.Contains(tsB, `msgstr "Bonjour"`) {
		t.Fatalf("expected reused translation Bonjour in b's ts file:\n%s", tsB)
	}
	if !strings.Contains(tsB, "#, fuzzy") {
		t.Fatalf("expected reused translation to be marked fuzzy:\n%s", tsB)
	}
}

func TestRunJobSkipsUncertainReuse(t *testing.T) {
	j, src := newTestJob(t, []string{"fr"})
	j.ReuseTranslations = true
	j.ReuseUncertain = false

	writeSource(t, src, "a.go", `package a

func f() { T("Open") }
`)
	writeSource(t, src, "b.go", `package b

func f() { T("Open") }
`)
	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (seed): %v", err)
	}

	mustSeedTranslation(t, j, "a.go", "fr", "Open", "Ouvrir")
	mustSeedTranslation(t, j, "b.go", "fr", "Open", "Déplier")

	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (ingest both): %v", err)
	}

	writeSource(t, src, "c.go", `package c

func f() { T("Open") }
`)
	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (c): %v", err)
	}

	tsC := readTSFile(t, j, "c.go", "fr")
	if strings.Contains(tsC, `msgstr "Ouvrir"`) || strings.Contains(tsC, `msgstr "Déplier"`) {
		t.Fatalf("expected no reused translation with multiple variants and reuse_uncertain=false:\n%s", tsC)
	}
	if strings.Contains(tsC, "#, fuzzy") {
		t.Fatalf("expected no fuzzy flag when reuse was skipped:\n%s", tsC)
	}
}

func mustSeedTranslation(t *testing.T, j *Job, rel, lang, msgid, msgstr string) {
	t.Helper()
	path := tsPath(j, rel, lang)
	content := `msgid ""
msgstr ""

#: File: ` + rel + `
#: ID: ` + keyFor(msgid) + `
msgid "` + msgid + `"
msgstr "` + msgstr + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seeding ts file %s: %v", path, err)
	}
}

func keyFor(text string) string {
	return disambiguateKey(text, "", "", "", map[string]bool{})
}

func TestRunJobRenameDetectionPreservesTranslations(t *testing.T) {
	j, src := newTestJob(t, []string{"fr"})

	writeSource(t, src, "old/greet.go", `package greet

func greet() { T("Hello") }
`)
	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (initial): %v", err)
	}
	mustSeedTranslation(t, j, "old/greet.go", "fr", "Hello", "Bonjour")
	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (ingest): %v", err)
	}

	if err := os.MkdirAll(filepath.Join(src, "new"), 0o755); err != nil {
		t.Fatalf("mkdir new: %v", err)
	}
	if err := os.Rename(filepath.Join(src, "old", "greet.go"), filepath.Join(src, "new", "greet.go")); err != nil {
		t.Fatalf("os.Rename: %v", err)
	}
	if err := os.Remove(filepath.Join(src, "old")); err != nil {
		t.Fatalf("rmdir old: %v", err)
	}

	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (after rename): %v", err)
	}

	ts := readTSFile(t, j, "new/greet.go", "fr")
	if !strings.Contains(ts, `msgstr "Bonjour"`) {
		t.Fatalf("expected rename to preserve the existing translation:\n%s", ts)
	}
	if strings.Contains(ts, "#, fuzzy") {
		t.Fatalf("rename-preserved translation must not be marked fuzzy:\n%s", ts)
	}
}

func TestRunJobIdempotentSecondRunNoOp(t *testing.T) {
	j, src := newTestJob(t, []string{"fr"})
	writeSource(t, src, "greet.go", `package greet

func greet() { T("Hello") }
`)
	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (1): %v", err)
	}
	ts1 := readTSFile(t, j, "greet.go", "fr")

	if err := RunJob(j); err != nil {
		t.Fatalf("RunJob (2): %v", err)
	}
	ts2 := readTSFile(t, j, "greet.go", "fr")

	if ts1 != ts2 {
		t.Fatalf("expected idempotent re-run to leave the ts file unchanged:\n--- first ---\n%s\n--- second ---\n%s", ts1, ts2)
	}
}
