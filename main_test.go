package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/minios-linux/locasync/config"
	"github.com/minios-linux/locasync/engine"
)

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "en"); got != "en" {
		t.Fatalf("firstNonEmpty() = %q, want en", got)
	}
	if got := firstNonEmpty("fr", "en"); got != "fr" {
		t.Fatalf("firstNonEmpty() = %q, want fr", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestCliReporterImplementsEngineReporter(t *testing.T) {
	var r engine.Reporter = &cliReporter{}
	r.Info("info %s", "x")
	r.Warn("warn %s", "x")
	r.Error("error %s", "x")
}

func TestAggregateTSStatsEmptyDirIsZero(t *testing.T) {
	dir := t.TempDir()
	proj := &config.Project{TSDir: dir}

	total, translated, fuzzy, untranslated := aggregateTSStats(proj, "fr")
	if total != 0 || translated != 0 || fuzzy != 0 || untranslated != 0 {
		t.Fatalf("aggregateTSStats on empty dir = %d,%d,%d,%d, want all zero", total, translated, fuzzy, untranslated)
	}
}

func TestAggregateTSStatsSumsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	langDir := filepath.Join(dir, "fr")
	if err := os.MkdirAll(langDir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	ts := `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

#: File: greet.go
#: ID: 9392c196504ae11ac127a595326ddf96
msgid "Hello"
msgstr "Bonjour"
`
	if err := os.WriteFile(filepath.Join(langDir, "greet.go.ts"), []byte(ts), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	proj := &config.Project{TSDir: dir}
	total, translated, _, _ := aggregateTSStats(proj, "fr")
	if total != 1 || translated != 1 {
		t.Fatalf("aggregateTSStats = total %d translated %d, want 1, 1", total, translated)
	}
}
