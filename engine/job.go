// Package engine implements the pipeline driver: a six-phase job runner
// built on top of store, hooks, parser, normalize and tsfile. Grounded on
// main.go's runInitCode/runTranslate
// orchestration shape (sequential named stages, reported through a small
// logging surface) and merge/merge.go's matched/obsolete bookkeeping,
// generalized into the orphan reconciliation pass.
package engine

import (
	"github.com/minios-linux/locasync/hooks"
	"github.com/minios-linux/locasync/parser"
	"github.com/minios-linux/locasync/store"
)

// Reporter decouples the engine from any particular presentation; the CLI
// supplies a colored, ANSI stderr implementation (main.go's
// logInfo/logWarning/logError style), while tests supply one that just
// collects lines.
type Reporter interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SimilarLanguageRule lets a destination language inherit translations
// from one or more source languages when it has none of its own (spec
// §4.7 step 5, GLOSSARY "Similar language").
type SimilarLanguageRule struct {
	Destination string
	Sources     []string
	AsFuzzy     bool
}

// Job bundles everything one pipeline run needs: a source directory, a
// store handle, a TS file root, an output file root, a set of destination
// languages, a parser, and a set of hooks.
type Job struct {
	Namespace string
	ID        string

	SourceDir  string
	TSRoot     string
	OutputRoot string

	SourceLang        string
	DestLanguages     []string
	ModifiedLanguages []string // external "modified set"; nil means "all destinations"

	Store  *store.Store
	Parser parser.Parser
	Hooks  *hooks.Bus

	Include []string
	Exclude []string

	SimilarLanguages []SimilarLanguageRule

	// Mode flags
	OutputOnlyMode   bool
	RebuildTSFiles   bool
	DebugNosaveLoc   bool
	DisableOptimizations bool

	NormalizeStrings       bool
	ReuseTranslations      bool
	ReuseUncertain         bool
	ReuseAsFuzzy           map[string]bool
	ReuseAsFuzzyDefault    bool
	ReuseAsNotFuzzy        map[string]bool
	OutputDefaultLangFile  bool
	OutputEncodingName     string
	OutputBOM              bool

	EngineVersion string
	PluginVersion string

	Reporter Reporter
}

func (j *Job) modifiedLanguages() []string {
	if j.ModifiedLanguages == nil {
		return j.DestLanguages
	}
	modSet := make(map[string]bool, len(j.ModifiedLanguages))
	for _, l := range j.ModifiedLanguages {
		modSet[l] = true
	}
	var out []string
	for _, l := range j.DestLanguages {
		if modSet[l] {
			out = append(out, l)
		}
	}
	return out
}

func (j *Job) reuseAsFuzzy(lang string) bool {
	if j.ReuseAsFuzzy != nil && j.ReuseAsFuzzy[lang] {
		return true
	}
	notFuzzy := j.ReuseAsNotFuzzy != nil && j.ReuseAsNotFuzzy[lang]
	return j.ReuseAsFuzzyDefault && !notFuzzy
}
