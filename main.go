// locasync — localization synchronization engine: keeps gettext-style TS
// files in sync with source code and regenerates localized output.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/locasync/config"
	"github.com/minios-linux/locasync/engine"
	"github.com/minios-linux/locasync/hooks"
	"github.com/minios-linux/locasync/i18n"
	"github.com/minios-linux/locasync/parser"
	"github.com/minios-linux/locasync/store"
	"github.com/minios-linux/locasync/tsfile"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locasync",
		Short: i18n.T("Localization synchronization engine"),
		Long: i18n.T(`locasync — keeps gettext-style TS files in sync with source code.

Auto-detects a project's source directory and TS file root, or reads an
explicit .locasync.yaml. Running a job scans the source tree, reconciles
renames, extracts translatable strings, ingests edited TS files, and
regenerates TS files and localized output.

Commands:
  status      Show project info and translation statistics
  run         Run one synchronization job
  version     Show version information`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", i18n.T("Project root directory"))

	root.AddCommand(
		newStatusCmd(),
		newRunCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("locasync version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// status (read-only: project info + translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show project info and translation statistics"),
		Long: i18n.T(`Show auto-detected project structure and translation statistics.

Displays the detected source directory, TS file root, destination
languages, and per-language translation progress. Does not modify any
files or open the store for writing.`),
		Run: func(cmd *cobra.Command, args []string) {
			runStatus()
		},
	}
}

func runStatus() {
	proj := config.Detect(rootDir)

	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Project"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	fmt.Fprintf(os.Stderr, "  Name:       %s\n", proj.Name)
	fmt.Fprintf(os.Stderr, "  Version:    %s\n", proj.Version)
	fmt.Fprintf(os.Stderr, "  Root:       %s\n", proj.Root)
	fmt.Fprintf(os.Stderr, "  Source dir: %s\n", proj.SourceDir)
	fmt.Fprintf(os.Stderr, "  TS dir:     %s\n", proj.TSDir)
	fmt.Fprintf(os.Stderr, "  Output dir: %s\n", proj.OutputDir)
	if len(proj.Include) > 0 {
		fmt.Fprintf(os.Stderr, "  Include:    %s\n", strings.Join(proj.Include, ", "))
	}

	fmt.Fprintln(os.Stderr)

	if len(proj.Languages) > 0 {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", i18n.T("Languages"), strings.Join(proj.Languages, ", "))
	} else {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", i18n.T("Languages"), i18n.T("none detected (will use defaults)"))
	}

	fmt.Fprintln(os.Stderr)

	if len(proj.Languages) == 0 {
		logInfo("No languages detected. Run 'locasync run' after seeding a TS language directory, or configure one in .locasync.yaml.")
		return
	}

	showStatsTable(proj)
}

func showStatsTable(proj *config.Project) {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorBlue, i18n.T("Translation Statistics"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "\n%-10s %-12s %-10s %-10s %-8s\n", "Lang", "Translated", "Fuzzy", "Untrans.", "Percent")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))

	type langIssue struct {
		lang         string
		untranslated int
		fuzzy        int
	}
	var issues []langIssue

	for _, lang := range proj.Languages {
		total, translated, fuzzy, untranslated := aggregateTSStats(proj, lang)
		if total == 0 {
			fmt.Fprintf(os.Stderr, "%-10s %-12s %-10s %-10s %-8s\n", lang, "-", "-", "-", "-")
			continue
		}
		percent := translated * 100 / total
		fmt.Fprintf(os.Stderr, "%-10s %-12d %-10d %-10d %d%%\n", lang, translated, fuzzy, untranslated, percent)
		if untranslated > 0 || fuzzy > 0 {
			issues = append(issues, langIssue{lang, untranslated, fuzzy})
		}
	}

	fmt.Fprintln(os.Stderr, strings.Repeat("─", 52))

	if len(issues) > 0 {
		fmt.Fprintln(os.Stderr)
		logInfo("Translation gaps:")
		for _, issue := range issues {
			var parts []string
			if issue.untranslated > 0 {
				parts = append(parts, fmt.Sprintf("%d untranslated", issue.untranslated))
			}
			if issue.fuzzy > 0 {
				parts = append(parts, fmt.Sprintf("%d fuzzy", issue.fuzzy))
			}
			fmt.Fprintf(os.Stderr, "  %s: %s\n", issue.lang, strings.Join(parts, ", "))
		}
	}

	fmt.Fprintln(os.Stderr)
}

// aggregateTSStats walks every TS file under a language's TS directory
// and sums tsfile.File.Stats() across them, the way showStatsTable's
// teacher counterpart summed a single pot-wide pofile.File.Stats().
func aggregateTSStats(proj *config.Project, lang string) (total, translated, fuzzy, untranslated int) {
	langDir := filepath.Join(proj.TSDir, lang)
	_ = filepath.Walk(langDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() || !strings.HasSuffix(path, ".ts") {
			return nil
		}
		fh, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer fh.Close()
		res, err := tsfile.Parse(fh)
		if err != nil || res.File == nil {
			return nil
		}
		t, tr, fz, un := res.File.Stats()
		total += t
		translated += tr
		fuzzy += fz
		untranslated += un
		return nil
	})
	return total, translated, fuzzy, untranslated
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

func newRunCmd() *cobra.Command {
	var (
		langs                string
		keywords             string
		noLocalize           bool
		outputOnly           bool
		rebuildTS            bool
		reuseTranslations    bool
		reuseUncertain       bool
		reuseAsFuzzyDefault  bool
		disableOptimizations bool
		storePath            string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: i18n.T("Run one synchronization job"),
		Long: i18n.T(`Run one synchronization job.

Scans the source tree, reconciles file renames, extracts translatable
strings, ingests edited TS files, and regenerates TS files and localized
output. Safe to run repeatedly: a second run with no source or TS file
changes is a no-op (spec idempotence).`),
		Run: func(cmd *cobra.Command, args []string) {
			runJob(runArgs{
				langs: langs, keywords: keywords,
				noLocalize: noLocalize, outputOnly: outputOnly, rebuildTS: rebuildTS,
				reuseTranslations: reuseTranslations, reuseUncertain: reuseUncertain,
				reuseAsFuzzyDefault: reuseAsFuzzyDefault, disableOptimizations: disableOptimizations,
				storePath: storePath,
			})
		},
	}

	cmd.Flags().StringVar(&langs, "lang", "", i18n.T("Destination languages (comma-separated, default: auto-detected)"))
	cmd.Flags().StringVar(&keywords, "keyword", "", i18n.T("xgettext-style keyword specs, comma-separated (default: T)"))
	cmd.Flags().BoolVar(&noLocalize, "no-localize", false, i18n.T("Skip localized file emission (TS files only)"))
	cmd.Flags().BoolVar(&outputOnly, "output-only", false, i18n.T("Skip TS ingestion and emission; only regenerate localized files from what the store already holds"))
	cmd.Flags().BoolVar(&rebuildTS, "rebuild-ts", false, i18n.T("Force TS file regeneration even when the USN is unchanged"))
	cmd.Flags().BoolVar(&reuseTranslations, "reuse-translations", true, i18n.T("Reuse matching translations found elsewhere in the project"))
	cmd.Flags().BoolVar(&reuseUncertain, "reuse-uncertain", false, i18n.T("Reuse a translation even when multiple distinct variants exist"))
	cmd.Flags().BoolVar(&reuseAsFuzzyDefault, "reuse-as-fuzzy", true, i18n.T("Mark reused translations fuzzy by default"))
	cmd.Flags().BoolVar(&disableOptimizations, "disable-optimizations", false, i18n.T("Force a full reconciliation pass, ignoring the job fingerprint"))
	cmd.Flags().StringVar(&storePath, "store", "", i18n.T("Path to the persistent store database (default: <ts dir>/.locasync.db)"))

	return cmd
}

type runArgs struct {
	langs, keywords                                        string
	noLocalize, outputOnly, rebuildTS                      bool
	reuseTranslations, reuseUncertain, reuseAsFuzzyDefault bool
	disableOptimizations                                   bool
	storePath                                              string
}

func runJob(a runArgs) {
	proj := config.Detect(rootDir)

	destLangs := proj.Languages
	if a.langs != "" {
		destLangs = strings.Split(a.langs, ",")
	}
	if len(destLangs) == 0 {
		logError("No destination languages detected. Pass --lang ru,de,fr or configure languages in .locasync.yaml.")
		os.Exit(1)
	}

	keywordSpecs := []string{"T"}
	if a.keywords != "" {
		keywordSpecs = strings.Split(a.keywords, ",")
	}

	if err := os.MkdirAll(proj.TSDir, 0755); err != nil {
		logError("Creating TS directory %s: %v", proj.TSDir, err)
		os.Exit(1)
	}

	dbPath := a.storePath
	if dbPath == "" {
		dbPath = filepath.Join(proj.TSDir, ".locasync.db")
	}

	s, err := store.Open(dbPath)
	if err != nil {
		logError("Opening store %s: %v", dbPath, err)
		os.Exit(1)
	}
	defer s.Close()

	j := &engine.Job{
		Namespace:  proj.Name,
		ID:         "default",
		SourceDir:  proj.SourceDir,
		TSRoot:     proj.TSDir,
		OutputRoot: proj.OutputDir,

		SourceLang:    firstNonEmpty(proj.SourceLang, "en"),
		DestLanguages: destLangs,

		Store:  s,
		Parser: parser.NewGoParser(keywordSpecs),
		Hooks:  hooks.New(),

		Include: proj.Include,
		Exclude: proj.Exclude,

		DebugNosaveLoc:       a.noLocalize,
		OutputOnlyMode:       a.outputOnly,
		RebuildTSFiles:       a.rebuildTS,
		DisableOptimizations: a.disableOptimizations,

		ReuseTranslations:   a.reuseTranslations,
		ReuseUncertain:      a.reuseUncertain,
		ReuseAsFuzzyDefault: a.reuseAsFuzzyDefault,

		EngineVersion: version,

		Reporter: &cliReporter{},
	}

	logInfo("Running job for %s (source: %s, ts: %s)", proj.Name, proj.SourceDir, proj.TSDir)
	logInfo("Languages: %s", strings.Join(destLangs, ", "))

	if err := engine.RunJob(j); err != nil {
		if abortErr := s.Abort(); abortErr != nil {
			logWarning("Aborting store transaction: %v", abortErr)
		}
		logError("Job failed: %v", err)
		os.Exit(1)
	}

	if err := s.Commit(); err != nil {
		logError("Committing store: %v", err)
		os.Exit(1)
	}

	logSuccess("Job complete!")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// cliReporter implements engine.Reporter on top of the colored stderr
// helpers, the way main.go's old runTranslate callbacks wrote directly
// to logInfo/logWarning/logError.
type cliReporter struct{}

func (r *cliReporter) Info(format string, args ...any)  { logInfo(format, args...) }
func (r *cliReporter) Warn(format string, args ...any)  { logWarning(format, args...) }
func (r *cliReporter) Error(format string, args ...any) { logError(format, args...) }
