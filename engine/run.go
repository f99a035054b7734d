package engine

import (
	"fmt"
	"strconv"

	"github.com/minios-linux/locasync/hooks"
	"github.com/minios-linux/locasync/store"
)

// RunJob drives one job through six phases: job prelude (fingerprint
// check), source reconciliation, parsing/disambiguation, TS ingestion, TS
// emission, and localized file emission, firing the matching
// before_*/after_job stage hooks around each. output_only_mode skips TS
// ingestion and TS emission outright and leaves orphan flags untouched,
// since the only thing it still needs out of the pipeline is localized
// output from whatever the store already holds. A fatal error at any
// stage aborts the run without committing the store; the caller is
// responsible for calling Store.Abort in that case.
func RunJob(j *Job) error {
	ctx := &hooks.StageContext{Namespace: j.Namespace, JobID: j.ID}

	if err := j.Hooks.FireBeforeJob(ctx); err != nil {
		return fmt.Errorf("before_job hook: %w", err)
	}

	optimizationsOK, err := checkFingerprint(j)
	if err != nil {
		return fmt.Errorf("checking job fingerprint: %w", err)
	}
	if !optimizationsOK {
		j.Reporter.Info("job fingerprint changed or optimizations disabled; running a full reconciliation")
	}

	if err := j.Hooks.FireBeforeUpdateDatabaseFromSourceFiles(ctx); err != nil {
		return fmt.Errorf("before_update_database_from_source_files hook: %w", err)
	}

	scan, err := reconcileScan(j)
	if err != nil {
		return fmt.Errorf("scanning source tree: %w", err)
	}

	skippedAtParse := make(map[string]bool)

	parseAndTrack := func(rel string) {
		text, ok := scan.normalizedByPath[rel]
		if !ok {
			return
		}
		skipped, err := parseFile(j, rel, text, optimizationsOK)
		if err != nil {
			j.Reporter.Error("parsing %s: %v", rel, err)
			return
		}
		if !skipped {
			return
		}
		if fileID, err := j.Store.GetFileID(j.Namespace, j.ID, rel, j.OutputOnlyMode); err == nil && fileID != "" {
			skippedAtParse[fileID] = true
		}
	}

	for _, rel := range scan.newPaths {
		parseAndTrack(rel)
	}
	for _, rel := range scan.reappeared {
		parseAndTrack(rel)
	}
	for _, f := range scan.unchangedExisting {
		parseAndTrack(f.RelPath)
	}

	if !j.OutputOnlyMode {
		for _, f := range scan.orphanCandidates {
			if err := j.Store.SetFileOrphaned(f.ID, true); err != nil {
				return fmt.Errorf("orphaning %s: %w", f.RelPath, err)
			}
			items, err := j.Store.ItemsForFile(f.ID)
			if err != nil {
				return err
			}
			for _, it := range items {
				if err := j.Store.SetItemOrphaned(it.ID, true); err != nil {
					return err
				}
			}
		}
	}

	if err := j.Hooks.FireBeforeUpdateDatabaseFromTSFile(ctx); err != nil {
		return fmt.Errorf("before_update_database_from_ts_file hook: %w", err)
	}

	allFiles, err := j.Store.FilesForJob(j.Namespace, j.ID)
	if err != nil {
		return fmt.Errorf("listing files: %w", err)
	}
	if err := j.Store.PreloadTranslationsForJob(j.Namespace, j.ID, j.DestLanguages); err != nil {
		return fmt.Errorf("preloading translations: %w", err)
	}

	modLangs := j.modifiedLanguages()
	if !j.OutputOnlyMode {
		for _, f := range allFiles {
			if f.Orphaned {
				continue
			}
			langs := j.DestLanguages
			if skippedAtParse[f.ID] {
				langs = modLangs
			}
			for _, lang := range langs {
				if err := ingestTSFile(j, f.ID, lang, optimizationsOK); err != nil {
					j.Reporter.Error("ingesting TS for %s/%s: %v", f.RelPath, lang, err)
				}
			}
		}
	}

	if err := j.Hooks.FireBeforeGenerateTSFiles(ctx); err != nil {
		return fmt.Errorf("before_generate_ts_files hook: %w", err)
	}

	for _, lang := range j.DestLanguages {
		if err := j.Store.PreloadStringsForLang(lang); err != nil {
			return fmt.Errorf("preloading strings for %s: %w", lang, err)
		}
	}

	usnForced := make(map[string]bool) // fileID+lang -> emission must force localize
	if !j.OutputOnlyMode {
		for _, f := range allFiles {
			if f.Orphaned {
				continue
			}
			langs := j.DestLanguages
			if skippedAtParse[f.ID] {
				langs = modLangs
			}
			for _, lang := range langs {
				beforeUSN, err := currentUSN(j, f.ID, lang)
				if err != nil {
					return err
				}
				storedUSN, hadUSN := j.Store.Property(store.USNKey(f.ID, lang))
				if err := emitTSFile(j, f.ID, lang, optimizationsOK); err != nil {
					j.Reporter.Error("emitting TS for %s/%s: %v", f.RelPath, lang, err)
					continue
				}
				if !hadUSN || storedUSN != strconv.FormatInt(beforeUSN, 10) {
					usnForced[f.ID+"\x00"+lang] = true
				}
			}
		}
	}

	if err := j.Hooks.FireBeforeGenerateLocalizedFiles(ctx); err != nil {
		return fmt.Errorf("before_generate_localized_files hook: %w", err)
	}

	for _, f := range allFiles {
		if f.Orphaned {
			continue
		}
		langs := j.DestLanguages
		if skippedAtParse[f.ID] {
			langs = modLangs
		}
		if j.OutputDefaultLangFile {
			langs = append(append([]string{}, langs...), j.SourceLang)
		}
		for _, lang := range langs {
			force := usnForced[f.ID+"\x00"+lang]
			if err := localizeFile(j, f.ID, lang, force); err != nil {
				j.Reporter.Error("localizing %s/%s: %v", f.RelPath, lang, err)
			}
		}
	}

	if err := j.Hooks.FireAfterJob(ctx); err != nil {
		return fmt.Errorf("after_job hook: %w", err)
	}
	return nil
}
