package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/minios-linux/locasync/normalize"
	"github.com/minios-linux/locasync/store"
)

// skipDirs mirrors extract.skipDirs: directories no source scan should
// ever descend into, regardless of include/exclude patterns.
var skipDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
	"node_modules": true, "__pycache__": true,
	".venv": true, "venv": true, "vendor": true,
}

// scanResult classifies every relative path the walk found against what
// the store already knows for this (namespace, job): new, no-longer-
// orphaned, or an orphaned candidate.
type scanResult struct {
	newPaths            []string            // not in the store at all
	reappeared          []string            // in the store, was orphaned, file exists again unchanged path
	orphanCandidates    []*store.File       // in the store, not seen this walk
	unchangedExisting   []*store.File       // in the store, seen this walk, already non-orphaned
	sizeByPath          map[string]int64
	contentHashByPath   map[string]string
	normalizedByPath    map[string]string
}

// findSources walks j.SourceDir, applying include/exclude glob patterns
// and the rewrite_path hook, the way extract.FindSources walks dirs for
// xgettext but generalized to arbitrary include/exclude globs instead of
// a fixed extension table: apply include/exclude patterns, then
// rewrite_path.
func findSources(j *Job) ([]string, error) {
	var relPaths []string

	err := filepath.Walk(j.SourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(j.SourceDir, path)
		if err != nil {
			return nil
		}

		if !matchesAny(rel, j.Include) || matchesAny(rel, j.Exclude) {
			return nil
		}

		rel = j.Hooks.FireRewritePath(rel)
		relPaths = append(relPaths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", j.SourceDir, err)
	}

	sort.Strings(relPaths)
	return relPaths, nil
}

func matchesAny(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}

// reconcileScan walks the source tree, classifies each discovered path,
// detects renames by grouping orphaned/new files by size and then by
// content hash (grounded on merge.mergeFlags's matched-set bookkeeping,
// generalized from PO-entry matching to file-identity matching), and
// leaves every non-orphaned-or-renamed store file that wasn't seen this
// walk newly orphaned — unless the job is running in output_only_mode,
// in which case orphan flags are left exactly as they are.
func reconcileScan(j *Job) (*scanResult, error) {
	relPaths, err := findSources(j)
	if err != nil {
		return nil, err
	}

	storeFiles, err := j.Store.FilesForJob(j.Namespace, j.ID)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]*store.File, len(storeFiles))
	for _, f := range storeFiles {
		byPath[f.RelPath] = f
	}

	res := &scanResult{
		sizeByPath:        make(map[string]int64),
		contentHashByPath: make(map[string]string),
		normalizedByPath:  make(map[string]string),
	}

	seen := make(map[string]bool, len(relPaths))
	var candidateNew []string // paths with no store row at this path

	for _, rel := range relPaths {
		if !j.Hooks.FireCanProcessSourceFile(rel) {
			continue
		}
		if j.Hooks.FireIsFileOrphaned(rel) {
			continue // a handler forces this file to be treated as orphaned/absent
		}
		seen[rel] = true

		abs := filepath.Join(j.SourceDir, rel)
		raw, err := os.ReadFile(abs)
		if err != nil {
			j.Reporter.Warn("skipping unreadable file %s: %v", rel, err)
			continue
		}

		text, _, err := normalize.ReadAndNormalize(raw)
		if err != nil {
			j.Reporter.Warn("skipping undecodable file %s: %v", rel, err)
			continue
		}
		text, ok := j.Hooks.FireAfterLoadSourceFile(abs, text)
		if !ok {
			continue
		}

		res.sizeByPath[rel] = int64(len(text))
		res.contentHashByPath[rel] = normalize.Hash(text)
		res.normalizedByPath[rel] = text

		if f, known := byPath[rel]; known {
			if f.Orphaned {
				res.reappeared = append(res.reappeared, rel)
			} else {
				res.unchangedExisting = append(res.unchangedExisting, f)
			}
			continue
		}
		candidateNew = append(candidateNew, rel)
	}

	var stillOrphaned []*store.File
	for _, f := range storeFiles {
		if !seen[f.RelPath] {
			stillOrphaned = append(stillOrphaned, f)
		}
	}

	renamedNew, renamedFrom := detectRenames(j, candidateNew, stillOrphaned, res)

	renamedSet := make(map[string]bool, len(renamedFrom))
	for _, f := range renamedFrom {
		renamedSet[f.ID] = true
	}
	for _, f := range stillOrphaned {
		if !renamedSet[f.ID] {
			res.orphanCandidates = append(res.orphanCandidates, f)
		}
	}

	for _, rel := range candidateNew {
		if !renamedNewSet(renamedNew)[rel] {
			res.newPaths = append(res.newPaths, rel)
		}
	}

	return res, nil
}

func renamedNewSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}

// detectRenames groups newly-discovered paths and still-orphaned store
// files by size, then by content hash within each size bucket, pairing
// off one-to-one matches as renames: group new and orphaned files by
// size, then within a size bucket hash content — a new file and an
// orphaned file sharing a hash is treated as a rename, preserving Item
// and Translation identity. Ambiguous buckets (more than one candidate
// on either side) are left alone: every file in them is treated as a
// plain new/orphaned pair instead of guessed at.
func detectRenames(j *Job, newPaths []string, orphaned []*store.File, res *scanResult) (matchedNew []string, matchedOld []*store.File) {
	newBySize := make(map[int64][]string)
	for _, p := range newPaths {
		newBySize[res.sizeByPath[p]] = append(newBySize[res.sizeByPath[p]], p)
	}

	oldBySize := make(map[int64][]*store.File)
	for _, f := range orphaned {
		sizeStr, _ := j.Store.Property(store.SizeKey(f.ID))
		var size int64
		fmt.Sscanf(sizeStr, "%d", &size)
		oldBySize[size] = append(oldBySize[size], f)
	}

	for size, newCandidates := range newBySize {
		oldCandidates := oldBySize[size]
		if len(oldCandidates) == 0 {
			continue
		}

		newByHash := make(map[string][]string)
		for _, p := range newCandidates {
			newByHash[res.contentHashByPath[p]] = append(newByHash[res.contentHashByPath[p]], p)
		}
		oldByHash := make(map[string][]*store.File)
		for _, f := range oldCandidates {
			hash, _ := j.Store.Property(store.FileHashKey(f.ID))
			oldByHash[hash] = append(oldByHash[hash], f)
		}

		for hash, newPathsAtHash := range newByHash {
			oldFilesAtHash := oldByHash[hash]
			if len(newPathsAtHash) != 1 || len(oldFilesAtHash) != 1 {
				continue // ambiguous: more than one candidate, don't guess
			}

			newPath := newPathsAtHash[0]
			oldFile := oldFilesAtHash[0]
			if err := j.Store.RenameFile(oldFile.ID, newPath); err != nil {
				j.Reporter.Warn("renaming %s -> %s: %v", oldFile.RelPath, newPath, err)
				continue
			}
			if err := j.Store.SetFileOrphaned(oldFile.ID, false); err != nil {
				j.Reporter.Warn("un-orphaning renamed file %s: %v", newPath, err)
			}
			j.Reporter.Info("detected rename: %s -> %s", oldFile.RelPath, newPath)
			matchedNew = append(matchedNew, newPath)
			matchedOld = append(matchedOld, oldFile)
		}
	}
	return matchedNew, matchedOld
}
