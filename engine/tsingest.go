package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/locasync/hooks"
	"github.com/minios-linux/locasync/normalize"
	"github.com/minios-linux/locasync/store"
	"github.com/minios-linux/locasync/tsfile"
)

// ingestTSFile applies a single (file, lang) TS file's contents to the
// store. A file whose expected item count is zero has nothing to ingest
// and is skipped outright. Otherwise, when optimizations are
// trusted, a fast path gates on the TS file's content hash against the
// hash recorded at its last ingest or emission, skipping the read/parse
// pass entirely when nothing changed. tsfile.Parse already performs
// validation steps 1-2 (header/empty-block handling, stale-key
// detection); the remaining store-dependent steps are: resolve each
// entry's String and Item, dropping it if either no longer exists (the
// entry refers to text the current source no longer has, i.e. it's stale
// in a way a key check alone can't catch); honor the merge one-shot-ignore
// flag; coerce an empty translation's fuzzy flag off; and skip the write
// entirely when nothing changed, so USN stays put and TS emission doesn't
// loop. The TS file's hash is recorded at the end so the next run's fast
// path can fire.
func ingestTSFile(j *Job, fileID, lang string, optimizationsOK bool) error {
	f, err := j.Store.GetFile(fileID)
	if err != nil {
		return err
	}

	itemsProp, _ := j.Store.Property(store.ItemsKey(fileID))
	if len(splitItemsKey(itemsProp)) == 0 {
		return nil // nothing extracted from this file; no TS entries expected
	}

	path := tsPath(j, f.RelPath, lang)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening ts file %s: %w", path, err)
	}
	text := string(data)

	hashKey := store.TSHashKey(fileID, lang)
	hash := normalize.Hash(text)
	if optimizationsOK {
		if prev, ok := j.Store.Property(hashKey); ok && prev == hash {
			return nil
		}
	}

	result, err := tsfile.Parse(strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("parsing ts file %s: %w", path, err)
	}
	for _, w := range result.Warnings {
		j.Reporter.Warn("%s: %s", path, w)
	}
	if result.Truncated {
		j.Reporter.Warn("%s: parsing stopped early on a malformed block", path)
	}

	for _, e := range result.File.Entries {
		if err := applyTSEntry(j, fileID, lang, e); err != nil {
			j.Reporter.Error("%s: applying entry %q: %v", path, e.MsgID, err)
		}
	}

	return j.Store.SetProperty(hashKey, hash)
}

func applyTSEntry(j *Job, fileID, lang string, e *tsfile.Entry) error {
	params := &hooks.TSFileItemParams{
		Translation: e.TranslationText(),
		Comment:     joinComments(e.TranslatorComments),
		Fuzzy:       e.IsFuzzy(),
	}
	j.Hooks.FireRewriteParsedTSFileItem(params)

	if params.Translation == "" && params.Fuzzy {
		params.Fuzzy = false
	}

	stringID, err := j.Store.GetStringID(e.TextKey(), e.MsgCtxt, true)
	if err != nil {
		return err
	}
	if stringID == "" {
		return nil // string no longer exists in the current source; stale entry
	}
	str, err := j.Store.GetString(stringID)
	if err != nil {
		return err
	}
	if str.Skip {
		return nil
	}
	itemID, err := j.Store.GetItemID(fileID, stringID, true)
	if err != nil {
		return err
	}
	if itemID == "" {
		return nil // item no longer exists for this file; stale entry
	}

	if params.ItemComment != "" {
		if err := j.Store.SetItemComment(itemID, params.ItemComment); err != nil {
			return err
		}
	}

	existing, ok, err := j.Store.GetTranslation(itemID, lang)
	if err != nil {
		return err
	}
	if ok && existing.Merge {
		return j.Store.ClearTranslationMerge(itemID, lang)
	}
	if ok && existing.String == params.Translation && existing.Fuzzy == params.Fuzzy && existing.Comment == params.Comment {
		return nil // no-op: don't bump usn for unchanged content
	}

	_, err = j.Store.UpsertTranslation(itemID, lang, params.Translation, params.Fuzzy, params.Comment)
	return err
}

func joinComments(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// tsPath returns the on-disk path of the TS file for (relPath, lang)
// under the job's TS root, mirroring the source tree's relative layout
// with the language inserted as a directory: TS files live under a
// job-scoped root, one per (file, language).
func tsPath(j *Job, relPath, lang string) string {
	return filepath.Join(j.TSRoot, lang, relPath+".ts")
}
