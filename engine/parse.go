package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minios-linux/locasync/hooks"
	"github.com/minios-linux/locasync/normalize"
	"github.com/minios-linux/locasync/parser"
	"github.com/minios-linux/locasync/store"
	"github.com/minios-linux/locasync/tsfile"
)

// parseFile resolves a File's items against its current content: a fast
// path skips re-extraction entirely when the file's normalized content
// hash matches what was recorded at the last parse and optimizations are
// trusted this run; otherwise it runs the configured Parser, disambiguates
// each occurrence against the store, and reconciles the file's Item set so
// items no longer emitted become orphaned and items seen again become
// non-orphaned. In output_only_mode, files are never created here (and
// orphan flags are never flipped) — the file must already be in the
// store from an earlier non-output-only run.
func parseFile(j *Job, rel, normalizedText string, optimizationsOK bool) (skipped bool, err error) {
	fileID, err := j.Store.GetFileID(j.Namespace, j.ID, rel, j.OutputOnlyMode)
	if err != nil {
		return false, fmt.Errorf("resolving file %s: %w", rel, err)
	}
	if fileID == "" {
		return false, nil
	}
	if !j.OutputOnlyMode {
		if err := j.Store.SetFileOrphaned(fileID, false); err != nil {
			return false, err
		}
	}

	contentHash := normalize.Hash(normalizedText)
	if err := j.Store.SetProperty(store.FileHashKey(fileID), contentHash); err != nil {
		return false, err
	}
	if err := j.Store.SetProperty(store.SizeKey(fileID), strconv.Itoa(len(normalizedText))); err != nil {
		return false, err
	}

	if optimizationsOK {
		if prev, ok := j.Store.Property(store.SourceHashKey(fileID)); ok && prev == contentHash {
			return true, nil // nothing changed since last parse; item set and order stand
		}
	}

	oldItemIDs, _ := j.Store.Property(store.ItemsKey(fileID))
	oldSet := make(map[string]bool)
	for _, id := range splitItemsKey(oldItemIDs) {
		oldSet[id] = true
	}

	var newOrder []string
	newSet := make(map[string]bool)
	seenKeys := make(map[string]bool)
	seenSourceKeys := make(map[string]bool)

	extractErr := j.Parser.Extract([]byte(normalizedText), func(c *parser.Call) {
		text := c.Text
		if j.NormalizeStrings {
			text = normalize.Whitespace(text)
		}

		es := &hooks.ExtractedString{Text: text, Context: c.Context, Hint: c.Hint, Flags: c.Flags, SourceKey: c.SourceKey}
		if !j.Hooks.FireCanExtract(es) {
			return
		}

		es.Context = disambiguateContext(j, rel, es.Text, es.Context, es.SourceKey, es.Hint, seenKeys, seenSourceKeys)

		stringID, err := j.Store.GetStringID(es.Text, es.Context, false)
		if err != nil {
			j.Reporter.Error("resolving string in %s: %v", rel, err)
			return
		}
		itemID, err := j.Store.GetItemID(fileID, stringID, false)
		if err != nil {
			j.Reporter.Error("resolving item in %s: %v", rel, err)
			return
		}
		if err := j.Store.SetItemHint(itemID, es.Hint); err != nil {
			j.Reporter.Error("setting hint in %s: %v", rel, err)
		}

		newOrder = append(newOrder, itemID)
		newSet[itemID] = true
	})
	if extractErr != nil {
		return false, fmt.Errorf("extracting from %s: %w", rel, extractErr)
	}

	for id := range oldSet {
		if !newSet[id] && !j.OutputOnlyMode {
			if err := j.Store.SetItemOrphaned(id, true); err != nil {
				return false, err
			}
		}
	}
	for id := range newSet {
		if oldSet[id] && !j.OutputOnlyMode {
			if err := j.Store.SetItemOrphaned(id, false); err != nil {
				return false, err
			}
		}
	}

	if err := j.Store.SetProperty(store.ItemsKey(fileID), strings.Join(newOrder, ",")); err != nil {
		return false, err
	}
	return false, j.Store.SetProperty(store.SourceHashKey(fileID), contentHash)
}

func splitItemsKey(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// disambiguateContext resolves the context a newly extracted (text,
// context) occurrence should actually be stored under: if the key for the
// occurrence as given was already seen earlier in this file, the context
// is replaced, in order, by the occurrence's source_key, then its hint,
// then the original context with a numeric ".1", ".2", ... suffix, until
// the resulting key is unique within the file. seenKeys and
// seenSourceKeys are scoped to one file's parse. A source_key that repeats
// across two occurrences in the same file is warned about, independent of
// whether it ends up resolving a collision.
func disambiguateContext(j *Job, rel, text, context, sourceKey, hint string, seenKeys, seenSourceKeys map[string]bool) string {
	key := tsfile.Key(text, context)
	if !seenKeys[key] {
		seenKeys[key] = true
		recordSourceKey(j, rel, sourceKey, seenSourceKeys)
		return context
	}

	recordSourceKey(j, rel, sourceKey, seenSourceKeys)
	if sourceKey != "" {
		if !seenKeys[tsfile.Key(text, sourceKey)] {
			seenKeys[tsfile.Key(text, sourceKey)] = true
			return sourceKey
		}
	}
	if hint != "" {
		if !seenKeys[tsfile.Key(text, hint)] {
			seenKeys[tsfile.Key(text, hint)] = true
			return hint
		}
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d", context, n)
		if !seenKeys[tsfile.Key(text, candidate)] {
			seenKeys[tsfile.Key(text, candidate)] = true
			return candidate
		}
	}
}

// recordSourceKey tracks source_keys seen so far in the current file,
// warning if the same source_key was already seen once.
func recordSourceKey(j *Job, rel, sourceKey string, seen map[string]bool) {
	if sourceKey == "" {
		return
	}
	if seen[sourceKey] {
		j.Reporter.Warn("%s: duplicate source_key %q", rel, sourceKey)
	}
	seen[sourceKey] = true
}

// disambiguateKey resolves the tsfile key for (text, context), applying
// the collision policy: on a hash collision between two distinct (text,
// context) pairs — practically unobservable with MD5, but the policy
// exists to define a total order — fall back first to
// source_key, then hint, then a numeric suffix. By the time this runs at
// emission time, parse-time disambiguation (disambiguateContext) has
// already made every item's (text, context) unique within its file, so
// this only guards against a repeated item id surviving
// orderedItemsForFile's own dedup (tsemit.go) and the degenerate MD5
// collision case the spec's policy exists to define a total order for.
func disambiguateKey(text, context, sourceKey, hint string, taken map[string]bool) string {
	key := tsfile.Key(text, context)
	if !taken[key] {
		return key
	}
	if sourceKey != "" {
		withSource := tsfile.Key(text+"\x00"+sourceKey, context)
		if !taken[withSource] {
			return withSource
		}
	}
	if hint != "" {
		withHint := tsfile.Key(text+"\x00"+hint, context)
		if !taken[withHint] {
			return withHint
		}
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d", key, n)
		if !taken[candidate] {
			return candidate
		}
	}
}
