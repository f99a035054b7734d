package engine

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/minios-linux/locasync/normalize"
	"github.com/minios-linux/locasync/store"
	"github.com/minios-linux/locasync/tsfile"
)

const pluralSep = tsfile.PluralSep

// currentUSN computes the "current_usn" oracle TS emission gates on (spec
// §4.5): the highest USN over a file's own items/translations for lang,
// folded together with every similar-language rule's source languages when
// lang is itself a configured similar-language destination, so a fr-CA TS
// file regenerates when its fr source changes even though fr-CA's own rows
// didn't move.
func currentUSN(j *Job, fileID, lang string) (int64, error) {
	usn, err := j.Store.HighestUSNForFileLang(fileID, lang)
	if err != nil {
		return 0, err
	}
	for _, rule := range j.SimilarLanguages {
		if rule.Destination != lang {
			continue
		}
		for _, src := range rule.Sources {
			srcUSN, err := j.Store.HighestUSNForFileLang(fileID, src)
			if err != nil {
				return 0, err
			}
			if srcUSN > usn {
				usn = srcUSN
			}
		}
	}
	return usn, nil
}

// orderedItemsForFile resolves a file's items in the stored author order
// (from property items:<file_id>) rather than the store's own DB-order
// ItemsForFile, which has no ordering guarantee. A stored order that
// repeats an item id is deduplicated with a warning.
func orderedItemsForFile(j *Job, fileID string) ([]*store.Item, error) {
	raw, _ := j.Store.Property(store.ItemsKey(fileID))
	ids := splitItemsKey(raw)

	seen := make(map[string]bool, len(ids))
	items := make([]*store.Item, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			j.Reporter.Warn("file %s: item %s repeated in stored order, skipping repeat", fileID, id)
			continue
		}
		seen[id] = true
		it, err := j.Store.GetItem(id)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// emitTSFile regenerates the TS file for (file, lang) if needed (spec
// §4.5: "regenerate iff any of: optimizations off, rebuild_ts_files on,
// target file missing, or current_usn ≠ stored_usn"). When regeneration
// does run, the assembled text is itself hash-gated against the last
// write so an unchanged result (e.g. a no-op edit that still bumped an
// unrelated USN) doesn't touch the file's mtime.
func emitTSFile(j *Job, fileID, lang string, optimizationsOK bool) error {
	f, err := j.Store.GetFile(fileID)
	if err != nil {
		return err
	}

	usn, err := currentUSN(j, fileID, lang)
	if err != nil {
		return err
	}
	usnKey := store.USNKey(fileID, lang)
	path := tsPath(j, f.RelPath, lang)
	_, statErr := os.Stat(path)
	targetExists := statErr == nil

	if optimizationsOK && !j.RebuildTSFiles && targetExists {
		if prev, ok := j.Store.Property(usnKey); ok {
			if prevUSN, err := strconv.ParseInt(prev, 10, 64); err == nil && prevUSN == usn {
				return nil
			}
		}
	}

	items, err := orderedItemsForFile(j, fileID)
	if err != nil {
		return err
	}

	tf := tsfile.NewFile()
	tf.Header = tsfile.MakeHeader(lang, j.EngineVersion)

	taken := make(map[string]bool, len(items))
	for _, it := range items {
		str, err := j.Store.GetString(it.StringID)
		if err != nil {
			return err
		}
		if str.Skip {
			continue
		}

		translation, fuzzy, err := applyTranslation(j, it.ID, lang)
		if err != nil {
			return err
		}
		var comment string
		if t, ok, err := j.Store.GetTranslation(it.ID, lang); err != nil {
			return err
		} else if ok {
			comment = t.Comment
		}

		e := &tsfile.Entry{
			FileRef: f.RelPath,
			MsgCtxt: str.Context,
		}

		msgid, plural, isPlural := splitPlural(str.Text)
		e.MsgID = msgid
		if isPlural {
			e.MsgIDPlural = plural
			e.MsgStrPlural = make(map[int]string)
			for i, form := range strings.Split(translation, pluralSep) {
				e.MsgStrPlural[i] = form
			}
		} else {
			e.MsgStr = translation
		}

		e.Key = disambiguateKey(str.Text, str.Context, it.Hint, it.Hint, taken)
		taken[e.Key] = true

		e.SetFuzzy(fuzzy)
		if it.Hint != "" && it.Hint != str.Text {
			e.DevComments = append(e.DevComments, it.Hint)
		}
		e.DevComments = append(e.DevComments, j.Hooks.FireAddDevComment(it.ID)...)
		if it.Comment != "" {
			e.DevComments = append(e.DevComments, it.Comment)
		}
		if comment != "" {
			e.TranslatorComments = append(e.TranslatorComments, comment)
		}

		tf.Entries = append(tf.Entries, e)
	}

	var buf strings.Builder
	if err := tf.Write(&buf); err != nil {
		return err
	}
	text := buf.String()
	hash := normalize.Hash(text)

	hashKey := store.TSHashKey(fileID, lang)
	prevHash, hadHash := j.Store.Property(hashKey)
	changed := !optimizationsOK || j.RebuildTSFiles || !targetExists || !hadHash || prevHash != hash
	if changed {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := tf.WriteFile(path); err != nil {
			return err
		}
		if err := j.Store.SetProperty(hashKey, hash); err != nil {
			return err
		}
	}

	if err := j.Store.SetProperty(store.TSCountKey(fileID, lang), strconv.Itoa(len(tf.Entries))); err != nil {
		return err
	}
	return j.Store.SetProperty(usnKey, strconv.FormatInt(usn, 10))
}

// splitPlural separates a stored string's text into its singular and
// (if present) plural variants, joined with the same \x1F separator the
// reference Go parser uses for msgid/msgid_plural pairs.
func splitPlural(text string) (singular, plural string, isPlural bool) {
	idx := strings.Index(text, pluralSep)
	if idx < 0 {
		return text, "", false
	}
	return text[:idx], text[idx+len(pluralSep):], true
}
