package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/minios-linux/locasync/normalize"
	"github.com/minios-linux/locasync/parser"
	"github.com/minios-linux/locasync/store"
)

// localizeFile renders one localized output for (file, lang). force comes
// from the TS emission decision: when the TS file's USN changed this run,
// the localized output must be considered stale even if its own
// mtime/hash gate would otherwise say skip.
//
// debug_nosave_loc suppresses only this write, leaving TS emission alone;
// it exists to let a translator preview extraction/ingestion without
// touching the working tree's localized output.
func localizeFile(j *Job, fileID, lang string, force bool) error {
	if j.DebugNosaveLoc {
		return nil
	}

	f, err := j.Store.GetFile(fileID)
	if err != nil {
		return err
	}

	srcAbs := filepath.Join(j.SourceDir, f.RelPath)
	outAbs := filepath.Join(j.OutputRoot, lang, f.RelPath)

	targetHashKey := store.TargetHashKey(fileID, j.ID, lang)
	targetMtimeKey := store.TargetMtimeKey(fileID, j.ID, lang)
	sourceTargetKey := store.SourceTargetKey(fileID, j.ID, lang)
	tsTargetKey := store.SourceTSTargetKey(fileID, j.ID, lang)

	if !force {
		info, statErr := os.Stat(outAbs)
		if statErr == nil {
			storedMtime, _ := j.Store.Property(targetMtimeKey)
			storedSourceHash, _ := j.Store.Property(sourceTargetKey)
			storedTSHash, _ := j.Store.Property(tsTargetKey)
			currentSourceHash, _ := j.Store.Property(store.SourceHashKey(fileID))
			currentTSHash, _ := j.Store.Property(store.TSHashKey(fileID, lang))

			if storedMtime == strconv.FormatInt(info.ModTime().UnixNano(), 10) &&
				storedSourceHash == currentSourceHash && storedTSHash == currentTSHash {
				return nil
			}
		}
	}

	raw, err := os.ReadFile(srcAbs)
	if err != nil {
		return fmt.Errorf("re-reading source %s: %w", f.RelPath, err)
	}
	text, _, err := normalize.ReadAndNormalize(raw)
	if err != nil {
		return fmt.Errorf("decoding source %s: %w", f.RelPath, err)
	}
	text, ok := j.Hooks.FireAfterLoadSourceFile(srcAbs, text)
	if !ok {
		return nil
	}

	seenKeys := make(map[string]bool)
	seenSourceKeys := make(map[string]bool)
	rendered, err := j.Parser.Render([]byte(text), lang, func(c *parser.Call) string {
		return renderTranslation(j, fileID, f.RelPath, lang, c, seenKeys, seenSourceKeys)
	})
	if err != nil {
		return fmt.Errorf("rendering %s for %s: %w", f.RelPath, lang, err)
	}

	encoded, err := normalize.EncodeOutput(string(rendered), normalize.Encoding(j.OutputEncodingName), j.OutputBOM)
	if err != nil {
		return fmt.Errorf("encoding output for %s/%s: %w", f.RelPath, lang, err)
	}
	newHash := normalize.Hash(string(encoded))

	storedHash, _ := j.Store.Property(targetHashKey)
	info, statErr := os.Stat(outAbs)
	mtimeChanged := statErr != nil
	if statErr == nil {
		storedMtime, _ := j.Store.Property(targetMtimeKey)
		mtimeChanged = storedMtime != strconv.FormatInt(info.ModTime().UnixNano(), 10)
	}

	if !force && storedHash == newHash && !mtimeChanged {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(outAbs), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outAbs, encoded, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outAbs, err)
	}

	info, err = os.Stat(outAbs)
	if err != nil {
		return err
	}

	currentSourceHash, _ := j.Store.Property(store.SourceHashKey(fileID))
	currentTSHash, _ := j.Store.Property(store.TSHashKey(fileID, lang))

	if err := j.Store.SetProperty(targetHashKey, newHash); err != nil {
		return err
	}
	if err := j.Store.SetProperty(targetMtimeKey, strconv.FormatInt(info.ModTime().UnixNano(), 10)); err != nil {
		return err
	}
	if err := j.Store.SetProperty(sourceTargetKey, currentSourceHash); err != nil {
		return err
	}
	return j.Store.SetProperty(tsTargetKey, currentTSHash)
}

// renderTranslation is the Parser.Render callback: it normalizes and
// disambiguates identically to extraction (so a file that emitted the
// same text twice under synthesized contexts resolves each occurrence
// back to its own item instead of both colliding onto the first one),
// resolves a translation falling back to the original text, runs
// rewrite_translation (re-NFC if it mutated), then honors a "pad" flag.
func renderTranslation(j *Job, fileID, rel, lang string, c *parser.Call, seenKeys, seenSourceKeys map[string]bool) string {
	text := c.Text
	if j.NormalizeStrings {
		text = normalize.Whitespace(text)
	}
	context := disambiguateContext(j, rel, text, c.Context, c.SourceKey, c.Hint, seenKeys, seenSourceKeys)

	stringID, err := j.Store.GetStringID(text, context, true)
	if err != nil || stringID == "" {
		return c.Text
	}
	itemID, err := j.Store.GetItemID(fileID, stringID, true)
	if err != nil || itemID == "" {
		return c.Text
	}

	translated, _, err := applyTranslation(j, itemID, lang)
	if err != nil || translated == "" {
		return c.Text
	}

	if j.Hooks.FireRewriteTranslation(&translated) {
		translated = norm.NFC.String(translated)
	}

	for _, flag := range c.Flags {
		if width, ok := padWidth(flag); ok && width > len(translated) {
			translated += strings.Repeat(" ", width-len(translated))
		}
	}
	return translated
}

func padWidth(flag string) (int, bool) {
	const prefix = "pad:"
	if !strings.HasPrefix(flag, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(flag, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}
