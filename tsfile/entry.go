// Package tsfile implements the translation interchange file (TS) format:
// a gettext-PO-like text representation with its own reference lines
// (`#: File:`, `#: ID:`) in place of gettext's bare `#: path:line`. It is
// adapted from pofile.File/Entry (the teacher's PO reader/writer): same
// scanner-driven, line-prefix-dispatch parser shape, generalized for this
// project's reference format, key validation, and 76-column wrap.
package tsfile

import "crypto/md5"
import "encoding/hex"

// Entry is a single translation unit. Unlike pofile.Entry it carries an
// explicit FileRef/Key pair (`#: File:`/`#: ID:` lines) instead of
// free-form source references. It has no item-comment field: an item-level
// comment set by rewrite_parsed_ts_file_item travels in
// hooks.TSFileItemParams.ItemComment and is stored on the Item.
type Entry struct {
	TranslatorComments []string // "# ..." lines
	DevComments        []string // "#. ..." lines: hint + add_dev_comment contributions + item comment
	FileRef            string   // from "#: File: <path>"
	Key                string   // from "#: ID: <key>"
	Flags              []string // from "#, a, b" (includes "fuzzy")

	MsgCtxt      string
	MsgID        string
	MsgIDPlural  string
	MsgStr       string
	MsgStrPlural map[int]string
}

// IsFuzzy reports whether the entry carries the fuzzy flag.
func (e *Entry) IsFuzzy() bool {
	for _, f := range e.Flags {
		if f == "fuzzy" {
			return true
		}
	}
	return false
}

// SetFuzzy adds or removes the fuzzy flag.
func (e *Entry) SetFuzzy(fuzzy bool) {
	if fuzzy {
		if !e.IsFuzzy() {
			e.Flags = append(e.Flags, "fuzzy")
		}
		return
	}
	filtered := e.Flags[:0:0]
	for _, f := range e.Flags {
		if f != "fuzzy" {
			filtered = append(filtered, f)
		}
	}
	e.Flags = filtered
}

// IsPlural reports whether the entry carries a plural form.
func (e *Entry) IsPlural() bool {
	return e.MsgIDPlural != ""
}

// PluralSep is the separator a plural string's singular and plural forms
// are joined with to form the single text a String/Translation row
// stores: msgid/msgid_plural split apart on it for display, and the
// disambiguation key is computed against the joined form.
const PluralSep = "\x1F"

// TextKey returns the text an entry's #: ID: key is computed against: the
// bare msgid, or msgid and msgid_plural joined by PluralSep when the entry
// is plural, matching how a plural String's text is stored.
func (e *Entry) TextKey() string {
	if e.IsPlural() {
		return e.MsgID + PluralSep + e.MsgIDPlural
	}
	return e.MsgID
}

// TranslationText joins a plural entry's msgstr[N] forms by index into the
// same PluralSep-joined form a Translation row stores; for a non-plural
// entry it's just MsgStr.
func (e *Entry) TranslationText() string {
	if !e.IsPlural() {
		return e.MsgStr
	}
	if len(e.MsgStrPlural) == 0 {
		return ""
	}
	maxIdx := 0
	for idx := range e.MsgStrPlural {
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	parts := make([]string, maxIdx+1)
	for idx, v := range e.MsgStrPlural {
		parts[idx] = v
	}
	joined := ""
	for i, p := range parts {
		if i > 0 {
			joined += PluralSep
		}
		joined += p
	}
	return joined
}

// File is a parsed TS file: a header entry (msgid "") plus the ordered
// translation entries that followed it.
type File struct {
	Header  *Entry
	Entries []*Entry
}

// NewFile returns an empty TS file with a blank header.
func NewFile() *File {
	return &File{Header: &Entry{MsgID: "", MsgStr: ""}}
}

// Stats mirrors pofile.File.Stats: counts of translated/fuzzy/untranslated
// entries, used by the "locasync status" CLI surface.
func (f *File) Stats() (total, translated, fuzzy, untranslated int) {
	for _, e := range f.Entries {
		if e.MsgID == "" {
			continue
		}
		total++
		switch {
		case e.IsFuzzy():
			fuzzy++
		case e.isTranslated():
			translated++
		default:
			untranslated++
		}
	}
	return
}

func (e *Entry) isTranslated() bool {
	if e.IsFuzzy() {
		return false
	}
	if e.IsPlural() {
		if len(e.MsgStrPlural) == 0 {
			return false
		}
		for _, v := range e.MsgStrPlural {
			if v == "" {
				return false
			}
		}
		return true
	}
	return e.MsgStr != ""
}

// Key computes the disambiguation/validation key for (text, context): MD5
// hex of the two fields joined by a NUL separator. The regenerated key
// for a parsed (string, context) must equal the key an entry carries for
// the entry to be accepted.
func Key(text, context string) string {
	sum := md5.Sum([]byte(text + "\x00" + context))
	return hex.EncodeToString(sum[:])
}
