package tsfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Result is what Parse returns: the file as far as it could be parsed,
// any per-block warnings, and whether a mid-file fatal condition (an
// empty-string block with no key) truncated parsing.
type Result struct {
	File      *File
	Warnings  []string
	Truncated bool
}

// Parse reads a TS file, splitting on blank lines into blocks and
// validating each. Blocks failing validation are dropped
// with a warning; the first empty-msgid block becomes the header; a later
// empty-msgid block with a key warns and is dropped, without a key it is
// fatal for the rest of the file.
func Parse(r io.Reader) (*Result, error) {
	raw, err := scanBlocks(r)
	if err != nil {
		return nil, err
	}

	res := &Result{File: NewFile()}
	haveHeader := false

	for _, e := range raw {
		if e.MsgID == "" {
			if !haveHeader {
				res.File.Header = e
				haveHeader = true
				continue
			}
			if e.Key != "" {
				res.Warnings = append(res.Warnings, "empty-string block with a key mid-file, dropped")
				continue
			}
			res.Warnings = append(res.Warnings, "empty-string block without a key mid-file, stopping")
			res.Truncated = true
			break
		}

		if len(e.TranslatorComments) == 0 && len(e.DevComments) == 0 &&
			e.MsgStr == "" && len(e.MsgStrPlural) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("block %q has no translation and no comment, dropped", e.MsgID))
			continue
		}

		if e.Key == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("block %q missing #: ID:, dropped", e.MsgID))
			continue
		}
		if want := Key(e.TextKey(), e.MsgCtxt); want != e.Key {
			res.Warnings = append(res.Warnings, fmt.Sprintf("block %q has stale key %s (want %s), dropped", e.MsgID, e.Key, want))
			continue
		}

		res.File.Entries = append(res.File.Entries, e)
	}

	return res, nil
}

// scanBlocks performs the line-level scan: sanitizing control characters,
// NFC-normalizing, joining quoted continuation lines, and dispatching by
// line prefix, in the manner of pofile.Parse.
func scanBlocks(r io.Reader) ([]*Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var entries []*Entry
	var current *Entry
	var lastField string
	var pendingIDContinuation bool

	flush := func() {
		if current != nil {
			entries = append(entries, current)
		}
		current = nil
		lastField = ""
		pendingIDContinuation = false
	}

	for scanner.Scan() {
		line := sanitizeLine(scanner.Text())

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			current = &Entry{MsgStrPlural: make(map[int]string)}
		}

		if pendingIDContinuation && strings.HasPrefix(line, "#:") {
			current.Key = strings.TrimSpace(strings.TrimPrefix(line, "#:"))
			pendingIDContinuation = false
			continue
		}
		pendingIDContinuation = false

		if strings.HasPrefix(line, "#:") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "#:"))
			switch {
			case strings.HasPrefix(rest, "File:"):
				current.FileRef = strings.TrimSpace(strings.TrimPrefix(rest, "File:"))
			case rest == "ID:":
				pendingIDContinuation = true
			case strings.HasPrefix(rest, "ID:"):
				current.Key = strings.TrimSpace(strings.TrimPrefix(rest, "ID:"))
			default:
				// Unknown reference form: keep as a file ref for tolerance.
				current.FileRef = rest
			}
			continue
		}

		if strings.HasPrefix(line, "#,") {
			for _, flag := range strings.Split(strings.TrimSpace(strings.TrimPrefix(line, "#,")), ",") {
				flag = strings.TrimSpace(flag)
				if flag != "" {
					current.Flags = append(current.Flags, flag)
				}
			}
			continue
		}

		if strings.HasPrefix(line, "#.") {
			current.DevComments = append(current.DevComments, strings.TrimSpace(strings.TrimPrefix(line, "#.")))
			continue
		}

		if strings.HasPrefix(line, "#") {
			comment := strings.TrimPrefix(line, "#")
			comment = strings.TrimPrefix(comment, " ")
			current.TranslatorComments = append(current.TranslatorComments, comment)
			continue
		}

		if strings.HasPrefix(line, "msgctxt ") {
			current.MsgCtxt = unquote(strings.TrimPrefix(line, "msgctxt "))
			lastField = "msgctxt"
			continue
		}
		if strings.HasPrefix(line, "msgid_plural ") {
			current.MsgIDPlural = unquote(strings.TrimPrefix(line, "msgid_plural "))
			lastField = "msgid_plural"
			continue
		}
		if strings.HasPrefix(line, "msgid ") {
			current.MsgID = unquote(strings.TrimPrefix(line, "msgid "))
			lastField = "msgid"
			continue
		}
		if strings.HasPrefix(line, "msgstr[") {
			var idx int
			if _, err := fmt.Sscanf(line, "msgstr[%d]", &idx); err != nil {
				return nil, fmt.Errorf("invalid msgstr index: %s", line)
			}
			bracketEnd := strings.Index(line, "] ")
			if bracketEnd < 0 {
				return nil, fmt.Errorf("invalid msgstr[N] line: %s", line)
			}
			current.MsgStrPlural[idx] = unquote(line[bracketEnd+2:])
			lastField = fmt.Sprintf("msgstr[%d]", idx)
			continue
		}
		if strings.HasPrefix(line, "msgstr ") {
			current.MsgStr = unquote(strings.TrimPrefix(line, "msgstr "))
			lastField = "msgstr"
			continue
		}

		if strings.HasPrefix(line, "\"") {
			val := unquote(line)
			switch {
			case lastField == "msgctxt":
				current.MsgCtxt += val
			case lastField == "msgid":
				current.MsgID += val
			case lastField == "msgid_plural":
				current.MsgIDPlural += val
			case lastField == "msgstr":
				current.MsgStr += val
			case strings.HasPrefix(lastField, "msgstr["):
				var idx int
				fmt.Sscanf(lastField, "msgstr[%d]", &idx)
				current.MsgStrPlural[idx] += val
			}
			continue
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TS file: %w", err)
	}
	return entries, nil
}

func sanitizeLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if r < 0x20 {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
			case 't':
				b.WriteByte('\t')
				i++
			case '\\':
				b.WriteByte('\\')
				i++
			case '"':
				b.WriteByte('"')
				i++
			default:
				b.WriteByte(s[i])
			}
		} else {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
