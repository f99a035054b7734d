package tsfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const wrapWidth = 76

// Write serializes f in TS format: header, then a blank line before each
// entry, comments/references/flags in a fixed order, long values wrapped
// at 76 columns.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if f.Header != nil {
		if err := writeEntry(bw, f.Header); err != nil {
			return err
		}
	}
	for _, e := range f.Entries {
		fmt.Fprintln(bw)
		if err := writeEntry(bw, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes f to path with Unix line endings. Writes are plain
// write-then-close, non-atomic.
func (f *File) WriteFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return f.Write(out)
}

func writeEntry(w *bufio.Writer, e *Entry) error {
	for _, c := range e.TranslatorComments {
		fmt.Fprintf(w, "# %s\n", c)
	}
	for _, c := range e.DevComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	if e.FileRef != "" {
		fmt.Fprintf(w, "#: File: %s\n", e.FileRef)
	}
	if e.Key != "" {
		fmt.Fprintf(w, "#: ID: %s\n", e.Key)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}

	if e.MsgCtxt != "" {
		writeQuotedField(w, "msgctxt", e.MsgCtxt)
	}
	writeQuotedField(w, "msgid", e.MsgID)
	if e.MsgIDPlural != "" {
		writeQuotedField(w, "msgid_plural", e.MsgIDPlural)
	}

	if e.MsgIDPlural != "" {
		indices := make([]int, 0, len(e.MsgStrPlural))
		for idx := range e.MsgStrPlural {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		if len(indices) == 0 {
			writeQuotedField(w, "msgstr[0]", "")
		}
		for _, idx := range indices {
			writeQuotedField(w, fmt.Sprintf("msgstr[%d]", idx), e.MsgStrPlural[idx])
		}
	} else {
		writeQuotedField(w, "msgstr", e.MsgStr)
	}
	return nil
}

// writeQuotedField writes a field, wrapping to wrapWidth columns at
// whitespace or hyphen boundaries when the value doesn't fit on one line.
func writeQuotedField(w *bufio.Writer, field, value string) {
	if !strings.Contains(value, "\n") {
		inline := fmt.Sprintf("%s %s", field, quote(value))
		if len(inline) <= wrapWidth {
			fmt.Fprintln(w, inline)
			return
		}
	}

	fmt.Fprintf(w, "%s \"\"\n", field)
	for _, seg := range wrapValue(value) {
		fmt.Fprintln(w, quote(seg))
	}
}

// wrapValue splits value on its embedded newlines (each kept as a hard
// break, gettext-style, reattached to the preceding segment) and further
// folds any resulting segment longer than wrapWidth at the last space or
// hyphen at or before the limit.
func wrapValue(value string) []string {
	if value == "" {
		return nil
	}
	lines := strings.Split(value, "\n")

	var segments []string
	for i, line := range lines {
		suffix := "\n"
		if i == len(lines)-1 {
			suffix = ""
		}
		remaining := line + suffix
		if remaining == "" {
			continue
		}
		for len(remaining) > wrapWidth {
			cut := breakPoint(remaining, wrapWidth)
			segments = append(segments, remaining[:cut])
			remaining = remaining[cut:]
		}
		if remaining != "" {
			segments = append(segments, remaining)
		}
	}
	return segments
}

func breakPoint(s string, width int) int {
	limit := width
	if limit > len(s) {
		limit = len(s)
	}
	for i := limit; i > 0; i-- {
		if s[i-1] == ' ' || s[i-1] == '-' {
			return i
		}
	}
	return limit
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}
