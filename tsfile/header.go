package tsfile

import "fmt"

// MakeHeader builds the fixed TS file header: Content-Type,
// Content-Transfer-Encoding, Language and Generated-By, adapted from
// pofile.MakeHeader's header-string assembly but trimmed to the fields
// this format actually specifies (no Project-Id-Version/POT-Creation-Date
// bookkeeping — those belong to gettext proper, not this interchange
// format).
func MakeHeader(locale, engineVersion string) *Entry {
	body := fmt.Sprintf(
		"Content-Type: text/plain; charset=UTF-8\n"+
			"Content-Transfer-Encoding: 8bit\n"+
			"Language: %s\n"+
			"Generated-By: %s\n",
		locale, engineVersion,
	)
	return &Entry{MsgID: "", MsgStr: body}
}
