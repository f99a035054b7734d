package tsfile

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseWriteRoundTrip(t *testing.T) {
	hello := Key("hello", "")
	input := `msgid ""
msgstr ""
"Language: fr\n"

#. Save button
#: File: app.go
#: ID: ` + hello + `
msgid "hello"
msgstr "bonjour"
`

	res, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	if len(res.File.Entries) != 1 {
		t.Fatalf("entries len = %d, want 1", len(res.File.Entries))
	}
	e := res.File.Entries[0]
	if e.MsgStr != "bonjour" || e.FileRef != "app.go" || e.Key != hello {
		t.Fatalf("entry mismatch: %#v", e)
	}

	var buf bytes.Buffer
	if err := res.File.Write(&buf); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	round, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("roundtrip Parse error: %v", err)
	}
	if len(round.File.Entries) != 1 || round.File.Entries[0].MsgStr != "bonjour" {
		t.Fatalf("roundtrip mismatch: %#v", round.File.Entries)
	}
}

func TestParseDropsStaleKey(t *testing.T) {
	input := `msgid ""
msgstr ""

#: File: app.go
#: ID: deadbeef
msgid "hello"
msgstr "bonjour"
`
	res, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(res.File.Entries) != 0 {
		t.Fatalf("entries len = %d, want 0 (stale key must be dropped)", len(res.File.Entries))
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings len = %d, want 1", len(res.Warnings))
	}
}

func TestParsePoeditSplitID(t *testing.T) {
	key := Key("hello", "")
	split := `msgid ""
msgstr ""

#: File: app.go
#: ID:
#: ` + key + `
msgid "hello"
msgstr "bonjour"
`
	inline := `msgid ""
msgstr ""

#: File: app.go
#: ID: ` + key + `
msgid "hello"
msgstr "bonjour"
`

	splitRes, err := Parse(strings.NewReader(split))
	if err != nil {
		t.Fatalf("Parse(split) error: %v", err)
	}
	inlineRes, err := Parse(strings.NewReader(inline))
	if err != nil {
		t.Fatalf("Parse(inline) error: %v", err)
	}

	if len(splitRes.File.Entries) != 1 || len(inlineRes.File.Entries) != 1 {
		t.Fatalf("expected one entry from each form: split=%d inline=%d", len(splitRes.File.Entries), len(inlineRes.File.Entries))
	}
	if splitRes.File.Entries[0].Key != inlineRes.File.Entries[0].Key {
		t.Fatalf("split-ID key %q != inline key %q", splitRes.File.Entries[0].Key, inlineRes.File.Entries[0].Key)
	}
}

func TestParseMidFileEmptyBlockWithoutKeyIsFatal(t *testing.T) {
	key := Key("hello", "")
	input := `msgid ""
msgstr ""

#: File: app.go
#: ID: ` + key + `
msgid "hello"
msgstr "bonjour"

msgid ""
msgstr "orphan header-like block"

#: File: app.go
#: ID: ` + Key("world", "") + `
msgid "world"
msgstr "monde"
`
	res, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !res.Truncated {
		t.Fatal("expected Truncated=true for mid-file empty block without a key")
	}
	if len(res.File.Entries) != 1 {
		t.Fatalf("entries len = %d, want 1 (parsing stops at the fatal block)", len(res.File.Entries))
	}
}

func TestPluralRoundTrip(t *testing.T) {
	key := Key("cat"+PluralSep+"cats", "")
	input := `msgid ""
msgstr ""

#: File: app.go
#: ID: ` + key + `
msgid "cat"
msgid_plural "cats"
msgstr[0] "chat"
msgstr[1] "chats"
`
	res, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	e := res.File.Entries[0]
	if e.MsgStrPlural[0] != "chat" || e.MsgStrPlural[1] != "chats" {
		t.Fatalf("plural forms = %v", e.MsgStrPlural)
	}

	var buf bytes.Buffer
	if err := res.File.Write(&buf); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), `msgstr[0] "chat"`) || !strings.Contains(buf.String(), `msgstr[1] "chats"`) {
		t.Fatalf("emitted plural forms missing: %s", buf.String())
	}
}

func TestWrapsLongLines(t *testing.T) {
	long := strings.Repeat("word ", 30)
	e := &Entry{MsgID: "k", Key: Key("k", ""), MsgStr: long}
	f := &File{Entries: []*Entry{e}}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		if len(line) > wrapWidth+2 { // quotes add 2
			t.Fatalf("line exceeds wrap width: %q (%d bytes)", line, len(line))
		}
	}
}
