package parser

import (
	"strings"
	"testing"
)

const sampleSource = `package sample

func greet() {
	T("hello")
	N("one item", "many items")
	pgettext("menu", "Save")
}
`

func TestGoParserExtract(t *testing.T) {
	p := NewGoParser([]string{"T", "N:1,2", "pgettext:1c,2"})

	var got []*Call
	if err := p.Extract([]byte(sampleSource), func(c *Call) {
		cp := *c
		got = append(got, &cp)
	}); err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d calls, want 3: %#v", len(got), got)
	}
	if got[0].Text != "hello" {
		t.Fatalf("call 0 text = %q", got[0].Text)
	}
	if got[1].Text != "one item\x1Fmany items" {
		t.Fatalf("call 1 text = %q", got[1].Text)
	}
	if got[2].Context != "menu" || got[2].Text != "Save" {
		t.Fatalf("call 2 = %#v", got[2])
	}
}

func TestGoParserRender(t *testing.T) {
	p := NewGoParser([]string{"T"})

	out, err := p.Render([]byte(sampleSource), "fr", func(c *Call) string {
		if c.Text == "hello" {
			return "bonjour"
		}
		return c.Text
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(string(out), `T("bonjour")`) {
		t.Fatalf("rendered output missing translation: %s", out)
	}
}
