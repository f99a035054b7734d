package normalize

import (
	"bytes"
	"testing"
)

func TestReadAndNormalizeCRLFAndNFC(t *testing.T) {
	text, enc, err := ReadAndNormalize([]byte("hello\r\nworld\r\n"))
	if err != nil {
		t.Fatalf("ReadAndNormalize: %v", err)
	}
	if enc != UTF8 {
		t.Fatalf("expected UTF-8 detection for plain ASCII, got %s", enc)
	}
	if text != "hello\nworld\n" {
		t.Fatalf("expected CRLF normalized to LF, got %q", text)
	}
}

func TestReadAndNormalizeUTF8BOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	text, enc, err := ReadAndNormalize(raw)
	if err != nil {
		t.Fatalf("ReadAndNormalize: %v", err)
	}
	if enc != UTF8 {
		t.Fatalf("expected UTF-8 detection, got %s", enc)
	}
	if text != "hello" {
		t.Fatalf("expected BOM stripped, got %q", text)
	}
}

func TestReadAndNormalizeUTF16LEBOM(t *testing.T) {
	raw := []byte{0xFF, 0xFE, 'h', 0, 'i', 0}
	text, enc, err := ReadAndNormalize(raw)
	if err != nil {
		t.Fatalf("ReadAndNormalize: %v", err)
	}
	if enc != UTF16LE {
		t.Fatalf("expected UTF-16LE detection, got %s", enc)
	}
	if text != "hi" {
		t.Fatalf("expected decoded text hi, got %q", text)
	}
}

func TestReadAndNormalizeXMLEncodingDeclaration(t *testing.T) {
	raw := []byte(`<?xml version="1.0" encoding="UTF-8"?><root/>`)
	_, enc, err := ReadAndNormalize(raw)
	if err != nil {
		t.Fatalf("ReadAndNormalize: %v", err)
	}
	if enc != UTF8 {
		t.Fatalf("expected UTF-8 from xml declaration, got %s", enc)
	}
}

func TestHashStable(t *testing.T) {
	h1 := Hash("hello world")
	h2 := Hash("hello world")
	if h1 != h2 {
		t.Fatalf("expected stable hash, got %s and %s", h1, h2)
	}
	if Hash("hello world!") == h1 {
		t.Fatalf("expected different content to hash differently")
	}
}

func TestEncodeOutputUTF8BOM(t *testing.T) {
	out, err := EncodeOutput("hi", UTF8, true)
	if err != nil {
		t.Fatalf("EncodeOutput: %v", err)
	}
	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("expected UTF-8 BOM prefix, got %v", out)
	}
	if string(out[3:]) != "hi" {
		t.Fatalf("expected payload hi, got %q", out[3:])
	}
}

func TestEncodeOutputUTF16LERoundTrip(t *testing.T) {
	out, err := EncodeOutput("hi", UTF16LE, true)
	if err != nil {
		t.Fatalf("EncodeOutput: %v", err)
	}
	if !bytes.HasPrefix(out, []byte{0xFF, 0xFE}) {
		t.Fatalf("expected UTF-16LE BOM prefix, got %v", out)
	}

	text, enc, err := ReadAndNormalize(out)
	if err != nil {
		t.Fatalf("ReadAndNormalize round trip: %v", err)
	}
	if enc != UTF16LE {
		t.Fatalf("expected round-trip detection of UTF-16LE, got %s", enc)
	}
	if text != "hi" {
		t.Fatalf("expected round-tripped text hi, got %q", text)
	}
}

func TestEncodeOutputJavaEscapesNonASCII(t *testing.T) {
	out, err := EncodeOutput("café\n", JAVA, false)
	if err != nil {
		t.Fatalf("EncodeOutput: %v", err)
	}
	want := "caf" + "\\u00e9" + "\\n"
	if string(out) != want {
		t.Fatalf("expected java-escaped output %q, got %q", want, out)
	}
}

func TestWhitespaceCollapsesAndTrims(t *testing.T) {
	got := Whitespace("  hello \t\n   world  ")
	if got != "hello world" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}
