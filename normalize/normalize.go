// Package normalize implements a single "read-and-normalize" entry point
// that returns (text, detected_encoding) rather than scattering
// byte-order-mark logic through the callers. The teacher never reads
// anything but plain UTF-8/ASCII source files, so this has no direct
// teacher file to adapt; it is grounded on golang.org/x/text, the
// encoding library carried by the rest of the retrieval pack
// (jinterlante1206-AleutianLocal's go.mod) for exactly this concern.
package normalize

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/unicode/norm"
)

// Encoding names the detected or requested text encoding.
type Encoding string

const (
	UTF8    Encoding = "UTF-8"
	UTF16LE Encoding = "UTF-16LE"
	UTF16BE Encoding = "UTF-16BE"
	UTF32LE Encoding = "UTF-32LE"
	UTF32BE Encoding = "UTF-32BE"
	ASCII   Encoding = "ASCII"
	JAVA    Encoding = "JAVA" // \uXXXX-escaped ASCII, output-only
)

var xmlEncodingAttr = regexp.MustCompile(`(?i)<\?xml[^>]*\bencoding\s*=\s*["']([^"']+)["']`)

// ReadAndNormalize detects raw's encoding (BOM first, then an XML
// encoding="..." declaration, else ASCII/UTF-8), decodes it, rewrites
// CRLF to LF, and applies Unicode NFC.
func ReadAndNormalize(raw []byte) (text string, detected Encoding, err error) {
	enc, body := detectBOM(raw)
	if enc == "" {
		enc = detectXMLEncoding(raw)
		body = raw
	}
	if enc == "" {
		enc = UTF8
		body = raw
	}

	decoded, err := decode(body, enc)
	if err != nil {
		return "", enc, fmt.Errorf("decoding as %s: %w", enc, err)
	}

	decoded = strings.ReplaceAll(decoded, "\r\n", "\n")
	decoded = norm.NFC.String(decoded)
	return decoded, enc, nil
}

func detectBOM(raw []byte) (Encoding, []byte) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return UTF32LE, raw[4:]
	case bytes.HasPrefix(raw, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return UTF32BE, raw[4:]
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return UTF8, raw[3:]
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return UTF16LE, raw[2:]
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return UTF16BE, raw[2:]
	default:
		return "", raw
	}
}

func detectXMLEncoding(raw []byte) Encoding {
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	m := xmlEncodingAttr.FindSubmatch(head)
	if m == nil {
		return ""
	}
	switch strings.ToUpper(string(m[1])) {
	case "UTF-16", "UTF-16LE":
		return UTF16LE
	case "UTF-16BE":
		return UTF16BE
	case "UTF-32", "UTF-32LE":
		return UTF32LE
	case "UTF-32BE":
		return UTF32BE
	default:
		return UTF8
	}
}

func decode(body []byte, enc Encoding) (string, error) {
	var e encoding.Encoding
	switch enc {
	case UTF16LE:
		e = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case UTF16BE:
		e = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case UTF32LE:
		e = utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)
	case UTF32BE:
		e = utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)
	default:
		// UTF-8 and ASCII are both valid as-is; malformed bytes pass
		// through rather than faulting, matching the teacher's general
		// tolerance of best-effort text handling.
		return string(body), nil
	}

	out, err := e.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Hash returns the MD5 hex digest of the UTF-8 encoding of normalized
// text: the content hash used for rename detection and fast-path skip.
func Hash(normalizedText string) string {
	sum := md5.Sum([]byte(normalizedText))
	return hex.EncodeToString(sum[:])
}
