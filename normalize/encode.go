package normalize

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// EncodeOutput renders text in the job's output_encoding: UTF-8/16/32
// LE/BE with an optional BOM, or JAVA (ASCII with non-ASCII runes escaped
// as \uXXXX, used by .properties-style targets).
func EncodeOutput(text string, enc Encoding, bom bool) ([]byte, error) {
	if enc == JAVA {
		return []byte(javaEscape(text)), nil
	}

	var e encoding.Encoding
	var bomPrefix []byte
	switch enc {
	case "", UTF8:
		if bom {
			bomPrefix = []byte{0xEF, 0xBB, 0xBF}
		}
		return append(bomPrefix, []byte(text)...), nil
	case UTF16LE:
		e = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
		if bom {
			bomPrefix = []byte{0xFF, 0xFE}
		}
	case UTF16BE:
		e = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		if bom {
			bomPrefix = []byte{0xFE, 0xFF}
		}
	case UTF32LE:
		e = utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)
		if bom {
			bomPrefix = []byte{0xFF, 0xFE, 0x00, 0x00}
		}
	case UTF32BE:
		e = utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)
		if bom {
			bomPrefix = []byte{0x00, 0x00, 0xFE, 0xFF}
		}
	default:
		return nil, fmt.Errorf("unsupported output encoding %q", enc)
	}

	encoded, err := e.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encoding output as %s: %w", enc, err)
	}
	return append(bomPrefix, encoded...), nil
}

func javaEscape(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r == '\n' {
			b.WriteString(`\n`)
		} else if r < 0x80 {
			b.WriteRune(r)
		} else {
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String()
}
