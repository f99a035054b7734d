// Package parser defines the Parser capability the engine drives during
// scan/parse (extraction) and localized-file emission (rendering), plus a
// reference implementation for Go source, adapted from
// extract/goextract.go's AST-walking keyword scanner.
package parser

// Call is a single translatable-string occurrence, passed by reference so
// hooks downstream of extraction (can_extract, disambiguation) can inspect
// or mutate it before the Item is resolved.
type Call struct {
	Text      string
	Context   string
	Hint      string
	Flags     []string
	SourceKey string
}

// ExtractFunc is invoked once per occurrence found while scanning a
// buffer; its return value is unused.
type ExtractFunc func(c *Call)

// RenderFunc is invoked once per occurrence while rendering a buffer for
// a specific language; its return value is spliced back into the output
// in place of the original text.
type RenderFunc func(c *Call) string

// Parser is the capability the engine core depends on: the core only sees
// something that walks a source buffer and emits translatable strings via
// a callback. Extract and Render are two separate methods rather than
// one method overloaded by an optional language, since the two modes take
// differently-shaped callbacks.
type Parser interface {
	// Extract walks buf, calling cb once per translatable occurrence.
	Extract(buf []byte, cb ExtractFunc) error

	// Render walks buf for language lang, calling cb once per translatable
	// occurrence and splicing its return value into the output buffer.
	Render(buf []byte, lang string, cb RenderFunc) ([]byte, error)
}
