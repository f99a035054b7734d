package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"
)

// GoKeyword defines a function call to scan for and how to map its
// arguments onto (msgid, plural, context), following xgettext --keyword
// syntax. Adapted verbatim from extract.GoKeyword.
type GoKeyword struct {
	FuncName   string
	MsgIDArg   int
	PluralArg  int
	ContextArg int
}

// ParseGoKeyword parses an xgettext-style keyword spec, e.g. "T",
// "N:1,2", "pgettext:1c,2".
func ParseGoKeyword(spec string) GoKeyword {
	kw := GoKeyword{MsgIDArg: 1}

	parts := strings.SplitN(spec, ":", 2)
	kw.FuncName = parts[0]
	if len(parts) < 2 {
		return kw
	}

	seenMsgID := false
	for _, arg := range strings.Split(parts[1], ",") {
		arg = strings.TrimSpace(arg)
		if strings.HasSuffix(arg, "c") {
			if n, err := strconv.Atoi(strings.TrimSuffix(arg, "c")); err == nil {
				kw.ContextArg = n
			}
			continue
		}
		if n, err := strconv.Atoi(arg); err == nil {
			if !seenMsgID {
				kw.MsgIDArg = n
				seenMsgID = true
			} else {
				kw.PluralArg = n
			}
		}
	}
	return kw
}

// GoParser extracts translatable strings from Go source by walking the
// AST for calls to a configured set of keyword functions (xgettext
// --keyword semantics), the way extract/goextract.go does, generalized
// from "scan files on disk and write a .pot" into the Parser capability's
// buffer-in/callback-out shape.
type GoParser struct {
	keywords map[string][]GoKeyword
}

// NewGoParser builds a GoParser from xgettext-style keyword specs.
func NewGoParser(specs []string) *GoParser {
	p := &GoParser{keywords: make(map[string][]GoKeyword)}
	for _, spec := range specs {
		kw := ParseGoKeyword(spec)
		p.keywords[kw.FuncName] = append(p.keywords[kw.FuncName], kw)
	}
	return p
}

type match struct {
	call *ast.CallExpr
	kw   GoKeyword
	line int
}

func (p *GoParser) findMatches(fset *token.FileSet, file *ast.File) []match {
	var matches []match
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		var funcName string
		switch fn := call.Fun.(type) {
		case *ast.Ident:
			funcName = fn.Name
		case *ast.SelectorExpr:
			funcName = fn.Sel.Name
			if ident, ok := fn.X.(*ast.Ident); ok {
				qualified := ident.Name + "." + fn.Sel.Name
				if _, found := p.keywords[qualified]; found {
					funcName = qualified
				}
			}
		default:
			return true
		}

		kws, ok := p.keywords[funcName]
		if !ok {
			return true
		}
		line := fset.Position(call.Lparen).Line
		for _, kw := range kws {
			matches = append(matches, match{call: call, kw: kw, line: line})
		}
		return true
	})
	return matches
}

// Extract implements parser.Parser.
func (p *GoParser) Extract(buf []byte, cb ExtractFunc) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", buf, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("parsing go source: %w", err)
	}

	for _, m := range p.findMatches(fset, file) {
		c, ok := callFromMatch(m)
		if !ok {
			continue
		}
		c.SourceKey = fmt.Sprintf("%d", m.line)
		cb(c)
	}
	return nil
}

// Render implements parser.Parser: it re-walks the same AST, replacing
// each matched msgid string literal with cb's return value, splicing
// edits into buf in reverse byte-offset order so earlier offsets stay
// valid. Plural/context argument literals are left as-is — translating a
// Go call site in place only makes sense for the primary message text.
func (p *GoParser) Render(buf []byte, lang string, cb RenderFunc) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", buf, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing go source: %w", err)
	}

	type edit struct {
		start, end int
		quoted     string
	}
	var edits []edit

	for _, m := range p.findMatches(fset, file) {
		c, ok := callFromMatch(m)
		if !ok {
			continue
		}
		c.SourceKey = fmt.Sprintf("%d", m.line)

		idx := m.kw.MsgIDArg - 1
		if idx < 0 || idx >= len(m.call.Args) {
			continue
		}
		lit, ok := m.call.Args[idx].(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			continue
		}

		translated := cb(c)
		startOff := fset.PositionFor(lit.Pos(), false).Offset
		endOff := fset.PositionFor(lit.End(), false).Offset
		edits = append(edits, edit{start: startOff, end: endOff, quoted: strconv.Quote(translated)})
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })

	out := append([]byte(nil), buf...)
	for _, e := range edits {
		out = append(out[:e.start], append([]byte(e.quoted), out[e.end:]...)...)
	}
	return out, nil
}

func callFromMatch(m match) (*Call, bool) {
	msgID, ok := stringArgAt(m.call, m.kw.MsgIDArg)
	if !ok {
		return nil, false
	}
	c := &Call{Text: msgID}

	if m.kw.PluralArg > 0 {
		plural, ok := stringArgAt(m.call, m.kw.PluralArg)
		if !ok {
			return nil, false
		}
		c.Text = c.Text + "\x1F" + plural
	}
	if m.kw.ContextArg > 0 {
		ctx, ok := stringArgAt(m.call, m.kw.ContextArg)
		if !ok {
			return nil, false
		}
		c.Context = ctx
	}
	return c, true
}

func stringArgAt(call *ast.CallExpr, pos int) (string, bool) {
	idx := pos - 1
	if idx < 0 || idx >= len(call.Args) {
		return "", false
	}
	s, ok := stringFromExpr(call.Args[idx])
	return s, ok
}

func stringFromExpr(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind == token.STRING {
			s, err := strconv.Unquote(e.Value)
			if err != nil {
				return "", false
			}
			return s, true
		}
	case *ast.BinaryExpr:
		if e.Op == token.ADD {
			left, lok := stringFromExpr(e.X)
			right, rok := stringFromExpr(e.Y)
			if lok && rok {
				return left + right, true
			}
		}
	}
	return "", false
}
