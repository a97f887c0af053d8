// writer.go — the formatting engine: output cursor, indentation, the
// line-number-driven blank-line heuristic, escaping, and the small text
// helpers the statement renderers share.

package unrpyc

import (
	"fmt"
	"strings"
)

// maxBlankRun bounds how many blank lines advanceToLine may emit for one
// gap, so a corrupt or hand-edited line table cannot blow up the output.
const maxBlankRun = 8

// writer tracks the output cursor while the decompiler renders. lineNumber
// is the 1-based line the cursor currently sits on; text written without a
// newline stays on that line.
type writer struct {
	buf         strings.Builder
	indentation string
	indentLevel int
	lineNumber  int
	comparable  bool

	// skipIndent suppresses the next indent call, letting a renderer open
	// a construct inline on the line it already started ("init 5 image ...").
	// Any write clears it.
	skipIndent bool
}

func (w *writer) write(s string) {
	w.lineNumber += strings.Count(s, "\n")
	w.skipIndent = false
	w.buf.WriteString(s)
}

func (w *writer) writef(format string, args ...any) {
	w.write(fmt.Sprintf(format, args...))
}

// indent starts a fresh output line at the current indentation level.
func (w *writer) indent() {
	if w.skipIndent {
		return
	}
	w.write("\n" + strings.Repeat(w.indentation, w.indentLevel))
}

// advanceToLine moves the cursor so the next indented write lands on the
// recorded source line, emitting the gap as blank lines. Comparable mode
// only updates the bookkeeping: structurally equal trees must render
// byte-identically no matter how the original was spaced.
func (w *writer) advanceToLine(target int) {
	if w.lineNumber >= target {
		return
	}
	if !w.comparable {
		gap := target - w.lineNumber - 1
		if gap > maxBlankRun {
			gap = maxBlankRun
		}
		w.write(strings.Repeat("\n", gap))
	}
	w.lineNumber = target - 1
}

// EscapeString escapes s for a double-quoted Ren'Py string literal:
// backslash, quote, newline, tab, and the [ and { interpolation openers.
// Exported for the screen-language sub-unparsers, which quote with the
// same rules.
func EscapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '[':
			b.WriteString("[[")
		case '{':
			b.WriteString("{{")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// wordJoiner assembles a one-line statement from optional clause fragments,
// dropping the empty ones and separating the rest with single spaces.
type wordJoiner struct {
	words []string
}

func (j *wordJoiner) add(words ...string) {
	for _, w := range words {
		if w != "" {
			j.words = append(j.words, w)
		}
	}
}

func (j *wordJoiner) join() string { return strings.Join(j.words, " ") }

// SplitLogicalLines splits an embedded Python blob at top-level statement
// boundaries. Exported alongside EscapeString for external sub-unparsers
// that carry python blocks of their own.
//
// A newline ends a logical line only outside brackets and string literals
// and when not escaped by a backslash. The line texts keep their embedded
// newlines and relative indentation.
func SplitLogicalLines(code string) []string {
	var lines []string
	start, depth := 0, 0
	i := 0
	for i < len(code) {
		switch c := code[i]; {
		case c == '\n' && depth == 0:
			lines = append(lines, code[start:i])
			i++
			start = i
		case c == '\\':
			i += 2
		case c == '(' || c == '[' || c == '{':
			depth++
			i++
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
			i++
		case c == '"' || c == '\'':
			i = skipStringLiteral(code, i)
		case c == '#':
			for i < len(code) && code[i] != '\n' {
				i++
			}
		default:
			i++
		}
	}
	if start < len(code) {
		lines = append(lines, code[start:])
	}
	return lines
}

// skipStringLiteral returns the index just past the Python string literal
// starting at i, handling escapes and triple quoting. An unterminated
// literal consumes the rest of the input.
func skipStringLiteral(code string, i int) int {
	q := code[i]
	triple := strings.HasPrefix(code[i:], strings.Repeat(string(q), 3))
	if triple {
		i += 3
	} else {
		i++
	}
	for i < len(code) {
		switch code[i] {
		case '\\':
			i += 2
		case q:
			if !triple {
				return i + 1
			}
			if strings.HasPrefix(code[i:], strings.Repeat(string(q), 3)) {
				return i + 3
			}
			i++
		default:
			i++
		}
	}
	return i
}

// reconstructParams renders a parameter list, including the bare * that
// separates name-only parameters when no *args catch-all exists.
func reconstructParams(info *ParamInfo) string {
	if info == nil {
		return ""
	}
	var parts []string
	for _, p := range info.Params {
		if p.NameOnly {
			continue
		}
		parts = append(parts, paramText(p))
	}
	if info.ExtraPos != "" {
		parts = append(parts, "*"+info.ExtraPos)
	}
	var nameOnly []string
	for _, p := range info.Params {
		if p.NameOnly {
			nameOnly = append(nameOnly, paramText(p))
		}
	}
	if len(nameOnly) > 0 {
		if info.ExtraPos == "" {
			parts = append(parts, "*")
		}
		parts = append(parts, nameOnly...)
	}
	if info.ExtraKw != "" {
		parts = append(parts, "**"+info.ExtraKw)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func paramText(p Param) string {
	if p.Default != "" {
		return p.Name + "=" + p.Default
	}
	return p.Name
}

// reconstructArgs renders a call argument list.
func reconstructArgs(info *ArgInfo) string {
	if info == nil {
		return ""
	}
	var parts []string
	for _, a := range info.Args {
		if a.Name != "" {
			parts = append(parts, a.Name+"="+a.Value)
		} else {
			parts = append(parts, a.Value)
		}
	}
	if info.ExtraPos != "" {
		parts = append(parts, "*"+info.ExtraPos)
	}
	if info.ExtraKw != "" {
		parts = append(parts, "**"+info.ExtraKw)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
