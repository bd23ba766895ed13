// Package scanner performs a lexical scan of Lua source text and reports
// every require call site. The scan distinguishes code from line comments,
// block comments, quoted strings, and long-bracket strings, so a require
// spelled inside a comment or an unrelated literal is never reported.
//
// The scanner is deliberately not a parser: it recognizes just enough of
// Lua's lexical grammar to locate call sites and classify their argument,
// and it never fails: unparsable input simply yields fewer sites.
package scanner

import (
	"strings"
)

// Site is one require call site found in source text, in order of
// appearance. When Literal is true, Name holds the decoded module name.
// Arg always holds the argument text as written, for diagnostics.
type Site struct {
	Arg     string
	Name    string
	Literal bool
	Line    int
}

// Scan reports every require call site in src. It is a pure function of
// the input text and never returns an error.
func Scan(src string) []Site {
	lex := &lexer{src: src, line: 1}

	return lex.run()
}

type lexer struct {
	src  string
	pos  int
	line int
}

func (l *lexer) run() []Site {
	var sites []Site

	for l.pos < len(l.src) {
		ch := l.src[l.pos]

		switch {
		case ch == '\n':
			l.line++
			l.pos++
		case ch == '-' && l.peek(1) == '-':
			l.pos += 2
			if level, ok := l.longOpen(); ok {
				l.skipLongBracket(level)
			} else {
				l.skipLine()
			}
		case ch == '\'' || ch == '"':
			l.pos++
			l.skipQuoted(ch)
		case ch == '[':
			if level, ok := l.longOpen(); ok {
				l.skipLongBracket(level)
			} else {
				l.pos++
			}
		case isIdentStart(ch):
			startLine := l.line
			word := l.ident()
			if word == "require" && !l.afterFieldAccess(l.pos-len(word)) {
				if site, ok := l.callSite(startLine); ok {
					sites = append(sites, site)
				}
			}
		default:
			l.pos++
		}
	}

	return sites
}

// peek returns the byte at offset ahead of the cursor, or 0 past the end.
func (l *lexer) peek(ahead int) byte {
	if l.pos+ahead >= len(l.src) {
		return 0
	}

	return l.src[l.pos+ahead]
}

// longOpen consumes a long-bracket opener "[", "[=", "[==", ... followed
// by "[" and returns its level. The cursor is untouched on failure.
func (l *lexer) longOpen() (int, bool) {
	if l.peek(0) != '[' {
		return 0, false
	}

	level := 0
	for l.peek(1+level) == '=' {
		level++
	}

	if l.peek(1+level) != '[' {
		return 0, false
	}

	l.pos += level + 2

	return level, true
}

// skipLongBracket consumes text until the matching "]=*]" closer.
func (l *lexer) skipLongBracket(level int) {
	closer := "]" + strings.Repeat("=", level) + "]"

	for l.pos < len(l.src) {
		if l.src[l.pos] == '\n' {
			l.line++
			l.pos++

			continue
		}

		if strings.HasPrefix(l.src[l.pos:], closer) {
			l.pos += len(closer)

			return
		}

		l.pos++
	}
}

// skipLine consumes up to, but not including, the next newline.
func (l *lexer) skipLine() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

// skipQuoted consumes a quoted string body after the opening quote.
// An unterminated string ends at the newline; the source is malformed
// at that point and the scan just moves on.
func (l *lexer) skipQuoted(quote byte) {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]

		switch ch {
		case '\\':
			// An escaped newline continues the string on the next
			// source line and still counts toward line numbering.
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n' {
				l.line++
			}

			l.pos += 2
		case quote:
			l.pos++

			return
		case '\n':
			return
		default:
			l.pos++
		}
	}
}

// ident consumes an identifier and returns it.
func (l *lexer) ident() string {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}

	return l.src[start:l.pos]
}

// afterFieldAccess reports whether the token starting at tokenStart is
// preceded by "." or ":", i.e. it is a field or method name rather than
// the global require function.
func (l *lexer) afterFieldAccess(tokenStart int) bool {
	for i := tokenStart - 1; i >= 0; i-- {
		ch := l.src[i]
		if ch == ' ' || ch == '\t' {
			continue
		}

		return ch == '.' || ch == ':'
	}

	return false
}

// callSite parses the argument of a require call. It accepts the
// parenthesized form require(<arg>) and the paren-free string forms
// require "name", require 'name', and require [[name]]. A bare require
// with no argument (a reference to the function value) is not a site.
func (l *lexer) callSite(line int) (Site, bool) {
	l.skipSpace()

	switch {
	case l.peek(0) == '(':
		l.pos++

		return l.parenArg(line)
	case l.peek(0) == '\'' || l.peek(0) == '"':
		quote := l.src[l.pos]
		l.pos++
		name, raw := l.quotedArg(quote)

		return Site{Arg: raw, Name: name, Literal: true, Line: line}, true
	case l.peek(0) == '[':
		if level, ok := l.longOpen(); ok {
			name := l.longArg(level)

			return Site{Arg: name, Name: name, Literal: true, Line: line}, true
		}

		return Site{}, false
	default:
		return Site{}, false
	}
}

// parenArg captures the balanced argument text between parentheses and
// classifies it. The capture is string-aware so a ")" inside a literal
// does not close the call.
func (l *lexer) parenArg(line int) (Site, bool) {
	start := l.pos
	depth := 1

	for l.pos < len(l.src) {
		ch := l.src[l.pos]

		switch {
		case ch == '\n':
			l.line++
			l.pos++
		case ch == '\'' || ch == '"':
			l.pos++
			l.skipQuoted(ch)
		case ch == '[':
			if level, ok := l.longOpen(); ok {
				l.skipLongBracket(level)
			} else {
				l.pos++
			}
		case ch == '(':
			depth++
			l.pos++
		case ch == ')':
			depth--
			if depth == 0 {
				raw := l.src[start:l.pos]
				l.pos++

				return classifyArg(raw, line), true
			}
			l.pos++
		default:
			l.pos++
		}
	}

	// Unterminated call: report what was seen as a dynamic site so the
	// caller surfaces a diagnostic instead of silently dropping it.
	return classifyArg(l.src[start:l.pos], line), true
}

// quotedArg consumes a quoted argument after its opening quote, returning
// the decoded value and the raw text including quotes.
func (l *lexer) quotedArg(quote byte) (string, string) {
	start := l.pos

	var value strings.Builder

	for l.pos < len(l.src) {
		ch := l.src[l.pos]

		switch ch {
		case '\\':
			decoded, consumed := decodeEscape(l.src[l.pos+1:])
			value.WriteString(decoded)

			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n' {
				l.line++
			}

			l.pos += 1 + consumed
		case quote:
			raw := string(quote) + l.src[start:l.pos] + string(quote)
			l.pos++

			return value.String(), raw
		case '\n':
			return value.String(), string(quote) + l.src[start:l.pos]
		default:
			value.WriteByte(ch)
			l.pos++
		}
	}

	return value.String(), string(quote) + l.src[start:]
}

// longArg consumes a long-bracket argument body and returns its content
// verbatim. Per Lua's lexer, a newline immediately after the opener is
// dropped.
func (l *lexer) longArg(level int) string {
	if l.peek(0) == '\n' {
		l.line++
		l.pos++
	}

	start := l.pos
	closer := "]" + strings.Repeat("=", level) + "]"

	for l.pos < len(l.src) {
		if strings.HasPrefix(l.src[l.pos:], closer) {
			content := l.src[start:l.pos]
			l.pos += len(closer)

			return content
		}

		if l.src[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}

	return l.src[start:]
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r':
			l.pos++
		case '\n':
			l.line++
			l.pos++
		default:
			return
		}
	}
}

// classifyArg decides whether the captured parenthesized argument is a
// single string literal, decoding it when it is.
func classifyArg(raw string, line int) Site {
	trimmed := strings.TrimSpace(raw)

	if name, ok := decodeStringLiteral(trimmed); ok {
		return Site{Arg: trimmed, Name: name, Literal: true, Line: line}
	}

	return Site{Arg: trimmed, Line: line}
}

// decodeStringLiteral decodes text that consists of exactly one Lua
// string literal and nothing else.
func decodeStringLiteral(text string) (string, bool) {
	if len(text) < 2 {
		return "", false
	}

	if text[0] == '\'' || text[0] == '"' {
		return decodeQuoted(text)
	}

	if text[0] == '[' {
		return decodeLong(text)
	}

	return "", false
}

func decodeQuoted(text string) (string, bool) {
	quote := text[0]

	var value strings.Builder

	i := 1
	for i < len(text) {
		ch := text[i]

		switch ch {
		case '\\':
			decoded, consumed := decodeEscape(text[i+1:])
			value.WriteString(decoded)
			i += 1 + consumed
		case quote:
			// Anything after the closing quote means the argument is an
			// expression (concatenation etc.), not a lone literal.
			if i != len(text)-1 {
				return "", false
			}

			return value.String(), true
		default:
			value.WriteByte(ch)
			i++
		}
	}

	return "", false
}

func decodeLong(text string) (string, bool) {
	level := 0
	for 1+level < len(text) && text[1+level] == '=' {
		level++
	}

	if 1+level >= len(text) || text[1+level] != '[' {
		return "", false
	}

	closer := "]" + strings.Repeat("=", level) + "]"
	body := text[level+2:]

	if !strings.HasSuffix(body, closer) {
		return "", false
	}

	body = body[:len(body)-len(closer)]
	if strings.Contains(body, closer) {
		return "", false
	}

	body = strings.TrimPrefix(body, "\n")

	return body, true
}

// decodeEscape decodes one escape sequence (the text after the backslash)
// and returns the decoded value plus the number of bytes consumed.
// Unknown escapes decode to the escaped character itself, which is how
// Lua 5.1 treated them.
func decodeEscape(rest string) (string, int) {
	if rest == "" {
		return "", 0
	}

	switch rest[0] {
	case 'n':
		return "\n", 1
	case 't':
		return "\t", 1
	case 'r':
		return "\r", 1
	case 'a':
		return "\a", 1
	case 'b':
		return "\b", 1
	case 'f':
		return "\f", 1
	case 'v':
		return "\v", 1
	case '\\':
		return "\\", 1
	case '\'':
		return "'", 1
	case '"':
		return "\"", 1
	case '\n':
		return "\n", 1
	}

	if rest[0] >= '0' && rest[0] <= '9' {
		value := 0
		consumed := 0
		for consumed < 3 && consumed < len(rest) && rest[consumed] >= '0' && rest[consumed] <= '9' {
			value = value*10 + int(rest[consumed]-'0')
			consumed++
		}

		return string(rune(value)), consumed
	}

	return string(rest[0]), 1
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
