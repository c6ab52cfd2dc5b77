package css

import (
	"strconv"
	"strings"
)

// PartKind is the kind of simple selector component.
type PartKind int

const (
	PartTag PartKind = iota
	PartClass
	PartID
	PartAttr
)

// Part is a simple selector component which has to be present in the
// document for selector to match. Pseudo classes and pseudo elements are
// not represented.
type Part struct {
	Kind  PartKind
	Name  string // unescaped name, lower-cased for tags and attributes
	Op    string // attribute operator: "", "=", "~=", "|=", "^=", "$=", "*="
	Value string // attribute value, unquoted and unescaped
}

// SelectorParts returns simple components of a complex selector, ignoring
// combinators, universal selector, nesting selector and pseudo classes
// (including their arguments).
func SelectorParts(sel string) []Part {
	var (
		parts []Part
		s     = scanner{src: sel}
	)
	for !s.eof() {
		c := s.peek()
		switch {
		case c == '.':
			s.pos++
			if name := s.ident(); len(name) > 0 {
				parts = append(parts, Part{Kind: PartClass, Name: name})
			}
		case c == '#':
			s.pos++
			if name := s.ident(); len(name) > 0 {
				parts = append(parts, Part{Kind: PartID, Name: name})
			}
		case c == '[':
			s.pos++
			if p, ok := s.attribute(); ok {
				parts = append(parts, p)
			}
		case c == ':':
			s.pseudo()
		case isIdentStart(c) || c == '\\':
			if name := s.ident(); len(name) > 0 {
				if s.peek() == '|' && s.peekAt(1) != '=' {
					// namespace prefix
					s.pos++
					continue
				}
				parts = append(parts, Part{Kind: PartTag, Name: strings.ToLower(name)})
			}
		default:
			// combinators, whitespace, '*', '&', '|'
			s.pos++
		}
	}
	return parts
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() byte {
	return s.peekAt(0)
}

func (s *scanner) peekAt(n int) byte {
	if s.pos+n >= len(s.src) {
		return 0
	}
	return s.src[s.pos+n]
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '-' || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// ident reads identifier resolving CSS escapes.
func (s *scanner) ident() string {
	var sb strings.Builder
	for !s.eof() {
		c := s.peek()
		switch {
		case c == '\\':
			s.pos++
			sb.WriteString(s.escape())
		case isIdentChar(c):
			sb.WriteByte(c)
			s.pos++
		default:
			return sb.String()
		}
	}
	return sb.String()
}

// escape decodes escape sequence, backslash is already consumed.
func (s *scanner) escape() string {
	if s.eof() {
		return ""
	}
	start := s.pos
	for s.pos < len(s.src) && s.pos-start < 6 && isHex(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		// any other character stands for itself
		r := s.src[s.pos : s.pos+1]
		s.pos++
		return r
	}
	code, _ := strconv.ParseUint(s.src[start:s.pos], 16, 32)
	if c := s.peek(); c == ' ' || c == '\t' || c == '\n' {
		s.pos++
	}
	if code == 0 || code > 0x10FFFF || code >= 0xD800 && code <= 0xDFFF {
		return "\uFFFD"
	}
	return string(rune(code))
}

// attribute parses attribute selector, opening bracket is already consumed.
func (s *scanner) attribute() (Part, bool) {
	s.spaces()
	name := s.ident()
	if s.peek() == '|' && s.peekAt(1) != '=' {
		// namespaced attribute
		s.pos++
		name = s.ident()
	}
	p := Part{Kind: PartAttr, Name: strings.ToLower(name)}
	s.spaces()

	switch c := s.peek(); {
	case c == '=':
		p.Op = "="
		s.pos++
	case strings.IndexByte("~|^$*", c) >= 0 && s.peekAt(1) == '=':
		p.Op = s.src[s.pos : s.pos+2]
		s.pos += 2
	}

	if len(p.Op) > 0 {
		s.spaces()
		if c := s.peek(); c == '"' || c == '\'' {
			p.Value = s.quoted(c)
		} else {
			p.Value = s.ident()
		}
	}

	// skip flags and anything unexpected up to closing bracket
	for !s.eof() && s.peek() != ']' {
		if c := s.peek(); c == '"' || c == '\'' {
			s.quoted(c)
			continue
		}
		s.pos++
	}
	s.pos++
	return p, len(p.Name) > 0
}

func (s *scanner) quoted(q byte) string {
	s.pos++
	var sb strings.Builder
	for !s.eof() {
		c := s.peek()
		switch c {
		case q:
			s.pos++
			return sb.String()
		case '\\':
			s.pos++
			sb.WriteString(s.escape())
		default:
			sb.WriteByte(c)
			s.pos++
		}
	}
	return sb.String()
}

// pseudo skips pseudo class or pseudo element with its arguments.
func (s *scanner) pseudo() {
	for s.peek() == ':' {
		s.pos++
	}
	s.ident()
	if s.peek() != '(' {
		return
	}
	depth := 0
	for !s.eof() {
		switch c := s.peek(); c {
		case '(':
			depth++
		case ')':
			depth--
		case '\\':
			s.pos++
		case '"', '\'':
			s.quoted(c)
			continue
		}
		s.pos++
		if depth == 0 {
			return
		}
	}
}

func (s *scanner) spaces() {
	for !s.eof() && strings.IndexByte(" \t\n\r\f", s.peek()) >= 0 {
		s.pos++
	}
}
