package lexer

import (
	"strings"
	"unicode/utf8"
)

// scanner produces raw tokens. Horizontal whitespace is skipped, so the raw
// stream has gaps; Resume fills them.
type scanner struct {
	src  string
	pos  int
	mode Mode
	// interp holds the brace count of each open ${ level, innermost last.
	interp []int
}

func newScanner(src string, pos int) *scanner {
	return &scanner{src: src, pos: pos}
}

// seed rebuilds the mode stack from a seedable state.
func (s *scanner) seed(st State) {
	s.mode = st.Mode()
	depth := st.Depth()
	s.interp = make([]int, depth)
	if depth > 0 {
		s.interp[depth-1] = st.Braces()
	}
}

func (s *scanner) state() State {
	depth := len(s.interp)
	braces := 0
	seedable := depth <= fieldMask
	if depth > 0 {
		braces = s.interp[depth-1]
		if braces > fieldMask {
			seedable = false
		}
		for _, outer := range s.interp[:depth-1] {
			if outer != 0 {
				seedable = false
				break
			}
		}
	}
	return makeState(s.mode, depth, braces, seedable)
}

// next returns the next raw token, or false at end of input.
func (s *scanner) next() (Token, bool) {
	if s.mode == ModeString {
		return s.nextInString()
	}
	return s.nextInDefault()
}

func (s *scanner) emit(kind TokenKind, start int) (Token, bool) {
	return Token{Kind: kind, Start: start, End: s.pos, State: s.state()}, true
}

func (s *scanner) nextInDefault() (Token, bool) {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\r', '\f', '\v':
			s.pos++
			continue
		}
		break
	}
	if s.pos >= len(s.src) {
		return Token{}, false
	}

	start := s.pos
	c := s.src[s.pos]
	switch {
	case c == '\n':
		s.pos++
		return s.emit(Newline, start)
	case c == '/' && s.peek(1) == '/':
		end := strings.IndexByte(s.src[s.pos:], '\n')
		if end < 0 {
			s.pos = len(s.src)
		} else {
			s.pos += end
		}
		return s.emit(LineComment, start)
	case c == '/' && s.peek(1) == '*':
		end := strings.Index(s.src[s.pos+2:], "*/")
		if end < 0 {
			s.pos = len(s.src)
		} else {
			s.pos += 2 + end + 2
		}
		return s.emit(BlockComment, start)
	case c == '"':
		s.pos++
		s.mode = ModeString
		return s.emit(StringStart, start)
	case c == '\'':
		s.scanSingleString()
		return s.emit(SingleString, start)
	case isDigit(c):
		s.scanNumber()
		return s.emit(Number, start)
	case isIdentStart(c):
		s.scanIdent()
		if kw, ok := keywords[s.src[start:s.pos]]; ok {
			return s.emit(kw, start)
		}
		return s.emit(Identifier, start)
	case c == '{':
		s.pos++
		if n := len(s.interp); n > 0 {
			s.interp[n-1]++
		}
		return s.emit(LBrace, start)
	case c == '}':
		s.pos++
		n := len(s.interp)
		if n == 0 {
			return s.emit(RBrace, start)
		}
		if s.interp[n-1] > 0 {
			s.interp[n-1]--
			return s.emit(RBrace, start)
		}
		s.interp = s.interp[:n-1]
		s.mode = ModeString
		return s.emit(InterpClose, start)
	}

	for _, op := range operators {
		if strings.HasPrefix(s.src[s.pos:], op.text) {
			s.pos += len(op.text)
			return s.emit(op.kind, start)
		}
	}

	_, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	return s.emit(BadCharacter, start)
}

func (s *scanner) nextInString() (Token, bool) {
	if s.pos >= len(s.src) {
		return Token{}, false
	}

	start := s.pos
	switch c := s.src[s.pos]; {
	case c == '"':
		s.pos++
		s.mode = ModeDefault
		return s.emit(StringEnd, start)
	case c == '\\':
		s.pos++
		if s.pos < len(s.src) {
			_, size := utf8.DecodeRuneInString(s.src[s.pos:])
			s.pos += size
		}
		return s.emit(StringEscape, start)
	case c == '$' && s.peek(1) == '{':
		s.pos += 2
		s.interp = append(s.interp, 0)
		s.mode = ModeDefault
		return s.emit(InterpOpen, start)
	case c == '$' && isIdentStart(s.peek(1)):
		s.pos++
		s.scanIdent()
		return s.emit(InterpSimple, start)
	}

	// A text run stops before anything the cases above would claim. A lone
	// '$' that opens nothing is text.
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '"' || c == '\\' {
			break
		}
		if c == '$' && (s.peek(1) == '{' || isIdentStart(s.peek(1))) {
			break
		}
		s.pos++
	}
	return s.emit(StringText, start)
}

func (s *scanner) scanSingleString() {
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
			if s.pos > len(s.src) {
				s.pos = len(s.src)
			}
			continue
		case '\'':
			s.pos++
			return
		}
		s.pos++
	}
}

func (s *scanner) scanNumber() {
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.pos++
	}
	if s.pos+1 < len(s.src) && s.src[s.pos] == '.' && isDigit(s.src[s.pos+1]) {
		s.pos++
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
	}
}

func (s *scanner) scanIdent() {
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
}

func (s *scanner) peek(offset int) byte {
	if s.pos+offset >= len(s.src) {
		return 0
	}
	return s.src[s.pos+offset]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
