// Package lexer turns Kite source into a gapless token stream that can be
// resumed from any token boundary.
//
// Resumption seeds the scanner's mode stack from the State stored on the
// token before the cut point. A State only captures the innermost
// interpolation's brace count; when an outer level also has open braces the
// State is marked unseedable and Resume falls back to lexing from offset 0 and
// discarding tokens before the requested start. Either path yields the tokens
// a whole-file lex would have produced.
package lexer

// Lex tokenizes the whole text.
func Lex(text string) []Token {
	return Resume(text, 0, len(text), 0)
}

// Resume tokenizes text[start:end] given the State of the token that ends at
// start (0 at the beginning of the file). start must be a token boundary of
// the whole-file stream for the result to match it.
func Resume(text string, start, end int, state State) []Token {
	if end > len(text) || end < 0 {
		end = len(text)
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}
	if start == 0 {
		state = 0
	}
	if !state.valid() {
		state = 0
	}

	if state.Seedable() {
		return scan(text[:end], start, state)
	}

	all := scan(text[:end], 0, 0)
	for i, tok := range all {
		if tok.Start >= start {
			return all[i:]
		}
	}
	return nil
}

// scan runs the raw scanner from pos and fills the gaps it leaves with
// Whitespace tokens carrying the state of the preceding token.
func scan(src string, pos int, seed State) []Token {
	sc := newScanner(src, pos)
	sc.seed(seed)

	tokens := make([]Token, 0, (len(src)-pos)/3+1)
	prevEnd := pos
	prevState := seed
	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		if tok.Start > prevEnd {
			tokens = append(tokens, Token{Kind: Whitespace, Start: prevEnd, End: tok.Start, State: prevState})
		}
		tokens = append(tokens, tok)
		prevEnd = tok.End
		prevState = tok.State
	}
	if prevEnd < len(src) {
		tokens = append(tokens, Token{Kind: Whitespace, Start: prevEnd, End: len(src), State: prevState})
	}
	return tokens
}

// Lookahead is how many bytes past a token's end the scanner may inspect
// before deciding where the token stops. A token ending within Lookahead
// bytes of an edit has to be relexed.
const Lookahead = 2

// StateAt returns the state in effect at offset, which must be a token
// boundary of tokens, for use as the seed of a later Resume.
func StateAt(tokens []Token, offset int) State {
	var st State
	for _, tok := range tokens {
		if tok.End > offset {
			break
		}
		st = tok.State
	}
	return st
}
