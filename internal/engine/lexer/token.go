package lexer

// TokenKind is the closed set of token kinds the Kite lexer emits.
type TokenKind int

const (
	// EOF is never emitted; it is returned by lookups past either end of a stream.
	EOF TokenKind = iota
	BadCharacter
	Whitespace
	Newline
	LineComment
	BlockComment

	Identifier
	Number
	SingleString

	// String mode.
	StringStart
	StringText
	StringEscape
	InterpOpen
	InterpSimple
	InterpClose
	StringEnd

	// Keywords.
	KwImport
	KwFrom
	KwFun
	KwVar
	KwType
	KwInit
	KwThis
	KwObject
	KwResource
	KwComponent
	KwSchema
	KwInput
	KwOutput
	KwIf
	KwElse
	KwWhile
	KwFor
	KwIn
	KwReturn
	KwTrue
	KwFalse
	KwNull

	// Operators.
	Assign
	PlusAssign
	MinusAssign
	MulAssign
	DivAssign
	Eq
	NotEq
	Lt
	Le
	Gt
	Ge
	And
	Or
	Not
	Plus
	Minus
	Star
	Slash
	Percent
	Inc
	Dec
	Arrow
	FatArrow
	Question
	Dot
	Range
	Comma
	Colon
	Semicolon
	At
	Pipe

	// Delimiters.
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
)

var keywords = map[string]TokenKind{
	"import":    KwImport,
	"from":      KwFrom,
	"fun":       KwFun,
	"var":       KwVar,
	"type":      KwType,
	"init":      KwInit,
	"this":      KwThis,
	"object":    KwObject,
	"resource":  KwResource,
	"component": KwComponent,
	"schema":    KwSchema,
	"input":     KwInput,
	"output":    KwOutput,
	"if":        KwIf,
	"else":      KwElse,
	"while":     KwWhile,
	"for":       KwFor,
	"in":        KwIn,
	"return":    KwReturn,
	"true":      KwTrue,
	"false":     KwFalse,
	"null":      KwNull,
}

// operators is ordered longest first so the scanner can take the first match.
var operators = []struct {
	text string
	kind TokenKind
}{
	{"+=", PlusAssign},
	{"-=", MinusAssign},
	{"*=", MulAssign},
	{"/=", DivAssign},
	{"==", Eq},
	{"!=", NotEq},
	{"<=", Le},
	{">=", Ge},
	{"&&", And},
	{"||", Or},
	{"++", Inc},
	{"--", Dec},
	{"->", Arrow},
	{"=>", FatArrow},
	{"..", Range},
	{"=", Assign},
	{"<", Lt},
	{">", Gt},
	{"!", Not},
	{"+", Plus},
	{"-", Minus},
	{"*", Star},
	{"/", Slash},
	{"%", Percent},
	{"?", Question},
	{".", Dot},
	{",", Comma},
	{":", Colon},
	{";", Semicolon},
	{"@", At},
	{"|", Pipe},
	{"(", LParen},
	{")", RParen},
	{"[", LBracket},
	{"]", RBracket},
}

var kindNames = map[TokenKind]string{
	EOF:          "EOF",
	BadCharacter: "BAD_CHARACTER",
	Whitespace:   "WHITESPACE",
	Newline:      "NEWLINE",
	LineComment:  "LINE_COMMENT",
	BlockComment: "BLOCK_COMMENT",
	Identifier:   "IDENTIFIER",
	Number:       "NUMBER",
	SingleString: "SINGLE_STRING",
	StringStart:  "STRING_START",
	StringText:   "STRING_TEXT",
	StringEscape: "STRING_ESCAPE",
	InterpOpen:   "INTERP_OPEN",
	InterpSimple: "INTERP_SIMPLE",
	InterpClose:  "INTERP_CLOSE",
	StringEnd:    "STRING_END",
	Assign:       "ASSIGN",
	PlusAssign:   "PLUS_ASSIGN",
	MinusAssign:  "MINUS_ASSIGN",
	MulAssign:    "MUL_ASSIGN",
	DivAssign:    "DIV_ASSIGN",
	Eq:           "EQ",
	NotEq:        "NOT_EQ",
	Lt:           "LT",
	Le:           "LE",
	Gt:           "GT",
	Ge:           "GE",
	And:          "AND",
	Or:           "OR",
	Not:          "NOT",
	Plus:         "PLUS",
	Minus:        "MINUS",
	Star:         "STAR",
	Slash:        "SLASH",
	Percent:      "PERCENT",
	Inc:          "INC",
	Dec:          "DEC",
	Arrow:        "ARROW",
	FatArrow:     "FAT_ARROW",
	Question:     "QUESTION",
	Dot:          "DOT",
	Range:        "RANGE",
	Comma:        "COMMA",
	Colon:        "COLON",
	Semicolon:    "SEMICOLON",
	At:           "AT",
	Pipe:         "PIPE",
	LParen:       "LPAREN",
	RParen:       "RPAREN",
	LBrace:       "LBRACE",
	RBrace:       "RBRACE",
	LBracket:     "LBRACKET",
	RBracket:     "RBRACKET",
}

func init() {
	for text, kind := range keywords {
		kindNames[kind] = "KW_" + upper(text)
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func (k TokenKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsKeyword reports whether k is a reserved word.
func (k TokenKind) IsKeyword() bool {
	return k >= KwImport && k <= KwNull
}

// IsTrivia reports whether k carries no syntactic meaning. Newlines are not
// trivia: they terminate statements.
func (k TokenKind) IsTrivia() bool {
	switch k {
	case Whitespace, LineComment, BlockComment:
		return true
	}
	return false
}

func (k TokenKind) IsAssignment() bool {
	switch k {
	case Assign, PlusAssign, MinusAssign, MulAssign, DivAssign:
		return true
	}
	return false
}

// Keyword returns the keyword kind for word, if it is one.
func Keyword(word string) (TokenKind, bool) {
	k, ok := keywords[word]
	return k, ok
}

// Token is one span of source text. State is the lexer state at End.
type Token struct {
	Kind  TokenKind
	Start int
	End   int
	State State
}

func (t Token) Len() int {
	return t.End - t.Start
}

// Text returns the token's source slice.
func (t Token) Text(src string) string {
	if t.Start < 0 || t.End > len(src) || t.Start > t.End {
		return ""
	}
	return src[t.Start:t.End]
}
