// Package classifier assigns a syntactic role to every identifier occurrence
// using only its neighbouring tokens.
package classifier

import (
	"strings"
	"unicode"

	"kite/internal/engine/lexer"
	"kite/internal/engine/syntax"
)

type Role int

const (
	RoleNone Role = iota
	RoleDeclarationName
	RoleReference
	RolePropertyDefinitionName
	RoleTypeAnnotation
	RoleDecoratorName
	RolePropertyAccessTarget
)

func (r Role) String() string {
	switch r {
	case RoleDeclarationName:
		return "declaration"
	case RoleReference:
		return "reference"
	case RolePropertyDefinitionName:
		return "property"
	case RoleTypeAnnotation:
		return "type"
	case RoleDecoratorName:
		return "decorator"
	case RolePropertyAccessTarget:
		return "member"
	default:
		return "none"
	}
}

// IsDeclaration reports whether r names a binding occurrence.
func (r Role) IsDeclaration() bool {
	return r == RoleDeclarationName || r == RolePropertyDefinitionName
}

var declKeywords = map[lexer.TokenKind]bool{
	lexer.KwVar:       true,
	lexer.KwInput:     true,
	lexer.KwOutput:    true,
	lexer.KwFun:       true,
	lexer.KwType:      true,
	lexer.KwFor:       true,
	lexer.KwResource:  true,
	lexer.KwComponent: true,
	lexer.KwSchema:    true,
}

// Name returns the identifier an occurrence refers to; for $name
// interpolations that is the text after the dollar.
func Name(f *syntax.File, i int) string {
	text := f.TokenText(i)
	if f.Kind(i) == lexer.InterpSimple {
		return strings.TrimPrefix(text, "$")
	}
	return text
}

// ClassifyAll returns the role of every token in f.
func ClassifyAll(f *syntax.File) []Role {
	roles := make([]Role, f.Len())
	for i := range roles {
		roles[i] = Classify(f, i)
	}
	return roles
}

// Classify returns the role of token i. Non-identifier tokens get RoleNone;
// $name interpolations are always references.
func Classify(f *syntax.File, i int) Role {
	switch f.Kind(i) {
	case lexer.Identifier:
	case lexer.InterpSimple:
		return RoleReference
	default:
		return RoleNone
	}

	st := f.StatementOf(i)
	head := f.SkipDecorators(st.First)
	if f.Kind(head) == lexer.KwType && inAliasBody(f, head, i) {
		return RoleTypeAnnotation
	}

	prev := f.Prev(i)
	prevKind := f.Kind(prev)
	if prevKind == lexer.Assign {
		return RoleReference
	}
	if declaresNext(f, i) {
		return RoleDeclarationName
	}
	if prevKind == lexer.At {
		return RoleDecoratorName
	}
	if prevKind == lexer.Dot {
		return RolePropertyAccessTarget
	}
	if f.Kind(head) == lexer.KwImport {
		return RoleDeclarationName
	}
	if role, ok := parameterRole(f, i); ok {
		return role
	}
	if role, ok := bodyPropertyRole(f, i); ok {
		return role
	}
	if role, ok := headRole(f, i, st, head); ok {
		return role
	}
	return RoleReference
}

// declaresNext applies the "followed by = { += :" rule. A '{' only counts
// when it opens a declaration body and a ':' only when it is not the else
// arm of a conditional expression.
func declaresNext(f *syntax.File, i int) bool {
	next := f.Next(i)
	switch f.Kind(next) {
	case lexer.Assign, lexer.PlusAssign:
		return true
	case lexer.LBrace:
		switch f.BlockKind(next) {
		case syntax.BlockSchema, syntax.BlockResource, syntax.BlockComponent:
			return true
		}
		return false
	case lexer.Colon:
		return !inConditional(f, i) && f.Kind(f.StatementStart(i)) != lexer.KwFor
	}
	return false
}

func inConditional(f *syntax.File, i int) bool {
	owner := f.Owner(i)
	for j := f.StatementStart(i); j >= 0 && j < i; j = f.Next(j) {
		if f.Kind(j) == lexer.Question && f.Owner(j) == owner {
			return true
		}
	}
	return false
}

func inAliasBody(f *syntax.File, head, i int) bool {
	for j := f.Next(head); j >= 0 && j < i; j = f.Next(j) {
		if f.Kind(j) == lexer.Assign {
			return true
		}
	}
	return false
}

// IsFunctionParams reports whether the '(' at open starts a parameter list.
func IsFunctionParams(f *syntax.File, open int) bool {
	if f.Kind(open) != lexer.LParen {
		return false
	}
	p := f.PrevCode(open)
	switch f.Kind(p) {
	case lexer.KwInit, lexer.KwFun:
		return true
	case lexer.Identifier:
		return f.Kind(f.PrevCode(p)) == lexer.KwFun
	}
	return false
}

// parameterRole handles `type name, type name` inside a function's parameter
// list: the last identifier of each segment is the parameter.
func parameterRole(f *syntax.File, i int) (Role, bool) {
	open := f.Owner(i)
	if !IsFunctionParams(f, open) {
		return RoleNone, false
	}
	for j := f.Next(i); j >= 0; j = f.Next(j) {
		switch k := f.Kind(j); {
		case k == lexer.Comma || k == lexer.RParen || k == lexer.Assign:
			return RoleDeclarationName, true
		case k == lexer.Identifier:
			return RoleTypeAnnotation, true
		case k == lexer.LBracket && f.Match(j) > j:
			j = f.Match(j)
		}
	}
	return RoleDeclarationName, true
}

// bodyPropertyRole infers `Type name` pairs inside schema, resource and
// component bodies, where property declarations have no keyword.
func bodyPropertyRole(f *syntax.File, i int) (Role, bool) {
	brace := f.EnclosingBrace(i)
	if brace < 0 || f.Owner(i) != brace {
		return RoleNone, false
	}
	switch f.BlockKind(brace) {
	case syntax.BlockSchema, syntax.BlockResource, syntax.BlockComponent:
	default:
		return RoleNone, false
	}

	next := f.Next(i)
	if f.Kind(next) == lexer.LBracket && f.Kind(f.Next(next)) == lexer.RBracket {
		next = f.Next(f.Next(next))
	}
	if f.Kind(next) == lexer.Identifier && typeLike(f, i) {
		return RoleTypeAnnotation, true
	}

	prev := f.Prev(i)
	if f.Kind(prev) == lexer.RBracket && f.Kind(f.Prev(prev)) == lexer.LBracket {
		prev = f.Prev(f.Prev(prev))
	}
	if f.Kind(prev) == lexer.Identifier && typeLike(f, prev) {
		return RolePropertyDefinitionName, true
	}
	return RoleNone, false
}

func typeLike(f *syntax.File, i int) bool {
	name := f.TokenText(i)
	if IsBuiltinType(name) {
		return true
	}
	if r := []rune(name); len(r) > 0 && unicode.IsUpper(r[0]) {
		return true
	}
	switch f.Kind(f.Prev(i)) {
	case lexer.KwInput, lexer.KwOutput:
		return true
	}
	return f.LineStart(i)
}

// headRole applies the declaration-keyword rule: inside a declaration head
// the last identifier is the name and the ones before it are its type.
func headRole(f *syntax.File, i int, st syntax.Stmt, head int) (Role, bool) {
	if !declKeywords[f.Kind(head)] || f.Owner(i) != f.Owner(head) {
		return RoleNone, false
	}

	var idents []int
	j := f.Next(head)
	for ; j >= 0 && j <= st.Last; j = f.Next(j) {
		k := f.Kind(j)
		if k == lexer.Assign || k == lexer.PlusAssign || k == lexer.LBrace || k == lexer.LParen ||
			k == lexer.KwIn || k == lexer.Newline || k == lexer.Colon {
			break
		}
		if k == lexer.Identifier {
			idents = append(idents, j)
		}
	}

	if f.Kind(head) == lexer.KwFun && f.Kind(j) == lexer.LParen {
		if closeParen := f.Match(j); closeParen > 0 && i > closeParen {
			return RoleTypeAnnotation, true
		}
	}

	for n, id := range idents {
		if id != i {
			continue
		}
		if f.Kind(head) == lexer.KwFor || n == len(idents)-1 {
			return RoleDeclarationName, true
		}
		return RoleTypeAnnotation, true
	}
	return RoleNone, false
}
