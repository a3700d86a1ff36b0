// Package types implements Kite's type tags, union normalization, the lenient
// compatibility check and value-level inference.
package types

import (
	"sort"
	"strings"

	"kite/internal/engine/lexer"
)

// Unknown means no type could be inferred. Checks that see it are skipped.
const Unknown = ""

const (
	String  = "string"
	Number  = "number"
	Boolean = "boolean"
	Null    = "null"
	Object  = "object"
	Array   = "array"
	Any     = "any"
	Void    = "void"
)

var builtin = map[string]bool{
	String: true, Number: true, Boolean: true, Null: true,
	Object: true, Array: true, Any: true, Void: true,
}

// IsBuiltin reports whether t is a built-in tag. Array forms like
// "string[]" count as built-in.
func IsBuiltin(t string) bool {
	t = Normalize(t)
	return builtin[strings.TrimSuffix(t, "[]")] || (strings.HasSuffix(t, "[]") && t != "[]")
}

// IsCustom reports a nominal type: a schema, alias, resource or component name.
func IsCustom(t string) bool {
	t = Normalize(t)
	return t != Unknown && !IsBuiltin(t) && !strings.Contains(t, "|")
}

// Normalize canonicalises a written type: built-in names lowercased, spaces
// dropped, unions deduplicated and sorted.
func Normalize(t string) string {
	t = strings.Join(strings.Fields(t), "")
	if t == "" {
		return Unknown
	}
	if strings.Contains(t, "|") {
		return NormalizeUnion(strings.Split(t, "|"))
	}
	base := strings.TrimSuffix(t, "[]")
	suffix := t[len(base):]
	if lower := strings.ToLower(base); builtin[lower] {
		return lower + suffix
	}
	return t
}

// NormalizeUnion collapses members to their primitive kinds, drops
// duplicates and unknowns, and joins the rest alphabetically with " | ".
// Quoted literals and numbers are accepted as members.
func NormalizeUnion(members []string) string {
	seen := make(map[string]bool, len(members))
	var tags []string
	for _, m := range members {
		tag := memberTag(strings.TrimSpace(m))
		if tag == Unknown || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return strings.Join(tags, " | ")
}

func memberTag(m string) string {
	if m == "" {
		return Unknown
	}
	switch m[0] {
	case '"', '\'':
		return String
	case '{':
		return Object
	case '[':
		return Array
	}
	if m[0] >= '0' && m[0] <= '9' || (m[0] == '-' && len(m) > 1) {
		return Number
	}
	switch m {
	case "true", "false":
		return Boolean
	case "null":
		return Null
	}
	return Normalize(m)
}

// LiteralType maps a literal's first token to its tag.
func LiteralType(k lexer.TokenKind) string {
	switch k {
	case lexer.StringStart, lexer.SingleString:
		return String
	case lexer.Number:
		return Number
	case lexer.KwTrue, lexer.KwFalse:
		return Boolean
	case lexer.KwNull:
		return Null
	case lexer.LBrace:
		return Object
	case lexer.LBracket:
		return Array
	}
	return Unknown
}

// Compatible reports whether a value of type actual may be assigned where
// declared is expected. Unknown on either side is compatible: the check is
// skipped rather than failed.
//
// The rules are lenient: any and null match everything, and a custom
// declared type accepts primitives because aliases are not expanded to
// their members.
func Compatible(declared, actual string) bool {
	d, a := Normalize(declared), Normalize(actual)
	if d == Unknown || a == Unknown || d == a {
		return true
	}
	if d == Any || a == Any || d == Null || a == Null {
		return true
	}
	if strings.Contains(d, "|") {
		for _, m := range strings.Split(d, " | ") {
			if Compatible(m, a) {
				return true
			}
		}
		return false
	}
	if strings.HasSuffix(d, "[]") {
		return a == Array || strings.HasSuffix(a, "[]")
	}
	if d == Array {
		return strings.HasSuffix(a, "[]")
	}
	if IsCustom(d) {
		return a != Array && !strings.HasSuffix(a, "[]")
	}
	if IsCustom(a) {
		return true
	}
	if strings.Contains(a, "|") {
		for _, m := range strings.Split(a, " | ") {
			if !Compatible(d, m) {
				return false
			}
		}
		return true
	}
	return false
}
