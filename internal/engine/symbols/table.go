// Package symbols builds the per-file declaration table and scope tree.
package symbols

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"kite/internal/engine/syntax"
)

type DeclKind int

const (
	Variable DeclKind = iota
	Input
	Output
	Resource
	Component
	Schema
	Function
	Parameter
	TypeAlias
	LoopVariable
)

func (k DeclKind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Input:
		return "input"
	case Output:
		return "output"
	case Resource:
		return "resource"
	case Component:
		return "component"
	case Schema:
		return "schema"
	case Function:
		return "function"
	case Parameter:
		return "parameter"
	case TypeAlias:
		return "type"
	case LoopVariable:
		return "loop variable"
	default:
		return fmt.Sprintf("DeclKind(%d)", int(k))
	}
}

// ScopeID indexes Table.Scopes. The file scope is always 0.
type ScopeID int

const FileScope ScopeID = 0

type ScopeKind int

const (
	ScopeFile ScopeKind = iota
	ScopeFunction
	ScopeLoop
	ScopeBlock
	ScopeComponent
)

type Scope struct {
	ID     ScopeID
	Kind   ScopeKind
	Parent ScopeID
	Span   syntax.Span
	depth  int
}

// Scoping selects how references are matched to declarations.
type Scoping int

const (
	// ScopingFlat treats every declaration in a file as visible everywhere in it.
	ScopingFlat Scoping = iota
	// ScopingLexical only sees declarations of enclosing scopes.
	ScopingLexical
)

func ParseScoping(s string) (Scoping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat":
		return ScopingFlat, nil
	case "lexical":
		return ScopingLexical, nil
	}
	return ScopingFlat, fmt.Errorf("unknown scoping mode %q", s)
}

func (s Scoping) String() string {
	if s == ScopingLexical {
		return "lexical"
	}
	return "flat"
}

type Param struct {
	Name  string
	Type  string
	Token int
	Span  syntax.Span
}

type Declaration struct {
	Name  string
	Kind  DeclKind
	Scope ScopeID
	// Token is the index of the name token.
	Token    int
	Span     syntax.Span
	Type     string
	TypeSpan syntax.Span
	// Value is the first token of the initializer, or -1.
	Value int
	// Body is the '{' opening the declaration's body, or -1.
	Body int
	// Instance marks `component Type name { }` as opposed to a definition.
	Instance   bool
	Params     []Param
	ReturnType string
}

type Table struct {
	File    *syntax.File
	decls   []*Declaration
	byName  map[string][]*Declaration
	byToken map[int]*Declaration
	scopes  []Scope

	mu         sync.Mutex
	schemas    map[string]*SchemaDef
	components map[string]*ComponentDef
}

func newTable(f *syntax.File) *Table {
	return &Table{
		File:    f,
		byName:  make(map[string][]*Declaration),
		byToken: make(map[int]*Declaration),
		scopes: []Scope{{
			ID:     FileScope,
			Kind:   ScopeFile,
			Parent: -1,
			Span:   syntax.Span{Start: 0, End: len(f.Text)},
		}},
		schemas:    make(map[string]*SchemaDef),
		components: make(map[string]*ComponentDef),
	}
}

func (t *Table) addScope(kind ScopeKind, parent ScopeID, span syntax.Span) ScopeID {
	id := ScopeID(len(t.scopes))
	t.scopes = append(t.scopes, Scope{
		ID:     id,
		Kind:   kind,
		Parent: parent,
		Span:   span,
		depth:  t.scopes[parent].depth + 1,
	})
	return id
}

func (t *Table) add(d *Declaration) *Declaration {
	t.decls = append(t.decls, d)
	t.byName[d.Name] = append(t.byName[d.Name], d)
	t.byToken[d.Token] = d
	return d
}

// All returns declarations in source order.
func (t *Table) All() []*Declaration {
	if t == nil {
		return nil
	}
	out := append([]*Declaration(nil), t.decls...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Span.Start < out[j].Span.Start })
	return out
}

// Names is the flat set of every name declared in the file, parameters and
// loop variables included.
func (t *Table) Names() map[string]bool {
	if t == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(t.byName))
	for name := range t.byName {
		out[name] = true
	}
	return out
}

func (t *Table) Has(name string) bool {
	return t != nil && len(t.byName[name]) > 0
}

// Lookup prefers a file-scope declaration, then the first one in source order.
func (t *Table) Lookup(name string) *Declaration {
	if t == nil {
		return nil
	}
	decls := t.byName[name]
	for _, d := range decls {
		if d.Scope == FileScope {
			return d
		}
	}
	if len(decls) > 0 {
		return decls[0]
	}
	return nil
}

// LookupAll returns every declaration of name.
func (t *Table) LookupAll(name string) []*Declaration {
	if t == nil {
		return nil
	}
	return append([]*Declaration(nil), t.byName[name]...)
}

// DeclarationAt returns the declaration whose name token is i.
func (t *Table) DeclarationAt(i int) *Declaration {
	if t == nil {
		return nil
	}
	return t.byToken[i]
}

func (t *Table) Scopes() []Scope {
	if t == nil {
		return nil
	}
	return append([]Scope(nil), t.scopes...)
}

func (t *Table) Scope(id ScopeID) (Scope, bool) {
	if t == nil || id < 0 || int(id) >= len(t.scopes) {
		return Scope{}, false
	}
	return t.scopes[id], true
}

// ScopeAt returns the innermost scope containing offset.
func (t *Table) ScopeAt(offset int) ScopeID {
	best := FileScope
	if t == nil {
		return best
	}
	for _, s := range t.scopes[1:] {
		if offset >= s.Span.Start && offset < s.Span.End && s.depth > t.scopes[best].depth {
			best = s.ID
		}
	}
	return best
}

func (t *Table) encloses(outer, inner ScopeID) bool {
	for id := inner; id >= 0; id = t.scopes[id].Parent {
		if id == outer {
			return true
		}
	}
	return false
}

// LookupAt resolves name as seen from offset. Under flat scoping this is
// Lookup; under lexical scoping the innermost enclosing declaration wins.
func (t *Table) LookupAt(name string, offset int, mode Scoping) *Declaration {
	if t == nil {
		return nil
	}
	if mode == ScopingFlat {
		return t.Lookup(name)
	}
	at := t.ScopeAt(offset)
	var best *Declaration
	for _, d := range t.byName[name] {
		if !t.encloses(d.Scope, at) {
			continue
		}
		if best == nil || t.scopes[d.Scope].depth > t.scopes[best.Scope].depth {
			best = d
		}
	}
	return best
}

// Visible reports whether name resolves locally from offset.
func (t *Table) Visible(name string, offset int, mode Scoping) bool {
	return t.LookupAt(name, offset, mode) != nil
}

// Shadowed lists declarations that hide a same-named declaration of an
// enclosing scope. Only meaningful with lexical scoping.
func (t *Table) Shadowed() []*Declaration {
	if t == nil {
		return nil
	}
	var out []*Declaration
	for _, d := range t.decls {
		parent := t.scopes[d.Scope].Parent
		if parent < 0 {
			continue
		}
		for _, other := range t.byName[d.Name] {
			if other != d && other.Scope != d.Scope && t.encloses(other.Scope, parent) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
