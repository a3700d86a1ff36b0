package symbols

import (
	"kite/internal/engine/lexer"
	"kite/internal/engine/syntax"
)

// Property is a typed member of a schema or component.
type Property struct {
	Name string
	Type string
	// Kind is Input or Output for component members and Variable for schema
	// properties.
	Kind  DeclKind
	Token int
	Span  syntax.Span
	Value int
}

type SchemaDef struct {
	Name       string
	Decl       *Declaration
	Properties []Property
}

func (s *SchemaDef) Property(name string) (Property, bool) {
	if s == nil {
		return Property{}, false
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

type ComponentDef struct {
	Name    string
	Decl    *Declaration
	Inputs  []Property
	Outputs []Property
}

func (c *ComponentDef) Input(name string) (Property, bool) {
	if c == nil {
		return Property{}, false
	}
	return findProperty(c.Inputs, name)
}

func (c *ComponentDef) Output(name string) (Property, bool) {
	if c == nil {
		return Property{}, false
	}
	return findProperty(c.Outputs, name)
}

// Member looks a name up among outputs, then inputs.
func (c *ComponentDef) Member(name string) (Property, bool) {
	if p, ok := c.Output(name); ok {
		return p, true
	}
	return c.Input(name)
}

func findProperty(props []Property, name string) (Property, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Schema returns the schema called name declared in this file. Bodies are
// scanned on first request and memoized for the lifetime of the table.
func (t *Table) Schema(name string) (*SchemaDef, bool) {
	if t == nil {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if def, ok := t.schemas[name]; ok {
		return def, def != nil
	}
	var def *SchemaDef
	for _, d := range t.byName[name] {
		if d.Kind == Schema {
			def = t.scanSchema(d)
			break
		}
	}
	t.schemas[name] = def
	return def, def != nil
}

// Component returns the component definition called name. Instances are
// skipped.
func (t *Table) Component(name string) (*ComponentDef, bool) {
	if t == nil {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if def, ok := t.components[name]; ok {
		return def, def != nil
	}
	var def *ComponentDef
	for _, d := range t.byName[name] {
		if d.Kind == Component && !d.Instance {
			def = t.scanComponent(d)
			break
		}
	}
	t.components[name] = def
	return def, def != nil
}

func (t *Table) scanSchema(d *Declaration) *SchemaDef {
	f := t.File
	def := &SchemaDef{Name: d.Name, Decl: d}
	if d.Body < 0 {
		return def
	}
	for _, st := range f.Statements(d.Body) {
		head := f.SkipDecorators(st.First)
		if head < 0 || head > st.Last {
			continue
		}
		if p, ok := member(f, Variable, head, st.Last); ok {
			def.Properties = append(def.Properties, p)
		}
	}
	return def
}

func (t *Table) scanComponent(d *Declaration) *ComponentDef {
	f := t.File
	def := &ComponentDef{Name: d.Name, Decl: d}
	if d.Body < 0 {
		return def
	}
	for _, st := range f.Statements(d.Body) {
		head := f.SkipDecorators(st.First)
		if head < 0 || head > st.Last {
			continue
		}
		switch f.Kind(head) {
		case lexer.KwInput:
			if p, ok := member(f, Input, f.Next(head), st.Last); ok {
				def.Inputs = append(def.Inputs, p)
			}
		case lexer.KwOutput:
			if p, ok := member(f, Output, f.Next(head), st.Last); ok {
				def.Outputs = append(def.Outputs, p)
			}
		}
	}
	return def
}

func member(f *syntax.File, kind DeclKind, from, last int) (Property, bool) {
	name, typ, _, term := typedName(f, from, last)
	if name < 0 {
		return Property{}, false
	}
	return Property{
		Name:  f.TokenText(name),
		Type:  typ,
		Kind:  kind,
		Token: name,
		Span:  f.Span(name),
		Value: valueAfter(f, term, last),
	}, true
}

// Assignment is one `name = value` or `name: value` entry of a body or
// object literal.
type Assignment struct {
	Name  string
	Token int
	Value int
}

// Assignments lists the entries directly inside the '{' at open.
func Assignments(f *syntax.File, open int) []Assignment {
	if f.Kind(open) != lexer.LBrace {
		return nil
	}
	var out []Assignment
	for _, st := range f.Statements(open) {
		key := f.SkipDecorators(st.First)
		if key < 0 || key > st.Last {
			continue
		}
		if k := f.Kind(key); k != lexer.Identifier && k != lexer.SingleString && k != lexer.StringStart {
			continue
		}
		keyEnd := key
		if f.Kind(key) == lexer.StringStart && f.Match(key) > key {
			keyEnd = f.Match(key)
		}
		op := f.Next(keyEnd)
		switch f.Kind(op) {
		case lexer.Assign, lexer.Colon:
		default:
			continue
		}
		v := f.NextCode(op)
		if v > st.Last {
			v = -1
		}
		out = append(out, Assignment{Name: keyName(f, key, keyEnd), Token: key, Value: v})
	}
	return out
}

func keyName(f *syntax.File, key, keyEnd int) string {
	switch f.Kind(key) {
	case lexer.SingleString:
		text := f.TokenText(key)
		if len(text) >= 2 {
			return text[1 : len(text)-1]
		}
		return ""
	case lexer.StringStart:
		if keyEnd == key {
			return ""
		}
		return f.Text[f.Span(key).End:f.Span(keyEnd).Start]
	}
	return f.TokenText(key)
}

// LookupAssignment finds an entry by name.
func LookupAssignment(entries []Assignment, name string) (Assignment, bool) {
	for _, a := range entries {
		if a.Name == name {
			return a, true
		}
	}
	return Assignment{}, false
}
