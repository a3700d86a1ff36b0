package classifier

import "strings"

var builtinTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"boolean": true,
	"object":  true,
	"any":     true,
	"void":    true,
	"null":    true,
	"array":   true,
}

// IsBuiltinType matches built-in type names case-insensitively.
func IsBuiltinType(name string) bool {
	return builtinTypes[strings.ToLower(name)]
}

var builtinFunctions = map[string]bool{
	"print":        true,
	"println":      true,
	"len":          true,
	"length":       true,
	"toString":     true,
	"toNumber":     true,
	"toBoolean":    true,
	"keys":         true,
	"values":       true,
	"contains":     true,
	"join":         true,
	"split":        true,
	"upper":        true,
	"lower":        true,
	"trim":         true,
	"replace":      true,
	"startsWith":   true,
	"endsWith":     true,
	"format":       true,
	"env":          true,
	"file":         true,
	"base64encode": true,
	"base64decode": true,
	"jsonencode":   true,
	"jsondecode":   true,
	"range":        true,
	"min":          true,
	"max":          true,
	"abs":          true,
	"floor":        true,
	"ceil":         true,
	"round":        true,
	"now":          true,
	"uuid":         true,
	"merge":        true,
	"concat":       true,
	"cidrsubnet":   true,
}

// BuiltinFunctionTypes gives the return type of built-ins that have a fixed one.
var BuiltinFunctionTypes = map[string]string{
	"len":          "number",
	"length":       "number",
	"toString":     "string",
	"toNumber":     "number",
	"toBoolean":    "boolean",
	"keys":         "array",
	"values":       "array",
	"contains":     "boolean",
	"join":         "string",
	"split":        "array",
	"upper":        "string",
	"lower":        "string",
	"trim":         "string",
	"replace":      "string",
	"startsWith":   "boolean",
	"endsWith":     "boolean",
	"format":       "string",
	"env":          "string",
	"file":         "string",
	"base64encode": "string",
	"base64decode": "string",
	"jsonencode":   "string",
	"jsondecode":   "any",
	"range":        "array",
	"min":          "number",
	"max":          "number",
	"abs":          "number",
	"floor":        "number",
	"ceil":         "number",
	"round":        "number",
	"now":          "string",
	"uuid":         "string",
	"merge":        "object",
	"concat":       "array",
	"cidrsubnet":   "string",
}

func IsBuiltinFunction(name string) bool {
	return builtinFunctions[name]
}

var decorators = map[string]bool{
	"description": true,
	"allowed":     true,
	"minValue":    true,
	"maxValue":    true,
	"minLength":   true,
	"maxLength":   true,
	"nonEmpty":    true,
	"sensitive":   true,
	"validate":    true,
	"dependsOn":   true,
	"tags":        true,
	"provider":    true,
	"provisionOn": true,
	"existing":    true,
	"count":       true,
	"cloud":       true,
	"unique":      true,
}

// IsDecorator reports whether name is in the built-in decorator vocabulary.
func IsDecorator(name string) bool {
	return decorators[name]
}

// Builtins is the exemption set used when checking references. The zero value
// holds only the fixed vocabulary.
type Builtins struct {
	extra map[string]bool
}

// NewBuiltins adds project-configured global function names to the fixed set.
func NewBuiltins(extraFunctions []string) Builtins {
	b := Builtins{extra: make(map[string]bool, len(extraFunctions))}
	for _, name := range extraFunctions {
		name = strings.TrimSpace(name)
		if name != "" {
			b.extra[name] = true
		}
	}
	return b
}

// Exempt reports whether a reference named name never needs resolving.
func (b Builtins) Exempt(name string) bool {
	return IsBuiltinType(name) || IsBuiltinFunction(name) || b.extra[name]
}
