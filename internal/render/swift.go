// SPDX-License-Identifier: AGPL-3.0-or-later
package render

import "regexp"

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// keywords lists the Swift reserved words that need backticks when used as a
// property name.
var keywords = map[string]struct{}{
	"associatedtype": {}, "class": {}, "deinit": {}, "enum": {}, "extension": {},
	"fileprivate": {}, "func": {}, "import": {}, "init": {}, "inout": {},
	"internal": {}, "let": {}, "open": {}, "operator": {}, "private": {},
	"protocol": {}, "public": {}, "static": {}, "struct": {}, "subscript": {},
	"typealias": {}, "var": {}, "break": {}, "case": {}, "continue": {},
	"default": {}, "defer": {}, "do": {}, "else": {}, "fallthrough": {},
	"for": {}, "guard": {}, "if": {}, "in": {}, "repeat": {},
	"return": {}, "switch": {}, "where": {}, "while": {}, "as": {},
	"Any": {}, "catch": {}, "false": {}, "is": {}, "nil": {},
	"rethrows": {}, "super": {}, "self": {}, "Self": {}, "throw": {},
	"throws": {}, "true": {}, "try": {}, "associativity": {}, "convenience": {},
	"dynamic": {}, "didSet": {}, "final": {}, "get": {}, "infix": {},
	"indirect": {}, "lazy": {}, "left": {}, "mutating": {}, "none": {},
	"nonmutating": {}, "optional": {}, "override": {}, "postfix": {}, "precedence": {},
	"prefix": {}, "Protocol": {}, "required": {}, "right": {}, "set": {},
	"Type": {}, "unowned": {}, "weak": {}, "willSet": {},
}

// IsIdentifier reports whether name can be written as a Swift identifier,
// possibly after escaping.
func IsIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// Escape wraps reserved words in backticks and returns other names unchanged.
func Escape(name string) string {
	if _, ok := keywords[name]; ok {
		return "`" + name + "`"
	}
	return name
}

// memberKeywords are not plain member names after a dot.
var memberKeywords = map[string]struct{}{"self": {}, "Type": {}, "init": {}}

// EscapeMember escapes name for use after "." in a member access. Only
// self, Type and init need backticks there.
func EscapeMember(name string) string {
	if _, ok := memberKeywords[name]; ok {
		return "`" + name + "`"
	}
	return name
}
