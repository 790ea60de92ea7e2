// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry patches the Swift host/path registry file.
//
// The file has two sections:
//
//	extension Host {
//	    static let live = Host(rawValue: "live.huajiao.com")
//	}
//
//	extension Path {
//	    /// 用户搜索
//	    static let userSearch = Path(rawValue: "/user/search")
//	}
//
// Parse builds an ordered view of both sections; EnsureHost and EnsurePath look
// entries up by raw value and append only when absent. Everything outside the
// appended lines is written back unchanged.
package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bartekus/swiftreq/internal/generr"
	"github.com/bartekus/swiftreq/internal/naming"
)

// Kind is the registry section an entry belongs to.
type Kind string

const (
	KindHost Kind = "Host"
	KindPath Kind = "Path"
)

const defaultIndent = "    "

var (
	headerRe  = regexp.MustCompile(`^extension (Host|Path)\s*\{\s*$`)
	closeRe   = regexp.MustCompile(`^\}\s*$`)
	entryRe   = regexp.MustCompile(`^(\s*)static let (\w+) = (Host|Path)\(rawValue: "([^"]*)"\)`)
	commentRe = regexp.MustCompile(`^\s*///\s?(.*)$`)
)

// Entry is one `static let` line in a section.
type Entry struct {
	Kind       Kind
	Identifier string
	RawValue   string
	// Comment is the nearest `///` line above the entry, without the marker.
	Comment string
}

type section struct {
	header  int
	end     int
	indent  string
	entries []Entry
}

// Registry is an in-memory, patchable view of the registry file.
type Registry struct {
	name     string
	lines    []string
	sections map[Kind]*section
	changed  bool
}

// Parse reads content into a Registry. name is only used in error messages.
// It fails with RegistryCorruptError when either section is missing,
// duplicated or not terminated by a closing brace at column zero.
func Parse(name string, content []byte) (*Registry, error) {
	r := &Registry{
		name:  name,
		lines: strings.Split(string(content), "\n"),
	}
	if err := r.index(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) index() error {
	sections := make(map[Kind]*section, 2)

	for i := 0; i < len(r.lines); i++ {
		m := headerRe.FindStringSubmatch(r.lines[i])
		if m == nil {
			continue
		}
		kind := Kind(m[1])
		if _, dup := sections[kind]; dup {
			return r.corrupt("duplicate extension %s section at line %d", kind, i+1)
		}

		sec := &section{header: i, end: -1}
		for j := i + 1; j < len(r.lines); j++ {
			if closeRe.MatchString(r.lines[j]) {
				sec.end = j
				break
			}
			if headerRe.MatchString(r.lines[j]) {
				break
			}
		}
		if sec.end < 0 {
			return r.corrupt("extension %s section opened at line %d is not closed", kind, i+1)
		}

		r.collect(kind, sec)
		sections[kind] = sec
		i = sec.end
	}

	for _, kind := range []Kind{KindHost, KindPath} {
		if sections[kind] == nil {
			return r.corrupt("extension %s section not found", kind)
		}
	}
	r.sections = sections
	return nil
}

func (r *Registry) collect(kind Kind, sec *section) {
	for j := sec.header + 1; j < sec.end; j++ {
		line := r.lines[j]
		m := entryRe.FindStringSubmatch(line)
		if m == nil || Kind(m[3]) != kind {
			if sec.indent == "" && strings.TrimSpace(line) != "" {
				sec.indent = leadingSpace(line)
			}
			continue
		}
		if len(sec.entries) == 0 {
			sec.indent = m[1]
		}
		e := Entry{Kind: kind, Identifier: m[2], RawValue: m[4]}
		if j-1 > sec.header {
			if c := commentRe.FindStringSubmatch(r.lines[j-1]); c != nil {
				e.Comment = strings.TrimRight(c[1], "\r")
			}
		}
		sec.entries = append(sec.entries, e)
	}
	if sec.indent == "" {
		sec.indent = defaultIndent
	}
}

// Entries returns the entries of one section in file order.
func (r *Registry) Entries(kind Kind) []Entry {
	sec := r.sections[kind]
	out := make([]Entry, len(sec.entries))
	copy(out, sec.entries)
	return out
}

// Lookup finds an entry by raw value.
func (r *Registry) Lookup(kind Kind, rawValue string) (Entry, bool) {
	for _, e := range r.sections[kind].entries {
		if e.RawValue == rawValue {
			return e, true
		}
	}
	return Entry{}, false
}

// EnsureHost returns the Host entry for domain, appending one when absent.
// created reports whether the registry changed.
func (r *Registry) EnsureHost(domain string) (entry Entry, created bool, err error) {
	if e, ok := r.Lookup(KindHost, domain); ok {
		return e, false, nil
	}
	if err := checkRawValue("host", domain); err != nil {
		return Entry{}, false, err
	}

	id := naming.HostIdentifier(domain, r.bindings(KindHost))
	e := Entry{Kind: KindHost, Identifier: id, RawValue: domain}
	if err := r.appendEntry(e, false); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// EnsurePath returns the Path entry for path, appending one with a
// documentation comment equal to summary when absent.
func (r *Registry) EnsurePath(path, summary string) (entry Entry, created bool, err error) {
	if e, ok := r.Lookup(KindPath, path); ok {
		return e, false, nil
	}
	if err := checkRawValue("path", path); err != nil {
		return Entry{}, false, err
	}

	key := naming.DeriveIdentifiers(path).RegistryKey
	id := naming.UniqueKey(key, path, r.bindings(KindPath))
	e := Entry{Kind: KindPath, Identifier: id, RawValue: path, Comment: oneLine(summary)}
	if err := r.appendEntry(e, true); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Changed reports whether any entry was appended since Parse.
func (r *Registry) Changed() bool { return r.changed }

// Bytes serializes the registry.
func (r *Registry) Bytes() []byte {
	return []byte(strings.Join(r.lines, "\n"))
}

func (r *Registry) bindings(kind Kind) map[string]string {
	out := make(map[string]string)
	for _, e := range r.sections[kind].entries {
		out[e.Identifier] = e.RawValue
	}
	return out
}

// appendEntry inserts e after the last non-blank line of its section. On a
// failed re-index the registry is left as it was before the call.
func (r *Registry) appendEntry(e Entry, separated bool) error {
	sec := r.sections[e.Kind]

	at := sec.header + 1
	for j := sec.end - 1; j > sec.header; j-- {
		if strings.TrimSpace(r.lines[j]) != "" {
			at = j + 1
			break
		}
	}

	var block []string
	if separated && at > sec.header+1 {
		block = append(block, "")
	}
	if e.Comment != "" {
		block = append(block, sec.indent+"/// "+e.Comment)
	}
	block = append(block, fmt.Sprintf(`%sstatic let %s = %s(rawValue: "%s")`, sec.indent, e.Identifier, e.Kind, e.RawValue))

	lines := make([]string, 0, len(r.lines)+len(block))
	lines = append(lines, r.lines[:at]...)
	lines = append(lines, block...)
	lines = append(lines, r.lines[at:]...)

	// Line numbers after the insertion point moved; rebuild the view.
	prev := r.lines
	r.lines = lines
	if err := r.index(); err != nil {
		r.lines = prev
		return err
	}
	r.changed = true
	return nil
}

func (r *Registry) corrupt(format string, args ...any) error {
	return &generr.RegistryCorruptError{Path: r.name, Reason: fmt.Sprintf(format, args...)}
}

func checkRawValue(field, v string) error {
	if strings.ContainsAny(v, "\"\\\n") {
		return &generr.InvalidInputError{Field: field, Reason: fmt.Sprintf("%q cannot be written as a Swift string literal", v)}
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
