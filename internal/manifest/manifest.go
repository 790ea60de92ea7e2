// SPDX-License-Identifier: AGPL-3.0-or-later

// Package manifest patches an Xcode project.pbxproj so a generated source file
// is part of the build.
//
// Adding one Swift file takes four coordinated edits: a PBXBuildFile object, a
// PBXFileReference object, a child entry in the owning PBXGroup and an entry in
// the PBXSourcesBuildPhase files list. New entries are placed next to an anchor
// file that is already in the project (the host/path registry).
package manifest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/bartekus/swiftreq/internal/generr"
)

var (
	beginRe    = regexp.MustCompile(`^/\* Begin (\w+) section \*/\s*$`)
	endRe      = regexp.MustCompile(`^/\* End (\w+) section \*/\s*$`)
	objectRe   = regexp.MustCompile(`^(\s*)([0-9A-Fa-f]{24}) /\* (.+?) \*/ = \{\s*$`)
	objectEnd  = regexp.MustCompile(`^\s*\};\s*$`)
	childrenRe = regexp.MustCompile(`^(\s*)children = \(\s*$`)
	listEnd    = regexp.MustCompile(`^\s*\);\s*$`)
	childRe    = regexp.MustCompile(`^(\s*)([0-9A-Fa-f]{24}) /\* (.+?) \*/,\s*$`)
)

var requiredSections = []string{"PBXBuildFile", "PBXFileReference", "PBXGroup", "PBXSourcesBuildPhase"}

type span struct {
	begin, end int
}

type child struct {
	id, name string
	line     int
}

type group struct {
	id, name      string
	childrenStart int
	childrenEnd   int
	children      []child
}

// Target says where a new file belongs.
type Target struct {
	// Anchor is the file name of a source already in the project; new objects
	// are inserted next to its objects and the group that contains it is
	// searched for the child group named Group.
	Anchor string
	// Group is the name of the child group that receives the new file.
	Group string
	// RequireGroup turns a missing Group into an error instead of a warning.
	RequireGroup bool
}

// Option configures a Manifest.
type Option func(*Manifest)

// WithIDSource replaces the object ID generator.
func WithIDSource(next func() string) Option {
	return func(m *Manifest) { m.nextID = next }
}

// Manifest is an in-memory, patchable view of a project.pbxproj.
type Manifest struct {
	name     string
	lines    []string
	sections map[string]span
	groups   []group
	nextID   func() string
	changed  bool
}

// Parse reads content into a Manifest. It fails with ManifestCorruptError when
// a required section is missing or unbalanced or a PBXGroup object cannot be read.
func Parse(name string, content []byte, opts ...Option) (*Manifest, error) {
	m := &Manifest{
		name:   name,
		lines:  strings.Split(string(content), "\n"),
		nextID: randomID,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.index(); err != nil {
		return nil, err
	}
	return m, nil
}

func randomID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:24]
}

func (m *Manifest) index() error {
	sections := make(map[string]span)
	open := ""
	begin := -1
	for i, line := range m.lines {
		if b := beginRe.FindStringSubmatch(line); b != nil {
			if open != "" {
				return m.corrupt("section %s begins inside section %s (line %d)", b[1], open, i+1)
			}
			open, begin = b[1], i
			continue
		}
		if e := endRe.FindStringSubmatch(line); e != nil {
			if e[1] != open {
				return m.corrupt("unexpected end of section %s at line %d", e[1], i+1)
			}
			sections[open] = span{begin: begin, end: i}
			open = ""
		}
	}
	if open != "" {
		return m.corrupt("section %s is not closed", open)
	}
	for _, s := range requiredSections {
		if _, ok := sections[s]; !ok {
			return m.corrupt("%s section not found", s)
		}
	}
	m.sections = sections

	groups, err := m.parseGroups(sections["PBXGroup"])
	if err != nil {
		return err
	}
	m.groups = groups
	return nil
}

func (m *Manifest) parseGroups(s span) ([]group, error) {
	var groups []group
	for i := s.begin + 1; i < s.end; i++ {
		o := objectRe.FindStringSubmatch(m.lines[i])
		if o == nil {
			continue
		}
		g := group{id: o[2], name: o[3], childrenStart: -1, childrenEnd: -1}

		j := i + 1
		for ; j < s.end && !objectEnd.MatchString(m.lines[j]); j++ {
			if childrenRe.MatchString(m.lines[j]) {
				g.childrenStart = j
				k := j + 1
				for ; k < s.end && !listEnd.MatchString(m.lines[k]); k++ {
					if c := childRe.FindStringSubmatch(m.lines[k]); c != nil {
						g.children = append(g.children, child{id: c[2], name: c[3], line: k})
					}
				}
				if k == s.end {
					return nil, m.corrupt("children list of group %s is not closed", g.id)
				}
				g.childrenEnd = k
				j = k
			}
		}
		if j == s.end {
			return nil, m.corrupt("group %s is not closed", g.id)
		}
		if g.childrenStart < 0 {
			return nil, m.corrupt("group %s has no children list", g.id)
		}
		groups = append(groups, g)
		i = j
	}
	return groups, nil
}

// References reports whether fileName is already mentioned by any object.
func (m *Manifest) References(fileName string) bool {
	comment := "/* " + fileName + " */"
	path := "path = " + fileName + ";"
	for _, line := range m.lines {
		if strings.Contains(line, comment) || strings.Contains(line, path) {
			return true
		}
	}
	return false
}

type insertion struct {
	at   int
	line string
}

// EnsureReference adds fileName to the project under t. It is a no-op when the
// file is already referenced. All four edits are computed before any is applied,
// so a failure leaves the manifest unchanged. When the group is missing and not
// required, the group edit is skipped and a GroupSkipped warning is returned.
func (m *Manifest) EnsureReference(fileName string, t Target) (added bool, warning *generr.Warning, err error) {
	if m.References(fileName) {
		return false, nil, nil
	}

	buildIdx, buildAnchorID, err := m.findLine("PBXBuildFile", func(trimmed string) bool {
		return strings.Contains(trimmed, "/* "+t.Anchor+" in Sources */ = {isa = PBXBuildFile;")
	})
	if err != nil {
		return false, nil, err
	}
	refIdx, refAnchorID, err := m.findLine("PBXFileReference", func(trimmed string) bool {
		return strings.Contains(trimmed, "/* "+t.Anchor+" */ = {isa = PBXFileReference;")
	})
	if err != nil {
		return false, nil, err
	}
	phaseIdx, _, err := m.findLine("PBXSourcesBuildPhase", func(trimmed string) bool {
		return trimmed == buildAnchorID+" /* "+t.Anchor+" in Sources */,"
	})
	if err != nil {
		return false, nil, err
	}

	fileRefID := m.uniqueID()
	buildID := m.uniqueID()
	for buildID == fileRefID {
		buildID = m.uniqueID()
	}

	inserts := []insertion{
		{at: buildIdx + 1, line: fmt.Sprintf("%s%s /* %s in Sources */ = {isa = PBXBuildFile; fileRef = %s /* %s */; };",
			leadingSpace(m.lines[buildIdx]), buildID, fileName, fileRefID, fileName)},
		{at: refIdx + 1, line: fmt.Sprintf("%s%s /* %s */ = {isa = PBXFileReference; lastKnownFileType = sourcecode.swift; path = %s; sourceTree = \"<group>\"; };",
			leadingSpace(m.lines[refIdx]), fileRefID, fileName, fileName)},
		{at: phaseIdx + 1, line: fmt.Sprintf("%s%s /* %s in Sources */,", leadingSpace(m.lines[phaseIdx]), buildID, fileName)},
	}

	target, ok := m.targetGroup(refAnchorID, t.Group)
	switch {
	case ok:
		inserts = append(inserts, insertion{
			at:   target.childrenEnd,
			line: fmt.Sprintf("%s%s /* %s */,", m.childIndent(target), fileRefID, fileName),
		})
	case t.RequireGroup:
		return false, nil, m.corrupt("group %q next to %s not found", t.Group, t.Anchor)
	default:
		warning = &generr.Warning{
			Code:    generr.GroupSkipped,
			Message: fmt.Sprintf("group %q next to %s not found; %s was not added to a group", t.Group, t.Anchor, fileName),
			Subject: fileName,
		}
	}

	m.apply(inserts)
	if err := m.index(); err != nil {
		return false, nil, fmt.Errorf("re-reading patched manifest: %w", err)
	}
	return true, warning, nil
}

// Changed reports whether any file was added since Parse.
func (m *Manifest) Changed() bool { return m.changed }

// Bytes serializes the manifest.
func (m *Manifest) Bytes() []byte {
	return []byte(strings.Join(m.lines, "\n"))
}

func (m *Manifest) findLine(section string, match func(trimmed string) bool) (int, string, error) {
	s := m.sections[section]
	for i := s.begin + 1; i < s.end; i++ {
		trimmed := strings.TrimSpace(m.lines[i])
		if match(trimmed) {
			return i, strings.Fields(trimmed)[0], nil
		}
	}
	return 0, "", m.corrupt("anchor entry not found in %s section", section)
}

// targetGroup finds the child group named name inside the group that lists anchorRefID.
func (m *Manifest) targetGroup(anchorRefID, name string) (group, bool) {
	for _, parent := range m.groups {
		if !parent.has(anchorRefID) {
			continue
		}
		for _, c := range parent.children {
			if c.name != name {
				continue
			}
			for _, g := range m.groups {
				if g.id == c.id {
					return g, true
				}
			}
		}
	}
	return group{}, false
}

func (g group) has(id string) bool {
	for _, c := range g.children {
		if c.id == id {
			return true
		}
	}
	return false
}

func (m *Manifest) childIndent(g group) string {
	if len(g.children) > 0 {
		return leadingSpace(m.lines[g.children[0].line])
	}
	return leadingSpace(m.lines[g.childrenStart]) + "\t"
}

func (m *Manifest) uniqueID() string {
	content := strings.Join(m.lines, "\n")
	for {
		id := m.nextID()
		if !strings.Contains(content, id) {
			return id
		}
	}
}

// apply inserts lines from the bottom up so earlier indices stay valid.
func (m *Manifest) apply(inserts []insertion) {
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].at > inserts[j].at })
	for _, ins := range inserts {
		lines := make([]string, 0, len(m.lines)+1)
		lines = append(lines, m.lines[:ins.at]...)
		lines = append(lines, ins.line)
		lines = append(lines, m.lines[ins.at:]...)
		m.lines = lines
	}
	m.changed = true
}

func (m *Manifest) corrupt(format string, args ...any) error {
	return &generr.ManifestCorruptError{Path: m.name, Reason: fmt.Sprintf(format, args...)}
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
