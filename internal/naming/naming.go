// SPDX-License-Identifier: AGPL-3.0-or-later

// Package naming derives registry keys, class names and canonical hostnames.
// Every function here is pure: the same input always yields the same output.
package naming

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	requestSuffix = "Request"
	modelSuffix   = "Model"
)

var pathSplitter = regexp.MustCompile(`[/_.\-]+`)

// NormalizeDomain keeps the first label and the last two labels of domain.
// Environment markers such as "inner" or "test" always sit in between and are dropped.
// Domains with three labels or fewer are returned unchanged.
func NormalizeDomain(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) <= 3 {
		return domain
	}
	return parts[0] + "." + parts[len(parts)-2] + "." + parts[len(parts)-1]
}

// Identifiers are the names derived from one request path.
type Identifiers struct {
	// Base is the PascalCase form of the path, e.g. "VoiceGuideClosePop".
	Base string
	// ClassName is Base plus "Request".
	ClassName string
	// RegistryKey is Base with a lower-case first letter.
	RegistryKey string
	// ModelName is Base plus "Model".
	ModelName string
}

// DeriveIdentifiers converts a request path such as "/voice/guide/close_pop"
// into VoiceGuideClosePopRequest / voiceGuideClosePop.
func DeriveIdentifiers(path string) Identifiers {
	base := Pascal(path)
	if base == "" {
		base = requestSuffix
	}
	if startsWithDigit(base) {
		base = "_" + base
	}
	return Identifiers{
		Base:        base,
		ClassName:   base + requestSuffix,
		RegistryKey: LowerFirst(base),
		ModelName:   base + modelSuffix,
	}
}

// Pascal splits value on '/', '_', '-' and '.', strips anything that is not a
// letter or digit from each part and upper-cases the first letter of each part.
// The remaining letters are left as they are.
func Pascal(value string) string {
	var b strings.Builder
	for _, part := range pathSplitter.Split(strings.Trim(value, "/"), -1) {
		part = keepAlnum(part)
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// LowerFirst lower-cases the first letter of value.
func LowerFirst(value string) string {
	if value == "" {
		return value
	}
	r := []rune(value)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// HostIdentifier returns the registry key for a normalized domain.
// The key is the camelCase first label. When that key is already bound to a
// different host in existing, the second label is appended, and then a numeric
// suffix until the key is free or already bound to domain.
func HostIdentifier(domain string, existing map[string]string) string {
	labels := strings.Split(domain, ".")
	base := LowerFirst(Pascal(labels[0]))
	if base == "" {
		base = "host"
	}
	if startsWithDigit(base) {
		base = "_" + base
	}
	if free(base, domain, existing) {
		return base
	}

	candidate := base
	if len(labels) > 1 {
		candidate = base + Pascal(labels[1])
	}
	if free(candidate, domain, existing) {
		return candidate
	}

	for i := 2; ; i++ {
		numbered := candidate + strconv.Itoa(i)
		if free(numbered, domain, existing) {
			return numbered
		}
	}
}

// UniqueKey returns key, or key with the smallest numeric suffix starting at 2,
// such that it is unbound in existing or already bound to value.
func UniqueKey(key, value string, existing map[string]string) string {
	if free(key, value, existing) {
		return key
	}
	for i := 2; ; i++ {
		numbered := key + strconv.Itoa(i)
		if free(numbered, value, existing) {
			return numbered
		}
	}
}

func free(key, value string, existing map[string]string) bool {
	bound, ok := existing[key]
	return !ok || bound == value
}

func keepAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func startsWithDigit(s string) bool {
	return s != "" && unicode.IsDigit([]rune(s)[0])
}
