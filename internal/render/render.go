// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render produces the Swift request class and its commented usage
// template.
//
// Two fragments are canonical and must appear character for character in
// every rendered file: the params override and the error log line. Both are
// constants here and VerifyBoilerplate checks rendered output against them.
package render

import (
	"fmt"
	"strings"

	"github.com/bartekus/swiftreq/internal/endpoint"
	"github.com/bartekus/swiftreq/internal/generr"
)

const (
	// ImportLine opens every request file.
	ImportLine = "import FalconFoundation"
	// BaseClass is the superclass of every request object.
	BaseClass = "HJServiceRequestInfoBase"

	// ParamsOverride serializes every declared property into the request body.
	ParamsOverride = "    override var params: [AnyHashable : Any] {\n" +
		"        return pep_dictionaryWithValues(forExceptKeys: HJServiceRequestInfoBase.pep_allPropertyKeys as! [String])\n" +
		"    }"

	// ErrorLogLine is the error branch of the usage template.
	ErrorLogLine = `//             DDLogError(" error \(String(describing: err?.localizedDescription))")`

	callPrefix = "//    pep_networkTaskController."
	getCall    = callPrefix + "getRequestInfo(request) { _, err in"
	postCall   = callPrefix + "postJSONRequestInfo(request) { [weak self] result, err in"
)

// Block names used in BoilerplateMismatchError.
const (
	BlockImport = "import"
	BlockParams = "params override"
	BlockError  = "error log line"
)

// Property is one optional stored property of the request class.
type Property struct {
	Name string
	Type string
}

// RequestClass renders the request class declaration.
func RequestClass(className, hostKey, pathKey string, props []Property) string {
	lines := []string{
		ImportLine,
		"",
		fmt.Sprintf("@objcMembers class %s: %s {", className, BaseClass),
	}
	for _, p := range props {
		lines = append(lines, fmt.Sprintf("    var %s: %s?", Escape(p.Name), p.Type))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("    override var host: String { Host.%s.rawValue }", hostKey),
		"",
		fmt.Sprintf("    override var path: String { Path.%s.rawValue }", pathKey),
		"",
		ParamsOverride,
		"}",
	)
	return strings.Join(lines, "\n")
}

// UsageSnippet renders the commented-out call template. GET requests use
// getRequestInfo; every other method is sent as a JSON body.
func UsageSnippet(className string, props []Property, method endpoint.Method) string {
	lines := []string{
		"// func request() {",
		fmt.Sprintf("//     let request = %s()", className),
	}
	for _, p := range props {
		lines = append(lines, fmt.Sprintf("//     request.%s = <#%s#>", EscapeMember(p.Name), p.Name))
	}
	call := postCall
	if method == endpoint.MethodGet {
		call = getCall
	}
	lines = append(lines,
		call,
		"//         if err != nil {",
		ErrorLogLine,
		"//         }",
		"//     }",
		"// }",
	)
	return strings.Join(lines, "\n")
}

// RequestFile joins the class and the usage template into file content.
func RequestFile(class, usage string) string {
	return class + "\n\n" + usage + "\n"
}

// VerifyBoilerplate checks that class and usage carry the canonical fragments
// unchanged. The first difference is reported as BoilerplateMismatchError.
func VerifyBoilerplate(class, usage string) error {
	if first, _, _ := strings.Cut(class, "\n"); first != ImportLine {
		return &generr.BoilerplateMismatchError{Block: BlockImport, Got: first, Want: ImportLine}
	}
	if got := paramsBlock(class); got != ParamsOverride {
		return &generr.BoilerplateMismatchError{Block: BlockParams, Got: got, Want: ParamsOverride}
	}
	if got := errorLine(usage); got != ErrorLogLine {
		return &generr.BoilerplateMismatchError{Block: BlockError, Got: got, Want: ErrorLogLine}
	}
	return nil
}

// paramsBlock returns the lines from the params override header through its
// closing brace, or "" when the header is absent. Property declarations never
// start with "override", so they cannot be mistaken for the header.
func paramsBlock(class string) string {
	lines := strings.Split(class, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "override var params") {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "}" {
				return strings.Join(lines[i:j+1], "\n")
			}
		}
		return strings.Join(lines[i:], "\n")
	}
	return ""
}

// errorLine returns the first DDLogError line after the call line. Parameter
// placeholders precede the call, so a parameter named after the logger is
// never picked up.
func errorLine(usage string) string {
	lines := strings.Split(usage, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, callPrefix) {
			continue
		}
		for _, l := range lines[i+1:] {
			if strings.Contains(l, "DDLogError") {
				return l
			}
		}
		return ""
	}
	return ""
}
