// SPDX-License-Identifier: AGPL-3.0-or-later

// Package projectroot locates the iOS project a command operates on.
package projectroot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Markers identify a project root. The config file wins over an Xcode
// project directory found at the same level.
var Markers = []string{".swiftreq.yaml", "*.xcodeproj"}

// Find walks up from start until a directory holds one of Markers. When none
// is found the absolute form of start is returned.
func Find(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for dir := abs; ; {
		ok, err := isRoot(dir)
		if err != nil {
			return "", err
		}
		if ok {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

func isRoot(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsPermission(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		for _, m := range Markers {
			if matched, _ := filepath.Match(m, e.Name()); matched {
				if strings.HasSuffix(m, ".xcodeproj") && !e.IsDir() {
					continue
				}
				return true, nil
			}
		}
	}
	return false, nil
}
