package tui

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
)

var reLine = regexp.MustCompile(`(?i)\bline\s+(\d+)\b|\((\d+):\d+\)`)

// userMessage turns an error into one line fit for the result card.
func userMessage(err error) string {
	if err == nil {
		return ""
	}

	var oe *domain.OpError
	if errors.As(err, &oe) {
		switch oe.Kind {
		case domain.KindNotFound:
			if strings.Contains(oe.Op, "workspace") {
				return "Workspace not found"
			}
			if oe.Op == "suite.run" {
				return "No feature files found"
			}
			if oe.Path != "" {
				return "Not found: " + filepath.Base(oe.Path)
			}
			return "Not found"

		case domain.KindMissingVar:
			if v := extractMissingVarName(err.Error()); v != "" {
				return "Missing variable " + v
			}
			return "Missing variable"

		case domain.KindInvalidConfig:
			if strings.Contains(oe.Op, "features") && strings.TrimSpace(oe.Path) != "" {
				base := filepath.Base(oe.Path)
				if line := extractLine(err.Error()); line != "" {
					return "Invalid feature file " + base + " line " + line
				}
				return "Invalid feature file " + base
			}
			return "Invalid config"

		case domain.KindTimeout:
			return "Run cancelled or timed out"
		case domain.KindBrowser:
			return "Browser could not be started"
		case domain.KindUnsupported:
			return "Subsystem disabled"
		case domain.KindExecution:
			if oe.Op == "tui.run" && oe.Path != "" {
				return "Run of " + filepath.Base(oe.Path) + " crashed (see logs)"
			}
		}
	}

	if strings.Contains(strings.ToLower(err.Error()), "missing variable") {
		if v := extractMissingVarName(err.Error()); v != "" {
			return "Missing variable " + v
		}
		return "Missing variable"
	}
	return "Unexpected error (see logs)"
}

func extractLine(s string) string {
	m := reLine.FindStringSubmatch(s)
	if len(m) < 3 {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

func extractMissingVarName(s string) string {
	ls := strings.ToLower(s)
	for _, marker := range []string{"missing variable:", "missing variable "} {
		i := strings.LastIndex(ls, marker)
		if i < 0 {
			continue
		}
		fields := strings.Fields(strings.Trim(strings.TrimSpace(s[i+len(marker):]), " .,:;\"'"))
		if len(fields) == 0 {
			return ""
		}
		return strings.Trim(fields[0], " .,:;\"'")
	}
	return ""
}
