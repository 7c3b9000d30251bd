package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/filepulse/schema"
)

// Color variables for console output.
var (
	RedColor   = color.New(color.FgRed, color.Bold) // RedColor marks the most neglected files.
	AmberColor = color.New(color.FgYellow)          // AmberColor marks files that need attention soon.
	GreenColor = color.New(color.FgGreen)           // GreenColor marks recently touched files.
	NoneColor  = color.New(color.FgHiBlack)         // NoneColor marks files outside every range.
)

// GetPlainLabel returns the plain text state label of a band. This is the
// core logic used for CSV, JSON, and table printing.
func GetPlainLabel(band schema.Band) string {
	return band.Title()
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(band schema.Band) string {
	text := GetPlainLabel(band)

	switch band {
	case schema.RedBand:
		return RedColor.Sprint(text)
	case schema.AmberBand:
		return AmberColor.Sprint(text)
	case schema.GreenBand:
		return GreenColor.Sprint(text)
	default:
		return NoneColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' match a
// directory segment anywhere in the path. Patterns starting with '.' are
// treated as suffix (extension) matches. Anything else is a substring match.
func ShouldIgnore(path string, excludes []string) bool {
	slashed := filepath.ToSlash(path)
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		if strings.ContainsAny(ex, "*?[") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, slashed); err == nil && ok {
				return true
			}
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(slashed, ex) || strings.Contains(slashed, "/"+ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(slashed, ex) {
				return true
			}
		case strings.Contains(slashed, ex):
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ClipText keeps the first maxWidth runes of text.
func ClipText(text string, maxWidth int) string {
	runes := []rune(text)
	if maxWidth >= 0 && len(runes) > maxWidth {
		return string(runes[:maxWidth])
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// SplitList splits a comma separated list and drops empty items.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseRange parses an inclusive day range written as "start-end".
func ParseRange(s string) (schema.Range, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return schema.Range{}, fmt.Errorf("invalid range %q (expected start-end, e.g. 15-20)", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return schema.Range{}, fmt.Errorf("invalid range start in %q: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return schema.Range{}, fmt.Errorf("invalid range end in %q: %w", s, err)
	}
	return schema.Range{Start: start, End: end}, nil
}
