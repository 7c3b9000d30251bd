package schema

import (
	"fmt"
	"strings"
)

// sizeUnits are the binary-prefixed units used by FormatSize.
var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with 1024-based units using the given
// decimal precision, e.g. FormatSize(1536, 1) == "1.5 KB".
func FormatSize(n int64, precision int) string {
	if n <= 0 {
		return "0 B"
	}
	f := float64(n)
	i := 0
	for f >= 1024 && i < len(sizeUnits)-1 {
		f /= 1024
		i++
	}
	return fmt.Sprintf("%.*f %s", precision, f, sizeUnits[i])
}

// Title returns the capitalized band name, or an em-dash for NoneBand.
func (b Band) Title() string {
	switch b {
	case RedBand:
		return "Red"
	case AmberBand:
		return "Amber"
	case GreenBand:
		return "Green"
	default:
		return "—"
	}
}

// ParseFrequency matches s against the recognized frequencies. Matching
// is exact apart from surrounding whitespace.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.TrimSpace(s))
	if _, ok := ValidFrequencies[f]; !ok {
		return "", fmt.Errorf("invalid frequency %q. must be one of: %s", s, frequencyList())
	}
	return f, nil
}

func frequencyList() string {
	names := make([]string, len(AllFrequencies))
	for i, f := range AllFrequencies {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}
