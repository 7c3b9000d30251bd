package outwriter

import (
	"os"

	"github.com/huangsam/filepulse/internal/contract"
	"golang.org/x/term"
)

// Path column bounds for report row tables.
const (
	minPathWidth = 20
	maxPathWidth = 70
)

// GetMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and the fixed report columns.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	termWidth := cfg.Width // absolute override from flag/env

	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Size + Changed + Owner + Neglect + State with padding,
	// plus borders and separators
	baseWidth := 6 + 12 + 22 + 18 + 16 + 9 + 20

	available := termWidth - baseWidth
	if available < minPathWidth {
		return minPathWidth
	}
	if available > maxPathWidth {
		return maxPathWidth
	}
	return available
}
