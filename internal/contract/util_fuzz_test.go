package contract

import (
	"strings"
	"testing"
)

// FuzzShouldIgnore fuzzes the ShouldIgnore function with random paths and exclude patterns.
func FuzzShouldIgnore(f *testing.F) {
	seeds := []struct {
		path     string
		excludes string // comma-separated
	}{
		{"/home/u/a.log", "*.log"},
		{"/srv/node_modules/pkg/file.js", "node_modules/"},
		{"~$draft.docx", "~$*"},
		{"config.json", ".json"},
		{"", ""},
		{"very/long/path/to/file.txt", "**/temp/**"},
	}
	for _, seed := range seeds {
		f.Add(seed.path, seed.excludes)
	}

	f.Fuzz(func(_ *testing.T, path string, excludesStr string) {
		_ = ShouldIgnore(path, SplitList(excludesStr))
	})
}

// FuzzTruncatePath checks that truncation never exceeds the requested width.
func FuzzTruncatePath(f *testing.F) {
	f.Add("/home/user/documents/report.pdf", 10)
	f.Add("日本語のパス/ファイル", 5)
	f.Add("", 0)

	f.Fuzz(func(t *testing.T, path string, width int) {
		got := TruncatePath(path, width)
		if width > 3 && len([]rune(path)) > width {
			if n := len([]rune(got)); n != width {
				t.Fatalf("got %d runes, want %d", n, width)
			}
			if !strings.HasPrefix(got, "...") {
				t.Fatalf("missing ellipsis: %q", got)
			}
		} else if got != path {
			t.Fatalf("unexpected change: %q -> %q", path, got)
		}
	})
}
