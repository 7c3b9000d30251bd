package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReport(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "Reports"), nil)
	ts := time.Unix(1700000000, 0)
	s.now = func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}
	return s
}

func TestEnsureCreatesEmptyIndex(t *testing.T) {
	s := newTestStore(t)
	root, err := s.Ensure()
	require.NoError(t, err)
	assert.Equal(t, s.Root(), root)

	data, err := os.ReadFile(filepath.Join(root, IndexFileName))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	// A second call keeps the existing index.
	_, err = s.SaveCopy(writeReport(t, t.TempDir(), "a.pdf", "x"), "")
	require.NoError(t, err)
	_, err = s.Ensure()
	require.NoError(t, err)
	entries, err := s.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveCopyCollisionSuffixes(t *testing.T) {
	s := newTestStore(t)
	src := writeReport(t, t.TempDir(), "report.pdf", "pdf-bytes")

	var names []string
	for range 3 {
		dst, err := s.SaveCopy(src, "")
		require.NoError(t, err)
		names = append(names, filepath.Base(dst))
	}
	assert.Equal(t, []string{"report.pdf", "report (2).pdf", "report (3).pdf"}, names)

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "report (3).pdf", entries[0].Name, "newest first")
	for _, e := range entries {
		assert.Equal(t, "report", e.Title)
		assert.Equal(t, "report.pdf", e.OriginalName)
		assert.Equal(t, int64(len("pdf-bytes")), e.Size)
		assert.FileExists(t, e.Path)
	}
}

func TestSaveCopyTitleHint(t *testing.T) {
	s := newTestStore(t)
	src := writeReport(t, t.TempDir(), "report_20240101_090000.pdf", "x")

	_, err := s.SaveCopy(src, "Quarterly")
	require.NoError(t, err)

	latest, ok, err := s.Latest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Quarterly", latest.Title)
	assert.Equal(t, "report_20240101_090000.pdf", latest.Name)
}

func TestSaveCopyMissingSource(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveCopy(filepath.Join(t.TempDir(), "nope.pdf"), "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUniqueDest(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Ensure()
	require.NoError(t, err)
	writeReport(t, s.Root(), "notes", "x")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "a.pdf", "a.pdf"},
		{"strips forbidden characters", `we?ird:na*me.pdf`, "weirdname.pdf"},
		{"empty falls back", ` :?* `, "report.pdf"},
		{"no extension collides", "notes", "notes (2)"},
		{"leading dot has no extension", ".hidden", ".hidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.Join(s.Root(), tt.want), s.uniqueDest(tt.in))
		})
	}
}

func TestListRebuildsCorruptIndex(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Ensure()
	require.NoError(t, err)

	old := writeReport(t, s.Root(), "old.pdf", "1")
	newer := writeReport(t, s.Root(), "newer.pdf", "22")
	writeReport(t, s.Root(), "ignored.txt", "333")
	require.NoError(t, os.Chtimes(old, time.Unix(1000, 0), time.Unix(1000, 0)))
	require.NoError(t, os.Chtimes(newer, time.Unix(2000, 0), time.Unix(2000, 0)))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), IndexFileName), []byte("{not json"), 0o644))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "newer", entries[0].Title)
	assert.Equal(t, int64(2000), entries[0].Timestamp)
	assert.Equal(t, "old.pdf", entries[1].OriginalName)

	// Rebuilt index is persisted.
	assert.Len(t, s.load(), 2)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	src := writeReport(t, t.TempDir(), "r.pdf", "x")
	first, err := s.SaveCopy(src, "")
	require.NoError(t, err)
	second, err := s.SaveCopy(src, "")
	require.NoError(t, err)

	changed, err := s.Delete(filepath.Base(first))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoFileExists(t, first)

	changed, err = s.Delete(second)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Delete("r.pdf")
	require.NoError(t, err)
	assert.False(t, changed, "deleting twice changes nothing")

	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteRemovesStaleIndexEntry(t *testing.T) {
	s := newTestStore(t)
	dst, err := s.SaveCopy(writeReport(t, t.TempDir(), "r.pdf", "x"), "")
	require.NoError(t, err)
	require.NoError(t, os.Remove(dst))

	changed, err := s.Delete("r.pdf")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, s.load())
}

func TestDeleteRejectsPathsOutsideArchive(t *testing.T) {
	s := newTestStore(t)
	outside := writeReport(t, t.TempDir(), "keep.pdf", "x")

	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"absolute outside", outside, ErrOutsideArchive},
		{"relative traversal", "../keep.pdf", ErrInvalidName},
		{"empty", "", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := s.Delete(tt.in)
			assert.ErrorIs(t, err, tt.err)
			assert.False(t, changed)
		})
	}
	assert.FileExists(t, outside)
}

func TestLatestAndStatus(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Latest()
	require.NoError(t, err)
	assert.False(t, ok)

	dir := t.TempDir()
	_, err = s.SaveCopy(writeReport(t, dir, "a.pdf", "aaaa"), "")
	require.NoError(t, err)
	_, err = s.SaveCopy(writeReport(t, dir, "b.pdf", "bb"), "")
	require.NoError(t, err)

	latest, ok, err := s.Latest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b.pdf", latest.Name)

	status, err := s.Status()
	require.NoError(t, err)
	assert.Equal(t, 2, status.Reports)
	assert.Equal(t, int64(6), status.TotalBytes)
	assert.True(t, status.Newest.After(status.Oldest))
	assert.Equal(t, s.Root(), status.Root)
}

func TestNewStoreRelativeRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	s := NewStore("Reports", nil)
	require.True(t, filepath.IsAbs(s.Root()))

	dst, err := s.SaveCopy(writeReport(t, t.TempDir(), "r.pdf", "x"), "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dst))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, filepath.IsAbs(entries[0].Path))

	changed, err := s.Delete(dst)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoFileExists(t, dst)
}

func TestLatestSameSecond(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }

	dir := t.TempDir()
	_, err := s.SaveCopy(writeReport(t, dir, "a.pdf", "a"), "")
	require.NoError(t, err)
	_, err = s.SaveCopy(writeReport(t, dir, "b.pdf", "b"), "")
	require.NoError(t, err)
	_, err = s.SaveCopy(writeReport(t, dir, "c.pdf", "c"), "")
	require.NoError(t, err)

	entries, err := s.List()
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"c.pdf", "b.pdf", "a.pdf"}, names)

	latest, ok, err := s.Latest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c.pdf", latest.Name)
}

func TestDeleteMissingNameKeepsIndex(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	_, err := s.SaveCopy(writeReport(t, dir, "a.pdf", "a"), "")
	require.NoError(t, err)
	_, err = s.SaveCopy(writeReport(t, dir, "b.pdf", "b"), "")
	require.NoError(t, err)

	before, err := os.ReadFile(s.indexPath())
	require.NoError(t, err)

	changed, err := s.Delete("missing.pdf")
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := os.ReadFile(s.indexPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, s.load(), 2)
}
