package core

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/huangsam/filepulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedOwner string

func (f fixedOwner) Owner(string, fs.FileInfo) string { return string(f) }

type progressRecorder struct {
	events []schema.Progress
}

func (p *progressRecorder) fn(done, total int) {
	p.events = append(p.events, schema.Progress{Done: done, Total: total})
}

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanSkipsNonRegularEntries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.txt"), "a")
	mkfile(t, filepath.Join(root, "b.txt"), "bb")
	mkfile(t, filepath.Join(root, "nested", "c.txt"), "ccc")
	require.NoError(t, os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link-a")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")))

	rec := &progressRecorder{}
	records := NewScanner(nil, nil, nil).Scan([]string{root}, rec.fn)

	require.Len(t, records, 3)
	require.Len(t, rec.events, 5, "one progress event per visited entry")
	for i, ev := range rec.events {
		assert.Equal(t, i+1, ev.Done)
		assert.Equal(t, 5, ev.Total)
	}

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
		assert.True(t, filepath.IsAbs(r.Path))
		assert.Equal(t, schema.UnknownOwner, r.Owner)
		assert.Equal(t, time.UTC, r.Modified.Location())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}

func TestScanMissingRootIsSkipped(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "only.txt"), "x")

	rec := &progressRecorder{}
	records := NewScanner(fixedOwner("alice"), nil, nil).Scan(
		[]string{filepath.Join(root, "does-not-exist"), root}, rec.fn)

	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].Owner)
	assert.Equal(t, int64(1), records[0].SizeBytes)
	assert.Equal(t, []schema.Progress{{Done: 1, Total: 1}}, rec.events)
}

func TestScanEmptyFolder(t *testing.T) {
	rec := &progressRecorder{}
	records := NewScanner(nil, nil, nil).Scan([]string{t.TempDir()}, rec.fn)
	assert.Empty(t, records)
	assert.Empty(t, rec.events)
}

func TestScanExcludes(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "keep.txt"), "x")
	mkfile(t, filepath.Join(root, "drop.log"), "x")
	mkfile(t, filepath.Join(root, "cache", "blob.bin"), "x")

	rec := &progressRecorder{}
	records := NewScanner(nil, []string{".log", "cache/"}, nil).Scan([]string{root}, rec.fn)

	require.Len(t, records, 1)
	assert.Equal(t, "keep.txt", records[0].Name)
	assert.Equal(t, []schema.Progress{{Done: 1, Total: 1}}, rec.events)
}

func TestScanNilProgress(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.txt"), "a")
	assert.Len(t, NewScanner(nil, nil, nil).Scan([]string{root}, nil), 1)
}

func TestProgressChannel(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"a", "b", "c"} {
		mkfile(t, filepath.Join(root, n), n)
	}

	fn, ch, closeFn := ProgressChannel(1)
	go func() {
		defer closeFn()
		NewScanner(nil, nil, nil).Scan([]string{root}, fn)
	}()

	var got []schema.Progress
	for ev := range ch {
		got = append(got, ev)
	}
	assert.Equal(t, []schema.Progress{{Done: 1, Total: 3}, {Done: 2, Total: 3}, {Done: 3, Total: 3}}, got)
}

func TestOwnerLookupCachesNames(t *testing.T) {
	calls := 0
	c := &cachedOwnerLookup{
		names: make(map[string]string),
		resolve: func(id string) (string, error) {
			calls++
			if id == "0" {
				return "root", nil
			}
			return "", fs.ErrNotExist
		},
	}
	assert.Equal(t, "root", c.name("0"))
	assert.Equal(t, "root", c.name("0"))
	assert.Equal(t, "1000", c.name("1000"), "unresolvable ids fall back to the id")
	assert.Equal(t, 2, calls)
}
