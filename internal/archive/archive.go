// Package archive keeps generated reports in a local folder with a JSON
// index. The index is rewritten as a whole on every mutation; the store is
// its only writer.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/metrics"
	"github.com/huangsam/filepulse/schema"
)

// IndexFileName is the name of the index inside the archive root.
const IndexFileName = "index.json"

// fallbackName replaces names that sanitize to nothing.
const fallbackName = "report.pdf"

// Errors returned by the Store.
var (
	ErrNotFound       = fmt.Errorf("source report not found: %w", fs.ErrNotExist)
	ErrInvalidName    = errors.New("report name must be a bare file name")
	ErrOutsideArchive = errors.New("path is outside the archive")
)

// Store is the archive backed by a directory and its index.json.
type Store struct {
	mu     sync.Mutex
	root   string
	logger *slog.Logger
	now    func() time.Time
}

var _ contract.ArchiveStore = &Store{} // Compile-time check

// NewStore creates a store rooted at root, made absolute against the
// working directory. Nothing is created on disk until the first operation.
func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Store{root: filepath.Clean(root), logger: logger, now: time.Now}
}

// Root returns the archive directory.
func (s *Store) Root() string {
	return s.root
}

// Ensure creates the archive directory and an empty index if absent.
func (s *Store) Ensure() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root, s.ensure()
}

func (s *Store) ensure() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	_, err := os.Stat(s.indexPath())
	if errors.Is(err, fs.ErrNotExist) {
		return contract.WriteFileAtomic(s.indexPath(), []byte("[]"))
	}
	return err
}

// SaveCopy copies src into the archive under its own file name, adding a
// " (n)" suffix on collision, and appends an index entry. It returns the
// stored path.
func (s *Store) SaveCopy(src, titleHint string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, src)
		}
		return "", err
	}
	if err := s.ensure(); err != nil {
		return "", err
	}

	dst := s.uniqueDest(filepath.Base(src))
	if err := copyFileAtomic(src, dst); err != nil {
		return "", err
	}

	title := titleHint
	if title == "" {
		title = strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
	}
	size := info.Size()
	if st, err := os.Stat(dst); err == nil {
		size = st.Size()
	}
	entry := schema.ArchiveEntry{
		Timestamp:    s.now().Unix(),
		Name:         filepath.Base(dst),
		Title:        title,
		Size:         size,
		Path:         dst,
		OriginalName: info.Name(),
	}

	entries := s.load()
	entries = append(entries, entry)
	if err := s.save(entries); err != nil {
		return "", err
	}
	metrics.ArchivedReports.Set(float64(len(entries)))
	s.logger.Info("Report archived", "path", dst)
	return dst, nil
}

// List returns all entries newest first. An empty, missing or corrupt
// index is rebuilt from the report files on disk and persisted.
func (s *Store) List() ([]schema.ArchiveEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(); err != nil {
		return nil, err
	}
	entries := s.load()
	if len(entries) == 0 {
		var err error
		if entries, err = s.rebuild(); err != nil {
			return nil, err
		}
	}
	sortNewestFirst(entries)
	metrics.ArchivedReports.Set(float64(len(entries)))
	return entries, nil
}

// RebuildFromDisk replaces the index with one entry per report file in the
// archive directory. Titles and original names are lost; timestamps come
// from file modification times.
func (s *Store) RebuildFromDisk() ([]schema.ArchiveEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(); err != nil {
		return nil, err
	}
	entries, err := s.rebuild()
	if err != nil {
		return nil, err
	}
	sortNewestFirst(entries)
	return entries, nil
}

func (s *Store) rebuild() ([]schema.ArchiveEntry, error) {
	matches, err := filepath.Glob(filepath.Join(s.root, "*.pdf"))
	if err != nil {
		return nil, err
	}
	entries := make([]schema.ArchiveEntry, 0, len(matches))
	for _, p := range matches {
		st, err := os.Stat(p)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		name := st.Name()
		entries = append(entries, schema.ArchiveEntry{
			Timestamp:    st.ModTime().Unix(),
			Name:         name,
			Title:        strings.TrimSuffix(name, filepath.Ext(name)),
			Size:         st.Size(),
			Path:         p,
			OriginalName: name,
		})
	}
	if err := s.save(entries); err != nil {
		return nil, err
	}
	s.logger.Info("Archive index rebuilt from disk", "reports", len(entries))
	return entries, nil
}

// Delete removes a report by absolute path or bare file name. It reports
// whether a file or an index entry was removed. A report that is already
// gone is not an error.
func (s *Store) Delete(pathOrName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.resolve(pathOrName)
	if err != nil {
		return false, err
	}
	if err := s.ensure(); err != nil {
		return false, err
	}

	changed := false
	if err := os.Remove(target); err == nil {
		changed = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Failed to remove archived report", "path", target, "error", err)
	}

	entries := s.load()
	kept := entries[:0]
	for _, e := range entries {
		if filepath.Clean(e.Path) != target {
			kept = append(kept, e)
		}
	}
	if len(kept) != len(entries) {
		if err := s.save(kept); err != nil {
			return changed, err
		}
		changed = true
	}
	metrics.ArchivedReports.Set(float64(len(kept)))
	if changed {
		s.logger.Info("Report deleted", "path", target)
	}
	return changed, nil
}

// Latest returns the newest entry, if any.
func (s *Store) Latest() (schema.ArchiveEntry, bool, error) {
	entries, err := s.List()
	if err != nil || len(entries) == 0 {
		return schema.ArchiveEntry{}, false, err
	}
	return entries[0], true, nil
}

// Status summarizes the archive.
func (s *Store) Status() (schema.ArchiveStatus, error) {
	entries, err := s.List()
	if err != nil {
		return schema.ArchiveStatus{}, err
	}
	status := schema.ArchiveStatus{Root: s.root, Reports: len(entries)}
	for i, e := range entries {
		status.TotalBytes += e.Size
		if i == 0 {
			status.Newest = e.ArchivedAt()
		}
		status.Oldest = e.ArchivedAt()
	}
	return status, nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, IndexFileName)
}

// resolve maps an absolute path or a bare name to a path inside the root.
func (s *Store) resolve(pathOrName string) (string, error) {
	if filepath.IsAbs(pathOrName) {
		p := filepath.Clean(pathOrName)
		if filepath.Dir(p) != s.root {
			return "", fmt.Errorf("%w: %s", ErrOutsideArchive, pathOrName)
		}
		return p, nil
	}
	if pathOrName == "" || pathOrName == "." || pathOrName == ".." || strings.ContainsAny(pathOrName, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, pathOrName)
	}
	return filepath.Join(s.root, pathOrName), nil
}

// load reads the index. A missing or unparsable index reads as empty.
func (s *Store) load() []schema.ArchiveEntry {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return nil
	}
	var entries []schema.ArchiveEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("Archive index is corrupt", "path", s.indexPath(), "error", err)
		return nil
	}
	return entries
}

func (s *Store) save(entries []schema.ArchiveEntry) error {
	if entries == nil {
		entries = []schema.ArchiveEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode archive index: %w", err)
	}
	return contract.WriteFileAtomic(s.indexPath(), data)
}

// uniqueDest sanitizes name and returns a path in the root that does not
// exist yet, appending " (2)", " (3)"... before the extension.
func (s *Store) uniqueDest(name string) string {
	base := strings.TrimSpace(strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			return -1
		}
		return r
	}, name))
	if base == "" {
		base = fallbackName
	}

	stem, ext := base, ""
	if dot := strings.LastIndex(base, "."); dot > 0 {
		stem, ext = base[:dot], base[dot:]
	}

	candidate := filepath.Join(s.root, stem+ext)
	for n := 2; exists(candidate); n++ {
		candidate = filepath.Join(s.root, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
	return candidate
}

// sortNewestFirst orders entries by ts descending. Entries archived in the
// same second keep reverse index order, so the later append comes first.
func sortNewestFirst(entries []schema.ArchiveEntry) {
	slices.Reverse(entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// copyFileAtomic copies src to dst through a uniquely named temp file so a
// failed copy never leaves a partial report under a listed name. The
// modification time of src is preserved.
func copyFileAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmpPath := filepath.Join(filepath.Dir(dst), "."+uuid.NewString()+".tmp")
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to copy report: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync report: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close report: %w", err)
	}
	if st, err := os.Stat(src); err == nil {
		_ = os.Chtimes(tmpPath, st.ModTime(), st.ModTime())
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}
