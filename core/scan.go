package core

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
)

// ProgressFunc receives scan progress after every file visited or skipped.
type ProgressFunc func(done, total int)

// Scanner walks folder trees and collects regular files.
type Scanner struct {
	owners   OwnerLookup
	excludes []string
	logger   *slog.Logger
}

// NewScanner creates a scanner. A nil owners lookup reports every owner as
// unknown; a nil logger discards log output.
func NewScanner(owners OwnerLookup, excludes []string, logger *slog.Logger) *Scanner {
	if owners == nil {
		owners = UnknownOwnerLookup{}
	}
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	return &Scanner{owners: owners, excludes: excludes, logger: logger}
}

// Scan walks every root in two passes. The first pass counts candidate
// entries so progress has a total; the second collects records. Missing
// roots, unreadable directories and files that cannot be stat'ed are
// logged and skipped. Result order follows traversal order.
func (s *Scanner) Scan(roots []string, progress ProgressFunc) []schema.FileRecord {
	if progress == nil {
		progress = func(int, int) {}
	}

	total := 0
	for _, root := range roots {
		total += s.count(root)
	}
	s.logger.Info("Starting scan", "folders", len(roots), "candidates", total)

	var records []schema.FileRecord
	done := 0
	step := func() {
		done++
		if done > total {
			total = done
		}
		progress(done, total)
	}

	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("Folder does not exist", "folder", root)
			} else {
				s.logger.Error("Cannot access folder", "folder", root, "error", err)
			}
			continue
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				s.logger.Error("Error scanning folder", "path", path, "error", err)
				if d != nil && d.IsDir() && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if s.ignored(path) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			info, statErr := os.Lstat(path)
			switch {
			case statErr != nil:
				s.logger.Debug("Cannot access file", "path", path, "error", statErr)
			case !info.Mode().IsRegular():
				// symlinks, sockets and devices
			default:
				records = append(records, s.record(path, info))
			}
			step()
			return nil
		})
	}

	s.logger.Info("Scan completed", "files", len(records), "visited", done)
	return records
}

// count returns the number of non-directory entries under root that the
// second pass will visit. Errors only shrink the estimate.
func (s *Scanner) count(root string) int {
	n := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if s.ignored(path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func (s *Scanner) ignored(path string) bool {
	return len(s.excludes) > 0 && contract.ShouldIgnore(path, s.excludes)
}

func (s *Scanner) record(path string, info fs.FileInfo) schema.FileRecord {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	owner := s.owners.Owner(abs, info)
	if owner == "" {
		owner = schema.UnknownOwner
	}
	return schema.FileRecord{
		Path:      abs,
		SizeBytes: info.Size(),
		Modified:  info.ModTime().UTC(),
		Owner:     owner,
		Name:      info.Name(),
	}
}

// ProgressChannel adapts progress callbacks into a channel of events so a
// foreground goroutine can render them. Call the returned close function
// once the scan is over. Events are never dropped; buffer only decouples
// the producer from a slow consumer.
func ProgressChannel(buffer int) (ProgressFunc, <-chan schema.Progress, func()) {
	ch := make(chan schema.Progress, buffer)
	fn := func(done, total int) {
		ch <- schema.Progress{Done: done, Total: total}
	}
	return fn, ch, func() { close(ch) }
}
