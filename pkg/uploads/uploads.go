// Package uploads stores message attachments on local disk. References are
// flat filenames of the form <unixnano>-<sanitized original name>, so the
// directory doubles as its own index.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"noticeboard/pkg/errors"
	"noticeboard/pkg/logger"
)

// Store writes and serves attachment files under a single directory.
type Store struct {
	dir     string
	maxSize int64
}

// New creates the upload directory if needed and returns a Store. maxSize
// caps a single attachment in bytes; zero means no cap.
func New(dir string, maxSize int64) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("uploads: dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Save streams src to disk and returns the reference for the stored file.
func (s *Store) Save(src io.Reader, origName string) (string, error) {
	ref := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeName(origName))
	dst, err := os.OpenFile(filepath.Join(s.dir, ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(errors.KindServer, "attachment write failed", err)
	}
	defer dst.Close()

	r := src
	if s.maxSize > 0 {
		r = io.LimitReader(src, s.maxSize+1)
	}
	n, err := io.Copy(dst, r)
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", errors.Wrap(errors.KindServer, "attachment write failed", err)
	}
	if s.maxSize > 0 && n > s.maxSize {
		_ = os.Remove(dst.Name())
		return "", errors.Newf(errors.KindValidation, "attachment exceeds %d bytes", s.maxSize)
	}
	logger.Debug("attachment_saved", "ref", ref, "bytes", n)
	return ref, nil
}

// Path resolves a reference to its on-disk path, refusing anything that
// would escape the upload directory.
func (s *Store) Path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", errors.New(errors.KindValidation, "invalid attachment reference")
	}
	p := filepath.Join(s.dir, ref)
	if _, err := os.Stat(p); err != nil {
		return "", errors.New(errors.KindNotFound, "attachment not found")
	}
	return p, nil
}

// Delete removes a stored attachment. A missing file is not an error; the
// caller may be cleaning up after a partial failure.
func (s *Store) Delete(ref string) error {
	p, err := s.Path(ref)
	if err != nil {
		if errors.KindOf(err) == errors.KindNotFound {
			return nil
		}
		return err
	}
	if err := os.Remove(p); err != nil {
		return errors.Wrap(errors.KindServer, "attachment delete failed", err)
	}
	logger.Debug("attachment_deleted", "ref", ref)
	return nil
}

// List returns every stored reference with its modification time; the
// retention sweep uses it to find orphans.
func (s *Store) List() (map[string]time.Time, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("uploads: read dir: %w", err)
	}
	out := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out[e.Name()] = info.ModTime()
	}
	return out, nil
}

// sanitizeName strips path components and any byte that would be awkward in
// a URL or filesystem.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		out = "file"
	}
	return out
}
