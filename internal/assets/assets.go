// Package assets stores template images on local disk, keyed by template id.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/metrics"
)

const (
	// JPEGQuality is the fixed lossy quality used for every stored image
	JPEGQuality = 80

	imageExt = ".jpg"
)

// CoverKey is the key of the cover image written for a template
func CoverKey(id string) string { return id + "_cover" }

// OriginalKey is the key of the original photo written for a template
func OriginalKey(id string) string { return id + "_original" }

// IsRemote reports whether ref is a network URI rather than a local path
func IsRemote(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

// Store implements domain.AssetStore over one managed directory.
// Writes to different keys need no coordination.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the managed directory if needed
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return nil, fmt.Errorf("asset dir not configured: %w", domain.ErrServiceUnavailable)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve asset dir: %w: %w", domain.ErrServiceUnavailable, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w: %w", domain.ErrServiceUnavailable, err)
	}

	return &Store{dir: abs, logger: logger}, nil
}

// Dir returns the managed directory
func (s *Store) Dir() string { return s.dir }

// Path returns the file path used for key
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+imageExt)
}

// Store re-encodes data as JPEG and writes it under key, replacing any
// existing file. The write goes through a temp file so readers never see a
// partial image.
func (s *Store) Store(data []byte, key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid asset key %q: %w", key, domain.ErrImageIO)
	}

	encoded, err := encodeJPEG(data)
	if err != nil {
		return "", err
	}

	path := s.Path(key)
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w: %w", key, domain.ErrImageIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w: %w", key, domain.ErrImageIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w: %w", key, domain.ErrImageIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename %s: %w: %w", key, domain.ErrImageIO, err)
	}

	metrics.AssetBytesWritten.Add(float64(len(encoded)))
	s.logger.Debug("stored image", "key", key, "bytes", len(encoded))
	return path, nil
}

// Load reads a local image. Missing files and remote URIs report ok=false;
// fetching remote images is left to the caller.
func (s *Store) Load(ref string) ([]byte, bool, error) {
	if ref == "" || IsRemote(ref) {
		return nil, false, nil
	}

	data, err := os.ReadFile(localPath(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w: %w", ref, domain.ErrImageIO, err)
	}
	return data, true, nil
}

// Delete removes a local image inside the managed directory. Remote refs,
// missing files and paths outside the directory are ignored.
func (s *Store) Delete(ref string) error {
	if ref == "" || IsRemote(ref) {
		return nil
	}

	path, err := filepath.Abs(localPath(ref))
	if err != nil {
		return fmt.Errorf("resolve %s: %w: %w", ref, domain.ErrImageIO, err)
	}
	if !s.owns(path) {
		s.logger.Warn("refusing to delete image outside asset dir", "ref", ref)
		return nil
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w: %w", ref, domain.ErrImageIO, err)
	}
	return nil
}

// DeleteTemplate removes the cover and original images of a template
func (s *Store) DeleteTemplate(id string) error {
	for _, key := range []string{CoverKey(id), OriginalKey(id)} {
		if err := s.Delete(s.Path(key)); err != nil {
			return err
		}
	}
	return nil
}

// TotalSize sums the size of every file under the managed directory
func (s *Store) TotalSize() (int64, error) {
	var size int64
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// Removed between listing and stat
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		size += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk asset dir: %w: %w", domain.ErrServiceUnavailable, err)
	}
	return size, nil
}

// Clear removes everything under the managed directory, keeping the directory
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list asset dir: %w: %w", domain.ErrServiceUnavailable, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("clear %s: %w: %w", e.Name(), domain.ErrImageIO, err)
		}
	}
	s.logger.Info("cleared asset dir", "dir", s.dir, "entries", len(entries))
	return nil
}

func (s *Store) owns(path string) bool {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// localPath strips a file:// scheme from ref
func localPath(ref string) string {
	if strings.HasPrefix(ref, "file://") {
		if u, err := url.Parse(ref); err == nil {
			return u.Path
		}
	}
	return ref
}

func encodeJPEG(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w: %w", domain.ErrImageIO, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w: %w", domain.ErrImageIO, err)
	}
	return buf.Bytes(), nil
}
