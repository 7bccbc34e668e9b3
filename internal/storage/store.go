// Package storage is the file store backing the catalog: two flat directory
// buckets, "uploads" for icons and screenshots and "downloads" for APK
// binaries. Files are written once under a generated unique name and served
// statically; nothing here touches the database.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/apk-store/internal/apperror"
)

// MaxUploadSize caps a single multipart upload body (APK binaries included).
const MaxUploadSize = 100 << 20 // 100 MB

// Upload form field names. The field decides the bucket: "apk" lands in
// downloads, everything else in uploads.
const (
	FieldAPK         = "apk"
	FieldIcon        = "icon"
	FieldScreenshots = "screenshots"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Store manages the two file buckets.
type Store struct {
	uploadsDir   string
	downloadsDir string
}

// New creates a Store, creating both bucket directories if needed
// (like `mkdir -p` — existing directories are fine).
func New(uploadsDir, downloadsDir string) (*Store, error) {
	for _, dir := range []string{uploadsDir, downloadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: creating %s: %w", dir, err)
		}
	}
	return &Store{uploadsDir: uploadsDir, downloadsDir: downloadsDir}, nil
}

// UploadsDir returns the uploads bucket directory (icons, screenshots).
func (s *Store) UploadsDir() string { return s.uploadsDir }

// DownloadsDir returns the downloads bucket directory (APK binaries).
func (s *Store) DownloadsDir() string { return s.downloadsDir }

// ValidateExtension enforces the per-field extension policy:
// "apk" accepts only .apk, "icon" and "screenshots" accept only image
// formats, any other field is unrestricted. The check is extension-only —
// no content sniffing, same as the upload contract.
func ValidateExtension(field, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	switch field {
	case FieldAPK:
		if ext != ".apk" {
			return apperror.ValidationFailed(field, "only .apk files are allowed")
		}
	case FieldIcon, FieldScreenshots:
		if !imageExtensions[ext] {
			return apperror.ValidationFailed(field, "only image files are allowed")
		}
	}
	return nil
}

// Save validates the extension and writes the file into the field's bucket
// under a generated name `{field}-{unixmilli}-{xid}{ext}` (original extension
// preserved, original name discarded). Returns the bare generated filename —
// that is what gets stored on the document, never a path.
func (s *Store) Save(field, originalName string, r io.Reader) (string, error) {
	if err := ValidateExtension(field, originalName); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixMilli(), xid.New().String(), ext)

	path := filepath.Join(s.bucketFor(field), name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: creating %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path) // don't leave a truncated file behind
		return "", fmt.Errorf("storage: writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: closing %s: %w", path, err)
	}

	return name, nil
}

func (s *Store) bucketFor(field string) string {
	if field == FieldAPK {
		return s.downloadsDir
	}
	return s.uploadsDir
}

// UploadPath resolves a stored filename inside the uploads bucket.
// filepath.Base strips any directory components, so a filename read back
// from the database can never escape the bucket.
func (s *Store) UploadPath(name string) string {
	return filepath.Join(s.uploadsDir, filepath.Base(name))
}

// DownloadPath resolves a stored filename inside the downloads bucket.
func (s *Store) DownloadPath(name string) string {
	return filepath.Join(s.downloadsDir, filepath.Base(name))
}

// RemoveUpload deletes a file from the uploads bucket if it exists.
// A missing file is not an error — removal is best-effort by contract.
func (s *Store) RemoveUpload(name string) error {
	return removeIfExists(s.UploadPath(name))
}

// RemoveDownload deletes a file from the downloads bucket if it exists.
func (s *Store) RemoveDownload(name string) error {
	return removeIfExists(s.DownloadPath(name))
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: removing %s: %w", path, err)
	}
	return nil
}
