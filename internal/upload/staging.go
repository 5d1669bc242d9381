package upload

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Allowed upload container extensions. Anything else is rejected before
// any disk write.
var allowedExtensions = map[string]bool{
	"mp4": true,
	"mkv": true,
}

// ValidHash reports whether s is a 32-character hexadecimal content hash.
func ValidHash(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// SanitizeFileName strips path separators and parent references so a
// client-supplied name can never escape the staging directory.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	return name
}

// FileExtension returns the lower-cased extension of name without the dot.
func FileExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return strings.TrimPrefix(ext, ".")
}

// AllowedExtension reports whether name carries a supported container extension.
func AllowedExtension(name string) bool {
	return allowedExtensions[FileExtension(name)]
}

// Staging lays out staged chunks and merged media on disk. Paths are
// derived deterministically from the content hash so retried uploads and
// repeated merges always land on the same files.
type Staging struct {
	root string
}

// NewStaging creates a staging layout rooted at dir.
func NewStaging(dir string) *Staging {
	return &Staging{root: dir}
}

// Root returns the staging root directory.
func (s *Staging) Root() string {
	return s.root
}

// ChunkDir returns the per-hash staging directory.
func (s *Staging) ChunkDir(fileHash string) string {
	return filepath.Join(s.root, fileHash)
}

// ChunkPath returns the path of one staged chunk.
func (s *Staging) ChunkPath(fileHash string, chunkNumber int) string {
	return filepath.Join(s.ChunkDir(fileHash), fmt.Sprintf("%s-%d.part", fileHash, chunkNumber))
}

// MergedName returns the file name of the merged output.
func (s *Staging) MergedName(fileHash, ext string) string {
	return fileHash + "." + ext
}

// MergedPath returns the absolute path of the merged output.
func (s *Staging) MergedPath(fileHash, ext string) string {
	return filepath.Join(s.ChunkDir(fileHash), s.MergedName(fileHash, ext))
}

// MergedRelPath returns the merged output path relative to the staging
// root, suitable for composing a delivery URL.
func (s *Staging) MergedRelPath(fileHash, ext string) string {
	return path.Join(fileHash, s.MergedName(fileHash, ext))
}

// WriteChunk stores one chunk payload, creating the per-hash directory
// if needed. An existing chunk at the same (hash, number) is replaced
// whole, so duplicate or retried uploads are safe.
func (s *Staging) WriteChunk(fileHash string, chunkNumber int, payload []byte) error {
	if err := os.MkdirAll(s.ChunkDir(fileHash), 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	if err := os.WriteFile(s.ChunkPath(fileHash, chunkNumber), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	return nil
}

// AppendChunk copies one staged chunk into w.
func (s *Staging) AppendChunk(w io.Writer, fileHash string, chunkNumber int) (int64, error) {
	f, err := os.Open(s.ChunkPath(fileHash, chunkNumber))
	if err != nil {
		return 0, fmt.Errorf("failed to open chunk %d: %w", chunkNumber, err)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("failed to copy chunk %d: %w", chunkNumber, err)
	}
	return n, nil
}
