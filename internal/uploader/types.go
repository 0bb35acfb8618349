package uploader

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsmolkin/mediakeeper/internal/media"
)

// Values is the caller-owned aggregate mapping field names to either a
// single media identifier or an ordered list of identifiers.
type Values map[string]any

// Fragment is the single-field update produced by one finalized item.
type Fragment map[string]any

// FileSource is a selected file. Open may be called more than once;
// each call returns an independent reader over the full content.
type FileSource interface {
	Name() string
	MimeType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// LocalFile is a FileSource backed by a file on disk. The MIME type is
// derived from the file extension.
type LocalFile struct {
	path     string
	name     string
	mimeType string
	size     int64
}

func NewLocalFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		mt = "application/octet-stream"
	}
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return &LocalFile{path: path, name: info.Name(), mimeType: mt, size: info.Size()}, nil
}

func (f *LocalFile) Name() string     { return f.name }
func (f *LocalFile) Path() string     { return f.path }
func (f *LocalFile) MimeType() string { return f.mimeType }
func (f *LocalFile) Size() int64      { return f.size }

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// MemoryFile is a FileSource backed by an in-memory byte slice.
type MemoryFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (f *MemoryFile) Name() string     { return f.FileName }
func (f *MemoryFile) MimeType() string { return f.ContentType }
func (f *MemoryFile) Size() int64      { return int64(len(f.Data)) }

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}

// Item tracks one selected file through the upload handshake.
// LocalID, Field, Multiple and File are set once at creation;
// Media and State are updated as the handshake advances.
type Item struct {
	LocalID  string
	Field    string
	Multiple bool
	File     FileSource
	// Preview is a local path usable to render the image before the
	// upload completes. Set only for image selections whose source
	// exposes a path.
	Preview string
	Media    media.Media
	State    State
}

// ProgressInfo is a snapshot of one in-flight transfer. Cancel aborts
// that transfer only; sibling transfers are unaffected.
type ProgressInfo struct {
	Loaded     int64
	Total      int64
	Percentage float64
	Cancel     func()
}
