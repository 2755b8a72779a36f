package media

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"sync"
)

// ErrStoreClosed is returned by Put after Close.
var ErrStoreClosed = errors.New("blob store closed")

// Blob is an image written to local disk so a viewer can open it. It stays
// valid until released.
type Blob struct {
	Path        string
	Size        int64
	ContentType string
}

// BlobStore owns a private temp directory of image blobs.
type BlobStore struct {
	dir string

	mu     sync.Mutex
	blobs  map[string]*Blob
	closed bool
}

// NewBlobStore creates the store's directory under parent, or under the
// system temp directory when parent is empty.
func NewBlobStore(parent string) (*BlobStore, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o700); err != nil {
			return nil, fmt.Errorf("creating blob parent: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "crumb-blobs-*")
	if err != nil {
		return nil, fmt.Errorf("creating blob dir: %w", err)
	}
	return &BlobStore{dir: dir, blobs: make(map[string]*Blob)}, nil
}

func (s *BlobStore) Dir() string { return s.dir }

// Put writes data to a new blob.
func (s *BlobStore) Put(data []byte, contentType string) (*Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	f, err := os.CreateTemp(s.dir, "img-*"+extension(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating blob: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("closing blob: %w", err)
	}

	blob := &Blob{Path: f.Name(), Size: int64(len(data)), ContentType: contentType}
	s.blobs[blob.Path] = blob
	return blob, nil
}

// Release deletes the blob's file. Releasing nil or an already released
// blob is a no-op.
func (s *BlobStore) Release(blob *Blob) error {
	if blob == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[blob.Path]; !ok {
		return nil
	}
	delete(s.blobs, blob.Path)
	if err := os.Remove(blob.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing blob: %w", err)
	}
	return nil
}

// Len is the number of live blobs.
func (s *BlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Close removes every blob and the directory.
func (s *BlobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.blobs = make(map[string]*Blob)
	return os.RemoveAll(s.dir)
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
