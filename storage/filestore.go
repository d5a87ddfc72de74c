// Copyright 2025 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

package storage

import (
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/utils/v4/hash"

	"github.com/openlms/activitypack/core/backup"
)

var logger = loggo.GetLogger("activitypack.storage")

// checksumFormat identifies the kind and encoding of stored checksums.
const checksumFormat = "SHA-256, base64 encoded"

// FileStore is a ContentStore backed by a local directory. Each stored
// file gets its own uuid-named blob on disk; descriptors are mapped to
// blobs through an in-memory index keyed by FileInfo.Key. It is the
// default store for embedders without a blob subsystem of their own.
type FileStore struct {
	root string

	mu    sync.Mutex
	index map[string]*storedFile
}

// NewFileStore returns a FileStore rooted at dir, creating it if
// necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.NotValidf("empty store directory")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Annotate(err, "creating store directory")
	}
	return &FileStore{
		root:  dir,
		index: make(map[string]*storedFile),
	}, nil
}

// CreateFromArtifact implements ContentStore. The artifact content is
// streamed to disk and checksummed as it is written; the record only
// becomes visible in the index once the copy has fully succeeded.
func (s *FileStore) CreateFromArtifact(info FileInfo, src backup.Artifact) (StoredFile, error) {
	if err := info.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	key := info.Key()
	s.mu.Lock()
	_, exists := s.index[key]
	s.mu.Unlock()
	if exists {
		return nil, errors.AlreadyExistsf("file %q", key)
	}

	content, err := src.Open()
	if err != nil {
		return nil, errors.Annotate(err, "opening artifact content")
	}
	defer content.Close()

	blobPath := filepath.Join(s.root, uuid.New().String())
	blob, err := os.Create(blobPath)
	if err != nil {
		return nil, errors.Annotate(err, "creating blob file")
	}

	hasher := hash.NewHashingWriter(blob, sha256.New())
	size, err := io.Copy(hasher, content)
	if closeErr := blob.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if removeErr := os.Remove(blobPath); removeErr != nil {
			logger.Errorf("could not remove partial blob %q: %v", blobPath, removeErr)
		}
		return nil, errors.Annotate(err, "copying artifact content")
	}

	stored := &storedFile{
		store:    s,
		info:     info,
		path:     blobPath,
		size:     size,
		checksum: hasher.Base64Sum(),
	}

	s.mu.Lock()
	s.index[key] = stored
	s.mu.Unlock()

	logger.Debugf("stored %q (%d bytes, %s %s)", key, size, checksumFormat, stored.checksum)
	return stored, nil
}

// Lookup returns the stored file filed under info, if any.
func (s *FileStore) Lookup(info FileInfo) (StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.index[info.Key()]
	if !ok {
		return nil, errors.NotFoundf("file %q", info.Key())
	}
	return stored, nil
}

// Remove deletes the stored file filed under info along with its blob.
func (s *FileStore) Remove(info FileInfo) error {
	key := info.Key()
	s.mu.Lock()
	stored, ok := s.index[key]
	if ok {
		delete(s.index, key)
	}
	s.mu.Unlock()
	if !ok {
		return errors.NotFoundf("file %q", key)
	}
	if err := os.Remove(stored.path); err != nil {
		return errors.Annotatef(err, "removing blob for %q", key)
	}
	return nil
}

// List returns the keys of all stored files, in no particular order.
func (s *FileStore) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.index))
	for key := range s.index {
		keys = append(keys, key)
	}
	return keys
}

type storedFile struct {
	store    *FileStore
	info     FileInfo
	path     string
	size     int64
	checksum string
}

// Info implements StoredFile.
func (f *storedFile) Info() FileInfo {
	return f.info
}

// Checksum implements StoredFile. The sum is SHA-256, base64 encoded.
func (f *storedFile) Checksum() string {
	return f.checksum
}

// Size implements StoredFile.
func (f *storedFile) Size() int64 {
	return f.size
}

// Content implements StoredFile.
func (f *storedFile) Content() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, errors.Annotatef(err, "reading stored file %q", f.info.Key())
	}
	return data, nil
}
