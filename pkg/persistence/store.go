package persistence

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

var errNotFound = errors.New("not found")

// Store is a flat key/value view of a container, with zarr style keys such
// as "rois/roi_0/.zattrs".
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, val []byte) error
	// Keys returns every key in lexical order
	Keys() []string
}

// MemoryStore keeps a container in memory.
type MemoryStore struct {
	data map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	d, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNotFound, key)
	}
	return d, nil
}

func (s *MemoryStore) Put(key string, val []byte) error {
	s.data[key] = append([]byte(nil), val...)
	return nil
}

func (s *MemoryStore) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeArchive writes every entry of s into a zip archive at filename.
// Chunk entries are already compressed and are stored as is; metadata
// entries are deflated.
func writeArchive(filename string, s Store) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	for _, key := range s.Keys() {
		val, err := s.Get(key)
		if err != nil {
			return err
		}
		method := zip.Store
		if isMetaKey(key) {
			method = zip.Deflate
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: key, Method: method})
		if err != nil {
			return err
		}
		if _, err := w.Write(val); err != nil {
			return err
		}
	}
	return zw.Close()
}

// readArchive loads every entry of the zip archive at filename into memory.
// A file that is not a zip archive yields ErrFormat; file system errors are
// returned unchanged.
func readArchive(filename string) (*MemoryStore, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, fmt.Errorf("%w: %s is not an ROI container", ErrFormat, filename)
		}
		return nil, err
	}
	defer zr.Close()

	s := NewMemoryStore()
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrFormat, f.Name, err)
		}
		var buf bytes.Buffer
		_, err = io.Copy(&buf, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrFormat, f.Name, err)
		}
		s.data[f.Name] = buf.Bytes()
	}
	return s, nil
}
