// Copyright © 2024 The Declavatar authors

// Package cache stores compile results on disk, keyed by a digest of
// everything that influences a compile.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// schemaVersion is stored in every entry.  Entries written with another
// version are treated as missing.
const schemaVersion uint16 = 2

// Digest identifies a cache entry or the content of a file.
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Sum returns the digest of data.
func Sum(data []byte) Digest {
	return sha256.Sum256(data)
}

// KeyBuilder accumulates the inputs of a compile into a Digest.  Each part
// is length-prefixed so that different splits of the same bytes differ.
type KeyBuilder struct {
	h hash.Hash
}

func NewKey() *KeyBuilder {
	return &KeyBuilder{h: sha256.New()}
}

// Add appends a labelled part to the key.
func (k *KeyBuilder) Add(label string, data []byte) *KeyBuilder {
	k.write([]byte(label))
	k.write(data)
	return k
}

// AddString is Add for string data.
func (k *KeyBuilder) AddString(label, data string) *KeyBuilder {
	return k.Add(label, []byte(data))
}

func (k *KeyBuilder) write(b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	k.h.Write(n[:])
	k.h.Write(b)
}

func (k *KeyBuilder) Sum() Digest {
	var d Digest
	copy(d[:], k.h.Sum(nil))
	return d
}

// Entry is a cached compile result.  Files lists the included files read
// by the compile, with their content digests in FileHashes.
type Entry struct {
	Schema uint16

	Source      string
	Format      uint8
	Failed      bool
	AvatarJSON  []byte
	Diagnostics []byte // JSON array of diagnostics

	Files      []string
	FileHashes []Digest
}

// Fresh reports whether every included file still has the recorded
// content.  read returns the current content of a file.
func (e *Entry) Fresh(read func(path string) ([]byte, error)) bool {
	if len(e.Files) != len(e.FileHashes) {
		return false
	}
	for i, path := range e.Files {
		data, err := read(path)
		if err != nil || Sum(data) != e.FileHashes[i] {
			return false
		}
	}
	return true
}

// Cache is a directory of msgpack encoded entries.  It is safe for
// concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns the default cache directory, under XDG_CACHE_HOME or
// ~/.cache.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "declavatar"), nil
}

// Open returns a cache stored in dir, creating the directory if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "compile", key.String()+".mp")
}

// Put writes e under key, replacing any previous entry atomically.  A nil
// Cache ignores the call.
func (c *Cache) Put(key Digest, e *Entry) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	stored := *e
	stored.Schema = schemaVersion
	if err := msgpack.NewEncoder(f).Encode(&stored); err != nil {
		f.Close()
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the entry stored under key.  A missing entry, or one written
// by another version, is reported as not found.  A nil Cache finds
// nothing.
func (c *Cache) Get(key Digest) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if e.Schema != schemaVersion {
		return nil, false, nil
	}
	return &e, true, nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "compile"))
}
