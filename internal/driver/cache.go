package driver

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"objrw/internal/ast"
	"objrw/internal/diag"
)

// Current schema version - increment when CacheEntry format changes
const cacheSchemaVersion uint16 = 1

var cacheMagic = [4]byte{'O', 'R', 'W', 'C'}

const (
	cacheHeaderSize = 9 // magic, flags, raw length
	flagLZ4         = 1
)

// Digest is a SHA-256 cache key.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// CacheEntry is the stored result of one translation unit.
type CacheEntry struct {
	Schema      uint16
	Output      string
	Diagnostics []diag.Diagnostic
	Stale       int
}

// Cache хранит результаты переписывания на диске по ключу Digest.
// Thread-safe for concurrent access.
type Cache struct {
	mu       sync.RWMutex
	dir      string
	compress bool
	maxSize  uint64
}

// OpenCache creates dir when missing. maxSize 0 means unlimited.
func OpenCache(dir string, compress bool, maxSize uint64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Cache{dir: dir, compress: compress, maxSize: maxSize}, nil
}

// CacheKey covers everything the output depends on: the source, the unit
// document, the effective options and the schema.
func CacheKey(src, unitDoc []byte, path string, opts Options) Digest {
	h := sha256.New()
	var n [8]byte
	part := func(b []byte) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
		_, _ = h.Write(n[:])
		_, _ = h.Write(b)
	}
	part(src)
	part(unitDoc)
	part([]byte(path))
	part([]byte(fmt.Sprintf("ms=%s|hdr=%s|stret=%d|ptr=%d|silence=%t",
		tristate(opts.MSExtensions), tristate(opts.Header), opts.StructReturnThreshold, opts.PointerSize, opts.SilenceMacroWarnings)))
	part([]byte(strconv.Itoa(int(cacheSchemaVersion)) + "/" + strconv.Itoa(int(ast.SchemaVersion))))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func tristate(b *bool) string {
	if b == nil {
		return "-"
	}
	return strconv.FormatBool(*b)
}

func (c *Cache) pathFor(key Digest) string {
	s := key.String()
	return filepath.Join(c.dir, s[:2], s+".orc")
}

// Get returns the entry stored under key. A missing, corrupt or outdated
// entry is a miss.
func (c *Cache) Get(key Digest) (*CacheEntry, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	raw, err := unpackEntry(data)
	if err != nil {
		return nil, false
	}
	var e CacheEntry
	if err := msgpack.Unmarshal(raw, &e); err != nil || e.Schema != cacheSchemaVersion {
		return nil, false
	}
	return &e, true
}

// Put stores e under key. It reports false without error when the encoded
// entry exceeds the size limit.
func (c *Cache) Put(key Digest, e *CacheEntry) (bool, error) {
	if c == nil {
		return false, nil
	}
	e.Schema = cacheSchemaVersion
	raw, err := msgpack.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("encode cache entry: %w", err)
	}
	data, err := packEntry(raw, c.compress)
	if err != nil {
		return false, err
	}
	if c.maxSize > 0 && uint64(len(data)) > c.maxSize {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := writeAtomic(c.pathFor(key), data); err != nil {
		return false, fmt.Errorf("store cache entry: %w", err)
	}
	return true, nil
}

// Clear drops every entry.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func packEntry(raw []byte, compress bool) ([]byte, error) {
	var hdr [cacheHeaderSize]byte
	copy(hdr[:4], cacheMagic[:])
	binary.LittleEndian.PutUint32(hdr[5:], uint32(len(raw))) // #nosec G115 -- entries stay far below 4GiB
	if compress {
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("compress cache entry: %w", err)
		}
		// n == 0: данные несжимаемы, пишем как есть
		if n > 0 && n < len(raw) {
			hdr[4] = flagLZ4
			return append(hdr[:], buf[:n]...), nil
		}
	}
	return append(hdr[:], raw...), nil
}

var errCorruptEntry = errors.New("corrupt cache entry")

func unpackEntry(data []byte) ([]byte, error) {
	if len(data) < cacheHeaderSize || !bytes.Equal(data[:4], cacheMagic[:]) {
		return nil, errCorruptEntry
	}
	size := binary.LittleEndian.Uint32(data[5:cacheHeaderSize])
	body := data[cacheHeaderSize:]
	if data[4]&flagLZ4 == 0 {
		if uint32(len(body)) != size { // #nosec G115
			return nil, errCorruptEntry
		}
		return body, nil
	}
	raw := make([]byte, size)
	n, err := lz4.UncompressBlock(body, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptEntry, err)
	}
	if uint32(n) != size { // #nosec G115
		return nil, errCorruptEntry
	}
	return raw, nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, path)
}
