package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// FileStore is a file-backed KV implementation. Each key maps to one
// file under the base directory; values are zstd-compressed on disk.
// An index file maps hashed file names back to keys so prefix listing
// survives a process restart.
type FileStore struct {
	basePath string

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.RWMutex
	index map[string]fileEntry // key -> entry
}

// fileEntry describes one stored value on disk.
type fileEntry struct {
	Key        string `json:"key"`
	FileName   string `json:"file"`
	Compressed bool   `json:"compressed"`
}

const indexFileName = "index.json"

// NewFileStore opens (or creates) a file store rooted at basePath and
// rebuilds the key index from disk.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	fs := &FileStore{
		basePath: basePath,
		encoder:  encoder,
		decoder:  decoder,
		index:    make(map[string]fileEntry),
	}

	// Missing or unreadable index means an empty store; entries written
	// later rebuild it.
	if err := fs.loadIndex(); err != nil {
		fs.index = make(map[string]fileEntry)
	}

	return fs, nil
}

// Get returns the value for key, or ok=false when absent or unreadable.
func (fs *FileStore) Get(key string) ([]byte, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entry, ok := fs.index[key]
	if !ok {
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(fs.basePath, entry.FileName))
	if err != nil {
		// File missing or unreadable: drop the index entry.
		delete(fs.index, key)
		fs.saveIndexLocked()
		return nil, false
	}

	if entry.Compressed {
		decompressed, err := fs.decoder.DecodeAll(data, nil)
		if err != nil {
			delete(fs.index, key)
			os.Remove(filepath.Join(fs.basePath, entry.FileName))
			fs.saveIndexLocked()
			return nil, false
		}
		data = decompressed
	}

	return data, true
}

// Set stores value under key, overwriting any existing value.
func (fs *FileStore) Set(key string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	toWrite := value
	compressed := false
	if len(value) > 128 {
		if c := fs.encoder.EncodeAll(value, nil); len(c) < len(value) {
			toWrite = c
			compressed = true
		}
	}

	fileName := hashFileName(key)
	path := filepath.Join(fs.basePath, fileName)

	// Write to a temp file first so a crash never leaves a torn value.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, toWrite, 0o644); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit storage file: %w", err)
	}

	fs.index[key] = fileEntry{
		Key:        key,
		FileName:   fileName,
		Compressed: compressed,
	}
	return fs.saveIndexLocked()
}

// Delete removes key and its backing file.
func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entry, ok := fs.index[key]
	if !ok {
		return nil
	}

	os.Remove(filepath.Join(fs.basePath, entry.FileName))
	delete(fs.index, key)
	return fs.saveIndexLocked()
}

// Keys returns every stored key with the given prefix.
func (fs *FileStore) Keys(prefix string) []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	keys := make([]string, 0, len(fs.index))
	for key := range fs.index {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Close releases the compression codecs.
func (fs *FileStore) Close() error {
	fs.encoder.Close()
	fs.decoder.Close()
	return nil
}

// loadIndex reads the index file from disk.
func (fs *FileStore) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(fs.basePath, indexFileName))
	if err != nil {
		return err
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	for _, e := range entries {
		fs.index[e.Key] = e
	}
	return nil
}

// saveIndexLocked writes the index file. Caller holds fs.mu.
func (fs *FileStore) saveIndexLocked() error {
	entries := make([]fileEntry, 0, len(fs.index))
	for _, e := range fs.index {
		entries = append(entries, e)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode storage index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(fs.basePath, indexFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write storage index: %w", err)
	}
	return nil
}

// hashFileName derives a stable on-disk name for a key.
func hashFileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + ".dat"
}
