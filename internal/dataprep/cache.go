package dataprep

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"basket-rules/internal/models"
)

const cacheVersion = "v1"

type cacheKey struct {
	Path    string
	Sheet   string
	Columns models.Columns
}

type cacheEntry struct {
	Version    string
	Key        cacheKey
	SourceSize int64
	SourceMod  time.Time
	Records    []models.Record
}

// cache keeps cleaned record sets on disk, one gob file per source file and
// column mapping. An entry is valid while the source size and mtime match.
type cache struct {
	dir string
}

func newCache(dir string) *cache {
	return &cache{dir: dir}
}

func (c *cache) filename(key cacheKey) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%s",
		key.Path, key.Sheet, key.Columns.Invoice, key.Columns.Item, key.Columns.Country, key.Columns.Quantity)
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.gob", hex.EncodeToString(h.Sum(nil))[:32], cacheVersion))
}

func (c *cache) load(key cacheKey, source os.FileInfo) ([]models.Record, bool) {
	file, err := os.Open(c.filename(key))
	if err != nil {
		return nil, false
	}
	defer file.Close()

	var entry cacheEntry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, false
	}

	if entry.Version != cacheVersion || entry.Key != key {
		return nil, false
	}
	if entry.SourceSize != source.Size() || !entry.SourceMod.Equal(source.ModTime()) {
		return nil, false
	}
	return entry.Records, true
}

func (c *cache) save(key cacheKey, source os.FileInfo, records []models.Record) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	entry := cacheEntry{
		Version:    cacheVersion,
		Key:        key,
		SourceSize: source.Size(),
		SourceMod:  source.ModTime(),
		Records:    records,
	}
	if err := gob.NewEncoder(tmp).Encode(&entry); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.filename(key))
}
