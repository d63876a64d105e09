package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"campuscal/internal/fsutil"
)

// cacheEntry holds HTTP cache metadata for a single GET.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// diskCache stores the last good response body of each GET, keyed by the
// URL and the identity it was fetched for, so one user's data is never
// served to another.
type diskCache struct {
	dir string
}

func newDiskCache(dir string) *diskCache {
	if dir == "" {
		return nil
	}
	return &diskCache{dir: dir}
}

func (c *diskCache) pathFor(identity, url string) string {
	sum := sha256.Sum256([]byte(identity + " " + url))
	// First 16 hex chars as directory name.
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8]))
}

// load returns the cached metadata and body. Missing or unreadable entries
// yield zero values.
func (c *diskCache) load(identity, url string) (cacheEntry, []byte) {
	if c == nil {
		return cacheEntry{}, nil
	}
	p := c.pathFor(identity, url)

	var meta cacheEntry
	if data, err := os.ReadFile(filepath.Join(p, "meta.json")); err == nil {
		if err := json.Unmarshal(data, &meta); err != nil {
			meta = cacheEntry{}
		}
	}
	body, err := os.ReadFile(filepath.Join(p, "body.json"))
	if err != nil {
		return cacheEntry{}, nil
	}
	return meta, body
}

func (c *diskCache) save(identity string, meta cacheEntry, body []byte) error {
	if c == nil {
		return nil
	}
	p := c.pathFor(identity, meta.URL)

	// Write body first so meta never points at missing body.
	if err := fsutil.WriteFileAtomic(filepath.Join(p, "body.json"), body); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filepath.Join(p, "meta.json"), data)
}

// redactURL hides the path and query of a URL for logging, e.g.
// "https://api.example.edu/...(redacted)".
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "backend://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
