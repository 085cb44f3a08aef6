package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Cache stores node outputs keyed by node kind and input fingerprint.
// Entries expire after the node's configured TTL.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	outputs   map[string]any
	expiresAt time.Time
}

// NewCache creates an empty in-memory result cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Key computes the cache key for a node given its resolved inputs.
// CacheKeyFile hashes the content of the file named by the file_path
// input, so a re-uploaded identical document hits the cache while a
// changed one misses.
func (c *Cache) Key(node *Node, inputs map[string]any) (string, error) {
	switch node.Cache.Key {
	case CacheKeyFile:
		path, _ := inputs["file_path"].(string)
		if path == "" {
			return "", fmt.Errorf("node %s: file cache key requires file_path input", node.ID)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("node %s: hashing cached file: %w", node.ID, err)
		}
		sum := sha256.Sum256(data)
		return node.Kind + ":" + hex.EncodeToString(sum[:]), nil
	default:
		digest, err := fingerprint(inputs)
		if err != nil {
			return "", fmt.Errorf("node %s: fingerprinting inputs: %w", node.ID, err)
		}
		return node.Kind + ":" + digest, nil
	}
}

// Get returns the cached outputs for a key, if present and unexpired.
func (c *Cache) Get(key string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.outputs, true
}

// Put stores outputs under a key with the given TTL.
func (c *Cache) Put(key string, outputs map[string]any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		outputs:   outputs,
		expiresAt: c.now().Add(ttl),
	}
}

// Purge removes every expired entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// fingerprint hashes inputs as canonical JSON with sorted keys so two
// equal input maps always produce the same key.
func fingerprint(inputs map[string]any) (string, error) {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		data, err := json.Marshal(inputs[k])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s=%s;", k, data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
