// Package imagecache caches both the raw bytes of icon sources (a local
// file path or a URL) and, keyed on top of that, the fully decoded and
// resized RGBA image produced from them — so two bindings that render the
// same (source, color, size) combination skip SVG parse/colorize/
// rasterize or raster decode entirely, not just the disk read or network
// fetch. Grounded on the go.mod precedent in the helixml-helix example
// repo for github.com/hashicorp/golang-lru/v2; file mtime invalidation and
// URL TTL are spec.md §4.6's stated invalidation rules, applied to both
// cache layers.
package imagecache

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of raw icon sources kept resident.
const DefaultCapacity = 128

// DefaultURLTTL is how long a fetched URL source is considered fresh.
const DefaultURLTTL = 5 * time.Minute

type entry struct {
	data    []byte
	mtime   time.Time // for file sources: the source file's mtime at fetch time
	fetched time.Time // for URL sources: when the bytes were fetched
}

// imageEntry is a decoded/resized icon cached against the same
// invalidation signal (file mtime or URL fetch time) as its raw bytes.
type imageEntry struct {
	img     image.Image
	mtime   time.Time
	fetched time.Time
}

// DecodeFunc decodes and resizes raw icon bytes into the final image a
// render call draws, e.g. internal/render's LoadIcon+ResizeToFit pipeline.
// It lives in the caller (internal/render) rather than imagecache, since
// imagecache cannot import render without an import cycle.
type DecodeFunc func(data []byte) (image.Image, error)

// Cache holds both the raw-byte cache (keyed by bare source string) and
// the decoded-image cache (keyed by source+color+size, per spec.md
// §4.6's "<source>@[<color>@]<target_size_px>" format). The underlying
// LRUs' own internal locking makes Cache safe for concurrent use.
type Cache struct {
	lru        *lru.Cache[string, entry]
	images     *lru.Cache[string, imageEntry]
	httpClient *http.Client
	urlTTL     time.Duration
}

// New returns a Cache with the given capacity and URL TTL.
func New(capacity int, urlTTL time.Duration) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if urlTTL <= 0 {
		urlTTL = DefaultURLTTL
	}
	l, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, err
	}
	images, err := lru.New[string, imageEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, images: images, httpClient: &http.Client{Timeout: 5 * time.Second}, urlTTL: urlTTL}, nil
}

// imageKey builds the decoded-image cache key: "<source>@[<color>@]
// <target_size_px>", color omitted entirely when there's no override.
func imageKey(source, color string, targetSize int) string {
	if color == "" {
		return fmt.Sprintf("%s@%d", source, targetSize)
	}
	return fmt.Sprintf("%s@%s@%d", source, color, targetSize)
}

// GetImage returns the decoded/resized image for (source, color,
// targetSize), calling decode on a cache miss (or on the source's
// underlying bytes changing) and caching the result. The raw bytes
// themselves go through Get, so a source shared across multiple
// (color, size) combinations still only hits disk/network once per raw
// invalidation window.
func (c *Cache) GetImage(source, color string, targetSize int, decode DecodeFunc) (image.Image, error) {
	key := imageKey(source, color, targetSize)

	if isURL(source) {
		if e, ok := c.images.Get(key); ok && time.Since(e.fetched) < c.urlTTL {
			return e.img, nil
		}
	} else if fi, err := os.Stat(source); err == nil {
		if e, ok := c.images.Get(key); ok && e.mtime.Equal(fi.ModTime()) {
			return e.img, nil
		}
	}

	data, err := c.Get(source)
	if err != nil {
		return nil, err
	}
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	var mtime time.Time
	if !isURL(source) {
		if fi, err := os.Stat(source); err == nil {
			mtime = fi.ModTime()
		}
	}
	c.images.Add(key, imageEntry{img: img, mtime: mtime, fetched: time.Now()})
	return img, nil
}

// Get returns the raw bytes for source, reading/fetching and caching them
// if necessary. File sources are invalidated by mtime change; URL sources
// are invalidated after urlTTL.
func (c *Cache) Get(source string) ([]byte, error) {
	if isURL(source) {
		return c.getURL(source)
	}
	return c.getFile(source)
}

func (c *Cache) getFile(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	mtime := fi.ModTime()

	if e, ok := c.lru.Get(path); ok && e.mtime.Equal(mtime) {
		return e.data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.lru.Add(path, entry{data: data, mtime: mtime})
	return data, nil
}

func (c *Cache) getURL(url string) ([]byte, error) {
	if e, ok := c.lru.Get(url); ok && time.Since(e.fetched) < c.urlTTL {
		return e.data, nil
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.lru.Add(url, entry{data: data, fetched: time.Now()})
	return data, nil
}

// Invalidate removes source from both cache layers, forcing the next Get
// to re-read/re-fetch it and the next GetImage to re-decode it regardless
// of color/size.
func (c *Cache) Invalidate(source string) {
	c.lru.Remove(source)
	prefix := source + "@"
	for _, key := range c.images.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.images.Remove(key)
		}
	}
}

// Len returns the number of sources currently cached.
func (c *Cache) Len() int { return c.lru.Len() }

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
