package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"github.com/justyntemme/bookscout/internal/metrics"
)

// FetchFunc downloads original cover bytes for a cover id and size letter.
type FetchFunc func(ctx context.Context, coverID int, size string) ([]byte, error)

// coverHeights maps a size letter to the height covers are resized to.
var coverHeights = map[string]int{
	"M": 300,
	"L": 600,
}

// CoverCache keeps CDN cover images on local disk, resized and re-encoded
// as JPEG. Cache files are named by a hash of id and size.
type CoverCache struct {
	dir   string
	fetch FetchFunc
}

// NewCoverCache creates the cache directory if needed.
func NewCoverCache(dir string, fetch FetchFunc) (*CoverCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cover cache dir: %w", err)
	}
	return &CoverCache{dir: dir, fetch: fetch}, nil
}

// Get returns the local path of the cached cover, downloading and resizing
// it on a miss.
func (c *CoverCache) Get(ctx context.Context, coverID int, size string) (string, error) {
	height, ok := coverHeights[size]
	if !ok {
		size = "M"
		height = coverHeights[size]
	}

	path := c.cachePath(coverID, size)
	if _, err := os.Stat(path); err == nil {
		metrics.CoverCacheHits.WithLabelValues("hit").Inc()
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	data, err := c.fetch(ctx, coverID, size)
	if err != nil {
		metrics.CoverCacheHits.WithLabelValues("error").Inc()
		return "", err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		metrics.CoverCacheHits.WithLabelValues("error").Inc()
		return "", fmt.Errorf("cover %d is not an image: %s", coverID, mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		metrics.CoverCacheHits.WithLabelValues("error").Inc()
		return "", fmt.Errorf("decoding cover %d: %w", coverID, err)
	}

	img = imaging.Resize(img, 0, height, imaging.Lanczos)

	// Encode to a temp file first so readers never see a half-written cover.
	tmp, err := os.CreateTemp(c.dir, "cover-*")
	if err != nil {
		return "", err
	}
	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("encoding cover %d: %w", coverID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	metrics.CoverCacheHits.WithLabelValues("miss").Inc()
	return path, nil
}

// cachePath names cache entries {hash}.jpg like the rest of the covers dir.
func (c *CoverCache) cachePath(coverID int, size string) string {
	key := xxhash.Sum64String(fmt.Sprintf("%d-%s", coverID, size))
	return filepath.Join(c.dir, fmt.Sprintf("%016x.jpg", key))
}
