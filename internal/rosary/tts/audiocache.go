package tts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCacheMaxAge is how long synthesized audio is kept after last use.
const DefaultCacheMaxAge = 30 * 24 * time.Hour

// AudioCache manages the mp3 files written by the Google backend.
type AudioCache struct {
	dir    string
	maxAge time.Duration
}

// CacheInfo describes the state of the audio cache
type CacheInfo struct {
	Dir          string
	Exists       bool
	Files        int
	Size         int64
	LastModified time.Time
	Stale        int
	MaxAge       time.Duration
}

func NewAudioCache(dir string, maxAge time.Duration) *AudioCache {
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return &AudioCache{dir: dir, maxAge: maxAge}
}

func (c *AudioCache) Dir() string {
	return c.dir
}

// Info returns information about the cache
func (c *AudioCache) Info() (CacheInfo, error) {
	info := CacheInfo{Dir: c.dir, MaxAge: c.maxAge}

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return info, nil
	} else if err != nil {
		return info, fmt.Errorf("failed to stat cache dir: %w", err)
	}
	info.Exists = true

	err := c.walk(func(path string, fi os.FileInfo) error {
		info.Files++
		info.Size += fi.Size()
		if fi.ModTime().After(info.LastModified) {
			info.LastModified = fi.ModTime()
		}
		if !c.isFresh(fi) {
			info.Stale++
		}
		return nil
	})
	return info, err
}

// Prune removes audio not used within the max age and reports how many
// files were deleted.
func (c *AudioCache) Prune() (int, error) {
	removed := 0
	err := c.walk(func(path string, fi os.FileInfo) error {
		if c.isFresh(fi) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
		return nil
	})
	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"removed": removed,
			"dir":     c.dir,
		}).Info("Pruned audio cache")
	}
	return removed, err
}

// Clear removes every cached file
func (c *AudioCache) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	logrus.WithField("dir", c.dir).Info("Cleared audio cache")
	return nil
}

// touch marks a cached file as just used so Prune keeps it.
func (c *AudioCache) touch(path string) {
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		logrus.WithError(err).WithField("file", path).Debug("Failed to touch cached audio")
	}
}

func (c *AudioCache) isFresh(fi os.FileInfo) bool {
	return time.Since(fi.ModTime()) < c.maxAge
}

func (c *AudioCache) walk(fn func(path string, fi os.FileInfo) error) error {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp3") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if err := fn(filepath.Join(c.dir, entry.Name()), fi); err != nil {
			return err
		}
	}
	return nil
}
