package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/OneOfOne/xxhash"
	"github.com/pkg/errors"
	"github.com/teris-io/shortid"
)

// TextureCacheDir returns the on-disk cache directory for textures
// imported alongside assetPath.
func TextureCacheDir(assetPath string) string {
	return filepath.Join(filepath.Dir(assetPath), ".cache", "textures")
}

// TextureCachePath returns the deterministic cache file path for a
// source texture, keyed by its source key, the max dimension it was
// constrained to, and whether it was decoded as sRGB. Two imports of
// the same source with the same constraints always resolve to the
// same path, so a second run can skip re-decoding and resizing.
func TextureCachePath(cacheDir, sourceKey string, maxSize uint32, srgb bool) string {
	colorSpace := "lin"
	if srgb {
		colorSpace = "srgb"
	}
	key := fmt.Sprintf("%s|%d|%s|v2", sourceKey, maxSize, colorSpace)
	h := xxhash.ChecksumString64(key)
	return filepath.Join(cacheDir, fmt.Sprintf("%016x.bin", h))
}

// WriteFileAtomic writes data to outFile by first writing to a
// uniquely-named sibling temp file and renaming it into place, so a
// concurrent reader never observes a partially written cache entry.
// If the rename fails because outFile already exists (another loader
// worker won the race to populate the same cache entry), the temp
// file is discarded and no error is returned.
func WriteFileAtomic(outFile string, data []byte) error {
	dir := filepath.Dir(outFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "cache: creating cache dir %q", dir)
	}
	suffix, err := shortid.Generate()
	if err != nil {
		return errors.Wrap(err, "cache: generating temp file suffix")
	}
	tmp := filepath.Join(dir, filepath.Base(outFile)+".tmp."+suffix)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "cache: writing temp file %q", tmp)
	}
	if err := os.Rename(tmp, outFile); err != nil {
		if _, statErr := os.Stat(outFile); statErr == nil {
			os.Remove(tmp)
			return nil
		}
		os.Remove(tmp)
		return errors.Wrapf(err, "cache: renaming %q to %q", tmp, outFile)
	}
	return nil
}

// Lookup reports whether a cache entry already exists at path, so a
// loader can skip reprocessing a texture entirely.
func Lookup(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
